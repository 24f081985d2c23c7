package profiler

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// ErrEmpty is returned when exporting a profiler with no frames.
var ErrEmpty = errors.New("profiler: no frames recorded")

const schema = `
CREATE TABLE IF NOT EXISTS frames (
    id INTEGER PRIMARY KEY,
    exported_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS records (
    frame_id INTEGER NOT NULL REFERENCES frames(id),
    idx INTEGER NOT NULL,
    left_px INTEGER NOT NULL,
    top_px INTEGER NOT NULL,
    right_px INTEGER NOT NULL,
    bottom_px INTEGER NOT NULL,
    scale REAL NOT NULL,
    ready INTEGER NOT NULL,
    level INTEGER NOT NULL,
    PRIMARY KEY (frame_id, idx)
);
`

// ExportSQLite writes the recorded frames to the database at path,
// replacing any frames previously exported there.
func (p *Profiler) ExportSQLite(ctx context.Context, path string) error {
	frames := p.Frames()
	if len(frames) == 0 {
		return ErrEmpty
	}

	db, err := openDB(path)
	if err != nil {
		return err
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after Commit

	if _, err := tx.ExecContext(ctx, "DELETE FROM records; DELETE FROM frames;"); err != nil {
		return fmt.Errorf("clear tables: %w", err)
	}

	frameStmt, err := tx.PrepareContext(ctx, "INSERT INTO frames (id, exported_at) VALUES (?, ?)")
	if err != nil {
		return fmt.Errorf("prepare frames insert: %w", err)
	}
	defer frameStmt.Close()

	recStmt, err := tx.PrepareContext(ctx,
		"INSERT INTO records (frame_id, idx, left_px, top_px, right_px, bottom_px, scale, ready, level) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("prepare records insert: %w", err)
	}
	defer recStmt.Close()

	stamp := p.now().UnixNano()
	for i, frame := range frames {
		if _, err := frameStmt.ExecContext(ctx, i, stamp); err != nil {
			return fmt.Errorf("insert frame %d: %w", i, err)
		}
		for j, r := range frame {
			ready := 0
			if r.Ready {
				ready = 1
			}
			if _, err := recStmt.ExecContext(ctx, i, j, r.Left, r.Top, r.Right, r.Bottom, r.Scale, ready, r.Level); err != nil {
				return fmt.Errorf("insert record %d/%d: %w", i, j, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// ReadSQLite loads frames written by ExportSQLite.
func ReadSQLite(ctx context.Context, path string) ([][]Record, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("profile database: %w", err)
	}
	db, err := openDB(path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx,
		"SELECT frame_id, left_px, top_px, right_px, bottom_px, scale, ready, level FROM records ORDER BY frame_id, idx")
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	var frames [][]Record
	for rows.Next() {
		var (
			frame int
			ready int
			r     Record
		)
		if err := rows.Scan(&frame, &r.Left, &r.Top, &r.Right, &r.Bottom, &r.Scale, &ready, &r.Level); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		r.Ready = ready != 0
		for len(frames) <= frame {
			frames = append(frames, nil)
		}
		frames[frame] = append(frames[frame], r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read records: %w", err)
	}
	return frames, nil
}

func openDB(path string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create directory: %w", err)
	}
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return db, nil
}
