package tiles

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// ConfigWatcher reloads a config file whenever it changes on disk and
// hands every successfully parsed version to a callback.
//
// The directory holding the file is watched rather than the file itself so
// that editors replacing the file by rename keep being observed.
type ConfigWatcher struct {
	path    string
	watcher *fsnotify.Watcher
	onLoad  func(*Config)
	done    chan struct{}
	wg      sync.WaitGroup
	once    sync.Once
}

// NewConfigWatcher starts watching path. onLoad runs on the watcher
// goroutine; invalid files are logged and skipped.
func NewConfigWatcher(path string, onLoad func(*Config)) (*ConfigWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("tiles: resolve %s: %w", path, err)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("tiles: create watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("tiles: watch %s: %w", filepath.Dir(abs), err)
	}

	cw := &ConfigWatcher{
		path:    abs,
		watcher: w,
		onLoad:  onLoad,
		done:    make(chan struct{}),
	}
	cw.wg.Add(1)
	go cw.loop()
	return cw, nil
}

func (cw *ConfigWatcher) loop() {
	defer cw.wg.Done()
	for {
		select {
		case <-cw.done:
			return
		case ev, ok := <-cw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != cw.path {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			cfg, err := LoadConfig(cw.path)
			if err != nil {
				Logger().Warn("config reload failed", "path", cw.path, "err", err)
				continue
			}
			Logger().Info("config reloaded", "path", cw.path, "renderer", cfg.Renderer)
			cw.onLoad(cfg)
		case err, ok := <-cw.watcher.Errors:
			if !ok {
				return
			}
			Logger().Warn("config watcher error", "err", err)
		}
	}
}

// Close stops the watcher and waits for its goroutine. Close is idempotent.
func (cw *ConfigWatcher) Close() error {
	var err error
	cw.once.Do(func() {
		close(cw.done)
		err = cw.watcher.Close()
		cw.wg.Wait()
	})
	return err
}

// WatchConfig calls fn with every new version of the config file at path
// until ctx is cancelled.
func WatchConfig(ctx context.Context, path string, fn func(*Config)) error {
	cw, err := NewConfigWatcher(path, fn)
	if err != nil {
		return err
	}
	<-ctx.Done()
	return cw.Close()
}
