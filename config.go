package tiles

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Renderer names accepted in Config.Renderer.
const (
	RendererRaster = "raster"
	RendererGanesh = "ganesh"
)

// ErrInvalidConfig is returned by Config.Validate and LoadConfig when a
// field is out of range.
var ErrInvalidConfig = errors.New("tiles: invalid config")

// Config holds the tunables of the tile pipeline.
//
// A Config is usually read from a TOML file with LoadConfig and may be
// reloaded at runtime with a ConfigWatcher; only Renderer,
// ShowVisualIndicator and MeasurePerf are meant to change after start-up.
type Config struct {
	// TileWidth and TileHeight are the tile texture dimensions in pixels.
	TileWidth  int `toml:"tile_width"`
	TileHeight int `toml:"tile_height"`

	// Renderer selects the tile rendering strategy: "raster" or "ganesh".
	Renderer string `toml:"renderer"`

	// ShowVisualIndicator enables the debug overlay drawn over each
	// freshly rendered tile.
	ShowVisualIndicator bool `toml:"show_visual_indicator"`

	// MeasurePerf enables per-phase timing of tile rendering.
	MeasurePerf bool `toml:"measure_perf"`

	// PerfDisplayThresholdMs is the threshold used when reporting slow
	// rendering phases.
	PerfDisplayThresholdMs int `toml:"perf_display_threshold_ms"`

	// WindowRequestTimeoutMs bounds how long a video window request waits
	// for the render goroutine.
	WindowRequestTimeoutMs int `toml:"window_request_timeout_ms"`

	// MaxVideoWindows is the number of external video windows that may be
	// acquired at the same time from one texture manager.
	MaxVideoWindows int `toml:"max_video_windows"`

	// ProfileDB is an optional SQLite file the tile profiler exports to.
	ProfileDB string `toml:"profile_db"`
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() Config {
	return Config{
		TileWidth:              256,
		TileHeight:             256,
		Renderer:               RendererRaster,
		PerfDisplayThresholdMs: 16,
		WindowRequestTimeoutMs: 500,
		MaxVideoWindows:        1,
	}
}

// Validate reports whether all fields are in range.
func (c *Config) Validate() error {
	if c.TileWidth <= 0 || c.TileHeight <= 0 {
		return fmt.Errorf("%w: tile size %dx%d", ErrInvalidConfig, c.TileWidth, c.TileHeight)
	}
	switch c.Renderer {
	case RendererRaster, RendererGanesh:
	default:
		return fmt.Errorf("%w: unknown renderer %q", ErrInvalidConfig, c.Renderer)
	}
	if c.WindowRequestTimeoutMs <= 0 {
		return fmt.Errorf("%w: window request timeout %dms", ErrInvalidConfig, c.WindowRequestTimeoutMs)
	}
	if c.MaxVideoWindows < 1 {
		return fmt.Errorf("%w: max video windows %d", ErrInvalidConfig, c.MaxVideoWindows)
	}
	if c.PerfDisplayThresholdMs < 0 {
		return fmt.Errorf("%w: perf threshold %dms", ErrInvalidConfig, c.PerfDisplayThresholdMs)
	}
	return nil
}

// WindowRequestTimeout returns WindowRequestTimeoutMs as a duration.
func (c *Config) WindowRequestTimeout() time.Duration {
	return time.Duration(c.WindowRequestTimeoutMs) * time.Millisecond
}

// LoadConfig reads a TOML config file. Keys missing from the file keep
// their DefaultConfig value.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("tiles: read config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// WriteConfig writes cfg to path in TOML, creating parent directories.
func WriteConfig(path string, cfg *Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("tiles: encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("tiles: create config dir: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("tiles: write config %s: %w", path, err)
	}
	return nil
}
