// Command tiledemo drives the tiled rendering pipeline end to end.
//
// It records a short animation, pushes each frame through the update
// manager, paints the dirty tiles on the texture generator, services a
// video window request on a render goroutine and writes the composed
// tiles to a PNG file.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log"
	"log/slog"
	"os"
	"sync"
	"time"

	"golang.org/x/image/draw"

	"github.com/gogpu/tiles"
	"github.com/gogpu/tiles/media"
	"github.com/gogpu/tiles/picture"
	"github.com/gogpu/tiles/profiler"
	"github.com/gogpu/tiles/render"
	"github.com/gogpu/tiles/shader"
	"github.com/gogpu/tiles/surface"
	"github.com/gogpu/tiles/texgen"
	"github.com/gogpu/tiles/tile"
)

func main() {
	var (
		configPath = flag.String("config", "", "TOML config file (defaults when empty)")
		width      = flag.Int("width", 800, "content width")
		height     = flag.Int("height", 600, "content height")
		output     = flag.String("output", "tiles.png", "output file")
		frames     = flag.Int("frames", 30, "frames to render")
		renderer   = flag.String("renderer", "", "override renderer (raster or ganesh)")
		overlay    = flag.Bool("overlay", false, "draw the visual indicator overlay")
		watch      = flag.Bool("watch", false, "reload -config while rendering")
		frameDelay = flag.Duration("delay", 0, "pause between frames")
		verbose    = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	tiles.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if *renderer != "" {
		cfg.Renderer = *renderer
	}
	if *overlay {
		cfg.ShowVisualIndicator = true
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	d := &demo{cfg: cfg, width: *width, height: *height}
	if err := d.setup(); err != nil {
		log.Fatalf("setup: %v", err)
	}
	defer d.close()

	if *watch && *configPath != "" {
		w, err := tiles.NewConfigWatcher(*configPath, d.reload)
		if err != nil {
			log.Fatalf("watch: %v", err)
		}
		defer w.Close()
	}

	for i := range *frames {
		if err := d.frame(i); err != nil {
			log.Fatalf("frame %d: %v", i, err)
		}
		if *frameDelay > 0 {
			time.Sleep(*frameDelay)
		}
	}

	d.composite()
	d.displayPerf()
	if err := d.exportProfile(); err != nil {
		log.Printf("profile export failed: %v", err)
	}
	if err := savePNG(*output, d.compose()); err != nil {
		log.Fatalf("Failed to save: %v", err)
	}
	log.Printf("Rendered %d frames to %s (%dx%d, %s)\n", *frames, *output, *width, *height, d.rctx.RendererType())
}

func loadConfig(path string) (*tiles.Config, error) {
	if path == "" {
		cfg := tiles.DefaultConfig()
		return &cfg, nil
	}
	cfg, err := tiles.LoadConfig(path)
	if errors.Is(err, os.ErrNotExist) {
		def := tiles.DefaultConfig()
		if err := tiles.WriteConfig(path, &def); err != nil {
			return nil, err
		}
		return &def, nil
	}
	return cfg, err
}

type demo struct {
	cfg           *tiles.Config
	width, height int

	rctx  *render.Context
	gen   *texgen.Generator
	layer *tile.Layer
	prof  *profiler.Profiler
	media *media.Manager
	video *surface.Window

	stopRender context.CancelFunc
	renderDone chan struct{}

	mu        sync.Mutex
	renderers []render.Renderer

	lastBall image.Rectangle
}

func (d *demo) setup() error {
	rctx, err := render.NewContextFromConfig(d.cfg, render.WithCreateHook(func(r render.Renderer) {
		d.mu.Lock()
		d.renderers = append(d.renderers, r)
		d.mu.Unlock()
	}))
	if err != nil {
		return err
	}
	d.rctx = rctx
	d.gen = texgen.New()

	opts := []tile.Option{tile.WithMeasurePerf(d.cfg.MeasurePerf)}
	if d.cfg.ProfileDB != "" {
		d.prof = profiler.New()
		d.prof.Start()
		opts = append(opts, tile.WithProfiler(d.prof))
	}
	d.layer = tile.NewLayer(rctx, d.gen, opts...)
	d.layer.SetContentSize(d.width, d.height)

	d.media = media.New(nil, media.WithConfig(d.cfg))
	ctx, cancel := context.WithCancel(context.Background())
	d.stopRender = cancel
	d.renderDone = make(chan struct{})
	go func() {
		d.media.Loop().Run(ctx)
		close(d.renderDone)
	}()

	d.video = d.media.RequestNewWindow()
	if d.video != nil {
		d.media.SetDimensions(d.video, shader.Rect{X: 20, Y: 20, W: 160, H: 90})
	}
	return nil
}

func (d *demo) reload(cfg *tiles.Config) {
	if err := d.rctx.ApplyConfig(cfg); err != nil {
		tiles.Logger().Warn("tiledemo: ignoring config", "err", err)
		return
	}
	tiles.Logger().Info("tiledemo: config reloaded", "renderer", cfg.Renderer)
}

// frame records one animation step and paints the tiles it dirtied.
func (d *demo) frame(i int) error {
	ball := d.ballRect(i)
	pic := d.record(i, ball)
	d.layer.UpdatePicture(pic)
	pic.Unref()

	if i == 0 {
		d.layer.Invalidate(image.Rect(0, 0, d.width, d.height))
	} else {
		d.layer.Invalidate(d.lastBall.Union(ball))
		d.layer.Invalidate(image.Rect(0, 0, 200, 40))
	}
	d.lastBall = ball

	d.layer.Swap()
	if _, err := d.layer.ScheduleDirty(); err != nil {
		return err
	}
	d.waitTiles()
	d.layer.ReportTiles(image.Rect(0, 0, d.width, d.height))

	if d.video != nil {
		_ = d.video.QueueBuffer(&surface.Buffer{
			Width:     160,
			Height:    90,
			Format:    surface.FormatRGBX8888,
			Pixels:    image.NewRGBA(image.Rect(0, 0, 160, 90)),
			Timestamp: int64(i) * int64(time.Second/30),
		})
		d.media.Loop().Post(func() {
			bounds := shader.Rect{W: float32(d.width), H: float32(d.height)}
			d.media.Draw(shader.Identity4(), shader.Identity4(), bounds)
		})
	}
	return nil
}

func (d *demo) ballRect(i int) image.Rectangle {
	const r = 40
	x := r + (i*23)%max(d.width-2*r, 1)
	y := r + (i*17)%max(d.height-2*r, 1)
	return image.Rect(x-r, y-r, x+r, y+r)
}

func (d *demo) record(i int, ball image.Rectangle) *picture.Picture {
	rec := picture.NewRecorder(d.width, d.height)
	rec.Clear(color.RGBA{240, 240, 250, 255})

	rec.SetStrokeColor(color.RGBA{200, 200, 220, 255})
	rec.SetStrokeWidth(1)
	for x := 0; x < d.width; x += 50 {
		rec.DrawLine(float64(x), 0, float64(x), float64(d.height))
	}

	rec.SetFillColor(color.RGBA{220, 60, 60, 255})
	c := ball.Min.Add(image.Pt(ball.Dx()/2, ball.Dy()/2))
	rec.Circle(float64(c.X), float64(c.Y), float64(ball.Dx()/2))
	rec.Fill()

	rec.SetFillColor(color.Black)
	rec.DrawText(fmt.Sprintf("frame %d", i), 10, 25)
	return rec.Finish()
}

func (d *demo) waitTiles() {
	for {
		busy := d.gen.Pending() > 0
		for _, t := range d.layer.Tiles() {
			if t.RepaintPending() {
				busy = true
				break
			}
		}
		if !busy {
			return
		}
		time.Sleep(time.Millisecond)
	}
}

// composite flushes the recorded compositor quads.
func (d *demo) composite() {
	done := make(chan int)
	d.media.Loop().Post(func() {
		done <- d.media.Program().Flush(shader.SinkFunc(func(shader.Quad) {}))
	})
	tiles.Logger().Info("tiledemo: compositor quads", "count", <-done)
}

func (d *demo) compose() *image.RGBA {
	out := image.NewRGBA(image.Rect(0, 0, d.width, d.height))
	ts := d.rctx.TileSize()
	for _, t := range d.layer.Tiles() {
		m, ok := t.Texture().Texture.(*render.MemoryTexture)
		if !ok {
			continue
		}
		at := image.Pt(t.X()*ts.X, t.Y()*ts.Y)
		draw.Draw(out, image.Rectangle{Min: at, Max: at.Add(ts)}, m.Snapshot(), image.Point{}, draw.Src)
	}
	return out
}

// displayPerf logs the slow phases of every renderer created so far and
// returns how many were logged.
func (d *demo) displayPerf() int {
	if !d.cfg.MeasurePerf {
		return 0
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, r := range d.renderers {
		n += r.Monitor().Display(float64(d.cfg.PerfDisplayThresholdMs))
	}
	return n
}

func (d *demo) exportProfile() error {
	if d.prof == nil {
		return nil
	}
	ratio := d.prof.Stop()
	tiles.Logger().Info("tiledemo: tiles ready", "ratio", ratio, "frames", d.prof.NumFrames())
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return d.prof.ExportSQLite(ctx, d.cfg.ProfileDB)
}

func (d *demo) close() {
	d.layer.Close()
	d.gen.Close()
	if d.video != nil {
		d.media.ReleaseNativeWindow(d.video)
	}
	closed := make(chan struct{})
	d.media.Loop().Post(func() {
		d.media.Close()
		close(closed)
	})
	<-closed
	d.stopRender()
	<-d.renderDone
}

func savePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
