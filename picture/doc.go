// Package picture provides immutable, reference-counted draw-command lists.
//
// A Recorder captures drawing commands in the order they are issued. Finish
// freezes them into a Picture which can be replayed any number of times,
// from any goroutine, into a Backend such as a canvas.Canvas.
//
// Pictures may embed other pictures. Playback reports how many distinct
// pictures contributed to the output, which callers use for cache
// bookkeeping.
//
// Example:
//
//	rec := picture.NewRecorder(256, 256)
//	rec.SetFillColor(color.RGBA{255, 0, 0, 255})
//	rec.Rectangle(10, 10, 100, 50)
//	rec.Fill()
//	pic := rec.Finish()
//	defer pic.Unref()
//
//	n := pic.Playback(canvas)
package picture
