// Package tile connects layers, tiles and the texture generator.
//
// A Layer owns the double-buffered content of one surface (an
// update.Manager) and a grid of Tiles, each backed by a texture. The
// producer records content with UpdatePicture and Invalidate and promotes
// it with Swap. Swap first removes queued paint operations for the layer
// and waits for one already running, so painting never overlaps a swap.
// ScheduleDirty then queues a PaintOperation for every tile touched by the
// painting region; the operations run on a texgen.Generator goroutine and
// draw through a render.Renderer created from the layer's render.Context.
package tile
