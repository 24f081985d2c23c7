// Package tiles implements the tiled rendering and update pipeline of a
// browser compositor.
//
// # Overview
//
// Content arrives from a producer goroutine as immutable, reference-counted
// draw-command lists (package picture) together with invalidated regions
// (package region). Each compositable layer double-buffers that state in an
// update.Manager: the producer accumulates deferred state and swaps it into
// the painting side, and a texture-generation goroutine (package texgen)
// replays the painting side into tile textures through a render.Renderer.
//
// Two rendering strategies exist:
//   - Raster: rasterize into a CPU bitmap sized to the invalidated rect and
//     upload it into the tile texture
//   - Ganesh: draw directly into a GPU-resident target of the tile size
//
// The strategy is held by a render.Context and can be switched at runtime,
// for example by editing the config file watched by a ConfigWatcher.
//
// External video and plugin content is handed to the compositor by a
// media.Manager, which owns a small producer/consumer window per stream and
// services window requests from the render goroutine.
//
// # Threads
//
// Three roles cooperate:
//   - the UI goroutine records pictures, invalidates and swaps
//   - the texture-generation goroutine paints tiles
//   - the render goroutine owns texture ids and draws external content
//
// # Logging
//
// All packages log through the logger installed with SetLogger. By default
// nothing is logged.
package tiles
