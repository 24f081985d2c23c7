// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package render turns tile render requests into texture pixels.
//
// # Strategies
//
// A Renderer takes a TileRenderInfo and draws the tile's content, obtained
// from a TilePainter, into the tile's texture. Two strategies exist:
//
//   - RasterRenderer: draws into a CPU bitmap sized to the invalidated rect
//     and uploads it into the texture at the rect's offset
//   - GaneshRenderer: draws straight into a GPU-resident DrawableTexture
//     of the configured tile size, clipped to the invalidated rect
//
// Both share one orchestration, including the optional debug overlay that
// tints the freshly drawn area and prints tile and timing information.
//
// # Context
//
// The selected strategy lives in a Context, not in process-wide state:
//
//	ctx := render.NewContext(render.WithTileSize(256, 256))
//	r := ctx.CreateRenderer()
//	...
//	ctx.SetRendererType(render.Ganesh)
//	ctx.SwapRendererIfNeeded(&r) // r is now a GaneshRenderer
//
// # Textures
//
// Texture is the upload contract used by the raster path. DrawableTexture
// adds a draw session for the GPU path. MemoryTexture implements both on an
// *image.RGBA; package gpu provides hal-backed textures.
//
// # Key Principle
//
// The package RECEIVES a GPU device from the host application through
// DeviceHandle, it does NOT create one.
package render
