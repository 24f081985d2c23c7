// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"image/color"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/gogpu/tiles/canvas"
)

// overlayLineHeight is the baseline distance of overlay text lines.
const overlayLineHeight = 13

var overlayPrinter = message.NewPrinter(language.English)

// drawOverlay draws the debug overlay over the freshly rendered area: a
// tint whose alpha depends on the picture count, guide lines and text.
func (r *baseRenderer) drawOverlay(c *canvas.Canvas, info *TileRenderInfo, count int) {
	inval := info.invalRect()
	x, y := float64(inval.Min.X), float64(inval.Min.Y)
	w, h := float64(inval.Dx()), float64(inval.Dy())

	c.Save()
	defer c.Restore()
	c.ClipRect(x, y, w, h)

	c.Clear(overlayTint(count))

	c.DrawLine(x, y, x+w, y+h, overlayRed, 3)
	c.DrawLine(x, y+h, x+w, y, overlayGreen, 3)
	c.DrawLine(x, y, x+w, y, overlayBlue, 3)
	c.DrawLine(x+w, y, x+w, y+h, overlayBlue, 3)

	lines := r.overlayText(info, count)
	// Two passes offset by a pixel, black under red, to fake an outline.
	for i, s := range lines {
		base := y + 10 + float64(i*overlayLineHeight)
		c.DrawText(s, x, base, color.Black)
		c.DrawText(s, x, base+1, color.RGBA{255, 0, 0, 255})
	}
}

// overlayTint returns the translucent green drawn over an inval rect.
func overlayTint(count int) color.NRGBA {
	return color.NRGBA{0, 255, 0, uint8(20 + count%100)}
}

// overlayText returns the tile info line followed by one line per timed
// phase and a total.
func (r *baseRenderer) overlayText(info *TileRenderInfo, count int) []string {
	lines := []string{
		overlayPrinter.Sprintf("(%d,%d) %.2f, %s c%d", info.X, info.Y, info.Scale, r.typ, count),
	}
	if !info.MeasurePerf {
		return lines
	}
	total := 0.0
	for _, tag := range r.tags {
		avg := r.mon.AverageDuration(tag)
		total += avg
		lines = append(lines, overlayPrinter.Sprintf("%s: %.2fms", tag, avg))
	}
	return append(lines, overlayPrinter.Sprintf("total: %.2fms", total))
}
