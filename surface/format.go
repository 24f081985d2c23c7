// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package surface

import "github.com/gogpu/gputypes"

// PixelFormat is the layout of a producer buffer.
type PixelFormat uint8

const (
	FormatRGBA8888 PixelFormat = iota
	FormatRGBX8888
	FormatRGB888
	FormatRGB565
	FormatRGB332
	FormatBGRA8888
)

var formatNames = [...]string{
	FormatRGBA8888: "RGBA_8888",
	FormatRGBX8888: "RGBX_8888",
	FormatRGB888:   "RGB_888",
	FormatRGB565:   "RGB_565",
	FormatRGB332:   "RGB_332",
	FormatBGRA8888: "BGRA_8888",
}

func (f PixelFormat) String() string {
	if int(f) < len(formatNames) {
		return formatNames[f]
	}
	return "unknown"
}

// HasAlpha reports whether buffers of this format carry an alpha channel.
func (f PixelFormat) HasAlpha() bool {
	switch f {
	case FormatRGBX8888, FormatRGB888, FormatRGB565, FormatRGB332:
		return false
	}
	return true
}

// TextureFormat returns the texture format frames are sampled as.
// Packed formats without a direct equivalent are expanded to RGBA8.
func (f PixelFormat) TextureFormat() gputypes.TextureFormat {
	if f == FormatBGRA8888 {
		return gputypes.TextureFormatBGRA8Unorm
	}
	return gputypes.TextureFormatRGBA8Unorm
}
