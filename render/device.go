// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
)

// DeviceHandle provides GPU device access from the host application.
//
// DeviceHandle is an alias for gpucontext.DeviceProvider. A Context only
// consults it for the surface format tile textures should use; textures
// themselves are created by package gpu.
type DeviceHandle = gpucontext.DeviceProvider

// NullDeviceHandle is the handle of a context without a GPU. Tiles are
// then painted by the raster path only.
type NullDeviceHandle struct{}

func (NullDeviceHandle) Device() gpucontext.Device   { return nil }
func (NullDeviceHandle) Queue() gpucontext.Queue     { return nil }
func (NullDeviceHandle) Adapter() gpucontext.Adapter { return nil }

// SurfaceFormat reports no surface.
func (NullDeviceHandle) SurfaceFormat() gputypes.TextureFormat {
	return gputypes.TextureFormatUndefined
}

// AdapterInfo reports an unknown adapter.
func (NullDeviceHandle) AdapterInfo() gpucontext.AdapterInfo {
	return gpucontext.AdapterInfo{Type: gpucontext.AdapterTypeUnknown}
}

var _ DeviceHandle = NullDeviceHandle{}

// hasDevice reports whether h provides a real device.
func hasDevice(h DeviceHandle) bool {
	return h != nil && h.Device() != nil
}

// tileFormat picks the texture format for tiles: the device's surface
// format when it is one the renderers can write, RGBA8 otherwise.
func tileFormat(h DeviceHandle) gputypes.TextureFormat {
	if h == nil {
		return gputypes.TextureFormatRGBA8Unorm
	}
	switch f := h.SurfaceFormat(); f {
	case gputypes.TextureFormatRGBA8Unorm, gputypes.TextureFormatBGRA8Unorm:
		return f
	default:
		return gputypes.TextureFormatRGBA8Unorm
	}
}
