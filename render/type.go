// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownType is returned by ParseType for an unrecognized name.
var ErrUnknownType = errors.New("render: unknown renderer type")

// Type selects a rendering strategy.
type Type int32

const (
	// Raster renders on the CPU and uploads the result.
	Raster Type = iota

	// Ganesh renders directly into a GPU-resident target.
	Ganesh
)

// String returns the lowercase name of the type.
func (t Type) String() string {
	switch t {
	case Raster:
		return "raster"
	case Ganesh:
		return "ganesh"
	default:
		return fmt.Sprintf("Type(%d)", int32(t))
	}
}

// ParseType parses "raster" or "ganesh", case-insensitively.
func ParseType(s string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "raster":
		return Raster, nil
	case "ganesh":
		return Ganesh, nil
	default:
		return Raster, fmt.Errorf("%w: %q", ErrUnknownType, s)
	}
}
