/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package viewport owns the pan state of one image slot: the legal offset
// rectangle derived from a "cover" fit, the clamped offset itself, and the
// pointer and keyboard sessions that move it.
//
// An image covering its slot is centred by default. Panning shifts it by an
// offset that is always kept inside Bounds, so the slot never shows empty space.
package viewport

import (
	"math"

	"gocollage/internal/geom"
)

// Bounds is the legal rectangle of pan offsets for one image/container pair.
// It is symmetric around the origin and always contains (0,0).
type Bounds struct {
	MinX, MaxX float64
	MinY, MaxY float64
}

// CoverScale returns the smallest uniform scale at which an image of the given
// intrinsic size covers the container. ok is false while either size is unknown.
func CoverScale(intrinsic, container geom.Size) (scale float64, ok bool) {
	if !intrinsic.Known() || !container.Known() {
		return 0, false
	}
	return math.Max(container.W/intrinsic.W, container.H/intrinsic.H), true
}

// ComputeBounds derives the pan limits for an image covering a container.
// ok is false when either size is zero or unknown; callers keep their previous bounds then.
func ComputeBounds(intrinsic, container geom.Size) (Bounds, bool) {
	s, ok := CoverScale(intrinsic, container)
	if !ok {
		return Bounds{}, false
	}
	ox := overflow(intrinsic.W*s, container.W)
	oy := overflow(intrinsic.H*s, container.H)
	return Bounds{MinX: -ox, MaxX: ox, MinY: -oy, MaxY: oy}, true
}

// overflow is half of the scaled excess along one axis. The cover axis can come
// out a hair negative from rounding; that is still a zero-width range.
func overflow(scaled, container float64) float64 {
	o := (scaled - container) / 2
	if o < 0 {
		return 0
	}
	return o
}

// Clamp returns p moved to the nearest point inside b.
func (b Bounds) Clamp(p geom.Pt) geom.Pt {
	return geom.Pt{
		X: math.Min(math.Max(p.X, b.MinX), b.MaxX),
		Y: math.Min(math.Max(p.Y, b.MinY), b.MaxY),
	}
}

func (b Bounds) Contains(p geom.Pt) bool {
	return p.X >= b.MinX && p.X <= b.MaxX && p.Y >= b.MinY && p.Y <= b.MaxY
}
