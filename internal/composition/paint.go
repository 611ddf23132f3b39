/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package composition

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"

	"gocollage/internal/geom"
)

// coverage returns how much of the shape covers live point p, where px is the
// live size of one destination pixel.
type coverage func(p geom.Pt, px float64) float64

// pixRect snaps a destination rectangle to whole pixels.
func pixRect(r geom.Rect) image.Rectangle {
	return image.Rect(
		int(math.Round(r.X)), int(math.Round(r.Y)),
		int(math.Round(r.X+r.W)), int(math.Round(r.Y+r.H)),
	)
}

// coverageMask samples cov at the centre of every pixel of region, mapping
// destination pixels back to live coordinates through inv.
func coverageMask(region image.Rectangle, inv geom.Affine, cov coverage) *image.Alpha {
	px := math.Sqrt(math.Abs(inv.A*inv.D - inv.B*inv.C))
	mask := image.NewAlpha(region)
	for y := region.Min.Y; y < region.Max.Y; y++ {
		for x := region.Min.X; x < region.Max.X; x++ {
			p := inv.Apply(geom.Pt{X: float64(x) + 0.5, Y: float64(y) + 0.5})
			a := clamp01(cov(p, px))
			mask.Pix[mask.PixOffset(x, y)] = uint8(a*255 + 0.5)
		}
	}
	return mask
}

// fillShape blends c into dst wherever the live shape cov lies.
func fillShape(dst *image.RGBA, xf, inv geom.Affine, bounds geom.Rect, c color.Color, cov coverage) {
	region := pixRect(xf.ApplyRect(bounds)).Inset(-1).Intersect(dst.Bounds())
	if region.Empty() {
		return
	}
	mask := coverageMask(region, inv, cov)
	draw.DrawMask(dst, region, image.NewUniform(c), image.Point{}, mask, region.Min, draw.Over)
}

func roundedRect(r geom.Rect, radius float64) coverage {
	rad := math.Min(math.Max(radius, 0), math.Min(r.W, r.H)/2)
	return func(p geom.Pt, px float64) float64 {
		// Distance to the inner rectangle the corner circles are centred on.
		cx := math.Max(r.X+rad, math.Min(p.X, r.X+r.W-rad))
		cy := math.Max(r.Y+rad, math.Min(p.Y, r.Y+r.H-rad))
		d := math.Hypot(p.X-cx, p.Y-cy)
		edge := rad - d
		if rad == 0 {
			edge = math.Min(math.Min(p.X-r.X, r.X+r.W-p.X), math.Min(p.Y-r.Y, r.Y+r.H-p.Y))
		}
		return edge/px + 0.5
	}
}

func circle(c geom.Pt, r float64) coverage {
	return func(p geom.Pt, px float64) float64 {
		return (r-math.Hypot(p.X-c.X, p.Y-c.Y))/px + 0.5
	}
}

func ring(c geom.Pt, r, width float64) coverage {
	return func(p geom.Pt, px float64) float64 {
		return (width/2-math.Abs(math.Hypot(p.X-c.X, p.Y-c.Y)-r))/px + 0.5
	}
}

func segment(a, b geom.Pt, width float64) coverage {
	return func(p geom.Pt, px float64) float64 {
		abx, aby := b.X-a.X, b.Y-a.Y
		t := ((p.X-a.X)*abx + (p.Y-a.Y)*aby) / (abx*abx + aby*aby)
		t = clamp01(t)
		d := math.Hypot(p.X-(a.X+t*abx), p.Y-(a.Y+t*aby))
		return (width/2-d)/px + 0.5
	}
}

func union(covs ...coverage) coverage {
	return func(p geom.Pt, px float64) float64 {
		best := 0.0
		for _, c := range covs {
			best = math.Max(best, clamp01(c(p, px)))
		}
		return best
	}
}

func clamp01(v float64) float64 {
	switch {
	case v <= 0 || math.IsNaN(v):
		return 0
	case v >= 1:
		return 1
	default:
		return v
	}
}
