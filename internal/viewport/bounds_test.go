/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package viewport

import (
	"math"
	"math/rand"
	"testing"

	"gocollage/internal/geom"
)

func TestComputeBounds_LandscapeInPortraitSlot(t *testing.T) {
	// 1000x500 into 200x200: cover scale 0.4 -> 400x200, 100px of slack each side
	b, ok := ComputeBounds(geom.Size{W: 1000, H: 500}, geom.Size{W: 200, H: 200})
	if !ok {
		t.Fatalf("expected bounds")
	}
	if b.MinX != -100 || b.MaxX != 100 {
		t.Fatalf("x bounds = [%v,%v], want [-100,100]", b.MinX, b.MaxX)
	}
	if b.MinY != 0 || b.MaxY != 0 {
		t.Fatalf("y bounds = [%v,%v], want [0,0]", b.MinY, b.MaxY)
	}
}

func TestComputeBounds_UnknownSizeSkipped(t *testing.T) {
	cases := []struct{ img, box geom.Size }{
		{geom.Size{}, geom.Size{W: 100, H: 100}},
		{geom.Size{W: 100, H: 100}, geom.Size{W: 0, H: 100}},
		{geom.Size{W: math.NaN(), H: 1}, geom.Size{W: 1, H: 1}},
	}
	for _, c := range cases {
		if _, ok := ComputeBounds(c.img, c.box); ok {
			t.Fatalf("ComputeBounds(%v,%v) should be skipped", c.img, c.box)
		}
	}
}

func TestComputeBounds_SymmetricAndContainsOrigin(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 2000; i++ {
		img := geom.Size{W: 1 + rng.Float64()*5000, H: 1 + rng.Float64()*5000}
		box := geom.Size{W: 1 + rng.Float64()*1200, H: 1 + rng.Float64()*1200}
		b, ok := ComputeBounds(img, box)
		if !ok {
			t.Fatalf("bounds skipped for %v in %v", img, box)
		}
		if b.MaxX != -b.MinX || b.MaxY != -b.MinY {
			t.Fatalf("asymmetric bounds %+v for %v in %v", b, img, box)
		}
		if !b.Contains(geom.Pt{}) {
			t.Fatalf("origin outside %+v for %v in %v", b, img, box)
		}
		again, _ := ComputeBounds(img, box)
		if again != b {
			t.Fatalf("ComputeBounds not idempotent: %+v vs %+v", b, again)
		}
	}
}

func TestCoverScaleCoversContainer(t *testing.T) {
	s, ok := CoverScale(geom.Size{W: 300, H: 900}, geom.Size{W: 180, H: 213})
	if !ok {
		t.Fatalf("expected scale")
	}
	if 300*s < 180-1e-9 || 900*s < 213-1e-9 {
		t.Fatalf("scale %v does not cover", s)
	}
}

func TestClamp(t *testing.T) {
	b := Bounds{MinX: -10, MaxX: 10, MinY: -5, MaxY: 5}
	got := b.Clamp(geom.Pt{X: 50, Y: -50})
	if got != (geom.Pt{X: 10, Y: -5}) {
		t.Fatalf("Clamp = %+v", got)
	}
}
