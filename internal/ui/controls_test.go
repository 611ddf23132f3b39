/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package ui

import (
	"testing"

	"gocollage/internal/composition"
)

func TestGapSteps(t *testing.T) {
	want := map[string]float64{"0": 0, "2": 8, "4": 16, "8": 32}
	for step, px := range want {
		got, ok := gapPixels(step)
		if !ok || got != px {
			t.Fatalf("gapPixels(%q) = %v,%v want %v", step, got, ok, px)
		}
		if back := gapStep(px); back != step {
			t.Fatalf("gapStep(%v) = %q want %q", px, back, step)
		}
	}
	if _, ok := gapPixels("x"); ok {
		t.Fatalf("non-numeric step accepted")
	}
	if got := gapStep(10); got != "2" {
		t.Fatalf("gapStep(10) = %q", got)
	}
}

func TestWithRounded(t *testing.T) {
	st := composition.DefaultStyle()
	off := withRounded(st, false, 12)
	if off.Radius != 0 {
		t.Fatalf("radius off = %v", off.Radius)
	}
	if on := withRounded(off, true, 20); on.Radius != 20 {
		t.Fatalf("radius on = %v", on.Radius)
	}
	if on := withRounded(off, true, 0); on.Radius != composition.DefaultStyle().Radius {
		t.Fatalf("radius fallback = %v", on.Radius)
	}
}

func TestExportNameFallsBackToCaption(t *testing.T) {
	if got := exportName("  ", "autumn mood"); got != "autumn mood" {
		t.Fatalf("got %q", got)
	}
	if got := exportName("Trip", "autumn mood"); got != "Trip" {
		t.Fatalf("got %q", got)
	}
}
