/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package viewport

import (
	"math/rand"
	"testing"

	"gocollage/internal/geom"
)

type recordingCapturer struct {
	captured []int
	released []int
}

func (r *recordingCapturer) CapturePointer(id int) { r.captured = append(r.captured, id) }
func (r *recordingCapturer) ReleasePointer(id int) { r.released = append(r.released, id) }

// newReady returns a controller for a 400x200 image in a 100x100 slot:
// bounds x in [-50,50], y in [0,0].
func newReady(t *testing.T) *Controller {
	t.Helper()
	c := New()
	c.Resize(geom.Size{W: 100, H: 100})
	c.SetSource("img-a")
	c.OnIntrinsicSizeKnown(geom.Size{W: 400, H: 200})
	if _, ok := c.Bounds(); !ok {
		t.Fatalf("bounds not computed")
	}
	return c
}

func TestDragPansAndClamps(t *testing.T) {
	c := newReady(t)
	if !c.PointerDown(PointerEvent{ID: 1, Button: ButtonPrimary, Pos: geom.Pt{X: 10, Y: 10}}) {
		t.Fatalf("primary press should start a drag")
	}
	c.PointerMove(PointerEvent{ID: 1, Pos: geom.Pt{X: 30, Y: 40}})
	if got := c.Offset(); got != (geom.Pt{X: 20, Y: 0}) {
		t.Fatalf("offset = %+v, want {20 0}", got)
	}
	c.PointerMove(PointerEvent{ID: 1, Pos: geom.Pt{X: 500, Y: 40}})
	if got := c.Offset(); got.X != 50 {
		t.Fatalf("offset.x = %v, want clamped 50", got.X)
	}
	// Moving back starts from the clamped offset, relative to the last sample.
	c.PointerMove(PointerEvent{ID: 1, Pos: geom.Pt{X: 490, Y: 40}})
	if got := c.Offset(); got.X != 40 {
		t.Fatalf("offset.x = %v, want 40", got.X)
	}
}

func TestNonPrimaryButtonNeverMutates(t *testing.T) {
	c := newReady(t)
	for _, b := range []Button{ButtonMiddle, ButtonSecondary} {
		if c.PointerDown(PointerEvent{ID: 3, Button: b}) {
			t.Fatalf("button %d should not start a drag", b)
		}
		c.PointerMove(PointerEvent{ID: 3, Pos: geom.Pt{X: 30}})
		if c.ApplyPointerDelta(5, 0) {
			t.Fatalf("delta applied without drag")
		}
		if got := c.Offset(); got != (geom.Pt{}) {
			t.Fatalf("offset mutated to %+v", got)
		}
	}
}

func TestDragEndReleasesCaptureOnEveryPath(t *testing.T) {
	ends := map[string]func(*Controller, PointerEvent){
		"up":     (*Controller).PointerUp,
		"leave":  (*Controller).PointerLeave,
		"cancel": (*Controller).PointerCancel,
	}
	for name, end := range ends {
		c := newReady(t)
		rc := &recordingCapturer{}
		c.SetCapturer(rc)
		c.PointerDown(PointerEvent{ID: 7, Button: ButtonPrimary})
		if len(rc.captured) != 1 || rc.captured[0] != 7 {
			t.Fatalf("%s: capture not acquired: %v", name, rc.captured)
		}
		end(c, PointerEvent{ID: 7})
		if c.Dragging() {
			t.Fatalf("%s: drag still active", name)
		}
		if len(rc.released) != 1 || rc.released[0] != 7 {
			t.Fatalf("%s: capture not released: %v", name, rc.released)
		}
		c.PointerMove(PointerEvent{ID: 7, Pos: geom.Pt{X: 40}})
		if got := c.Offset(); got != (geom.Pt{}) {
			t.Fatalf("%s: move after end mutated offset to %+v", name, got)
		}
	}
}

func TestStepClampsLikeDrag(t *testing.T) {
	c := newReady(t)
	for i := 0; i < 20; i++ {
		c.Step(Right, 10)
	}
	if got := c.Offset(); got.X != 50 {
		t.Fatalf("offset.x = %v, want 50", got.X)
	}
	c.Step(Down, 10)
	if got := c.Offset(); got.Y != 0 {
		t.Fatalf("offset.y = %v, want 0 (no vertical slack)", got.Y)
	}
	c.Step(Left, 15)
	if got := c.Offset(); got.X != 35 {
		t.Fatalf("offset.x = %v, want 35", got.X)
	}
}

func TestKeyDownUsesStepSize(t *testing.T) {
	c := newReady(t)
	c.SetStepSize(4)
	if !c.KeyDown("ArrowLeft") {
		t.Fatalf("ArrowLeft not handled")
	}
	if got := c.Offset(); got.X != -4 {
		t.Fatalf("offset.x = %v, want -4", got.X)
	}
	if c.KeyDown("Enter") {
		t.Fatalf("Enter should not be handled")
	}
}

func TestResizeReclampsWithoutReset(t *testing.T) {
	c := newReady(t)
	c.Step(Right, 30)
	c.Resize(geom.Size{W: 100, H: 150}) // scale 0.75 -> 300x150, x in [-100,100]
	if got := c.Offset(); got.X != 30 {
		t.Fatalf("offset reset on resize: %+v", got)
	}
	c.Resize(geom.Size{W: 180, H: 100}) // scale 0.5 -> 200x100, x in [-10,10]
	if got := c.Offset(); got.X != 10 {
		t.Fatalf("offset not reclamped: %+v", got)
	}
}

func TestUnknownGeometryRetainsState(t *testing.T) {
	c := newReady(t)
	c.Step(Right, 25)
	before, _ := c.Bounds()
	c.Resize(geom.Size{}) // not laid out
	after, ok := c.Bounds()
	if !ok || after != before {
		t.Fatalf("bounds changed on unknown geometry: %+v -> %+v", before, after)
	}
	if got := c.Offset(); got.X != 25 {
		t.Fatalf("offset changed on unknown geometry: %+v", got)
	}
}

func TestSourceReplacementIsTwoPhase(t *testing.T) {
	c := newReady(t)
	c.Step(Left, 40)
	c.SetSource("img-b")
	if got := c.IntrinsicSize(); got.Known() {
		t.Fatalf("intrinsic size should be unknown until decoded, got %v", got)
	}
	if got := c.Offset(); got.X != -40 {
		t.Fatalf("offset discarded on SetSource: %+v", got)
	}
	// New image is portrait: 100x400 in 100x100 -> no x slack, y in [-150,150].
	c.OnIntrinsicSizeKnown(geom.Size{W: 100, H: 400})
	if got := c.Offset(); got != (geom.Pt{X: 0, Y: 0}) {
		t.Fatalf("offset = %+v, want reclamped {0 0}", got)
	}
	b, _ := c.Bounds()
	if b.MaxY != 150 {
		t.Fatalf("MaxY = %v, want 150", b.MaxY)
	}
}

func TestPanBeforeBoundsIsIgnored(t *testing.T) {
	c := New()
	c.SetSource("img")
	if c.Step(Right, 10) {
		t.Fatalf("step applied without bounds")
	}
	if got := c.Offset(); got != (geom.Pt{}) {
		t.Fatalf("offset = %+v", got)
	}
}

func TestOffsetAlwaysWithinLatestBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	c := New()
	c.SetSource("x")
	c.OnIntrinsicSizeKnown(geom.Size{W: 1600, H: 900})
	c.Resize(geom.Size{W: 180, H: 210})
	c.PointerDown(PointerEvent{ID: 1, Button: ButtonPrimary})
	for i := 0; i < 5000; i++ {
		switch rng.Intn(4) {
		case 0:
			c.ApplyPointerDelta(rng.NormFloat64()*80, rng.NormFloat64()*80)
		case 1:
			c.Step(Direction(rng.Intn(4)), float64(rng.Intn(30)))
		case 2:
			c.Resize(geom.Size{W: 20 + rng.Float64()*400, H: 20 + rng.Float64()*400})
		case 3:
			c.OnIntrinsicSizeKnown(geom.Size{W: 10 + rng.Float64()*3000, H: 10 + rng.Float64()*3000})
		}
		want, _ := ComputeBounds(c.IntrinsicSize(), c.ContainerSize())
		if !want.Contains(c.Offset()) {
			t.Fatalf("step %d: offset %+v outside %+v", i, c.Offset(), want)
		}
	}
}

func TestOnChangeReceivesHint(t *testing.T) {
	c := newReady(t)
	var got []Hint
	c.OnChange(func(h Hint) { got = append(got, h) })
	c.Step(Right, 5)
	c.Step(Right, 0) // no movement, no event
	if len(got) != 1 || got[0] != (Hint{DX: 5}) {
		t.Fatalf("hints = %+v", got)
	}
}

func TestHintString(t *testing.T) {
	h := Hint{DX: -12.5, DY: 0}
	if s := h.String(); s != "calc(50% + -12.5px) calc(50% + 0px)" {
		t.Fatalf("Hint.String() = %q", s)
	}
}

func TestHintPlacementCentresImage(t *testing.T) {
	m, ok := Hint{}.Placement(geom.Size{W: 400, H: 200}, geom.Size{W: 100, H: 100})
	if !ok {
		t.Fatalf("placement unavailable")
	}
	// scale 0.5; image centre (200,100) maps to slot centre (50,50)
	if got := m.Apply(geom.Pt{X: 200, Y: 100}); got != (geom.Pt{X: 50, Y: 50}) {
		t.Fatalf("centre maps to %+v", got)
	}
	m, _ = Hint{DX: 20}.Placement(geom.Size{W: 400, H: 200}, geom.Size{W: 100, H: 100})
	if got := m.Apply(geom.Pt{X: 200, Y: 100}); got != (geom.Pt{X: 70, Y: 50}) {
		t.Fatalf("shifted centre maps to %+v", got)
	}
}
