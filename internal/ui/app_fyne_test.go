//go:build fyne && cgo

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// These tests exercise the canvas widget with Fyne's headless test driver.
// To run locally:
//
//	go test -tags fyne ./internal/ui
package ui

import (
	"image"
	"image/color"
	"testing"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/test"

	"gocollage/internal/composition"
	"gocollage/internal/geom"
)

func wideImage() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 400, 200))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+3] = 0xff, 0xff
	}
	return img
}

func newTestCanvas(t *testing.T) (*CollageCanvas, *composition.Composition) {
	t.Helper()
	a := test.NewApp()
	t.Cleanup(a.Quit)
	st := composition.DefaultStyle()
	st.BlurBackdrop = false
	comp := composition.New(composition.Grid2x3{}, st)
	if err := comp.SetImage(0, "mem:wide", wideImage()); err != nil {
		t.Fatalf("set image: %v", err)
	}
	cc := NewCollageCanvas(comp, geom.Size{W: 360, H: 640})
	test.WidgetRenderer(cc).Layout(fyne.NewSize(360, 640))
	return cc, comp
}

func TestCollageCanvas_AttachesAndSizes(t *testing.T) {
	cc, comp := newTestCanvas(t)
	if got := cc.MinSize(); got.Width != 360 || got.Height != 640 {
		t.Fatalf("min size %v", got)
	}
	live, ok := comp.LiveSize()
	if !ok || live.W != 360 || live.H != 640 {
		t.Fatalf("live size %v %v", live, ok)
	}
}

func TestCollageCanvas_DragPansSlotUnderPointer(t *testing.T) {
	cc, comp := newTestCanvas(t)
	focused := -1
	cc.OnFocusSlot = func(idx int) { focused = idx }

	start := fyne.NewPos(90, 100)
	cc.MouseDown(&desktop.MouseEvent{PointEvent: fyne.PointEvent{Position: start}, Button: desktop.MouseButtonPrimary})
	if focused != 0 {
		t.Fatalf("focused slot = %d, want 0", focused)
	}
	cc.Dragged(&fyne.DragEvent{PointEvent: fyne.PointEvent{Position: fyne.NewPos(60, 100)}, Dragged: fyne.NewDelta(-30, 0)})
	cc.DragEnd()

	ctrl, _ := comp.Controller(0)
	off := ctrl.Offset()
	if off.X >= 0 || off.Y != 0 {
		t.Fatalf("offset after drag = %+v", off)
	}
	if ctrl.Dragging() {
		t.Fatalf("drag should have ended")
	}
}

func TestCollageCanvas_SecondaryButtonDoesNotPan(t *testing.T) {
	cc, comp := newTestCanvas(t)
	cc.MouseDown(&desktop.MouseEvent{PointEvent: fyne.PointEvent{Position: fyne.NewPos(90, 100)}, Button: desktop.MouseButtonSecondary})
	cc.Dragged(&fyne.DragEvent{PointEvent: fyne.PointEvent{Position: fyne.NewPos(40, 100)}})
	cc.DragEnd()
	ctrl, _ := comp.Controller(0)
	if off := ctrl.Offset(); off != (geom.Pt{}) {
		t.Fatalf("secondary drag moved the image: %+v", off)
	}
}

func TestCollageCanvas_ArrowKeysStepFocusedSlot(t *testing.T) {
	cc, comp := newTestCanvas(t)
	if err := comp.Focus(0); err != nil {
		t.Fatalf("focus: %v", err)
	}
	cc.TypedKey(&fyne.KeyEvent{Name: fyne.KeyLeft})
	ctrl, _ := comp.Controller(0)
	if off := ctrl.Offset(); off.X != -10 {
		t.Fatalf("offset after ArrowLeft = %+v, want x=-10", off)
	}
	cc.TypedKey(&fyne.KeyEvent{Name: fyne.KeyA})
	if off := ctrl.Offset(); off.X != -10 {
		t.Fatalf("non-arrow key changed offset: %+v", off)
	}
}

func TestCollageCanvas_HoverTracksSlot(t *testing.T) {
	cc, _ := newTestCanvas(t)
	cc.MouseMoved(&desktop.MouseEvent{PointEvent: fyne.PointEvent{Position: fyne.NewPos(90, 100)}})
	if got := cc.HoveredSlot(); got != 0 {
		t.Fatalf("hovered = %d, want 0", got)
	}
	cc.MouseOut()
	if got := cc.HoveredSlot(); got != -1 {
		t.Fatalf("hovered after out = %d", got)
	}
}

func TestCollageRenderer_RendersRaster(t *testing.T) {
	cc, _ := newTestCanvas(t)
	r := test.WidgetRenderer(cc).(*collageRenderer)
	img := r.render(360, 640)
	if b := img.Bounds(); b.Dx() != 360 || b.Dy() != 640 {
		t.Fatalf("raster bounds %v", b)
	}
	if c := color.NRGBAModel.Convert(img.At(90, 100)).(color.NRGBA); c.R < 200 || c.G > 60 {
		t.Fatalf("slot 0 should show the red image, got %v", c)
	}
}
