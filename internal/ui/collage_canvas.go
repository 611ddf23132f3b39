//go:build fyne && cgo

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package ui

import (
	"context"
	"image"
	"log/slog"
	"sync/atomic"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"
	"golang.org/x/image/draw"

	"gocollage/internal/composition"
	"gocollage/internal/geom"
	applog "gocollage/internal/log"
	"gocollage/internal/viewport"
)

// mousePointer is the only pointer id desktop drivers report.
const mousePointer = 1

// CollageCanvas shows a live composition and feeds mouse and keyboard input
// to it. The picture is re-rendered from the composition on every refresh.
type CollageCanvas struct {
	widget.BaseWidget

	comp    *composition.Composition
	minSize fyne.Size
	log     *slog.Logger

	hover    atomic.Int32 // slot under the pointer, -1 if none
	captured atomic.Bool
	lastPos  fyne.Position

	// OnFocusSlot fires when a press focuses a slot.
	OnFocusSlot func(idx int)
}

func NewCollageCanvas(comp *composition.Composition, live geom.Size) *CollageCanvas {
	cc := &CollageCanvas{
		comp:    comp,
		minSize: fyne.NewSize(float32(live.W), float32(live.H)),
		log:     applog.WithComponent("ui.canvas"),
	}
	cc.hover.Store(-1)
	comp.SetCapturer(cc)
	cc.ExtendBaseWidget(cc)
	return cc
}

// CapturePointer keeps a drag alive when the pointer leaves the widget.
func (c *CollageCanvas) CapturePointer(id int) { c.captured.Store(true) }
func (c *CollageCanvas) ReleasePointer(id int) { c.captured.Store(false) }

func (c *CollageCanvas) CreateRenderer() fyne.WidgetRenderer {
	r := &collageRenderer{cc: c}
	r.raster = canvas.NewRaster(r.render)
	r.raster.ScaleMode = canvas.ImageScaleSmooth
	c.comp.Attach()
	return r
}

func (c *CollageCanvas) MinSize() fyne.Size { return c.minSize }

func toPointer(pos fyne.Position, b desktop.MouseButton) viewport.PointerEvent {
	btn := viewport.ButtonPrimary
	switch b {
	case desktop.MouseButtonSecondary:
		btn = viewport.ButtonSecondary
	case desktop.MouseButtonTertiary:
		btn = viewport.ButtonMiddle
	}
	return viewport.PointerEvent{ID: mousePointer, Button: btn, Pos: geom.Pt{X: float64(pos.X), Y: float64(pos.Y)}}
}

func (c *CollageCanvas) MouseDown(e *desktop.MouseEvent) {
	c.lastPos = e.Position
	if cv := fyne.CurrentApp().Driver().CanvasForObject(c); cv != nil {
		cv.Focus(c)
	}
	if c.comp.PointerDown(toPointer(e.Position, e.Button)) && c.OnFocusSlot != nil {
		c.OnFocusSlot(c.comp.Focused())
	}
}

func (c *CollageCanvas) MouseUp(e *desktop.MouseEvent) {
	c.lastPos = e.Position
	c.comp.PointerUp(toPointer(e.Position, e.Button))
}

func (c *CollageCanvas) Dragged(e *fyne.DragEvent) {
	c.lastPos = e.Position
	c.comp.PointerMove(toPointer(e.Position, desktop.MouseButtonPrimary))
}

func (c *CollageCanvas) DragEnd() {
	c.comp.PointerUp(toPointer(c.lastPos, desktop.MouseButtonPrimary))
}

func (c *CollageCanvas) MouseIn(e *desktop.MouseEvent)    { c.setHover(e.Position) }
func (c *CollageCanvas) MouseMoved(e *desktop.MouseEvent) { c.setHover(e.Position) }

func (c *CollageCanvas) MouseOut() {
	c.setHoverSlot(-1)
	if !c.captured.Load() {
		c.comp.PointerLeave(toPointer(c.lastPos, desktop.MouseButtonPrimary))
	}
}

func (c *CollageCanvas) setHover(pos fyne.Position) {
	c.setHoverSlot(c.comp.HitTest(geom.Pt{X: float64(pos.X), Y: float64(pos.Y)}))
}

func (c *CollageCanvas) setHoverSlot(idx int) {
	if c.hover.Swap(int32(idx)) != int32(idx) {
		c.Refresh()
	}
}

// HoveredSlot returns the slot under the pointer, or -1.
func (c *CollageCanvas) HoveredSlot() int { return int(c.hover.Load()) }

func (c *CollageCanvas) FocusGained()     {}
func (c *CollageCanvas) FocusLost()       {}
func (c *CollageCanvas) TypedRune(_ rune) {}

func (c *CollageCanvas) TypedKey(e *fyne.KeyEvent) {
	c.comp.KeyDown(string(e.Name))
}

var blank = image.NewRGBA(image.Rect(0, 0, 1, 1))

type collageRenderer struct {
	cc     *CollageCanvas
	raster *canvas.Raster
}

func (r *collageRenderer) Destroy()                     { r.cc.comp.Detach() }
func (r *collageRenderer) Objects() []fyne.CanvasObject { return []fyne.CanvasObject{r.raster} }
func (r *collageRenderer) MinSize() fyne.Size           { return r.cc.minSize }
func (r *collageRenderer) Refresh()                     { r.raster.Refresh() }

func (r *collageRenderer) Layout(size fyne.Size) {
	r.raster.Resize(size)
	r.raster.Move(fyne.NewPos(0, 0))
	r.cc.comp.Resize(geom.Size{W: float64(size.Width), H: float64(size.Height)})
}

// render draws the composition at raster resolution. Live units map to
// device pixels per axis, so HiDPI windows get a sharp picture.
func (r *collageRenderer) render(w, h int) image.Image {
	live, ok := r.cc.comp.LiveSize()
	if !ok || w <= 0 || h <= 0 {
		return blank
	}
	xf := geom.Scale(float64(w)/live.W, float64(h)/live.H)
	hover := r.cc.HoveredSlot()
	img, err := r.cc.comp.CaptureWith(context.Background(), w, h, xf, composition.CaptureOptions{
		Interpolator: draw.ApproxBiLinear,
		Hover:        hover >= 0,
		HoverSlot:    hover,
	})
	if err != nil {
		r.cc.log.Debug("live render failed", slog.Any("err", err))
		return blank
	}
	return img
}
