/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package composition is the collage surface: a fixed list of slots placed by
// a Layout inside a live box, each slot panned by its own viewport.Controller.
// Capture renders the surface at any raster size through an affine transform.
package composition

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync"

	"gocollage/internal/geom"
	applog "gocollage/internal/log"
	"gocollage/internal/viewport"
)

// ErrSlotRange is returned for slot indices outside [0, Len()).
var ErrSlotRange = errors.New("slot index out of range")

type slot struct {
	ctrl *viewport.Controller
	img  image.Image
	ref  string // reference of img
}

// Composition is safe for concurrent use. Input routing and edits take the
// write lock; Capture works from a snapshot taken under the read lock.
type Composition struct {
	mu       sync.RWMutex
	layout   Layout
	style    Style
	box      geom.Size
	tiles    []Tile
	slots    []*slot
	attached bool
	focus    int
	active   int
	onChange func(idx int, h viewport.Hint)
	log      *slog.Logger
}

// New returns a detached composition with layout.Slots() empty slots.
func New(layout Layout, style Style) *Composition {
	c := &Composition{layout: layout, style: style, active: -1, log: applog.WithComponent("composition")}
	c.slots = make([]*slot, layout.Slots())
	for i := range c.slots {
		ctrl := viewport.New()
		idx := i
		ctrl.OnChange(func(h viewport.Hint) { c.changed(idx, h) })
		c.slots[i] = &slot{ctrl: ctrl}
	}
	return c
}

func (c *Composition) Len() int { return len(c.slots) }

func (c *Composition) Layout() Layout {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.layout
}

func (c *Composition) Style() Style {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.style
}

// SetStyle replaces the style and re-arranges the slots. Offsets are re-clamped, not reset.
func (c *Composition) SetStyle(st Style) {
	c.mu.Lock()
	c.style = st
	sizes := c.arrangeLocked()
	c.mu.Unlock()
	c.resizeSlots(sizes)
}

// Attach marks the surface as mounted. Only attached surfaces report a live size.
func (c *Composition) Attach() {
	c.mu.Lock()
	c.attached = true
	c.mu.Unlock()
}

func (c *Composition) Detach() {
	c.mu.Lock()
	c.attached = false
	c.active = -1
	c.mu.Unlock()
}

func (c *Composition) Attached() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.attached
}

// Resize sets the live box and pushes the new slot sizes to every controller.
// Unknown sizes are ignored and keep the current arrangement.
func (c *Composition) Resize(box geom.Size) {
	if !box.Known() {
		c.log.Debug("ignoring unknown live size", slog.String("size", box.String()))
		return
	}
	c.mu.Lock()
	c.box = box
	sizes := c.arrangeLocked()
	c.mu.Unlock()
	c.resizeSlots(sizes)
}

// arrangeLocked recomputes the tiles and returns the new slot sizes. Controllers
// are resized after the lock is released since they call back into OnChange.
func (c *Composition) arrangeLocked() []geom.Size {
	if !c.box.Known() {
		return nil
	}
	c.tiles = c.layout.Arrange(c.box, c.style)
	sizes := make([]geom.Size, len(c.tiles))
	for i, t := range c.tiles {
		sizes[i] = t.Rect.Size()
	}
	return sizes
}

func (c *Composition) resizeSlots(sizes []geom.Size) {
	for i, sz := range sizes {
		if i < len(c.slots) {
			c.slots[i].ctrl.Resize(sz)
		}
	}
}

// LiveSize returns the current live box. ok is false while detached or before
// the first Resize.
func (c *Composition) LiveSize() (geom.Size, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.attached || !c.box.Known() {
		return geom.Size{}, false
	}
	return c.box, true
}

// SetSource starts replacing slot idx with ref; bounds and offset are kept until
// SetImage delivers the decoded image.
func (c *Composition) SetSource(idx int, ref string) error {
	s, err := c.slot(idx)
	if err != nil {
		return err
	}
	s.ctrl.SetSource(ref)
	return nil
}

// SetImage installs the decoded image for ref in slot idx and makes its size known
// to the slot's controller.
func (c *Composition) SetImage(idx int, ref string, img image.Image) error {
	if img == nil {
		return fmt.Errorf("slot %d: nil image", idx)
	}
	s, err := c.slot(idx)
	if err != nil {
		return err
	}
	s.ctrl.SetSource(ref)
	c.mu.Lock()
	s.img, s.ref = img, ref
	c.mu.Unlock()
	b := img.Bounds()
	s.ctrl.OnIntrinsicSizeKnown(geom.Size{W: float64(b.Dx()), H: float64(b.Dy())})
	return nil
}

// CancelSource abandons a replacement started with SetSource, for example when
// decoding failed. The slot goes back to the image it still shows, with that
// image's size, so later resizes derive bounds from what is drawn.
func (c *Composition) CancelSource(idx int) error {
	s, err := c.slot(idx)
	if err != nil {
		return err
	}
	c.mu.RLock()
	img, ref := s.img, s.ref
	c.mu.RUnlock()
	s.ctrl.SetSource(ref)
	if img != nil {
		b := img.Bounds()
		s.ctrl.OnIntrinsicSizeKnown(geom.Size{W: float64(b.Dx()), H: float64(b.Dy())})
	}
	return nil
}

// Image returns the decoded image shown in slot idx, or nil.
func (c *Composition) Image(idx int) image.Image {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if idx < 0 || idx >= len(c.slots) {
		return nil
	}
	return c.slots[idx].img
}

// Controller returns the pan controller of slot idx.
func (c *Composition) Controller(idx int) (*viewport.Controller, error) {
	s, err := c.slot(idx)
	if err != nil {
		return nil, err
	}
	return s.ctrl, nil
}

func (c *Composition) slot(idx int) (*slot, error) {
	if idx < 0 || idx >= len(c.slots) {
		return nil, fmt.Errorf("%w: %d (len %d)", ErrSlotRange, idx, len(c.slots))
	}
	return c.slots[idx], nil
}

// SlotRect returns the live-box rectangle of slot idx.
func (c *Composition) SlotRect(idx int) (geom.Rect, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if idx < 0 || idx >= len(c.tiles) {
		return geom.Rect{}, false
	}
	return c.tiles[idx].Rect, true
}

// HitTest returns the topmost slot containing p, or -1.
func (c *Composition) HitTest(p geom.Pt) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hitLocked(p)
}

func (c *Composition) hitLocked(p geom.Pt) int {
	for i := len(c.tiles) - 1; i >= 0; i-- {
		if c.tiles[i].Rect.Contains(p) {
			return i
		}
	}
	return -1
}

// SetCapturer installs the pointer capture hook on every slot.
func (c *Composition) SetCapturer(pc viewport.PointerCapturer) {
	for _, s := range c.slots {
		s.ctrl.SetCapturer(pc)
	}
}

// SetStepSize sets the keyboard step of every slot.
func (c *Composition) SetStepSize(step float64) {
	for _, s := range c.slots {
		s.ctrl.SetStepSize(step)
	}
}

// OnChange registers fn to be called after any slot's offset changes.
func (c *Composition) OnChange(fn func(idx int, h viewport.Hint)) {
	c.mu.Lock()
	c.onChange = fn
	c.mu.Unlock()
}

func (c *Composition) changed(idx int, h viewport.Hint) {
	c.mu.RLock()
	fn := c.onChange
	c.mu.RUnlock()
	if fn != nil {
		fn(idx, h)
	}
}

// PointerDown routes e to the slot under the pointer and focuses it.
func (c *Composition) PointerDown(e viewport.PointerEvent) bool {
	c.mu.Lock()
	if c.active >= 0 {
		c.mu.Unlock()
		return false
	}
	idx := c.hitLocked(e.Pos)
	if idx < 0 {
		c.mu.Unlock()
		return false
	}
	c.focus = idx
	ctrl := c.slots[idx].ctrl
	c.mu.Unlock()

	if !ctrl.PointerDown(e) {
		return false
	}
	c.mu.Lock()
	c.active = idx
	c.mu.Unlock()
	return true
}

// PointerMove routes e to the slot that owns the current drag.
func (c *Composition) PointerMove(e viewport.PointerEvent) bool {
	ctrl := c.activeController()
	if ctrl == nil {
		return false
	}
	return ctrl.PointerMove(e)
}

func (c *Composition) PointerUp(e viewport.PointerEvent)     { c.endDrag(e, (*viewport.Controller).PointerUp) }
func (c *Composition) PointerLeave(e viewport.PointerEvent)  { c.endDrag(e, (*viewport.Controller).PointerLeave) }
func (c *Composition) PointerCancel(e viewport.PointerEvent) { c.endDrag(e, (*viewport.Controller).PointerCancel) }

func (c *Composition) endDrag(e viewport.PointerEvent, end func(*viewport.Controller, viewport.PointerEvent)) {
	c.mu.Lock()
	idx := c.active
	if idx < 0 {
		c.mu.Unlock()
		return
	}
	ctrl := c.slots[idx].ctrl
	c.mu.Unlock()

	end(ctrl, e)
	if !ctrl.Dragging() {
		c.mu.Lock()
		if c.active == idx {
			c.active = -1
		}
		c.mu.Unlock()
	}
}

func (c *Composition) activeController() *viewport.Controller {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.active < 0 {
		return nil
	}
	return c.slots[c.active].ctrl
}

// Focus selects the slot that receives key input.
func (c *Composition) Focus(idx int) error {
	if _, err := c.slot(idx); err != nil {
		return err
	}
	c.mu.Lock()
	c.focus = idx
	c.mu.Unlock()
	return nil
}

func (c *Composition) Focused() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.focus
}

// KeyDown routes an arrow key to the focused slot.
func (c *Composition) KeyDown(key string) bool {
	c.mu.RLock()
	ctrl := c.slots[c.focus].ctrl
	c.mu.RUnlock()
	return ctrl.KeyDown(key)
}
