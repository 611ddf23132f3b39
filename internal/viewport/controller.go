/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package viewport

import (
	"log/slog"
	"sync"

	"gocollage/internal/geom"
	applog "gocollage/internal/log"
)

// DefaultStep is the keyboard pan distance in container pixels.
const DefaultStep = 10

// Button identifies the pointer button that started an interaction.
// Numbering follows the DOM convention (0 = primary).
type Button int

const (
	ButtonPrimary Button = iota
	ButtonMiddle
	ButtonSecondary
)

// PointerEvent is one pointer sample in container coordinates.
type PointerEvent struct {
	ID     int
	Button Button
	Pos    geom.Pt
}

// PointerCapturer is implemented by presenters that can route all moves of a
// pointer to the slot for the duration of a drag, even outside its hit area.
type PointerCapturer interface {
	CapturePointer(id int)
	ReleasePointer(id int)
}

type dragSession struct {
	active    bool
	pointerID int
	last      geom.Pt
}

// Controller holds the pan state of one slot. The zero value is not usable; call New.
//
// State changes happen on discrete input callbacks. The mutex only exists so a
// capture running on another goroutine reads a consistent offset/bounds pair.
type Controller struct {
	mu        sync.Mutex
	source    string
	intrinsic geom.Size
	container geom.Size
	bounds    Bounds
	hasBounds bool
	offset    geom.Pt
	drag      dragSession
	step      float64
	capturer  PointerCapturer
	onChange  func(Hint)
	log       *slog.Logger
}

// New returns a controller with no source, no bounds and a centred offset.
func New() *Controller {
	return &Controller{step: DefaultStep, log: applog.WithComponent("viewport")}
}

// SetStepSize changes the distance used by KeyDown. Non-positive values are ignored.
func (c *Controller) SetStepSize(step float64) {
	if step <= 0 {
		return
	}
	c.mu.Lock()
	c.step = step
	c.mu.Unlock()
}

// SetCapturer installs the presenter hook used to grab the pointer during drags.
func (c *Controller) SetCapturer(pc PointerCapturer) {
	c.mu.Lock()
	c.capturer = pc
	c.mu.Unlock()
}

// OnChange registers fn to be called with the new rendering hint after every
// offset change. fn runs outside the controller lock.
func (c *Controller) OnChange(fn func(Hint)) {
	c.mu.Lock()
	c.onChange = fn
	c.mu.Unlock()
}

// SetSource replaces the displayed image reference. The new image's intrinsic size
// is unknown until OnIntrinsicSizeKnown; until then the previous bounds and offset stay.
func (c *Controller) SetSource(ref string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ref == c.source {
		return
	}
	c.source = ref
	c.intrinsic = geom.Size{}
}

// OnIntrinsicSizeKnown completes a source replacement once the image is decoded.
func (c *Controller) OnIntrinsicSizeKnown(size geom.Size) {
	c.mu.Lock()
	c.intrinsic = size
	changed := c.recomputeLocked()
	c.mu.Unlock()
	c.notify(changed)
}

// Resize records the slot's rendered size and re-derives bounds.
func (c *Controller) Resize(container geom.Size) {
	c.mu.Lock()
	c.container = container
	changed := c.recomputeLocked()
	c.mu.Unlock()
	c.notify(changed)
}

// RecomputeAndReclamp re-derives bounds from the last known sizes and clamps the
// existing offset into them. With unavailable geometry nothing changes.
func (c *Controller) RecomputeAndReclamp() {
	c.mu.Lock()
	changed := c.recomputeLocked()
	c.mu.Unlock()
	c.notify(changed)
}

// recomputeLocked reports whether the offset moved.
func (c *Controller) recomputeLocked() bool {
	b, ok := ComputeBounds(c.intrinsic, c.container)
	if !ok {
		c.log.Debug("bounds skipped: geometry unavailable",
			slog.String("intrinsic", c.intrinsic.String()),
			slog.String("container", c.container.String()))
		return false
	}
	c.bounds = b
	c.hasBounds = true
	next := b.Clamp(c.offset)
	if next == c.offset {
		return false
	}
	c.offset = next
	return true
}

// PointerDown starts a drag session for the primary button only.
func (c *Controller) PointerDown(e PointerEvent) bool {
	c.mu.Lock()
	if e.Button != ButtonPrimary || c.drag.active {
		c.mu.Unlock()
		return false
	}
	c.drag = dragSession{active: true, pointerID: e.ID, last: e.Pos}
	pc := c.capturer
	c.mu.Unlock()
	if pc != nil {
		pc.CapturePointer(e.ID)
	}
	return true
}

// PointerMove turns the movement since the last sample into a pan delta.
func (c *Controller) PointerMove(e PointerEvent) bool {
	c.mu.Lock()
	if !c.drag.active || e.ID != c.drag.pointerID {
		c.mu.Unlock()
		return false
	}
	d := e.Pos.Sub(c.drag.last)
	c.drag.last = e.Pos
	changed := c.applyLocked(d)
	c.mu.Unlock()
	c.notify(changed)
	return changed
}

// PointerUp, PointerLeave and PointerCancel all end the session the same way.
func (c *Controller) PointerUp(e PointerEvent)     { c.endDrag(e.ID) }
func (c *Controller) PointerLeave(e PointerEvent)  { c.endDrag(e.ID) }
func (c *Controller) PointerCancel(e PointerEvent) { c.endDrag(e.ID) }

func (c *Controller) endDrag(id int) {
	c.mu.Lock()
	if !c.drag.active || id != c.drag.pointerID {
		c.mu.Unlock()
		return
	}
	c.drag = dragSession{}
	pc := c.capturer
	c.mu.Unlock()
	if pc != nil {
		pc.ReleasePointer(id)
	}
}

// Dragging reports whether a drag session is active.
func (c *Controller) Dragging() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.drag.active
}

// ApplyPointerDelta pans by (dx,dy) while a drag session is active.
func (c *Controller) ApplyPointerDelta(dx, dy float64) bool {
	c.mu.Lock()
	if !c.drag.active {
		c.mu.Unlock()
		return false
	}
	changed := c.applyLocked(geom.Pt{X: dx, Y: dy})
	c.mu.Unlock()
	c.notify(changed)
	return changed
}

// Step pans one keyboard step in dir. It needs no drag session.
func (c *Controller) Step(dir Direction, stepSize float64) bool {
	c.mu.Lock()
	changed := c.applyLocked(dir.Delta(stepSize))
	c.mu.Unlock()
	c.notify(changed)
	return changed
}

// KeyDown maps arrow keys to Step using the configured step size. It reports
// whether the key was handled, so presenters can stop default scrolling.
func (c *Controller) KeyDown(key string) bool {
	dir, ok := DirectionForKey(key)
	if !ok {
		return false
	}
	c.mu.Lock()
	step := c.step
	c.mu.Unlock()
	c.Step(dir, step)
	return true
}

// applyLocked adds d and clamps. Without bounds there is nothing to pan yet.
func (c *Controller) applyLocked(d geom.Pt) bool {
	if !c.hasBounds {
		return false
	}
	next := c.bounds.Clamp(c.offset.Add(d))
	if next == c.offset {
		return false
	}
	c.offset = next
	return true
}

func (c *Controller) notify(changed bool) {
	if !changed {
		return
	}
	c.mu.Lock()
	fn := c.onChange
	h := Hint{DX: c.offset.X, DY: c.offset.Y}
	c.mu.Unlock()
	if fn != nil {
		fn(h)
	}
}

// Offset returns the current clamped pan offset.
func (c *Controller) Offset() geom.Pt {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.offset
}

// Bounds returns the last computed bounds; ok is false if none were ever computed.
func (c *Controller) Bounds() (Bounds, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bounds, c.hasBounds
}

func (c *Controller) HasBounds() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hasBounds
}

func (c *Controller) Source() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.source
}

func (c *Controller) IntrinsicSize() geom.Size {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.intrinsic
}

func (c *Controller) ContainerSize() geom.Size {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.container
}

// Hint returns the current offset as an anchor shift from the container centre.
func (c *Controller) Hint() Hint {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Hint{DX: c.offset.X, DY: c.offset.Y}
}
