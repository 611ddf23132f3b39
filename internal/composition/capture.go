/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package composition

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"strings"

	"github.com/disintegration/imaging"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"gocollage/internal/geom"
	"gocollage/internal/viewport"
)

// ErrNoLiveSize is returned by Capture before the surface was ever resized.
var ErrNoLiveSize = errors.New("composition has no live size")

var (
	placeholderColor = color.NRGBA{R: 0xe5, G: 0xe7, B: 0xeb, A: 0xff}
	hoverShade       = color.NRGBA{A: 0x4d}
	captionFill      = color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xe6}
	captionText      = color.NRGBA{R: 0x37, G: 0x41, B: 0x51, A: 0xff}
	captionIcon      = color.NRGBA{A: 0xcc}
	backdropVeil     = color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0x4d}
)

const (
	backdropBlur    = 16.0
	backdropZoom    = 1.05
	backdropDim     = 0.8
	backdropPreview = 256

	captionHeight     = 40.0
	captionTextHeight = 16.0
)

// CaptureOptions tunes a capture. The zero value is export quality.
type CaptureOptions struct {
	// Interpolator defaults to draw.CatmullRom.
	Interpolator draw.Interpolator
	// Hover shades HoverSlot the way the live view marks the slot under the pointer.
	Hover     bool
	HoverSlot int
}

type slotSnapshot struct {
	img  image.Image
	hint viewport.Hint
}

type snapshot struct {
	box   geom.Size
	style Style
	tiles []Tile
	slots []slotSnapshot
}

func (c *Composition) snapshot() snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s := snapshot{box: c.box, style: c.style, tiles: append([]Tile(nil), c.tiles...)}
	s.slots = make([]slotSnapshot, len(c.slots))
	for i, sl := range c.slots {
		s.slots[i] = slotSnapshot{img: sl.img, hint: sl.ctrl.Hint()}
	}
	return s
}

// Capture renders the surface into a new w x h raster. xf maps live-box
// coordinates to raster pixels; the surface is drawn from its own origin with
// no margin. Live state is never modified.
func (c *Composition) Capture(ctx context.Context, w, h int, xf geom.Affine) (*image.RGBA, error) {
	return c.CaptureWith(ctx, w, h, xf, CaptureOptions{})
}

// CaptureWith is Capture with explicit options.
func (c *Composition) CaptureWith(ctx context.Context, w, h int, xf geom.Affine, opts CaptureOptions) (*image.RGBA, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("capture %dx%d: size must be positive", w, h)
	}
	inv, ok := xf.Invert()
	if !ok {
		return nil, fmt.Errorf("capture %dx%d: transform is not invertible", w, h)
	}
	snap := c.snapshot()
	if !snap.box.Known() || len(snap.tiles) == 0 {
		return nil, ErrNoLiveSize
	}
	interp := opts.Interpolator
	if interp == nil {
		interp = draw.CatmullRom
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	bg := snap.style.Background
	if bg.A == 0 {
		bg = DefaultBackground
	}
	draw.Draw(dst, dst.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)

	if snap.style.BlurBackdrop && len(snap.slots) > 0 && snap.slots[0].img != nil {
		drawBackdrop(dst, xf, snap.box, snap.slots[0].img, interp)
	}
	for i, t := range snap.tiles {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if i >= len(snap.slots) {
			break
		}
		drawTile(dst, xf, inv, t, snap.slots[i], interp, opts.Hover && i == opts.HoverSlot)
	}
	if snap.style.ShowCaption && strings.TrimSpace(snap.style.Caption) != "" {
		drawCaption(dst, xf, inv, snap.box, snap.style.Caption, interp)
	}
	c.log.Debug("captured", slog.Int("w", w), slog.Int("h", h), slog.Int("slots", len(snap.tiles)))
	return dst, nil
}

// drawBackdrop paints a zoomed, blurred and dimmed copy of img behind the tiles.
func drawBackdrop(dst *image.RGBA, xf geom.Affine, box geom.Size, img image.Image, interp draw.Interpolator) {
	small := imaging.Fit(img, backdropPreview, backdropPreview, imaging.Linear)
	sb := small.Bounds()
	size := geom.Size{W: float64(sb.Dx()), H: float64(sb.Dy())}
	s, ok := viewport.CoverScale(size, box)
	if !ok {
		return
	}
	blurred := imaging.Blur(small, backdropBlur/s)
	dimmed := imaging.AdjustFunc(blurred, func(c color.NRGBA) color.NRGBA {
		return color.NRGBA{R: dim(c.R), G: dim(c.G), B: dim(c.B), A: c.A}
	})
	s *= backdropZoom
	m := xf.
		Mul(geom.Translate(box.W/2, box.H/2)).
		Mul(geom.Scale(s, s)).
		Mul(geom.Translate(-size.W/2, -size.H/2))
	interp.Transform(dst, m.Aff3(), dimmed, dimmed.Bounds(), draw.Over, nil)
	draw.Draw(dst, dst.Bounds(), image.NewUniform(backdropVeil), image.Point{}, draw.Over)
}

func dim(v uint8) uint8 { return uint8(float64(v)*backdropDim + 0.5) }

// drawTile renders one slot: frame, covered image panned by its hint, rounded clip.
func drawTile(dst *image.RGBA, xf, inv geom.Affine, t Tile, s slotSnapshot, interp draw.Interpolator, hover bool) {
	if t.Rect.Empty() {
		return
	}
	if t.Border > 0 {
		outer := t.Rect.Inset(-t.Border, -t.Border)
		fillShape(dst, xf, inv, outer, color.White, roundedRect(outer, 0))
	}
	clip := pixRect(xf.ApplyRect(t.Rect)).Intersect(dst.Bounds())
	if clip.Empty() {
		return
	}
	shape := roundedRect(t.Rect, t.Radius)

	if s.img == nil {
		fillShape(dst, xf, inv, t.Rect, placeholderColor, shape)
	} else {
		ib := s.img.Bounds()
		place, ok := s.hint.Placement(geom.Size{W: float64(ib.Dx()), H: float64(ib.Dy())}, t.Rect.Size())
		if !ok {
			return
		}
		m := xf.
			Mul(geom.Translate(t.Rect.X, t.Rect.Y)).
			Mul(place).
			Mul(geom.Translate(-float64(ib.Min.X), -float64(ib.Min.Y)))
		tile := image.NewRGBA(clip)
		interp.Transform(tile, m.Aff3(), s.img, ib, draw.Src, nil)
		if t.Radius > 0 {
			draw.DrawMask(dst, clip, tile, clip.Min, coverageMask(clip, inv, shape), clip.Min, draw.Over)
		} else {
			draw.Draw(dst, clip, tile, clip.Min, draw.Over)
		}
	}
	if hover {
		fillShape(dst, xf, inv, t.Rect, hoverShade, shape)
		c := t.Rect.Center()
		arm := 12.0
		plus := union(
			segment(geom.Pt{X: c.X - arm, Y: c.Y}, geom.Pt{X: c.X + arm, Y: c.Y}, 2.5),
			segment(geom.Pt{X: c.X, Y: c.Y - arm}, geom.Pt{X: c.X, Y: c.Y + arm}, 2.5),
		)
		fillShape(dst, xf, inv, geom.R(c.X-arm-2, c.Y-arm-2, 2*arm+4, 2*arm+4), color.White, plus)
	}
}

// drawCaption paints the search-bar pill centred horizontally with its top edge
// on the vertical centre line.
func drawCaption(dst *image.RGBA, xf, inv geom.Affine, box geom.Size, caption string, interp draw.Interpolator) {
	pill := geom.R(box.W/4, box.H/2, box.W/2, captionHeight)
	fillShape(dst, xf, inv, pill, captionFill, roundedRect(pill, captionHeight/2))

	icon := geom.Pt{X: pill.X + pill.W - 8 - 14, Y: pill.Y + pill.H/2}
	fillShape(dst, xf, inv, geom.R(icon.X-14, icon.Y-14, 28, 28), captionIcon, circle(icon, 14))
	lens := geom.Pt{X: icon.X - 1.5, Y: icon.Y - 1.5}
	glyph := union(
		ring(lens, 4.5, 1.6),
		segment(geom.Pt{X: lens.X + 3.4, Y: lens.Y + 3.4}, geom.Pt{X: lens.X + 7, Y: lens.Y + 7}, 1.8),
	)
	fillShape(dst, xf, inv, geom.R(icon.X-10, icon.Y-10, 20, 20), color.White, glyph)

	k := captionTextHeight / 13
	avail := pill.W - 16 - 8 - 28 - 8
	text := fitText(caption, avail/k)
	if text == "" {
		return
	}
	face := basicfont.Face7x13
	tw := font.MeasureString(face, text).Ceil()
	timg := image.NewRGBA(image.Rect(0, 0, tw, 13))
	d := font.Drawer{Dst: timg, Src: image.NewUniform(captionText), Face: face, Dot: fixed.P(0, face.Ascent)}
	d.DrawString(text)
	m := xf.
		Mul(geom.Translate(pill.X+16, pill.Y+(pill.H-captionTextHeight)/2)).
		Mul(geom.Scale(k, k))
	interp.Transform(dst, m.Aff3(), timg, timg.Bounds(), draw.Over, nil)
}

// fitText shortens s so it fits into width pixels of the 7x13 face.
func fitText(s string, width float64) string {
	s = strings.TrimSpace(s)
	adv := float64(basicfont.Face7x13.Advance)
	maxRunes := int(width / adv)
	r := []rune(s)
	if len(r) <= maxRunes {
		return s
	}
	if maxRunes <= 3 {
		return ""
	}
	return string(r[:maxRunes-3]) + "..."
}
