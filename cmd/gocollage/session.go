/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"gocollage/internal/composition"
	"gocollage/internal/config"
	"gocollage/internal/geom"
	applog "gocollage/internal/log"
	"gocollage/internal/source"
	"gocollage/internal/storage"
	"gocollage/internal/viewport"
)

// session is a live composition with its source provider and cache.
type session struct {
	comp     *composition.Composition
	provider *source.Provider
	picker   *source.Picker
	cache    *storage.Cache
	live     geom.Size
}

func (s *session) Close() {
	if s.cache != nil {
		_ = s.cache.Close()
	}
}

type sessionFlags struct {
	layout     string
	layoutFile string
	images     []string
	live       string
	noCache    bool
}

func styleFromConfig(cc config.CompositionConfig) (composition.Style, error) {
	st := composition.DefaultStyle()
	st.Gap = cc.Gap
	st.Radius = cc.Radius
	st.BlurBackdrop = cc.BlurBackdrop
	st.ShowCaption = cc.ShowCaption
	st.Caption = cc.Caption
	if strings.TrimSpace(cc.Background) != "" {
		bg, err := composition.ParseHexColor(cc.Background)
		if err != nil {
			return st, fmt.Errorf("background: %w", err)
		}
		st.Background = bg
	}
	return st, nil
}

func openCache(ctx context.Context, sc config.SourcesConfig) (*storage.Cache, error) {
	dir := sc.CacheDir
	if dir == "" {
		d, err := config.CacheDir()
		if err != nil {
			return nil, err
		}
		dir = d
	}
	return storage.Open(ctx, dir, sc.CacheMaxBytes)
}

// newSession builds and mounts a composition at the live size, then loads the
// given images into the first slots.
func (a *app) newSession(ctx context.Context, f sessionFlags) (*session, error) {
	l := applog.WithComponent("cli")
	cc := a.cfg.Composition
	name, file := cc.Layout, cc.LayoutFile
	if f.layout != "" || f.layoutFile != "" {
		name, file = f.layout, f.layoutFile
	}
	layout, err := composition.Resolve(name, file)
	if err != nil {
		return nil, err
	}
	st, err := styleFromConfig(cc)
	if err != nil {
		return nil, err
	}
	live := geom.Size{W: cc.LiveWidth, H: cc.LiveHeight}
	if f.live != "" {
		if live, err = geom.ParseSize(f.live); err != nil {
			return nil, fmt.Errorf("--live: %w", err)
		}
	}
	if len(f.images) > layout.Slots() {
		return nil, fmt.Errorf("layout %s has %d slots, got %d images", layout.Name(), layout.Slots(), len(f.images))
	}

	s := &session{live: live}
	if !f.noCache {
		c, err := openCache(ctx, a.cfg.Sources)
		if err != nil {
			l.WarnContext(ctx, "source cache unavailable", slog.Any("err", err))
		} else {
			s.cache = c
		}
	}
	s.provider = source.NewProvider(source.Options{
		MaxEdge:      a.cfg.Sources.MaxEdge,
		Cache:        s.cache,
		FetchTimeout: time.Duration(a.cfg.Sources.FetchTimeoutMs) * time.Millisecond,
	})
	srcs, err := s.provider.OpenAll(ctx, f.images)
	if err != nil {
		s.Close()
		return nil, err
	}

	s.comp = composition.New(layout, st)
	s.comp.SetStepSize(a.cfg.Viewport.StepSize)
	s.comp.Attach()
	s.comp.Resize(live)
	for i, src := range srcs {
		if err := s.comp.SetImage(i, src.Ref, src.Image); err != nil {
			s.Close()
			return nil, err
		}
	}
	slots := make([]*source.Source, layout.Slots())
	copy(slots, srcs)
	s.picker = source.NewPicker(s.provider, slots)
	l.DebugContext(ctx, "session ready",
		slog.String("layout", layout.Name()), slog.String("live", live.String()), slog.Int("images", len(srcs)))
	return s, nil
}

// pan is one "--pan idx:dx,dy" request.
type pan struct {
	slot   int
	dx, dy float64
}

func parsePan(s string) (pan, error) {
	idx, vec, ok := strings.Cut(s, ":")
	if !ok {
		return pan{}, fmt.Errorf("pan %q: want idx:dx,dy", s)
	}
	i, err := strconv.Atoi(strings.TrimSpace(idx))
	if err != nil {
		return pan{}, fmt.Errorf("pan %q: slot: %w", s, err)
	}
	xs, ys, ok := strings.Cut(vec, ",")
	if !ok {
		return pan{}, fmt.Errorf("pan %q: want idx:dx,dy", s)
	}
	dx, err := strconv.ParseFloat(strings.TrimSpace(xs), 64)
	if err != nil {
		return pan{}, fmt.Errorf("pan %q: dx: %w", s, err)
	}
	dy, err := strconv.ParseFloat(strings.TrimSpace(ys), 64)
	if err != nil {
		return pan{}, fmt.Errorf("pan %q: dy: %w", s, err)
	}
	return pan{slot: i, dx: dx, dy: dy}, nil
}

// apply drags the slot's image by the pan delta, as a pointer would. The
// slot's controller is driven directly since stacked layouts can cover a
// slot's centre with another tile.
func (p pan) apply(c *composition.Composition) error {
	ctrl, err := c.Controller(p.slot)
	if err != nil {
		return fmt.Errorf("pan: %w", err)
	}
	if !ctrl.HasBounds() {
		return fmt.Errorf("pan: slot %d has no image", p.slot)
	}
	ev := func(x, y float64) viewport.PointerEvent {
		return viewport.PointerEvent{ID: 1, Button: viewport.ButtonPrimary, Pos: geom.Pt{X: x, Y: y}}
	}
	ctrl.PointerDown(ev(0, 0))
	ctrl.PointerMove(ev(p.dx, p.dy))
	ctrl.PointerUp(ev(p.dx, p.dy))
	return nil
}
