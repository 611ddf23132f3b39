/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"
)

// ErrIndexRange is returned by Picker for an index outside the slot list.
var ErrIndexRange = errors.New("slot index out of range")

// OpenAsync decodes location on a new goroutine and calls done with the result.
func (p *Provider) OpenAsync(ctx context.Context, location string, done func(*Source, error)) {
	go func() {
		src, err := p.Open(ctx, location)
		if done != nil {
			done(src, err)
		}
	}()
}

// OpenAll decodes locations in parallel, preserving order. The first failure
// cancels the rest.
func (p *Provider) OpenAll(ctx context.Context, locations []string) ([]*Source, error) {
	out := make([]*Source, len(locations))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, loc := range locations {
		g.Go(func() error {
			src, err := p.Open(gctx, loc)
			if err != nil {
				return fmt.Errorf("source %d: %w", i, err)
			}
			out[i] = src
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Picker is a fixed-length ordered list of slot sources. Pick replaces one
// entry asynchronously; when picks for the same slot overlap, the latest
// request wins and earlier results are dropped.
type Picker struct {
	p    *Provider
	mu   sync.Mutex
	srcs []*Source
	gen  []uint64
}

// NewPicker returns a picker over initial; its length is fixed from here on.
func NewPicker(p *Provider, initial []*Source) *Picker {
	srcs := make([]*Source, len(initial))
	copy(srcs, initial)
	return &Picker{p: p, srcs: srcs, gen: make([]uint64, len(initial))}
}

func (pk *Picker) Len() int { return len(pk.srcs) }

// Get returns the current source at idx, or nil when idx is out of range or empty.
func (pk *Picker) Get(idx int) *Source {
	pk.mu.Lock()
	defer pk.mu.Unlock()
	if idx < 0 || idx >= len(pk.srcs) {
		return nil
	}
	return pk.srcs[idx]
}

// Sources returns a copy of the current list.
func (pk *Picker) Sources() []*Source {
	pk.mu.Lock()
	defer pk.mu.Unlock()
	out := make([]*Source, len(pk.srcs))
	copy(out, pk.srcs)
	return out
}

// Pick starts decoding location for slot idx. On success the slot is replaced
// before done is called; failures leave the slot untouched. done is not called
// for results superseded by a later Pick.
func (pk *Picker) Pick(ctx context.Context, idx int, location string, done func(idx int, src *Source, err error)) error {
	pk.mu.Lock()
	if idx < 0 || idx >= len(pk.srcs) {
		pk.mu.Unlock()
		return fmt.Errorf("%w: %d (len %d)", ErrIndexRange, idx, len(pk.srcs))
	}
	pk.gen[idx]++
	ticket := pk.gen[idx]
	pk.mu.Unlock()

	pk.p.OpenAsync(ctx, location, func(src *Source, err error) {
		pk.mu.Lock()
		if pk.gen[idx] != ticket {
			pk.mu.Unlock()
			pk.p.log.Debug("dropping superseded pick", slog.Int("slot", idx))
			return
		}
		if err == nil {
			pk.srcs[idx] = src
		}
		pk.mu.Unlock()
		if err != nil {
			pk.p.log.Warn("pick failed", slog.Int("slot", idx), slog.Any("err", err))
		}
		if done != nil {
			done(idx, src, err)
		}
	})
	return nil
}
