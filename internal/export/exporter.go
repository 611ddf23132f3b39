/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package export rasterizes a composition at a target size and hands the PNG
// to a sink. At most one export runs at a time per Exporter.
package export

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"math"
	"sync/atomic"
	"time"

	"gocollage/internal/geom"
	applog "gocollage/internal/log"
	"gocollage/internal/telemetry"
)

// Surface is the part of a composition the exporter needs.
type Surface interface {
	// LiveSize reports the on-screen size; ok is false while nothing is mounted.
	LiveSize() (geom.Size, bool)
	// Capture renders the surface into a w x h raster through xf.
	Capture(ctx context.Context, w, h int, xf geom.Affine) (*image.RGBA, error)
}

// Request describes one export. Name is a hint for the file name and may be empty.
type Request struct {
	Width  int
	Height int
	Name   string
}

// Artifact is a finished export.
type Artifact struct {
	Name   string
	Width  int
	Height int
	ScaleX float64
	ScaleY float64
	Data   []byte
	// Path is where the sink stored the artifact, if there is a sink.
	Path string
}

// Options configures an Exporter.
type Options struct {
	Sink      Sink
	Telemetry telemetry.Recorder
}

// Exporter serialises exports: a request arriving while another is in flight
// is dropped, not queued.
type Exporter struct {
	inFlight atomic.Bool
	sink     Sink
	rec      telemetry.Recorder
	log      *slog.Logger
}

func New(opts Options) *Exporter {
	rec := opts.Telemetry
	if rec == nil {
		rec = telemetry.Nop{}
	}
	return &Exporter{sink: opts.Sink, rec: rec, log: applog.WithComponent("export")}
}

// Exporting reports whether an export is in flight.
func (e *Exporter) Exporting() bool { return e.inFlight.Load() }

// ScaleFactors returns target/live per axis. ok is false when either size is
// unknown, zero or not finite.
func ScaleFactors(live, target geom.Size) (sx, sy float64, ok bool) {
	if !live.Known() || !target.Known() {
		return 0, 0, false
	}
	sx, sy = target.W/live.W, target.H/live.H
	if math.IsInf(sx, 0) || math.IsInf(sy, 0) {
		return 0, 0, false
	}
	return sx, sy, true
}

// Export captures s at req's size and encodes it as PNG. It returns (nil, nil)
// without doing anything when another export is in flight, s is nil, or s has
// no usable live size. Capture or encoding failures are returned wrapped.
func (e *Exporter) Export(ctx context.Context, s Surface, req Request) (*Artifact, error) {
	l := applog.WithOperation(e.log, "export")
	if req.Width <= 0 || req.Height <= 0 {
		return nil, fmt.Errorf("export %dx%d: size must be positive", req.Width, req.Height)
	}
	if s == nil {
		l.Debug("no surface attached; skipping")
		return nil, nil
	}
	if !e.inFlight.CompareAndSwap(false, true) {
		l.Debug("export already in flight; dropping request")
		return nil, nil
	}
	defer e.inFlight.Store(false)

	live, ok := s.LiveSize()
	if !ok {
		l.Debug("surface has no live size; skipping")
		return nil, nil
	}
	target := geom.Size{W: float64(req.Width), H: float64(req.Height)}
	sx, sy, ok := ScaleFactors(live, target)
	if !ok {
		l.Debug("unusable live size; skipping", slog.String("live", live.String()))
		return nil, nil
	}

	name := FileName(req.Name)
	ctx = applog.ContextWith(ctx, slog.String("artifact", name))
	start := time.Now()
	img, err := s.Capture(ctx, req.Width, req.Height, geom.Scale(sx, sy))
	if err != nil {
		e.failed(ctx, l, req, "capture", err)
		return nil, fmt.Errorf("capture: %w", err)
	}
	data, err := EncodePNG(img)
	if err != nil {
		e.failed(ctx, l, req, "encode", err)
		return nil, fmt.Errorf("encode: %w", err)
	}
	art := &Artifact{Name: name, Width: req.Width, Height: req.Height, ScaleX: sx, ScaleY: sy, Data: data}
	if e.sink != nil {
		path, err := e.sink.Save(ctx, name, data)
		if err != nil {
			e.failed(ctx, l, req, "save", err)
			return nil, fmt.Errorf("save %s: %w", name, err)
		}
		art.Path = path
	}
	took := time.Since(start)
	l.InfoContext(ctx, "export completed",
		slog.Int("w", req.Width), slog.Int("h", req.Height),
		slog.Float64("scale_x", sx), slog.Float64("scale_y", sy),
		slog.Int("bytes", len(data)), slog.Duration("took", took))
	e.rec.Event(telemetry.EventExportCompleted, map[string]any{
		"width": req.Width, "height": req.Height, "ms": took.Milliseconds(),
	})
	return art, nil
}

func (e *Exporter) failed(ctx context.Context, l *slog.Logger, req Request, stage string, err error) {
	if errors.Is(err, context.Canceled) {
		l.InfoContext(ctx, "export canceled", slog.String("stage", stage))
	} else {
		l.ErrorContext(ctx, "export failed", slog.String("stage", stage), slog.Any("err", err))
	}
	e.rec.Event(telemetry.EventExportFailed, map[string]any{
		"width": req.Width, "height": req.Height, "stage": stage,
	})
}
