/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"gocollage/internal/geom"
)

type fakeSurface struct {
	mu      sync.Mutex
	live    geom.Size
	ok      bool
	err     error
	panicky bool
	calls   int
	xf      geom.Affine
	entered chan struct{}
	release chan struct{}
}

func (f *fakeSurface) LiveSize() (geom.Size, bool) { return f.live, f.ok }

func (f *fakeSurface) Capture(ctx context.Context, w, h int, xf geom.Affine) (*image.RGBA, error) {
	f.mu.Lock()
	f.calls++
	f.xf = xf
	f.mu.Unlock()
	if f.entered != nil {
		close(f.entered)
	}
	if f.release != nil {
		<-f.release
	}
	if f.panicky {
		panic("boom")
	}
	if f.err != nil {
		return nil, f.err
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	img.Set(0, 0, color.RGBA{R: 0xff, A: 0xff})
	return img, nil
}

type memSink struct {
	mu    sync.Mutex
	saved map[string][]byte
}

func (m *memSink) Save(_ context.Context, name string, data []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saved == nil {
		m.saved = map[string][]byte{}
	}
	m.saved[name] = data
	return "mem://" + name, nil
}

type recorded struct {
	mu     sync.Mutex
	events []string
	props  []map[string]any
}

func (r *recorded) Event(name string, props map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, name)
	r.props = append(r.props, props)
}

func TestScaleFactors(t *testing.T) {
	sx, sy, ok := ScaleFactors(geom.Size{W: 360, H: 640}, geom.Size{W: 1080, H: 1920})
	if !ok || sx != 3 || sy != 3 {
		t.Fatalf("got %v,%v,%v want 3,3,true", sx, sy, ok)
	}
	sx, sy, ok = ScaleFactors(geom.Size{W: 400, H: 500}, geom.Size{W: 1080, H: 1920})
	if !ok || sx != 2.7 || sy != 3.84 {
		t.Fatalf("anisotropic: got %v,%v", sx, sy)
	}
	for _, live := range []geom.Size{{W: 0, H: 640}, {W: 360, H: 0}, {W: -1, H: 10}} {
		if _, _, ok := ScaleFactors(live, geom.Size{W: 1080, H: 1920}); ok {
			t.Fatalf("live %v should not be usable", live)
		}
	}
}

func TestExport_EncodesAndSaves(t *testing.T) {
	s := &fakeSurface{live: geom.Size{W: 360, H: 640}, ok: true}
	sink := &memSink{}
	rec := &recorded{}
	e := New(Options{Sink: sink, Telemetry: rec})

	art, err := e.Export(context.Background(), s, Request{Width: 1080, Height: 1920, Name: "Autumn Mood"})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if art == nil {
		t.Fatalf("expected artifact")
	}
	if art.Name != "autumn-mood.png" || art.Path != "mem://autumn-mood.png" {
		t.Fatalf("name/path: %q %q", art.Name, art.Path)
	}
	if art.ScaleX != 3 || art.ScaleY != 3 {
		t.Fatalf("scale: %v,%v", art.ScaleX, art.ScaleY)
	}
	if s.xf != geom.Scale(3, 3) {
		t.Fatalf("capture transform: %+v", s.xf)
	}
	img, err := png.Decode(bytes.NewReader(sink.saved["autumn-mood.png"]))
	if err != nil {
		t.Fatalf("decode saved png: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 1080 || b.Dy() != 1920 {
		t.Fatalf("png size %v", b)
	}
	if len(rec.events) != 1 || rec.events[0] != "export_completed" {
		t.Fatalf("events: %v", rec.events)
	}
	if _, ok := rec.props[0]["name"]; ok {
		t.Fatalf("telemetry must not carry the artifact name")
	}
	if e.Exporting() {
		t.Fatalf("guard still held after export")
	}
}

func TestExport_NoSinkReturnsData(t *testing.T) {
	s := &fakeSurface{live: geom.Size{W: 100, H: 100}, ok: true}
	art, err := New(Options{}).Export(context.Background(), s, Request{Width: 10, Height: 10})
	if err != nil || art == nil {
		t.Fatalf("export: %v %v", art, err)
	}
	if art.Path != "" || len(art.Data) == 0 {
		t.Fatalf("unexpected artifact %+v", art)
	}
	if !strings.HasSuffix(art.Name, ".png") || len(art.Name) != len("00000000-0000-0000-0000-000000000000.png") {
		t.Fatalf("random name expected, got %q", art.Name)
	}
}

func TestExport_NoOps(t *testing.T) {
	e := New(Options{})
	ctx := context.Background()
	req := Request{Width: 1080, Height: 1920}

	if art, err := e.Export(ctx, nil, req); art != nil || err != nil {
		t.Fatalf("nil surface: %v %v", art, err)
	}
	detached := &fakeSurface{ok: false}
	if art, err := e.Export(ctx, detached, req); art != nil || err != nil || detached.calls != 0 {
		t.Fatalf("detached: %v %v calls=%d", art, err, detached.calls)
	}
	zero := &fakeSurface{live: geom.Size{W: 0, H: 640}, ok: true}
	if art, err := e.Export(ctx, zero, req); art != nil || err != nil || zero.calls != 0 {
		t.Fatalf("zero width: %v %v calls=%d", art, err, zero.calls)
	}
	if e.Exporting() {
		t.Fatalf("guard held after no-op")
	}
}

func TestExport_InvalidRequest(t *testing.T) {
	s := &fakeSurface{live: geom.Size{W: 10, H: 10}, ok: true}
	if _, err := New(Options{}).Export(context.Background(), s, Request{Width: 0, Height: 10}); err == nil {
		t.Fatalf("expected error for zero width request")
	}
}

func TestExport_OverlappingRequestIsDropped(t *testing.T) {
	s := &fakeSurface{
		live:    geom.Size{W: 360, H: 640},
		ok:      true,
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	e := New(Options{})
	done := make(chan error, 1)
	go func() {
		_, err := e.Export(context.Background(), s, Request{Width: 36, Height: 64})
		done <- err
	}()
	<-s.entered
	if !e.Exporting() {
		t.Fatalf("expected in-flight export")
	}
	art, err := e.Export(context.Background(), s, Request{Width: 36, Height: 64})
	if art != nil || err != nil {
		t.Fatalf("overlapping export should be a no-op, got %v %v", art, err)
	}
	close(s.release)
	if err := <-done; err != nil {
		t.Fatalf("first export: %v", err)
	}
	if s.calls != 1 {
		t.Fatalf("capture calls = %d, want 1", s.calls)
	}
	if e.Exporting() {
		t.Fatalf("guard not released")
	}
}

func TestExport_GuardReleasedOnFailure(t *testing.T) {
	rec := &recorded{}
	e := New(Options{Telemetry: rec})
	boom := errors.New("capture broke")
	s := &fakeSurface{live: geom.Size{W: 10, H: 10}, ok: true, err: boom}
	if _, err := e.Export(context.Background(), s, Request{Width: 20, Height: 20}); !errors.Is(err, boom) {
		t.Fatalf("want wrapped capture error, got %v", err)
	}
	if e.Exporting() {
		t.Fatalf("guard held after failure")
	}
	if len(rec.events) != 1 || rec.events[0] != "export_failed" {
		t.Fatalf("events: %v", rec.events)
	}

	s.err = nil
	if art, err := e.Export(context.Background(), s, Request{Width: 20, Height: 20}); err != nil || art == nil {
		t.Fatalf("retry after failure: %v %v", art, err)
	}
}

func TestExport_GuardReleasedOnPanic(t *testing.T) {
	e := New(Options{})
	s := &fakeSurface{live: geom.Size{W: 10, H: 10}, ok: true, panicky: true}
	func() {
		defer func() { _ = recover() }()
		_, _ = e.Export(context.Background(), s, Request{Width: 20, Height: 20})
	}()
	if e.Exporting() {
		t.Fatalf("guard held after panic")
	}
}

func TestSlugAndFileName(t *testing.T) {
	cases := map[string]string{
		"Autumn Mood":        "autumn-mood",
		"autumn   mood\tset": "autumn-mood-set",
		" Leading":           "-leading",
		"ALLCAPS":            "allcaps",
		"Trips/Autumn":       "trips-autumn",
		`a\b`:                "a-b",
	}
	for in, want := range cases {
		if got := Slug(in); got != want {
			t.Errorf("Slug(%q) = %q, want %q", in, got, want)
		}
	}
	if got := FileName("Autumn Mood"); got != "autumn-mood.png" {
		t.Fatalf("FileName = %q", got)
	}
	a, b := FileName(""), FileName("   ")
	if a == b || !strings.HasSuffix(a, ".png") || !strings.HasSuffix(b, ".png") {
		t.Fatalf("blank names should be distinct random tokens: %q %q", a, b)
	}
}

func TestResolvePreset(t *testing.T) {
	p, err := ResolvePreset("", 0, 0)
	if err != nil || p.Name != PresetStory || p.Width != 1080 || p.Height != 1920 {
		t.Fatalf("default preset: %+v %v", p, err)
	}
	p, err = ResolvePreset(" Square ", 0, 0)
	if err != nil || p.Width != 1080 || p.Height != 1080 {
		t.Fatalf("square: %+v %v", p, err)
	}
	p, err = ResolvePreset("portrait", 800, 1000)
	if err != nil || p.Width != 800 || p.Height != 1000 {
		t.Fatalf("override: %+v %v", p, err)
	}
	if _, err := ResolvePreset("poster", 0, 0); !errors.Is(err, ErrUnknownPreset) {
		t.Fatalf("want ErrUnknownPreset, got %v", err)
	}
	if _, err := ResolvePreset("story", 500, 0); err == nil {
		t.Fatalf("half-specified size should fail")
	}
	if got := len(Presets()); got != 3 {
		t.Fatalf("presets = %d", got)
	}
	if r := p.Request("x"); r.Width != 800 || r.Height != 1000 || r.Name != "x" {
		t.Fatalf("request: %+v", r)
	}
}

func TestDirSink(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	path, err := DirSink{Dir: dir}.Save(context.Background(), "a.png", []byte("data"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if path != filepath.Join(dir, "a.png") {
		t.Fatalf("path %q", path)
	}
	got, err := os.ReadFile(path)
	if err != nil || string(got) != "data" {
		t.Fatalf("read back: %q %v", got, err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Fatalf("temp files left behind: %v", entries)
	}
	if _, err := (DirSink{Dir: dir}).Save(context.Background(), "../x.png", nil); err == nil {
		t.Fatalf("path traversal should be rejected")
	}
}

func TestExport_NameWithSeparatorStaysInDir(t *testing.T) {
	dir := t.TempDir()
	s := &fakeSurface{live: geom.Size{W: 10, H: 10}, ok: true}
	e := New(Options{Sink: DirSink{Dir: dir}})
	art, err := e.Export(context.Background(), s, Request{Width: 20, Height: 20, Name: "Trips/Autumn Mood"})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if want := filepath.Join(dir, "trips-autumn-mood.png"); art.Path != want {
		t.Fatalf("path %q, want %q", art.Path, want)
	}
}
