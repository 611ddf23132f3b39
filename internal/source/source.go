/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package source turns file paths, data URIs and http(s) URLs into decoded
// images ready to be placed into a collage slot.
package source

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"gocollage/internal/geom"
	applog "gocollage/internal/log"
	"gocollage/internal/storage"
)

// ErrUnsupported is returned when a location or payload cannot be decoded as an image.
var ErrUnsupported = errors.New("unsupported image source")

const (
	// DefaultMaxEdge bounds the longer side of decoded images.
	DefaultMaxEdge = 2560
	// maxPayload caps how many bytes are read from any location.
	maxPayload = 64 << 20
)

// Source is a decoded image plus the displayable reference it came from.
type Source struct {
	// Ref is a data URI of the original bytes and identifies the source to viewport controllers.
	Ref    string
	Image  image.Image
	Size   geom.Size
	Format string
	// Hash is the hex sha256 of the original bytes.
	Hash string
}

// Options configures a Provider.
type Options struct {
	// MaxEdge down-samples larger images; 0 selects DefaultMaxEdge, negative disables.
	MaxEdge      int
	Cache        *storage.Cache
	Client       *http.Client
	FetchTimeout time.Duration
}

// Provider loads and decodes image sources. It is safe for concurrent use.
type Provider struct {
	maxEdge int
	cache   *storage.Cache
	client  *http.Client
	log     *slog.Logger
}

func NewProvider(opts Options) *Provider {
	p := &Provider{maxEdge: opts.MaxEdge, cache: opts.Cache, client: opts.Client, log: applog.WithComponent("source")}
	if p.maxEdge == 0 {
		p.maxEdge = DefaultMaxEdge
	}
	if p.client == nil {
		timeout := opts.FetchTimeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		p.client = &http.Client{Timeout: timeout}
	}
	return p
}

// Open reads location (file path, data: URI or http(s) URL) and decodes it.
func (p *Provider) Open(ctx context.Context, location string) (*Source, error) {
	l := applog.WithOperation(p.log, "open")
	data, err := p.read(ctx, location)
	if err != nil {
		return nil, err
	}
	sum := sha256.Sum256(data)
	hash := hex.EncodeToString(sum[:])

	var (
		img    image.Image
		format string
	)
	if p.cache != nil {
		key := hash + ":" + strconv.Itoa(p.maxEdge)
		e, err := p.cache.GetOrCreate(ctx, key, func(context.Context) (*storage.Entry, error) {
			i, f, err := decode(data, p.maxEdge)
			if err != nil {
				return nil, err
			}
			img, format = i, f
			var buf bytes.Buffer
			if err := png.Encode(&buf, i); err != nil {
				return nil, fmt.Errorf("encode cache entry: %w", err)
			}
			b := i.Bounds()
			return &storage.Entry{Format: f, W: b.Dx(), H: b.Dy(), Blob: buf.Bytes()}, nil
		})
		switch {
		case err != nil && img == nil:
			// Cache failures fall back to a plain decode; decode failures are final.
			if errors.Is(err, ErrUnsupported) {
				return nil, err
			}
			l.Warn("source cache unavailable", slog.Any("err", err))
		case img == nil && e != nil:
			cached, derr := png.Decode(bytes.NewReader(e.Blob))
			if derr != nil {
				l.Warn("corrupt cache entry; decoding again", slog.String("key", key), slog.Any("err", derr))
			} else {
				img, format = cached, e.Format
			}
		}
	}
	if img == nil {
		img, format, err = decode(data, p.maxEdge)
		if err != nil {
			return nil, err
		}
	}
	b := img.Bounds()
	src := &Source{
		Ref:    EncodeDataURI(mimeFor(format), data),
		Image:  img,
		Size:   geom.Size{W: float64(b.Dx()), H: float64(b.Dy())},
		Format: format,
		Hash:   hash,
	}
	l.Debug("source decoded", slog.String("format", format), slog.String("size", src.Size.String()), slog.String("hash", hash[:12]))
	return src, nil
}

func (p *Provider) read(ctx context.Context, location string) ([]byte, error) {
	loc := strings.TrimSpace(location)
	switch {
	case loc == "":
		return nil, fmt.Errorf("%w: empty location", ErrUnsupported)
	case strings.HasPrefix(loc, "data:"):
		_, data, err := DecodeDataURI(loc)
		return data, err
	case strings.HasPrefix(loc, "http://") || strings.HasPrefix(loc, "https://"):
		return p.fetch(ctx, loc)
	default:
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		f, err := os.Open(loc)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", loc, err)
		}
		defer f.Close()
		return readCapped(f)
	}
}

func (p *Provider) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fetch %s: status %d", url, resp.StatusCode)
	}
	return readCapped(resp.Body)
}

func readCapped(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxPayload+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxPayload {
		return nil, fmt.Errorf("%w: payload exceeds %d bytes", ErrUnsupported, maxPayload)
	}
	return data, nil
}
