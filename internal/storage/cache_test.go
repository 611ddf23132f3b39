/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"
)

func openTestCache(t *testing.T, capBytes int64) *Cache {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	c, err := Open(ctx, t.TempDir(), capBytes)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestCachePutGet(t *testing.T) {
	c := openTestCache(t, 0)
	if c.MaxBytes() != DefaultMaxBytes {
		t.Fatalf("max bytes = %d", c.MaxBytes())
	}
	ctx := context.Background()
	if e, err := c.Get(ctx, "missing"); err != nil || e != nil {
		t.Fatalf("miss: %v %v", e, err)
	}
	in := Entry{Key: "abc:2560", Format: "jpeg", W: 40, H: 30, Blob: []byte("pixels")}
	if err := c.Put(ctx, in); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, err := c.Get(ctx, "abc:2560")
	if err != nil || got == nil {
		t.Fatalf("Get: %v %v", got, err)
	}
	if got.Format != "jpeg" || got.W != 40 || got.H != 30 || string(got.Blob) != "pixels" {
		t.Fatalf("unexpected entry %+v", got)
	}
	// Upsert replaces in place.
	in.Blob = []byte("new")
	if err := c.Put(ctx, in); err != nil {
		t.Fatalf("Put 2: %v", err)
	}
	if n, _ := c.Len(ctx); n != 1 {
		t.Fatalf("len = %d, want 1", n)
	}
	if total, _ := c.TotalBytes(ctx); total != 3 {
		t.Fatalf("total = %d, want 3", total)
	}
}

func TestCachePutRequiresKey(t *testing.T) {
	c := openTestCache(t, 0)
	if err := c.Put(context.Background(), Entry{Blob: []byte("x")}); err == nil {
		t.Fatalf("expected error for empty key")
	}
}

func TestCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c := openTestCache(t, 100)
	ctx := context.Background()
	put := func(key string) {
		t.Helper()
		if err := c.Put(ctx, Entry{Key: key, Blob: make([]byte, 40)}); err != nil {
			t.Fatalf("put %s: %v", key, err)
		}
		time.Sleep(2 * time.Millisecond)
	}
	put("a")
	put("b")
	// Touch a so b becomes the oldest.
	if e, _ := c.Get(ctx, "a"); e == nil {
		t.Fatalf("a should be cached")
	}
	time.Sleep(2 * time.Millisecond)
	put("c")

	total, err := c.TotalBytes(ctx)
	if err != nil {
		t.Fatalf("total: %v", err)
	}
	if total > 100 {
		t.Fatalf("expected eviction to <=100 bytes, got %d", total)
	}
	if e, _ := c.Get(ctx, "b"); e != nil {
		t.Fatalf("b should have been evicted")
	}
	for _, k := range []string{"a", "c"} {
		if e, _ := c.Get(ctx, k); e == nil {
			t.Fatalf("%s should survive", k)
		}
	}
}

func TestCacheGetOrCreate(t *testing.T) {
	c := openTestCache(t, 0)
	ctx := context.Background()
	calls := 0
	gen := func(context.Context) (*Entry, error) {
		calls++
		return &Entry{Format: "png", W: 1, H: 1, Blob: []byte("abcd")}, nil
	}
	for i := 0; i < 2; i++ {
		e, err := c.GetOrCreate(ctx, "k", gen)
		if err != nil {
			t.Fatalf("GetOrCreate: %v", err)
		}
		if e.Key != "k" || string(e.Blob) != "abcd" {
			t.Fatalf("unexpected entry %+v", e)
		}
	}
	if calls != 1 {
		t.Fatalf("generator should be called once, got %d", calls)
	}

	boom := errors.New("boom")
	if _, err := c.GetOrCreate(ctx, "other", func(context.Context) (*Entry, error) { return nil, boom }); !errors.Is(err, boom) {
		t.Fatalf("want generator error, got %v", err)
	}
	if e, _ := c.Get(ctx, "other"); e != nil {
		t.Fatalf("failed generation must not be stored")
	}
}

func TestCacheMigratesFromV1(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	dsn := fmt.Sprintf("file:%s", filepath.ToSlash(CachePath(dir)))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	stmts := []string{
		`CREATE TABLE version (id INTEGER PRIMARY KEY CHECK(id=1), schema INTEGER NOT NULL, app TEXT, created_at TEXT NOT NULL, updated_at TEXT NOT NULL);`,
		`INSERT INTO version VALUES(1, 1, 'test', '2020-01-01T00:00:00Z', '2020-01-01T00:00:00Z');`,
	}
	for _, q := range stmts {
		if _, err := db.ExecContext(ctx, q); err != nil {
			t.Fatalf("seed v1: %v", err)
		}
	}
	_ = db.Close()

	c, err := Open(ctx, dir, 0)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer c.Close()
	var schema int
	if err := c.db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&schema); err != nil {
		t.Fatalf("read schema: %v", err)
	}
	if schema != schemaVersion {
		t.Fatalf("schema = %d, want %d", schema, schemaVersion)
	}
	var cnt int
	if err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sqlite_master WHERE type='index' AND name='idx_sources_access'`).Scan(&cnt); err != nil {
		t.Fatalf("query index: %v", err)
	}
	if cnt != 1 {
		t.Fatalf("expected access index after migration")
	}
}

func TestOpenRequiresDir(t *testing.T) {
	if _, err := Open(context.Background(), "  ", 0); err == nil {
		t.Fatalf("expected error for blank dir")
	}
}
