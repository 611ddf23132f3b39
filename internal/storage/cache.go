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
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	applog "gocollage/internal/log"
	"gocollage/internal/version"

	// Pure-Go SQLite driver (CGO-free)
	_ "modernc.org/sqlite"
)

const (
	CacheFileName = "sources.sqlite"

	// DefaultMaxBytes caps the cache when the caller passes a non-positive limit.
	DefaultMaxBytes int64 = 256 * 1024 * 1024

	// schemaVersion tracks the local SQLite schema. Bump and add a migration step on change.
	schemaVersion = 2
)

// Entry is one cached decoded source. Blob holds the re-encoded pixels; Format
// is the format of the original input (jpeg, png, webp, ...).
type Entry struct {
	Key    string
	Format string
	W, H   int
	Blob   []byte
}

// Cache is an SQLite-backed blob cache. It is safe for concurrent use; the
// underlying pool is limited to one connection.
type Cache struct {
	db       *sql.DB
	path     string
	maxBytes int64
	log      *slog.Logger
}

// CachePath returns the database path inside dir.
func CachePath(dir string) string {
	return filepath.Join(dir, CacheFileName)
}

// Open creates or opens the cache database in dir, enables WAL and brings the
// schema up to date. maxBytes <= 0 selects DefaultMaxBytes.
func Open(ctx context.Context, dir string, maxBytes int64) (*Cache, error) {
	l := applog.WithOperation(applog.WithComponent("storage"), "cache_open").With(slog.String("dir", dir))
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("cache dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		l.Error("create cache dir failed", slog.Any("err", err))
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	path := CachePath(dir)
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", filepath.ToSlash(path))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		l.Error("sqlite open failed", slog.Any("err", err))
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		l.Error("enable WAL failed", slog.Any("err", err))
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if err := ensureVersion(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := ensureSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := runMigrations(ctx, db); err != nil {
		_ = db.Close()
		l.Error("run migrations failed", slog.Any("err", err))
		return nil, err
	}
	l.Debug("cache ready", slog.String("path", path), slog.Int64("max_bytes", maxBytes))
	return &Cache{db: db, path: path, maxBytes: maxBytes, log: applog.WithComponent("storage")}, nil
}

func ensureVersion(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS version (
		id          INTEGER PRIMARY KEY CHECK(id=1),
		schema      INTEGER NOT NULL,
		app         TEXT,
		created_at  TEXT NOT NULL,
		updated_at  TEXT NOT NULL
	);`); err != nil {
		return fmt.Errorf("create version table: %w", err)
	}
	now := time.Now().UTC().Format(time.RFC3339)
	var cur int
	err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&cur)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		// A fresh database starts at version 1 and is migrated forward like any other.
		if _, err := db.ExecContext(ctx, `INSERT INTO version (id, schema, app, created_at, updated_at) VALUES(1, 1, ?, ?, ?)`, version.String(), now, now); err != nil {
			return fmt.Errorf("insert version: %w", err)
		}
	case err != nil:
		return fmt.Errorf("read version: %w", err)
	default:
		if _, err := db.ExecContext(ctx, `UPDATE version SET app=?, updated_at=? WHERE id=1`, version.String(), now); err != nil {
			return fmt.Errorf("update version: %w", err)
		}
	}
	return nil
}

func ensureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS sources (
		key          TEXT PRIMARY KEY,
		format       TEXT    NOT NULL DEFAULT '',
		w            INTEGER NOT NULL DEFAULT 0,
		h            INTEGER NOT NULL DEFAULT 0,
		blob         BLOB    NOT NULL,
		size         INTEGER NOT NULL DEFAULT 0,
		updated_at   TEXT    NOT NULL,
		last_access  INTEGER NOT NULL DEFAULT 0
	);`); err != nil {
		return fmt.Errorf("ensure sources table: %w", err)
	}
	return nil
}

// runMigrations applies incremental schema migrations up to schemaVersion.
func runMigrations(ctx context.Context, db *sql.DB) error {
	var cur int
	if err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&cur); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	for cur < schemaVersion {
		next := cur + 1
		var stmts []string
		switch next {
		case 2:
			stmts = []string{`CREATE INDEX IF NOT EXISTS idx_sources_access ON sources(last_access);`}
		}
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", next, err)
		}
		for _, q := range stmts {
			if _, err := tx.ExecContext(ctx, q); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("migration %d stmt failed: %w", next, err)
			}
		}
		if _, err := tx.ExecContext(ctx, `UPDATE version SET schema=?, updated_at=? WHERE id=1`, next, time.Now().UTC().Format(time.RFC3339)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d update version: %w", next, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("migration %d commit: %w", next, err)
		}
		cur = next
	}
	return nil
}

// Path returns the database file path.
func (c *Cache) Path() string { return c.path }

// MaxBytes returns the size cap enforced after every Put.
func (c *Cache) MaxBytes() int64 { return c.maxBytes }

// Close closes the database.
func (c *Cache) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

// Get returns the entry for key and marks it as recently used. A miss returns (nil, nil).
func (c *Cache) Get(ctx context.Context, key string) (*Entry, error) {
	e := Entry{Key: key}
	err := c.db.QueryRowContext(ctx, `SELECT format, w, h, blob FROM sources WHERE key=?`, key).Scan(&e.Format, &e.W, &e.H, &e.Blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query source %s: %w", key, err)
	}
	// touch
	_, _ = c.db.ExecContext(ctx, `UPDATE sources SET last_access=? WHERE key=?`, time.Now().UnixNano(), key)
	return &e, nil
}

// Put upserts e and evicts least-recently-used entries until the cap holds.
func (c *Cache) Put(ctx context.Context, e Entry) error {
	if strings.TrimSpace(e.Key) == "" {
		return errors.New("cache key is required")
	}
	if e.Blob == nil {
		e.Blob = []byte{}
	}
	now := time.Now()
	_, err := c.db.ExecContext(ctx, `INSERT INTO sources(key,format,w,h,blob,size,updated_at,last_access)
		VALUES(?,?,?,?,?,?,?,?)
		ON CONFLICT(key) DO UPDATE SET format=excluded.format, w=excluded.w, h=excluded.h, blob=excluded.blob,
			size=excluded.size, updated_at=excluded.updated_at, last_access=excluded.last_access`,
		e.Key, e.Format, e.W, e.H, e.Blob, len(e.Blob), now.UTC().Format(time.RFC3339), now.UnixNano())
	if err != nil {
		return fmt.Errorf("upsert source %s: %w", e.Key, err)
	}
	return c.EvictToFit(ctx, c.maxBytes)
}

// GetOrCreate returns the cached entry for key, or calls gen and stores its result.
// A nil entry from gen is returned as-is and not stored.
func (c *Cache) GetOrCreate(ctx context.Context, key string, gen func(context.Context) (*Entry, error)) (*Entry, error) {
	if e, err := c.Get(ctx, key); err != nil {
		return nil, err
	} else if e != nil {
		return e, nil
	}
	if gen == nil {
		return nil, nil
	}
	e, err := gen(ctx)
	if err != nil || e == nil {
		return e, err
	}
	e.Key = key
	if err := c.Put(ctx, *e); err != nil {
		return nil, err
	}
	return e, nil
}

// EvictToFit deletes least-recently-used rows until the total size is <= capBytes.
func (c *Cache) EvictToFit(ctx context.Context, capBytes int64) error {
	total, err := c.TotalBytes(ctx)
	if err != nil {
		return err
	}
	if total <= capBytes {
		return nil
	}
	rows, err := c.db.QueryContext(ctx, `SELECT key, size FROM sources ORDER BY last_access ASC, key ASC`)
	if err != nil {
		return fmt.Errorf("select victims: %w", err)
	}
	victims := make([]any, 0, 16)
	cur := total
	for rows.Next() {
		var key string
		var sz int64
		if err := rows.Scan(&key, &sz); err != nil {
			_ = rows.Close()
			return err
		}
		victims = append(victims, key)
		cur -= sz
		if cur <= capBytes {
			break
		}
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return err
	}
	// The single pooled connection must be free before the delete.
	if err := rows.Close(); err != nil {
		return err
	}
	if len(victims) == 0 {
		return nil
	}
	q := `DELETE FROM sources WHERE key IN (?` + strings.Repeat(",?", len(victims)-1) + `)`
	if _, err := c.db.ExecContext(ctx, q, victims...); err != nil {
		return fmt.Errorf("evict delete: %w", err)
	}
	c.log.Debug("evicted sources", slog.Int("count", len(victims)), slog.Int64("freed", total-cur))
	return nil
}

// TotalBytes returns the summed blob size of all entries.
func (c *Cache) TotalBytes(ctx context.Context) (int64, error) {
	var total int64
	if err := c.db.QueryRowContext(ctx, `SELECT COALESCE(SUM(size),0) FROM sources`).Scan(&total); err != nil {
		return 0, fmt.Errorf("sum sources size: %w", err)
	}
	return total, nil
}

// Len returns the number of cached entries.
func (c *Cache) Len(ctx context.Context) (int, error) {
	var n int
	if err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sources`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
