// Package thumbcache persists thumbnail bytes in a local SQLite database
// keyed by path and modification time.
package thumbcache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Cache is a SQLite-backed byte store. It is safe for concurrent use.
type Cache struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates the cache database at path.
func Open(ctx context.Context, path string) (*Cache, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create cache dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open thumbnail cache: %w", err)
	}
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("thumbnail cache %q: %w", p, err)
		}
	}
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS thumbs (
		key TEXT PRIMARY KEY,
		data BLOB NOT NULL,
		stored_at_unixms INTEGER NOT NULL
	);`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate thumbnail cache: %w", err)
	}
	return &Cache{db: db, now: time.Now}, nil
}

// Get returns the cached bytes for key.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var data []byte
	err := c.db.QueryRowContext(ctx, `SELECT data FROM thumbs WHERE key = ?`, key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// Put stores data under key, replacing any previous entry.
func (c *Cache) Put(ctx context.Context, key string, data []byte) error {
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO thumbs(key, data, stored_at_unixms) VALUES(?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET data = excluded.data, stored_at_unixms = excluded.stored_at_unixms`,
		key, data, c.now().UnixMilli())
	return err
}

// Delete removes key.
func (c *Cache) Delete(ctx context.Context, key string) error {
	_, err := c.db.ExecContext(ctx, `DELETE FROM thumbs WHERE key = ?`, key)
	return err
}

// Prune removes entries stored before cutoff and returns how many were dropped.
func (c *Cache) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := c.db.ExecContext(ctx, `DELETE FROM thumbs WHERE stored_at_unixms < ?`, cutoff.UnixMilli())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Len returns the number of cached entries.
func (c *Cache) Len(ctx context.Context) (int, error) {
	var n int
	err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM thumbs`).Scan(&n)
	return n, err
}

// Close closes the database.
func (c *Cache) Close() error {
	return c.db.Close()
}
