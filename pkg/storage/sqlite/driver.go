// Package sqlite is a storage.Store backed by a SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/papercomputeco/toolrelay/pkg/storage"
)

const schemaV1 = `
CREATE TABLE IF NOT EXISTS kv (
    key TEXT PRIMARY KEY,
    value BLOB NOT NULL,
    updated_at_ms INTEGER NOT NULL DEFAULT 0
);
`

// Driver keeps one row per key. The value column holds the whole document.
type Driver struct {
	db *sql.DB
}

// NewDriver opens (or creates) the database at path. Use ":memory:" for an
// in-memory database.
func NewDriver(ctx context.Context, path string) (*Driver, error) {
	if path == "" {
		return nil, errors.New("sqlite store: empty path")
	}

	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	// A single connection keeps ":memory:" databases alive and serialises writers.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schemaV1); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate sqlite database: %w", err)
	}

	return &Driver{db: db}, nil
}

func (d *Driver) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := d.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound{Key: key}
	}
	if err != nil {
		return nil, fmt.Errorf("query key %s: %w", key, err)
	}

	return value, nil
}

func (d *Driver) Put(ctx context.Context, key string, value []byte) error {
	_, err := d.db.ExecContext(ctx, `
INSERT INTO kv (key, value, updated_at_ms) VALUES (?, ?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at_ms = excluded.updated_at_ms
`, key, value, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("upsert key %s: %w", key, err)
	}

	return nil
}

func (d *Driver) Close() error {
	return d.db.Close()
}
