// Package sqlite stores keys as rows of a single table in an SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/aretw0/sheaf/pkg/storage"
)

const schema = `CREATE TABLE IF NOT EXISTS kv (
	key        TEXT PRIMARY KEY,
	data       BLOB NOT NULL,
	updated_at TEXT NOT NULL
)`

// Config holds the configuration for the SQLite backend.
type Config struct {
	Path   string
	Quota  int64 // total bytes across keys, zero means unlimited
	Logger *slog.Logger
}

// Backend implements storage.Backend on an SQLite database.
type Backend struct {
	db     *sql.DB
	quota  int64
	logger *slog.Logger
}

// Open opens (creating if needed) the database at cfg.Path.
func Open(ctx context.Context, cfg Config) (*Backend, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	if cfg.Path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection keeps writes serialized and avoids leaking
	// file descriptors.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	cfg.Logger.Debug("sqlite store opened", "path", cfg.Path)
	return &Backend{db: db, quota: cfg.Quota, logger: cfg.Logger}, nil
}

// Close releases the database.
func (b *Backend) Close() error {
	return b.db.Close()
}

// Put upserts data under key inside one transaction, enforcing the quota.
func (b *Backend) Put(ctx context.Context, key string, data []byte) error {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if b.quota > 0 {
		var used int64
		err := tx.QueryRowContext(ctx,
			`SELECT COALESCE(SUM(LENGTH(data)), 0) FROM kv WHERE key <> ?`, key).Scan(&used)
		if err != nil {
			return fmt.Errorf("failed to compute usage: %w", err)
		}
		if used+int64(len(data)) > b.quota {
			return fmt.Errorf("%w: %d of %d bytes", storage.ErrQuotaExceeded, used+int64(len(data)), b.quota)
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO kv (key, data, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		key, data, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit %s: %w", key, err)
	}
	return nil
}

// Get returns the value stored under key.
func (b *Backend) Get(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	err := b.db.QueryRowContext(ctx, `SELECT data FROM kv WHERE key = ?`, key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return data, nil
}

// Remove deletes key. A missing key is not an error.
func (b *Backend) Remove(ctx context.Context, key string) error {
	if _, err := b.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to remove %s: %w", key, err)
	}
	return nil
}

// Entries lists every key ordered by name.
func (b *Backend) Entries(ctx context.Context) ([]storage.Entry, error) {
	rows, err := b.db.QueryContext(ctx, `SELECT key, LENGTH(data), updated_at FROM kv ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}
	defer rows.Close()

	var entries []storage.Entry
	for rows.Next() {
		var (
			e       storage.Entry
			updated string
		)
		if err := rows.Scan(&e.Key, &e.Size, &updated); err != nil {
			return nil, fmt.Errorf("failed to scan key: %w", err)
		}
		e.ModTime, err = time.Parse(time.RFC3339Nano, updated)
		if err != nil {
			b.logger.Warn("unreadable timestamp", "key", e.Key, "value", updated)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

var _ storage.Backend = (*Backend)(nil)
