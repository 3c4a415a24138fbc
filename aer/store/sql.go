package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/tursodatabase/go-libsql"
)

const (
	createTableSQL = `CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		expires_at INTEGER NOT NULL
	)`
	getSQL    = `SELECT value, expires_at FROM kv WHERE key = ?`
	upsertSQL = `INSERT INTO kv (key, value, expires_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at`
	deleteSQL = `DELETE FROM kv WHERE key = ? AND expires_at = ?`
)

// SQLStore keeps entries in a libsql table. Expired rows read as misses and are removed
// on the read that finds them.
type SQLStore struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

// NewSQLStore opens dsn with the libsql driver and creates the kv table.
// Local "file:" DSNs get their parent directory created.
func NewSQLStore(ctx context.Context, dsn string, ttl time.Duration) (*SQLStore, error) {
	if strings.HasPrefix(dsn, "file:") {
		path := strings.TrimPrefix(dsn, "file:")
		if i := strings.IndexByte(path, '?'); i >= 0 {
			path = path[:i]
		}
		if path != "" && !strings.HasPrefix(path, ":memory:") {
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return nil, fmt.Errorf("failed to create store directory for %s: %w", path, err)
			}
		}
	}

	db, err := sql.Open("libsql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open fingerprint store: %w", err)
	}

	s, err := NewSQLStoreFromDB(ctx, db, ttl)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewSQLStoreFromDB wraps an existing connection pool and creates the kv table.
func NewSQLStoreFromDB(ctx context.Context, db *sql.DB, ttl time.Duration) (*SQLStore, error) {
	if _, err := db.ExecContext(ctx, createTableSQL); err != nil {
		return nil, fmt.Errorf("failed to create kv table: %w", err)
	}
	return &SQLStore{db: db, ttl: ttl, now: time.Now}, nil
}

// Get implements Store
func (s *SQLStore) Get(ctx context.Context, key string) (string, error) {
	var (
		value     string
		expiresAt int64
	)
	err := s.db.QueryRowContext(ctx, getSQL, key).Scan(&value, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", unavailable("get", err)
	}

	if expiresAt > 0 && s.now().UnixNano() >= expiresAt {
		if _, err := s.db.ExecContext(ctx, deleteSQL, key, expiresAt); err != nil {
			return "", unavailable("purge", err)
		}
		return "", ErrNotFound
	}
	return value, nil
}

// Set implements Store
func (s *SQLStore) Set(ctx context.Context, key, value string) error {
	var expiresAt int64
	if s.ttl > 0 {
		expiresAt = s.now().Add(s.ttl).UnixNano()
	}
	if _, err := s.db.ExecContext(ctx, upsertSQL, key, value, expiresAt); err != nil {
		return unavailable("set", err)
	}
	return nil
}

// Close closes the connection pool.
func (s *SQLStore) Close() error {
	return s.db.Close()
}
