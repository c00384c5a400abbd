package persist

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

// SQLiteStore keeps entries in a single key/value table.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at path. ":memory:" opens
// a private in-memory database.
func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, os.ErrInvalid
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, err
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// A single connection keeps ":memory:" databases from splitting per conn.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db}
	if err := s.ensureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) ensureSchema(ctx context.Context) error {
	schema := `
		PRAGMA busy_timeout = 5000;
		CREATE TABLE IF NOT EXISTS snapshots (
			key TEXT PRIMARY KEY,
			data BLOB NOT NULL,
			expires_at INTEGER NOT NULL DEFAULT 0,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
	`
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// Get returns the stored data for key.
func (s *SQLiteStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var (
		data      []byte
		expiresAt int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT data, expires_at FROM snapshots WHERE key = ?`, key,
	).Scan(&data, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if expiresAt != 0 && expired(time.Unix(0, expiresAt)) {
		_ = s.Delete(ctx, key)
		return nil, false, nil
	}
	return data, true, nil
}

// Set upserts the row for key.
func (s *SQLiteStore) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	var expiresAt int64
	if t := expiry(ttl); !t.IsZero() {
		expiresAt = t.UnixNano()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO snapshots (key, data, expires_at, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET
			data = excluded.data,
			expires_at = excluded.expires_at,
			updated_at = CURRENT_TIMESTAMP
	`, key, data, expiresAt)
	return err
}

// Delete removes the row for key.
func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM snapshots WHERE key = ?`, key)
	return err
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

var _ Store = (*SQLiteStore)(nil)
