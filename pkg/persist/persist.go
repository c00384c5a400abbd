// Package persist stores serialized layout state.
//
// The layout store never performs I/O itself. It produces a JSON snapshot
// (see package codec) and consumes one at startup; this package supplies
// the blob stores that hold it between runs.
//
// # Backends
//
//   - [NullStore]: stores nothing; every load is a miss
//   - [MemoryStore]: in-process map, for tests and single-run tools
//   - [FileStore]: one file per key under a directory, for the CLI
//   - [RedisStore]: shared state for several API instances
//   - [MongoStore]: one document per key
//   - [SQLiteStore]: a key/value table in a local database file
//
// All backends honor a TTL on Set; zero means no expiration.
//
// # Usage
//
//	s, err := persist.Open(ctx, persist.Config{Backend: "file", Path: dir})
//	if err != nil {
//	    return err
//	}
//	defer s.Close()
//
//	data, ok, err := s.Get(ctx, "tessera")
package persist

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/matzehuels/tessera/pkg/errors"
	"github.com/matzehuels/tessera/pkg/observability"
)

// DefaultKey is the key under which the layout snapshot is stored.
const DefaultKey = "tessera"

// Store is a blob store keyed by string.
type Store interface {
	// Get returns the stored data. ok is false when the key is absent or
	// expired; that is not an error.
	Get(ctx context.Context, key string) (data []byte, ok bool, err error)

	// Set stores data under key. ttl <= 0 means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Backend names accepted by [Open].
const (
	BackendNone   = "none"
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendMongo  = "mongo"
	BackendSQLite = "sqlite"
)

// Config selects and configures a backend.
type Config struct {
	Backend    string
	Path       string // file directory or sqlite database file
	Addr       string // redis address
	Password   string // redis password
	URI        string // mongo connection string
	Database   string // mongo database
	Collection string // mongo collection
}

// Open creates the configured backend, instrumented with the registered
// persistence hooks. An empty backend means none.
func Open(ctx context.Context, cfg Config) (Store, error) {
	var (
		s   Store
		err error
	)
	switch cfg.Backend {
	case "", BackendNone:
		s = NewNullStore()
	case BackendMemory:
		s = NewMemoryStore()
	case BackendFile:
		s, err = NewFileStore(cfg.Path)
	case BackendRedis:
		s, err = NewRedisStore(ctx, RedisConfig{Addr: cfg.Addr, Password: cfg.Password})
	case BackendMongo:
		s, err = NewMongoStore(ctx, MongoConfig{URI: cfg.URI, Database: cfg.Database, Collection: cfg.Collection})
	case BackendSQLite:
		s, err = NewSQLiteStore(ctx, cfg.Path)
	default:
		return nil, errors.New(errors.ErrCodeInvalidConfig, "unknown storage backend: %q", cfg.Backend)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "open %s storage", cfg.Backend)
	}
	return Instrument(s, backendName(cfg.Backend)), nil
}

func backendName(b string) string {
	if b == "" {
		return BackendNone
	}
	return b
}

// Hash computes a SHA-256 hash of the input data as 64 hex characters.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Instrument wraps s so that loads and saves are reported to
// observability.Persist() under the given backend name.
func Instrument(s Store, backend string) Store {
	if _, ok := s.(*instrumented); ok {
		return s
	}
	return &instrumented{Store: s, backend: backend}
}

type instrumented struct {
	Store
	backend string
}

func (i *instrumented) Get(ctx context.Context, key string) ([]byte, bool, error) {
	start := time.Now()
	data, ok, err := i.Store.Get(ctx, key)
	observability.Persist().OnLoad(ctx, i.backend, ok, time.Since(start), err)
	return data, ok, err
}

func (i *instrumented) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	start := time.Now()
	err := i.Store.Set(ctx, key, data, ttl)
	observability.Persist().OnSave(ctx, i.backend, len(data), time.Since(start), err)
	return err
}

// Backend returns the backend name of a store created by [Open], or the
// dynamic type name for other stores.
func Backend(s Store) string {
	if i, ok := s.(*instrumented); ok {
		return i.backend
	}
	return fmt.Sprintf("%T", s)
}

// expired reports whether an entry with the given expiry has lapsed.
// The zero time never expires.
func expired(expiresAt time.Time) bool {
	return !expiresAt.IsZero() && time.Now().After(expiresAt)
}

// expiry converts a TTL into an absolute expiry time.
func expiry(ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return time.Now().Add(ttl)
}
