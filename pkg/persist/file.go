package persist

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// FileStore keeps one JSON file per key under a directory.
type FileStore struct {
	dir string
}

// NewFileStore creates a file store in dir, creating the directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, os.ErrInvalid
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the storage directory.
func (s *FileStore) Dir() string {
	return s.dir
}

// Get reads the entry for key. Corrupt or expired entries are removed and
// reported as a miss.
func (s *FileStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	path := s.path(key)

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var e entry
	if err := json.Unmarshal(data, &e); err != nil {
		_ = os.Remove(path)
		return nil, false, nil
	}
	if expired(e.ExpiresAt) {
		_ = os.Remove(path)
		return nil, false, nil
	}
	return e.Data, true, nil
}

// Set writes the entry for key atomically via a temp file and rename.
func (s *FileStore) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	raw, err := json.Marshal(entry{Data: data, ExpiresAt: expiry(ttl)})
	if err != nil {
		return err
	}

	path := s.path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// Delete removes the entry for key.
func (s *FileStore) Delete(ctx context.Context, key string) error {
	err := os.Remove(s.path(key))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// Close does nothing.
func (s *FileStore) Close() error {
	return nil
}

// path maps a key to dir/<h[:2]>/<h[2:]>.json where h is the key's hash.
func (s *FileStore) path(key string) string {
	h := Hash([]byte(key))
	return filepath.Join(s.dir, h[:2], h[2:]+".json")
}

var _ Store = (*FileStore)(nil)
