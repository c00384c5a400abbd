package persist

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/matzehuels/tessera/pkg/errors"
	"github.com/matzehuels/tessera/pkg/observability"
)

// exerciseStore runs the behavior every backend must share.
func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	if _, ok, err := s.Get(ctx, "missing"); err != nil || ok {
		t.Fatalf("Get(missing) = ok %v, err %v; want miss", ok, err)
	}

	if err := s.Set(ctx, "board", []byte(`{"widgets":{}}`), 0); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	data, ok, err := s.Get(ctx, "board")
	if err != nil || !ok {
		t.Fatalf("Get(board) = ok %v, err %v; want hit", ok, err)
	}
	if string(data) != `{"widgets":{}}` {
		t.Errorf("Get(board) = %q, want %q", data, `{"widgets":{}}`)
	}

	if err := s.Set(ctx, "board", []byte(`{}`), time.Hour); err != nil {
		t.Fatalf("Set(overwrite) error = %v", err)
	}
	data, _, _ = s.Get(ctx, "board")
	if string(data) != `{}` {
		t.Errorf("Get(board) after overwrite = %q, want %q", data, `{}`)
	}

	if err := s.Delete(ctx, "board"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, ok, _ := s.Get(ctx, "board"); ok {
		t.Error("Get(board) after Delete should miss")
	}
	if err := s.Delete(ctx, "board"); err != nil {
		t.Errorf("Delete(absent) error = %v, want nil", err)
	}
}

func exerciseExpiry(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	if err := s.Set(ctx, "short", []byte("x"), time.Millisecond); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	time.Sleep(20 * time.Millisecond)
	if _, ok, err := s.Get(ctx, "short"); err != nil || ok {
		t.Errorf("Get(expired) = ok %v, err %v; want miss", ok, err)
	}
}

func TestNullStore(t *testing.T) {
	s := NewNullStore()
	ctx := context.Background()

	if err := s.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if _, ok, _ := s.Get(ctx, "k"); ok {
		t.Error("NullStore.Get() should always miss")
	}
	if err := s.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	exerciseStore(t, s)
	exerciseExpiry(t, s)
}

func TestMemoryStoreCopies(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	in := []byte("abc")
	_ = s.Set(ctx, "k", in, 0)
	in[0] = 'z'

	out, _, _ := s.Get(ctx, "k")
	if string(out) != "abc" {
		t.Errorf("Get() = %q, want %q", out, "abc")
	}
}

func TestFileStore(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	exerciseStore(t, s)
	exerciseExpiry(t, s)
}

func TestFileStoreCorruptEntry(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	path := s.path("board")
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("not json"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, ok, err := s.Get(context.Background(), "board"); err != nil || ok {
		t.Errorf("Get(corrupt) = ok %v, err %v; want miss", ok, err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("corrupt entry should be removed")
	}
}

func TestNewFileStoreEmptyDir(t *testing.T) {
	if _, err := NewFileStore(""); err == nil {
		t.Error("NewFileStore(\"\") should fail")
	}
}

func TestSQLiteStore(t *testing.T) {
	ctx := context.Background()
	s, err := NewSQLiteStore(ctx, filepath.Join(t.TempDir(), "state", "tessera.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	defer s.Close()

	exerciseStore(t, s)
	exerciseExpiry(t, s)
}

func TestSQLiteStoreInMemory(t *testing.T) {
	s, err := NewSQLiteStore(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteStore(:memory:) error = %v", err)
	}
	defer s.Close()
	exerciseStore(t, s)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	tests := []struct {
		cfg     Config
		backend string
		wantErr bool
	}{
		{Config{}, BackendNone, false},
		{Config{Backend: BackendMemory}, BackendMemory, false},
		{Config{Backend: BackendFile, Path: dir}, BackendFile, false},
		{Config{Backend: BackendSQLite, Path: filepath.Join(dir, "t.db")}, BackendSQLite, false},
		{Config{Backend: BackendFile}, "", true},
		{Config{Backend: "etcd"}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.cfg.Backend, func(t *testing.T) {
			s, err := Open(ctx, tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Open(%+v) error = %v, wantErr %v", tt.cfg, err, tt.wantErr)
			}
			if err != nil {
				return
			}
			defer s.Close()
			if got := Backend(s); got != tt.backend {
				t.Errorf("Backend() = %q, want %q", got, tt.backend)
			}
		})
	}
}

func TestOpenUnknownBackendCode(t *testing.T) {
	_, err := Open(context.Background(), Config{Backend: "etcd"})
	if !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("Open(etcd) code = %v, want %v", errors.GetCode(err), errors.ErrCodeInvalidConfig)
	}
}

type recordingHooks struct {
	observability.NoopPersistHooks
	loads, saves int
	lastHit      bool
	lastSize     int
}

func (r *recordingHooks) OnLoad(_ context.Context, _ string, hit bool, _ time.Duration, _ error) {
	r.loads++
	r.lastHit = hit
}

func (r *recordingHooks) OnSave(_ context.Context, _ string, size int, _ time.Duration, _ error) {
	r.saves++
	r.lastSize = size
}

func TestInstrument(t *testing.T) {
	rec := &recordingHooks{}
	observability.SetPersistHooks(rec)
	defer observability.Reset()

	s := Instrument(NewMemoryStore(), BackendMemory)
	if Instrument(s, "other") != s {
		t.Error("Instrument() should not wrap twice")
	}
	ctx := context.Background()

	_, _, _ = s.Get(ctx, "k")
	_ = s.Set(ctx, "k", []byte("12345"), 0)
	_, _, _ = s.Get(ctx, "k")

	if rec.loads != 2 || rec.saves != 1 {
		t.Errorf("hooks loads=%d saves=%d, want 2 and 1", rec.loads, rec.saves)
	}
	if !rec.lastHit {
		t.Error("last load should be a hit")
	}
	if rec.lastSize != 5 {
		t.Errorf("last save size = %d, want 5", rec.lastSize)
	}
}
