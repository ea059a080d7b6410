package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/go-ports/todo/internal/db"
)

// Fixed storage keys. Both entries are written and cleared together.
const (
	KeyToken = "token"
	KeyUser  = "user"
)

// Adapter is durable key/value storage for the session entries.
type Adapter interface {
	// Load returns the value for key, or ("", false, nil) when absent.
	Load(key string) (string, bool, error)
	// Save stores value under key.
	Save(key, value string) error
	// Delete removes keys; absent keys are ignored.
	Delete(keys ...string) error
}

// Locator is implemented by adapters backed by a file on disk.
type Locator interface {
	Path() string
}

// ---------------------------------------------------------------------------
// File adapter
// ---------------------------------------------------------------------------

// FileAdapter stores entries as a JSON object in a single owner-only file.
type FileAdapter struct {
	path string
	mu   sync.Mutex
}

// NewFileAdapter returns an adapter backed by the JSON file at path.
// The file and its directory are created on first Save.
func NewFileAdapter(path string) *FileAdapter {
	return &FileAdapter{path: path}
}

// Path returns the backing file path.
func (f *FileAdapter) Path() string { return f.path }

// Load implements Adapter.
func (f *FileAdapter) Load(key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, err := f.read()
	if err != nil {
		return "", false, err
	}
	v, ok := m[key]
	return v, ok, nil
}

// Save implements Adapter.
func (f *FileAdapter) Save(key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, err := f.read()
	if err != nil {
		return err
	}
	m[key] = value
	return f.write(m)
}

// Delete implements Adapter. The file is removed once it holds no entries.
func (f *FileAdapter) Delete(keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, err := f.read()
	if err != nil {
		return err
	}
	for _, k := range keys {
		delete(m, k)
	}
	if len(m) == 0 {
		if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("session: remove: %w", err)
		}
		return nil
	}
	return f.write(m)
}

func (f *FileAdapter) read() (map[string]string, error) {
	m := make(map[string]string)
	b, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return m, nil
		}
		return nil, fmt.Errorf("session: read: %w", err)
	}
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("session: parse %s: %w", f.path, err)
	}
	return m, nil
}

func (f *FileAdapter) write(m map[string]string) error {
	// ensure the directory exists with 0700
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("session: mkdir: %w", err)
	}
	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("session: marshal: %w", err)
	}
	tmp := f.path + ".tmp"
	// write with 0600 (owner-only)
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return fmt.Errorf("session: write: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("session: rename: %w", err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// SQLite adapter
// ---------------------------------------------------------------------------

// SQLiteAdapter stores entries in the kv table of a SQLite database.
type SQLiteAdapter struct {
	db *db.DB
}

// OpenSQLiteAdapter opens (or creates) the database at path.
func OpenSQLiteAdapter(path string) (*SQLiteAdapter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("session: mkdir: %w", err)
	}
	d, err := db.Open(path)
	if err != nil {
		return nil, err
	}
	return &SQLiteAdapter{db: d}, nil
}

// Load implements Adapter.
func (s *SQLiteAdapter) Load(key string) (string, bool, error) { return s.db.Get(key) }

// Save implements Adapter.
func (s *SQLiteAdapter) Save(key, value string) error { return s.db.Set(key, value) }

// Delete implements Adapter.
func (s *SQLiteAdapter) Delete(keys ...string) error { return s.db.Delete(keys...) }

// Close releases the database.
func (s *SQLiteAdapter) Close() error { return s.db.Close() }

// Path returns the database file path.
func (s *SQLiteAdapter) Path() string { return s.db.Path() }

// ---------------------------------------------------------------------------
// Memory adapter
// ---------------------------------------------------------------------------

// MemoryAdapter keeps entries in process memory only.
type MemoryAdapter struct {
	mu sync.Mutex
	m  map[string]string
}

// NewMemoryAdapter returns an empty in-memory adapter.
func NewMemoryAdapter() *MemoryAdapter {
	return &MemoryAdapter{m: make(map[string]string)}
}

// Load implements Adapter.
func (a *MemoryAdapter) Load(key string) (string, bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	v, ok := a.m[key]
	return v, ok, nil
}

// Save implements Adapter.
func (a *MemoryAdapter) Save(key, value string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.m[key] = value
	return nil
}

// Delete implements Adapter.
func (a *MemoryAdapter) Delete(keys ...string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, k := range keys {
		delete(a.m, k)
	}
	return nil
}
