package settings

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/tidwall/jsonc"

	"github.com/shinji-kodama/mkgo/internal/model"
)

const (
	// DirName is the project-local directory holding mkgo state.
	DirName = ".mkgo"

	// FileName is the settings file inside DirName.
	FileName = "settings.json"
)

// Store is a string key/value store with an explicit lifecycle.
type Store interface {
	// Get returns the persisted value for key, or def if none exists.
	// Get never writes def back.
	Get(key, def string) string

	// Set records value for key. The change becomes durable on Flush.
	Set(key, value string)

	// Flush writes pending changes to durable storage.
	Flush() error

	// Close flushes and releases the store.
	Close() error
}

// FileStore is a Store backed by a JSON file under the project directory.
//
// The file is a flat JSON object written with sorted keys and indentation so
// that it stays easy to inspect and edit by hand. Hand edits may contain
// comments or trailing commas; they are stripped with jsonc on load and are
// not preserved by the next write.
type FileStore struct {
	path   string
	values map[string]string
	dirty  bool
}

// Path returns the settings file location for projectDir.
func Path(projectDir string) string {
	return filepath.Join(projectDir, DirName, FileName)
}

// Open loads the settings file for projectDir.
//
// A missing file is not an error: the store simply starts empty. If the file
// exists but cannot be read or parsed, Open still returns a usable empty
// store together with an error wrapping model.ErrStoreUnavailable, so the
// caller can warn and continue with defaults.
func Open(projectDir string) (*FileStore, error) {
	s := &FileStore{
		path:   Path(projectDir),
		values: make(map[string]string),
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return s, fmt.Errorf("%w: failed to read %s: %v", model.ErrStoreUnavailable, s.path, err)
	}

	var raw map[string]any
	if err := json.Unmarshal(jsonc.ToJSON(data), &raw); err != nil {
		return s, fmt.Errorf("%w: failed to parse %s: %v", model.ErrStoreUnavailable, s.path, err)
	}

	// Non-string values can only come from hand edits; keep the rest of the
	// file usable and report the first offending key.
	var bad []string
	for k, v := range raw {
		str, ok := v.(string)
		if !ok {
			bad = append(bad, k)
			continue
		}
		s.values[k] = str
	}
	if len(bad) > 0 {
		sort.Strings(bad)
		return s, fmt.Errorf("%w: %s: value of %q is not a string, ignoring it",
			model.ErrStoreUnavailable, s.path, bad[0])
	}

	return s, nil
}

// Path returns the location of the backing file.
func (s *FileStore) Path() string {
	return s.path
}

// Get returns the persisted value for key, or def.
func (s *FileStore) Get(key, def string) string {
	if v, ok := s.values[key]; ok {
		return v
	}
	return def
}

// Set records value for key. Setting a key to its current value is a no-op
// and does not cause a write.
func (s *FileStore) Set(key, value string) {
	if cur, ok := s.values[key]; ok && cur == value {
		return
	}
	s.values[key] = value
	s.dirty = true
}

// All returns a copy of every persisted value.
func (s *FileStore) All() map[string]string {
	out := make(map[string]string, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

// Flush writes pending changes. The file is replaced atomically through a
// temporary file in the same directory, so a crash during the following build
// never leaves a truncated settings file.
func (s *FileStore) Flush() error {
	if !s.dirty {
		return nil
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create settings directory %s: %w", dir, err)
	}

	// encoding/json sorts map keys, which keeps diffs of the file stable.
	data, err := json.MarshalIndent(s.values, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(dir, FileName+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write settings: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to sync settings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write settings: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to replace %s: %w", s.path, err)
	}

	s.dirty = false
	return nil
}

// Close flushes pending changes.
func (s *FileStore) Close() error {
	return s.Flush()
}

// MemoryStore is an in-memory Store. It is used for tests and for runs where
// persisting is not wanted.
type MemoryStore struct {
	Values  map[string]string
	Flushes int
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{Values: make(map[string]string)}
}

// Get returns the stored value for key, or def.
func (m *MemoryStore) Get(key, def string) string {
	if v, ok := m.Values[key]; ok {
		return v
	}
	return def
}

// Set stores value under key.
func (m *MemoryStore) Set(key, value string) {
	m.Values[key] = value
}

// Flush counts flushes so tests can assert durability points.
func (m *MemoryStore) Flush() error {
	m.Flushes++
	return nil
}

// Close is equivalent to Flush.
func (m *MemoryStore) Close() error {
	return m.Flush()
}
