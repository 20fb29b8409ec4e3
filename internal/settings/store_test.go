package settings

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shinji-kodama/mkgo/internal/model"
)

// writeSettings creates the settings file for dir with the given content.
func writeSettings(t *testing.T, dir, content string) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Join(dir, DirName), 0o755))
	require.NoError(t, os.WriteFile(Path(dir), []byte(content), 0o644))
}

// TestOpen_MissingFile verifies that a fresh project starts with an empty
// store and that reads do not create the file.
func TestOpen_MissingFile(t *testing.T) {
	dir := t.TempDir()

	s, err := Open(dir)
	require.NoError(t, err)

	assert.Equal(t, "debug", s.Get(model.KeyMode, "debug"))
	require.NoError(t, s.Close())

	_, statErr := os.Stat(Path(dir))
	assert.True(t, os.IsNotExist(statErr), "Get must not write the default back")
}

// TestSetFlushReopen verifies the persistence round-trip across store
// instances, which is what makes choices survive between invocations.
func TestSetFlushReopen(t *testing.T) {
	dir := t.TempDir()

	s, err := Open(dir)
	require.NoError(t, err)
	s.Set(model.KeyMode, "release")
	s.Set(model.KeyLastTarget, "closet_maker")
	require.NoError(t, s.Flush())

	reopened, err := Open(dir)
	require.NoError(t, err)
	assert.Equal(t, "release", reopened.Get(model.KeyMode, "debug"))
	assert.Equal(t, "closet_maker", reopened.Get(model.KeyLastTarget, ""))

	// The file is plain indented JSON with sorted keys.
	data, err := os.ReadFile(Path(dir))
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"last_target\": \"closet_maker\",\n  \"mode\": \"release\"\n}\n", string(data))
}

// TestFlush_NoChanges verifies that an unchanged store never touches disk.
func TestFlush_NoChanges(t *testing.T) {
	dir := t.TempDir()
	writeSettings(t, dir, `{"mode": "release"}`)

	s, err := Open(dir)
	require.NoError(t, err)

	s.Set(model.KeyMode, "release")
	require.NoError(t, s.Flush())

	data, err := os.ReadFile(Path(dir))
	require.NoError(t, err)
	assert.Equal(t, `{"mode": "release"}`, string(data), "same-value Set must not rewrite the file")
}

// TestOpen_JSONC verifies that hand-edited files with comments and trailing
// commas are accepted.
func TestOpen_JSONC(t *testing.T) {
	dir := t.TempDir()
	writeSettings(t, dir, `{
  // switched while profiling
  "mode": "profile_release",
}`)

	s, err := Open(dir)
	require.NoError(t, err)
	assert.Equal(t, "profile_release", s.Get(model.KeyMode, "debug"))
}

// TestOpen_Corrupt verifies non-fatal degradation: a corrupt file yields a
// usable empty store plus a StoreUnavailable diagnostic, and the file is left
// alone until something changes.
func TestOpen_Corrupt(t *testing.T) {
	dir := t.TempDir()
	writeSettings(t, dir, "{not json")

	s, err := Open(dir)
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrStoreUnavailable)
	require.NotNil(t, s)

	assert.Equal(t, "debug", s.Get(model.KeyMode, "debug"))
	require.NoError(t, s.Close())

	data, readErr := os.ReadFile(Path(dir))
	require.NoError(t, readErr)
	assert.Equal(t, "{not json", string(data))

	// A subsequent write replaces the corrupt file with a valid one.
	s.Set(model.KeyMode, "release")
	require.NoError(t, s.Flush())
	reopened, err := Open(dir)
	require.NoError(t, err)
	assert.Equal(t, "release", reopened.Get(model.KeyMode, "debug"))
}

// TestOpen_NonStringValue verifies that a hand-edited non-string value is
// dropped while the remaining keys stay readable.
func TestOpen_NonStringValue(t *testing.T) {
	dir := t.TempDir()
	writeSettings(t, dir, `{"mode": 3, "last_target": "closet_maker"}`)

	s, err := Open(dir)
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrStoreUnavailable)
	assert.Contains(t, err.Error(), `"mode"`)

	assert.Equal(t, "debug", s.Get(model.KeyMode, "debug"))
	assert.Equal(t, "closet_maker", s.Get(model.KeyLastTarget, ""))
}

// TestOpen_Unreadable verifies that a directory in place of the file is
// reported as StoreUnavailable rather than aborting.
func TestOpen_Unreadable(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(Path(dir), 0o755))

	s, err := Open(dir)
	assert.ErrorIs(t, err, model.ErrStoreUnavailable)
	require.NotNil(t, s)
	assert.Equal(t, "x", s.Get("anything", "x"))
}

// TestAll verifies that All returns a defensive copy.
func TestAll(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	s.Set(model.KeyMode, "release")

	all := s.All()
	all[model.KeyMode] = "debug"
	assert.Equal(t, "release", s.Get(model.KeyMode, ""))
}

// TestMemoryStore covers the in-memory implementation used by other tests.
func TestMemoryStore(t *testing.T) {
	var s Store = NewMemoryStore()

	assert.Equal(t, "def", s.Get("k", "def"))
	s.Set("k", "v")
	assert.Equal(t, "v", s.Get("k", "def"))
	require.NoError(t, s.Flush())
	require.NoError(t, s.Close())
	assert.Equal(t, 2, s.(*MemoryStore).Flushes)
}
