package filestore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dextracker/internal/store"
)

func TestLoad_MissingFile(t *testing.T) {
	fs := New(filepath.Join(t.TempDir(), "caught.json"))

	doc, err := fs.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, doc.Caught)
}

func TestLoad_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "caught.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := New(path).Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), path)
}

func TestSave_CreatesDirectoryAndRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "nested", "caught.json")
	fs := New(path)
	ctx := context.Background()

	doc := &store.Document{Caught: store.Snapshot{"pikachu": {Normal: true}}}
	require.NoError(t, fs.Save(ctx, doc))

	loaded, err := fs.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, doc.Caught, loaded.Caught)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1, "temp file must not be left behind")
	assert.Equal(t, "caught.json", entries[0].Name())
}

func TestSave_Overwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "caught.json")
	fs := New(path)
	ctx := context.Background()

	require.NoError(t, fs.Save(ctx, &store.Document{Caught: store.Snapshot{"a": {Normal: true}, "b": {}}}))
	require.NoError(t, fs.Save(ctx, &store.Document{Caught: store.Snapshot{"c": {Normal: true, Shiny: true}}}))

	loaded, err := fs.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, store.Snapshot{"c": {Normal: true, Shiny: true}}, loaded.Caught)
}

func TestPersistenceAcrossRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "caught.json")
	ctx := context.Background()

	first := store.Open(ctx, New(path), nil)
	_, err := first.Set(ctx, "pikachu", true, false)
	require.NoError(t, err)
	_, err = first.Set(ctx, "charizard", true, true)
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second := store.Open(ctx, New(path), nil)
	rec, ok := second.Lookup("pikachu")
	require.True(t, ok)
	assert.Equal(t, store.Record{Normal: true, Shiny: false}, rec)
	rec, ok = second.Lookup("charizard")
	require.True(t, ok)
	assert.Equal(t, store.Record{Normal: true, Shiny: true}, rec)
}

func TestOpen_CorruptFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "caught.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"caught":{"pikachu":`), 0o644))

	s := store.Open(context.Background(), New(path), nil)
	assert.Empty(t, s.Get())
}

func TestWriteAtomic_ReplacesContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	require.NoError(t, WriteAtomic(path, []byte("one")))
	require.NoError(t, WriteAtomic(path, []byte("two")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "two", string(data))
}
