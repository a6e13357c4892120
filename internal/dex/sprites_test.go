package dex

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpriteURL(t *testing.T) {
	assert.Equal(t, DefaultSpriteBase+"/25.png", SpriteURL("", 25, false))
	assert.Equal(t, DefaultSpriteBase+"/shiny/25.png", SpriteURL("", 25, true))
	assert.Equal(t, "http://x/sprites/1.png", SpriteURL("http://x/sprites/", 1, false))
}

func TestFetchSprites(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		switch r.URL.Path {
		case "/shiny/1.png", "/shiny/4.png":
			_, _ = w.Write([]byte("png:" + r.URL.Path))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	dir := filepath.Join(t.TempDir(), "sprites")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(SpriteFile(dir, 7), []byte("cached"), 0o644))

	entries := []Entry{
		{APIName: "bulbasaur", SpeciesID: 1},
		{APIName: "charmander", SpeciesID: 4},
		{APIName: "squirtle", SpeciesID: 7},
		{APIName: "bulbasaur-again", SpeciesID: 1},
		{APIName: "missingno", SpeciesID: 999},
	}

	paths, err := FetchSprites(context.Background(), fastClient(srv.URL), srv.URL, entries, dir, true, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missingno")

	assert.Equal(t, []string{SpriteFile(dir, 1), SpriteFile(dir, 4), SpriteFile(dir, 7)}, paths)
	assert.Equal(t, int32(3), calls.Load(), "cached and duplicate sprites are not fetched")

	data, err := os.ReadFile(SpriteFile(dir, 4))
	require.NoError(t, err)
	assert.Equal(t, "png:/shiny/4.png", string(data))
}
