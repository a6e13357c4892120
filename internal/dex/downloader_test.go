package dex

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePokeAPI serves a pokedex list and the dexes in it. Paths in failOnce
// answer 503 the first time.
type fakePokeAPI struct {
	mu       sync.Mutex
	dexes    map[string]string
	failOnce map[string]bool
	agents   []string
}

func (f *fakePokeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.agents = append(f.agents, r.Header.Get("User-Agent"))

	if f.failOnce[r.URL.Path] {
		delete(f.failOnce, r.URL.Path)
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	if r.URL.Path == "/pokedex/" {
		if r.URL.Query().Get("limit") != "2000" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte(`{"count":3,"results":[
			{"name":"kanto","url":"x"},
			{"name":"hoenn","url":"x"},
			{"name":"missing","url":"x"}
		]}`))
		return
	}

	name := filepath.Base(filepath.Clean(r.URL.Path))
	body, ok := f.dexes[name]
	if !ok {
		http.NotFound(w, r)
		return
	}
	_, _ = w.Write([]byte(body))
}

func TestDownloader_Run(t *testing.T) {
	api := &fakePokeAPI{
		dexes: map[string]string{
			"kanto": pokedexJSON("kanto", "bulbasaur:1"),
			"hoenn": pokedexJSON("hoenn", "treecko:252"),
		},
		failOnce: map[string]bool{"/pokedex/hoenn/": true},
	}
	srv := httptest.NewServer(api)
	defer srv.Close()

	out := t.TempDir()
	d := &Downloader{BaseURL: srv.URL, OutDir: out, MaxRetries: 2}

	saved, err := d.Run(context.Background())

	// "missing" is listed but 404s, which is not retried.
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing")
	assert.ElementsMatch(t, []string{
		filepath.Join(out, "kanto.json"),
		filepath.Join(out, "hoenn.json"),
	}, saved)

	p, err := ReadPokedex(filepath.Join(out, "hoenn.json"))
	require.NoError(t, err)
	assert.Equal(t, "hoenn", p.Name)

	_, err = os.Stat(filepath.Join(out, "missing.json"))
	assert.True(t, os.IsNotExist(err))

	for _, ua := range api.agents {
		assert.Equal(t, DefaultUserAgent, ua)
	}
}

func TestDownloader_RetryBudget(t *testing.T) {
	api := &fakePokeAPI{
		dexes:    map[string]string{"kanto": pokedexJSON("kanto", "bulbasaur:1")},
		failOnce: map[string]bool{"/pokedex/kanto/": true},
	}
	srv := httptest.NewServer(api)
	defer srv.Close()

	d := &Downloader{BaseURL: srv.URL, OutDir: t.TempDir(), MaxRetries: 0}
	saved, err := d.Run(context.Background())
	require.Error(t, err)
	assert.Empty(t, saved)
}

func TestRetryableStatus(t *testing.T) {
	assert.True(t, retryableStatus(0))
	assert.True(t, retryableStatus(http.StatusTooManyRequests))
	assert.True(t, retryableStatus(http.StatusBadGateway))
	assert.False(t, retryableStatus(http.StatusNotFound))
	assert.False(t, retryableStatus(http.StatusBadRequest))
}
