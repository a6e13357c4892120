package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingReloader struct{ calls atomic.Int32 }

func (c *countingReloader) Reload(context.Context) (bool, error) {
	c.calls.Add(1)
	return true, nil
}

func startWatcher(t *testing.T, path string, r Reloader) {
	t.Helper()
	w, err := New(path, r, nil, nil)
	require.NoError(t, err)
	w.debounce = 20 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = w.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "caught.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"caught":{}}`), 0o644))

	r := &countingReloader{}
	startWatcher(t, path, r)

	require.NoError(t, os.WriteFile(path, []byte(`{"caught":{"mew":{"normal":true,"shiny":false}}}`), 0o644))

	assert.Eventually(t, func() bool { return r.calls.Load() >= 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "caught.json")

	r := &countingReloader{}
	startWatcher(t, path, r)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hi"), 0o644))

	time.Sleep(150 * time.Millisecond)
	assert.Zero(t, r.calls.Load())
}

func TestWatcher_DebouncesBursts(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "caught.json")

	r := &countingReloader{}
	startWatcher(t, path, r)

	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(path, []byte(`{"caught":{}}`), 0o644))
	}

	assert.Eventually(t, func() bool { return r.calls.Load() >= 1 }, 2*time.Second, 10*time.Millisecond)
	time.Sleep(100 * time.Millisecond)
	assert.LessOrEqual(t, r.calls.Load(), int32(2))
}

func TestNew_MissingDirectory(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "missing", "caught.json"), &countingReloader{}, nil, nil)
	require.Error(t, err)
}
