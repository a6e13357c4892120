package backup

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dextracker/internal/config"
	"dextracker/internal/store"
)

type staticSource struct{ doc *store.Document }

func (s staticSource) Document() *store.Document { return s.doc }

func newTestScheduler(t *testing.T, keep int) (*Scheduler, string) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "backups")
	src := staticSource{doc: &store.Document{Caught: store.Snapshot{"pikachu": {Normal: true}}}}
	s, err := New(config.BackupConfig{Enabled: true, Interval: time.Hour, Dir: dir, Keep: keep}, src, nil, nil)
	require.NoError(t, err)
	return s, dir
}

func TestNew_RejectsZeroInterval(t *testing.T) {
	_, err := New(config.BackupConfig{Dir: t.TempDir()}, staticSource{}, nil, nil)
	require.Error(t, err)
}

func TestRunOnce_WritesSnapshot(t *testing.T) {
	s, dir := newTestScheduler(t, 5)
	s.now = func() time.Time { return time.Date(2026, 10, 19, 8, 30, 0, 0, time.UTC) }

	path, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "caught-20261019T083000.000Z.json"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	doc, err := store.DecodeDocument(data)
	require.NoError(t, err)
	assert.Equal(t, store.Snapshot{"pikachu": {Normal: true}}, doc.Caught)
}

func TestRunOnce_PrunesOldest(t *testing.T) {
	s, dir := newTestScheduler(t, 2)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 4; i++ {
		at := base.Add(time.Duration(i) * time.Minute)
		s.now = func() time.Time { return at }
		_, err := s.RunOnce(context.Background())
		require.NoError(t, err)
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.Equal(t, []string{
		"caught-20260101T000200.000Z.json",
		"caught-20260101T000300.000Z.json",
	}, names)
}

func TestRunOnce_CancelledContext(t *testing.T) {
	s, _ := newTestScheduler(t, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.RunOnce(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPrune_IgnoresForeignFiles(t *testing.T) {
	dir := t.TempDir()
	for _, n := range []string{"caught-1.json", "caught-2.json", "notes.txt", "caught-3.json"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n), []byte("{}"), 0o644))
	}

	require.NoError(t, Prune(dir, 1))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{"caught-3.json", "notes.txt"}, names)
}

func TestStartStop(t *testing.T) {
	s, _ := newTestScheduler(t, 1)
	require.NoError(t, s.Start(context.Background()))
	require.NoError(t, s.Stop())
}
