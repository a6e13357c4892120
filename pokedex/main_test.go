package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLooksLikeHTML(t *testing.T) {
	assert.True(t, looksLikeHTML([]byte("  <!DOCTYPE html><html></html>")))
	assert.True(t, looksLikeHTML([]byte("<html><body>")))
	assert.True(t, looksLikeHTML([]byte("<table><tr><td>#001</td></tr></table>")))
	assert.False(t, looksLikeHTML([]byte("Chikorita\n#001\n")))
	assert.False(t, looksLikeHTML(nil))
}

func TestReadListings_File(t *testing.T) {
	dir := t.TempDir()

	text := filepath.Join(dir, "lza_raw.txt")
	require.NoError(t, os.WriteFile(text, []byte("Chikorita\n#001\nGrass\nMankey\n#001\n"), 0o644))
	got, err := readListings(context.Background(), text, false, 0)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	page := filepath.Join(dir, "lza.html")
	require.NoError(t, os.WriteFile(page, []byte("<html><table><tr><td>#001</td><td>Chikorita</td></tr></table></html>"), 0o644))
	got, err = readListings(context.Background(), page, false, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Chikorita", got[0].Name)

	_, err = readListings(context.Background(), filepath.Join(dir, "missing.txt"), false, 0)
	require.Error(t, err)
}
