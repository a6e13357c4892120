// Package filestore persists the caught state as a single JSON document.
package filestore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"dextracker/internal/store"
)

// Store reads and writes one JSON document at a fixed path.
type Store struct {
	path string
}

var _ store.Backend = (*Store)(nil)

// New returns a Store for path. Nothing is touched on disk until Save.
func New(path string) *Store {
	return &Store{path: path}
}

// Path returns the document location.
func (s *Store) Path() string { return s.path }

// Load reads the document. A missing file yields an empty document.
func (s *Store) Load(_ context.Context) (*store.Document, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return store.EmptyDocument(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", s.path, err)
	}
	doc, err := store.DecodeDocument(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.path, err)
	}
	return doc, nil
}

// Save writes the document atomically.
func (s *Store) Save(_ context.Context, doc *store.Document) error {
	data, err := store.EncodeDocument(doc)
	if err != nil {
		return err
	}
	return WriteAtomic(s.path, data)
}

// Close is a no-op.
func (s *Store) Close() error { return nil }

// WriteAtomic writes data to a temp file beside path and renames it into
// place. If the rename is refused it falls back to overwriting path directly.
func WriteAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}

	if renameErr := os.Rename(tmpName, path); renameErr != nil {
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("replacing %s: %w", path, errors.Join(renameErr, err))
		}
	}
	return nil
}
