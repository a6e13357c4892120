// Package store owns the caught state: an in-memory map of species slug to
// Record, guarded by a single mutex and written through to a Backend on every
// mutation.
package store

import (
	"context"
	"fmt"
	"maps"
	"sync"

	"dextracker/internal/logging"
)

// Backend persists whole documents.
//
// Load returns an empty document when nothing has been saved yet.
type Backend interface {
	Load(ctx context.Context) (*Document, error)
	Save(ctx context.Context, doc *Document) error
	Close() error
}

// Store is the in-memory caught state. All methods are safe for concurrent
// use; mutations and the write-through that follows them are serialized.
type Store struct {
	mu      sync.Mutex
	caught  Snapshot
	prefs   Prefs
	backend Backend
	logger  *logging.Logger
}

// Open creates a Store and loads the backend's document into memory. A load
// failure is logged and the store starts empty.
func Open(ctx context.Context, backend Backend, logger *logging.Logger) *Store {
	if logger == nil {
		logger = logging.Discard()
	}
	s := &Store{
		caught:  Snapshot{},
		backend: backend,
		logger:  logger,
	}

	doc, err := backend.Load(ctx)
	if err != nil {
		s.logger.Warn("could not load saved state, starting empty", "error", err)
		return s
	}
	s.replace(doc)
	s.logger.Info("loaded saved state", "records", len(s.caught))
	return s
}

func (s *Store) replace(doc *Document) {
	s.caught = Snapshot{}
	for k, r := range doc.Caught {
		s.caught[k] = r.Normalize()
	}
	s.prefs = Prefs{}
	if doc.Prefs != nil {
		s.prefs = doc.Prefs.clone()
	}
}

// document builds the persisted form. Callers hold s.mu.
func (s *Store) document() *Document {
	doc := &Document{Caught: maps.Clone(s.caught)}
	if !s.prefs.isZero() {
		p := s.prefs.clone()
		doc.Prefs = &p
	}
	return doc
}

// persist writes the current state. Callers hold s.mu.
func (s *Store) persist(ctx context.Context) error {
	if err := s.backend.Save(ctx, s.document()); err != nil {
		return fmt.Errorf("persisting state: %w", err)
	}
	return nil
}

// Get returns a copy of every record.
func (s *Store) Get() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return maps.Clone(s.caught)
}

// Lookup returns the record for key.
func (s *Store) Lookup(key string) (Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.caught[key]
	return r, ok
}

// Set upserts one record and persists synchronously. The in-memory update
// stands even when persisting fails; the error is returned so the caller can
// report it, and the next successful write carries the change to disk.
func (s *Store) Set(ctx context.Context, key string, normal, shiny bool) (Record, error) {
	if key == "" {
		return Record{}, ErrEmptyKey
	}
	rec := Record{Normal: normal, Shiny: shiny}.Normalize()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.caught[key] = rec
	return rec, s.persist(ctx)
}

// Prefs returns a copy of the stored preferences.
func (s *Store) Prefs() Prefs {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prefs.clone()
}

// UpdatePrefs applies patch and persists.
func (s *Store) UpdatePrefs(ctx context.Context, patch PrefsPatch) (Prefs, error) {
	if patch.ActiveView != nil && *patch.ActiveView != ViewNormal && *patch.ActiveView != ViewShiny {
		return Prefs{}, ErrInvalidView
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if patch.ActiveGameID != nil {
		s.prefs.ActiveGameID = *patch.ActiveGameID
	}
	if patch.GameID != nil && patch.ActiveView != nil && *patch.GameID != "" {
		if s.prefs.ActiveViewByGame == nil {
			s.prefs.ActiveViewByGame = map[string]string{}
		}
		s.prefs.ActiveViewByGame[*patch.GameID] = *patch.ActiveView
	}
	return s.prefs.clone(), s.persist(ctx)
}

// Reload re-reads the backend and replaces the in-memory state when the
// stored document differs. It reports whether anything changed. The lock is
// held across the read so a concurrent Set cannot land between them.
func (s *Store) Reload(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.backend.Load(ctx)
	if err != nil {
		return false, fmt.Errorf("reloading state: %w", err)
	}

	incomingPrefs := Prefs{}
	if doc.Prefs != nil {
		incomingPrefs = *doc.Prefs
	}
	if maps.Equal(s.caught, doc.Caught) && s.prefs.equal(incomingPrefs) {
		return false, nil
	}
	s.replace(doc)
	s.logger.Info("reloaded state from backend", "records", len(s.caught))
	return true, nil
}

// Flush persists the current state.
func (s *Store) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persist(ctx)
}

// Document returns a copy of the persisted form of the current state.
func (s *Store) Document() *Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.document()
}

// Stats counts records and catches.
func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Stats{Records: len(s.caught)}
	for _, r := range s.caught {
		if r.Normal {
			st.Normal++
		}
		if r.Shiny {
			st.Shiny++
		}
	}
	return st
}

// Close releases the backend.
func (s *Store) Close() error {
	return s.backend.Close()
}
