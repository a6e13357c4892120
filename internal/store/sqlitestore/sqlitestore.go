// Package sqlitestore persists the caught state in a SQLite database. Each
// save replaces the stored snapshot inside one transaction.
package sqlitestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"dextracker/internal/store"
)

const schema = `CREATE TABLE IF NOT EXISTS state (
	bucket  TEXT PRIMARY KEY,
	payload BLOB NOT NULL
)`

const (
	bucketCaught = "caught"
	bucketPrefs  = "prefs"
)

// Store is a store.Backend on SQLite.
type Store struct {
	db   *sql.DB
	path string
}

var _ store.Backend = (*Store)(nil)

// New opens (creating if needed) the database at path.
func New(path string) (*Store, error) {
	if path == "" {
		path = "caught.db"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// The store serializes writes itself; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create state table: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

// Load reads the stored snapshot. An empty table yields an empty document.
func (s *Store) Load(ctx context.Context) (*store.Document, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT bucket, payload FROM state`)
	if err != nil {
		return nil, fmt.Errorf("select state: %w", err)
	}
	defer func() { _ = rows.Close() }()

	top := map[string]json.RawMessage{}
	for rows.Next() {
		var bucket string
		var payload []byte
		if err := rows.Scan(&bucket, &payload); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		top[bucket] = payload
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate state: %w", err)
	}
	if len(top) == 0 {
		return store.EmptyDocument(), nil
	}

	data, err := json.Marshal(top)
	if err != nil {
		return nil, fmt.Errorf("assemble state: %w", err)
	}
	return store.DecodeDocument(data)
}

// Save replaces the stored snapshot.
func (s *Store) Save(ctx context.Context, doc *store.Document) error {
	if doc == nil {
		doc = store.EmptyDocument()
	}
	caught := doc.Caught
	if caught == nil {
		caught = store.Snapshot{}
	}
	caughtJSON, err := json.Marshal(caught)
	if err != nil {
		return fmt.Errorf("marshal caught: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO state(bucket, payload) VALUES(?, ?)
		 ON CONFLICT(bucket) DO UPDATE SET payload = excluded.payload`,
		bucketCaught, caughtJSON); err != nil {
		return fmt.Errorf("upsert caught: %w", err)
	}

	if doc.Prefs != nil {
		prefsJSON, err := json.Marshal(doc.Prefs)
		if err != nil {
			return fmt.Errorf("marshal prefs: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO state(bucket, payload) VALUES(?, ?)
			 ON CONFLICT(bucket) DO UPDATE SET payload = excluded.payload`,
			bucketPrefs, prefsJSON); err != nil {
			return fmt.Errorf("upsert prefs: %w", err)
		}
	} else if _, err := tx.ExecContext(ctx, `DELETE FROM state WHERE bucket = ?`, bucketPrefs); err != nil {
		return fmt.Errorf("clear prefs: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Path returns the database file location.
func (s *Store) Path() string { return s.path }

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
