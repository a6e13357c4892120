package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
)

// Views a game can be tracked in.
const (
	ViewNormal = "normal"
	ViewShiny  = "shiny"
)

// Record is the caught status of one species.
type Record struct {
	Normal bool `json:"normal"`
	Shiny  bool `json:"shiny"`
}

// Normalize enforces that a shiny catch is also a normal catch.
func (r Record) Normalize() Record {
	if r.Shiny {
		r.Normal = true
	}
	return r
}

// Snapshot maps species slugs to their caught status.
type Snapshot map[string]Record

// Prefs holds the client's last active game and per-game view.
type Prefs struct {
	ActiveGameID     string            `json:"activeGameId,omitempty"`
	ActiveViewByGame map[string]string `json:"activeViewByGame,omitempty"`
}

func (p Prefs) clone() Prefs {
	p.ActiveViewByGame = maps.Clone(p.ActiveViewByGame)
	return p
}

func (p Prefs) isZero() bool {
	return p.ActiveGameID == "" && len(p.ActiveViewByGame) == 0
}

func (p Prefs) equal(o Prefs) bool {
	return p.ActiveGameID == o.ActiveGameID && maps.Equal(p.ActiveViewByGame, o.ActiveViewByGame)
}

// PrefsPatch is a partial update of Prefs. A view is only recorded when both
// GameID and ActiveView are present.
type PrefsPatch struct {
	ActiveGameID *string `json:"activeGameId,omitempty"`
	GameID       *string `json:"gameId,omitempty"`
	ActiveView   *string `json:"activeView,omitempty"`
}

// Document is the persisted form of the store.
type Document struct {
	Caught Snapshot `json:"caught"`
	Prefs  *Prefs   `json:"prefs,omitempty"`
}

// EmptyDocument returns a document with no records.
func EmptyDocument() *Document {
	return &Document{Caught: Snapshot{}}
}

// EncodeDocument serializes a document. Map keys come out sorted, so equal
// documents encode to identical bytes.
func EncodeDocument(doc *Document) ([]byte, error) {
	if doc == nil {
		doc = EmptyDocument()
	}
	out := *doc
	if out.Caught == nil {
		out.Caught = Snapshot{}
	}
	if out.Prefs != nil && out.Prefs.isZero() {
		out.Prefs = nil
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding state: %w", err)
	}
	return append(data, '\n'), nil
}

// DecodeDocument parses a persisted document loosely: records that do not
// decode are dropped and an unreadable prefs block is ignored. Only a
// document that is not a JSON object at all is an error.
func DecodeDocument(data []byte) (*Document, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return EmptyDocument(), nil
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, fmt.Errorf("decoding state: %w", err)
	}

	doc := EmptyDocument()

	if raw, ok := top["caught"]; ok && !isNull(raw) {
		var entries map[string]json.RawMessage
		if err := json.Unmarshal(raw, &entries); err != nil {
			return nil, fmt.Errorf("decoding caught map: %w", err)
		}
		for key, rawRecord := range entries {
			var rec Record
			if err := json.Unmarshal(rawRecord, &rec); err != nil {
				continue
			}
			if key == "" {
				continue
			}
			doc.Caught[key] = rec.Normalize()
		}
	}

	if raw, ok := top["prefs"]; ok && !isNull(raw) {
		var prefs Prefs
		if err := json.Unmarshal(raw, &prefs); err == nil && !prefs.isZero() {
			doc.Prefs = &prefs
		}
	}

	return doc, nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// Stats summarises a snapshot.
type Stats struct {
	Records int
	Normal  int
	Shiny   int
}

// Errors returned by the store.
var (
	ErrEmptyKey    = errors.New("empty species key")
	ErrInvalidView = errors.New("view must be normal or shiny")
)
