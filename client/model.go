package main

import (
	"dextracker/internal/dex"
	"dextracker/internal/store"
)

// model is the client's view state: one roster section, a cursor into it,
// and the caught snapshot last fetched from the server.
type model struct {
	entries []dex.Entry
	caught  store.Snapshot
	cursor  int
	shiny   bool
}

func newModel(entries []dex.Entry, caught store.Snapshot) *model {
	if caught == nil {
		caught = store.Snapshot{}
	}
	return &model{entries: entries, caught: caught}
}

// move shifts the cursor by delta, clamped to the list.
func (m *model) move(delta int) {
	m.cursor = max(0, min(len(m.entries)-1, m.cursor+delta))
}

// current returns the entry under the cursor.
func (m *model) current() (dex.Entry, bool) {
	if len(m.entries) == 0 {
		return dex.Entry{}, false
	}
	return m.entries[m.cursor], true
}

// toggleNormal flips the normal catch of the current entry. Clearing it also
// clears shiny. It returns the species and its new record.
func (m *model) toggleNormal() (string, store.Record, bool) {
	e, ok := m.current()
	if !ok {
		return "", store.Record{}, false
	}
	rec := m.caught[e.APIName]
	rec.Normal = !rec.Normal
	if !rec.Normal {
		rec.Shiny = false
	}
	m.caught[e.APIName] = rec
	return e.APIName, rec, true
}

// toggleShiny flips the shiny catch of the current entry. Setting it also
// sets normal.
func (m *model) toggleShiny() (string, store.Record, bool) {
	e, ok := m.current()
	if !ok {
		return "", store.Record{}, false
	}
	rec := m.caught[e.APIName]
	rec.Shiny = !rec.Shiny
	if rec.Shiny {
		rec.Normal = true
	}
	m.caught[e.APIName] = rec
	return e.APIName, rec, true
}

// restore puts back a record after a failed save.
func (m *model) restore(apiName string, rec store.Record) {
	m.caught[apiName] = rec
}

// progress counts completed entries for the active view.
func (m *model) progress() (done, total int) {
	for _, e := range m.entries {
		rec := m.caught[e.APIName]
		if (m.shiny && rec.Shiny) || (!m.shiny && rec.Normal) {
			done++
		}
	}
	return done, len(m.entries)
}

// window returns the slice bounds of at most height entries around the cursor.
func (m *model) window(height int) (start, end int) {
	if height <= 0 || height >= len(m.entries) {
		return 0, len(m.entries)
	}
	start = max(0, m.cursor-height/2)
	end = start + height
	if end > len(m.entries) {
		end = len(m.entries)
		start = end - height
	}
	return start, end
}
