package dex

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"slices"
	"strconv"

	"dextracker/internal/store/filestore"
)

// Entry is one species in a roster section.
type Entry struct {
	Num       int    `json:"num"`
	Name      string `json:"name"`
	APIName   string `json:"apiName"`
	SpeciesID int    `json:"speciesId"`
}

// Section is one regional dex within a game.
type Section struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Pokemon []Entry `json:"pokemon"`
}

// Roster is the file the web client loads for one game.
type Roster struct {
	GameID   string    `json:"gameId"`
	Name     string    `json:"name,omitempty"`
	Sections []Section `json:"sections"`
}

// Entries returns every entry across sections, in order.
func (r *Roster) Entries() []Entry {
	var out []Entry
	for _, s := range r.Sections {
		out = append(out, s.Pokemon...)
	}
	return out
}

// NamedResource is PokeAPI's {name, url} reference.
type NamedResource struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Pokedex is the part of a PokeAPI /pokedex/{name} response rosters use.
type Pokedex struct {
	Name           string `json:"name"`
	PokemonEntries []struct {
		EntryNumber    int           `json:"entry_number"`
		PokemonSpecies NamedResource `json:"pokemon_species"`
	} `json:"pokemon_entries"`
}

// PokedexList is a PokeAPI /pokedex/ page.
type PokedexList struct {
	Count   int             `json:"count"`
	Results []NamedResource `json:"results"`
}

var speciesURL = regexp.MustCompile(`/pokemon-species/(\d+)/?$`)

// SpeciesIDFromURL extracts the national dex number from a species URL.
func SpeciesIDFromURL(u string) (int, error) {
	m := speciesURL.FindStringSubmatch(u)
	if m == nil {
		return 0, fmt.Errorf("no species id in %q", u)
	}
	return strconv.Atoi(m[1])
}

// ReadPokedex loads a downloaded pokedex file.
func ReadPokedex(path string) (*Pokedex, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading pokedex: %w", err)
	}
	var p Pokedex
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parsing pokedex %s: %w", path, err)
	}
	return &p, nil
}

// EntriesFromPokedex converts a pokedex to roster entries in entry-number
// order, keeping the first occurrence of each species.
func EntriesFromPokedex(p *Pokedex) ([]Entry, error) {
	seen := make(map[string]bool, len(p.PokemonEntries))
	out := make([]Entry, 0, len(p.PokemonEntries))

	for _, pe := range p.PokemonEntries {
		api := pe.PokemonSpecies.Name
		if api == "" || seen[api] {
			continue
		}
		id, err := SpeciesIDFromURL(pe.PokemonSpecies.URL)
		if err != nil {
			return nil, fmt.Errorf("pokedex %s entry %d: %w", p.Name, pe.EntryNumber, err)
		}
		seen[api] = true
		out = append(out, Entry{
			Num:       pe.EntryNumber,
			Name:      DisplayName(api),
			APIName:   api,
			SpeciesID: id,
		})
	}

	slices.SortStableFunc(out, func(a, b Entry) int { return a.Num - b.Num })
	return out, nil
}

// Overall is the national union of rosters: one entry per species, the first
// seen wins, ordered by national number.
func Overall(rosters ...*Roster) *Roster {
	seen := map[string]bool{}
	var union []Entry
	for _, r := range rosters {
		if r == nil {
			continue
		}
		for _, e := range r.Entries() {
			if seen[e.APIName] {
				continue
			}
			seen[e.APIName] = true
			union = append(union, e)
		}
	}
	slices.SortStableFunc(union, func(a, b Entry) int { return a.SpeciesID - b.SpeciesID })
	if union == nil {
		union = []Entry{}
	}

	return &Roster{
		GameID:   OverallGameID,
		Name:     "Overall Dex",
		Sections: []Section{{ID: "national", Name: "National Dex", Pokemon: union}},
	}
}

// ReadRoster loads a roster file.
func ReadRoster(path string) (*Roster, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading roster: %w", err)
	}
	var r Roster
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parsing roster %s: %w", path, err)
	}
	return &r, nil
}

// WriteRoster writes r as indented JSON, atomically.
func WriteRoster(path string, r *Roster) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding roster: %w", err)
	}
	if err := filestore.WriteAtomic(path, append(data, '\n')); err != nil {
		return fmt.Errorf("writing roster %s: %w", path, err)
	}
	return nil
}
