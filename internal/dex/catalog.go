package dex

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"dextracker/internal/logging"
)

// Game ids with special handling.
const (
	LZAGameID     = "gen10-lza"
	OverallGameID = "overall"
)

// CatalogSection names the PokeAPI pokedex behind a roster section. Dex is
// empty for sections that come from a local roster file.
type CatalogSection struct {
	ID   string
	Name string
	Dex  string
}

// Game is one entry of the game picker.
type Game struct {
	ID       string
	Name     string
	Local    bool
	Sections []CatalogSection
}

// Catalog lists the games the tracker knows, in picker order.
var Catalog = []Game{
	{ID: "gen1", Name: "Red / Blue / Yellow", Sections: []CatalogSection{{"kanto", "Kanto", "kanto"}}},
	{ID: "gen2", Name: "Gold / Silver / Crystal", Sections: []CatalogSection{{"johto", "Johto", "original-johto"}}},
	{ID: "gen3", Name: "Ruby / Sapphire / Emerald", Sections: []CatalogSection{{"hoenn", "Hoenn", "hoenn"}}},
	{ID: "gen4", Name: "Diamond / Pearl / Platinum", Sections: []CatalogSection{{"sinnoh", "Sinnoh", "extended-sinnoh"}}},
	{ID: "gen5", Name: "Black / White / B2W2", Sections: []CatalogSection{{"unova", "Unova", "updated-unova"}}},
	{ID: "gen6", Name: "X / Y", Sections: []CatalogSection{
		{"kalos-c", "Kalos Central", "kalos-central"},
		{"kalos-co", "Kalos Coastal", "kalos-coastal"},
		{"kalos-m", "Kalos Mountain", "kalos-mountain"},
	}},
	{ID: "gen7", Name: "Sun / Moon / Ultra", Sections: []CatalogSection{{"alola", "Alola", "updated-alola"}}},
	{ID: "gen8-swsh", Name: "Sword / Shield", Sections: []CatalogSection{
		{"galar", "Galar", "galar"},
		{"ioa", "Isle of Armor", "isle-of-armor"},
		{"ct", "Crown Tundra", "crown-tundra"},
	}},
	{ID: "gen8-pla", Name: "Legends: Arceus", Sections: []CatalogSection{{"hisui", "Hisui", "hisui"}}},
	{ID: "gen9", Name: "Scarlet / Violet", Sections: []CatalogSection{
		{"paldea", "Paldea", "paldea"},
		{"tm", "Kitakami", "kitakami"},
		{"id", "Blueberry", "blueberry"},
	}},
	{ID: LZAGameID, Name: "Legends: Z-A", Local: true, Sections: []CatalogSection{
		{ID: "kalos-base", Name: "Kalos"},
		{ID: "mega-dimension", Name: "Mega Dimension"},
	}},
}

// LookupGame finds a catalog game by id.
func LookupGame(id string) (Game, bool) {
	for _, g := range Catalog {
		if g.ID == id {
			return g, true
		}
	}
	return Game{}, false
}

// PokedexLoader returns the downloaded pokedex for a PokeAPI dex name.
type PokedexLoader func(dex string) (*Pokedex, error)

// DirLoader reads {dir}/{dex}.json, the layout Downloader writes.
func DirLoader(dir string) PokedexLoader {
	return func(dex string) (*Pokedex, error) {
		return ReadPokedex(filepath.Join(dir, dex+".json"))
	}
}

// BuildGame builds the roster for a PokeAPI-backed game.
func BuildGame(g Game, load PokedexLoader) (*Roster, error) {
	if g.Local {
		return nil, fmt.Errorf("game %s has no pokedex source", g.ID)
	}
	r := &Roster{GameID: g.ID, Name: g.Name}
	for _, cs := range g.Sections {
		p, err := load(cs.Dex)
		if err != nil {
			return nil, fmt.Errorf("game %s section %s: %w", g.ID, cs.ID, err)
		}
		entries, err := EntriesFromPokedex(p)
		if err != nil {
			return nil, fmt.Errorf("game %s section %s: %w", g.ID, cs.ID, err)
		}
		r.Sections = append(r.Sections, Section{ID: cs.ID, Name: cs.Name, Pokemon: entries})
	}
	return r, nil
}

// BuildCatalog writes {outDir}/{gameId}.json for every PokeAPI-backed game
// and {outDir}/overall.json for the union. Local games are read from outDir
// when present so they count toward the overall dex.
func BuildCatalog(load PokedexLoader, outDir string, logger *logging.Logger) ([]string, error) {
	if logger == nil {
		logger = logging.Discard()
	}

	var (
		rosters []*Roster
		written []string
	)
	for _, g := range Catalog {
		if g.Local {
			path := filepath.Join(outDir, rosterFileName(g.ID))
			r, err := ReadRoster(path)
			switch {
			case errors.Is(err, fs.ErrNotExist):
				logger.Warn("local roster missing, left out of overall dex", "game", g.ID, "path", path)
				continue
			case err != nil:
				return written, err
			}
			rosters = append(rosters, r)
			continue
		}

		r, err := BuildGame(g, load)
		if err != nil {
			return written, err
		}
		path := filepath.Join(outDir, g.ID+".json")
		if err := WriteRoster(path, r); err != nil {
			return written, err
		}
		logger.Info("roster written", "game", g.ID, "path", path, "species", len(r.Entries()))
		rosters = append(rosters, r)
		written = append(written, path)
	}

	overall := Overall(rosters...)
	path := filepath.Join(outDir, OverallGameID+".json")
	if err := WriteRoster(path, overall); err != nil {
		return written, err
	}
	logger.Info("roster written", "game", OverallGameID, "path", path, "species", len(overall.Entries()))
	return append(written, path), nil
}

// rosterFileName is where a game's roster lives. The Z-A roster keeps the
// short name the web client looks for.
func rosterFileName(gameID string) string {
	if gameID == LZAGameID {
		return "lza.json"
	}
	return gameID + ".json"
}
