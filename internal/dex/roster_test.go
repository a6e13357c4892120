package dex

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pokedexJSON renders a PokeAPI-shaped pokedex. Each species is "slug:id".
func pokedexJSON(name string, species ...string) string {
	var entries []string
	for i, s := range species {
		slug, id, _ := strings.Cut(s, ":")
		entries = append(entries, fmt.Sprintf(
			`{"entry_number":%d,"pokemon_species":{"name":%q,"url":"https://pokeapi.co/api/v2/pokemon-species/%s/"}}`,
			i+1, slug, id))
	}
	return fmt.Sprintf(`{"id":1,"name":%q,"is_main_series":true,"pokemon_entries":[%s]}`, name, strings.Join(entries, ","))
}

func mustPokedex(t *testing.T, raw string) *Pokedex {
	t.Helper()
	var p Pokedex
	require.NoError(t, json.Unmarshal([]byte(raw), &p))
	return &p
}

func TestSpeciesIDFromURL(t *testing.T) {
	id, err := SpeciesIDFromURL("https://pokeapi.co/api/v2/pokemon-species/25/")
	require.NoError(t, err)
	assert.Equal(t, 25, id)

	id, err = SpeciesIDFromURL("/pokemon-species/1010")
	require.NoError(t, err)
	assert.Equal(t, 1010, id)

	_, err = SpeciesIDFromURL("https://pokeapi.co/api/v2/pokemon/25/")
	require.Error(t, err)
}

func TestEntriesFromPokedex(t *testing.T) {
	p := mustPokedex(t, pokedexJSON("kanto", "bulbasaur:1", "ivysaur:2", "mr-mime:122", "bulbasaur:1"))

	entries, err := EntriesFromPokedex(p)
	require.NoError(t, err)

	assert.Equal(t, []Entry{
		{Num: 1, Name: "Bulbasaur", APIName: "bulbasaur", SpeciesID: 1},
		{Num: 2, Name: "Ivysaur", APIName: "ivysaur", SpeciesID: 2},
		{Num: 3, Name: "Mr Mime", APIName: "mr-mime", SpeciesID: 122},
	}, entries)
}

func TestEntriesFromPokedex_BadURL(t *testing.T) {
	p := mustPokedex(t, `{"name":"x","pokemon_entries":[{"entry_number":1,"pokemon_species":{"name":"a","url":"nope"}}]}`)
	_, err := EntriesFromPokedex(p)
	require.Error(t, err)
}

func TestOverall(t *testing.T) {
	a := &Roster{GameID: "a", Sections: []Section{{ID: "s", Pokemon: []Entry{
		{Num: 1, Name: "Pikachu", APIName: "pikachu", SpeciesID: 25},
		{Num: 2, Name: "Bulbasaur", APIName: "bulbasaur", SpeciesID: 1},
	}}}}
	b := &Roster{GameID: "b", Sections: []Section{{ID: "t", Pokemon: []Entry{
		{Num: 9, Name: "Pikachu (dup)", APIName: "pikachu", SpeciesID: 25},
		{Num: 3, Name: "Mew", APIName: "mew", SpeciesID: 151},
	}}}}

	o := Overall(a, nil, b)
	require.Len(t, o.Sections, 1)
	assert.Equal(t, OverallGameID, o.GameID)
	assert.Equal(t, "national", o.Sections[0].ID)

	got := o.Entries()
	require.Len(t, got, 3)
	assert.Equal(t, "bulbasaur", got[0].APIName)
	assert.Equal(t, "Pikachu", got[1].Name, "first occurrence wins")
	assert.Equal(t, "mew", got[2].APIName)
}

func TestOverall_Empty(t *testing.T) {
	o := Overall()
	data, err := json.Marshal(o)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"pokemon":[]`)
}

func TestRosterRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "gen1.json")
	r := &Roster{GameID: "gen1", Name: "Red / Blue / Yellow", Sections: []Section{
		{ID: "kanto", Name: "Kanto", Pokemon: []Entry{{Num: 25, Name: "Pikachu", APIName: "pikachu", SpeciesID: 25}}},
	}}

	require.NoError(t, WriteRoster(path, r))
	loaded, err := ReadRoster(path)
	require.NoError(t, err)
	assert.Equal(t, r, loaded)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"apiName": "pikachu"`)
}

func TestBuildGame(t *testing.T) {
	dexes := map[string]string{
		"galar":         pokedexJSON("galar", "grookey:810", "skwovet:819"),
		"isle-of-armor": pokedexJSON("isle-of-armor", "slowpoke:79"),
		"crown-tundra":  pokedexJSON("crown-tundra", "jirachi:385"),
	}
	load := func(dex string) (*Pokedex, error) {
		raw, ok := dexes[dex]
		if !ok {
			return nil, os.ErrNotExist
		}
		return mustPokedex(t, raw), nil
	}

	g, ok := LookupGame("gen8-swsh")
	require.True(t, ok)

	r, err := BuildGame(g, load)
	require.NoError(t, err)
	assert.Equal(t, "gen8-swsh", r.GameID)
	require.Len(t, r.Sections, 3)
	assert.Equal(t, "ioa", r.Sections[1].ID)
	assert.Equal(t, "Slowpoke", r.Sections[1].Pokemon[0].Name)

	delete(dexes, "crown-tundra")
	_, err = BuildGame(g, load)
	require.Error(t, err)

	lza, _ := LookupGame(LZAGameID)
	_, err = BuildGame(lza, load)
	require.Error(t, err)
}

func TestBuildCatalog(t *testing.T) {
	dexDir := t.TempDir()
	outDir := t.TempDir()

	// Every catalog dex gets a one-species file; species ids follow catalog order.
	id := 0
	for _, g := range Catalog {
		for _, cs := range g.Sections {
			if cs.Dex == "" {
				continue
			}
			id++
			raw := pokedexJSON(cs.Dex, fmt.Sprintf("species-%d:%d", id, id), "pikachu:25")
			require.NoError(t, os.WriteFile(filepath.Join(dexDir, cs.Dex+".json"), []byte(raw), 0o644))
		}
	}
	require.NoError(t, WriteRoster(filepath.Join(outDir, "lza.json"), &Roster{
		GameID: LZAGameID,
		Sections: []Section{
			{ID: "kalos-base", Pokemon: []Entry{{Num: 1, Name: "Chikorita", APIName: "chikorita", SpeciesID: 152}}},
			{ID: "mega-dimension", Pokemon: []Entry{}},
		},
	}))

	written, err := BuildCatalog(DirLoader(dexDir), outDir, nil)
	require.NoError(t, err)
	assert.Len(t, written, len(Catalog)) // every PokeAPI game plus overall
	assert.FileExists(t, filepath.Join(outDir, "gen1.json"))
	assert.FileExists(t, filepath.Join(outDir, "gen9.json"))

	overall, err := ReadRoster(filepath.Join(outDir, "overall.json"))
	require.NoError(t, err)

	entries := overall.Entries()
	assert.Len(t, entries, id+2, "one per dex, pikachu once, chikorita from lza")
	for i := 1; i < len(entries); i++ {
		assert.LessOrEqual(t, entries[i-1].SpeciesID, entries[i].SpeciesID)
	}
}

func TestBuildCatalog_MissingDex(t *testing.T) {
	_, err := BuildCatalog(DirLoader(t.TempDir()), t.TempDir(), nil)
	require.Error(t, err)
}
