// Command pokedex builds the roster files the web client loads: it downloads
// PokeAPI pokedexes, turns them into per-game rosters, and assembles the
// Legends: Z-A roster from a published listing.
package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/alecthomas/kong"

	"dextracker/internal/config"
	"dextracker/internal/dex"
	"dextracker/internal/logging"
)

var version = "dev"

var CLI struct {
	Verbose bool   `short:"v" help:"Enable debug logging"`
	API     string `help:"PokeAPI base URL" default:"https://pokeapi.co/api/v2"`

	Download struct {
		Out     string        `short:"o" help:"Directory for pokedex JSON files" default:"dex_json" type:"path"`
		Delay   time.Duration `help:"Pause between requests" default:"150ms"`
		Retries int           `help:"Retries per failed request" default:"3"`
	} `cmd:"" help:"Download every PokeAPI pokedex"`

	Roster struct {
		File   string `arg:"" optional:"" help:"Downloaded pokedex JSON file (single mode)" type:"existingfile"`
		GameID string `help:"Game id for single mode"`
		Name   string `help:"Display name for single mode"`
		All    bool   `help:"Build every catalog game and the overall dex"`
		DexDir string `help:"Directory of downloaded pokedexes (with --all)" default:"dex_json" type:"path"`
		Out    string `short:"o" help:"Output directory" default:"static/data" type:"path"`
	} `cmd:"" help:"Build roster JSON from downloaded pokedexes"`

	LZA struct {
		Input    string        `arg:"" help:"Listing source: a text file, an HTML file, or an http(s) URL"`
		Render   bool          `help:"Render the page in headless Chrome before parsing"`
		Settle   time.Duration `help:"How long to let a rendered page run scripts" default:"5s"`
		DLCStart string        `name:"dlc-start" help:"First species of the Mega Dimension listing" default:"Mankey"`
		Out      string        `short:"o" help:"Output file" default:"static/data/lza.json" type:"path"`
	} `cmd:"" name:"lza" help:"Build the Legends: Z-A roster"`
}

func main() {
	kctx := kong.Parse(&CLI,
		kong.Name("pokedex"),
		kong.Description("Build tracker rosters from PokeAPI"),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	level := "info"
	if CLI.Verbose {
		level = "debug"
	}
	log := logging.New(config.LoggingConfig{Level: level, Format: "text", Output: "stderr"}, version)

	var err error
	switch kctx.Command() {
	case "download":
		err = runDownload(ctx, log)
	case "roster", "roster <file>":
		err = runRoster(log)
	case "lza <input>":
		err = runLZA(ctx, log)
	default:
		err = fmt.Errorf("unknown command %q", kctx.Command())
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runDownload(ctx context.Context, log *logging.Logger) error {
	d := &dex.Downloader{
		BaseURL:    CLI.API,
		OutDir:     CLI.Download.Out,
		Delay:      CLI.Download.Delay,
		MaxRetries: CLI.Download.Retries,
		Logger:     log,
	}
	saved, err := d.Run(ctx)
	log.Info("download finished", "saved", len(saved), "dir", CLI.Download.Out)
	return err
}

func runRoster(log *logging.Logger) error {
	opts := CLI.Roster
	if opts.All {
		_, err := dex.BuildCatalog(dex.DirLoader(opts.DexDir), opts.Out, log)
		return err
	}

	if opts.File == "" || opts.GameID == "" {
		return fmt.Errorf("roster needs a pokedex file and --game-id, or --all")
	}
	p, err := dex.ReadPokedex(opts.File)
	if err != nil {
		return err
	}
	entries, err := dex.EntriesFromPokedex(p)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return fmt.Errorf("no pokemon_species entries in %s", opts.File)
	}

	name := opts.Name
	if name == "" {
		name = opts.GameID
	}
	r := &dex.Roster{
		GameID:   opts.GameID,
		Name:     name,
		Sections: []dex.Section{{ID: p.Name, Name: dex.DisplayName(p.Name), Pokemon: entries}},
	}
	out := filepath.Join(opts.Out, opts.GameID+".json")
	if err := dex.WriteRoster(out, r); err != nil {
		return err
	}
	log.Info("roster written", "game", opts.GameID, "path", out, "species", len(entries))
	return nil
}

func runLZA(ctx context.Context, log *logging.Logger) error {
	opts := CLI.LZA

	listings, err := readListings(ctx, opts.Input, opts.Render, opts.Settle)
	if err != nil {
		return err
	}
	log.Info("listing parsed", "entries", len(listings))

	client := dex.NewClient(CLI.API)
	r, err := dex.BuildLZA(ctx, client, listings, opts.DLCStart, log)
	if err != nil {
		return err
	}
	if err := dex.WriteRoster(opts.Out, r); err != nil {
		return err
	}
	log.Info("roster written",
		"path", opts.Out,
		"base", len(r.Sections[0].Pokemon),
		"dlc", len(r.Sections[1].Pokemon),
	)
	return nil
}

// readListings loads the listing from a URL or file. HTML is recognised by
// its content; anything else is treated as pasted text.
func readListings(ctx context.Context, input string, render bool, settle time.Duration) ([]dex.Listing, error) {
	isURL := strings.HasPrefix(input, "http://") || strings.HasPrefix(input, "https://")

	var data []byte
	switch {
	case render:
		target := input
		if !isURL {
			abs, err := filepath.Abs(input)
			if err != nil {
				return nil, err
			}
			target = "file://" + abs
		}
		html, err := dex.RenderHTML(ctx, target, settle)
		if err != nil {
			return nil, err
		}
		data = []byte(html)
	case isURL:
		body, err := dex.NewClient(CLI.API).Get(ctx, input)
		if err != nil {
			return nil, err
		}
		data = body
	default:
		body, err := os.ReadFile(input)
		if err != nil {
			return nil, fmt.Errorf("reading listing: %w", err)
		}
		data = body
	}

	if looksLikeHTML(data) {
		return dex.ParseHTML(bytes.NewReader(data))
	}
	return dex.ParseRawText(bytes.NewReader(data))
}

func looksLikeHTML(data []byte) bool {
	head := strings.ToLower(string(bytes.TrimSpace(data[:min(len(data), 512)])))
	return strings.HasPrefix(head, "<!doctype html") || strings.HasPrefix(head, "<html") || strings.Contains(head, "<table")
}
