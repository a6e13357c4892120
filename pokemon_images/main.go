// Command pokemon_images downloads the sprites for a roster and can merge
// them into a single sheet.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"dextracker/internal/config"
	"dextracker/internal/dex"
	"dextracker/internal/logging"
)

var version = "dev"

var CLI struct {
	Roster     string `arg:"" help:"Roster JSON file" type:"existingfile"`
	Dir        string `short:"d" help:"Sprite directory" default:"static/sprites" type:"path"`
	Shiny      bool   `help:"Download shiny sprites"`
	SpriteBase string `help:"Sprite repository base URL" default:"https://raw.githubusercontent.com/PokeAPI/sprites/master/sprites/pokemon"`
	Sheet      string `help:"Also write a PNG sheet of all sprites to this path" type:"path"`
	Cols       int    `help:"Sprites per sheet row" default:"16"`
	Verbose    bool   `short:"v" help:"Enable debug logging"`
}

func main() {
	kong.Parse(&CLI,
		kong.Name("pokemon_images"),
		kong.Description("Download roster sprites"),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	level := "info"
	if CLI.Verbose {
		level = "debug"
	}
	log := logging.New(config.LoggingConfig{Level: level, Format: "text", Output: "stderr"}, version)

	r, err := dex.ReadRoster(CLI.Roster)
	if err != nil {
		return err
	}

	client := dex.NewClient("")
	paths, fetchErr := dex.FetchSprites(ctx, client, CLI.SpriteBase, r.Entries(), CLI.Dir, CLI.Shiny, log)
	log.Info("sprites ready", "count", len(paths), "dir", CLI.Dir)
	if fetchErr != nil {
		// Missing sprites are reported but do not stop the sheet.
		log.Warn("some sprites could not be downloaded", "error", fetchErr)
	}

	if CLI.Sheet == "" {
		return fetchErr
	}
	if err := buildSheet(paths, CLI.Cols, CLI.Sheet); err != nil {
		return err
	}
	log.Info("sprite sheet written", "path", CLI.Sheet, "sprites", len(paths))
	return fetchErr
}
