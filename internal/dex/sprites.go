package dex

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"dextracker/internal/logging"
	"dextracker/internal/store/filestore"
)

// DefaultSpriteBase is the PokeAPI sprites repository.
const DefaultSpriteBase = "https://raw.githubusercontent.com/PokeAPI/sprites/master/sprites/pokemon"

// SpriteURL is the front sprite of a species, shiny or not.
func SpriteURL(base string, speciesID int, shiny bool) string {
	base = strings.TrimRight(base, "/")
	if base == "" {
		base = DefaultSpriteBase
	}
	if shiny {
		base += "/shiny"
	}
	return base + "/" + strconv.Itoa(speciesID) + ".png"
}

// SpriteFile is where FetchSprites stores a species' sprite in dir.
func SpriteFile(dir string, speciesID int) string {
	return filepath.Join(dir, strconv.Itoa(speciesID)+".png")
}

// FetchSprites downloads a sprite for every species in entries into dir,
// skipping files that already exist. It returns the sprite paths in roster
// order, including skipped ones, and the failures joined.
func FetchSprites(ctx context.Context, c *Client, spriteBase string, entries []Entry, dir string, shiny bool, logger *logging.Logger) ([]string, error) {
	if logger == nil {
		logger = logging.Discard()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating sprite dir: %w", err)
	}

	var (
		paths []string
		errs  []error
		seen  = map[int]bool{}
	)
	for _, e := range entries {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		if e.SpeciesID <= 0 || seen[e.SpeciesID] {
			continue
		}
		seen[e.SpeciesID] = true

		out := SpriteFile(dir, e.SpeciesID)
		if _, err := os.Stat(out); err == nil {
			paths = append(paths, out)
			continue
		}

		data, err := c.Get(ctx, SpriteURL(spriteBase, e.SpeciesID, shiny))
		if err != nil {
			logger.Warn("sprite download failed", "species", e.APIName, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", e.APIName, err))
			continue
		}
		if err := filestore.WriteAtomic(out, data); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", e.APIName, err))
			continue
		}
		logger.Debug("sprite saved", "species", e.APIName, "path", out)
		paths = append(paths, out)
	}
	return paths, errors.Join(errs...)
}
