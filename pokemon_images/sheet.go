package main

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	gim "github.com/ozankasikci/go-image-merge"

	"dextracker/internal/store/filestore"
)

// buildSheet merges the sprites at paths into a grid cols wide and writes it
// as PNG to out. The last row is padded with transparent cells.
func buildSheet(paths []string, cols int, out string) error {
	if len(paths) == 0 {
		return errors.New("no sprites to merge")
	}
	if cols <= 0 {
		return fmt.Errorf("invalid column count %d", cols)
	}
	cols = min(cols, len(paths))
	rows := (len(paths) + cols - 1) / cols

	grids := make([]*gim.Grid, 0, rows*cols)
	for _, p := range paths {
		grids = append(grids, &gim.Grid{ImageFilePath: p})
	}

	if pad := rows*cols - len(paths); pad > 0 {
		blank, err := blankSprite(paths[0], filepath.Dir(out))
		if err != nil {
			return err
		}
		defer func() { _ = os.Remove(blank) }()
		for range pad {
			grids = append(grids, &gim.Grid{ImageFilePath: blank})
		}
	}

	sheet, err := gim.New(grids, cols, rows).Merge()
	if err != nil {
		return fmt.Errorf("merging sprites: %w", err)
	}
	return writePNG(out, sheet)
}

// blankSprite writes a transparent PNG the size of the sprite at like.
func blankSprite(like, dir string) (string, error) {
	f, err := os.Open(like)
	if err != nil {
		return "", err
	}
	cfg, err := png.DecodeConfig(f)
	_ = f.Close()
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", like, err)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	tmp, err := os.CreateTemp(dir, ".blank-*.png")
	if err != nil {
		return "", err
	}
	defer func() { _ = tmp.Close() }()
	if err := png.Encode(tmp, image.NewNRGBA(image.Rect(0, 0, cfg.Width, cfg.Height))); err != nil {
		_ = os.Remove(tmp.Name())
		return "", err
	}
	return tmp.Name(), nil
}

func writePNG(path string, img image.Image) error {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return fmt.Errorf("encoding sheet: %w", err)
	}
	return filestore.WriteAtomic(path, buf.Bytes())
}
