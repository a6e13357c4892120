// Package dex turns PokeAPI data into the roster files the tracker's web
// client renders.
//
// It covers the whole offline pipeline: crawling pokedex JSON (Downloader),
// building per-game rosters from it (BuildGame, Overall), assembling the
// Legends: Z-A roster from a pasted or scraped listing (ParseRawText,
// ParseHTML, BuildLZA), and fetching sprites (FetchSprites). Name handling
// lives in Slug and DisplayName.
package dex
