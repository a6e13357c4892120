package dex

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"dextracker/internal/logging"
)

// DefaultDLCStart is the first species of the Mega Dimension listing.
const DefaultDLCStart = "Mankey"

// Listing is one row of a regional dex as published: its regional number and
// display name.
type Listing struct {
	Num  int
	Name string
}

var numLine = regexp.MustCompile(`^#?(\d+)$`)

// ParseRawText reads a pasted dex where each species is a name line followed
// by a "#NNN" line. Anything else (type lines, headings) is skipped.
func ParseRawText(r io.Reader) ([]Listing, error) {
	var lines []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if t := strings.TrimSpace(sc.Text()); t != "" {
			lines = append(lines, t)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading listing: %w", err)
	}

	var out []Listing
	for i := 0; i+1 < len(lines); i++ {
		next := lines[i+1]
		if !strings.HasPrefix(next, "#") {
			continue
		}
		m := numLine.FindStringSubmatch(next)
		if m == nil || strings.HasPrefix(lines[i], "#") {
			continue
		}
		n, _ := strconv.Atoi(m[1])
		out = append(out, Listing{Num: n, Name: lines[i]})
	}
	return out, nil
}

// ParseHTML reads dex tables from an HTML page. A row contributes when one
// cell holds a number ("#001" or "1") and another holds a name; a link's
// text is preferred as the name.
func ParseHTML(r io.Reader) ([]Listing, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parsing html: %w", err)
	}

	var out []Listing
	doc.Find("table tr").Each(func(_ int, row *goquery.Selection) {
		num := -1
		name := ""
		row.Find("td").Each(func(_ int, cell *goquery.Selection) {
			text := strings.TrimSpace(cell.Text())
			if m := numLine.FindStringSubmatch(text); m != nil {
				if num < 0 {
					num, _ = strconv.Atoi(m[1])
				}
				return
			}
			if name == "" && text != "" {
				if link := strings.TrimSpace(cell.Find("a").First().Text()); link != "" {
					name = link
				} else {
					name = text
				}
			}
		})
		if num >= 0 && name != "" {
			out = append(out, Listing{Num: num, Name: name})
		}
	})
	return out, nil
}

// SplitAt splits listings at the first entry named start (case-insensitive).
// Without a match everything is base.
func SplitAt(listings []Listing, start string) (base, dlc []Listing) {
	for i, l := range listings {
		if strings.EqualFold(l.Name, start) {
			return listings[:i], listings[i:]
		}
	}
	return listings, nil
}

// SpeciesResolver maps a species slug to its national dex number.
type SpeciesResolver interface {
	SpeciesID(ctx context.Context, slug string) (int, error)
}

// BuildLZA builds the Legends: Z-A roster, looking up each species' national
// number through resolver.
func BuildLZA(ctx context.Context, resolver SpeciesResolver, listings []Listing, dlcStart string, logger *logging.Logger) (*Roster, error) {
	if logger == nil {
		logger = logging.Discard()
	}
	if dlcStart == "" {
		dlcStart = DefaultDLCStart
	}
	base, dlc := SplitAt(listings, dlcStart)

	game, _ := LookupGame(LZAGameID)
	r := &Roster{GameID: game.ID, Name: game.Name}
	for i, part := range [][]Listing{base, dlc} {
		cs := game.Sections[i]
		entries, err := resolveListings(ctx, resolver, part)
		if err != nil {
			return nil, fmt.Errorf("section %s: %w", cs.ID, err)
		}
		if len(entries) == 0 {
			logger.Warn("section parsed to zero entries, check the listing format", "section", cs.ID)
		}
		r.Sections = append(r.Sections, Section{ID: cs.ID, Name: cs.Name, Pokemon: entries})
	}
	return r, nil
}

func resolveListings(ctx context.Context, resolver SpeciesResolver, listings []Listing) ([]Entry, error) {
	out := make([]Entry, 0, len(listings))
	for _, l := range listings {
		slug := Slug(l.Name)
		id, err := resolver.SpeciesID(ctx, slug)
		if err != nil {
			return nil, fmt.Errorf("%s (#%03d): %w", l.Name, l.Num, err)
		}
		out = append(out, Entry{Num: l.Num, Name: l.Name, APIName: slug, SpeciesID: id})
	}
	slices.SortStableFunc(out, func(a, b Entry) int { return a.Num - b.Num })
	return out, nil
}
