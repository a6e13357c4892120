package dex

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// slugOverrides maps display names PokeAPI spells differently.
var slugOverrides = map[string]string{
	"Flabébé":    "flabebe",
	"Farfetch'd": "farfetchd",
	"Sirfetch'd": "sirfetchd",
	"Mime Jr.":   "mime-jr",
	"Mr. Mime":   "mr-mime",
	"Mr. Rime":   "mr-rime",
	"Type: Null": "type-null",
	"Nidoran♀":   "nidoran-f",
	"Nidoran♂":   "nidoran-m",
}

// displayOverrides maps slugs whose title-cased form reads wrong.
var displayOverrides = map[string]string{
	"type-null": "Type: Null",
	"mime-jr":   "Mime Jr",
	"mr-mime":   "Mr Mime",
	"mr-rime":   "Mr Rime",
	"farfetchd": "Farfetchd",
	"sirfetchd": "Sirfetchd",
}

var (
	slugDrop       = strings.NewReplacer("'", "", "’", "", ".", "", ":", "")
	slugWhitespace = regexp.MustCompile(`\s+`)
	slugInvalid    = regexp.MustCompile(`[^a-z0-9-]`)
)

// Slug converts a display name to its PokeAPI species slug.
func Slug(display string) string {
	if s, ok := slugOverrides[strings.TrimSpace(display)]; ok {
		return s
	}

	folded, _, err := transform.String(accentFolder(), display)
	if err != nil {
		folded = display
	}
	s := strings.ToLower(strings.TrimSpace(slugDrop.Replace(folded)))
	s = slugWhitespace.ReplaceAllString(s, "-")
	return slugInvalid.ReplaceAllString(s, "")
}

// accentFolder strips combining marks, so "é" becomes "e". Transformers carry
// state, hence one per call.
func accentFolder() transform.Transformer {
	return transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
}

// DisplayName turns a slug into a readable name: "mr-mime" becomes "Mr Mime"
// and "jangmo-o" keeps its hyphen as "Jangmo-o".
func DisplayName(slug string) string {
	if d, ok := displayOverrides[slug]; ok {
		return d
	}

	parts := strings.Split(slug, "-")
	caser := cases.Title(language.English)
	for i, p := range parts {
		parts[i] = caser.String(p)
	}

	if strings.HasSuffix(slug, "-o") && len(parts) >= 2 {
		head := strings.Join(parts[:len(parts)-1], " ")
		return head + "-o"
	}
	return strings.Join(parts, " ")
}
