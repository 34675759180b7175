// internal/catalog/slug.go
//
// URL-slug derivation for catalog records.
package catalog

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Slugify converts a display name into a URL slug: lowercase ASCII with
// hyphens for everything else.  Accents decompose to their base letter
// ("Tôte" becomes "tote"); characters with no ASCII base collapse into a
// single hyphen.  An input with nothing usable falls back to "item" so a
// product always gets a working URL.
func Slugify(input string) string {
	decomposed := norm.NFKD.String(strings.ToLower(strings.TrimSpace(input)))

	var b strings.Builder
	b.Grow(len(decomposed))
	lastDash := false
	for _, r := range decomposed {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		case unicode.Is(unicode.Mn, r):
			// Combining mark left over from decomposition.  Drop it
			// without breaking the word.
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}

	slug := strings.Trim(b.String(), "-")
	if slug == "" {
		return "item"
	}
	if len(slug) > 100 {
		slug = strings.Trim(slug[:100], "-")
	}
	return slug
}
