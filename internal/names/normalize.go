// Package names normalizes person names so that lookups tolerate case and
// diacritic differences between what was enrolled and what a client asks for
// (e.g. "jan-novak" finds "Jan Novák").
package names

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// RemoveDiacritics removes diacritical marks from a string (e.g., "Jiří" -> "Jiri").
func RemoveDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, _ := transform.String(t, s)
	return result
}

// Normalize prepares a name for comparison (lowercase, no diacritics,
// dashes and underscores become spaces, surrounding whitespace trimmed).
func Normalize(name string) string {
	name = RemoveDiacritics(name)
	name = strings.ToLower(name)
	name = strings.ReplaceAll(name, "-", " ")
	name = strings.ReplaceAll(name, "_", " ")
	return strings.TrimSpace(name)
}

// Equal reports whether two names refer to the same person after normalization.
func Equal(a, b string) bool {
	return Normalize(a) == Normalize(b)
}
