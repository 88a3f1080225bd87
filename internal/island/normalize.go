package island

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var turkishLower = cases.Lower(language.Turkish)

// NormalizeKey folds a Turkish place name into an ASCII lookup key:
// "İstanbul", "ISTANBUL" and "istanbul" all become "istanbul".
func NormalizeKey(name string) string {
	s := strings.TrimSpace(name)
	if s == "" {
		return ""
	}
	s = turkishLower.String(s)

	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err == nil {
		s = folded
	}

	// Dotless ı has no decomposition.
	s = strings.ReplaceAll(s, "ı", "i")
	return strings.Join(strings.Fields(s), "-")
}
