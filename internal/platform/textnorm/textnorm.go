// Package textnorm builds comparison keys for names and codes typed by people.
package textnorm

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	reSpaces    = regexp.MustCompile(`\s+`)
	reCodeNoise = regexp.MustCompile(`[^a-z0-9]+`)
)

// Clean trims and collapses inner whitespace, keeping case and accents.
func Clean(s string) string {
	return reSpaces.ReplaceAllString(strings.TrimSpace(s), " ")
}

// Key is the case- and accent-insensitive form of a name: "  José  da Silva"
// and "jose da silva" share a key.
func Key(s string) string {
	s = Clean(s)
	if s == "" {
		return ""
	}
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, s)
	if err != nil {
		stripped = s
	}
	return cases.Fold().String(stripped)
}

// Code normalizes an employee code: Key without separators, so "MAT-001",
// "mat 001" and "Mat001" match.
func Code(s string) string {
	return reCodeNoise.ReplaceAllString(Key(s), "")
}

// Equal compares two names by Key.
func Equal(a, b string) bool {
	return Key(a) == Key(b)
}
