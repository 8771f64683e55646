package domain

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)
	slugPattern  = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)
)

// Slugify turns a human readable name into a URL-safe slug:
// "Les Misérables de Victor HUGO" -> "les-miserables-de-victor-hugo".
func Slugify(input string) string {
	// NFD splits accented letters into base + combining mark, the marks are dropped.
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, input)
	if err != nil {
		folded = input
	}

	slug := nonSlugChars.ReplaceAllString(strings.ToLower(folded), "-")
	return strings.Trim(slug, "-")
}

// SlugifyMax is Slugify truncated to at most maxLen bytes, without a trailing hyphen.
func SlugifyMax(input string, maxLen int) string {
	slug := Slugify(input)
	if len(slug) > maxLen {
		slug = strings.TrimRight(slug[:maxLen], "-")
	}
	return slug
}

// IsValidSlug reports whether s only contains letters, digits, hyphens and underscores.
func IsValidSlug(s string) bool {
	return slugPattern.MatchString(s)
}
