package reference

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var stripAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

var quoteReplacer = strings.NewReplacer("’", "'", "‘", "'")

// foldAccents removes combining marks (e.g. "Müller" -> "Muller").
func foldAccents(s string) string {
	result, _, err := transform.String(stripAccents, s)
	if err != nil {
		return s
	}
	return result
}

// NormalizeTitle canonicalizes a title for equality comparison.
// Both reference-list and bibliography titles must go through it.
func NormalizeTitle(title string) string {
	if title == "" {
		return ""
	}
	title = strings.ToLower(title)
	title = quoteReplacer.Replace(title)
	title = foldAccents(title)

	title = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || unicode.IsSpace(r) {
			return r
		}
		return ' '
	}, title)

	return strings.Join(strings.Fields(title), " ")
}

// NormalizeAuthor canonicalizes an author string for matching. Only ASCII
// letters, whitespace and "&" survive.
func NormalizeAuthor(author string) string {
	if author == "" {
		return ""
	}
	author = UnescapeAmpersand(author)
	author = strings.ToLower(foldAccents(author))

	var b strings.Builder
	for _, r := range author {
		switch {
		case r >= 'a' && r <= 'z', r == '&':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}

	return strings.Join(strings.Fields(b.String()), " ")
}

// UnescapeAmpersand replaces LaTeX-escaped ampersands with plain ones.
func UnescapeAmpersand(s string) string {
	return strings.ReplaceAll(s, `\&`, "&")
}
