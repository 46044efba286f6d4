// Package reference parses APA reference-list lines into author, year and title.
package reference

import (
	"regexp"
	"strings"
)

// Sentinel values returned for lines without a year parenthesis.
const (
	AuthorNotFound = "Author Not Found"
	YearNotFound   = "Year Not Found"
	TitleNotFound  = "Title Not Found"
)

// yearParenPattern matches "(2020)" or "(2020a)", optionally followed by a period.
var yearParenPattern = regexp.MustCompile(`\((\d{4}[a-z]?)\)\.?`)

// Line is the parse result of one APA reference-list line.
type Line struct {
	Raw     string `json:"raw"`
	Authors string `json:"authors"` // Text before the year parenthesis
	Year    string `json:"year"`    // 4-digit year with optional disambiguation letter
	Title   string `json:"title"`   // Normalized title
}

// Found reports whether the line contained a year parenthesis.
func (l Line) Found() bool {
	return l.Year != YearNotFound
}

func notFound(raw string) Line {
	return Line{
		Raw:     raw,
		Authors: AuthorNotFound,
		Year:    YearNotFound,
		Title:   TitleNotFound,
	}
}

// ParseLine splits a reference-list line into authors, year and normalized title.
// Lines without a "(YYYY)" pattern yield the sentinel values.
func ParseLine(raw string) Line {
	if strings.TrimSpace(raw) == "" {
		return notFound(raw)
	}

	line := UnescapeAmpersand(raw)
	loc := yearParenPattern.FindStringSubmatchIndex(line)
	if loc == nil {
		return notFound(raw)
	}

	title := line[loc[1]:]
	if i := strings.Index(title, "."); i >= 0 {
		title = title[:i]
	}

	return Line{
		Raw:     raw,
		Authors: strings.TrimSpace(line[:loc[0]]),
		Year:    line[loc[2]:loc[3]],
		Title:   NormalizeTitle(strings.TrimSpace(title)),
	}
}

// HasYearParen reports whether s contains a "(YYYY)" pattern.
func HasYearParen(s string) bool {
	return yearParenPattern.MatchString(s)
}

// Lines splits a reference list into trimmed, non-blank lines.
func Lines(text string) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(strings.TrimSuffix(line, "\r"))
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

// Reflow joins wrapped reference lines: a line without a year parenthesis
// is appended to the reference before it. Lines before the first reference
// are kept as-is.
func Reflow(text string) string {
	var out []string
	for _, line := range Lines(text) {
		if len(out) > 0 && !HasYearParen(line) && HasYearParen(out[len(out)-1]) {
			prev := out[len(out)-1]
			if strings.HasSuffix(prev, "-") && !strings.HasSuffix(prev, "--") {
				out[len(out)-1] = strings.TrimSuffix(prev, "-") + line
			} else {
				out[len(out)-1] = prev + " " + line
			}
			continue
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}
