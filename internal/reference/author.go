package reference

import (
	"regexp"
	"strings"
)

// Author is one name from an APA author list.
type Author struct {
	First string `json:"first,omitempty"` // Initials, e.g. "J. A."
	Last  string `json:"last"`            // Surname or corporate name
}

const etAl = "et al."

var (
	authorSeparatorPattern = regexp.MustCompile(`, | & | and `)
	initialsPattern        = regexp.MustCompile(`^(?:[A-Z]\.(?:-?[A-Z]\.)*\s*)+$`)
)

// FirstAuthorSegment returns the first author of an author string: the text
// before "et al." if present, otherwise the first segment when splitting on
// ",", "&" and " and ".
func FirstAuthorSegment(authors string) string {
	authors = UnescapeAmpersand(authors)
	if i := strings.Index(authors, etAl); i >= 0 {
		authors = authors[:i]
	}
	seg := strings.Split(authors, ",")[0]
	seg = strings.Split(seg, "&")[0]
	seg = strings.Split(seg, " and ")[0]
	return strings.TrimSpace(seg)
}

// FirstAuthorSurname returns the surname of the line's first author, or ""
// for sentinel lines.
func (l Line) FirstAuthorSurname() string {
	if !l.Found() {
		return ""
	}
	return lastToken(FirstAuthorSegment(l.Authors))
}

// CitedAuthor reduces the author part of an in-text citation to the string
// used for lookup. Author groups joined by "&" or "and" are kept whole;
// "Smith et al." and "Jane Smith" reduce to "Smith".
func CitedAuthor(authorPart string) string {
	authorPart = strings.TrimSpace(UnescapeAmpersand(authorPart))
	if authorPart == "" {
		return ""
	}

	if strings.Contains(authorPart, "&") || strings.Contains(authorPart, " and ") {
		return authorPart
	}

	if i := strings.Index(authorPart, etAl); i >= 0 {
		first := strings.TrimSpace(strings.Split(authorPart[:i], ",")[0])
		return lastToken(first)
	}

	first := authorSeparatorPattern.Split(authorPart, -1)[0]
	first = strings.TrimSpace(strings.Split(first, ",")[0])
	return lastToken(first)
}

// ParseAuthors splits an APA author list ("Smith, J. A., Doe, B., & Lee, C.")
// into names. Corporate authors come back as a single Last.
func ParseAuthors(authors string) []Author {
	authors = UnescapeAmpersand(authors)
	authors = strings.ReplaceAll(authors, "&", ",")
	authors = strings.ReplaceAll(authors, " and ", ",")
	authors = strings.TrimSuffix(strings.TrimSpace(authors), ",")

	var result []Author
	for _, seg := range strings.Split(authors, ",") {
		seg = strings.TrimSpace(seg)
		if seg == "" {
			continue
		}
		if seg == etAl || seg == "et al" {
			continue
		}
		if initialsPattern.MatchString(seg) && len(result) > 0 && result[len(result)-1].First == "" {
			result[len(result)-1].First = seg
			continue
		}
		result = append(result, Author{Last: strings.TrimSuffix(seg, ".")})
	}
	return result
}

func lastToken(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return fields[len(fields)-1]
}
