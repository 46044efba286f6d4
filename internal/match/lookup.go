// Package match resolves in-text citations to reference-list lines and
// reference-list lines to bibliography keys.
package match

import (
	"fmt"
	"strings"

	"github.com/matsen/apa2tex/internal/reference"
)

// Tier is one author-matching strategy. Tiers are tried in order.
type Tier int

const (
	TierNone Tier = iota
	// TierExact matches the normalized first author (or its surname) exactly.
	TierExact
	// TierLastToken matches on the last word of both names, which tolerates
	// given names and initials.
	TierLastToken
	// TierCorporate matches when a word of the reference's first author
	// appears in the cited author string ("Health", "World Health
	// Organization").
	TierCorporate
)

// DefaultTiers is the full fallback order.
var DefaultTiers = []Tier{TierExact, TierLastToken, TierCorporate}

var tierNames = map[Tier]string{
	TierNone:      "none",
	TierExact:     "exact",
	TierLastToken: "last_token",
	TierCorporate: "corporate",
}

func (t Tier) String() string {
	if name, ok := tierNames[t]; ok {
		return name
	}
	return fmt.Sprintf("tier(%d)", int(t))
}

// ParseTier converts a configuration name to a Tier.
func ParseTier(name string) (Tier, error) {
	for t, n := range tierNames {
		if t != TierNone && n == strings.ToLower(strings.TrimSpace(name)) {
			return t, nil
		}
	}
	return TierNone, fmt.Errorf("unknown fallback tier %q (valid: exact, last_token, corporate)", name)
}

// refAuthor is the normalized first author of a reference line.
type refAuthor struct {
	segment string // e.g. "world health organization"
	surname string // e.g. "organization"
}

// authorQuery is a normalized cited author. For author groups ("smith &
// jones") lead is the first named author; otherwise it equals full.
type authorQuery struct {
	full string
	lead string
}

func newAuthorQuery(author string) authorQuery {
	q := authorQuery{full: reference.NormalizeAuthor(author)}
	q.lead = q.full
	if isGroup(q.full) {
		q.lead = reference.NormalizeAuthor(reference.FirstAuthorSegment(author))
	}
	return q
}

func isGroup(query string) bool {
	return strings.Contains(query, "&") || strings.Contains(query, " and ")
}

func (t Tier) matches(ref refAuthor, q authorQuery) bool {
	switch t {
	case TierExact:
		return q.lead != "" && (ref.segment == q.lead || ref.surname == q.lead)
	case TierLastToken:
		refLast, queryLast := lastField(ref.segment), lastField(q.lead)
		return refLast != "" && refLast == queryLast
	case TierCorporate:
		queryWords := strings.Fields(q.full)
		for _, w := range strings.Fields(ref.segment) {
			for _, qw := range queryWords {
				if w == qw && qw != "&" && qw != "and" {
					return true
				}
			}
		}
	}
	return false
}

// Entry is a parsed reference-list line ready for author/year lookup.
type Entry struct {
	Line   reference.Line
	author refAuthor
}

// ReferenceIndex holds the parsed lines of a reference list.
type ReferenceIndex struct {
	entries []Entry
}

// NewReferenceIndex parses every non-blank line of a reference list.
// Lines without a year parenthesis are dropped.
func NewReferenceIndex(text string) *ReferenceIndex {
	idx := &ReferenceIndex{}
	for _, raw := range reference.Lines(text) {
		line := reference.ParseLine(raw)
		if !line.Found() {
			continue
		}
		idx.entries = append(idx.entries, Entry{
			Line: line,
			author: refAuthor{
				segment: reference.NormalizeAuthor(reference.FirstAuthorSegment(line.Authors)),
				surname: reference.NormalizeAuthor(line.FirstAuthorSurname()),
			},
		})
	}
	return idx
}

// Result is a successful reference lookup.
type Result struct {
	Line reference.Line
	Tier Tier
}

// Find returns the reference line for an author and year.
//
// The year must match exactly, including any disambiguation letter. Tiers
// are tried in order over the whole list, so an exact match later in the
// list wins over a corporate match earlier in it. Author groups are matched
// on their first named author by the exact and last_token tiers.
func (idx *ReferenceIndex) Find(author, year string, tiers ...Tier) (Result, bool) {
	query := newAuthorQuery(author)
	year = strings.TrimSpace(year)
	if query.full == "" || year == "" {
		return Result{}, false
	}
	if len(tiers) == 0 {
		tiers = DefaultTiers
	}

	for _, tier := range tiers {
		for _, e := range idx.entries {
			if e.Line.Year != year {
				continue
			}
			if tier.matches(e.author, query) {
				return Result{Line: e.Line, Tier: tier}, true
			}
		}
	}
	return Result{}, false
}

// FindReferenceLine looks up a single author/year in a raw reference list
// and returns the matching line.
func FindReferenceLine(refs, author, year string) (string, bool) {
	res, ok := NewReferenceIndex(refs).Find(author, year)
	if !ok {
		return "", false
	}
	return res.Line.Raw, true
}

func lastField(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return fields[len(fields)-1]
}
