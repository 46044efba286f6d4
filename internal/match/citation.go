package match

import (
	"errors"
	"fmt"

	"github.com/matsen/apa2tex/internal/bibtex"
	"github.com/matsen/apa2tex/internal/reference"
)

var (
	// ErrNoReference means no reference-list line matched the author and year.
	ErrNoReference = errors.New("no reference found")
	// ErrNoEntry means the matched reference has no bibliography entry with
	// the same title.
	ErrNoEntry = errors.New("no BibTeX entry matches the reference")
)

// Resolution is a citation resolved all the way to a bibliography key.
type Resolution struct {
	Author string `json:"author"`
	Year   string `json:"year"`
	Line   string `json:"line"`
	Tier   string `json:"tier"`
	Key    string `json:"key"`

	// Authors of the matched reference line.
	Authors []reference.Author `json:"authors,omitempty"`
}

// Resolver resolves single author/year citations against one reference
// list and bibliography.
type Resolver struct {
	refs   *ReferenceIndex
	titles *TitleIndex
	tiers  []Tier
}

// NewResolver indexes a reference list and a parsed bibliography.
func NewResolver(refs string, db *bibtex.Database, tiers ...Tier) *Resolver {
	return &Resolver{
		refs:   NewReferenceIndex(refs),
		titles: NewTitleIndex(db),
		tiers:  tiers,
	}
}

// Resolve looks up a cited author (as written, "et al." allowed) and year.
// The error wraps ErrNoReference or ErrNoEntry; a partial Resolution is
// returned with ErrNoEntry so callers can report the matched line.
func (r *Resolver) Resolve(author, year string) (Resolution, error) {
	author = reference.CitedAuthor(author)
	res := Resolution{Author: author, Year: year}

	ref, ok := r.refs.Find(author, year, r.tiers...)
	if !ok {
		return res, fmt.Errorf("%w for %s (%s)", ErrNoReference, author, year)
	}
	res.Line = ref.Line.Raw
	res.Tier = ref.Tier.String()
	res.Authors = reference.ParseAuthors(ref.Line.Authors)

	key, ok := r.titles.Resolve(ref.Line)
	if !ok {
		return res, fmt.Errorf("%w for %s (%s): %s", ErrNoEntry, author, year, ref.Line.Raw)
	}
	res.Key = key
	return res, nil
}
