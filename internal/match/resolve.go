package match

import (
	"github.com/matsen/apa2tex/internal/bibtex"
	"github.com/matsen/apa2tex/internal/reference"
)

type titledKey struct {
	id    string
	title string // normalized
}

// TitleIndex maps normalized bibliography titles to keys, keeping
// bibliography order so the first entry with a given title wins.
type TitleIndex struct {
	keys []titledKey
}

// NewTitleIndex normalizes the title of every entry that has one.
func NewTitleIndex(db *bibtex.Database) *TitleIndex {
	idx := &TitleIndex{}
	if db == nil {
		return idx
	}
	for _, e := range db.Entries {
		title, ok := e.Field("title")
		if !ok {
			continue
		}
		idx.keys = append(idx.keys, titledKey{
			id:    e.ID,
			title: reference.NormalizeTitle(bibtex.StripBraces(title)),
		})
	}
	return idx
}

// Lookup returns the key of the first entry whose normalized title equals
// the given normalized title.
func (idx *TitleIndex) Lookup(title string) (string, bool) {
	if title == "" || title == reference.TitleNotFound {
		return "", false
	}
	for _, k := range idx.keys {
		if k.title == title {
			return k.id, true
		}
	}
	return "", false
}

// Resolve returns the bibliography key for a parsed reference line.
func (idx *TitleIndex) Resolve(line reference.Line) (string, bool) {
	if !line.Found() {
		return "", false
	}
	return idx.Lookup(line.Title)
}

// ResolveKey finds the bibliography key for a raw reference-list line by
// exact comparison of normalized titles.
func ResolveKey(line string, db *bibtex.Database) (string, bool) {
	return NewTitleIndex(db).Resolve(reference.ParseLine(line))
}
