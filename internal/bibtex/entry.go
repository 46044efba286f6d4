// Package bibtex parses and writes BibTeX bibliographies.
package bibtex

import (
	"sort"
	"strings"
)

// Entry is a single BibTeX entry such as @article{key, ...}.
type Entry struct {
	Type   string            `json:"type"` // Lower-cased entry type: article, book, ...
	ID     string            `json:"id"`   // Citation key
	Fields map[string]string `json:"fields"`

	order []string // Field names in source order
}

// NewEntry creates an entry with no fields.
func NewEntry(entryType, id string) Entry {
	return Entry{
		Type:   strings.ToLower(entryType),
		ID:     id,
		Fields: make(map[string]string),
	}
}

// Set adds or replaces a field. Field names are case-insensitive.
func (e *Entry) Set(name, value string) {
	name = strings.ToLower(name)
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	if _, exists := e.Fields[name]; !exists {
		e.order = append(e.order, name)
	}
	e.Fields[name] = value
}

// Field returns a field value and whether it was present.
func (e Entry) Field(name string) (string, bool) {
	v, ok := e.Fields[strings.ToLower(name)]
	return v, ok
}

// FieldNames returns field names in source order.
func (e Entry) FieldNames() []string {
	if len(e.order) == len(e.Fields) {
		return append([]string(nil), e.order...)
	}
	// Entries built by hand without Set fall back to map contents.
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Database is an ordered collection of entries.
type Database struct {
	Entries []Entry
	Strings map[string]string // @string macros, keyed by lower-cased name
}

// NewDatabase creates an empty database.
func NewDatabase() *Database {
	return &Database{Strings: make(map[string]string)}
}

// Get returns the first entry with the given key.
func (db *Database) Get(id string) (Entry, bool) {
	for _, e := range db.Entries {
		if e.ID == id {
			return e, true
		}
	}
	return Entry{}, false
}

// Subset returns the entries for the given keys, in key order.
// Unknown keys are reported in missing.
func (db *Database) Subset(ids []string) (entries []Entry, missing []string) {
	seen := make(map[string]bool)
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if e, ok := db.Get(id); ok {
			entries = append(entries, e)
		} else {
			missing = append(missing, id)
		}
	}
	return entries, missing
}
