package convert

import "fmt"

// Kind distinguishes the two citation shapes.
type Kind string

const (
	// Narrative citations put the author in the sentence: "Smith (2020)".
	Narrative Kind = "narrative"
	// Parenthetical citations put author and year in parentheses, possibly
	// grouped with ';': "(Smith, 2020; Doe, 1999)".
	Parenthetical Kind = "parenthetical"
)

// FailureKind says why a citation was left unchanged.
type FailureKind string

const (
	FailNotCitation       FailureKind = "not_citation"        // No trailing year; not a citation
	FailSectionReference  FailureKind = "section_reference"   // "Section 3" and similar
	FailNoAuthor          FailureKind = "no_author"           // No author could be extracted
	FailReferenceNotFound FailureKind = "reference_not_found" // No reference line for author and year
	FailKeyNotFound       FailureKind = "key_not_found"       // Reference line has no bibliography entry
	FailPanic             FailureKind = "panic"               // Unexpected failure while processing the span
)

// Citation is one author/year pair found in the document.
type Citation struct {
	Author string `json:"author"` // As written, before reduction to a surname
	Year   string `json:"year"`
}

// Failure records why one citation could not be converted.
type Failure struct {
	Kind   FailureKind `json:"kind"`
	Author string      `json:"author,omitempty"`
	Year   string      `json:"year,omitempty"`
	Detail string      `json:"detail,omitempty"`
}

// Message returns a human-readable diagnostic, or "" for failures that are
// not worth reporting (spans that were never citations).
func (f Failure) Message() string {
	switch f.Kind {
	case FailNoAuthor:
		return fmt.Sprintf("Could not extract an author from %q (%s)", f.Detail, f.Year)
	case FailReferenceNotFound:
		return fmt.Sprintf("No reference found for %s (%s)", f.Author, f.Year)
	case FailKeyNotFound:
		return fmt.Sprintf("No BibTeX entry matches the reference for %s (%s): %s", f.Author, f.Year, f.Detail)
	case FailPanic:
		return fmt.Sprintf("Skipped citation %q: %s", f.Author, f.Detail)
	}
	return ""
}

// Outcome is the result of processing one citation span.
type Outcome struct {
	Kind        Kind       `json:"kind"`
	Original    string     `json:"original"`
	Replacement string     `json:"replacement"`
	Citations   []Citation `json:"citations,omitempty"`
	Keys        []string   `json:"keys,omitempty"`
	Failures    []Failure  `json:"failures,omitempty"`
}

// Resolved returns the number of citations converted in this span.
func (o Outcome) Resolved() int {
	return len(o.Keys)
}

// Changed reports whether the span was rewritten.
func (o Outcome) Changed() bool {
	return o.Replacement != o.Original
}

func unchanged(kind Kind, original string, failures ...Failure) Outcome {
	return Outcome{
		Kind:        kind,
		Original:    original,
		Replacement: original,
		Failures:    failures,
	}
}
