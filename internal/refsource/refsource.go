// Package refsource reads APA reference lists from text, PDF and HTML files.
package refsource

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/matsen/apa2tex/internal/pdf"
	"github.com/matsen/apa2tex/internal/reference"
)

// sectionTitles are the headings that introduce a reference list.
const sectionTitles = `(?:\d+\.?\s*)?(?:references|bibliography|works cited|literature cited)`

var (
	// headingLine matches a line consisting only of a section title.
	headingLine = regexp.MustCompile(`(?im)^[ \t]*` + sectionTitles + `[ \t]*$`)
	// headingText matches a heading element's whole text.
	headingText = regexp.MustCompile(`(?i)^\s*` + sectionTitles + `\s*$`)
)

// Format is a reference list file format.
type Format string

const (
	FormatText Format = "text"
	FormatPDF  Format = "pdf"
	FormatHTML Format = "html"
)

// DetectFormat picks a format from the file extension; anything
// unrecognized is plain text.
func DetectFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return FormatPDF
	case ".html", ".htm", ".xhtml":
		return FormatHTML
	}
	return FormatText
}

// Read reads a reference list. Plain text is returned as-is. PDF text is
// cut to its references section and reflowed so each reference is on one
// line; HTML yields one line per list item or paragraph.
func Read(path string) (string, error) {
	switch DetectFormat(path) {
	case FormatPDF:
		text, err := pdf.ExtractText(path, 0)
		if err != nil {
			return "", err
		}
		return reference.Reflow(ReferencesSection(text)), nil

	case FormatHTML:
		f, err := os.Open(path)
		if err != nil {
			return "", fmt.Errorf("opening reference list: %w", err)
		}
		defer f.Close()
		return ExtractHTML(f)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading reference list: %w", err)
	}
	return string(data), nil
}

// ReferencesSection returns the text after the last "References" (or
// "Bibliography") heading, or the whole text if there is none.
func ReferencesSection(text string) string {
	locs := headingLine.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return text
	}
	return text[locs[len(locs)-1][1]:]
}
