package bibtex

import (
	"fmt"
	"strings"
)

// Format writes an entry in BibTeX syntax with fields in source order.
// Values are written inside braces as-is; they are already LaTeX.
func Format(e Entry) string {
	var b strings.Builder

	entryType := e.Type
	if entryType == "" {
		entryType = "misc"
	}
	b.WriteString(fmt.Sprintf("@%s{%s,\n", entryType, e.ID))

	for _, name := range e.FieldNames() {
		b.WriteString(fmt.Sprintf("  %s = {%s},\n", name, e.Fields[name]))
	}

	b.WriteString("}\n")

	return b.String()
}

// FormatList writes multiple entries separated by blank lines.
func FormatList(entries []Entry) string {
	var parts []string
	for _, e := range entries {
		parts = append(parts, Format(e))
	}
	return strings.Join(parts, "\n")
}

// StripBraces removes literal brace characters, e.g. "{A} Study" -> "A Study".
func StripBraces(s string) string {
	return strings.NewReplacer("{", "", "}", "").Replace(s)
}
