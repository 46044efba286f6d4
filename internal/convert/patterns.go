package convert

import (
	"regexp"
	"sort"
	"strings"
)

// Patterns holds the regular expressions that recognize citations.
type Patterns struct {
	// Narrative matches "Smith et al. (2020)": group 1 is the author phrase,
	// group 2 the year.
	Narrative *regexp.Regexp
	// Parenthetical matches a parenthesized span without nested parentheses;
	// group 1 is the content.
	Parenthetical *regexp.Regexp
	// YearToken must occur somewhere in a parenthetical span.
	YearToken *regexp.Regexp
	// CitationEnd lists the accepted endings of a sub-citation.
	CitationEnd []*regexp.Regexp
	// SubCitation splits a sub-citation into author (group 1) and year (group 2).
	SubCitation []*regexp.Regexp
	// SectionReference marks spans such as "Section 3" that are not citations.
	SectionReference *regexp.Regexp
	// ExamplePrefix matches a leading "e.g." or "i.e.", with or without the
	// comma.
	ExamplePrefix *regexp.Regexp
}

// DefaultPatterns returns the standard APA citation patterns.
func DefaultPatterns() *Patterns {
	return &Patterns{
		Narrative:     regexp.MustCompile(`([A-Z][A-Za-z\s,&\\]+?(?:\s+et al\.?)?)\s*\((\d{4}[a-z]?)\)`),
		Parenthetical: regexp.MustCompile(`\(([^()]+)\)`),
		YearToken:     regexp.MustCompile(`\d{4}[a-z]?`),
		CitationEnd: []*regexp.Regexp{
			regexp.MustCompile(`,\s*\d{4}[a-z]?$`),
			regexp.MustCompile(`\d{4}[a-z]?\)$`),
		},
		SubCitation: []*regexp.Regexp{
			regexp.MustCompile(`^(.*?[^,])\s*,\s*(\d{4}[a-z]?)$`),
			regexp.MustCompile(`^([^(]+?)\s*\((\d{4}[a-z]?)\)$`),
		},
		SectionReference: regexp.MustCompile(`(?i)Section\s+\d+`),
		ExamplePrefix:    regexp.MustCompile(`(?i)^(e\.g\.|i\.e\.),?\s*`),
	}
}

// DefaultDiscourseMarkers are phrases that may precede the author in a
// narrative citation and are not part of the author name.
var DefaultDiscourseMarkers = []string{
	"Additionally",
	"According to",
	"Also",
	"Although",
	"As",
	"adopting",
	"align with",
	"aligns with",
	"as articulated by",
	"as defined by",
	"Building upon",
	"By",
	"By replacing",
	"Comparison with",
	"Contrary to",
	"Contrary to expectations",
	"Earlier",
	"Finally",
	"following",
	"For example",
	"For instance",
	"further",
	"Furthermore",
	"Here",
	"However",
	"However, our results",
	"In addition",
	"In contrast",
	"In this",
	"Indeed",
	"informed by",
	"introduced by",
	"Like",
	"Moreover",
	"Notably",
	"Our findings",
	"Recently",
	"See",
	"Similarly",
	"Specifically",
	"suggesting",
	"Thus",
	"This result",
	"This robust test",
	"This robustness test",
	"This theory, as articulated by",
	"Unlike",
	"We adopt the methodology of",
	"While",
}

// compileMarkers builds a case-insensitive pattern matching one leading
// discourse marker plus any following comma and whitespace. Longer markers
// are tried first so "However, our results" wins over "However".
func compileMarkers(markers []string) *regexp.Regexp {
	seen := make(map[string]bool)
	var alts []string
	for _, m := range markers {
		m = strings.TrimSpace(m)
		key := strings.ToLower(m)
		if m == "" || seen[key] {
			continue
		}
		seen[key] = true
		alts = append(alts, regexp.QuoteMeta(m))
	}
	if len(alts) == 0 {
		return nil
	}
	sort.SliceStable(alts, func(i, j int) bool { return len(alts[i]) > len(alts[j]) })
	return regexp.MustCompile(`(?i)^\s*(?:` + strings.Join(alts, "|") + `)\b\s*,?\s*`)
}

var noindentPattern = regexp.MustCompile(`\\?noindent\b\s*`)

// nameConnectors are lower-case words that belong to an author phrase.
var nameConnectors = map[string]bool{
	"and":        true,
	"et":         true,
	"al":         true,
	"al.":        true,
	"colleagues": true,
	"coworkers":  true,
	"co-workers": true,
	"van":        true,
	"von":        true,
	"der":        true,
	"den":        true,
	"de":         true,
	"da":         true,
	"di":         true,
	"du":         true,
	"la":         true,
	"le":         true,
	"ter":        true,
	"ten":        true,
}
