// Package convert rewrites APA in-text citations as LaTeX citation macros.
//
// A document goes through two passes. The narrative pass rewrites
// "Smith (2020)" as \citet{key}; the parenthetical pass then rewrites
// "(Smith, 2020; Doe, 1999)" as \citep{key1,key2}. Each citation is looked
// up in the APA reference list by author and year, and the matching
// reference line is resolved to a BibTeX key by normalized title. Anything
// that cannot be resolved is left exactly as written.
package convert

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/matsen/apa2tex/internal/bibtex"
	"github.com/matsen/apa2tex/internal/match"
	"github.com/matsen/apa2tex/internal/reference"
)

// Summary messages. One of them is always the first message of a Result.
const (
	SummaryConverted = "Successfully converted %d citations"
	SummaryNone      = "No citations were converted. Please check your input formats"
)

// Result is the outcome of converting one document.
type Result struct {
	Output    string    `json:"output"`
	Messages  []string  `json:"messages"`
	Converted int       `json:"converted"`
	Keys      []string  `json:"keys"` // Keys produced, in first-use order
	Outcomes  []Outcome `json:"outcomes,omitempty"`
}

// Converter rewrites citations against one reference list and bibliography.
// It holds no per-document state and is safe for concurrent use.
type Converter struct {
	opts    Options
	markers *regexp.Regexp
	refs    *match.ReferenceIndex
	titles  *match.TitleIndex
}

// New builds a Converter for a reference list and a parsed bibliography.
func New(refs string, db *bibtex.Database, opts ...Option) *Converter {
	o := buildOptions(opts)
	return &Converter{
		opts:    o,
		markers: compileMarkers(o.DiscourseMarkers),
		refs:    match.NewReferenceIndex(refs),
		titles:  match.NewTitleIndex(db),
	}
}

// Convert parses the bibliography and converts the document.
//
// It never panics and never fails: a bibliography parse error or an
// unexpected internal failure returns the document unchanged with a single
// explanatory message.
func Convert(refs, doc, bibText string, opts ...Option) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			res = Result{
				Output:   doc,
				Messages: []string{fmt.Sprintf("Conversion error: %v", r)},
			}
		}
	}()

	db, err := bibtex.Parse(bibText)
	if err != nil {
		return Result{
			Output:   doc,
			Messages: []string{fmt.Sprintf("Error parsing BibTeX file: %v", err)},
		}
	}

	return New(refs, db, opts...).Convert(doc)
}

// ConvertJSON is Convert for hosts that expect the converted text and a
// JSON array of messages.
func ConvertJSON(refs, doc, bibText string, opts ...Option) (string, string) {
	res := Convert(refs, doc, bibText, opts...)

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(res.Messages); err != nil {
		return res.Output, `["Conversion error: encoding messages"]`
	}
	return res.Output, strings.TrimSpace(buf.String())
}

// Convert rewrites the citations in doc.
func (c *Converter) Convert(doc string) Result {
	p := c.opts.Patterns

	text, narrative := c.rewrite(doc, Narrative, p.Narrative, c.narrative)
	text, parenthetical := c.rewrite(text, Parenthetical, p.Parenthetical, c.parenthetical)

	res := summarize(text, append(narrative, parenthetical...))
	rewritten := 0
	for _, o := range res.Outcomes {
		if o.Changed() {
			rewritten++
		}
	}
	c.opts.Logger.Debug().
		Int("converted", res.Converted).
		Int("spans", len(res.Outcomes)).
		Int("rewritten", rewritten).
		Msg("conversion finished")
	return res
}

type spanFunc func(span string, groups []string) Outcome

// rewrite replaces every match of re with the outcome of fn.
func (c *Converter) rewrite(text string, kind Kind, re *regexp.Regexp, fn spanFunc) (string, []Outcome) {
	locs := re.FindAllStringSubmatchIndex(text, -1)
	if len(locs) == 0 {
		return text, nil
	}

	var b strings.Builder
	outcomes := make([]Outcome, 0, len(locs))
	last := 0
	for _, loc := range locs {
		span := text[loc[0]:loc[1]]
		groups := make([]string, len(loc)/2)
		for i := range groups {
			if loc[2*i] >= 0 {
				groups[i] = text[loc[2*i]:loc[2*i+1]]
			}
		}

		o := c.safely(kind, span, groups, fn)
		b.WriteString(text[last:loc[0]])
		b.WriteString(o.Replacement)
		last = loc[1]
		outcomes = append(outcomes, o)
	}
	b.WriteString(text[last:])

	return b.String(), outcomes
}

// safely runs fn, turning a panic into an unchanged span.
func (c *Converter) safely(kind Kind, span string, groups []string, fn spanFunc) (o Outcome) {
	defer func() {
		if r := recover(); r != nil {
			c.opts.Logger.Warn().Str("span", span).Interface("panic", r).Msg("skipping citation")
			o = unchanged(kind, span, Failure{Kind: FailPanic, Author: span, Detail: fmt.Sprint(r)})
		}
	}()
	return fn(span, groups)
}

// narrative handles "Smith (2020)". groups[1] is the author phrase and
// groups[2] the year.
func (c *Converter) narrative(span string, groups []string) Outcome {
	phrase, year := groups[1], groups[2]

	prefix, author := c.splitNarrative(phrase)
	cited := reference.CitedAuthor(author)
	if cited == "" {
		return unchanged(Narrative, span, Failure{
			Kind:   FailNoAuthor,
			Year:   year,
			Detail: strings.TrimSpace(phrase),
		})
	}

	citation := Citation{Author: strings.TrimSpace(author), Year: year}
	key, failure := c.resolve(cited, year)
	if failure != nil {
		o := unchanged(Narrative, span, *failure)
		o.Citations = []Citation{citation}
		return o
	}

	return Outcome{
		Kind:        Narrative,
		Original:    span,
		Replacement: prefix + fmt.Sprintf(`\%s{%s}`, c.opts.NarrativeMacro, key),
		Citations:   []Citation{citation},
		Keys:        []string{key},
	}
}

// splitNarrative separates the author name at the end of a narrative phrase
// from the prose before it. The prose (anything up to the last line break,
// discourse markers such as "However," and lower-case words such as "as
// shown by") is returned as prefix and stays in the output.
func (c *Converter) splitNarrative(phrase string) (prefix, author string) {
	cut := strings.LastIndexAny(phrase, "\r\n") + 1
	if c.markers != nil {
		for cut < len(phrase) {
			loc := c.markers.FindStringIndex(phrase[cut:])
			if loc == nil || loc[1] == 0 {
				break
			}
			cut += loc[1]
		}
	}

	start := cut
	for _, tok := range tokens(phrase[cut:]) {
		if isProse(phrase[cut+tok[0] : cut+tok[1]]) {
			start = cut + tok[1]
		}
	}
	for start < len(phrase) && isASCIISpace(phrase[start]) {
		start++
	}

	author = noindentPattern.ReplaceAllString(phrase[start:], "")
	return phrase[:start], strings.TrimSpace(author)
}

// parenthetical handles "(Smith, 2020; e.g., Doe, 1999)". groups[1] is the
// content between the parentheses.
func (c *Converter) parenthetical(span string, groups []string) Outcome {
	p := c.opts.Patterns
	content := groups[1]

	if !p.YearToken.MatchString(content) {
		return unchanged(Parenthetical, span)
	}

	var prefix string
	if m := p.ExamplePrefix.FindStringSubmatch(content); m != nil {
		prefix = strings.ToLower(m[1]) + ", "
		content = content[len(m[0]):]
	}

	o := Outcome{Kind: Parenthetical, Original: span, Replacement: span}
	for _, sub := range strings.Split(content, ";") {
		sub = strings.TrimSpace(sub)

		if !c.endsLikeCitation(sub) {
			o.Failures = append(o.Failures, Failure{Kind: FailNotCitation, Detail: sub})
			continue
		}
		if p.SectionReference.MatchString(sub) {
			o.Failures = append(o.Failures, Failure{Kind: FailSectionReference, Detail: sub})
			continue
		}

		authorPart, year, ok := c.splitSubCitation(reference.UnescapeAmpersand(sub))
		if !ok {
			o.Failures = append(o.Failures, Failure{Kind: FailNotCitation, Detail: sub})
			continue
		}
		o.Citations = append(o.Citations, Citation{Author: authorPart, Year: year})

		cited := reference.CitedAuthor(authorPart)
		if cited == "" {
			o.Failures = append(o.Failures, Failure{Kind: FailNoAuthor, Year: year, Detail: sub})
			continue
		}

		key, failure := c.resolve(cited, year)
		if failure != nil {
			o.Failures = append(o.Failures, *failure)
			continue
		}
		o.Keys = append(o.Keys, key)
	}

	if len(o.Keys) == 0 {
		return o
	}

	macro := fmt.Sprintf(`\%s{%s}`, c.opts.ParentheticalMacro, strings.Join(o.Keys, ","))
	if prefix != "" {
		o.Replacement = "(" + prefix + macro + ")"
	} else {
		o.Replacement = macro
	}
	return o
}

func (c *Converter) endsLikeCitation(sub string) bool {
	for _, re := range c.opts.Patterns.CitationEnd {
		if re.MatchString(sub) {
			return true
		}
	}
	return false
}

func (c *Converter) splitSubCitation(sub string) (author, year string, ok bool) {
	for _, re := range c.opts.Patterns.SubCitation {
		if m := re.FindStringSubmatch(sub); m != nil {
			return strings.TrimSpace(m[1]), strings.TrimSpace(m[2]), true
		}
	}
	return "", "", false
}

// resolve maps an author and year to a bibliography key.
func (c *Converter) resolve(author, year string) (string, *Failure) {
	log := c.opts.Logger

	ref, ok := c.refs.Find(author, year, c.opts.Tiers...)
	if !ok {
		log.Debug().Str("author", author).Str("year", year).Msg("no reference line")
		return "", &Failure{Kind: FailReferenceNotFound, Author: author, Year: year}
	}

	key, ok := c.titles.Resolve(ref.Line)
	if !ok {
		log.Debug().Str("author", author).Str("year", year).Str("title", ref.Line.Title).Msg("no bibliography entry")
		return "", &Failure{Kind: FailKeyNotFound, Author: author, Year: year, Detail: ref.Line.Raw}
	}

	log.Debug().
		Str("author", author).
		Str("year", year).
		Str("tier", ref.Tier.String()).
		Str("key", key).
		Msg("resolved citation")
	return key, nil
}

// summarize folds per-span outcomes into a Result.
func summarize(output string, outcomes []Outcome) Result {
	res := Result{Output: output, Outcomes: outcomes, Keys: []string{}}

	seenKey := make(map[string]bool)
	seenMsg := make(map[string]bool)
	var details []string
	for _, o := range outcomes {
		res.Converted += o.Resolved()
		for _, k := range o.Keys {
			if !seenKey[k] {
				seenKey[k] = true
				res.Keys = append(res.Keys, k)
			}
		}
		for _, f := range o.Failures {
			msg := f.Message()
			if msg == "" || seenMsg[msg] {
				continue
			}
			seenMsg[msg] = true
			details = append(details, msg)
		}
	}

	summary := SummaryNone
	if res.Converted > 0 {
		summary = fmt.Sprintf(SummaryConverted, res.Converted)
	}
	res.Messages = append([]string{summary}, details...)
	return res
}

// tokens returns the [start, end) offsets of whitespace-separated words.
func tokens(s string) [][2]int {
	var out [][2]int
	start := -1
	for i := 0; i < len(s); i++ {
		if isASCIISpace(s[i]) {
			if start >= 0 {
				out = append(out, [2]int{start, i})
				start = -1
			}
		} else if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		out = append(out, [2]int{start, len(s)})
	}
	return out
}

// isProse reports whether a word is running text rather than part of an
// author name: a lower-case word that is not a name particle, or a LaTeX
// command such as \noindent.
func isProse(word string) bool {
	if strings.HasPrefix(word, `\`) {
		return len(word) > 1 && unicode.IsLetter(rune(word[1]))
	}
	word = strings.TrimRight(word, ",")
	if word == "" || nameConnectors[word] {
		return false
	}
	r, _ := utf8.DecodeRuneInString(word)
	return unicode.IsLower(r)
}

func isASCIISpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v'
}
