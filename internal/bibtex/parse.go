package bibtex

import (
	"fmt"
	"os"
	"strings"
)

// ParseError reports malformed BibTeX with the line it was found on.
type ParseError struct {
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}

// monthStrings are the predefined month macros (jan = {January}, ...).
var monthStrings = map[string]string{
	"jan": "January",
	"feb": "February",
	"mar": "March",
	"apr": "April",
	"may": "May",
	"jun": "June",
	"jul": "July",
	"aug": "August",
	"sep": "September",
	"oct": "October",
	"nov": "November",
	"dec": "December",
}

// ParseFile reads and parses a .bib file.
func ParseFile(path string) (*Database, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading bibliography: %w", err)
	}
	return Parse(string(data))
}

// Parse parses BibTeX text into a Database.
//
// Text outside entries is ignored, as are @comment and @preamble blocks.
// An "@" not followed by an entry type and opening delimiter is treated as
// plain text. Unterminated entries and fields without "=" are errors.
func Parse(text string) (*Database, error) {
	p := &parser{src: text, db: NewDatabase()}
	if err := p.parse(); err != nil {
		return nil, err
	}
	return p.db, nil
}

type parser struct {
	src string
	pos int
	db  *Database
}

func (p *parser) errorf(format string, args ...interface{}) error {
	return &ParseError{
		Line: strings.Count(p.src[:min(p.pos, len(p.src))], "\n") + 1,
		Msg:  fmt.Sprintf(format, args...),
	}
}

func (p *parser) parse() error {
	for {
		at := strings.IndexByte(p.src[p.pos:], '@')
		if at < 0 {
			return nil
		}
		p.pos += at + 1

		entryType := strings.ToLower(p.readIdent())
		if entryType == "" {
			continue
		}
		p.skipSpace()
		if p.eof() || (p.peek() != '{' && p.peek() != '(') {
			continue
		}
		open := p.peek()
		closer := byte('}')
		if open == '(' {
			closer = ')'
		}
		p.pos++

		var err error
		switch entryType {
		case "comment", "preamble":
			err = p.skipBlock(entryType, open, closer)
		case "string":
			err = p.parseString(closer)
		default:
			err = p.parseEntry(entryType, closer)
		}
		if err != nil {
			return err
		}
	}
}

// skipBlock skips to the delimiter closing the current block.
func (p *parser) skipBlock(entryType string, open, closer byte) error {
	depth := 1
	for ; p.pos < len(p.src); p.pos++ {
		switch p.src[p.pos] {
		case open:
			depth++
		case closer:
			depth--
			if depth == 0 {
				p.pos++
				return nil
			}
		}
	}
	return p.errorf("unterminated @%s block", entryType)
}

func (p *parser) parseString(closer byte) error {
	p.skipSpace()
	name := strings.ToLower(p.readIdent())
	if name == "" {
		return p.errorf("@string without a name")
	}
	p.skipSpace()
	if !p.consume('=') {
		return p.errorf("expected '=' in @string %s", name)
	}
	value, err := p.parseValue()
	if err != nil {
		return err
	}
	p.db.Strings[name] = value
	p.skipSpace()
	if !p.consume(closer) {
		return p.errorf("unterminated @string %s", name)
	}
	return nil
}

func (p *parser) parseEntry(entryType string, closer byte) error {
	start := p.pos
	end := strings.IndexAny(p.src[p.pos:], ","+string(closer))
	if end < 0 {
		return p.errorf("unterminated @%s entry", entryType)
	}
	key := strings.TrimSpace(p.src[start : start+end])
	if key == "" || strings.ContainsAny(key, " \t\n{}=\"") {
		return p.errorf("missing or invalid citation key in @%s entry", entryType)
	}
	p.pos = start + end

	entry := NewEntry(entryType, key)
	for {
		p.skipSpace()
		for !p.eof() && p.peek() == ',' {
			p.pos++
			p.skipSpace()
		}
		if p.eof() {
			return p.errorf("unterminated entry %s", key)
		}
		if p.consume(closer) {
			break
		}

		name := p.readIdent()
		if name == "" {
			return p.errorf("expected field name in entry %s", key)
		}
		p.skipSpace()
		if !p.consume('=') {
			return p.errorf("expected '=' after field %s in entry %s", name, key)
		}
		value, err := p.parseValue()
		if err != nil {
			return err
		}
		entry.Set(name, value)

		p.skipSpace()
		if p.eof() {
			return p.errorf("unterminated entry %s", key)
		}
		if c := p.peek(); c != ',' && c != closer {
			return p.errorf("expected ',' after field %s in entry %s", name, key)
		}
	}

	p.db.Entries = append(p.db.Entries, entry)
	return nil
}

// parseValue reads a field value: braced, quoted, or a bare word (number or
// macro name), possibly concatenated with '#'.
func (p *parser) parseValue() (string, error) {
	var b strings.Builder
	for {
		p.skipSpace()
		if p.eof() {
			return "", p.errorf("missing field value")
		}

		switch c := p.peek(); {
		case c == '{':
			p.pos++
			part, err := p.readBraced()
			if err != nil {
				return "", err
			}
			b.WriteString(part)
		case c == '"':
			p.pos++
			part, err := p.readQuoted()
			if err != nil {
				return "", err
			}
			b.WriteString(part)
		default:
			name := p.readIdent()
			if name == "" {
				return "", p.errorf("unexpected character %q in field value", c)
			}
			b.WriteString(p.expand(name))
		}

		p.skipSpace()
		if !p.consume('#') {
			break
		}
	}
	return collapseSpace(b.String()), nil
}

func (p *parser) expand(name string) string {
	lower := strings.ToLower(name)
	if v, ok := p.db.Strings[lower]; ok {
		return v
	}
	if v, ok := monthStrings[lower]; ok {
		return v
	}
	return name
}

// readBraced reads up to the brace matching an already consumed '{'.
// Inner braces are kept.
func (p *parser) readBraced() (string, error) {
	start := p.pos
	depth := 1
	for ; p.pos < len(p.src); p.pos++ {
		switch p.src[p.pos] {
		case '\\':
			p.pos++ // skip escaped character such as \{ or \}
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				value := p.src[start:p.pos]
				p.pos++
				return value, nil
			}
		}
	}
	p.pos = start
	return "", p.errorf("unterminated braced value")
}

// readQuoted reads up to the closing '"' outside of braces.
func (p *parser) readQuoted() (string, error) {
	start := p.pos
	depth := 0
	for ; p.pos < len(p.src); p.pos++ {
		switch p.src[p.pos] {
		case '\\':
			p.pos++
		case '{':
			depth++
		case '}':
			depth--
		case '"':
			if depth == 0 {
				value := p.src[start:p.pos]
				p.pos++
				return value, nil
			}
		}
	}
	p.pos = start
	return "", p.errorf("unterminated quoted value")
}

func (p *parser) eof() bool { return p.pos >= len(p.src) }

func (p *parser) peek() byte { return p.src[p.pos] }

func (p *parser) consume(c byte) bool {
	if !p.eof() && p.peek() == c {
		p.pos++
		return true
	}
	return false
}

func (p *parser) skipSpace() {
	p.readWhile(isSpace)
}

func (p *parser) readIdent() string {
	return p.readWhile(isIdentChar)
}

func (p *parser) readWhile(ok func(byte) bool) string {
	start := p.pos
	for p.pos < len(p.src) && ok(p.src[p.pos]) {
		p.pos++
	}
	return p.src[start:p.pos]
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isIdentChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || isDigit(c) ||
		c == '_' || c == '-' || c == ':' || c == '.' || c == '+' || c == '/'
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
