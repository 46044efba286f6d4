package convert

import (
	"bytes"
	"encoding/json"
	"reflect"
	"regexp"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/matsen/apa2tex/internal/bibtex"
	"github.com/matsen/apa2tex/internal/match"
)

const testRefs = `Smith, J. (2020). A Study of Things. Journal X.
Doe, A., & Lee, B. (2018). Working together. Press.
World Health Organization. (2021). Global report. WHO.
Brown, C., Green, D., & White, E. (2019a). Colourful results. Press.
Orphan, O. (2017). Not in the bibliography. Press.
Lee, B. (2018). Going it alone. Press.`

const testBib = `@article{smith2020, title = {{A} Study of Things}}
@book{doelee2018, title = {Working Together}}
@techreport{who2021, title = {Global Report}}
@article{brown2019a, title = {Colourful {R}esults}}
@book{lee2018, title = {Going It Alone}}
`

func mustParseBib(t *testing.T) *bibtex.Database {
	t.Helper()
	db, err := bibtex.Parse(testBib)
	if err != nil {
		t.Fatalf("parsing test bibliography: %v", err)
	}
	return db
}

func TestConvert_Parenthetical(t *testing.T) {
	res := Convert(testRefs, "This finding (Smith, 2020) is notable.", testBib)

	if want := `This finding \citep{smith2020} is notable.`; res.Output != want {
		t.Errorf("Output = %q, want %q", res.Output, want)
	}
	if res.Converted != 1 {
		t.Errorf("Converted = %d, want 1", res.Converted)
	}
	if res.Messages[0] != "Successfully converted 1 citations" {
		t.Errorf("first message = %q", res.Messages[0])
	}
}

func TestConvert_Narrative(t *testing.T) {
	res := Convert(testRefs, "Smith (2020) showed X.", testBib)

	if want := `\citet{smith2020} showed X.`; res.Output != want {
		t.Errorf("Output = %q, want %q", res.Output, want)
	}
	if res.Converted != 1 {
		t.Errorf("Converted = %d, want 1", res.Converted)
	}
}

func TestConvert_Cases(t *testing.T) {
	tests := []struct {
		name      string
		doc       string
		want      string
		converted int
	}{
		{
			name:      "example prefix kept",
			doc:       "(e.g., Smith, 2020)",
			want:      `(e.g., \citep{smith2020})`,
			converted: 1,
		},
		{
			name:      "example prefix without comma",
			doc:       "(e.g. Smith, 2020)",
			want:      `(e.g., \citep{smith2020})`,
			converted: 1,
		},
		{
			name:      "i.e. prefix kept",
			doc:       "(i.e., Smith, 2020)",
			want:      `(i.e., \citep{smith2020})`,
			converted: 1,
		},
		{
			name:      "group with partial resolution",
			doc:       "(Smith, 2020; Doe, 1999)",
			want:      `\citep{smith2020}`,
			converted: 1,
		},
		{
			name:      "group keeps order",
			doc:       "(World Health Organization, 2021; Smith, 2020)",
			want:      `\citep{who2021,smith2020}`,
			converted: 2,
		},
		{
			name:      "author group with ampersand",
			doc:       "(Doe & Lee, 2018)",
			want:      `\citep{doelee2018}`,
			converted: 1,
		},
		{
			name:      "author group resolves to joint paper, not co-author's solo paper",
			doc:       "(Doe & Lee, 2018) and Doe and Lee (2018) argue.",
			want:      `\citep{doelee2018} and \citet{doelee2018} argue.`,
			converted: 2,
		},
		{
			name:      "second author alone resolves to solo paper",
			doc:       "(Lee, 2018)",
			want:      `\citep{lee2018}`,
			converted: 1,
		},
		{
			name:      "escaped ampersand",
			doc:       `(Doe \& Lee, 2018)`,
			want:      `\citep{doelee2018}`,
			converted: 1,
		},
		{
			name:      "et al with disambiguation letter",
			doc:       "(Brown et al., 2019a)",
			want:      `\citep{brown2019a}`,
			converted: 1,
		},
		{
			name:      "narrative et al",
			doc:       "Brown et al. (2019a) found",
			want:      `\citet{brown2019a} found`,
			converted: 1,
		},
		{
			name:      "narrative author group",
			doc:       `Doe \& Lee (2018) argue`,
			want:      `\citet{doelee2018} argue`,
			converted: 1,
		},
		{
			name:      "narrative with discourse marker",
			doc:       "However, Smith (2020) disagrees.",
			want:      `However, \citet{smith2020} disagrees.`,
			converted: 1,
		},
		{
			name:      "narrative with prose before author",
			doc:       "This result agrees with the work of Smith (2020).",
			want:      `This result agrees with the work of \citet{smith2020}.`,
			converted: 1,
		},
		{
			name:      "capitalised lead-in kept",
			doc:       "As Smith (2020) showed.",
			want:      `As \citet{smith2020} showed.`,
			converted: 1,
		},
		{
			name:      "heading on an earlier line kept",
			doc:       "Introduction\n\nSmith (2020) shows",
			want:      "Introduction\n\n\\citet{smith2020} shows",
			converted: 1,
		},
		{
			name:      "narrative after noindent",
			doc:       `\noindent Smith (2020) shows`,
			want:      `\noindent \citet{smith2020} shows`,
			converted: 1,
		},
		{
			name:      "marker does not eat a surname prefix",
			doc:       "By contrast, Byrne (2020) is missing.",
			want:      "By contrast, Byrne (2020) is missing.",
			converted: 0,
		},
		{
			name:      "narrative and parenthetical together",
			doc:       "Smith (2020) extends prior work (Doe & Lee, 2018; World Health Organization, 2021).",
			want:      `\citet{smith2020} extends prior work \citep{doelee2018,who2021}.`,
			converted: 3,
		},
		{
			name:      "year missing from one member",
			doc:       "(see Table 2; Smith, 2020)",
			want:      `\citep{smith2020}`,
			converted: 1,
		},
		{
			name:      "section reference skipped",
			doc:       "(Section 2, 2020)",
			want:      "(Section 2, 2020)",
			converted: 0,
		},
		{
			name:      "parentheses without year",
			doc:       "a remark (see above) here",
			want:      "a remark (see above) here",
			converted: 0,
		},
		{
			name:      "reference without bibliography entry",
			doc:       "(Orphan, 2017)",
			want:      "(Orphan, 2017)",
			converted: 0,
		},
		{
			name:      "ampersands elsewhere untouched",
			doc:       `R \& D matters (Smith, 2020) & more`,
			want:      `R \& D matters \citep{smith2020} & more`,
			converted: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Convert(testRefs, tt.doc, testBib)
			if res.Output != tt.want {
				t.Errorf("Output = %q, want %q", res.Output, tt.want)
			}
			if res.Converted != tt.converted {
				t.Errorf("Converted = %d, want %d", res.Converted, tt.converted)
			}
		})
	}
}

func TestConvert_Unresolvable(t *testing.T) {
	res := Convert(testRefs, "(Doe, 1999)", testBib)

	if res.Output != "(Doe, 1999)" {
		t.Errorf("Output = %q, want unchanged", res.Output)
	}
	if res.Converted != 0 {
		t.Errorf("Converted = %d, want 0", res.Converted)
	}
	if res.Messages[0] != SummaryNone {
		t.Errorf("first message = %q, want %q", res.Messages[0], SummaryNone)
	}

	found := false
	for _, msg := range res.Messages {
		if strings.Contains(msg, "Doe") && strings.Contains(msg, "1999") {
			found = true
		}
	}
	if !found {
		t.Errorf("Messages = %v, want one mentioning Doe and 1999", res.Messages)
	}
}

func TestConvert_FailureKinds(t *testing.T) {
	res := Convert(testRefs, "(Doe, 1999; Orphan, 2017; Section 4, 2020; see Figure 1)", testBib)

	if len(res.Outcomes) != 1 {
		t.Fatalf("got %d outcomes, want 1", len(res.Outcomes))
	}
	var kinds []FailureKind
	for _, f := range res.Outcomes[0].Failures {
		kinds = append(kinds, f.Kind)
	}
	want := []FailureKind{FailReferenceNotFound, FailKeyNotFound, FailSectionReference, FailNotCitation}
	if !reflect.DeepEqual(kinds, want) {
		t.Errorf("failure kinds = %v, want %v", kinds, want)
	}

	// Only resolvable-looking citations produce messages.
	if len(res.Messages) != 3 {
		t.Errorf("Messages = %v, want summary plus 2 diagnostics", res.Messages)
	}
}

func TestConvert_Idempotent(t *testing.T) {
	doc := "Smith (2020) showed (e.g., Smith, 2020) and (Doe & Lee, 2018; World Health Organization, 2021)."

	first := Convert(testRefs, doc, testBib)
	second := Convert(testRefs, first.Output, testBib)

	if second.Output != first.Output {
		t.Errorf("second pass changed output:\n first: %q\nsecond: %q", first.Output, second.Output)
	}
	if second.Converted != 0 {
		t.Errorf("second pass Converted = %d, want 0", second.Converted)
	}
}

func TestConvert_BibParseError(t *testing.T) {
	doc := "This finding (Smith, 2020) is notable."
	res := Convert(testRefs, doc, "@article{broken, title = {never closed")

	if res.Output != doc {
		t.Errorf("Output = %q, want original document", res.Output)
	}
	if len(res.Messages) != 1 || !strings.HasPrefix(res.Messages[0], "Error parsing BibTeX file:") {
		t.Errorf("Messages = %v, want single parse error", res.Messages)
	}
}

func TestConvert_EmptyInputs(t *testing.T) {
	res := Convert("", "", "")
	if res.Output != "" || res.Converted != 0 {
		t.Errorf("Convert(empty) = %+v", res)
	}
	if len(res.Messages) != 1 || res.Messages[0] != SummaryNone {
		t.Errorf("Messages = %v, want only the summary", res.Messages)
	}
}

func TestConvert_ResultKeys(t *testing.T) {
	res := Convert(testRefs, "Smith (2020); (Doe & Lee, 2018; Smith, 2020)", testBib)

	if want := []string{"smith2020", "doelee2018"}; !reflect.DeepEqual(res.Keys, want) {
		t.Errorf("Keys = %v, want %v", res.Keys, want)
	}
	if res.Converted != 3 {
		t.Errorf("Converted = %d, want 3", res.Converted)
	}
}

func TestConvert_Options(t *testing.T) {
	res := Convert(testRefs, "Smith (2020) and (Smith, 2020)", testBib, WithMacros("parencite", "textcite"))
	if want := `\textcite{smith2020} and \parencite{smith2020}`; res.Output != want {
		t.Errorf("Output = %q, want %q", res.Output, want)
	}

	// Without the corporate tier a partial corporate name cannot match.
	res = Convert(testRefs, "(Health, 2021)", testBib, WithTiers(match.TierExact, match.TierLastToken))
	if res.Converted != 0 {
		t.Errorf("Converted = %d with restricted tiers, want 0", res.Converted)
	}

	// Without markers "However" is taken as the cited author.
	doc := "However, Smith (2020) disagrees."
	res = Convert(testRefs, doc, testBib, WithDiscourseMarkers(nil))
	if res.Output != doc || res.Converted != 0 {
		t.Errorf("Output = %q (converted %d), want unchanged", res.Output, res.Converted)
	}

	res = Convert(testRefs, "Lately, Smith (2020) agrees.", testBib, WithExtraDiscourseMarkers([]string{"Lately"}))
	if want := `Lately, \citet{smith2020} agrees.`; res.Output != want {
		t.Errorf("Output = %q, want %q", res.Output, want)
	}
}

func TestConverter_RecoversPanics(t *testing.T) {
	patterns := DefaultPatterns()
	// A narrative pattern without the year group makes the handler index
	// out of range.
	patterns.Narrative = regexp.MustCompile(`([A-Z][a-z]+) \(\d{4}\)`)

	c := New(testRefs, mustParseBib(t), func(o *Options) { o.Patterns = patterns })
	res := c.Convert("Smith (2020) and (Smith, 2020)")

	if want := `Smith (2020) and \citep{smith2020}`; res.Output != want {
		t.Errorf("Output = %q, want %q", res.Output, want)
	}
	if res.Outcomes[0].Failures[0].Kind != FailPanic {
		t.Errorf("first outcome failure = %v, want panic", res.Outcomes[0].Failures)
	}
}

func TestConverter_Logging(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.DebugLevel)

	c := New(testRefs, mustParseBib(t), WithLogger(logger))
	c.Convert("Jane Smith (2020)")

	out := buf.String()
	if !strings.Contains(out, `"tier":"exact"`) || !strings.Contains(out, `"key":"smith2020"`) {
		t.Errorf("debug log missing resolution details:\n%s", out)
	}

	buf.Reset()
	c.Convert("(Smith, 2020) and (Doe, 1999)")
	out = buf.String()
	if !strings.Contains(out, `"spans":2`) || !strings.Contains(out, `"rewritten":1`) {
		t.Errorf("summary log = %s, want 2 spans with 1 rewritten", out)
	}
}

func TestConvertJSON(t *testing.T) {
	out, msgs := ConvertJSON(testRefs, "(Doe & Lee, 2018; Nobody & Else, 2000)", testBib)

	if out != `\citep{doelee2018}` {
		t.Errorf("output = %q", out)
	}

	var decoded []string
	if err := json.Unmarshal([]byte(msgs), &decoded); err != nil {
		t.Fatalf("messages are not a JSON array: %v (%s)", err, msgs)
	}
	if len(decoded) != 2 || decoded[0] != "Successfully converted 1 citations" {
		t.Errorf("messages = %v", decoded)
	}
	if !strings.Contains(msgs, "Nobody & Else") {
		t.Errorf("messages should not HTML-escape ampersands: %s", msgs)
	}
}

func TestCompileMarkers(t *testing.T) {
	re := compileMarkers([]string{"However", "However, our results", " ", "however"})

	tests := []struct {
		in   string
		want string
	}{
		{"However, Smith", "However, "},
		{"however Smith", "however "},
		{"However, our results Smith", "However, our results "},
		{"Howeverish Smith", ""},
	}
	for _, tt := range tests {
		if got := re.FindString(tt.in); got != tt.want {
			t.Errorf("marker match on %q = %q, want %q", tt.in, got, tt.want)
		}
	}

	if compileMarkers(nil) != nil {
		t.Error("compileMarkers(nil) should be nil")
	}
}
