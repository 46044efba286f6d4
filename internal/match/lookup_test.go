package match

import (
	"testing"
)

const testRefs = `Smith, J. (2020). A Study of Things. Journal X.
Smith, J. (2021a). Another study. Journal X.

Doe, A., & Lee, B. (1999). Working together. Press.
World Health Organization. (2021). Global report. WHO.
Johnson-Smith, K. M. (2018). Hyphenated. Press.
Li, W. (2017). Short surname. Press.
Williams, R. (2017). Contains li. Press.
No year in this line at all.
Müller, H. (2015). Umlauts. Verlag.`

func TestFind(t *testing.T) {
	idx := NewReferenceIndex(testRefs)

	tests := []struct {
		name     string
		author   string
		year     string
		wantLine string
		wantTier Tier
	}{
		{
			name:     "exact surname",
			author:   "Smith",
			year:     "2020",
			wantLine: "Smith, J. (2020). A Study of Things. Journal X.",
			wantTier: TierExact,
		},
		{
			name:     "disambiguation letter",
			author:   "Smith",
			year:     "2021a",
			wantLine: "Smith, J. (2021a). Another study. Journal X.",
			wantTier: TierExact,
		},
		{
			name:     "corporate author via surname token",
			author:   "Organization",
			year:     "2021",
			wantLine: "World Health Organization. (2021). Global report. WHO.",
			wantTier: TierExact,
		},
		{
			name:     "full corporate name",
			author:   "World Health Organization",
			year:     "2021",
			wantLine: "World Health Organization. (2021). Global report. WHO.",
			wantTier: TierExact,
		},
		{
			name:     "given name in query",
			author:   "Jane Smith",
			year:     "2020",
			wantLine: "Smith, J. (2020). A Study of Things. Journal X.",
			wantTier: TierLastToken,
		},
		{
			name:     "author group matched on first author",
			author:   "Doe & Lee",
			year:     "1999",
			wantLine: "Doe, A., & Lee, B. (1999). Working together. Press.",
			wantTier: TierExact,
		},
		{
			name:     "escaped ampersand in query",
			author:   `Doe \& Lee`,
			year:     "1999",
			wantLine: "Doe, A., & Lee, B. (1999). Working together. Press.",
			wantTier: TierExact,
		},
		{
			name:     "hyphenated surname",
			author:   "Johnson-Smith",
			year:     "2018",
			wantLine: "Johnson-Smith, K. M. (2018). Hyphenated. Press.",
			wantTier: TierExact,
		},
		{
			name:     "short surname is not a substring match",
			author:   "Williams",
			year:     "2017",
			wantLine: "Williams, R. (2017). Contains li. Press.",
			wantTier: TierExact,
		},
		{
			name:     "short surname in group",
			author:   "Li & Wang",
			year:     "2017",
			wantLine: "Li, W. (2017). Short surname. Press.",
			wantTier: TierExact,
		},
		{
			name:     "partial corporate name",
			author:   "Health",
			year:     "2021",
			wantLine: "World Health Organization. (2021). Global report. WHO.",
			wantTier: TierCorporate,
		},
		{
			name:     "diacritics folded",
			author:   "Muller",
			year:     "2015",
			wantLine: "Müller, H. (2015). Umlauts. Verlag.",
			wantTier: TierExact,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := idx.Find(tt.author, tt.year)
			if !ok {
				t.Fatalf("Find(%q, %q) not found", tt.author, tt.year)
			}
			if got.Line.Raw != tt.wantLine {
				t.Errorf("Find() line = %q, want %q", got.Line.Raw, tt.wantLine)
			}
			if got.Tier != tt.wantTier {
				t.Errorf("Find() tier = %v, want %v", got.Tier, tt.wantTier)
			}
		})
	}
}

func TestFind_NotFound(t *testing.T) {
	idx := NewReferenceIndex(testRefs)

	tests := []struct {
		name   string
		author string
		year   string
	}{
		{"wrong year", "Smith", "2019"},
		{"year without letter", "Smith", "2021"},
		{"unknown author", "Doe", "2020"},
		{"empty author", "", "2020"},
		{"empty year", "Smith", ""},
		{"punctuation only author", "., ", "2020"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got, ok := idx.Find(tt.author, tt.year); ok {
				t.Errorf("Find(%q, %q) = %q, want not found", tt.author, tt.year, got.Line.Raw)
			}
		})
	}
}

func TestFind_TierOrder(t *testing.T) {
	// The corporate match comes first in the list, but an exact match later
	// in the list wins.
	refs := "Brown Institute. (2020). Corporate first. Press.\n" +
		"Brown, C. (2020). Exact later. Press."
	idx := NewReferenceIndex(refs)

	got, ok := idx.Find("Brown", "2020")
	if !ok {
		t.Fatal("Find() not found")
	}
	if got.Line.Title != "exact later" || got.Tier != TierExact {
		t.Errorf("Find() = %q via %v, want exact later via exact", got.Line.Title, got.Tier)
	}
}

func TestFind_AuthorGroupUsesFirstAuthor(t *testing.T) {
	refs := "Smith, A., & Jones, B. (2020). Joint work. Press.\n" +
		"Jones, B. (2020). Solo work. Press."
	idx := NewReferenceIndex(refs)

	for _, author := range []string{"Smith & Jones", "Smith and Jones", `Smith \& Jones`} {
		t.Run(author, func(t *testing.T) {
			got, ok := idx.Find(author, "2020")
			if !ok {
				t.Fatal("Find() not found")
			}
			if got.Line.Title != "joint work" || got.Tier != TierExact {
				t.Errorf("Find() = %q via %v, want joint work via exact", got.Line.Title, got.Tier)
			}
		})
	}

	// The second-named author alone still finds the solo paper.
	got, ok := idx.Find("Jones", "2020")
	if !ok || got.Line.Title != "solo work" {
		t.Errorf("Find(Jones) = %q, %v, want solo work", got.Line.Title, ok)
	}
}

func TestFind_RestrictedTiers(t *testing.T) {
	idx := NewReferenceIndex(testRefs)

	if _, ok := idx.Find("Jane Smith", "2020", TierExact); ok {
		t.Error("Find() with only TierExact should not match a given name")
	}
	if _, ok := idx.Find("Health", "2021", TierExact, TierLastToken); ok {
		t.Error("Find() without TierCorporate should not match a partial corporate name")
	}
	if _, ok := idx.Find("Lee & Doe", "1999", TierExact, TierLastToken); ok {
		t.Error("Find() should not match an author group on its second author")
	}
}

func TestNewReferenceIndex_SkipsUnparseable(t *testing.T) {
	idx := NewReferenceIndex(testRefs)
	if len(idx.entries) != 8 {
		t.Errorf("entries = %d, want 8", len(idx.entries))
	}
	if len(NewReferenceIndex("").entries) != 0 {
		t.Error("empty reference list should have no entries")
	}
}

func TestFindReferenceLine(t *testing.T) {
	line, ok := FindReferenceLine(testRefs, "Smith", "2020")
	if !ok || line != "Smith, J. (2020). A Study of Things. Journal X." {
		t.Errorf("FindReferenceLine() = %q, %v", line, ok)
	}
	if _, ok := FindReferenceLine(testRefs, "Nobody", "2020"); ok {
		t.Error("FindReferenceLine() should not find unknown author")
	}
}

func TestParseTier(t *testing.T) {
	tests := []struct {
		in      string
		want    Tier
		wantErr bool
	}{
		{"exact", TierExact, false},
		{" Last_Token ", TierLastToken, false},
		{"corporate", TierCorporate, false},
		{"none", TierNone, true},
		{"fuzzy", TierNone, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTier(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseTier(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseTier(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestTierString(t *testing.T) {
	if TierLastToken.String() != "last_token" {
		t.Errorf("TierLastToken.String() = %q", TierLastToken.String())
	}
	if Tier(42).String() != "tier(42)" {
		t.Errorf("Tier(42).String() = %q", Tier(42).String())
	}
}
