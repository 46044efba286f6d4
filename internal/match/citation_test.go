package match

import (
	"errors"
	"reflect"
	"testing"

	"github.com/matsen/apa2tex/internal/bibtex"
	"github.com/matsen/apa2tex/internal/reference"
)

func TestResolver(t *testing.T) {
	const refs = `Smith, J., & Doe, A. (2020). A Study of Things. Journal X.
World Health Organization. (2021). Global report. WHO.
Orphan, O. (2017). Nowhere in the bibliography. Press.`
	db, err := bibtex.Parse(`@article{smith2020, title = {A Study of Things}}
@report{who2021, title = {Global Report}}`)
	if err != nil {
		t.Fatal(err)
	}
	r := NewResolver(refs, db)

	tests := []struct {
		name     string
		author   string
		year     string
		wantKey  string
		wantTier string
		wantErr  error
	}{
		{"surname", "Smith", "2020", "smith2020", "exact", nil},
		{"et al. stripped", "Smith et al.", "2020", "smith2020", "exact", nil},
		{"author group", "Smith & Doe", "2020", "smith2020", "exact", nil},
		{"corporate", "World Health Organization", "2021", "who2021", "exact", nil},
		{"wrong year", "Smith", "2019", "", "", ErrNoReference},
		{"no entry", "Orphan", "2017", "", "exact", ErrNoEntry},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Resolve(tt.author, tt.year)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Resolve() error = %v, want %v", err, tt.wantErr)
				}
			} else if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			if got.Key != tt.wantKey || got.Tier != tt.wantTier {
				t.Errorf("Resolve() = %+v, want key %q tier %q", got, tt.wantKey, tt.wantTier)
			}
		})
	}
}

func TestResolver_Tiers(t *testing.T) {
	const refs = "World Health Organization. (2021). Global report. WHO."
	db, err := bibtex.Parse(`@report{who2021, title = {Global report}}`)
	if err != nil {
		t.Fatal(err)
	}

	got, err := NewResolver(refs, db).Resolve("Health", "2021")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got.Key != "who2021" || got.Tier != "corporate" {
		t.Errorf("Resolve() = %+v, want who2021 via corporate", got)
	}

	_, err = NewResolver(refs, db, TierExact, TierLastToken).Resolve("Health", "2021")
	if !errors.Is(err, ErrNoReference) {
		t.Errorf("Resolve() without corporate tier error = %v, want ErrNoReference", err)
	}
}

func TestResolver_Authors(t *testing.T) {
	const refs = "Smith, J. A., & Doe, B. (2020). A Study of Things. Journal X."
	db, err := bibtex.Parse(`@article{smith2020, title = {A Study of Things}}`)
	if err != nil {
		t.Fatal(err)
	}

	got, err := NewResolver(refs, db).Resolve("Smith", "2020")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	want := []reference.Author{{First: "J. A.", Last: "Smith"}, {First: "B.", Last: "Doe"}}
	if !reflect.DeepEqual(got.Authors, want) {
		t.Errorf("Authors = %+v, want %+v", got.Authors, want)
	}
}
