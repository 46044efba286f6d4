package main

import (
	"path/filepath"
	"reflect"
	"testing"

	"github.com/matsen/apa2tex/internal/config"
	"github.com/matsen/apa2tex/internal/convert"
	"github.com/matsen/apa2tex/internal/match"
	"github.com/matsen/apa2tex/internal/reference"
)

func TestTruncateString(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"this is too long", 10, "this is..."},
	}
	for _, tt := range tests {
		if got := truncateString(tt.in, tt.max); got != tt.want {
			t.Errorf("truncateString(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}

func TestFormatKeyList(t *testing.T) {
	if got := formatKeyList(nil); got != "-" {
		t.Errorf("formatKeyList(nil) = %q, want -", got)
	}
	if got := formatKeyList([]string{"a", "b"}); got != "a, b" {
		t.Errorf("formatKeyList = %q", got)
	}
}

func TestFormatAuthor(t *testing.T) {
	if got := formatAuthor(reference.Author{First: "J. A.", Last: "Smith"}); got != "Smith, J. A." {
		t.Errorf("formatAuthor(person) = %q", got)
	}
	if got := formatAuthor(reference.Author{Last: "World Health Organization"}); got != "World Health Organization" {
		t.Errorf("formatAuthor(corporate) = %q", got)
	}
}

func TestEffectiveConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")

	tests := []struct {
		name    string
		cfg     config.Config
		macros  [2]string
		tiers   []string
		markers int
	}{
		{
			name:    "defaults",
			cfg:     config.Config{},
			macros:  [2]string{"citep", "citet"},
			tiers:   []string{"exact", "last_token", "corporate"},
			markers: len(convert.DefaultDiscourseMarkers),
		},
		{
			name: "overrides",
			cfg: config.Config{
				DiscourseMarkers:      []string{"Notably"},
				ReplaceDefaultMarkers: true,
				NarrativeMacro:        "textcite",
				FallbackTiers:         []string{"corporate"},
			},
			macros:  [2]string{"citep", "textcite"},
			tiers:   []string{"corporate"},
			markers: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eff := effectiveConfig(&tt.cfg, path)
			if eff.ConfigExists {
				t.Error("ConfigExists = true for missing file")
			}
			if got := [2]string{eff.ParentheticalMacro, eff.NarrativeMacro}; got != tt.macros {
				t.Errorf("macros = %v, want %v", got, tt.macros)
			}
			if !reflect.DeepEqual(eff.FallbackTiers, tt.tiers) {
				t.Errorf("FallbackTiers = %v, want %v", eff.FallbackTiers, tt.tiers)
			}
			if len(eff.DiscourseMarkers) != tt.markers {
				t.Errorf("got %d markers, want %d", len(eff.DiscourseMarkers), tt.markers)
			}
		})
	}
}

func TestTierNames(t *testing.T) {
	got := tierNames([]match.Tier{match.TierCorporate, match.TierExact})
	if want := []string{"corporate", "exact"}; !reflect.DeepEqual(got, want) {
		t.Errorf("tierNames() = %v, want %v", got, want)
	}
}

func TestEffectiveConfig_Server(t *testing.T) {
	cfg := config.Config{Server: config.Server{Addr: ":9000"}}
	eff := effectiveConfig(&cfg, filepath.Join(t.TempDir(), "config.yml"))

	if eff.Server.Addr != ":9000" {
		t.Errorf("Server.Addr = %q, want :9000", eff.Server.Addr)
	}
	if eff.Server.Burst != config.DefaultBurst {
		t.Errorf("Server.Burst = %d, want default %d", eff.Server.Burst, config.DefaultBurst)
	}
}
