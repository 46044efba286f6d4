package convert

import (
	"github.com/rs/zerolog"

	"github.com/matsen/apa2tex/internal/match"
)

// Options configures a Converter.
type Options struct {
	DiscourseMarkers   []string
	ParentheticalMacro string // Macro name for grouped citations, without backslash
	NarrativeMacro     string // Macro name for narrative citations, without backslash
	Tiers              []match.Tier
	Patterns           *Patterns // nil means DefaultPatterns()
	Logger             zerolog.Logger
}

// DefaultOptions returns natbib macros, the full fallback order and the
// default discourse markers.
func DefaultOptions() Options {
	return Options{
		DiscourseMarkers:   append([]string(nil), DefaultDiscourseMarkers...),
		ParentheticalMacro: "citep",
		NarrativeMacro:     "citet",
		Tiers:              append([]match.Tier(nil), match.DefaultTiers...),
		Logger:             zerolog.Nop(),
	}
}

// Option modifies Options.
type Option func(*Options)

// WithLogger sets the logger used for per-citation debug output.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *Options) { o.Logger = logger }
}

// WithTiers restricts author matching to the given tiers, in order.
func WithTiers(tiers ...match.Tier) Option {
	return func(o *Options) { o.Tiers = tiers }
}

// WithMacros overrides the citation macro names.
func WithMacros(parenthetical, narrative string) Option {
	return func(o *Options) {
		if parenthetical != "" {
			o.ParentheticalMacro = parenthetical
		}
		if narrative != "" {
			o.NarrativeMacro = narrative
		}
	}
}

// WithDiscourseMarkers replaces the discourse-marker stoplist.
func WithDiscourseMarkers(markers []string) Option {
	return func(o *Options) { o.DiscourseMarkers = markers }
}

// WithExtraDiscourseMarkers appends to the discourse-marker stoplist.
func WithExtraDiscourseMarkers(markers []string) Option {
	return func(o *Options) { o.DiscourseMarkers = append(o.DiscourseMarkers, markers...) }
}

func buildOptions(opts []Option) Options {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.Patterns == nil {
		o.Patterns = DefaultPatterns()
	}
	if len(o.Tiers) == 0 {
		o.Tiers = append([]match.Tier(nil), match.DefaultTiers...)
	}
	return o
}
