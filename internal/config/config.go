package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/matsen/apa2tex/internal/convert"
	"github.com/matsen/apa2tex/internal/match"
)

// Config represents configuration stored in ~/.config/apa2tex/config.yml.
type Config struct {
	DiscourseMarkers      []string `yaml:"discourse_markers,omitempty"`       // Appended to the built-in list
	ReplaceDefaultMarkers bool     `yaml:"replace_default_markers,omitempty"` // Use DiscourseMarkers alone
	ParentheticalMacro    string   `yaml:"parenthetical_macro,omitempty"`     // Default: citep
	NarrativeMacro        string   `yaml:"narrative_macro,omitempty"`         // Default: citet
	FallbackTiers         []string `yaml:"fallback_tiers,omitempty"`          // exact, last_token, corporate
	HistoryPath           string   `yaml:"history_path,omitempty"`
	Server                Server   `yaml:"server,omitempty"`
}

// Server configures the HTTP API started by "apa2tex serve".
type Server struct {
	Addr              string  `yaml:"addr,omitempty" json:"addr"`                               // Default: 127.0.0.1:8080
	RequestsPerSecond float64 `yaml:"requests_per_second,omitempty" json:"requests_per_second"` // Per client IP; default: 5
	Burst             int     `yaml:"burst,omitempty" json:"burst"`                             // Default: 10
	MaxBodyBytes      int64   `yaml:"max_body_bytes,omitempty" json:"max_body_bytes"`           // Default: 10 MiB
}

// Server defaults.
const (
	DefaultServerAddr        = "127.0.0.1:8080"
	DefaultRequestsPerSecond = 5.0
	DefaultBurst             = 10
	DefaultMaxBodyBytes      = 10 << 20
)

// WithDefaults fills unset fields with their defaults.
func (s Server) WithDefaults() Server {
	if s.Addr == "" {
		s.Addr = DefaultServerAddr
	}
	if s.RequestsPerSecond == 0 {
		s.RequestsPerSecond = DefaultRequestsPerSecond
	}
	if s.Burst == 0 {
		s.Burst = DefaultBurst
	}
	if s.MaxBodyBytes == 0 {
		s.MaxBodyBytes = DefaultMaxBodyBytes
	}
	return s
}

// ErrInvalidConfig is wrapped by every validation error.
var ErrInvalidConfig = errors.New("invalid config")

// configCache caches the loaded config.
var configCache *Config

// Load loads the config file at ConfigPath.
// Returns an empty config (not an error) if the file doesn't exist.
func Load() (*Config, error) {
	if configCache != nil {
		return configCache, nil
	}

	path := ConfigPath()
	if path == "" {
		return &Config{}, nil
	}

	cfg, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	configCache = cfg
	return cfg, nil
}

// LoadFile reads and validates the config at path. A missing file yields
// an empty config.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	if cfg.HistoryPath != "" {
		cfg.HistoryPath = ExpandPath(cfg.HistoryPath)
	}
	return &cfg, nil
}

// ResetCache clears the cached config.
// Useful for testing.
func ResetCache() {
	configCache = nil
}

// Validate checks tier names, macro names and server limits.
func (c *Config) Validate() error {
	if _, err := c.Tiers(); err != nil {
		return err
	}
	macros := []struct{ field, name string }{
		{"parenthetical_macro", c.ParentheticalMacro},
		{"narrative_macro", c.NarrativeMacro},
	}
	for _, m := range macros {
		if m.name == "" {
			continue
		}
		if err := ValidateMacro(m.name); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidConfig, m.field, err)
		}
	}
	if c.Server.RequestsPerSecond < 0 || c.Server.Burst < 0 || c.Server.MaxBodyBytes < 0 {
		return fmt.Errorf("%w: server limits must not be negative", ErrInvalidConfig)
	}
	if c.ReplaceDefaultMarkers && len(c.DiscourseMarkers) == 0 {
		return fmt.Errorf("%w: replace_default_markers set but discourse_markers is empty", ErrInvalidConfig)
	}
	return nil
}

// ValidateMacro checks that a macro name is letters only, without the
// leading backslash.
func ValidateMacro(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("macro name is empty")
	}
	for _, r := range name {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z') {
			return fmt.Errorf("macro name %q must contain only letters (no backslash)", name)
		}
	}
	return nil
}

// Tiers returns the configured fallback tiers, or nil for the default order.
func (c *Config) Tiers() ([]match.Tier, error) {
	if len(c.FallbackTiers) == 0 {
		return nil, nil
	}
	tiers := make([]match.Tier, 0, len(c.FallbackTiers))
	seen := make(map[match.Tier]bool)
	for _, name := range c.FallbackTiers {
		t, err := match.ParseTier(name)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
		if seen[t] {
			return nil, fmt.Errorf("%w: fallback tier %q listed twice", ErrInvalidConfig, name)
		}
		seen[t] = true
		tiers = append(tiers, t)
	}
	return tiers, nil
}

// ConvertOptions translates the config into converter options.
func (c *Config) ConvertOptions() ([]convert.Option, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	var opts []convert.Option
	if c.ReplaceDefaultMarkers {
		opts = append(opts, convert.WithDiscourseMarkers(c.DiscourseMarkers))
	} else if len(c.DiscourseMarkers) > 0 {
		opts = append(opts, convert.WithExtraDiscourseMarkers(c.DiscourseMarkers))
	}
	if c.ParentheticalMacro != "" || c.NarrativeMacro != "" {
		opts = append(opts, convert.WithMacros(c.ParentheticalMacro, c.NarrativeMacro))
	}

	tiers, _ := c.Tiers()
	if len(tiers) > 0 {
		opts = append(opts, convert.WithTiers(tiers...))
	}
	return opts, nil
}

// HistoryDBPath returns the configured history database path or the default.
func (c *Config) HistoryDBPath() string {
	if c.HistoryPath != "" {
		return c.HistoryPath
	}
	return DefaultHistoryPath()
}

// Save writes the config to path, creating parent directories.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}
