package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/matsen/apa2tex/internal/config"
	"github.com/matsen/apa2tex/internal/convert"
	"github.com/matsen/apa2tex/internal/match"
)

var configInit bool

func init() {
	configCmd.Flags().BoolVar(&configInit, "init", false, "Write a config file with the default settings if none exists")
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration",
	Long: `Show the effective configuration: the config file location, citation
macros, discourse markers and author-matching tiers.

The config file is read from $APA2TEX_CONFIG, or
$XDG_CONFIG_HOME/apa2tex/config.yml (default ~/.config/apa2tex/config.yml).
A .env file in the current directory is loaded first.

Example config.yml:
  discourse_markers: [Notably, As reported by]
  parenthetical_macro: citep
  narrative_macro: citet
  fallback_tiers: [exact, last_token, corporate]
  history_path: ~/.local/share/apa2tex/history.db
  server:
    addr: 127.0.0.1:8080
    requests_per_second: 5
    burst: 10`,
	Args: cobra.NoArgs,
	RunE: runConfig,
}

// EffectiveConfig is the response for the config command.
type EffectiveConfig struct {
	ConfigPath         string        `json:"config_path"`
	ConfigExists       bool          `json:"config_exists"`
	ParentheticalMacro string        `json:"parenthetical_macro"`
	NarrativeMacro     string        `json:"narrative_macro"`
	FallbackTiers      []string      `json:"fallback_tiers"`
	DiscourseMarkers   []string      `json:"discourse_markers"`
	HistoryPath        string        `json:"history_path"`
	Server             config.Server `json:"server"`
}

func runConfig(cmd *cobra.Command, args []string) error {
	path := config.ConfigPath()

	if configInit {
		if _, err := os.Stat(path); err == nil {
			exitWithError(ExitConfigError, "config already exists: %s", path)
		}
		cfg := &config.Config{
			ParentheticalMacro: "citep",
			NarrativeMacro:     "citet",
			FallbackTiers:      tierNames(match.DefaultTiers),
		}
		if err := cfg.Save(path); err != nil {
			exitWithError(ExitError, "%v", err)
		}
		config.ResetCache()
	}

	cfg := loadConfig()
	eff := effectiveConfig(cfg, path)

	if !humanOutput {
		return outputJSON(eff)
	}

	exists := "not found, using defaults"
	if eff.ConfigExists {
		exists = "found"
	}
	outputHuman("config file:    %s (%s)\n", eff.ConfigPath, exists)
	outputHuman("macros:         \\%s (parenthetical), \\%s (narrative)\n", eff.ParentheticalMacro, eff.NarrativeMacro)
	outputHuman("fallback tiers: %s\n", formatKeyList(eff.FallbackTiers))
	outputHuman("markers:        %d\n", len(eff.DiscourseMarkers))
	outputHuman("history:        %s\n", eff.HistoryPath)
	outputHuman("server:         %s (%.1f req/s, burst %d)\n", eff.Server.Addr, eff.Server.RequestsPerSecond, eff.Server.Burst)
	return nil
}

func effectiveConfig(cfg *config.Config, path string) EffectiveConfig {
	opts := convert.DefaultOptions()
	if cfgOpts, err := cfg.ConvertOptions(); err == nil {
		for _, opt := range cfgOpts {
			opt(&opts)
		}
	}

	_, statErr := os.Stat(path)
	return EffectiveConfig{
		ConfigPath:         path,
		ConfigExists:       statErr == nil,
		ParentheticalMacro: opts.ParentheticalMacro,
		NarrativeMacro:     opts.NarrativeMacro,
		FallbackTiers:      tierNames(opts.Tiers),
		DiscourseMarkers:   opts.DiscourseMarkers,
		HistoryPath:        cfg.HistoryDBPath(),
		Server:             cfg.Server.WithDefaults(),
	}
}

func tierNames(tiers []match.Tier) []string {
	names := make([]string, len(tiers))
	for i, t := range tiers {
		names[i] = t.String()
	}
	return names
}
