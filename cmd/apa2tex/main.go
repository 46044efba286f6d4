// Package main provides the apa2tex CLI entry point.
package main

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/matsen/apa2tex/internal/config"
)

// Version is set at build time via ldflags
var Version = "dev"

var (
	// humanOutput controls whether to use human-readable output
	humanOutput bool
	verbose     bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		exitWithError(ExitError, "%v", err)
	}
}

var rootCmd = &cobra.Command{
	Use:   "apa2tex",
	Short: "Convert APA in-text citations to LaTeX citation macros",
	Long: `apa2tex rewrites APA-style in-text citations such as "Smith (2020)" and
"(Smith, 2020; Doe & Lee, 2018)" as natbib \citet and \citep macros.

Each citation is matched against an APA reference list by author and year,
and the matching reference is mapped to a BibTeX key by its title. Citations
that cannot be resolved are left exactly as written. All commands output
JSON by default for easy integration with other tools; "serve" and "mcp"
expose the same conversion over HTTP and the Model Context Protocol.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogging(verbose)
		// .env may set APA2TEX_CONFIG; a missing file is fine
		_ = godotenv.Load()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log each citation lookup to stderr")
	rootCmd.Version = Version
}

func setupLogging(debug bool) {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	}
}

// loadConfig loads the user config or exits with ExitConfigError.
func loadConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		exitWithError(ExitConfigError, "loading config: %v", err)
	}
	return cfg
}
