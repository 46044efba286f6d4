package main

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/matsen/apa2tex/internal/bibtex"
	"github.com/matsen/apa2tex/internal/match"
	"github.com/matsen/apa2tex/internal/reference"
	"github.com/matsen/apa2tex/internal/refsource"
)

var (
	resolveRefs string
	resolveBib  string
)

func init() {
	resolveCmd.Flags().StringVar(&resolveRefs, "refs", "", "APA reference list (.txt, .pdf or .html)")
	resolveCmd.Flags().StringVar(&resolveBib, "bib", "", "BibTeX bibliography")
	resolveCmd.MarkFlagRequired("refs")
	resolveCmd.MarkFlagRequired("bib")
	rootCmd.AddCommand(resolveCmd)
}

var resolveCmd = &cobra.Command{
	Use:   "resolve AUTHOR YEAR",
	Short: "Resolve one citation to a BibTeX key",
	Long: `Look up a single author and year in the reference list and map the
matching reference to a BibTeX key. Reports which matching tier succeeded.

Examples:
  apa2tex resolve --refs refs.txt --bib refs.bib Smith 2020
  apa2tex resolve --refs refs.txt --bib refs.bib "Smith et al." 2019a
  apa2tex resolve --refs refs.txt --bib refs.bib "World Health Organization" 2021`,
	Args: cobra.ExactArgs(2),
	RunE: runResolve,
}

func runResolve(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	tiers, err := cfg.Tiers()
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}

	refs, err := refsource.Read(resolveRefs)
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}
	db, err := bibtex.ParseFile(resolveBib)
	if err != nil {
		exitWithError(ExitDataError, "Error parsing BibTeX file: %v", err)
	}

	res, err := match.NewResolver(refs, db, tiers...).Resolve(args[0], args[1])
	if err != nil {
		exitWithError(ExitDataError, "%v", err)
	}
	log.Debug().Str("line", res.Line).Str("tier", res.Tier).Msg("matched reference")

	resp := ResolveResponse(res)
	if humanOutput {
		outputHuman("%s\n", resp.Key)
		outputHuman("  reference: %s\n", resp.Line)
		outputHuman("  matched:   %s\n", resp.Tier)
		for i, a := range resp.Authors {
			outputHuman("  author %d:  %s\n", i+1, formatAuthor(a))
		}
		return nil
	}
	return outputJSON(resp)
}

// formatAuthor renders "Smith, J. A." or a corporate name.
func formatAuthor(a reference.Author) string {
	if a.First == "" {
		return a.Last
	}
	return a.Last + ", " + a.First
}
