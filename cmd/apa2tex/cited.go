package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/matsen/apa2tex/internal/bibtex"
	"github.com/matsen/apa2tex/internal/convert"
)

var (
	citedDoc    string
	citedBib    string
	citedStrict bool
)

func init() {
	citedCmd.Flags().StringVar(&citedDoc, "doc", "", "Converted LaTeX document")
	citedCmd.Flags().StringVar(&citedBib, "bib", "", "BibTeX bibliography")
	citedCmd.Flags().BoolVar(&citedStrict, "strict", false, "Fail if a cited key is missing from the bibliography")
	citedCmd.MarkFlagRequired("doc")
	citedCmd.MarkFlagRequired("bib")
	rootCmd.AddCommand(citedCmd)
}

var citedCmd = &cobra.Command{
	Use:   "cited",
	Short: "Extract the BibTeX entries cited by a document",
	Long: `Collect the keys used in \cite, \citep, \citet and similar macros and
emit the matching BibTeX entries, in first-citation order.

Examples:
  apa2tex cited --doc final.tex --bib library.bib
  apa2tex cited --human --doc final.tex --bib library.bib > final.bib`,
	RunE: runCited,
}

func runCited(cmd *cobra.Command, args []string) error {
	doc, err := os.ReadFile(citedDoc)
	if err != nil {
		exitWithError(ExitError, "reading document: %v", err)
	}
	db, err := bibtex.ParseFile(citedBib)
	if err != nil {
		exitWithError(ExitDataError, "Error parsing BibTeX file: %v", err)
	}

	keys := convert.CitedKeys(string(doc))
	entries, missing := db.Subset(keys)
	for _, k := range missing {
		log.Warn().Str("key", k).Msg("cited key not in bibliography")
	}
	if citedStrict && len(missing) > 0 {
		exitWithError(ExitDataError, "%d cited keys missing from %s: %s", len(missing), citedBib, formatKeyList(missing))
	}

	bib := bibtex.FormatList(entries)

	// BibTeX is plain text in human mode
	if humanOutput {
		fmt.Print(bib)
		return nil
	}

	if keys == nil {
		keys = []string{}
	}
	if missing == nil {
		missing = []string{}
	}
	return outputJSON(CitedResponse{Keys: keys, Missing: missing, BibTeX: bib})
}
