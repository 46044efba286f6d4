package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/matsen/apa2tex/internal/bibtex"
	"github.com/matsen/apa2tex/internal/clipboard"
	"github.com/matsen/apa2tex/internal/convert"
	"github.com/matsen/apa2tex/internal/reference"
	"github.com/matsen/apa2tex/internal/refsource"
	"github.com/matsen/apa2tex/internal/storage"
)

var (
	convertRefs   string
	convertDoc    string
	convertBib    string
	convertOut    string
	convertRecord bool
	convertReflow bool
	convertPaste  bool
	convertCopy   bool
)

func init() {
	convertCmd.Flags().StringVar(&convertRefs, "refs", "", "APA reference list, one reference per line (.txt, .pdf or .html)")
	convertCmd.Flags().StringVar(&convertDoc, "doc", "", "Document containing APA in-text citations")
	convertCmd.Flags().StringVar(&convertBib, "bib", "", "BibTeX bibliography")
	convertCmd.Flags().StringVar(&convertOut, "out", "", "Write the converted document here instead of stdout")
	convertCmd.Flags().BoolVar(&convertRecord, "record", false, "Record the run in the history database")
	convertCmd.Flags().BoolVar(&convertReflow, "reflow", false, "Join wrapped reference lines (always on for PDF)")
	convertCmd.Flags().BoolVar(&convertPaste, "paste", false, "Read the document from the clipboard instead of --doc")
	convertCmd.Flags().BoolVar(&convertCopy, "copy", false, "Copy the converted document to the clipboard")
	convertCmd.MarkFlagRequired("refs")
	convertCmd.MarkFlagRequired("bib")
	convertCmd.MarkFlagsOneRequired("doc", "paste")
	convertCmd.MarkFlagsMutuallyExclusive("doc", "paste")
	rootCmd.AddCommand(convertCmd)
}

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert the citations in a document",
	Long: `Convert APA in-text citations in a document to \citet and \citep.

Narrative citations ("Smith et al. (2020)") become \citet{key}; parenthetical
citations ("(Smith, 2020; Doe, 2019)") become \citep{key1,key2}. Citations
that cannot be resolved are left unchanged and reported in messages.

Examples:
  apa2tex convert --refs refs.txt --doc draft.tex --bib refs.bib
  apa2tex convert --refs paper.pdf --doc draft.tex --bib refs.bib --out final.tex --record
  apa2tex convert --human -v --refs refs.txt --doc draft.tex --bib refs.bib
  apa2tex convert --refs refs.txt --bib refs.bib --paste --copy`,
	RunE: runConvert,
}

func runConvert(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	opts, err := cfg.ConvertOptions()
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}
	opts = append(opts, convert.WithLogger(log.Logger))

	if (convertPaste || convertCopy) && !clipboard.IsAvailable() {
		exitWithError(ExitError, "%v: install pbcopy, wl-clipboard, xclip or xsel", clipboard.ErrClipboardUnavailable)
	}

	refs, err := refsource.Read(convertRefs)
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}
	if convertReflow {
		refs = reference.Reflow(refs)
	}

	doc, err := readDocument()
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}

	db, err := bibtex.ParseFile(convertBib)
	if err != nil {
		exitWithError(ExitDataError, "Error parsing BibTeX file: %v", err)
	}

	res := convert.New(refs, db, opts...).Convert(doc)
	log.Debug().Int("converted", res.Converted).Str("doc", convertDoc).Msg("converted document")

	resp := ConvertResponse{
		Converted: res.Converted,
		Keys:      res.Keys,
		Messages:  res.Messages,
	}

	if convertOut != "" {
		if err := os.WriteFile(convertOut, []byte(res.Output), 0644); err != nil {
			exitWithError(ExitError, "writing output: %v", err)
		}
		resp.OutPath = convertOut
	} else {
		resp.Output = res.Output
	}

	if convertCopy {
		if err := clipboard.Copy(res.Output); err != nil {
			exitWithError(ExitError, "copying to clipboard: %v", err)
		}
	}

	if convertRecord {
		id, err := recordRun(cfg.HistoryDBPath(), storage.NewRun(res, convertDoc, convertRefs, convertBib))
		if err != nil {
			exitWithError(ExitError, "%v", err)
		}
		resp.RunID = id
	}

	if !humanOutput {
		return outputJSON(resp)
	}

	if convertOut == "" && !convertCopy {
		fmt.Print(res.Output)
	} else if convertOut != "" {
		outputHuman("Wrote %s\n", convertOut)
	}
	if convertCopy {
		fmt.Fprintln(os.Stderr, "Copied converted document to clipboard")
	}
	for _, msg := range res.Messages {
		fmt.Fprintln(os.Stderr, msg)
	}
	if resp.RunID != 0 {
		fmt.Fprintf(os.Stderr, "Recorded run %d\n", resp.RunID)
	}
	return nil
}

func readDocument() (string, error) {
	if convertPaste {
		text, err := clipboard.Paste()
		if err != nil {
			return "", fmt.Errorf("reading clipboard: %w", err)
		}
		return text, nil
	}
	data, err := os.ReadFile(convertDoc)
	if err != nil {
		return "", fmt.Errorf("reading document: %w", err)
	}
	return string(data), nil
}

func recordRun(dbPath string, run storage.Run) (int64, error) {
	db, err := storage.OpenDB(dbPath)
	if err != nil {
		return 0, fmt.Errorf("opening history: %w", err)
	}
	defer db.Close()

	return db.RecordRun(run)
}
