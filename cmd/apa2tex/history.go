package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matsen/apa2tex/internal/storage"
)

var (
	historyLimit  int
	historyKey    string
	historySearch string
	historyExport string
	historyCounts bool
	historyID     int64
	historyImport string
)

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", DefaultHistoryLimit, "Maximum runs to show (0 for all)")
	historyCmd.Flags().StringVar(&historyKey, "key", "", "Only runs that produced this BibTeX key")
	historyCmd.Flags().StringVar(&historySearch, "search", "", "Full-text search over document paths and messages")
	historyCmd.Flags().StringVar(&historyExport, "export", "", "Write the selected runs to a JSONL file")
	historyCmd.Flags().BoolVar(&historyCounts, "counts", false, "Show how many runs cited each key")
	historyCmd.Flags().Int64Var(&historyID, "id", 0, "Show a single run")
	historyCmd.Flags().StringVar(&historyImport, "import", "", "Add the runs in a JSONL export to the history")
	historyCmd.MarkFlagsMutuallyExclusive("id", "key", "search", "counts", "import")
	rootCmd.AddCommand(historyCmd)
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded conversion runs",
	Long: `List conversion runs recorded with "convert --record", most recent first.

Examples:
  apa2tex history --human
  apa2tex history --key smith2020
  apa2tex history --search "No reference found"
  apa2tex history --id 12 --human
  apa2tex history --limit 0 --export runs.jsonl
  apa2tex history --import runs.jsonl
  apa2tex history --counts`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()

	db, err := storage.OpenDB(cfg.HistoryDBPath())
	if err != nil {
		exitWithError(ExitError, "opening history: %v", err)
	}
	defer db.Close()

	if historyImport != "" {
		n, err := db.ImportRuns(historyImport)
		if err != nil {
			exitWithError(ExitDataError, "%v", err)
		}
		if !humanOutput {
			return outputJSON(map[string]int{"imported": n})
		}
		outputHuman("Imported %d runs from %s\n", n, historyImport)
		return nil
	}

	if historyID != 0 {
		run, err := db.GetRun(historyID)
		if err != nil {
			exitWithError(ExitError, "%v", err)
		}
		if run == nil {
			exitWithError(ExitDataError, "run %d not found", historyID)
		}
		if !humanOutput {
			return outputJSON(run)
		}
		printRunHuman(*run)
		return nil
	}

	if historyCounts {
		counts, err := db.KeyCounts()
		if err != nil {
			exitWithError(ExitError, "%v", err)
		}
		if !humanOutput {
			if counts == nil {
				counts = []storage.KeyCount{}
			}
			return outputJSON(counts)
		}
		for _, kc := range counts {
			outputHuman("%4d  %s\n", kc.Runs, kc.Key)
		}
		return nil
	}

	var runs []storage.Run
	switch {
	case historyKey != "":
		runs, err = db.RunsWithKey(historyKey, historyLimit)
	case historySearch != "":
		runs, err = db.SearchRuns(historySearch, historyLimit)
	default:
		runs, err = db.ListRuns(historyLimit)
	}
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}
	if runs == nil {
		runs = []storage.Run{}
	}

	if historyExport != "" {
		if err := storage.WriteAll(historyExport, runs); err != nil {
			exitWithError(ExitError, "%v", err)
		}
	}

	if !humanOutput {
		return outputJSON(runs)
	}

	if len(runs) == 0 {
		outputHuman("No runs recorded.\n")
		return nil
	}
	for _, r := range runs {
		printRunHuman(r)
	}
	if historyExport != "" {
		outputHuman("Exported %d runs to %s\n", len(runs), historyExport)
	}
	return nil
}

func printRunHuman(r storage.Run) {
	doc := r.DocumentPath
	if doc == "" {
		doc = "(stdin)"
	}
	fmt.Printf("#%d  %s  %s\n", r.ID, r.RecordedAt.Format("2006-01-02 15:04"), doc)
	fmt.Printf("    converted: %d  keys: %s\n", r.Converted, formatKeyList(r.Keys))
	// The first message is the summary
	for _, msg := range r.Messages[min(1, len(r.Messages)):] {
		fmt.Printf("    %s\n", truncateString(msg, MessageMaxLen))
	}
}
