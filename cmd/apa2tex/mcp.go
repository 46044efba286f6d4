package main

import (
	"github.com/spf13/cobra"

	"github.com/matsen/apa2tex/internal/mcptool"
)

func init() {
	rootCmd.AddCommand(mcpCmd)
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the converter as MCP tools over stdio",
	Long: `Run a Model Context Protocol server on stdin/stdout exposing three tools:

  convert_citations  convert a document's APA citations
  resolve_citation   resolve one author and year to a BibTeX key
  cited_entries      extract the BibTeX entries a LaTeX document cites

Tool inputs are passed inline as text. Converter settings come from the
config file. Logs go to stderr.

Example client entry:
  {"command": "apa2tex", "args": ["mcp"]}`,
	Args: cobra.NoArgs,
	RunE: runMCP,
}

func runMCP(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	opts, err := cfg.ConvertOptions()
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}
	tiers, _ := cfg.Tiers()

	s := mcptool.NewServer(Version, mcptool.Deps{
		ConvertOptions: opts,
		Tiers:          tiers,
	})
	if err := mcptool.Serve(s); err != nil {
		exitWithError(ExitError, "MCP server: %v", err)
	}
	return nil
}
