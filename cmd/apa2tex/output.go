package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/matsen/apa2tex/internal/reference"
)

// Constants for output formatting.
const (
	DefaultHistoryLimit = 20 // Default limit for the history command
	MessageMaxLen       = 70 // Used in history summaries
)

// outputJSON writes a value as formatted JSON to stdout.
func outputJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// outputHuman writes a human-readable string to stdout.
func outputHuman(format string, args ...interface{}) {
	fmt.Printf(format, args...)
}

// exitWithError outputs an error in the appropriate format (human or JSON) and exits.
func exitWithError(code int, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if humanOutput {
		fmt.Fprintf(os.Stderr, "error: %s\n", msg)
	} else {
		outputJSON(ErrorResponse{Error: msg})
	}
	os.Exit(code)
}

// ErrorResponse is a JSON error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ConvertResponse is the response for the convert command.
type ConvertResponse struct {
	Output    string   `json:"output,omitempty"`   // Omitted when written to --out
	OutPath   string   `json:"out_path,omitempty"` // Set when written to --out
	Converted int      `json:"converted"`
	Keys      []string `json:"keys"`
	Messages  []string `json:"messages"`
	RunID     int64    `json:"run_id,omitempty"`
}

// ResolveResponse is the response for the resolve command.
type ResolveResponse struct {
	Author string `json:"author"`
	Year   string `json:"year"`
	Line   string `json:"line"`
	Tier   string `json:"tier"`
	Key    string `json:"key"`

	Authors []reference.Author `json:"authors,omitempty"`
}

// CitedResponse is the response for the cited command.
type CitedResponse struct {
	Keys    []string `json:"keys"`
	Missing []string `json:"missing"`
	BibTeX  string   `json:"bibtex"`
}

// truncateString truncates a string to maxLen, adding "..." if truncated.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

// formatKeyList formats a list of keys as a comma-separated string.
func formatKeyList(keys []string) string {
	if len(keys) == 0 {
		return "-"
	}
	return strings.Join(keys, ", ")
}
