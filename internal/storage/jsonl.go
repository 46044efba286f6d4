// Package storage records conversion runs in SQLite and exports them as JSONL.
package storage

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/matsen/apa2tex/internal/convert"
)

// MaxJSONLLineCapacity is the maximum buffer size for reading JSONL lines (1MB per line).
const MaxJSONLLineCapacity = 1024 * 1024

// Run is one recorded conversion.
type Run struct {
	ID           int64     `json:"id"`
	RecordedAt   time.Time `json:"recorded_at"`
	DocumentPath string    `json:"document_path,omitempty"`
	RefsPath     string    `json:"refs_path,omitempty"`
	BibPath      string    `json:"bib_path,omitempty"`
	Converted    int       `json:"converted"`
	Keys         []string  `json:"keys"`
	Messages     []string  `json:"messages"`
}

// NewRun builds a Run from a conversion result and the input paths.
func NewRun(res convert.Result, docPath, refsPath, bibPath string) Run {
	return Run{
		DocumentPath: docPath,
		RefsPath:     refsPath,
		BibPath:      bibPath,
		Converted:    res.Converted,
		Keys:         res.Keys,
		Messages:     res.Messages,
	}
}

// ReadAll reads all runs from a JSONL file.
func ReadAll(path string) ([]Run, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil // Missing file returns empty slice
		}
		return nil, fmt.Errorf("opening runs file: %w", err)
	}
	defer f.Close()

	var runs []Run
	scanner := bufio.NewScanner(f)

	// Increase buffer size for long lines
	buf := make([]byte, MaxJSONLLineCapacity)
	scanner.Buffer(buf, MaxJSONLLineCapacity)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue // Skip empty lines
		}

		var run Run
		if err := json.Unmarshal(line, &run); err != nil {
			return nil, fmt.Errorf("parsing line %d: %w", lineNum, err)
		}
		runs = append(runs, run)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading runs file: %w", err)
	}

	return runs, nil
}

// WriteAll writes all runs to a JSONL file, replacing existing content.
func WriteAll(path string, runs []Run) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating runs file: %w", err)
	}
	defer f.Close()

	for i, run := range runs {
		data, err := json.Marshal(run)
		if err != nil {
			return fmt.Errorf("encoding run %d: %w", i, err)
		}

		if _, err := f.Write(data); err != nil {
			return fmt.Errorf("writing run %d: %w", i, err)
		}
		if _, err := f.WriteString("\n"); err != nil {
			return fmt.Errorf("writing newline: %w", err)
		}
	}

	return nil
}
