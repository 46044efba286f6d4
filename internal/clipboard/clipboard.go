// Package clipboard reads and writes the system clipboard via shell commands,
// so a document can be pasted in and the converted text copied back out.
package clipboard

import (
	"bytes"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

// ErrClipboardUnavailable is returned when clipboard access is not available.
var ErrClipboardUnavailable = errors.New("clipboard unavailable")

// tool is a clipboard helper program with its copy and paste invocations.
type tool struct {
	name  string
	copy  []string
	paste []string
}

// tools lists the helpers tried on each platform, in order.
var tools = map[string][]tool{
	"darwin": {
		{name: "pbcopy", copy: []string{"pbcopy"}, paste: []string{"pbpaste"}},
	},
	"linux": {
		{name: "wl-copy", copy: []string{"wl-copy"}, paste: []string{"wl-paste", "--no-newline"}},
		{name: "xclip", copy: []string{"xclip", "-selection", "clipboard"}, paste: []string{"xclip", "-selection", "clipboard", "-o"}},
		{name: "xsel", copy: []string{"xsel", "--clipboard", "--input"}, paste: []string{"xsel", "--clipboard", "--output"}},
	},
}

// lookPath is replaced in tests.
var lookPath = exec.LookPath

// findTool returns the first helper available for goos.
func findTool(goos string) (tool, error) {
	for _, t := range tools[goos] {
		if _, err := lookPath(t.copy[0]); err != nil {
			continue
		}
		if _, err := lookPath(t.paste[0]); err != nil {
			continue
		}
		return t, nil
	}
	return tool{}, ErrClipboardUnavailable
}

// IsAvailable checks if clipboard functionality is available on this system.
func IsAvailable() bool {
	_, err := findTool(runtime.GOOS)
	return err == nil
}

// Copy copies the given text to the system clipboard.
// Returns ErrClipboardUnavailable if clipboard access is not available.
func Copy(text string) error {
	t, err := findTool(runtime.GOOS)
	if err != nil {
		return err
	}

	cmd := exec.Command(t.copy[0], t.copy[1:]...)
	cmd.Stdin = strings.NewReader(text)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s: %w", t.name, err)
	}
	return nil
}

// Paste returns the current clipboard text.
// Returns ErrClipboardUnavailable if clipboard access is not available.
func Paste() (string, error) {
	t, err := findTool(runtime.GOOS)
	if err != nil {
		return "", err
	}

	var out bytes.Buffer
	cmd := exec.Command(t.paste[0], t.paste[1:]...)
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%s: %w", t.name, err)
	}
	return out.String(), nil
}
