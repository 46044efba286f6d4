package clipboard

import (
	"errors"
	"os/exec"
	"testing"
)

func withPath(t *testing.T, available ...string) {
	t.Helper()
	orig := lookPath
	t.Cleanup(func() { lookPath = orig })

	lookPath = func(file string) (string, error) {
		for _, a := range available {
			if a == file {
				return "/usr/bin/" + file, nil
			}
		}
		return "", exec.ErrNotFound
	}
}

func TestFindTool(t *testing.T) {
	tests := []struct {
		name      string
		goos      string
		available []string
		want      string
	}{
		{"macOS", "darwin", []string{"pbcopy", "pbpaste"}, "pbcopy"},
		{"wayland preferred", "linux", []string{"wl-copy", "wl-paste", "xclip"}, "wl-copy"},
		{"xclip", "linux", []string{"xclip", "xsel"}, "xclip"},
		{"xsel fallback", "linux", []string{"xsel"}, "xsel"},
		{"half-installed wayland skipped", "linux", []string{"wl-copy", "xsel"}, "xsel"},
		{"none", "linux", nil, ""},
		{"unsupported platform", "windows", []string{"clip"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withPath(t, tt.available...)

			got, err := findTool(tt.goos)
			if tt.want == "" {
				if !errors.Is(err, ErrClipboardUnavailable) {
					t.Errorf("findTool() error = %v, want ErrClipboardUnavailable", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("findTool() error = %v", err)
			}
			if got.name != tt.want {
				t.Errorf("findTool() = %s, want %s", got.name, tt.want)
			}
		})
	}
}

func TestCopyPaste(t *testing.T) {
	if !IsAvailable() {
		t.Skip("clipboard not available on this system")
	}

	text := `Smith (2020) and \citep{doe2019}`
	if err := Copy(text); err != nil {
		// Helpers can be installed without a display to talk to
		t.Skipf("clipboard not usable: %v", err)
	}
	got, err := Paste()
	if err != nil {
		t.Fatalf("Paste failed: %v", err)
	}
	if got != text {
		t.Errorf("Paste() = %q, want %q", got, text)
	}
}
