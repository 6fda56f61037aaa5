package utils

import (
	"path/filepath"
	"testing"

	"github.com/mitchellh/go-homedir"
)

func TestExpandPath(t *testing.T) {
	homedir.DisableCache = true
	t.Setenv("HOME", "/home/reader")
	t.Setenv("READALOUD_TEST_DIR", "books")

	tests := []struct {
		input    string
		expected string
	}{
		{"~/notes.md", "/home/reader/notes.md"},
		{"$READALOUD_TEST_DIR/a.pdf", "books/a.pdf"},
		{"/abs/path.txt", "/abs/path.txt"},
	}

	for _, tt := range tests {
		if got := ExpandPath(tt.input); got != tt.expected {
			t.Errorf("ExpandPath(%q): expected %q, got %q", tt.input, tt.expected, got)
		}
	}
}

func TestRemoveFrontmatter(t *testing.T) {
	in := []byte("---\ntitle: x\n---\n# Heading\n")
	if got := string(RemoveFrontmatter(in)); got != "# Heading\n" {
		t.Errorf("Expected front matter to be removed, got %q", got)
	}

	body := []byte("# Heading\n\n---\n\ntext\n---\n")
	if got := RemoveFrontmatter(body); string(got) != string(body) {
		t.Errorf("Expected content without front matter to be unchanged, got %q", got)
	}
}

func TestStateDir(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", "/state")
	if got := StateDir(); got != filepath.Join("/state", "readaloud") {
		t.Errorf("Expected /state/readaloud, got %q", got)
	}
}
