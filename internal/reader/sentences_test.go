package reader

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestLoadSentences(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{
			name:    "one per line",
			content: "Hello world.\nGood morning.\n",
			want:    []string{"Hello world.", "Good morning."},
		},
		{
			name:    "trims and drops blanks",
			content: "  Hello world.  \n\n\t\nGood morning.\r\n   \n",
			want:    []string{"Hello world.", "Good morning."},
		},
		{
			name:    "byte order mark",
			content: "\ufeffこんにちは。\nさようなら。",
			want:    []string{"こんにちは。", "さようなら。"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "text.txt")
			if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
				t.Fatal(err)
			}
			got, err := LoadSentences(path)
			if err != nil {
				t.Fatalf("LoadSentences() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("LoadSentences() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLoadSentences_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadSentences(filepath.Join(dir, "missing.txt"))
	if err == nil || !strings.Contains(err.Error(), "file not found") {
		t.Errorf("missing file: got %v", err)
	}

	blank := filepath.Join(dir, "blank.txt")
	if err := os.WriteFile(blank, []byte("\n   \n\t\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadSentences(blank); !errors.Is(err, ErrNoSentences) {
		t.Errorf("blank file: expected ErrNoSentences, got %v", err)
	}
}
