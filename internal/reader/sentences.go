package reader

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrNoSentences indicates the input file has no non-blank lines.
var ErrNoSentences = errors.New("no sentences found")

// LoadSentences reads path as one sentence per line. Lines are trimmed and
// blank lines dropped.
func LoadSentences(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("file not found: %s", path)
		}
		return nil, fmt.Errorf("unable to open file: %w", err)
	}
	defer f.Close() //nolint:errcheck

	var sentences []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(strings.TrimPrefix(scanner.Text(), "\ufeff"))
		if line != "" {
			sentences = append(sentences, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("unable to read %s: %w", path, err)
	}
	if len(sentences) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoSentences, path)
	}
	return sentences, nil
}
