package cache

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dgnsrekt/sayline/internal/tts"
)

// DefaultExt is the artifact file extension.
const DefaultExt = ".wav"

// tempMarker separates temporary files from artifacts. A temp file is named
// <key>.<random>.tmp<ext> and never matches PathFor.
const tempMarker = ".tmp"

// Producer writes a complete artifact to dest.
type Producer func(ctx context.Context, dest string) error

// Store maps keys to files under a root directory. It publishes new files
// atomically but does no locking of its own; see Coordinator.
type Store struct {
	root string
	ext  string
}

// NewStore creates a store rooted at root, creating the directory if needed.
func NewStore(root, ext string) (*Store, error) {
	if root == "" {
		return nil, tts.NewError(tts.ErrorCodeStorageFailed, "cache directory not set", nil)
	}
	if ext == "" {
		ext = DefaultExt
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}

	// Create cache directory if it doesn't exist
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, tts.NewError(tts.ErrorCodeStorageFailed, "failed to create cache directory", err).
			WithContext("dir", root)
	}

	return &Store{root: root, ext: ext}, nil
}

// Root returns the cache directory.
func (s *Store) Root() string {
	return s.root
}

// PathFor returns where the artifact for key lives. The file may not exist.
func (s *Store) PathFor(key Key) string {
	return filepath.Join(s.root, key.String()+s.ext)
}

// Lookup returns the artifact path for key if a valid artifact exists. A
// missing, empty or non-regular file is treated as not cached.
func (s *Store) Lookup(key Key) (string, bool) {
	path := s.PathFor(key)
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() || info.Size() == 0 {
		return "", false
	}
	return path, true
}

// IsTemp reports whether name is a temporary file written by Publish.
func (s *Store) IsTemp(name string) bool {
	return strings.HasSuffix(filepath.Base(name), tempMarker+s.ext)
}

// Publish returns the artifact for key, running produce to create it when it
// is not cached. produce writes to a sibling temp file which is renamed into
// place only after it succeeds, so readers only ever see complete files. On
// failure the temp file is removed and no artifact is created.
func (s *Store) Publish(ctx context.Context, key Key, produce Producer) (string, error) {
	if path, ok := s.Lookup(key); ok {
		return path, nil
	}

	final := s.PathFor(key)

	// Same directory as final, so the rename stays on one filesystem.
	tmp, err := os.CreateTemp(s.root, key.String()+".*"+tempMarker+s.ext)
	if err != nil {
		return "", tts.NewError(tts.ErrorCodeStorageFailed, "failed to create temp file", err).
			WithContext("key", key.String())
	}
	tempPath := tmp.Name()

	// Runs on every exit path, including a panicking producer.
	published := false
	defer func() {
		if !published {
			_ = os.Remove(tempPath)
		}
	}()

	if err := tmp.Close(); err != nil {
		return "", tts.NewError(tts.ErrorCodeStorageFailed, "failed to create temp file", err).
			WithContext("key", key.String())
	}

	if err := produce(ctx, tempPath); err != nil {
		return "", tts.NewError(tts.ErrorCodeGenerationFailed, "generator failed", err).
			WithContext("key", key.String())
	}

	info, err := os.Stat(tempPath)
	if err != nil || info.Size() == 0 {
		return "", tts.NewError(tts.ErrorCodeGenerationFailed, "generator produced no audio", err).
			WithContext("key", key.String())
	}

	// CreateTemp uses 0600
	_ = os.Chmod(tempPath, 0o644)

	// Atomic rename
	if err := os.Rename(tempPath, final); err != nil {
		return "", tts.NewError(tts.ErrorCodeStorageFailed, fmt.Sprintf("failed to publish %s", filepath.Base(final)), err).
			WithContext("key", key.String())
	}
	published = true

	return final, nil
}
