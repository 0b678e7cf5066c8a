package cache

import (
	"context"
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/sayline/internal/tts"
)

// fakeGenerator writes "audio:<text>" to dest and counts invocations.
type fakeGenerator struct {
	calls atomic.Int64

	// fail makes every call return an error after touching dest
	fail bool

	// empty makes every call succeed without writing anything
	empty bool

	// gate, when set, blocks each call until it is closed
	gate chan struct{}

	// started receives one value per call as soon as it begins
	started chan struct{}

	mu    sync.Mutex
	texts []string
}

var errFakeEngine = errors.New("fake engine exploded")

func (g *fakeGenerator) Generate(ctx context.Context, text string, params tts.Params, dest string) error {
	g.calls.Add(1)
	g.mu.Lock()
	g.texts = append(g.texts, text)
	g.mu.Unlock()

	if g.started != nil {
		g.started <- struct{}{}
	}
	if g.gate != nil {
		select {
		case <-g.gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if g.empty {
		return nil
	}
	if g.fail {
		// Leave a partial file behind, like a crashing engine would.
		_ = os.WriteFile(dest, []byte("partial"), 0o644)
		return errFakeEngine
	}
	return os.WriteFile(dest, []byte("audio:"+params.Language+":"+text), 0o644)
}

func (g *fakeGenerator) Name() string { return "fake" }

func newTestCoordinator(t *testing.T, gen tts.Generator) *Coordinator {
	t.Helper()
	store, err := NewStore(t.TempDir(), DefaultExt)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	c := NewCoordinator(store, gen)
	c.SetLogger(log.New(nopWriter{}))
	return c
}

func quietLogger() *log.Logger {
	return log.New(nopWriter{})
}

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }

func english(text string) tts.Request {
	return tts.NewRequest(text, tts.Params{Engine: tts.EngineCoqui, Language: "en", Speaker: "Ana Florence"})
}

// dirEntries lists the file names in dir.
func dirEntries(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}
