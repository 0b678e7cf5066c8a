package reader

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"sync"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/sayline/internal/cache"
	"github.com/dgnsrekt/sayline/internal/tts"
)

// recordingGenerator writes the text to dest and counts calls per text.
type recordingGenerator struct {
	mu    sync.Mutex
	calls map[string]int
	fail  map[string]bool
	gate  chan struct{}
}

func newRecordingGenerator() *recordingGenerator {
	return &recordingGenerator{calls: make(map[string]int), fail: make(map[string]bool)}
}

func (g *recordingGenerator) Generate(ctx context.Context, text string, _ tts.Params, dest string) error {
	g.mu.Lock()
	g.calls[text]++
	fail := g.fail[text]
	gate := g.gate
	g.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if fail {
		return errors.New("engine crashed")
	}
	return os.WriteFile(dest, []byte(text), 0o644)
}

func (g *recordingGenerator) Name() string { return "recording" }

func (g *recordingGenerator) count(text string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls[text]
}

func (g *recordingGenerator) total() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := 0
	for _, c := range g.calls {
		n += c
	}
	return n
}

// recordingPlayer remembers what it was asked to play.
type recordingPlayer struct {
	mu     sync.Mutex
	played []string
	err    error
}

func (p *recordingPlayer) Play(_ context.Context, path string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	data, _ := os.ReadFile(path)
	p.played = append(p.played, string(data))
	return p.err
}

func (p *recordingPlayer) texts() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.played...)
}

// scriptedKeys replays keys, then reports io.EOF.
type scriptedKeys struct {
	keys []Key
}

func (s *scriptedKeys) ReadKey() (Key, error) {
	if len(s.keys) == 0 {
		return KeyNone, io.EOF
	}
	k := s.keys[0]
	s.keys = s.keys[1:]
	return k, nil
}

type fixture struct {
	reader     *Reader
	gen        *recordingGenerator
	player     *recordingPlayer
	coord      *cache.Coordinator
	prefetcher *cache.Prefetcher
	out        *bytes.Buffer
}

func newFixture(t *testing.T, sentences []string, prefetch bool, keys ...Key) *fixture {
	t.Helper()

	store, err := cache.NewStore(t.TempDir(), cache.DefaultExt)
	if err != nil {
		t.Fatal(err)
	}
	logger := log.New(io.Discard)
	f := &fixture{
		gen:    newRecordingGenerator(),
		player: &recordingPlayer{},
		out:    &bytes.Buffer{},
	}
	f.coord = cache.NewCoordinator(store, f.gen)
	f.coord.SetLogger(logger)
	if prefetch {
		f.prefetcher = cache.NewPrefetcher(f.coord, cache.PrefetchConfig{Logger: logger})
		t.Cleanup(f.prefetcher.Wait)
	}

	f.reader, err = New(Options{
		Sentences:   sentences,
		Params:      tts.Params{Engine: tts.EngineCoqui, Language: "en", Speaker: "Ana Florence"},
		Coordinator: f.coord,
		Prefetcher:  f.prefetcher,
		Player:      f.player,
		Keys:        &scriptedKeys{keys: keys},
		Out:         f.out,
		Width:       func() int { return 80 },
		Logger:      logger,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return f
}

// settle waits for background prefetches.
func (f *fixture) settle() {
	if f.prefetcher != nil {
		f.prefetcher.Wait()
	}
}
