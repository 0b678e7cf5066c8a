package cache

import (
	"bytes"
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/dgnsrekt/sayline/internal/tts"
)

// waitFor polls cond until it is true or the deadline passes.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// The second Ensure is a hit and returns the same file.
func TestCoordinator_EnsureIsIdempotent(t *testing.T) {
	gen := &fakeGenerator{}
	coord := newTestCoordinator(t, gen)
	req := tts.NewRequest("Hello world", tts.Params{Language: "en"})

	first, err := coord.Ensure(context.Background(), req)
	if err != nil {
		t.Fatalf("first Ensure failed: %v", err)
	}
	before, err := os.ReadFile(first)
	if err != nil {
		t.Fatal(err)
	}
	info1, _ := os.Stat(first)

	second, err := coord.Ensure(context.Background(), req)
	if err != nil {
		t.Fatalf("second Ensure failed: %v", err)
	}

	if first != second {
		t.Errorf("paths differ: %q vs %q", first, second)
	}
	if calls := gen.calls.Load(); calls != 1 {
		t.Errorf("generator called %d times, want 1", calls)
	}

	after, _ := os.ReadFile(second)
	info2, _ := os.Stat(second)
	if !bytes.Equal(before, after) || !info1.ModTime().Equal(info2.ModTime()) {
		t.Error("artifact modified by second Ensure")
	}

	stats := coord.Stats()
	if stats.Hits != 1 || stats.Generations != 1 {
		t.Errorf("stats = %+v, want 1 hit and 1 generation", stats)
	}
	if stats.HitRate() != 0.5 {
		t.Errorf("HitRate() = %v, want 0.5", stats.HitRate())
	}
}

// A failing generator leaves nothing behind.
func TestCoordinator_EnsureGenerationFailed(t *testing.T) {
	gen := &fakeGenerator{fail: true}
	coord := newTestCoordinator(t, gen)
	req := english("Hello world")

	path, err := coord.Ensure(context.Background(), req)
	if !errors.Is(err, tts.ErrGenerationFailed) {
		t.Fatalf("expected ErrGenerationFailed, got %v", err)
	}
	if !errors.Is(err, errFakeEngine) {
		t.Errorf("engine error not wrapped: %v", err)
	}
	if path != "" {
		t.Errorf("got path %q on failure", path)
	}
	if coord.IsCached(req) {
		t.Error("IsCached true after failed generation")
	}
	if coord.Inflight(req) {
		t.Error("claim not released after failure")
	}
	if names := dirEntries(t, coord.Store().Root()); len(names) != 0 {
		t.Errorf("cache dir not empty: %v", names)
	}
	if coord.Stats().Failures != 1 {
		t.Errorf("Failures = %d, want 1", coord.Stats().Failures)
	}

	// No automatic retry: the next call runs the generator again.
	gen.fail = false
	if _, err := coord.Ensure(context.Background(), req); err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if calls := gen.calls.Load(); calls != 2 {
		t.Errorf("generator called %d times, want 2", calls)
	}
}

func TestCoordinator_EnsureEmptyText(t *testing.T) {
	gen := &fakeGenerator{}
	coord := newTestCoordinator(t, gen)

	_, err := coord.Ensure(context.Background(), english(""))
	if !errors.Is(err, tts.ErrEmptyText) {
		t.Errorf("expected ErrEmptyText, got %v", err)
	}
	if gen.calls.Load() != 0 {
		t.Error("generator called for empty text")
	}
}

// The same text in two languages is cached twice.
func TestCoordinator_ParamsSeparateArtifacts(t *testing.T) {
	gen := &fakeGenerator{}
	coord := newTestCoordinator(t, gen)

	en := tts.NewRequest("Bonjour", tts.Params{Language: "en"})
	fr := tts.NewRequest("Bonjour", tts.Params{Language: "fr"})

	enPath, err := coord.Ensure(context.Background(), en)
	if err != nil {
		t.Fatal(err)
	}
	frPath, err := coord.Ensure(context.Background(), fr)
	if err != nil {
		t.Fatal(err)
	}

	if enPath == frPath {
		t.Fatalf("both languages share %q", enPath)
	}
	if RequestKey(en) == RequestKey(fr) {
		t.Error("keys should differ")
	}
	if gen.calls.Load() != 2 {
		t.Errorf("generator called %d times, want 2", gen.calls.Load())
	}
	if !coord.IsCached(en) || !coord.IsCached(fr) {
		t.Error("both artifacts should be cached")
	}

	enData, _ := os.ReadFile(enPath)
	frData, _ := os.ReadFile(frPath)
	if string(enData) != "audio:en:Bonjour" || string(frData) != "audio:fr:Bonjour" {
		t.Errorf("unexpected contents %q / %q", enData, frData)
	}
}

func TestCoordinator_ConcurrentEnsureSharesGeneration(t *testing.T) {
	gen := &fakeGenerator{
		gate:    make(chan struct{}),
		started: make(chan struct{}, 64),
	}
	coord := newTestCoordinator(t, gen)
	req := english("Concurrent sentence")

	const n = 20
	var wg sync.WaitGroup
	paths := make([]string, n)
	errs := make([]error, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			paths[id], errs[id] = coord.Ensure(context.Background(), req)
		}(i)
	}

	<-gen.started
	// Let the others pile up behind the running generation.
	waitFor(t, "waiters", func() bool { return coord.Stats().Shared > 0 })
	close(gen.gate)
	wg.Wait()

	if calls := gen.calls.Load(); calls != 1 {
		t.Fatalf("generator called %d times, want 1", calls)
	}
	for i := 0; i < n; i++ {
		if errs[i] != nil {
			t.Errorf("caller %d failed: %v", i, errs[i])
		}
		if paths[i] != paths[0] {
			t.Errorf("caller %d got %q, want %q", i, paths[i], paths[0])
		}
	}
	if coord.Inflight(req) {
		t.Error("claim not released")
	}
}

func TestCoordinator_WaitersShareFailure(t *testing.T) {
	gen := &fakeGenerator{
		fail:    true,
		gate:    make(chan struct{}),
		started: make(chan struct{}, 8),
	}
	coord := newTestCoordinator(t, gen)
	req := english("Doomed sentence")

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			_, errs[id] = coord.Ensure(context.Background(), req)
		}(i)
	}

	<-gen.started
	waitFor(t, "waiter", func() bool { return coord.Stats().Shared == 1 })
	close(gen.gate)
	wg.Wait()

	for i, err := range errs {
		if !errors.Is(err, tts.ErrGenerationFailed) {
			t.Errorf("caller %d: expected ErrGenerationFailed, got %v", i, err)
		}
	}
	if gen.calls.Load() != 1 {
		t.Errorf("generator called %d times, want 1", gen.calls.Load())
	}
}

func TestCoordinator_WaiterContextCancelled(t *testing.T) {
	gen := &fakeGenerator{
		gate:    make(chan struct{}),
		started: make(chan struct{}, 4),
	}
	coord := newTestCoordinator(t, gen)
	prefetcher := NewPrefetcher(coord, PrefetchConfig{Logger: quietLogger()})
	req := english("Slow sentence")

	if !prefetcher.Prefetch(req) {
		t.Fatal("prefetch did not start")
	}
	<-gen.started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := coord.Ensure(ctx, req); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}

	// The background generation is unaffected.
	close(gen.gate)
	prefetcher.Wait()
	if !coord.IsCached(req) {
		t.Error("prefetch should still have published the artifact")
	}
	if gen.calls.Load() != 1 {
		t.Errorf("generator called %d times, want 1", gen.calls.Load())
	}
}

func TestCoordinator_CancelledStarterDoesNotFailWaiters(t *testing.T) {
	gen := &fakeGenerator{
		gate:    make(chan struct{}),
		started: make(chan struct{}, 4),
	}
	coord := newTestCoordinator(t, gen)
	req := english("Shared sentence")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	starterErr := make(chan error, 1)
	go func() {
		_, err := coord.Ensure(ctx, req)
		starterErr <- err
	}()
	<-gen.started

	type result struct {
		path string
		err  error
	}
	waiter := make(chan result, 1)
	go func() {
		path, err := coord.Ensure(context.Background(), req)
		waiter <- result{path, err}
	}()
	waitFor(t, "waiter", func() bool { return coord.Stats().Shared == 1 })

	cancel()
	if err := <-starterErr; !errors.Is(err, context.Canceled) {
		t.Fatalf("starter: expected context.Canceled, got %v", err)
	}
	if !coord.Inflight(req) {
		t.Fatal("generation stopped when its starter gave up")
	}

	close(gen.gate)
	got := <-waiter
	if got.err != nil {
		t.Fatalf("waiter failed: %v", got.err)
	}
	if data, err := os.ReadFile(got.path); err != nil || string(data) != "audio:en:Shared sentence" {
		t.Errorf("artifact = %q, %v", data, err)
	}
	if gen.calls.Load() != 1 {
		t.Errorf("generator called %d times, want 1", gen.calls.Load())
	}
	if s := coord.Stats(); s.Failures != 0 {
		t.Errorf("Failures = %d, want 0", s.Failures)
	}
}

func TestCoordinator_GeneratorPanic(t *testing.T) {
	gen := tts.GeneratorFunc(func(context.Context, string, tts.Params, string) error {
		panic("model exploded")
	})
	coord := newTestCoordinator(t, gen)
	req := english("Panic")

	_, err := coord.Ensure(context.Background(), req)
	if !errors.Is(err, tts.ErrGenerationFailed) {
		t.Fatalf("expected ErrGenerationFailed, got %v", err)
	}
	if s := coord.Stats(); s.Failures != 1 {
		t.Errorf("Failures = %d, want 1", s.Failures)
	}
	if coord.Inflight(req) {
		t.Error("claim not released after panic")
	}
	if names := dirEntries(t, coord.Store().Root()); len(names) != 0 {
		t.Errorf("temp file left after panic: %v", names)
	}
}

func TestCoordinator_IsCachedIgnoresInflight(t *testing.T) {
	gen := &fakeGenerator{
		gate:    make(chan struct{}),
		started: make(chan struct{}, 1),
	}
	coord := newTestCoordinator(t, gen)
	prefetcher := NewPrefetcher(coord, PrefetchConfig{Logger: quietLogger()})
	req := english("Pending sentence")

	prefetcher.Prefetch(req)
	<-gen.started

	if coord.IsCached(req) {
		t.Error("IsCached true while generation is still running")
	}
	if !coord.Inflight(req) {
		t.Error("Inflight false while generation is running")
	}

	close(gen.gate)
	prefetcher.Wait()

	if !coord.IsCached(req) || coord.Inflight(req) {
		t.Error("expected cached and not inflight after completion")
	}
}
