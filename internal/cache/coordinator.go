package cache

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/sayline/internal/tts"
)

// errAborted fails a flight whose generator panicked.
var errAborted = fmt.Errorf("%w: generation aborted", tts.ErrGenerationFailed)

// flight is one in-progress generation. done is closed once path and err
// are final; every caller interested in the key waits on the same flight.
type flight struct {
	done chan struct{}
	path string
	err  error
}

// Coordinator guarantees at most one generation per key at a time. Callers
// that arrive while a generation is running wait for it and share its
// result instead of starting their own.
type Coordinator struct {
	store     *Store
	generator tts.Generator
	logger    *log.Logger

	// mu guards inflight. A key is added before its producer starts and
	// removed after it finishes, on every exit path.
	mu       sync.Mutex
	inflight map[Key]*flight

	hits        atomic.Int64
	generations atomic.Int64
	failures    atomic.Int64
	shared      atomic.Int64
	lastGen     atomic.Int64
}

// NewCoordinator creates a coordinator that renders misses with generator.
func NewCoordinator(store *Store, generator tts.Generator) *Coordinator {
	return &Coordinator{
		store:     store,
		generator: generator,
		logger:    log.Default(),
		inflight:  make(map[Key]*flight),
	}
}

// SetLogger replaces the logger used for generation events.
func (c *Coordinator) SetLogger(logger *log.Logger) {
	if logger != nil {
		c.logger = logger
	}
}

// Store returns the underlying artifact store.
func (c *Coordinator) Store() *Store {
	return c.store
}

// Ensure returns the artifact path for req, generating it if needed. When
// another caller is already generating the same key, Ensure waits for that
// generation and returns its outcome. If ctx is done while waiting, Ensure
// returns ctx.Err() and the generation carries on for everyone else, even
// when this caller started it.
func (c *Coordinator) Ensure(ctx context.Context, req tts.Request) (string, error) {
	if req.Text == "" {
		return "", tts.NewError(tts.ErrorCodeInvalidInput, "nothing to synthesize", tts.ErrEmptyText)
	}

	key := RequestKey(req)
	if path, ok := c.store.Lookup(key); ok {
		c.hits.Add(1)
		return path, nil
	}

	f, leader := c.claim(key)
	if leader {
		go c.run(context.WithoutCancel(ctx), key, req, f)
	} else {
		c.shared.Add(1)
		c.logger.Debug("Waiting on in-flight generation", "key", key)
	}

	select {
	case <-f.done:
		return f.path, f.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// IsCached reports whether a valid artifact for req exists on disk. It does
// not look at in-flight generations and is only a hint: the answer can
// change right after it is returned.
func (c *Coordinator) IsCached(req tts.Request) bool {
	_, ok := c.store.Lookup(RequestKey(req))
	return ok
}

// Inflight reports whether req is currently being generated.
func (c *Coordinator) Inflight(req tts.Request) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, ok := c.inflight[RequestKey(req)]
	return ok
}

// Stats returns coordinator counters.
func (c *Coordinator) Stats() Stats {
	return Stats{
		Hits:           c.hits.Load(),
		Generations:    c.generations.Load(),
		Failures:       c.failures.Load(),
		Shared:         c.shared.Load(),
		LastGeneration: time.Duration(c.lastGen.Load()),
	}
}

// claim returns the flight for key, creating it if there is none. leader is
// true for the caller that created it; that caller must call run.
func (c *Coordinator) claim(key Key) (f *flight, leader bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if f, ok := c.inflight[key]; ok {
		return f, false
	}

	f = &flight{done: make(chan struct{}), err: errAborted}
	c.inflight[key] = f
	return f, true
}

// run performs the generation for a claimed flight and releases the claim.
// A panicking generator fails the flight instead of the process.
func (c *Coordinator) run(ctx context.Context, key Key, req tts.Request, f *flight) {
	defer func() {
		if r := recover(); r != nil {
			f.path, f.err = "", fmt.Errorf("%w: panic: %v", errAborted, r)
			c.logger.Error("Generator panicked", "key", key, "panic", r)
		}
		if f.err != nil {
			c.failures.Add(1)
		}

		c.mu.Lock()
		delete(c.inflight, key)
		c.mu.Unlock()
		close(f.done)
	}()

	start := time.Now()

	c.logger.Debug("Generation started",
		"key", key,
		"engine", c.generator.Name(),
		"textLength", len(req.Text))

	f.path, f.err = c.store.Publish(ctx, key, func(ctx context.Context, dest string) error {
		c.generations.Add(1)
		return c.generator.Generate(ctx, req.Text, req.Params, dest)
	})

	elapsed := time.Since(start)
	if f.err != nil {
		c.logger.Debug("Generation failed", "key", key, "duration", elapsed, "error", f.err)
		return
	}

	c.lastGen.Store(int64(elapsed))
	c.logger.Debug("Generation completed", "key", key, "duration", elapsed, "path", f.path)
}
