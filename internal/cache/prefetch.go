package cache

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/sayline/internal/tts"
	"golang.org/x/sync/semaphore"
)

// ErrorHandler receives failures from background jobs. It is called from the
// job's goroutine.
type ErrorHandler func(req tts.Request, err error)

// PrefetchConfig configures a Prefetcher.
type PrefetchConfig struct {
	// MaxConcurrent bounds how many jobs run the generator at once.
	// 0 means unbounded.
	MaxConcurrent int64

	// OnError is called for every failed job. Optional.
	OnError ErrorHandler

	// Logger for job events. Defaults to log.Default().
	Logger *log.Logger
}

// Prefetcher generates artifacts in the background ahead of need. It shares
// the Coordinator's in-flight set, so a foreground Ensure for a key being
// prefetched waits for the prefetch instead of generating again.
type Prefetcher struct {
	coord   *Coordinator
	sem     *semaphore.Weighted
	onError ErrorHandler
	logger  *log.Logger

	// Background jobs outlive the calls that start them and are never
	// cancelled.
	ctx context.Context
	wg  sync.WaitGroup

	started atomic.Int64
	skipped atomic.Int64
	failed  atomic.Int64
}

// NewPrefetcher creates a prefetcher on top of coord.
func NewPrefetcher(coord *Coordinator, config PrefetchConfig) *Prefetcher {
	p := &Prefetcher{
		coord:   coord,
		onError: config.OnError,
		logger:  config.Logger,
		ctx:     context.Background(),
	}
	if p.logger == nil {
		p.logger = log.Default()
	}
	if config.MaxConcurrent > 0 {
		p.sem = semaphore.NewWeighted(config.MaxConcurrent)
	}
	return p
}

// Prefetch starts generating req in the background and returns immediately.
// It does nothing if req is already cached or being generated. Returns true
// if a job was started. Failures are logged and passed to OnError, never
// returned; a later Ensure simply tries again.
func (p *Prefetcher) Prefetch(req tts.Request) bool {
	if req.Text == "" || p.coord.IsCached(req) {
		p.skipped.Add(1)
		return false
	}

	key := RequestKey(req)
	f, leader := p.coord.claim(key)
	if !leader {
		p.skipped.Add(1)
		return false
	}

	p.started.Add(1)
	p.wg.Add(1)
	go p.job(key, req, f)
	return true
}

// Wait blocks until every job started so far has finished.
func (p *Prefetcher) Wait() {
	p.wg.Wait()
}

// Stats returns the coordinator counters plus prefetch counters.
func (p *Prefetcher) Stats() Stats {
	s := p.coord.Stats()
	s.Prefetched = p.started.Load()
	s.PrefetchSkipped = p.skipped.Load()
	s.PrefetchFailed = p.failed.Load()
	return s
}

func (p *Prefetcher) job(key Key, req tts.Request, f *flight) {
	defer p.wg.Done()

	if p.sem != nil {
		// Background context never cancels, so Acquire cannot fail.
		_ = p.sem.Acquire(p.ctx, 1)
		defer p.sem.Release(1)
	}

	p.logger.Debug("Prefetch started", "key", key)
	p.coord.run(p.ctx, key, req, f)
	if f.err != nil {
		p.report(key, req, f.err)
		return
	}
	p.logger.Debug("Prefetch completed", "key", key, "path", f.path)
}

func (p *Prefetcher) report(key Key, req tts.Request, err error) {
	p.failed.Add(1)
	p.logger.Warn("Prefetch failed", "key", key, "error", err)
	if p.onError != nil {
		p.onError(req, err)
	}
}
