package cache

import (
	"context"
	"fmt"
	"sync"

	"github.com/dgnsrekt/sayline/internal/tts"
	"golang.org/x/sync/errgroup"
)

// WarmupProgress is called after each request has been handled. done counts
// handled requests, skipped counts those that were already cached.
type WarmupProgress func(done, total, skipped int)

// Warmup makes sure every request has an artifact, running up to jobs
// generations at a time (jobs < 1 means one). Cached requests are skipped.
// The first failure stops the warm-up and is returned.
func Warmup(ctx context.Context, coord *Coordinator, reqs []tts.Request, jobs int, progress WarmupProgress) error {
	if jobs < 1 {
		jobs = 1
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)

	var (
		mu      sync.Mutex
		done    int
		skipped int
	)
	finish := func(cached bool) {
		mu.Lock()
		defer mu.Unlock()
		done++
		if cached {
			skipped++
		}
		if progress != nil {
			progress(done, len(reqs), skipped)
		}
	}

	for i, req := range reqs {
		if ctx.Err() != nil {
			break
		}
		i, req := i, req
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if coord.IsCached(req) {
				finish(true)
				return nil
			}
			if _, err := coord.Ensure(ctx, req); err != nil {
				return fmt.Errorf("warmup item %d: %w", i+1, err)
			}
			finish(false)
			return nil
		})
	}

	return g.Wait()
}
