package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/sayline/internal/cache"
	"github.com/dgnsrekt/sayline/internal/tts"
	"github.com/dustin/go-humanize"
	"golang.org/x/time/rate"
)

// printHeader shows the key bindings and the active settings.
func printHeader(w io.Writer, o options) {
	var voice string
	switch {
	case o.Params.SpeakerWAV != "":
		voice = "speaker_wav=" + o.Params.SpeakerWAV
	case o.Params.Speaker != "":
		voice = "speaker=" + o.Params.Speaker
	default:
		voice = "default"
	}

	fmt.Fprintln(w, keyword("←/→")+": move   "+keyword("Space")+": speak   "+keyword("q")+": quit") //nolint:errcheck
	fmt.Fprintln(w, faint(fmt.Sprintf("engine=%s  lang=%s  voice=%s  warmup=%s  prefetch=%t", //nolint:errcheck
		o.Engine, valueOr(o.Params.Language, "-"), voice, o.Warmup, o.Prefetch)))
	fmt.Fprintln(w, faint("cache_dir="+o.CacheDir)) //nolint:errcheck
	fmt.Fprintln(w)                                 //nolint:errcheck
}

// runWarmup renders every request before the reader starts, printing
// progress on a single line.
func runWarmup(ctx context.Context, w io.Writer, coord *cache.Coordinator, reqs []tts.Request, jobs int) error {
	fmt.Fprintln(w, "Warmup(all): generating audio cache...") //nolint:errcheck

	every := rate.Sometimes{Every: 5}
	progress := func(done, total, skipped int) {
		line := fmt.Sprintf("\rWarmup: %d/%d (skipped %d)", done, total, skipped)
		if done == total {
			fmt.Fprint(w, line) //nolint:errcheck
			return
		}
		every.Do(func() { fmt.Fprint(w, line) }) //nolint:errcheck
	}

	start := coord.Stats()
	err := cache.Warmup(ctx, coord, reqs, jobs, progress)
	fmt.Fprintln(w) //nolint:errcheck
	if err != nil {
		return fmt.Errorf("warmup failed: %w", err)
	}

	end := coord.Stats()
	log.Info("Warmup finished", "sentences", len(reqs), "generated", end.Generations-start.Generations)
	fmt.Fprintln(w, "Warmup done.") //nolint:errcheck
	fmt.Fprintln(w)                 //nolint:errcheck
	return nil
}

// logStats records cache effectiveness for the session.
func logStats(s cache.Stats, store *cache.Store) {
	log.Info("Session finished",
		"hits", s.Hits,
		"generations", s.Generations,
		"failures", s.Failures,
		"shared", s.Shared,
		"prefetched", s.Prefetched,
		"prefetchFailed", s.PrefetchFailed,
		"hitRate", fmt.Sprintf("%.0f%%", s.HitRate()*100),
		"lastGeneration", s.LastGeneration,
		"cacheSize", humanize.Bytes(cacheSize(store)),
	)
}

// cacheSize sums the artifacts in store.
func cacheSize(store *cache.Store) uint64 {
	entries, err := os.ReadDir(store.Root())
	if err != nil {
		return 0
	}
	var total uint64
	for _, e := range entries {
		if e.IsDir() || store.IsTemp(e.Name()) || filepath.Ext(e.Name()) != cache.DefaultExt {
			continue
		}
		if info, err := e.Info(); err == nil {
			total += uint64(info.Size()) //nolint:gosec
		}
	}
	return total
}

func valueOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
