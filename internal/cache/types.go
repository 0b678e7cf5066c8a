package cache

import (
	"time"
)

// Key is a fixed-length fingerprint of a generation request.
type Key string

// String returns the key as used in file names.
func (k Key) String() string {
	return string(k)
}

// Stats holds cache performance metrics
type Stats struct {
	// Coordinator
	Hits        int64 // Ensure calls answered from disk
	Generations int64 // Producer runs started
	Failures    int64 // Producer runs that failed
	Shared      int64 // Callers that waited on another caller's generation

	// Prefetcher
	Prefetched      int64 // Background jobs started
	PrefetchSkipped int64 // Prefetch calls that found the key cached or in flight
	PrefetchFailed  int64 // Background jobs that failed

	// Timing
	LastGeneration time.Duration // Duration of the most recent successful generation
}

// HitRate returns hits / (hits + generations).
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Generations
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}
