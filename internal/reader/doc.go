// Package reader is the interactive sentence loop: it shows one sentence at
// a time, speaks it on request and keeps the next one warm in the cache.
package reader
