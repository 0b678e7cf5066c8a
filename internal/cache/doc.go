// Package cache stores synthesized speech on disk, one file per fingerprint.
// Files are published with a temp-write and rename so a partial file is never
// visible, and a Coordinator makes sure concurrent requests for the same
// fingerprint share a single generation.
package cache
