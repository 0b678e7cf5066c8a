package tts

import (
	"context"
)

// Generator renders speech to a file. Implementations include the Coqui,
// Piper and espeak-ng command line engines.
type Generator interface {
	// Generate writes a complete audio file for text to dest, or fails.
	// It may be slow (model loading, GPU inference) and must honor ctx.
	Generate(ctx context.Context, text string, params Params, dest string) error

	// Name returns the engine identifier (for logging).
	Name() string
}

// Player plays an audio file. Playback is best effort.
type Player interface {
	// Play blocks until the file has been played or ctx is done.
	Play(ctx context.Context, path string) error
}

// GeneratorFunc adapts an ordinary function to the Generator interface.
type GeneratorFunc func(ctx context.Context, text string, params Params, dest string) error

// Generate calls f(ctx, text, params, dest).
func (f GeneratorFunc) Generate(ctx context.Context, text string, params Params, dest string) error {
	return f(ctx, text, params, dest)
}

// Name returns "func".
func (f GeneratorFunc) Name() string {
	return "func"
}
