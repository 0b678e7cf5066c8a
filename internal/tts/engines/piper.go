package engines

import (
	"context"
	"fmt"
	"time"

	"github.com/dgnsrekt/sayline/internal/tts"
)

// baseRate is the speaking rate, in words per minute, that maps to a Piper
// length scale of 1.0.
const baseRate = 175

const piperTimeout = 30 * time.Second

// Piper runs the Piper offline synthesizer with an ONNX voice model. Text
// is passed on stdin.
type Piper struct {
	command
}

// NewPiper creates a Piper engine.
func NewPiper(opts Options) *Piper {
	return &Piper{command: newCommand(string(tts.EnginePiper), opts, piperTimeout)}
}

// Generate implements tts.Generator.
func (e *Piper) Generate(ctx context.Context, text string, params tts.Params, dest string) error {
	if params.Model == "" {
		return fmt.Errorf("piper: %w: no voice model set", tts.ErrEngineNotAvailable)
	}
	return e.run(ctx, text, tts.ProcessOptions{
		Args:  e.Args(params, dest),
		Input: text,
	})
}

// Args returns the command line for one synthesis.
func (e *Piper) Args(params tts.Params, dest string) []string {
	args := []string{
		"--model", params.Model,
		"--output_file", dest,
	}
	if params.Speaker != "" {
		args = append(args, "--speaker", params.Speaker)
	}
	if params.Rate > 0 {
		// Length scale is inverse to speed.
		args = append(args, "--length_scale", fmt.Sprintf("%.2f", float64(baseRate)/float64(params.Rate)))
	}
	return args
}
