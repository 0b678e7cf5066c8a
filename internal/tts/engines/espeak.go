package engines

import (
	"context"
	"strconv"
	"time"

	"github.com/dgnsrekt/sayline/internal/tts"
)

const espeakTimeout = 20 * time.Second

// Espeak runs espeak-ng. The voice is the speaker name if set, otherwise the
// language.
type Espeak struct {
	command
}

// NewEspeak creates an espeak-ng engine.
func NewEspeak(opts Options) *Espeak {
	return &Espeak{command: newCommand(string(tts.EngineEspeak), opts, espeakTimeout)}
}

// Generate implements tts.Generator.
func (e *Espeak) Generate(ctx context.Context, text string, params tts.Params, dest string) error {
	return e.run(ctx, text, tts.ProcessOptions{
		Args:  e.Args(params, dest),
		Input: text,
	})
}

// Args returns the command line for one synthesis.
func (e *Espeak) Args(params tts.Params, dest string) []string {
	var args []string

	voice := params.Speaker
	if voice == "" {
		voice = params.Language
	}
	if voice != "" {
		args = append(args, "-v", voice)
	}
	if params.Rate > 0 {
		args = append(args, "-s", strconv.Itoa(params.Rate))
	}
	return append(args, "-w", dest, "--stdin")
}
