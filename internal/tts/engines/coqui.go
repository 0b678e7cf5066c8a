package engines

import (
	"context"
	"time"

	"github.com/dgnsrekt/sayline/internal/tts"
)

// DefaultCoquiModel is the multilingual XTTS v2 model.
const DefaultCoquiModel = "tts_models/multilingual/multi-dataset/xtts_v2"

// coquiTimeout covers loading the model on every call.
const coquiTimeout = 5 * time.Minute

// Coqui runs the Coqui TTS command line synthesizer.
type Coqui struct {
	command
	cpu bool
}

// NewCoqui creates a Coqui engine.
func NewCoqui(opts Options) *Coqui {
	return &Coqui{
		command: newCommand(string(tts.EngineCoqui), opts, coquiTimeout),
		cpu:     opts.CPU,
	}
}

// Generate implements tts.Generator.
func (e *Coqui) Generate(ctx context.Context, text string, params tts.Params, dest string) error {
	return e.run(ctx, text, tts.ProcessOptions{
		Args: e.Args(text, params, dest),
		// XTTS asks for license confirmation on first download.
		Env: []string{"COQUI_TOS_AGREED=1"},
	})
}

// Args returns the command line for one synthesis. A reference WAV takes
// precedence over a speaker name. Rate is not supported.
func (e *Coqui) Args(text string, params tts.Params, dest string) []string {
	model := params.Model
	if model == "" {
		model = DefaultCoquiModel
	}

	args := []string{
		"--text", text,
		"--model_name", model,
		"--out_path", dest,
	}
	if params.Language != "" {
		args = append(args, "--language_idx", params.Language)
	}
	switch {
	case params.SpeakerWAV != "":
		args = append(args, "--speaker_wav", params.SpeakerWAV)
	case params.Speaker != "":
		args = append(args, "--speaker_idx", params.Speaker)
	}
	if !e.cpu {
		args = append(args, "--use_cuda", "true")
	}
	return args
}
