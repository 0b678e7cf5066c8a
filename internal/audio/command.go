package audio

import (
	"context"
	"fmt"
	"time"

	"github.com/dgnsrekt/sayline/internal/tts"
)

// DefaultCommand is the external player used when none is configured.
const DefaultCommand = "aplay"

// CommandPlayer plays files with an external program, by default "aplay -q".
type CommandPlayer struct {
	binary string
	args   []string
	sm     *tts.SubprocessManager
}

// NewCommandPlayer creates a player that runs binary with args followed by
// the file path. An empty binary means aplay.
func NewCommandPlayer(binary string, args ...string) *CommandPlayer {
	if binary == "" {
		binary = DefaultCommand
		if len(args) == 0 {
			args = []string{"-q"}
		}
	}
	return &CommandPlayer{
		binary: binary,
		args:   args,
		// Long enough for any single sentence.
		sm: tts.NewSubprocessManager(10 * time.Minute),
	}
}

// Play implements tts.Player. It blocks until the program exits.
func (p *CommandPlayer) Play(ctx context.Context, path string) error {
	args := append(append([]string(nil), p.args...), path)
	if _, err := p.sm.Execute(ctx, tts.ProcessOptions{Command: p.binary, Args: args}); err != nil {
		return fmt.Errorf("playback: %w", err)
	}
	return nil
}
