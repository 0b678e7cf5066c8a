package audio

import (
	"fmt"
	"strings"

	"github.com/dgnsrekt/sayline/internal/tts"
)

// Backends accepted by New.
const (
	BackendCommand = "aplay"
	BackendOto     = "oto"
)

// New returns the player for backend. command overrides the external
// program for the aplay backend and may include arguments.
func New(backend, command string) (tts.Player, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", BackendCommand, "command":
		fields := strings.Fields(command)
		if len(fields) == 0 {
			return NewCommandPlayer(""), nil
		}
		return NewCommandPlayer(fields[0], fields[1:]...), nil
	case BackendOto:
		p, err := NewOtoPlayer()
		if err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unknown playback backend %q (want %s or %s)", backend, BackendCommand, BackendOto)
	}
}
