//go:build nocgo
// +build nocgo

package audio

import (
	"context"
	"errors"
)

// ErrNoAudioSupport is returned by the in-process player in builds without cgo.
var ErrNoAudioSupport = errors.New("built without in-process audio support; use SAYLINE_PLAYBACK=aplay")

// OtoPlayer is unavailable without cgo.
type OtoPlayer struct{}

// NewOtoPlayer always fails without cgo.
func NewOtoPlayer() (*OtoPlayer, error) {
	return nil, ErrNoAudioSupport
}

// Play implements tts.Player.
func (p *OtoPlayer) Play(context.Context, string) error {
	return ErrNoAudioSupport
}
