//go:build !nocgo
// +build !nocgo

package audio

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

// pollInterval is how often playback completion is checked.
const pollInterval = 10 * time.Millisecond

// OtoPlayer plays PCM16 WAV files in process. oto allows a single context
// per process, so the format of the first file played is fixed for the
// player's lifetime; later files must match it.
type OtoPlayer struct {
	mu     sync.Mutex
	ctx    *oto.Context
	format Format
}

// NewOtoPlayer creates an in-process player. The audio device is opened on
// the first Play.
func NewOtoPlayer() (*OtoPlayer, error) {
	return &OtoPlayer{}, nil
}

// Play implements tts.Player.
func (p *OtoPlayer) Play(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("playback: %w", err)
	}
	sound, err := DecodeWAV(data)
	if err != nil {
		return fmt.Errorf("playback: %s: %w", path, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.open(sound.Format); err != nil {
		return err
	}

	player := p.ctx.NewPlayer(bytes.NewReader(sound.Data))
	defer player.Close()
	player.Play()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for player.IsPlaying() {
		select {
		case <-ctx.Done():
			player.Pause()
			return ctx.Err()
		case <-ticker.C:
		}
	}

	// The data must stay reachable until oto is done with it.
	runtime.KeepAlive(sound.Data)
	return nil
}

func (p *OtoPlayer) open(format Format) error {
	if p.ctx != nil {
		if format.SampleRate != p.format.SampleRate || format.Channels != p.format.Channels {
			return fmt.Errorf("playback: %w: audio device opened at %d Hz/%d ch, file is %d Hz/%d ch",
				ErrUnsupportedFormat, p.format.SampleRate, p.format.Channels, format.SampleRate, format.Channels)
		}
		return nil
	}

	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   format.SampleRate,
		ChannelCount: format.Channels,
		Format:       oto.FormatSignedInt16LE,
	})
	if err != nil {
		return fmt.Errorf("failed to create oto context: %w", err)
	}
	<-ready

	p.ctx = ctx
	p.format = format
	return nil
}
