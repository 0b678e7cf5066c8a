package audio

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/dgnsrekt/sayline/internal/tts"
)

var _ tts.Player = (*CommandPlayer)(nil)

func TestNew(t *testing.T) {
	tests := []struct {
		backend string
		command string
		binary  string
		args    []string
		wantErr bool
	}{
		{backend: "", binary: "aplay", args: []string{"-q"}},
		{backend: "aplay", binary: "aplay", args: []string{"-q"}},
		{backend: "APLAY", command: "paplay", binary: "paplay"},
		{backend: "command", command: "ffplay -nodisp -autoexit", binary: "ffplay", args: []string{"-nodisp", "-autoexit"}},
		{backend: "pulse", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.backend+"/"+tt.command, func(t *testing.T) {
			p, err := New(tt.backend, tt.command)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			cp, ok := p.(*CommandPlayer)
			if !ok {
				t.Fatalf("New() = %T, want *CommandPlayer", p)
			}
			if cp.binary != tt.binary || strings.Join(cp.args, " ") != strings.Join(tt.args, " ") {
				t.Errorf("got %s %q, want %s %q", cp.binary, cp.args, tt.binary, tt.args)
			}
		})
	}
}

func TestCommandPlayer_Play(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}

	dir := t.TempDir()
	played := filepath.Join(dir, "played")
	script := filepath.Join(dir, "player")
	body := "#!/bin/sh\nprintf '%s\\n' \"$@\" > " + played + "\n"
	if err := os.WriteFile(script, []byte(body), 0o755); err != nil {
		t.Fatal(err)
	}

	p := NewCommandPlayer(script, "-q")
	if err := p.Play(context.Background(), "/cache/abc.wav"); err != nil {
		t.Fatalf("Play() error = %v", err)
	}

	data, err := os.ReadFile(played)
	if err != nil {
		t.Fatal(err)
	}
	if got := string(data); got != "-q\n/cache/abc.wav\n" {
		t.Errorf("player args = %q", got)
	}
}

func TestCommandPlayer_Failure(t *testing.T) {
	p := NewCommandPlayer(filepath.Join(t.TempDir(), "no-such-player"))
	err := p.Play(context.Background(), "/cache/abc.wav")
	if err == nil || !strings.HasPrefix(err.Error(), "playback: ") {
		t.Errorf("Play() error = %v", err)
	}
}
