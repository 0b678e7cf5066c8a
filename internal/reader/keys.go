package reader

import (
	"io"
	"os"

	"golang.org/x/term"
)

// Key is a reader command decoded from terminal input.
type Key int

const (
	KeyNone Key = iota
	KeyLeft
	KeyRight
	KeySpeak
	KeyQuit
)

func (k Key) String() string {
	switch k {
	case KeyLeft:
		return "left"
	case KeyRight:
		return "right"
	case KeySpeak:
		return "speak"
	case KeyQuit:
		return "quit"
	default:
		return "none"
	}
}

// ParseKey decodes one read from a raw-mode terminal. Unknown input is
// KeyNone.
func ParseKey(b []byte) Key {
	if len(b) == 0 {
		return KeyNone
	}
	switch {
	case len(b) >= 3 && b[0] == 0x1b && (b[1] == '[' || b[1] == 'O'):
		switch b[2] {
		case 'C':
			return KeyRight
		case 'D':
			return KeyLeft
		}
		return KeyNone
	case b[0] == ' ':
		return KeySpeak
	case b[0] == 'q', b[0] == 'Q', b[0] == 0x03: // ctrl+c
		return KeyQuit
	case b[0] == 'h':
		return KeyLeft
	case b[0] == 'l':
		return KeyRight
	}
	return KeyNone
}

// KeySource yields keys. ReadKey returns io.EOF when input ends.
type KeySource interface {
	ReadKey() (Key, error)
}

// Terminal reads keys from a terminal, switching it to raw mode only for
// the duration of each read so that output between reads is unaffected.
type Terminal struct {
	in  *os.File
	out *os.File
}

// NewTerminal reads from stdin and sizes against stdout.
func NewTerminal() *Terminal {
	return &Terminal{in: os.Stdin, out: os.Stdout}
}

// IsTerminal reports whether input is an interactive terminal.
func (t *Terminal) IsTerminal() bool {
	return term.IsTerminal(int(t.in.Fd()))
}

// ReadKey implements KeySource.
func (t *Terminal) ReadKey() (Key, error) {
	fd := int(t.in.Fd())
	state, err := term.MakeRaw(fd)
	if err != nil {
		return KeyNone, err
	}
	defer term.Restore(fd, state) //nolint:errcheck

	var buf [8]byte
	n, err := t.in.Read(buf[:])
	if n == 0 && err == nil {
		err = io.EOF
	}
	if err != nil {
		return KeyNone, err
	}
	return ParseKey(buf[:n]), nil
}

// Width returns the terminal width, or 80 if it cannot be determined.
func (t *Terminal) Width() int {
	w, _, err := term.GetSize(int(t.out.Fd()))
	if err != nil || w <= 0 {
		return 80
	}
	return w
}
