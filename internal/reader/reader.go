package reader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/sayline/internal/cache"
	"github.com/dgnsrekt/sayline/internal/tts"
	"github.com/mattn/go-runewidth"
)

// Options configures a Reader.
type Options struct {
	Sentences   []string
	Params      tts.Params
	Coordinator *cache.Coordinator

	// Prefetcher warms the next sentence. nil disables prefetching.
	Prefetcher *cache.Prefetcher

	Player tts.Player
	Keys   KeySource
	Out    io.Writer

	// Width returns the terminal width. Defaults to 80 columns.
	Width func() int

	// Padding is the left margin of the status line.
	Padding int

	Logger *log.Logger
}

// Reader steps through sentences and speaks the current one on demand.
// It is driven from a single goroutine.
type Reader struct {
	sentences  []string
	params     tts.Params
	coord      *cache.Coordinator
	prefetcher *cache.Prefetcher
	player     tts.Player
	keys       KeySource
	out        io.Writer
	width      func() int
	padding    int
	logger     *log.Logger

	idx int
}

// New creates a reader positioned on the first sentence.
func New(opts Options) (*Reader, error) {
	if len(opts.Sentences) == 0 {
		return nil, ErrNoSentences
	}
	if opts.Coordinator == nil || opts.Player == nil || opts.Keys == nil {
		return nil, errors.New("reader: coordinator, player and key source are required")
	}

	r := &Reader{
		sentences:  opts.Sentences,
		params:     opts.Params,
		coord:      opts.Coordinator,
		prefetcher: opts.Prefetcher,
		player:     opts.Player,
		keys:       opts.Keys,
		out:        opts.Out,
		width:      opts.Width,
		padding:    opts.Padding,
		logger:     opts.Logger,
	}
	if r.out == nil {
		r.out = io.Discard
	}
	if r.width == nil {
		r.width = func() int { return 80 }
	}
	if r.logger == nil {
		r.logger = log.Default()
	}
	return r, nil
}

// Index returns the zero-based position of the current sentence.
func (r *Reader) Index() int {
	return r.idx
}

// Len returns the number of sentences.
func (r *Reader) Len() int {
	return len(r.sentences)
}

// Current returns the current sentence.
func (r *Reader) Current() string {
	return r.sentences[r.idx]
}

// Request returns the synthesis request for sentence i.
func (r *Reader) Request(i int) tts.Request {
	return tts.NewRequest(r.sentences[i], r.params)
}

// Start warms the second sentence.
func (r *Reader) Start() {
	if len(r.sentences) > 1 {
		r.prefetch(1)
	}
}

// Next moves forward. It returns false at the last sentence.
func (r *Reader) Next() bool {
	if r.idx >= len(r.sentences)-1 {
		return false
	}
	r.idx++
	r.prefetch(r.idx + 1)
	return true
}

// Prev moves back. It returns false at the first sentence.
func (r *Reader) Prev() bool {
	if r.idx == 0 {
		return false
	}
	r.idx--
	r.prefetch(r.idx + 1)
	return true
}

// Speak makes sure the current sentence is rendered, plays it and then
// warms the next one. Playback failures are logged, not returned.
func (r *Reader) Speak(ctx context.Context) error {
	req := r.Request(r.idx)
	defer r.prefetch(r.idx + 1)

	if !r.coord.IsCached(req) {
		r.render("generating")
	}

	path, err := r.coord.Ensure(ctx, req)
	if err != nil {
		return err
	}

	r.render("speaking")
	if err := r.player.Play(ctx, path); err != nil {
		r.logger.Warn("Playback failed", "path", path, "error", err)
	}
	return nil
}

// Run draws the status line and handles keys until the user quits or input
// ends. Speak failures are shown and the loop continues.
func (r *Reader) Run(ctx context.Context) error {
	r.Start()

	for {
		r.render("")

		key, err := r.keys.ReadKey()
		if err != nil {
			if errors.Is(err, io.EOF) {
				fmt.Fprint(r.out, "\r\n") //nolint:errcheck
				return nil
			}
			return fmt.Errorf("reading keys: %w", err)
		}

		switch key {
		case KeyRight:
			r.Next()
		case KeyLeft:
			r.Prev()
		case KeySpeak:
			if err := r.Speak(ctx); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				r.logger.Error("Speak failed", "index", r.idx, "error", err)
				fmt.Fprintf(r.out, "\r\x1b[K%serror: %v\r\n", r.margin(), err) //nolint:errcheck
			}
		case KeyQuit:
			fmt.Fprint(r.out, "\r\nBye.\r\n") //nolint:errcheck
			return nil
		}

		if err := ctx.Err(); err != nil {
			return err
		}
	}
}

// StatusLine returns "[i/n] sentence", with an optional state suffix,
// truncated to fit the terminal.
func (r *Reader) StatusLine(state string) string {
	line := fmt.Sprintf("[%d/%d] %s", r.idx+1, len(r.sentences), r.Current())
	if state != "" {
		line += " (" + state + ")"
	}

	// Leave the last column free so the cursor never wraps.
	width := r.width() - r.padding - 1
	if width < 1 {
		width = 1
	}
	return r.margin() + runewidth.Truncate(line, width, "…")
}

func (r *Reader) margin() string {
	if r.padding <= 0 {
		return ""
	}
	return strings.Repeat(" ", r.padding)
}

func (r *Reader) render(state string) {
	fmt.Fprint(r.out, "\r\x1b[K"+r.StatusLine(state)) //nolint:errcheck
}

func (r *Reader) prefetch(i int) {
	if r.prefetcher == nil || i < 0 || i >= len(r.sentences) {
		return
	}
	r.prefetcher.Prefetch(r.Request(i))
}
