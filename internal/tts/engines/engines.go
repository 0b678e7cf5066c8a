package engines

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/sayline/internal/tts"
)

// Options configures an engine.
type Options struct {
	// Binary overrides the executable. Defaults to tts.DefaultBinary.
	Binary string

	// Timeout bounds a single synthesis. Defaults per engine.
	Timeout time.Duration

	// CPU disables CUDA for Coqui.
	CPU bool

	// Logger for command lines. Defaults to log.Default().
	Logger *log.Logger
}

// New returns the generator for engine.
func New(engine tts.EngineType, opts Options) (tts.Generator, error) {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Binary == "" {
		opts.Binary = tts.DefaultBinary(engine)
	}

	switch engine {
	case tts.EngineCoqui:
		return NewCoqui(opts), nil
	case tts.EnginePiper:
		return NewPiper(opts), nil
	case tts.EngineEspeak:
		return NewEspeak(opts), nil
	default:
		return nil, fmt.Errorf("%w: %q", tts.ErrInvalidEngine, engine)
	}
}

// command is the shared plumbing of every engine: a subprocess manager and
// the binary it runs.
type command struct {
	name   string
	binary string
	sm     *tts.SubprocessManager
	logger *log.Logger
}

func newCommand(name string, opts Options, timeout time.Duration) command {
	if opts.Timeout > 0 {
		timeout = opts.Timeout
	}
	if opts.Binary == "" {
		opts.Binary = tts.DefaultBinary(tts.EngineType(name))
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return command{
		name:   name,
		binary: opts.Binary,
		sm:     tts.NewSubprocessManager(timeout),
		logger: opts.Logger,
	}
}

// Name returns the engine identifier.
func (c command) Name() string {
	return c.name
}

func (c command) run(ctx context.Context, text string, opts tts.ProcessOptions) error {
	if text == "" {
		return tts.ErrEmptyText
	}
	opts.Command = c.binary

	c.logger.Debug("Running engine", "engine", c.name, "binary", c.binary, "args", len(opts.Args))
	if _, err := c.sm.Execute(ctx, opts); err != nil {
		return fmt.Errorf("%s: %w", c.name, err)
	}
	return nil
}
