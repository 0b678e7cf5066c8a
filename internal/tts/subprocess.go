package tts

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
)

// DefaultSubprocessTimeout applies when a manager is created without one.
const DefaultSubprocessTimeout = 2 * time.Minute

// maxStderr is how much of a failed command's stderr ends up in its error.
const maxStderr = 2048

// SubprocessManager runs engine and player commands one at a time. Each
// command is bounded by a timeout unless the caller's context already has a
// deadline.
type SubprocessManager struct {
	// slot holds a token while a command runs. A channel rather than a
	// mutex so that waiting for the slot honors ctx.
	slot chan struct{}

	defaultTimeout time.Duration
}

// NewSubprocessManager creates a new subprocess manager.
func NewSubprocessManager(timeout time.Duration) *SubprocessManager {
	if timeout <= 0 {
		timeout = DefaultSubprocessTimeout
	}
	return &SubprocessManager{
		slot:           make(chan struct{}, 1),
		defaultTimeout: timeout,
	}
}

// Timeout returns the default timeout.
func (sm *SubprocessManager) Timeout() time.Duration {
	return sm.defaultTimeout
}

// ProcessOptions describes a single command execution.
type ProcessOptions struct {
	// Command is the executable name or path
	Command string

	// Args are the command arguments
	Args []string

	// Input is written to stdin. Empty means no stdin.
	Input string

	// Env is appended to the current environment
	Env []string
}

// Execute runs opts.Command and returns its stdout. A non-zero exit status
// is returned as an error that includes the tail of stderr.
func (sm *SubprocessManager) Execute(ctx context.Context, opts ProcessOptions) ([]byte, error) {
	select {
	case sm.slot <- struct{}{}:
		defer func() { <-sm.slot }()
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	timeout := sm.defaultTimeout
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, opts.Command, opts.Args...)
	if len(opts.Env) > 0 {
		cmd.Env = append(os.Environ(), opts.Env...)
	}

	// Set up stdin before the process starts.
	if opts.Input != "" {
		cmd.Stdin = strings.NewReader(opts.Input)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	// Grandchildren may keep the pipes open after a kill.
	cmd.WaitDelay = time.Second

	if err := cmd.Start(); err != nil {
		if errors.Is(err, exec.ErrNotFound) || errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s: %w", ErrEngineNotAvailable, opts.Command, err)
		}
		return nil, fmt.Errorf("failed to start %s: %w", opts.Command, err)
	}

	err := cmd.Wait()

	if ctx.Err() != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%s timed out after %v: %w", opts.Command, timeout, ctx.Err())
		}
		return nil, fmt.Errorf("%s cancelled: %w", opts.Command, ctx.Err())
	}

	if err != nil {
		if msg := tail(stderr.String(), maxStderr); msg != "" {
			return nil, fmt.Errorf("%s failed: %w\nstderr: %s", opts.Command, err, msg)
		}
		return nil, fmt.Errorf("%s failed: %w", opts.Command, err)
	}

	return stdout.Bytes(), nil
}

// CheckBinary checks if a binary exists in the system PATH.
func CheckBinary(name string) error {
	if _, err := exec.LookPath(name); err != nil {
		return fmt.Errorf("binary '%s' not found in PATH: %w", name, err)
	}
	return nil
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}
