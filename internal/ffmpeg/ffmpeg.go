// Package ffmpeg runs the ffmpeg and ffprobe binaries as blocking child
// processes bound to a context.
package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"
)

var ErrNotFound = errors.New("ffmpeg: binary not found in PATH")

// Tool locates the two binaries. Empty fields fall back to PATH lookup.
type Tool struct {
	FFmpeg  string
	FFprobe string
	Logger  *slog.Logger
}

// Available reports whether both binaries can be resolved.
func (t Tool) Available() bool {
	if _, err := exec.LookPath(t.ffmpeg()); err != nil {
		return false
	}
	_, err := exec.LookPath(t.ffprobe())
	return err == nil
}

// Probe runs ffprobe with args and returns its stdout.
func (t Tool) Probe(ctx context.Context, args ...string) ([]byte, error) {
	var stdout bytes.Buffer
	if err := t.run(ctx, t.ffprobe(), nil, &stdout, args); err != nil {
		return nil, err
	}
	return stdout.Bytes(), nil
}

// Run runs ffmpeg with args, feeding stdin and copying stdout when non-nil.
func (t Tool) Run(ctx context.Context, stdin io.Reader, stdout io.Writer, args ...string) error {
	return t.run(ctx, t.ffmpeg(), stdin, stdout, args)
}

// Start launches ffmpeg without waiting. The caller owns the returned
// pipes and must call Wait on the Process.
func (t Tool) Start(ctx context.Context, args ...string) (*Process, error) {
	bin, err := exec.LookPath(t.ffmpeg())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	cmd := exec.CommandContext(ctx, bin, args...)
	p := &Process{cmd: cmd}
	cmd.Stderr = &p.stderr
	if p.Stdin, err = cmd.StdinPipe(); err != nil {
		return nil, err
	}
	if p.Stdout, err = cmd.StdoutPipe(); err != nil {
		return nil, err
	}
	t.logger().Debug("starting ffmpeg", "command", bin+" "+strings.Join(args, " "))
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("ffmpeg: start: %w", err)
	}
	return p, nil
}

func (t Tool) run(ctx context.Context, name string, stdin io.Reader, stdout io.Writer, args []string) error {
	bin, err := exec.LookPath(name)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = &stderr
	t.logger().Debug("running ffmpeg", "command", bin+" "+strings.Join(args, " "))
	if err := cmd.Run(); err != nil {
		return exitError(ctx, name, err, stderr.String())
	}
	return nil
}

func (t Tool) ffmpeg() string {
	if t.FFmpeg != "" {
		return t.FFmpeg
	}
	return "ffmpeg"
}

func (t Tool) ffprobe() string {
	if t.FFprobe != "" {
		return t.FFprobe
	}
	return "ffprobe"
}

func (t Tool) logger() *slog.Logger {
	if t.Logger != nil {
		return t.Logger
	}
	return slog.Default()
}

// Process is a running ffmpeg child with piped stdin and stdout.
type Process struct {
	cmd    *exec.Cmd
	stderr bytes.Buffer
	Stdin  io.WriteCloser
	Stdout io.ReadCloser
}

// Wait waits for the process to exit. Stdin should be closed first.
func (p *Process) Wait(ctx context.Context) error {
	if err := p.cmd.Wait(); err != nil {
		return exitError(ctx, "ffmpeg", err, p.stderr.String())
	}
	return nil
}

func exitError(ctx context.Context, name string, err error, stderr string) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	// the last lines carry the actual failure
	lines := strings.Split(strings.TrimSpace(stderr), "\n")
	if len(lines) > 3 {
		lines = lines[len(lines)-3:]
	}
	return fmt.Errorf("%s: %w: %s", name, err, strings.Join(lines, " | "))
}
