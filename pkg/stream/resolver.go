// Package stream resolves live-video page URLs to direct media URLs using
// yt-dlp in metadata-only mode.
package stream

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
)

// ErrNoStreamURL is returned when yt-dlp succeeds but prints no URL.
var ErrNoStreamURL = errors.New("stream: no media URL resolved")

// Runner executes an external command and returns its stdout.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// Resolver turns a page URL into a short-lived media URL.
type Resolver struct {
	binary string
	format string
	run    Runner
	logger *slog.Logger
}

// NewResolver creates a resolver invoking binary (usually "yt-dlp") with
// the given format selector (usually "best").
func NewResolver(binary, format string, logger *slog.Logger) *Resolver {
	if binary == "" {
		binary = "yt-dlp"
	}
	if format == "" {
		format = "best"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		binary: binary,
		format: format,
		run:    execRunner,
		logger: logger.With("component", "stream"),
	}
}

// WithRunner replaces the command runner. Used by tests.
func (r *Resolver) WithRunner(run Runner) *Resolver {
	r.run = run
	return r
}

// Resolve returns the first media URL yt-dlp prints for pageURL. Nothing is
// downloaded.
func (r *Resolver) Resolve(ctx context.Context, pageURL string) (string, error) {
	args := []string{
		"-f", r.format,
		"--get-url",
		"--quiet",
		"--no-warnings",
		"--no-playlist",
		"--",
		pageURL,
	}

	out, err := r.run(ctx, r.binary, args...)
	if err != nil {
		return "", fmt.Errorf("stream: %s: %w", r.binary, err)
	}

	sc := bufio.NewScanner(bytes.NewReader(out))
	sc.Buffer(make([]byte, 0, 64<<10), 1<<20)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if strings.HasPrefix(line, "http://") || strings.HasPrefix(line, "https://") {
			r.logger.Debug("stream resolved", "page", pageURL, "format", r.format)
			return line, nil
		}
	}
	return "", fmt.Errorf("%w for %s", ErrNoStreamURL, pageURL)
}

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%w: %s", err, msg)
		}
		return nil, err
	}
	return out, nil
}
