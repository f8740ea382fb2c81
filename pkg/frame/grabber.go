// Package frame grabs a single JPEG frame from a live media stream,
// retrying with exponential backoff while the stream warms up.
package frame

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// ErrCaptureExhausted is returned when every attempt failed to open the
// stream or read a frame.
var ErrCaptureExhausted = errors.New("frame: unable to capture frame from live stream")

// ErrNoFrame is returned by a Capture when the stream yields no decodable frame.
var ErrNoFrame = errors.New("frame: no frame decoded")

// Capture is an open stream handle scoped to one attempt.
type Capture interface {
	// ReadJPEG reads one decoded frame and returns it JPEG-encoded.
	ReadJPEG() ([]byte, error)

	// Close releases the handle.
	Close() error
}

// Opener opens media URLs.
type Opener interface {
	Open(mediaURL string) (Capture, error)
}

// Config controls the retry policy.
type Config struct {
	MaxRetries   int           // Total attempts
	InitialDelay time.Duration // Backoff after the first failed attempt
	SettleDelay  time.Duration // Wait between a successful open and the read
}

// DefaultConfig returns 5 attempts, 2s initial backoff and 2s settle time.
func DefaultConfig() Config {
	return Config{
		MaxRetries:   5,
		InitialDelay: 2 * time.Second,
		SettleDelay:  2 * time.Second,
	}
}

// MaxBackoff caps a single backoff wait.
const MaxBackoff = time.Hour

// Backoff returns the wait after failed attempt n (1-based):
// InitialDelay * 2^(n-1), capped at MaxBackoff.
func (c Config) Backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := c.InitialDelay
	for i := 1; i < attempt; i++ {
		if d >= MaxBackoff/2 {
			return MaxBackoff
		}
		d *= 2
	}
	return min(d, MaxBackoff)
}

// Grabber captures one frame per Grab call.
type Grabber struct {
	opener Opener
	config Config
	sleep  func(ctx context.Context, d time.Duration) error
	logger *slog.Logger
}

// NewGrabber creates a grabber. A non-positive MaxRetries is treated as 1.
func NewGrabber(opener Opener, cfg Config, logger *slog.Logger) *Grabber {
	if cfg.MaxRetries < 1 {
		cfg.MaxRetries = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Grabber{
		opener: opener,
		config: cfg,
		sleep:  sleepContext,
		logger: logger.With("component", "frame"),
	}
}

// Grab opens mediaURL and returns one JPEG frame. Each attempt opens a
// fresh handle and releases it before the next attempt. When all
// attempts fail the error wraps ErrCaptureExhausted.
func (g *Grabber) Grab(ctx context.Context, mediaURL string) ([]byte, error) {
	var lastErr error

	for attempt := 1; attempt <= g.config.MaxRetries; attempt++ {
		data, err := g.attempt(ctx, mediaURL)
		if err == nil {
			g.logger.Debug("frame captured", "attempt", attempt, "bytes", len(data))
			return data, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		lastErr = err

		g.logger.Warn("frame capture failed",
			"attempt", attempt,
			"max_retries", g.config.MaxRetries,
			"error", err,
		)

		if attempt == g.config.MaxRetries {
			break
		}
		if err := g.sleep(ctx, g.config.Backoff(attempt)); err != nil {
			return nil, err
		}
	}

	return nil, fmt.Errorf("%w after %d attempts: %v", ErrCaptureExhausted, g.config.MaxRetries, lastErr)
}

func (g *Grabber) attempt(ctx context.Context, mediaURL string) ([]byte, error) {
	capture, err := g.opener.Open(mediaURL)
	if err != nil {
		return nil, fmt.Errorf("could not open video stream: %w", err)
	}
	defer capture.Close()

	// Live streams need buffering before the first frame is reliable.
	if err := g.sleep(ctx, g.config.SettleDelay); err != nil {
		return nil, err
	}

	data, err := capture.ReadJPEG()
	if err != nil {
		return nil, fmt.Errorf("could not capture frame: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("could not capture frame: %w", ErrNoFrame)
	}
	return data, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
