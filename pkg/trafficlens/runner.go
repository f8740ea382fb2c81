package trafficlens

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/teslashibe/trafficlens/pkg/camera"
	"github.com/teslashibe/trafficlens/pkg/customvision"
)

// StreamResolver turns a live page URL into a direct media URL.
type StreamResolver interface {
	Resolve(ctx context.Context, pageURL string) (string, error)
}

// FrameGrabber captures one JPEG frame from a media URL.
type FrameGrabber interface {
	Grab(ctx context.Context, mediaURL string) ([]byte, error)
}

// SnapshotFetcher downloads a camera still. Soft failures wrap camera.ErrNoImage.
type SnapshotFetcher interface {
	Fetch(ctx context.Context, imageURL string) ([]byte, error)
}

// Status is the result of one classification run.
type Status int

const (
	// StatusFailed means acquisition or classification returned an error.
	StatusFailed Status = iota

	// StatusNoImage means the camera returned no image; nothing was classified.
	StatusNoImage

	// StatusClassified means predictions were returned and printed.
	StatusClassified
)

func (s Status) String() string {
	switch s {
	case StatusClassified:
		return "classified"
	case StatusNoImage:
		return "no_image"
	default:
		return "failed"
	}
}

// Outcome is what Run reports back instead of raising.
type Outcome struct {
	Status      Status
	Source      Source
	Predictions []customvision.Prediction
	Err         error
}

// Deps wires a Runner.
type Deps struct {
	Resolver  StreamResolver
	Grabber   FrameGrabber
	Camera    SnapshotFetcher
	Predictor customvision.Predictor

	Project   customvision.Project
	Iteration string

	// Out receives the console report. Defaults to io.Discard.
	Out    io.Writer
	Logger *slog.Logger
}

// Runner performs the acquire -> classify -> report sequence.
type Runner struct {
	resolver  StreamResolver
	grabber   FrameGrabber
	camera    SnapshotFetcher
	predictor customvision.Predictor
	project   customvision.Project
	iteration string
	out       io.Writer
	logger    *slog.Logger
}

// NewRunner creates a Runner from d.
func NewRunner(d Deps) *Runner {
	out := d.Out
	if out == nil {
		out = io.Discard
	}
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		resolver:  d.Resolver,
		grabber:   d.Grabber,
		camera:    d.Camera,
		predictor: d.Predictor,
		project:   d.Project,
		iteration: d.Iteration,
		out:       out,
		logger:    logger.With("component", "trafficlens", "project", d.Project.Name),
	}
}

// Acquire produces the image bytes for src.
func (r *Runner) Acquire(ctx context.Context, src Source) ([]byte, error) {
	switch src.Type {
	case SourceYouTube:
		mediaURL, err := r.resolver.Resolve(ctx, src.URL)
		if err != nil {
			return nil, fmt.Errorf("resolve stream: %w", err)
		}
		return r.grabber.Grab(ctx, mediaURL)
	case SourceNYCCamera:
		return r.camera.Fetch(ctx, src.URL)
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidSource, string(src.Type))
	}
}

// Run classifies one image from src and prints the result. It never
// returns an error or panics; failures are printed and reported in the
// Outcome.
func (r *Runner) Run(ctx context.Context, src Source) (out Outcome) {
	out.Source = src
	log := r.logger.With("source", string(src.Type))

	defer func() {
		if p := recover(); p != nil {
			out.Status, out.Predictions = StatusFailed, nil
			out.Err = fmt.Errorf("panic: %v", p)
			log.Error("classification panicked", "panic", p)
			fmt.Fprintf(r.out, "Error processing image: %v\n", out.Err)
		}
	}()

	image, err := r.Acquire(ctx, src)
	switch {
	case errors.Is(err, camera.ErrNoImage):
		log.Warn("no image data", "error", err)
		fmt.Fprintln(r.out, "Failed to retrieve image data.")
		out.Status, out.Err = StatusNoImage, err
		return out
	case err != nil:
		log.Error("image acquisition failed", "error", err)
		fmt.Fprintf(r.out, "Error processing image: %v\n", err)
		out.Status, out.Err = StatusFailed, err
		return out
	case len(image) == 0:
		fmt.Fprintln(r.out, "Failed to retrieve image data.")
		out.Status, out.Err = StatusNoImage, camera.ErrNoImage
		return out
	}
	log.Info("image acquired", "bytes", len(image))

	result, err := r.predictor.ClassifyImage(ctx, r.project.ID, r.iteration, image)
	if err != nil {
		log.Error("classification failed", "error", err)
		fmt.Fprintf(r.out, "Error processing image: %v\n", err)
		out.Status, out.Err = StatusFailed, err
		return out
	}

	out.Status = StatusClassified
	if result != nil {
		out.Predictions = result.Predictions
	}
	PrintPredictions(r.out, out.Predictions)
	log.Info("image classified", "predictions", len(out.Predictions))
	return out
}

// PrintPredictions writes the header and one line per prediction, in the
// order given.
func PrintPredictions(w io.Writer, predictions []customvision.Prediction) {
	fmt.Fprintln(w, "Prediction Results:")
	for _, p := range predictions {
		fmt.Fprintln(w, FormatPrediction(p))
	}
}

// FormatPrediction renders "<tag>: <percent with 2 decimals>%".
func FormatPrediction(p customvision.Prediction) string {
	return fmt.Sprintf("%s: %.2f%%", p.TagName, p.Probability*100)
}
