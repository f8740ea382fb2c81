// trafficlens - classify one traffic frame with Azure Custom Vision
//
// Pulls a single image from a YouTube live stream or an NYC traffic camera,
// sends it to a published Custom Vision iteration and prints the tag
// probabilities.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/teslashibe/trafficlens/internal/config"
	"github.com/teslashibe/trafficlens/internal/httpc"
	"github.com/teslashibe/trafficlens/internal/log"
	"github.com/teslashibe/trafficlens/pkg/camera"
	"github.com/teslashibe/trafficlens/pkg/customvision"
	"github.com/teslashibe/trafficlens/pkg/frame"
	"github.com/teslashibe/trafficlens/pkg/frame/cvcapture"
	"github.com/teslashibe/trafficlens/pkg/stream"
	"github.com/teslashibe/trafficlens/pkg/trafficlens"
)

// flags override values loaded from the environment.
type flags struct {
	source    string
	url       string
	cameraID  string
	project   string
	iteration string
	logLevel  string
}

func parseFlags(args []string, cfg *config.Config) (flags, error) {
	fs := flag.NewFlagSet("trafficlens", flag.ContinueOnError)
	f := flags{}
	fs.StringVar(&f.source, "source", cfg.Source, "Image source: youtube or nyc_camera")
	fs.StringVar(&f.url, "url", "", "Source URL (overrides TRAFFIC_YOUTUBE_URL / TRAFFIC_CAMERA_URL)")
	fs.StringVar(&f.cameraID, "camera-id", "", "NYC camera id, builds a fresh snapshot URL (nyc_camera only)")
	fs.StringVar(&f.project, "project", cfg.ProjectName, "Custom Vision project name")
	fs.StringVar(&f.iteration, "iteration", cfg.IterationName, "Published iteration name")
	fs.StringVar(&f.logLevel, "log-level", cfg.LogLevel, "Log level: debug, info, warn, error")
	if err := fs.Parse(args); err != nil {
		return flags{}, err
	}
	return f, nil
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}

func run(args []string, stdout io.Writer) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Configuration error: %v\n", err)
		return 1
	}

	f, err := parseFlags(args, cfg)
	if err != nil {
		return 2
	}

	log.Init(f.logLevel)
	logger := log.With("run_id", uuid.NewString())

	// Validate the source before any remote call is made.
	src, err := selectSource(f, cfg, time.Now())
	if err != nil {
		fmt.Fprintf(stdout, "Error processing image: %v\n", err)
		logger.Error("invalid source", "source", f.source, "error", err)
		return 1
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	hc := httpc.NewClient(cfg.HTTPTimeout)

	trainer := customvision.NewTrainingClient(
		customvision.WithEndpoint(cfg.TrainingEndpoint),
		customvision.WithKey(cfg.TrainingKey),
		customvision.WithHTTPClient(hc),
		customvision.WithLogger(logger),
	)
	defer trainer.Close()

	predictor := customvision.NewPredictionClient(
		customvision.WithEndpoint(cfg.PredictionEndpoint),
		customvision.WithKey(cfg.PredictionKey),
		customvision.WithHTTPClient(hc),
		customvision.WithLogger(logger),
	)
	defer predictor.Close()

	logger.Debug("custom vision configured",
		"training_endpoint", cfg.TrainingEndpoint,
		"prediction_endpoint", cfg.PredictionEndpoint,
		"prediction_resource_id", cfg.PredictionResourceID,
	)

	project, err := trafficlens.ResolveProject(ctx, trainer, f.project)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		logger.Error("project resolution failed", "project", f.project, "error", err)
		return 1
	}
	fmt.Fprintf(stdout, "Found existing project: %s (ID: %s)\n", project.Name, project.ID)

	runner := trafficlens.NewRunner(trafficlens.Deps{
		Resolver: stream.NewResolver(cfg.YTDLPPath, cfg.YTDLPFormat, logger),
		Grabber: frame.NewGrabber(cvcapture.NewOpener(), frame.Config{
			MaxRetries:   cfg.MaxRetries,
			InitialDelay: cfg.InitialDelay,
			SettleDelay:  cfg.SettleDelay,
		}, logger),
		Camera:    camera.NewFetcher(hc, logger),
		Predictor: predictor,
		Project:   project,
		Iteration: f.iteration,
		Out:       stdout,
		Logger:    logger,
	})

	outcome := runner.Run(ctx, src)
	logger.Info("run finished", "status", outcome.Status.String(), "source", src.String())
	return 0
}

// selectSource picks the URL for the chosen source: -url, then -camera-id,
// then the configured default.
func selectSource(f flags, cfg *config.Config, now time.Time) (trafficlens.Source, error) {
	if f.cameraID != "" && f.source != string(trafficlens.SourceNYCCamera) {
		return trafficlens.Source{}, fmt.Errorf("-camera-id requires -source %s, got %q", trafficlens.SourceNYCCamera, f.source)
	}

	url := f.url
	if url == "" {
		url = cfg.SourceURL(f.source)
	}
	if f.cameraID != "" {
		url = camera.SnapshotURL(f.cameraID, now)
	}
	return trafficlens.NewSource(f.source, url)
}
