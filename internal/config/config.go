// Package config loads trafficlens configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// MaxCaptureRetries bounds CAPTURE_MAX_RETRIES.
const MaxCaptureRetries = 10

// Config holds everything a single classification run needs.
type Config struct {
	// Custom Vision credentials. Not validated here; the clients fail on use.
	TrainingKey          string `env:"VISION_TRAINING_KEY"`
	TrainingEndpoint     string `env:"VISION_TRAINING_ENDPOINT"`
	PredictionResourceID string `env:"VISION_PREDICTION_RESOURCE_ID"`
	PredictionKey        string `env:"VISION_PREDICTION_KEY"`
	PredictionEndpoint   string `env:"VISION_PREDICTION_ENDPOINT"`

	ProjectName   string `env:"TRAFFIC_PROJECT_NAME"   envDefault:"TrafficModel"`
	IterationName string `env:"TRAFFIC_ITERATION_NAME" envDefault:"TrafficModel"`
	Source        string `env:"TRAFFIC_SOURCE"         envDefault:"youtube"`
	YouTubeURL    string `env:"TRAFFIC_YOUTUBE_URL"    envDefault:"https://www.youtube.com/live/9En2186vo5g?si=a2lvMSh983uxCj69"`
	CameraURL     string `env:"TRAFFIC_CAMERA_URL"     envDefault:"https://webcams.nyctmc.org/api/cameras/f2b94b32-fc41-42b6-935d-8330374ca05a/image?t=1743453086914"`

	MaxRetries   int           `env:"CAPTURE_MAX_RETRIES"   envDefault:"5"`
	InitialDelay time.Duration `env:"CAPTURE_INITIAL_DELAY" envDefault:"2s"`
	SettleDelay  time.Duration `env:"CAPTURE_SETTLE_DELAY"  envDefault:"2s"`
	YTDLPPath    string        `env:"YTDLP_PATH"            envDefault:"yt-dlp"`
	YTDLPFormat  string        `env:"YTDLP_FORMAT"          envDefault:"best"`

	HTTPTimeout time.Duration `env:"HTTP_TIMEOUT" envDefault:"30s"`
	LogLevel    string        `env:"LOG_LEVEL"    envDefault:"info"`
}

// Load reads an optional .env file from the working directory and then
// parses the process environment. Variables already set take precedence
// over the file.
func Load() (*Config, error) {
	return LoadFiles(".env")
}

// LoadFiles is Load with explicit dotenv paths. Missing files are skipped.
func LoadFiles(paths ...string) (*Config, error) {
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", p, err)
		}
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if cfg.MaxRetries < 1 || cfg.MaxRetries > MaxCaptureRetries {
		return nil, fmt.Errorf("CAPTURE_MAX_RETRIES must be between 1 and %d, got %d", MaxCaptureRetries, cfg.MaxRetries)
	}
	return cfg, nil
}

// SourceURL returns the URL configured for the given source type name.
func (c *Config) SourceURL(source string) string {
	switch source {
	case "youtube":
		return c.YouTubeURL
	case "nyc_camera":
		return c.CameraURL
	default:
		return ""
	}
}
