package trafficlens

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/teslashibe/trafficlens/pkg/camera"
	"github.com/teslashibe/trafficlens/pkg/customvision"
	"github.com/teslashibe/trafficlens/pkg/frame"
)

type fakeResolver struct {
	url   string
	err   error
	calls []string
}

func (f *fakeResolver) Resolve(ctx context.Context, pageURL string) (string, error) {
	f.calls = append(f.calls, pageURL)
	return f.url, f.err
}

type fakeGrabber struct {
	data  []byte
	err   error
	calls []string
}

func (f *fakeGrabber) Grab(ctx context.Context, mediaURL string) ([]byte, error) {
	f.calls = append(f.calls, mediaURL)
	return f.data, f.err
}

type fakeCamera struct {
	data  []byte
	err   error
	calls []string
}

func (f *fakeCamera) Fetch(ctx context.Context, imageURL string) ([]byte, error) {
	f.calls = append(f.calls, imageURL)
	return f.data, f.err
}

type fixture struct {
	resolver  *fakeResolver
	grabber   *fakeGrabber
	camera    *fakeCamera
	predictor *customvision.Mock
	out       *bytes.Buffer
	runner    *Runner
}

func newFixture() *fixture {
	f := &fixture{
		resolver:  &fakeResolver{url: "https://media/live.m3u8"},
		grabber:   &fakeGrabber{data: []byte("jpeg-frame")},
		camera:    &fakeCamera{data: []byte("camera-still")},
		predictor: customvision.NewMock(),
		out:       &bytes.Buffer{},
	}
	f.predictor.ClassifyImageFunc = func(ctx context.Context, projectID, iteration string, image []byte) (*customvision.ImagePrediction, error) {
		return &customvision.ImagePrediction{Predictions: []customvision.Prediction{
			{TagName: "congested", Probability: 0.8731},
			{TagName: "clear", Probability: 0.12},
			{TagName: "accident", Probability: 0.00004},
		}}, nil
	}
	f.runner = NewRunner(Deps{
		Resolver:  f.resolver,
		Grabber:   f.grabber,
		Camera:    f.camera,
		Predictor: f.predictor,
		Project:   customvision.Project{ID: "proj-1", Name: "TrafficModel"},
		Iteration: "TrafficModel",
		Out:       f.out,
	})
	return f
}

func (f *fixture) remoteCalls() int {
	return len(f.resolver.calls) + len(f.grabber.calls) + len(f.camera.calls) + len(f.predictor.Calls())
}

func TestParseSourceType(t *testing.T) {
	tests := []struct {
		in      string
		want    SourceType
		wantErr bool
	}{
		{"youtube", SourceYouTube, false},
		{"nyc_camera", SourceNYCCamera, false},
		{"invalid_value", "", true},
		{"YouTube", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ParseSourceType(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidSource) {
				t.Errorf("ParseSourceType(%q): expected ErrInvalidSource, got %v", tt.in, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ParseSourceType(%q) = %q, %v", tt.in, got, err)
		}
	}
}

func TestResolveProject(t *testing.T) {
	m := customvision.NewMock()
	m.ListProjectsFunc = func(ctx context.Context) ([]customvision.Project, error) {
		return []customvision.Project{
			{ID: "a", Name: "Birds"},
			{ID: "b", Name: "TrafficModel"},
			{ID: "c", Name: "trafficmodel"},
		}, nil
	}

	p, err := ResolveProject(context.Background(), m, "TrafficModel")
	if err != nil {
		t.Fatalf("ResolveProject failed: %v", err)
	}
	if p.ID != "b" {
		t.Errorf("Expected project b, got %+v", p)
	}
}

func TestResolveProjectNotFound(t *testing.T) {
	m := customvision.NewMock()
	m.ListProjectsFunc = func(ctx context.Context) ([]customvision.Project, error) {
		return []customvision.Project{{ID: "a", Name: "Birds"}}, nil
	}

	_, err := ResolveProject(context.Background(), m, "TrafficModel")
	if !errors.Is(err, ErrProjectNotFound) {
		t.Fatalf("Expected ErrProjectNotFound, got %v", err)
	}
	var nf *ProjectNotFoundError
	if !errors.As(err, &nf) || nf.Name != "TrafficModel" {
		t.Errorf("Expected ProjectNotFoundError for TrafficModel, got %v", err)
	}
	if !strings.Contains(err.Error(), "TrafficModel") {
		t.Errorf("Error should name the project: %v", err)
	}
}

func TestResolveProjectListError(t *testing.T) {
	boom := errors.New("unauthorized")
	m := customvision.NewMock()
	m.ListProjectsFunc = func(ctx context.Context) ([]customvision.Project, error) {
		return nil, boom
	}

	if _, err := ResolveProject(context.Background(), m, "X"); !errors.Is(err, boom) {
		t.Errorf("Expected list error, got %v", err)
	}
}

func TestFormatPrediction(t *testing.T) {
	tests := []struct {
		p    customvision.Prediction
		want string
	}{
		{customvision.Prediction{TagName: "congested", Probability: 0.8731}, "congested: 87.31%"},
		{customvision.Prediction{TagName: "clear", Probability: 1}, "clear: 100.00%"},
		{customvision.Prediction{TagName: "none", Probability: 0}, "none: 0.00%"},
		{customvision.Prediction{TagName: "tiny", Probability: 0.00004}, "tiny: 0.00%"},
	}
	for _, tt := range tests {
		if got := FormatPrediction(tt.p); got != tt.want {
			t.Errorf("FormatPrediction(%+v) = %q, want %q", tt.p, got, tt.want)
		}
	}
}

func TestPrintPredictionsKeepsOrder(t *testing.T) {
	var buf bytes.Buffer
	preds := []customvision.Prediction{
		{TagName: "low", Probability: 0.1},
		{TagName: "high", Probability: 0.9},
		{TagName: "mid", Probability: 0.5},
	}
	PrintPredictions(&buf, preds)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	want := []string{"Prediction Results:", "low: 10.00%", "high: 90.00%", "mid: 50.00%"}
	if len(lines) != len(want) {
		t.Fatalf("Expected %d lines, got %d: %q", len(want), len(lines), lines)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d: got %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestRunCameraSuccess(t *testing.T) {
	f := newFixture()
	src := Source{Type: SourceNYCCamera, URL: "https://cam/image"}

	out := f.runner.Run(context.Background(), src)
	if out.Status != StatusClassified {
		t.Fatalf("Expected classified, got %v (%v)", out.Status, out.Err)
	}

	calls := f.predictor.Calls()
	if len(calls) != 1 {
		t.Fatalf("Expected 1 classify call, got %d", len(calls))
	}
	if string(calls[0].Image) != "camera-still" {
		t.Errorf("Expected camera bytes to be classified verbatim, got %q", calls[0].Image)
	}
	if calls[0].ProjectID != "proj-1" || calls[0].Iteration != "TrafficModel" {
		t.Errorf("Unexpected classify target: %+v", calls[0])
	}
	if len(f.resolver.calls)+len(f.grabber.calls) != 0 {
		t.Error("Stream path must not be used for camera source")
	}

	want := "Prediction Results:\ncongested: 87.31%\nclear: 12.00%\naccident: 0.00%\n"
	if f.out.String() != want {
		t.Errorf("Unexpected output:\n%s\nwant:\n%s", f.out.String(), want)
	}
}

func TestRunCameraNoImage(t *testing.T) {
	f := newFixture()
	f.camera.data = nil
	f.camera.err = fmt.Errorf("%w: status code 404", camera.ErrNoImage)

	out := f.runner.Run(context.Background(), Source{Type: SourceNYCCamera, URL: "https://cam/image"})
	if out.Status != StatusNoImage {
		t.Fatalf("Expected no_image, got %v", out.Status)
	}
	if f.predictor.CallCount("ClassifyImage") != 0 {
		t.Error("Classify must not be called without an image")
	}
	if f.out.String() != "Failed to retrieve image data.\n" {
		t.Errorf("Unexpected output: %q", f.out.String())
	}
}

func TestRunYouTubeSuccess(t *testing.T) {
	f := newFixture()

	out := f.runner.Run(context.Background(), Source{Type: SourceYouTube, URL: "https://www.youtube.com/live/x"})
	if out.Status != StatusClassified {
		t.Fatalf("Expected classified, got %v (%v)", out.Status, out.Err)
	}
	if len(f.resolver.calls) != 1 || f.resolver.calls[0] != "https://www.youtube.com/live/x" {
		t.Errorf("Unexpected resolver calls: %v", f.resolver.calls)
	}
	if len(f.grabber.calls) != 1 || f.grabber.calls[0] != "https://media/live.m3u8" {
		t.Errorf("Grabber should receive the resolved media URL, got %v", f.grabber.calls)
	}
	calls := f.predictor.Calls()
	if len(calls) != 1 || string(calls[0].Image) != "jpeg-frame" {
		t.Errorf("Expected one classify call with the frame, got %+v", calls)
	}
	if len(out.Predictions) != 3 {
		t.Errorf("Expected 3 predictions in outcome, got %d", len(out.Predictions))
	}
}

func TestRunYouTubeCaptureExhausted(t *testing.T) {
	f := newFixture()
	f.grabber.data = nil
	f.grabber.err = fmt.Errorf("%w after 5 attempts: boom", frame.ErrCaptureExhausted)

	out := f.runner.Run(context.Background(), Source{Type: SourceYouTube, URL: "https://www.youtube.com/live/x"})
	if out.Status != StatusFailed || !errors.Is(out.Err, frame.ErrCaptureExhausted) {
		t.Fatalf("Expected failed with ErrCaptureExhausted, got %v / %v", out.Status, out.Err)
	}
	if f.predictor.CallCount("ClassifyImage") != 0 {
		t.Error("Classify must not be called after capture failure")
	}
	if !strings.HasPrefix(f.out.String(), "Error processing image: ") {
		t.Errorf("Unexpected output: %q", f.out.String())
	}
}

func TestRunResolveError(t *testing.T) {
	f := newFixture()
	f.resolver.err = errors.New("yt-dlp: not found")

	out := f.runner.Run(context.Background(), Source{Type: SourceYouTube, URL: "u"})
	if out.Status != StatusFailed {
		t.Fatalf("Expected failed, got %v", out.Status)
	}
	if len(f.grabber.calls) != 0 {
		t.Error("Grabber must not run when resolution fails")
	}
	if !strings.Contains(f.out.String(), "yt-dlp: not found") {
		t.Errorf("Output should carry the cause: %q", f.out.String())
	}
}

func TestRunClassifyError(t *testing.T) {
	f := newFixture()
	f.predictor.ClassifyImageFunc = func(ctx context.Context, projectID, iteration string, image []byte) (*customvision.ImagePrediction, error) {
		return nil, &customvision.APIError{StatusCode: 404, Code: "NotFound", Message: "Iteration not published", API: "prediction"}
	}

	out := f.runner.Run(context.Background(), Source{Type: SourceNYCCamera, URL: "u"})
	if out.Status != StatusFailed {
		t.Fatalf("Expected failed, got %v", out.Status)
	}
	if !strings.Contains(f.out.String(), "Error processing image: ") || !strings.Contains(f.out.String(), "Iteration not published") {
		t.Errorf("Unexpected output: %q", f.out.String())
	}
}

func TestRunInvalidSource(t *testing.T) {
	f := newFixture()

	out := f.runner.Run(context.Background(), Source{Type: "invalid_value", URL: "u"})
	if out.Status != StatusFailed || !errors.Is(out.Err, ErrInvalidSource) {
		t.Fatalf("Expected ErrInvalidSource, got %v / %v", out.Status, out.Err)
	}
	if n := f.remoteCalls(); n != 0 {
		t.Errorf("Expected no remote calls, got %d", n)
	}
	if !strings.Contains(f.out.String(), "invalid source type") {
		t.Errorf("Unexpected output: %q", f.out.String())
	}
}

func TestRunRecoversPanic(t *testing.T) {
	f := newFixture()
	f.predictor.ClassifyImageFunc = func(ctx context.Context, projectID, iteration string, image []byte) (*customvision.ImagePrediction, error) {
		panic("native crash")
	}

	out := f.runner.Run(context.Background(), Source{Type: SourceNYCCamera, URL: "u"})
	if out.Status != StatusFailed || out.Err == nil {
		t.Fatalf("Expected failed outcome, got %+v", out)
	}
	if !strings.Contains(f.out.String(), "native crash") {
		t.Errorf("Unexpected output: %q", f.out.String())
	}
}
