// Package cvcapture implements frame.Opener with OpenCV via gocv.
package cvcapture

import (
	"fmt"

	"github.com/teslashibe/trafficlens/pkg/frame"
	"gocv.io/x/gocv"
)

// Opener opens network streams with OpenCV's VideoCapture.
type Opener struct{}

// NewOpener creates an OpenCV-backed opener.
func NewOpener() *Opener {
	return &Opener{}
}

// Open opens mediaURL. The returned capture must be closed by the caller.
func (o *Opener) Open(mediaURL string) (frame.Capture, error) {
	vc, err := gocv.VideoCaptureFile(mediaURL)
	if err != nil {
		return nil, fmt.Errorf("open video capture: %w", err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return nil, fmt.Errorf("video capture not opened: %s", mediaURL)
	}
	return &capture{vc: vc}, nil
}

type capture struct {
	vc *gocv.VideoCapture
}

// ReadJPEG reads one frame into a Mat and encodes it as JPEG.
func (c *capture) ReadJPEG() ([]byte, error) {
	img := gocv.NewMat()
	defer img.Close()

	if ok := c.vc.Read(&img); !ok || img.Empty() {
		return nil, frame.ErrNoFrame
	}

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, img)
	if err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	defer buf.Close()

	// The native buffer is freed on Close, so copy out.
	out := make([]byte, buf.Len())
	copy(out, buf.GetBytes())
	return out, nil
}

// Close releases the VideoCapture.
func (c *capture) Close() error {
	return c.vc.Close()
}
