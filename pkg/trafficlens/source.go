// Package trafficlens classifies one traffic image per run: it acquires a
// frame from a live stream or a camera snapshot and sends it to a Custom
// Vision project.
package trafficlens

import (
	"errors"
	"fmt"
)

// SourceType selects how the image is acquired.
type SourceType string

const (
	// SourceYouTube grabs one frame from a YouTube live stream.
	SourceYouTube SourceType = "youtube"

	// SourceNYCCamera downloads a still from an NYC traffic camera.
	SourceNYCCamera SourceType = "nyc_camera"
)

// ErrInvalidSource is returned for an unrecognized source type.
var ErrInvalidSource = errors.New("invalid source type, use 'youtube' or 'nyc_camera'")

// ParseSourceType validates s.
func ParseSourceType(s string) (SourceType, error) {
	switch t := SourceType(s); t {
	case SourceYouTube, SourceNYCCamera:
		return t, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidSource, s)
	}
}

// Source is one image source: a live page URL or a camera image URL.
type Source struct {
	Type SourceType
	URL  string
}

// NewSource validates the type name and pairs it with url.
func NewSource(typeName, url string) (Source, error) {
	t, err := ParseSourceType(typeName)
	if err != nil {
		return Source{}, err
	}
	return Source{Type: t, URL: url}, nil
}

func (s Source) String() string {
	return fmt.Sprintf("%s(%s)", s.Type, s.URL)
}
