// Package camera fetches still snapshots from static traffic cameras.
package camera

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/teslashibe/trafficlens/internal/httpc"
)

// NYCBaseURL is the NYC DOT traffic management center camera API.
const NYCBaseURL = "https://webcams.nyctmc.org/api/cameras"

// DefaultMaxBytes caps the snapshot size read into memory.
const DefaultMaxBytes = 16 << 20

// ErrNoImage reports that a snapshot could not be retrieved. It is a soft
// failure: the caller decides whether to continue.
var ErrNoImage = errors.New("camera: no image data")

// Fetcher downloads a single snapshot per call.
type Fetcher struct {
	http     *http.Client
	logger   *slog.Logger
	maxBytes int64
}

// NewFetcher creates a fetcher. A nil client uses httpc.Client and a nil
// logger uses slog.Default().
func NewFetcher(hc *http.Client, logger *slog.Logger) *Fetcher {
	if hc == nil {
		hc = httpc.Client
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{
		http:     hc,
		logger:   logger.With("component", "camera"),
		maxBytes: DefaultMaxBytes,
	}
}

// Fetch performs one GET against imageURL. On HTTP 200 the body is returned
// verbatim. Any other status, transport failure, empty body or a body larger
// than DefaultMaxBytes yields an error wrapping ErrNoImage; no other error is
// ever returned.
func (f *Fetcher) Fetch(ctx context.Context, imageURL string) ([]byte, error) {
	resp, err := httpc.Get(ctx, f.http, imageURL)
	if err != nil {
		f.logger.Warn("error fetching image", "url", imageURL, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrNoImage, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		f.logger.Warn("unable to fetch image", "url", imageURL, "status", resp.StatusCode)
		return nil, fmt.Errorf("%w: status code %d", ErrNoImage, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		f.logger.Warn("error reading image body", "url", imageURL, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrNoImage, err)
	}
	if int64(len(data)) > f.maxBytes {
		return nil, fmt.Errorf("%w: snapshot exceeds %d bytes", ErrNoImage, f.maxBytes)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty body", ErrNoImage)
	}

	f.logger.Debug("snapshot fetched",
		"bytes", len(data),
		"content_type", resp.Header.Get("Content-Type"),
	)
	return data, nil
}

// SnapshotURL builds the image URL for an NYC camera id. The t parameter
// is a cache buster in epoch milliseconds.
func SnapshotURL(cameraID string, at time.Time) string {
	q := url.Values{}
	q.Set("t", strconv.FormatInt(at.UnixMilli(), 10))
	return NYCBaseURL + "/" + url.PathEscape(cameraID) + "/image?" + q.Encode()
}
