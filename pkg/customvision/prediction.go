package customvision

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const (
	apiPrediction       = "prediction"
	predictionKeyHeader = "Prediction-Key"
	predictionBasePath  = "/customvision/v3.0/Prediction"
)

// PredictionClient talks to the prediction resource.
type PredictionClient struct {
	*client
}

// NewPredictionClient creates a prediction client.
func NewPredictionClient(opts ...Option) *PredictionClient {
	return &PredictionClient{client: newClient(apiPrediction, predictionKeyHeader, opts)}
}

// ClassifyImage sends the raw image bytes to the published iteration of
// projectID and returns the tag probabilities unchanged.
func (c *PredictionClient) ClassifyImage(ctx context.Context, projectID, iteration string, image []byte) (*ImagePrediction, error) {
	if len(image) == 0 {
		return nil, ErrEmptyImage
	}

	start := time.Now()
	path := fmt.Sprintf("%s/%s/classify/iterations/%s/image",
		predictionBasePath, url.PathEscape(projectID), url.PathEscape(iteration))

	resp, err := c.do(ctx, http.MethodPost, path, "application/octet-stream", image)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var result ImagePrediction
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("customvision [%s]: decode prediction: %w", c.api, err)
	}

	c.logger.Debug("image classified",
		"project", projectID,
		"iteration", iteration,
		"bytes", len(image),
		"predictions", len(result.Predictions),
		"latency_ms", time.Since(start).Milliseconds(),
	)
	return &result, nil
}
