package customvision

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

const (
	apiTraining       = "training"
	trainingKeyHeader = "Training-Key"
	trainingBasePath  = "/customvision/v3.3/training"
)

// TrainingClient talks to the training resource. Only read calls are
// implemented.
type TrainingClient struct {
	*client
}

// NewTrainingClient creates a training client.
func NewTrainingClient(opts ...Option) *TrainingClient {
	return &TrainingClient{client: newClient(apiTraining, trainingKeyHeader, opts)}
}

// ListProjects returns all projects visible to the training key, in the
// order the service lists them.
func (c *TrainingClient) ListProjects(ctx context.Context) ([]Project, error) {
	resp, err := c.do(ctx, http.MethodGet, trainingBasePath+"/projects", "", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var projects []Project
	if err := json.NewDecoder(resp.Body).Decode(&projects); err != nil {
		return nil, fmt.Errorf("customvision [%s]: decode projects: %w", c.api, err)
	}

	c.logger.Debug("listed projects", "count", len(projects))
	return projects, nil
}
