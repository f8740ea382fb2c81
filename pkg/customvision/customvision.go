// Package customvision is a small client for the Azure Custom Vision
// training and prediction REST APIs.
//
// Only the two calls a classification run needs are implemented: listing
// projects on the training resource and classifying an image against a
// published iteration on the prediction resource.
//
// Example usage:
//
//	trainer := customvision.NewTrainingClient(
//	    customvision.WithEndpoint(os.Getenv("VISION_TRAINING_ENDPOINT")),
//	    customvision.WithKey(os.Getenv("VISION_TRAINING_KEY")),
//	)
//	projects, _ := trainer.ListProjects(ctx)
//
//	predictor := customvision.NewPredictionClient(
//	    customvision.WithEndpoint(os.Getenv("VISION_PREDICTION_ENDPOINT")),
//	    customvision.WithKey(os.Getenv("VISION_PREDICTION_KEY")),
//	)
//	result, _ := predictor.ClassifyImage(ctx, projects[0].ID, "Iteration1", jpeg)
package customvision

import (
	"context"
	"time"
)

// ProjectLister lists the projects visible to a training key.
type ProjectLister interface {
	ListProjects(ctx context.Context) ([]Project, error)
}

// Predictor classifies raw image bytes against a published iteration.
type Predictor interface {
	ClassifyImage(ctx context.Context, projectID, iteration string, image []byte) (*ImagePrediction, error)
}

// Project is a Custom Vision project.
type Project struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	Created      time.Time `json:"created"`
	LastModified time.Time `json:"lastModified"`
}

// Prediction is one tag probability returned by the service.
type Prediction struct {
	Probability float64 `json:"probability"`
	TagID       string  `json:"tagId"`
	TagName     string  `json:"tagName"`
	TagType     string  `json:"tagType,omitempty"`
}

// ImagePrediction is the result of a classify call. Predictions keep the
// order the service returned them in.
type ImagePrediction struct {
	ID          string       `json:"id"`
	Project     string       `json:"project"`
	Iteration   string       `json:"iteration"`
	Created     time.Time    `json:"created"`
	Predictions []Prediction `json:"predictions"`
}
