package customvision

import (
	"context"
	"sync"
)

// Mock implements ProjectLister and Predictor for testing.
type Mock struct {
	// ListProjectsFunc is called when ListProjects is invoked.
	ListProjectsFunc func(ctx context.Context) ([]Project, error)

	// ClassifyImageFunc is called when ClassifyImage is invoked.
	ClassifyImageFunc func(ctx context.Context, projectID, iteration string, image []byte) (*ImagePrediction, error)

	mu    sync.Mutex
	calls []MockCall
}

// MockCall records a method invocation.
type MockCall struct {
	Method    string
	ProjectID string
	Iteration string
	Image     []byte
}

// NewMock creates a mock that lists no projects and returns no predictions.
func NewMock() *Mock {
	return &Mock{
		ListProjectsFunc: func(ctx context.Context) ([]Project, error) {
			return nil, nil
		},
		ClassifyImageFunc: func(ctx context.Context, projectID, iteration string, image []byte) (*ImagePrediction, error) {
			return &ImagePrediction{Project: projectID, Iteration: iteration}, nil
		},
	}
}

// ListProjects calls ListProjectsFunc and records the call.
func (m *Mock) ListProjects(ctx context.Context) ([]Project, error) {
	m.record(MockCall{Method: "ListProjects"})
	return m.ListProjectsFunc(ctx)
}

// ClassifyImage calls ClassifyImageFunc and records the call.
func (m *Mock) ClassifyImage(ctx context.Context, projectID, iteration string, image []byte) (*ImagePrediction, error) {
	m.record(MockCall{Method: "ClassifyImage", ProjectID: projectID, Iteration: iteration, Image: image})
	return m.ClassifyImageFunc(ctx, projectID, iteration, image)
}

// Calls returns all recorded calls.
func (m *Mock) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MockCall, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallCount returns how many times method was called.
func (m *Mock) CallCount(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if c.Method == method {
			n++
		}
	}
	return n
}

func (m *Mock) record(call MockCall) {
	m.mu.Lock()
	m.calls = append(m.calls, call)
	m.mu.Unlock()
}
