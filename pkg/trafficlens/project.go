package trafficlens

import (
	"context"
	"errors"
	"fmt"

	"github.com/teslashibe/trafficlens/pkg/customvision"
)

// ErrProjectNotFound is wrapped by *ProjectNotFoundError.
var ErrProjectNotFound = errors.New("project not found")

// ProjectNotFoundError reports that no visible project has the requested name.
type ProjectNotFoundError struct {
	Name string
}

func (e *ProjectNotFoundError) Error() string {
	return fmt.Sprintf("no existing project named '%s' found, check the Custom Vision portal", e.Name)
}

// Unwrap lets errors.Is match ErrProjectNotFound.
func (e *ProjectNotFoundError) Unwrap() error {
	return ErrProjectNotFound
}

// ResolveProject lists the projects visible to lister and returns the first
// whose name equals name exactly. Project names are assumed unique; with
// duplicates, which one is returned depends on the service's list order.
func ResolveProject(ctx context.Context, lister customvision.ProjectLister, name string) (customvision.Project, error) {
	projects, err := lister.ListProjects(ctx)
	if err != nil {
		return customvision.Project{}, fmt.Errorf("list projects: %w", err)
	}
	for _, p := range projects {
		if p.Name == name {
			return p, nil
		}
	}
	return customvision.Project{}, &ProjectNotFoundError{Name: name}
}
