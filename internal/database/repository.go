package database

import (
	"context"
	"errors"
)

// ErrProjectNotFound is returned when an update targets a missing project.
var ErrProjectNotFound = errors.New("project not found")

// ProjectReader provides read-only access to projects
type ProjectReader interface {
	// ListProjects returns all projects ordered by sort_order, newest first on ties
	ListProjects(ctx context.Context) ([]Project, error)
	// GetProject returns a project by id, nil if not found
	GetProject(ctx context.Context, id string) (*Project, error)
	// MaxSortOrder returns the highest sort_order in use, 0 when there are no projects
	MaxSortOrder(ctx context.Context) (int, error)
}

// ProjectWriter provides write access to projects
type ProjectWriter interface {
	ProjectReader

	// InsertProject stores a new project. An empty ID is filled in.
	InsertProject(ctx context.Context, p *Project) error
	// UpdateProject overwrites the editable columns of a project
	UpdateProject(ctx context.Context, id string, u ProjectUpdate) error
	// DeleteProjects removes all projects with the given ids and returns how many were removed
	DeleteProjects(ctx context.Context, ids []string) (int, error)
	// UpdateProjectOrder assigns sort_order 1..n to ids in the given order and
	// returns the number of projects that matched
	UpdateProjectOrder(ctx context.Context, orderedIDs []string) (int, error)
}
