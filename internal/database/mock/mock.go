// Package mock provides mock implementations of database interfaces for testing.
package mock

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kozaktomas/portfolio/internal/database"
)

// MockProjectStore is an in-memory implementation of database.ProjectWriter
type MockProjectStore struct {
	mu       sync.RWMutex
	projects map[string]*database.Project

	// Recorded calls
	DeleteCalls [][]string
	OrderCalls  [][]string

	// Error injection
	ListError         error
	GetError          error
	MaxSortOrderError error
	InsertError       error
	UpdateError       error
	DeleteError       error
	OrderError        error

	// OrderCountOverride, when non-nil, is returned by UpdateProjectOrder instead of the real count
	OrderCountOverride *int
}

// NewMockProjectStore creates a new mock project store
func NewMockProjectStore() *MockProjectStore {
	return &MockProjectStore{
		projects: make(map[string]*database.Project),
	}
}

// AddProject adds a project to the mock store
func (m *MockProjectStore) AddProject(p database.Project) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.projects[p.ID] = &p
}

func sortProjects(projects []database.Project) {
	slices.SortStableFunc(projects, func(a, b database.Project) int {
		if a.SortOrder != b.SortOrder {
			return a.SortOrder - b.SortOrder
		}
		return b.CreatedAt.Compare(a.CreatedAt)
	})
}

// ListProjects returns all projects in display order
func (m *MockProjectStore) ListProjects(ctx context.Context) ([]database.Project, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]database.Project, 0, len(m.projects))
	for _, p := range m.projects {
		result = append(result, *p)
	}
	sortProjects(result)
	return result, nil
}

// GetProject returns a project by id
func (m *MockProjectStore) GetProject(ctx context.Context, id string) (*database.Project, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.projects[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

// MaxSortOrder returns the highest sort order
func (m *MockProjectStore) MaxSortOrder(ctx context.Context) (int, error) {
	if m.MaxSortOrderError != nil {
		return 0, m.MaxSortOrderError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	maxOrder := 0
	for _, p := range m.projects {
		maxOrder = max(maxOrder, p.SortOrder)
	}
	return maxOrder, nil
}

// InsertProject stores a new project
func (m *MockProjectStore) InsertProject(ctx context.Context, p *database.Project) error {
	if m.InsertError != nil {
		return m.InsertError
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.projects[p.ID] = &cp
	return nil
}

// UpdateProject overwrites editable columns
func (m *MockProjectStore) UpdateProject(ctx context.Context, id string, u database.ProjectUpdate) error {
	if m.UpdateError != nil {
		return m.UpdateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.projects[id]
	if !ok {
		return database.ErrProjectNotFound
	}
	p.Title = u.Title
	p.ShortDescription = u.ShortDescription
	p.Description = u.Description
	p.ImageURL = u.ImageURL
	p.RepoURL = u.RepoURL
	p.DemoURL = u.DemoURL
	p.Tags = u.Tags
	return nil
}

// DeleteProjects removes projects by id
func (m *MockProjectStore) DeleteProjects(ctx context.Context, ids []string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DeleteCalls = append(m.DeleteCalls, slices.Clone(ids))
	if m.DeleteError != nil {
		return 0, m.DeleteError
	}
	deleted := 0
	for _, id := range ids {
		if _, ok := m.projects[id]; ok {
			delete(m.projects, id)
			deleted++
		}
	}
	return deleted, nil
}

// UpdateProjectOrder assigns sort orders 1..n to the matching ids
func (m *MockProjectStore) UpdateProjectOrder(ctx context.Context, orderedIDs []string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.OrderCalls = append(m.OrderCalls, slices.Clone(orderedIDs))
	if m.OrderError != nil {
		return 0, m.OrderError
	}
	count := 0
	for i, id := range orderedIDs {
		if p, ok := m.projects[id]; ok {
			p.SortOrder = i + 1
			count++
		}
	}
	if m.OrderCountOverride != nil {
		return *m.OrderCountOverride, nil
	}
	return count, nil
}
