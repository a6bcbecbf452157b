package database

import (
	"context"
	"fmt"
	"sync"
)

var (
	projectStore func() ProjectWriter
	providerMu   sync.RWMutex
)

// RegisterProjectStore registers the ProjectWriter constructor.
// This is called by the backend package to avoid import cycles.
func RegisterProjectStore(store func() ProjectWriter) {
	providerMu.Lock()
	defer providerMu.Unlock()
	projectStore = store
}

// IsInitialized returns whether a project backend has been registered.
func IsInitialized() bool {
	providerMu.RLock()
	defer providerMu.RUnlock()
	return projectStore != nil
}

// GetProjectStore returns a ProjectWriter from the registered backend
func GetProjectStore(ctx context.Context) (ProjectWriter, error) {
	providerMu.RLock()
	defer providerMu.RUnlock()
	if projectStore == nil {
		return nil, fmt.Errorf("project store not initialized: DATABASE_URL is required")
	}
	return projectStore(), nil
}

// GetProjectReader returns a ProjectReader from the registered backend
func GetProjectReader(ctx context.Context) (ProjectReader, error) {
	return GetProjectStore(ctx)
}

// ResetForTesting clears the registered backend.
func ResetForTesting() {
	providerMu.Lock()
	defer providerMu.Unlock()
	projectStore = nil
}
