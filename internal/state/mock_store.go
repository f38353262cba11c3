package state

import (
	"path/filepath"
	"sort"
	"sync"

	"github.com/TheMichaelB/dircrypt/internal/models"
)

// MockStore provides an in-memory implementation for testing.
type MockStore struct {
	mu         sync.RWMutex
	containers map[string]*models.Container

	// SaveErr, when set, is returned by Save.
	SaveErr error
}

// NewMockStore creates a mock state store.
func NewMockStore() *MockStore {
	return &MockStore{
		containers: make(map[string]*models.Container),
	}
}

// Load returns a copy of the stored record.
func (m *MockStore) Load(path string) (*models.Container, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if c, ok := m.containers[filepath.Clean(path)]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, ErrStateNotFound
}

// Save stores a copy of c.
func (m *MockStore) Save(c *models.Container) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.SaveErr != nil {
		return m.SaveErr
	}
	cp := *c
	m.containers[filepath.Clean(c.Path)] = &cp
	return nil
}

// Remove deletes a record.
func (m *MockStore) Remove(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.containers, filepath.Clean(path))
	return nil
}

// List returns copies of all records ordered by path.
func (m *MockStore) List() ([]*models.Container, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*models.Container
	for _, c := range m.containers {
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

// Close releases resources.
func (m *MockStore) Close() error {
	return nil
}
