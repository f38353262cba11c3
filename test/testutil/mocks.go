package testutil

import (
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/TheMichaelB/dircrypt/internal/keyring"
)

// MockRegistry mocks the kernel key registry.
type MockRegistry struct {
	mock.Mock
}

func NewMockRegistry() *MockRegistry {
	return &MockRegistry{}
}

func (m *MockRegistry) Search(keyType, description string) (int, error) {
	args := m.Called(keyType, description)
	return args.Int(0), args.Error(1)
}

func (m *MockRegistry) Add(keyType, description string, payload []byte) (int, error) {
	args := m.Called(keyType, description, payload)
	return args.Int(0), args.Error(1)
}

func (m *MockRegistry) Unlink(serial int) error {
	args := m.Called(serial)
	return args.Error(0)
}

// MemoryRegistry is an in-memory key registry with kernel semantics:
// adding an existing description updates the key in place.
type MemoryRegistry struct {
	mu       sync.Mutex
	next     int
	keys     map[string]int
	payloads map[int][]byte

	// Added records a copy of every payload ever added, in order.
	Added [][]byte
}

func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{
		next:     1000,
		keys:     make(map[string]int),
		payloads: make(map[int][]byte),
	}
}

func (r *MemoryRegistry) Search(keyType, description string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	serial, ok := r.keys[keyType+"/"+description]
	if !ok {
		return 0, keyring.ErrKeyNotFound
	}
	return serial, nil
}

func (r *MemoryRegistry) Add(keyType, description string, payload []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := append([]byte(nil), payload...)
	r.Added = append(r.Added, cp)

	name := keyType + "/" + description
	serial, ok := r.keys[name]
	if !ok {
		r.next++
		serial = r.next
		r.keys[name] = serial
	}
	r.payloads[serial] = cp
	return serial, nil
}

func (r *MemoryRegistry) Unlink(serial int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for name, s := range r.keys {
		if s == serial {
			delete(r.keys, name)
			delete(r.payloads, serial)
			return nil
		}
	}
	return keyring.ErrKeyNotFound
}

// Len returns the number of registered keys.
func (r *MemoryRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.keys)
}
