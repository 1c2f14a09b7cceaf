package auth

import (
	"fmt"
	"sort"
	"sync"
)

// MockStore implements CredentialStore in memory for tests
type MockStore struct {
	sets map[string]*CookieSet
	mu   sync.RWMutex

	// Error injection for testing
	StoreError    error
	RetrieveError error
	ListError     error
	DeleteError   error
}

// NewMockStore creates a new mock store
func NewMockStore() *MockStore {
	return &MockStore{sets: make(map[string]*CookieSet)}
}

func clone(set *CookieSet) *CookieSet {
	c := *set
	c.Cookies = append([]string(nil), set.Cookies...)
	return &c
}

// Store saves a copy of set
func (m *MockStore) Store(set *CookieSet) error {
	if m.StoreError != nil {
		return m.StoreError
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if set == nil || set.Name == "" {
		return ErrInvalidCredentials
	}
	m.sets[set.Name] = clone(set)
	return nil
}

// Retrieve returns a copy of the named set
func (m *MockStore) Retrieve(name string) (*CookieSet, error) {
	if m.RetrieveError != nil {
		return nil, m.RetrieveError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if name == "" {
		return nil, ErrInvalidCredentials
	}
	set, ok := m.sets[name]
	if !ok {
		return nil, ErrCredentialsNotFound
	}
	return clone(set), nil
}

// List returns copies of all sets sorted by name
func (m *MockStore) List() ([]*CookieSet, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	sets := make([]*CookieSet, 0, len(m.sets))
	for _, set := range m.sets {
		sets = append(sets, clone(set))
	}
	sort.Slice(sets, func(i, j int) bool { return sets[i].Name < sets[j].Name })
	return sets, nil
}

// Delete removes the named set
func (m *MockStore) Delete(name string) error {
	if m.DeleteError != nil {
		return m.DeleteError
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if name == "" {
		return ErrInvalidCredentials
	}
	if _, ok := m.sets[name]; !ok {
		return ErrCredentialsNotFound
	}
	delete(m.sets, name)
	return nil
}

// Exists checks if the named set is stored
func (m *MockStore) Exists(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.sets[name]
	return ok
}

// Count returns the number of stored sets
func (m *MockStore) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.sets)
}

// NewMockManager creates a Manager with a single mock store
func NewMockManager() (*Manager, *MockStore) {
	store := NewMockStore()
	return NewManagerWithStores(store), store
}

// Get returns a copy of the named set, ignoring injected errors
func (m *MockStore) Get(name string) (*CookieSet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	set, ok := m.sets[name]
	if !ok {
		return nil, fmt.Errorf("cookie set not found: %s", name)
	}
	return clone(set), nil
}
