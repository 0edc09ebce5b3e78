package mocks

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/esolrine-stories/internal/cache"
)

// MockPageCache is an in-memory PageCache that records invalidations
type MockPageCache struct {
	mu sync.Mutex

	Pages       map[string]map[string][]byte
	Invalidated [][]string
	GetError    error
	SetError    error
}

// Verify interface compliance
var _ cache.PageCache = (*MockPageCache)(nil)

func NewMockPageCache() *MockPageCache {
	return &MockPageCache{
		Pages: make(map[string]map[string][]byte),
	}
}

func (m *MockPageCache) Get(ctx context.Context, page, variant string, dest interface{}) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.GetError != nil {
		return false, m.GetError
	}
	payload, ok := m.Pages[page][variant]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(payload, dest)
}

func (m *MockPageCache) Set(ctx context.Context, page, variant string, value interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.SetError != nil {
		return m.SetError
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if m.Pages[page] == nil {
		m.Pages[page] = make(map[string][]byte)
	}
	m.Pages[page][variant] = payload
	return nil
}

func (m *MockPageCache) Invalidate(ctx context.Context, pages ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Invalidated = append(m.Invalidated, append([]string{}, pages...))
	for _, page := range pages {
		delete(m.Pages, page)
	}
	return nil
}

// Has reports whether any variant of page is cached
func (m *MockPageCache) Has(page string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Pages[page]) > 0
}

// LastInvalidated returns the most recent invalidation set
func (m *MockPageCache) LastInvalidated() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Invalidated) == 0 {
		return nil
	}
	return m.Invalidated[len(m.Invalidated)-1]
}
