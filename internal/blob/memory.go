package blob

import (
	"context"
	"sync"
)

type object struct {
	data        []byte
	contentType string
}

type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string]object
	baseURL string
}

func NewMemoryStore(baseURL string) *MemoryStore {
	return &MemoryStore{objects: make(map[string]object), baseURL: baseURL}
}

func (m *MemoryStore) Upload(ctx context.Context, path string, data []byte, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", ErrEmptyObject
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[path] = object{data: append([]byte(nil), data...), contentType: contentType}
	return path, nil
}

func (m *MemoryStore) PublicURL(ref string) string {
	return joinURL(m.baseURL, ref)
}

// Object returns a copy of what was uploaded under ref.
func (m *MemoryStore) Object(ref string) ([]byte, string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.objects[ref]
	if !ok {
		return nil, "", false
	}
	return append([]byte(nil), o.data...), o.contentType, true
}
