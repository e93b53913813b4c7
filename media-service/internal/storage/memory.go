package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"sync"
	"time"
)

// MemoryStore keeps objects in-process for local development and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string][]byte)}
}

// Put implements ObjectStore.
func (m *MemoryStore) Put(_ context.Context, objectPath, _ string, data io.Reader) (int64, error) {
	var buf bytes.Buffer
	n, err := io.Copy(&buf, data)
	if err != nil {
		return n, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.objects[objectPath]; exists {
		return n, fmt.Errorf("object %s already exists", objectPath)
	}
	m.objects[objectPath] = buf.Bytes()
	return n, nil
}

// SignedURL implements ObjectStore with a non-routable memory:// URL.
func (m *MemoryStore) SignedURL(_ context.Context, objectPath string, expires time.Time) (string, error) {
	return fmt.Sprintf("memory://photos/%s?expires=%d", url.PathEscape(objectPath), expires.Unix()), nil
}

// Has reports whether objectPath was stored.
func (m *MemoryStore) Has(objectPath string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.objects[objectPath]
	return ok
}

// Delete implements ObjectStore.
func (m *MemoryStore) Delete(_ context.Context, objectPath string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, objectPath)
	return nil
}
