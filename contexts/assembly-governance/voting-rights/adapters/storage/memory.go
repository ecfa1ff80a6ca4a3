package storage

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// Memory records artifact paths in process. Tests seed it with Put and
// inspect what delegation flows removed.
type Memory struct {
	mu      sync.Mutex
	objects map[string][]byte
	deleted []string
}

func NewMemory() *Memory {
	return &Memory{objects: make(map[string][]byte)}
}

func (m *Memory) Put(path string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[normalizePath(path)] = append([]byte(nil), data...)
}

func (m *Memory) Exists(path string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[normalizePath(path)]
	return ok
}

// Delete is idempotent: removing a missing path succeeds.
func (m *Memory) Delete(_ context.Context, path string) error {
	key := normalizePath(path)
	if key == "" {
		return ErrInvalidPath
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	m.deleted = append(m.deleted, key)
	return nil
}

func (m *Memory) Deleted() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := append([]string(nil), m.deleted...)
	sort.Strings(items)
	return items
}

func normalizePath(path string) string {
	return strings.TrimLeft(strings.TrimSpace(path), "/")
}
