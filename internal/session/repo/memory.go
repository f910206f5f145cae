package repo

import (
	"context"
	"sync"
)

// MemoryStorage keeps slots in a map. It does not survive the process.
type MemoryStorage struct {
	mu    sync.RWMutex
	slots map[string]string
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{slots: map[string]string{}}
}

func (m *MemoryStorage) Get(_ context.Context, slot string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.slots[slot]
	return v, ok, nil
}

func (m *MemoryStorage) Set(_ context.Context, slot, value string) error {
	m.mu.Lock()
	m.slots[slot] = value
	m.mu.Unlock()
	return nil
}

func (m *MemoryStorage) Remove(_ context.Context, slots ...string) error {
	m.mu.Lock()
	for _, s := range slots {
		delete(m.slots, s)
	}
	m.mu.Unlock()
	return nil
}

func (m *MemoryStorage) Close() error { return nil }
