// Package storage is the string-keyed persistence adapter. No listing,
// no transactions; serialization happens in the repositories that use it.
package storage

import (
	"context"
	"sync"
)

type Store interface {
	// Get returns the value for key, or ok=false when absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Put(ctx context.Context, key, value string) error
	Close() error
}

// Memory is an in-process Store used by tests.
type Memory struct {
	mu   sync.RWMutex
	data map[string]string
}

func NewMemory() *Memory {
	return &Memory{data: make(map[string]string)}
}

func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *Memory) Put(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *Memory) Close() error { return nil }
