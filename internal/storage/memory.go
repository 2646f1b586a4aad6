package storage

import (
	"context"
	"errors"
	"sync"
)

// Compile-time interface check
var _ Storage = (*Memory)(nil)

// Memory is an in-memory Storage implementation used in tests and for
// ephemeral runs.
type Memory struct {
	mu    sync.Mutex
	blobs map[string][]byte

	// FailWrites forces Set to return SetErr, for exercising persistence
	// failure paths.
	FailWrites bool
	SetErr     error
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{blobs: make(map[string][]byte)}
}

// Get returns the blob stored under key, or ErrNotFound.
func (m *Memory) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	value, ok := m.blobs[key]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(value))
	copy(out, value)
	return out, nil
}

// Set stores a copy of value under key.
func (m *Memory) Set(ctx context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrites {
		if m.SetErr != nil {
			return m.SetErr
		}
		return errors.New("write failed")
	}
	stored := make([]byte, len(value))
	copy(stored, value)
	m.blobs[key] = stored
	return nil
}

// Close is a no-op for the in-memory store.
func (m *Memory) Close() error {
	return nil
}
