package vault

import (
	"context"
	"fmt"
	"sync"
)

// Memory is an in-memory secret store for tests and development.
// It is safe for concurrent use.
type Memory struct {
	store map[string][]byte
	mu    sync.RWMutex
}

// NewMemory creates an empty store, optionally seeded with values.
func NewMemory(seed map[string]string) *Memory {
	m := &Memory{store: make(map[string][]byte, len(seed))}
	for ref, value := range seed {
		m.store[ref] = []byte(value)
	}
	return m
}

// GetSecret returns the value stored under ref.
func (m *Memory) GetSecret(ctx context.Context, ref string) (string, error) {
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("get secret cancelled: %w", ctx.Err())
	default:
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	value, ok := m.store[ref]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrSecretNotFound, ref)
	}
	return string(value), nil
}

// SetSecret stores value under ref, replacing any previous value.
func (m *Memory) SetSecret(ctx context.Context, ref, value string) error {
	if ref == "" {
		return fmt.Errorf("secret reference cannot be empty")
	}
	select {
	case <-ctx.Done():
		return fmt.Errorf("set secret cancelled: %w", ctx.Err())
	default:
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if old, ok := m.store[ref]; ok {
		clear(old)
	}
	m.store[ref] = []byte(value)
	return nil
}

// DeleteSecret removes ref. Deleting a missing reference is not an error.
func (m *Memory) DeleteSecret(_ context.Context, ref string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if old, ok := m.store[ref]; ok {
		clear(old)
		delete(m.store, ref)
	}
	return nil
}

// Close zeroes and drops every stored value.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for ref, value := range m.store {
		clear(value)
		delete(m.store, ref)
	}
	return nil
}
