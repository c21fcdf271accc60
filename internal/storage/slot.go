package storage

import (
	"context"
	"errors"
	"sync"
)

var (
	ErrSlotEmpty     = errors.New("storage slot is empty")
	ErrMalformedData = errors.New("stored task collection is malformed")
)

// Slot is a durable key-value location holding one opaque value per key.
type Slot interface {
	// Get returns ErrSlotEmpty when nothing was ever written under key.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set overwrites the value under key.
	Set(ctx context.Context, key string, value []byte) error
	Health(ctx context.Context) error
	Close() error
}

type MemorySlot struct {
	mu     sync.RWMutex
	values map[string][]byte
}

func NewMemorySlot() *MemorySlot {
	return &MemorySlot{values: make(map[string][]byte)}
}

func (m *MemorySlot) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.values[key]
	if !ok {
		return nil, ErrSlotEmpty
	}
	return append([]byte(nil), v...), nil
}

func (m *MemorySlot) Set(ctx context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.values[key] = append([]byte(nil), value...)
	return nil
}

func (m *MemorySlot) Health(ctx context.Context) error {
	return nil
}

func (m *MemorySlot) Close() error {
	return nil
}
