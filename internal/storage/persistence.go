package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"todo-manager/backend/internal/models"
)

// DefaultKey is the well-known key holding the whole task collection.
const DefaultKey = "tasks"

// Persistence mirrors the task collection into a single slot key as a JSON array.
type Persistence struct {
	slot Slot
	key  string
}

func NewPersistence(slot Slot, key string) *Persistence {
	if key == "" {
		key = DefaultKey
	}
	return &Persistence{slot: slot, key: key}
}

func (p *Persistence) Key() string {
	return p.key
}

func (p *Persistence) Slot() Slot {
	return p.slot
}

// Load reads the collection. An absent or blank value is an empty collection.
// Undecodable data also yields an empty collection, returned together with an
// error wrapping ErrMalformedData so callers can tell the two apart.
func (p *Persistence) Load(ctx context.Context) ([]models.Task, error) {
	data, err := p.slot.Get(ctx, p.key)
	if err != nil {
		if errors.Is(err, ErrSlotEmpty) {
			return []models.Task{}, nil
		}
		return nil, fmt.Errorf("failed to read %q: %w", p.key, err)
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return []models.Task{}, nil
	}

	var tasks []models.Task
	if err := json.Unmarshal(data, &tasks); err != nil {
		return []models.Task{}, fmt.Errorf("%w: %v", ErrMalformedData, err)
	}
	if tasks == nil {
		tasks = []models.Task{}
	}

	return tasks, nil
}

// Save serializes the full collection and overwrites the slot key.
func (p *Persistence) Save(ctx context.Context, tasks []models.Task) error {
	if tasks == nil {
		tasks = []models.Task{}
	}

	data, err := json.Marshal(tasks)
	if err != nil {
		return fmt.Errorf("failed to marshal tasks: %w", err)
	}

	if err := p.slot.Set(ctx, p.key, data); err != nil {
		return fmt.Errorf("failed to write %q: %w", p.key, err)
	}

	return nil
}
