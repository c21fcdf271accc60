// Package store owns the canonical in-memory task collection. Every mutation
// mirrors the whole collection to the configured Persister before returning.
package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"todo-manager/backend/internal/models"
	"todo-manager/backend/internal/storage"

	"github.com/sirupsen/logrus"
)

var ErrTaskNotFound = errors.New("task not found")

// PersistError reports a mutation that was applied in memory but could not be
// written to durable storage. The next successful write catches up.
type PersistError struct {
	Op  string
	Err error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("%s: task collection not persisted: %v", e.Op, e.Err)
}

func (e *PersistError) Unwrap() error {
	return e.Err
}

// IsPersistError reports whether err carries a *PersistError.
func IsPersistError(err error) bool {
	var pe *PersistError
	return errors.As(err, &pe)
}

type Persister interface {
	Load(ctx context.Context) ([]models.Task, error)
	Save(ctx context.Context, tasks []models.Task) error
}

// Recorder receives one call per mutation; persisted is false when the write failed.
type Recorder interface {
	RecordMutation(op string, persisted bool)
}

type Option func(*Store)

func WithLogger(log logrus.FieldLogger) Option {
	return func(s *Store) { s.log = log }
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.ids = NewIDGenerator(now) }
}

func WithRecorder(r Recorder) Option {
	return func(s *Store) { s.recorder = r }
}

type Store struct {
	mu        sync.RWMutex
	tasks     []models.Task
	persister Persister
	ids       *IDGenerator
	log       logrus.FieldLogger
	recorder  Recorder
	recovered bool
	dirty     bool
}

// Open loads the collection once. Malformed stored data is replaced by an
// empty collection and reported through Recovered; read failures are returned.
func Open(ctx context.Context, persister Persister, opts ...Option) (*Store, error) {
	s := &Store{
		persister: persister,
		ids:       NewIDGenerator(nil),
		log:       logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}

	tasks, err := persister.Load(ctx)
	if err != nil {
		if !errors.Is(err, storage.ErrMalformedData) {
			return nil, fmt.Errorf("failed to load tasks: %w", err)
		}
		s.log.WithError(err).Warn("stored tasks are unreadable, starting with an empty collection")
		s.recovered = true
		tasks = nil
	}

	s.tasks = make([]models.Task, 0, len(tasks))
	seen := make(map[int64]struct{}, len(tasks))
	for _, t := range tasks {
		if _, dup := seen[t.ID]; dup {
			s.log.WithField("task_id", t.ID).Warn("dropping duplicate task id from stored collection")
			continue
		}
		seen[t.ID] = struct{}{}
		s.ids.Observe(t.ID)
		s.tasks = append(s.tasks, t)
	}

	s.log.WithField("count", len(s.tasks)).Debug("task collection loaded")
	return s, nil
}

// Recovered reports whether Open discarded malformed stored data.
func (s *Store) Recovered() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.recovered
}

// Dirty reports whether the last write failed and memory is ahead of storage.
func (s *Store) Dirty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dirty
}

func (s *Store) indexOf(id int64) int {
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) persistLocked(ctx context.Context, op string) error {
	err := s.persister.Save(ctx, s.tasks)
	if s.recorder != nil {
		s.recorder.RecordMutation(op, err == nil)
	}
	if err != nil {
		s.dirty = true
		s.log.WithError(err).WithField("op", op).Error("failed to persist tasks, keeping changes in memory")
		return &PersistError{Op: op, Err: err}
	}
	s.dirty = false
	return nil
}

// Create assigns a fresh id and appends the task. The input is stored as given.
func (s *Store) Create(ctx context.Context, in models.TaskInput) (models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	task := in.WithID(s.ids.Next())
	s.tasks = append(s.tasks, task)

	return task, s.persistLocked(ctx, "create")
}

// Update merges the patch's present fields into the task with the given id.
func (s *Store) Update(ctx context.Context, id int64, patch models.TaskPatch) (models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return models.Task{}, ErrTaskNotFound
	}

	s.tasks[i] = patch.Apply(s.tasks[i])
	return s.tasks[i], s.persistLocked(ctx, "update")
}

// Replace overwrites every field of the task except its id.
func (s *Store) Replace(ctx context.Context, id int64, in models.TaskInput) (models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return models.Task{}, ErrTaskNotFound
	}

	s.tasks[i] = in.WithID(id)
	return s.tasks[i], s.persistLocked(ctx, "replace")
}

// ToggleStatus moves Pending to Completed and anything else back to Pending.
func (s *Store) ToggleStatus(ctx context.Context, id int64) (models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return models.Task{}, ErrTaskNotFound
	}

	s.tasks[i].Status = s.tasks[i].Status.Toggled()
	return s.tasks[i], s.persistLocked(ctx, "toggle")
}

func (s *Store) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return ErrTaskNotFound
	}

	s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
	return s.persistLocked(ctx, "delete")
}

func (s *Store) Get(id int64) (models.Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexOf(id)
	if i < 0 {
		return models.Task{}, false
	}
	return s.tasks[i], true
}

// List returns a copy of the collection in insertion order.
func (s *Store) List() []models.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Task, len(s.tasks))
	copy(out, s.tasks)
	return out
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tasks)
}

// Flush rewrites the full collection, typically after a failed write or on shutdown.
func (s *Store) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.persistLocked(ctx, "flush")
}
