// Package query derives the display list from a task collection and a
// transient filter/sort spec. Nothing here touches the store.
package query

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"todo-manager/backend/internal/models"
)

var ErrInvalidFilter = errors.New("invalid filter value")

// StatusFilter deliberately has no "In Progress" member: such tasks are only
// reachable through All.
type StatusFilter string

const (
	StatusAll       StatusFilter = "All"
	StatusPending   StatusFilter = StatusFilter(models.StatusPending)
	StatusCompleted StatusFilter = StatusFilter(models.StatusCompleted)
)

type PriorityFilter string

const (
	PriorityAll    PriorityFilter = "All"
	PriorityHigh   PriorityFilter = PriorityFilter(models.PriorityHigh)
	PriorityMedium PriorityFilter = PriorityFilter(models.PriorityMedium)
	PriorityLow    PriorityFilter = PriorityFilter(models.PriorityLow)
)

type SortKey string

const (
	SortDueDate  SortKey = "dueDate"
	SortPriority SortKey = "priority"
)

type Spec struct {
	Status   StatusFilter
	Priority PriorityFilter
	Search   string
	Sort     SortKey
}

// DefaultSpec shows every task ordered by due date.
func DefaultSpec() Spec {
	return Spec{Status: StatusAll, Priority: PriorityAll, Sort: SortDueDate}
}

// ParseSpec turns raw presentation input into a Spec. Empty values select
// All and DueDate.
func ParseSpec(status, priority, search, sortBy string) (Spec, error) {
	spec := DefaultSpec()
	spec.Search = search

	switch StatusFilter(status) {
	case "", StatusAll:
	case StatusPending, StatusCompleted:
		spec.Status = StatusFilter(status)
	default:
		return Spec{}, fmt.Errorf("%w: status %q", ErrInvalidFilter, status)
	}

	switch PriorityFilter(priority) {
	case "", PriorityAll:
	case PriorityHigh, PriorityMedium, PriorityLow:
		spec.Priority = PriorityFilter(priority)
	default:
		return Spec{}, fmt.Errorf("%w: priority %q", ErrInvalidFilter, priority)
	}

	switch SortKey(sortBy) {
	case "", SortDueDate:
	case SortPriority:
		spec.Sort = SortPriority
	default:
		return Spec{}, fmt.Errorf("%w: sortBy %q", ErrInvalidFilter, sortBy)
	}

	return spec, nil
}

func (s Spec) matches(t models.Task, needle string) bool {
	if s.Status != "" && s.Status != StatusAll && string(t.Status) != string(s.Status) {
		return false
	}
	if s.Priority != "" && s.Priority != PriorityAll && string(t.Priority) != string(s.Priority) {
		return false
	}
	return strings.Contains(strings.ToLower(t.Title), needle)
}

// Apply filters and orders tasks into a fresh slice; the input is not modified.
func Apply(tasks []models.Task, spec Spec) []models.Task {
	needle := strings.ToLower(spec.Search)

	out := make([]models.Task, 0, len(tasks))
	for _, t := range tasks {
		if spec.matches(t, needle) {
			out = append(out, t)
		}
	}

	switch spec.Sort {
	case SortPriority:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].Priority.Rank() > out[j].Priority.Rank()
		})
	default:
		sortByDueDate(out)
	}

	return out
}

// Undated or unparseable tasks go after every dated one.
func sortByDueDate(tasks []models.Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		di, okI := tasks[i].Due()
		dj, okJ := tasks[j].Due()
		switch {
		case okI && okJ:
			return di.Before(dj)
		case okI:
			return true
		default:
			return false
		}
	})
}
