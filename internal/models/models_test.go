package models_test

import (
	"testing"

	"todo-manager/backend/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestStatus_Valid(t *testing.T) {
	for _, s := range []models.Status{models.StatusPending, models.StatusInProgress, models.StatusCompleted} {
		if !s.Valid() {
			t.Errorf("Expected %q to be valid", s)
		}
	}

	if models.Status("pending").Valid() {
		t.Error("Expected lower-case status to be invalid")
	}
}

func TestPriority_Rank(t *testing.T) {
	assert.Equal(t, 3, models.PriorityHigh.Rank())
	assert.Equal(t, 2, models.PriorityMedium.Rank())
	assert.Equal(t, 1, models.PriorityLow.Rank())
	assert.Equal(t, 0, models.Priority("Urgent").Rank())
	assert.False(t, models.Priority("Urgent").Valid())
}

func TestStatus_Toggled(t *testing.T) {
	assert.Equal(t, models.StatusCompleted, models.StatusPending.Toggled())
	assert.Equal(t, models.StatusPending, models.StatusCompleted.Toggled())
	assert.Equal(t, models.StatusPending, models.StatusInProgress.Toggled())
}

func TestTaskPatch_Apply(t *testing.T) {
	task := models.Task{
		ID:          7,
		Title:       "Buy milk",
		Description: "2 litres",
		Status:      models.StatusPending,
		Priority:    models.PriorityLow,
		DueDate:     "2024-01-10",
	}

	status := models.StatusCompleted
	title := "Buy oat milk"
	got := models.TaskPatch{Status: &status, Title: &title}.Apply(task)

	assert.Equal(t, int64(7), got.ID)
	assert.Equal(t, "Buy oat milk", got.Title)
	assert.Equal(t, models.StatusCompleted, got.Status)
	assert.Equal(t, "2 litres", got.Description)
	assert.Equal(t, models.PriorityLow, got.Priority)
	assert.Equal(t, "2024-01-10", got.DueDate)

	assert.Equal(t, "Buy milk", task.Title, "Apply must not mutate its argument")
}

func TestTaskPatch_Empty(t *testing.T) {
	assert.True(t, models.TaskPatch{}.Empty())

	d := "2024-02-01"
	assert.False(t, models.TaskPatch{DueDate: &d}.Empty())
}

func TestTask_Due(t *testing.T) {
	d, ok := models.Task{DueDate: "2024-02-29"}.Due()
	assert.True(t, ok)
	assert.Equal(t, 29, d.Day())

	_, ok = models.Task{DueDate: "29/02/2024"}.Due()
	assert.False(t, ok)

	_, ok = models.Task{}.Due()
	assert.False(t, ok)
}

func TestTaskInput_WithID(t *testing.T) {
	in := models.TaskInput{Title: "X", Description: "Y", Status: models.StatusPending, Priority: models.PriorityMedium, DueDate: "2024-02-01"}
	task := in.WithID(42)

	if task.ID != 42 || task.Title != "X" || task.DueDate != "2024-02-01" {
		t.Errorf("Unexpected task %+v", task)
	}
}
