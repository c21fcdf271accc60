package validation

import (
	"strings"
	"time"

	"todo-manager/backend/internal/models"
)

// TaskForm is the create/edit form. Text fields are trimmed before storage.
type TaskForm struct {
	Title       string `json:"title" validate:"notblank"`
	Description string `json:"description" validate:"notblank"`
	Status      string `json:"status" validate:"required,taskstatus"`
	Priority    string `json:"priority" validate:"required,taskpriority"`
	DueDate     string `json:"dueDate" validate:"notblank,isodate"`
}

// ApplyDefaults fills what a blank create form starts with: Pending, Medium, due today.
func (f *TaskForm) ApplyDefaults(today time.Time) {
	if f.Status == "" {
		f.Status = string(models.StatusPending)
	}
	if f.Priority == "" {
		f.Priority = string(models.PriorityMedium)
	}
	if f.DueDate == "" {
		f.DueDate = today.Format(models.DateLayout)
	}
}

func (f TaskForm) Input() models.TaskInput {
	return models.TaskInput{
		Title:       strings.TrimSpace(f.Title),
		Description: strings.TrimSpace(f.Description),
		Status:      models.Status(f.Status),
		Priority:    models.Priority(f.Priority),
		DueDate:     strings.TrimSpace(f.DueDate),
	}
}

// PatchForm validates only the fields that are present.
type PatchForm struct {
	Title       *string `json:"title" validate:"omitnil,notblank"`
	Description *string `json:"description" validate:"omitnil,notblank"`
	Status      *string `json:"status" validate:"omitnil,taskstatus"`
	Priority    *string `json:"priority" validate:"omitnil,taskpriority"`
	DueDate     *string `json:"dueDate" validate:"omitnil,notblank,isodate"`
}

func (f PatchForm) Patch() models.TaskPatch {
	var p models.TaskPatch
	if f.Title != nil {
		v := strings.TrimSpace(*f.Title)
		p.Title = &v
	}
	if f.Description != nil {
		v := strings.TrimSpace(*f.Description)
		p.Description = &v
	}
	if f.Status != nil {
		v := models.Status(*f.Status)
		p.Status = &v
	}
	if f.Priority != nil {
		v := models.Priority(*f.Priority)
		p.Priority = &v
	}
	if f.DueDate != nil {
		v := strings.TrimSpace(*f.DueDate)
		p.DueDate = &v
	}
	return p
}
