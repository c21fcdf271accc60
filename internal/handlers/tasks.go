package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"todo-manager/backend/internal/models"
	"todo-manager/backend/internal/query"
	"todo-manager/backend/internal/store"
	"todo-manager/backend/internal/validation"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const PersistenceErrorHeader = "X-Persistence-Error"

// TaskStore is the part of *store.Store the handlers depend on.
type TaskStore interface {
	Create(ctx context.Context, in models.TaskInput) (models.Task, error)
	Update(ctx context.Context, id int64, patch models.TaskPatch) (models.Task, error)
	Replace(ctx context.Context, id int64, in models.TaskInput) (models.Task, error)
	ToggleStatus(ctx context.Context, id int64) (models.Task, error)
	Delete(ctx context.Context, id int64) error
	Get(id int64) (models.Task, bool)
	List() []models.Task
}

type TaskHandler struct {
	tasks     TaskStore
	validator *validation.Validator
	log       logrus.FieldLogger
	now       func() time.Time
}

func NewTaskHandler(tasks TaskStore, v *validation.Validator, log logrus.FieldLogger) *TaskHandler {
	return &TaskHandler{tasks: tasks, validator: v, log: log, now: time.Now}
}

// WithClock overrides the clock used for the default due date.
func (h *TaskHandler) WithClock(now func() time.Time) *TaskHandler {
	h.now = now
	return h
}

func (h *TaskHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/tasks", h.ListTasks)
	rg.POST("/tasks", h.CreateTask)
	rg.GET("/tasks/:id", h.GetTaskByID)
	rg.PUT("/tasks/:id", h.ReplaceTask)
	rg.PATCH("/tasks/:id", h.UpdateTask)
	rg.POST("/tasks/:id/toggle", h.ToggleTask)
	rg.DELETE("/tasks/:id", h.DeleteTask)
}

func (h *TaskHandler) ListTasks(c *gin.Context) {
	spec, err := query.ParseSpec(
		c.Query("status"),
		c.Query("priority"),
		c.Query("search"),
		c.Query("sortBy"),
	)
	if err != nil {
		handleTaskError(c, err)
		return
	}

	tasks := query.Apply(h.tasks.List(), spec)
	c.JSON(http.StatusOK, gin.H{
		"tasks": tasks,
		"total": len(tasks),
	})
}

func (h *TaskHandler) CreateTask(c *gin.Context) {
	var form validation.TaskForm
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_json", "message": err.Error()})
		return
	}

	form.ApplyDefaults(h.now())
	if err := h.validator.Struct(form); err != nil {
		handleTaskError(c, err)
		return
	}

	task, err := h.tasks.Create(c.Request.Context(), form.Input())
	if !h.persisted(c, err) {
		return
	}
	c.JSON(http.StatusCreated, task)
}

func (h *TaskHandler) GetTaskByID(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	task, found := h.tasks.Get(id)
	if !found {
		handleTaskError(c, store.ErrTaskNotFound)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *TaskHandler) ReplaceTask(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var form validation.TaskForm
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_json", "message": err.Error()})
		return
	}
	if err := h.validator.Struct(form); err != nil {
		handleTaskError(c, err)
		return
	}

	task, err := h.tasks.Replace(c.Request.Context(), id, form.Input())
	if !h.persisted(c, err) {
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *TaskHandler) UpdateTask(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var form validation.PatchForm
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_json", "message": err.Error()})
		return
	}
	if err := h.validator.Struct(form); err != nil {
		handleTaskError(c, err)
		return
	}

	patch := form.Patch()
	if patch.Empty() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "empty_patch", "message": "no fields to update"})
		return
	}

	task, err := h.tasks.Update(c.Request.Context(), id, patch)
	if !h.persisted(c, err) {
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *TaskHandler) ToggleTask(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	task, err := h.tasks.ToggleStatus(c.Request.Context(), id)
	if !h.persisted(c, err) {
		return
	}
	c.JSON(http.StatusOK, task)
}

// DeleteTask needs ?confirm=true; the removal cannot be undone.
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if _, found := h.tasks.Get(id); !found {
		handleTaskError(c, store.ErrTaskNotFound)
		return
	}

	if confirmed, _ := strconv.ParseBool(c.Query("confirm")); !confirmed {
		c.JSON(http.StatusConflict, gin.H{
			"error":   "confirmation_required",
			"message": "repeat the request with confirm=true to delete this task",
		})
		return
	}

	err := h.tasks.Delete(c.Request.Context(), id)
	if !h.persisted(c, err) {
		return
	}
	c.Status(http.StatusNoContent)
}

// persisted reports whether the handler should go on writing its success
// response. A failed persistence write still counts as success for the
// caller but is flagged in a header.
func (h *TaskHandler) persisted(c *gin.Context, err error) bool {
	if err == nil {
		return true
	}

	var pe *store.PersistError
	if errors.As(err, &pe) {
		h.log.WithField("op", pe.Op).Warn("responding with a change that is only held in memory")
		c.Header(PersistenceErrorHeader, pe.Err.Error())
		_ = c.Error(err)
		return true
	}

	handleTaskError(c, err)
	return false
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_id", "message": "task id must be an integer"})
		return 0, false
	}
	return id, true
}

func handleTaskError(c *gin.Context, err error) {
	var fields validation.FieldErrors

	switch {
	case errors.As(err, &fields):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":  "validation_failed",
			"fields": fields,
		})
	case errors.Is(err, store.ErrTaskNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"error": "task not found",
		})
	case errors.Is(err, query.ErrInvalidFilter):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_filter",
			"message": err.Error(),
		})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "failed to process task request",
		})
	}
}
