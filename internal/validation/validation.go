// Package validation holds the form rules applied by the presentation layers
// before anything reaches the task store.
package validation

import (
	"errors"
	"reflect"
	"strings"
	"time"

	"todo-manager/backend/internal/models"

	"github.com/go-playground/validator/v10"
)

type Validator struct {
	validate *validator.Validate
}

func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	v.RegisterValidation("notblank", NotBlankValidator)
	v.RegisterValidation("isodate", ISODateValidator)
	v.RegisterValidation("taskstatus", StatusValidator)
	v.RegisterValidation("taskpriority", PriorityValidator)

	return &Validator{validate: v}
}

// NotBlankValidator fails on empty or whitespace-only strings.
func NotBlankValidator(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

func ISODateValidator(fl validator.FieldLevel) bool {
	_, err := time.Parse(models.DateLayout, fl.Field().String())
	return err == nil
}

func StatusValidator(fl validator.FieldLevel) bool {
	return models.Status(fl.Field().String()).Valid()
}

func PriorityValidator(fl validator.FieldLevel) bool {
	return models.Priority(fl.Field().String()).Valid()
}

// FieldErrors maps a JSON field name to a user-facing message.
type FieldErrors map[string]string

func (f FieldErrors) Error() string {
	parts := make([]string, 0, len(f))
	for field, msg := range f {
		parts = append(parts, field+": "+msg)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Struct validates s; rule violations come back as FieldErrors.
func (v *Validator) Struct(s interface{}) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	out := make(FieldErrors, len(verrs))
	for _, fe := range verrs {
		out[fe.Field()] = message(fe)
	}
	return out
}

var labels = map[string]string{
	"title":       "Title",
	"description": "Description",
	"dueDate":     "Due date",
	"status":      "Status",
	"priority":    "Priority",
}

func message(fe validator.FieldError) string {
	label, ok := labels[fe.Field()]
	if !ok {
		label = fe.Field()
	}

	switch fe.Tag() {
	case "required", "notblank":
		return label + " is required"
	case "isodate":
		return label + " must be a YYYY-MM-DD date"
	case "taskstatus":
		return label + " must be one of Pending, In Progress, Completed"
	case "taskpriority":
		return label + " must be one of High, Medium, Low"
	}
	return label + " is invalid"
}
