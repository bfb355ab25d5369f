package validation

import (
	"fmt"
	"strings"

	"github.com/kbukum/hybridstt/errors"
)

// FieldError is one failing field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Validator collects field errors from programmatic checks.
type Validator struct {
	errors []FieldError
}

// New creates an empty Validator.
func New() *Validator {
	return &Validator{}
}

func (v *Validator) AddError(field, message string) {
	v.errors = append(v.errors, FieldError{Field: field, Message: message})
}

func (v *Validator) HasErrors() bool { return len(v.errors) > 0 }

func (v *Validator) Errors() []FieldError { return v.errors }

// Validate returns nil when no check failed. The returned error is an
// INVALID_INPUT AppError with a "fields" detail.
func (v *Validator) Validate() error {
	if !v.HasErrors() {
		return nil
	}
	msgs := make([]string, len(v.errors))
	for i, e := range v.errors {
		msgs[i] = e.Field + ": " + e.Message
	}
	return errors.Validation(strings.Join(msgs, "; ")).WithDetail("fields", v.errors)
}

// Required fails on empty or whitespace-only values.
func (v *Validator) Required(field, value string) *Validator {
	if strings.TrimSpace(value) == "" {
		v.AddError(field, "is required")
	}
	return v
}

// Unit checks 0 <= value <= 1.
func (v *Validator) Unit(field string, value float64) *Validator {
	if value < 0 || value > 1 {
		v.AddError(field, fmt.Sprintf("must be between 0 and 1, got %g", value))
	}
	return v
}

// Positive checks value > 0.
func (v *Validator) Positive(field string, value int64) *Validator {
	if value <= 0 {
		v.AddError(field, "must be positive")
	}
	return v
}

// OneOf ignores empty values.
func (v *Validator) OneOf(field, value string, allowed ...string) *Validator {
	if value == "" {
		return v
	}
	for _, a := range allowed {
		if value == a {
			return v
		}
	}
	v.AddError(field, "must be one of: "+strings.Join(allowed, ", "))
	return v
}

// Check records message when ok is false.
func (v *Validator) Check(ok bool, field, message string) *Validator {
	if !ok {
		v.AddError(field, message)
	}
	return v
}
