package validation

import (
	"fmt"
	"strings"
	"time"

	"github.com/kbukum/mysqlsvc/errors"
)

// Validator collects validation errors for rules that struct tags cannot
// express, such as cross-field constraints and duration strings.
type Validator struct {
	errors []FieldError
}

// FieldError represents a validation error for a specific field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// New creates a new Validator.
func New() *Validator {
	return &Validator{errors: make([]FieldError, 0)}
}

// AddError adds a field error.
func (v *Validator) AddError(field, message string) {
	v.errors = append(v.errors, FieldError{Field: field, Message: message})
}

// Check adds an error when cond is false.
func (v *Validator) Check(cond bool, field, message string) *Validator {
	if !cond {
		v.AddError(field, message)
	}
	return v
}

// Duration checks that value parses as a time.Duration. Empty values pass.
func (v *Validator) Duration(field, value string) *Validator {
	if value == "" {
		return v
	}
	if _, err := time.ParseDuration(value); err != nil {
		v.AddError(field, fmt.Sprintf("invalid duration %q", value))
	}
	return v
}

// Merge appends the field errors carried by err, as returned by Validate.
// Errors without field details are recorded under "_".
func (v *Validator) Merge(err error) *Validator {
	if err == nil {
		return v
	}
	appErr, ok := errors.AsAppError(err)
	if ok {
		if fields, ok := appErr.Details["fields"].([]FieldError); ok {
			v.errors = append(v.errors, fields...)
			return v
		}
	}
	v.AddError("_", err.Error())
	return v
}

// MergeAs is Merge for a nested section: every field is reported as
// prefix.field.
func (v *Validator) MergeAs(prefix string, err error) *Validator {
	if err == nil {
		return v
	}
	nested := New().Merge(err)
	for _, fe := range nested.errors {
		if fe.Field == "_" {
			fe.Field = prefix
		} else {
			fe.Field = prefix + "." + fe.Field
		}
		v.errors = append(v.errors, fe)
	}
	return v
}

// HasErrors returns true if there are validation errors.
func (v *Validator) HasErrors() bool {
	return len(v.errors) > 0
}

// Errors returns all validation errors.
func (v *Validator) Errors() []FieldError {
	return v.errors
}

// Validate returns an INVALID_INPUT AppError carrying the field details,
// or nil if nothing was recorded.
func (v *Validator) Validate() error {
	if !v.HasErrors() {
		return nil
	}

	messages := make([]string, len(v.errors))
	for i, e := range v.errors {
		messages[i] = e.Field + ": " + e.Message
	}

	return errors.Validation(strings.Join(messages, "; ")).
		WithDetail("fields", v.errors)
}
