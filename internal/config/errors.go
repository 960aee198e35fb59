package config

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for config operations
var (
	ErrConfigNotFound = errors.New("app config not found")
	ErrInvalidConfig  = errors.New("invalid configuration")
)

// ValidationErrors holds multiple validation errors
type ValidationErrors struct {
	Errors []error
}

func (e *ValidationErrors) Error() string {
	if len(e.Errors) == 0 {
		return "no validation errors"
	}
	var msgs []string
	for _, err := range e.Errors {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(msgs, "; "))
}

// Add records err if it is not nil.
func (e *ValidationErrors) Add(err error) {
	if err != nil {
		e.Errors = append(e.Errors, err)
	}
}

// HasErrors reports whether any error was recorded.
func (e *ValidationErrors) HasErrors() bool {
	return len(e.Errors) > 0
}

// Unwrap exposes the recorded errors to errors.Is and errors.As.
func (e *ValidationErrors) Unwrap() []error {
	return e.Errors
}

// FieldError represents a validation error for a specific setting
type FieldError struct {
	Field string // Setting name as written in the config file
	Value string // Invalid value
	Err   error  // Underlying error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s (%s): %v", e.Field, e.Value, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// NewFieldError creates a new FieldError
func NewFieldError(field, value string, err error) *FieldError {
	return &FieldError{
		Field: field,
		Value: value,
		Err:   err,
	}
}
