package model

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel kinds. Typed errors below report themselves as one of these through errors.Is,
// so callers can branch on the kind without caring about the details.
var (
	ErrValidation = errors.New("validation failed")
	ErrConflict   = errors.New("conflict")
	ErrNotFound   = errors.New("not found")
)

// FieldError describes a single violated rule on a single field.
type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// ValidationError lists every violated field of a payload, not just the first one.
type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return ErrValidation.Error()
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f.Field, f.Message))
	}
	return ErrValidation.Error() + ": " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// Add appends a violation.
func (e *ValidationError) Add(field, rule, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Rule: rule, Message: message})
}

// Has reports whether field has at least one violation recorded.
func (e *ValidationError) Has(field string) bool {
	for _, f := range e.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}

// OrNil returns nil when no violation was collected.
func (e *ValidationError) OrNil() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

// NewValidationError is a shortcut for a single-field violation.
func NewValidationError(field, rule, message string) *ValidationError {
	v := &ValidationError{}
	v.Add(field, rule, message)
	return v
}

// ConflictError reports a violated uniqueness or concurrency constraint.
type ConflictError struct {
	Entity     string `json:"entity"`
	Constraint string `json:"constraint"`
	Message    string `json:"message"`
}

func (e *ConflictError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "already exists"
	}
	if e.Constraint != "" {
		return fmt.Sprintf("%s conflict (%s): %s", e.Entity, e.Constraint, msg)
	}
	return fmt.Sprintf("%s conflict: %s", e.Entity, msg)
}

func (e *ConflictError) Is(target error) bool { return target == ErrConflict }

// NotFoundError reports an operation targeting a nonexistent id.
type NotFoundError struct {
	Entity string `json:"entity"`
	ID     string `json:"id"`
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s not found", e.Entity)
	}
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }
