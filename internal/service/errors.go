package service

import (
	"errors"
	"strings"
)

// Error kinds. The HTTP layer maps each onto a status code.
var (
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidInput = errors.New("invalid input")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
)

// Error is a failure with a message meant for the API caller.
type Error struct {
	Kind   error
	Detail string
}

func (e *Error) Error() string {
	return e.Detail
}

func (e *Error) Unwrap() error {
	return e.Kind
}

func notFound(detail string) error     { return &Error{Kind: ErrNotFound, Detail: detail} }
func forbidden(detail string) error    { return &Error{Kind: ErrForbidden, Detail: detail} }
func invalid(detail string) error      { return &Error{Kind: ErrInvalidInput, Detail: detail} }
func conflict(detail string) error     { return &Error{Kind: ErrConflict, Detail: detail} }
func unauthorized(detail string) error { return &Error{Kind: ErrUnauthorized, Detail: detail} }

// FieldError points at one offending request field.
type FieldError struct {
	Field string
	Msg   string
}

// ValidationError lists every field that failed validation.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + ": " + f.Msg
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// Add records a field failure.
func (e *ValidationError) Add(field, msg string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Msg: msg})
}

// Err returns e when any field failed and nil otherwise.
func (e *ValidationError) Err() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}
