package services

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors shared across services. Handlers map these onto HTTP
// status codes.
var (
	ErrNotFound      = errors.New("record not found")
	ErrConflict      = errors.New("record already exists")
	ErrInvalidInput  = errors.New("invalid input")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("forbidden")
	ErrDependencyGap = errors.New("referenced record not found")
)

// FieldErrors carries per-field validation failures up to the handler
// layer so they can be returned in the error envelope.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	if len(fe) == 0 {
		return "validation failed"
	}
	parts := make([]string, 0, len(fe))
	for field, msg := range fe {
		parts = append(parts, fmt.Sprintf("%s: %s", field, msg))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Is lets errors.Is(err, ErrInvalidInput) match FieldErrors values.
func (fe FieldErrors) Is(target error) bool {
	return target == ErrInvalidInput
}

// AsFieldErrors extracts a FieldErrors value from an error chain.
func AsFieldErrors(err error) (FieldErrors, bool) {
	var fe FieldErrors
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}
