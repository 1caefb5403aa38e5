package models

import (
	"errors"
	"strings"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation error")
	ErrForbidden  = errors.New("forbidden")
	ErrConflict   = errors.New("conflict")
)

// ValidationErrors aggregates field level failures; errors.Is(v, ErrValidation) holds.
type ValidationErrors []string

func (v ValidationErrors) Error() string {
	return "validation error: " + strings.Join(v, "; ")
}

func (v ValidationErrors) Is(target error) bool {
	return target == ErrValidation
}
