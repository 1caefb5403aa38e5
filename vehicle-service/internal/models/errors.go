package models

import "errors"

var (
	ErrNotFound   = errors.New("vehicle not found")
	ErrInvalidID  = errors.New("invalid id")
	ErrValidation = errors.New("validation error")
	ErrForbidden  = errors.New("forbidden")
	ErrDuplicate  = errors.New("duplicate registration number")
)
