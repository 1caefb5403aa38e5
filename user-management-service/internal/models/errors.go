package models

import "errors"

var (
	ErrNotFound           = errors.New("user not found")
	ErrValidation         = errors.New("validation error")
	ErrConflict           = errors.New("conflict")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrBanned             = errors.New("user is banned")
)
