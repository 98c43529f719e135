package model

import "errors"

var (
	ErrConfiguration   = errors.New("configuration error")
	ErrInvalidInput    = errors.New("invalid input")
	ErrNotFound        = errors.New("not found")
	ErrMissingVariable = errors.New("missing variable")
)
