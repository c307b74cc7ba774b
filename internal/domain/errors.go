package domain

import "errors"

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidLineKey is returned when a cart line key cannot be parsed.
	ErrInvalidLineKey = errors.New("invalid line key")
)
