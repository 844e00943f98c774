package models

import "errors"

var (
	// ErrDuplicate is returned when a unique name is already taken.
	ErrDuplicate = errors.New("already exists")
	// ErrNotFound is returned when a referenced record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrValidation marks malformed input caught before it reaches storage.
	ErrValidation = errors.New("invalid input")
	// ErrStorage wraps every other persistence failure.
	ErrStorage = errors.New("storage error")
)
