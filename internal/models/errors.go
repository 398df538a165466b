package models

import "errors"

// Sentinel errors returned by repositories and pipeline components.
var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when a unique constraint is violated.
	ErrAlreadyExists = errors.New("already exists")
	// ErrInvalidInput is returned when input fails validation.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidName is returned when a lead's company name is unusable.
	ErrInvalidName = errors.New("invalid company name")
)
