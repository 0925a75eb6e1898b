package storage

import "errors"

// Storage errors for the append-only event stores.
var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateKey is returned when inserting a record with an event ID
	// that already exists. Event stores are append-only and never update.
	ErrDuplicateKey = errors.New("duplicate key: append-only store does not allow updates")

	// ErrInvalidInput is returned when input validation fails.
	ErrInvalidInput = errors.New("invalid input")
)
