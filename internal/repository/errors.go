package repository

import "errors"

var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate is returned when an insert collides with a uniqueness
	// constraint (ticket already scanned, trip already active).
	ErrDuplicate = errors.New("duplicate entity")
)
