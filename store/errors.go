package store

import "errors"

var (
	// ErrNotFound is returned when a key is absent from the store.
	ErrNotFound = errors.New("key not found")

	// ErrTypeMismatch is returned when a stored value's type does not match
	// the requested type.
	ErrTypeMismatch = errors.New("type mismatch")
)
