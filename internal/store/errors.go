package store

import "errors"

var (
	// ErrNotFound indicates the referenced Audit or User does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateTransaction indicates an audit with the same transaction
	// hash already exists.
	ErrDuplicateTransaction = errors.New("audit with this transaction hash already exists")

	// ErrValidation indicates missing or malformed required input.
	ErrValidation = errors.New("validation failed")
)
