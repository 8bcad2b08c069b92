package store

import "errors"

// Sentinel errors for the execution store contract.
var (
	ErrNotFound      = errors.New("execution not found")
	ErrAlreadyExists = errors.New("execution already exists")
)
