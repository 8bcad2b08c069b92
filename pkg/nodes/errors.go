package nodes

import "errors"

var (
	// ErrMissingField is wrapped with the offending field name when a
	// node's config omits a value its operation requires.
	ErrMissingField = errors.New("missing required field")
	// ErrUnknownOperation is wrapped with the offending operation string.
	ErrUnknownOperation = errors.New("unknown operation")
	// ErrInvalidFieldType is wrapped with the field name and expected shape
	// when a config value cannot be coerced to what the operation needs.
	ErrInvalidFieldType = errors.New("invalid field type")
)
