package slice

import "errors"

// Sentinel errors for reducer registration and application.
var (
	ErrEmptyType        = errors.New("action type is empty")
	ErrDuplicateReducer = errors.New("reducer already registered")
	ErrNotNamespaced    = errors.New("action type is not namespaced")
	ErrPayloadType      = errors.New("payload type mismatch")
)
