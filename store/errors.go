package store

import "errors"

// Sentinel errors for store construction and lifecycle.
var (
	ErrNilSlice           = errors.New("nil slice")
	ErrDuplicateSlice     = errors.New("duplicate slice name")
	ErrAlreadyInitialized = errors.New("store already initialized")
	ErrReducerPanic       = errors.New("reducer panicked")
	ErrProducerPanic      = errors.New("producer panicked")
	ErrShutdownTimeout    = errors.New("store shutdown timeout")
)
