package checkpoint

import "errors"

// Sentinel errors for checkpoint operations.
var (
	ErrNotFound     = errors.New("checkpoint not found")
	ErrLoadFailed   = errors.New("checkpoint load failed")
	ErrSaveFailed   = errors.New("checkpoint save failed")
	ErrDecodeFailed = errors.New("checkpoint decode failed")
	ErrUnknownStore = errors.New("unknown checkpoint store")
	ErrPathRequired = errors.New("checkpoint path is required")
)
