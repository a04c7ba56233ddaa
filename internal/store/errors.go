package store

import "errors"

var (
	// ErrValidation is returned for an empty device identifier
	ErrValidation = errors.New("invalid device identifier")
	// ErrStoreUnavailable covers a missing, unreadable, malformed or empty table
	ErrStoreUnavailable = errors.New("label store unavailable")
	// ErrPoolExhausted means no free record exists and the device has no binding
	ErrPoolExhausted = errors.New("label pool exhausted")
)
