// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package claim

import (
	"errors"
	"fmt"
)

var (
	// ErrExhausted means the pool was empty when the claim ran. It is a
	// normal business outcome.
	ErrExhausted = errors.New("no codes available")

	// ErrValidation matches every *ValidationError.
	ErrValidation = errors.New("invalid input")

	// ErrBackendUnavailable means the store could not be reached at a
	// point where falling back was unsafe. The caller may retry.
	ErrBackendUnavailable = errors.New("backend unavailable")
)

// ValidationError rejects input before any store is touched.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// PartialFailureError reports a code that was removed from the pool but
// could not be bound to the identity. The code is consumed and will not
// be handed out again; Code lets an operator recover it by hand.
type PartialFailureError struct {
	Code    string
	Backend string
	Err     error
}

func (e *PartialFailureError) Error() string {
	return fmt.Sprintf("code consumed on %s but claim not recorded: %v", e.Backend, e.Err)
}

func (e *PartialFailureError) Unwrap() error {
	return e.Err
}
