// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"errors"
	"fmt"
)

// Backend names reported in stats and logs
const (
	NameRedis    = "redis"
	NamePostgres = "postgres"
	NameSQLite   = "sqlite"
	NameMemory   = "memory"
)

var (
	// ErrUnavailable marks failures caused by the backend being unreachable
	// (dial errors, timeouts, closed pools). The selector degrades on these.
	ErrUnavailable = errors.New("store unavailable")

	// ErrClosed is returned by backends after Close.
	ErrClosed = errors.New("store closed")
)

// Counts is a snapshot of pool and claim sizes.
type Counts struct {
	Available int
	Claimed   int
}

// Total is every code the backend tracks.
func (c Counts) Total() int {
	return c.Available + c.Claimed
}

// ClaimResult is what ClaimCode did for one identity.
type ClaimResult struct {
	Code     string
	Existing bool // Code was bound before this call
}

// Empty reports whether nothing was bound because the pool was empty.
func (r ClaimResult) Empty() bool {
	return r.Code == ""
}

// ConsumedError reports a code that left the pool but could not be bound.
// The code is not returned to the pool.
type ConsumedError struct {
	Code string
	Err  error
}

func (e *ConsumedError) Error() string {
	return fmt.Sprintf("code %s consumed but not bound: %v", e.Code, e.Err)
}

func (e *ConsumedError) Unwrap() error {
	return e.Err
}

// Backend is the set of primitives the claim protocol is built on.
// All implementations must be safe for concurrent use.
type Backend interface {
	// Name identifies the backend ("redis", "postgres", "sqlite", "memory").
	Name() string

	// Ping checks reachability.
	Ping(ctx context.Context) error

	// GetConfig returns the stored configuration blob.
	// found is false when nothing has been stored since the last reset.
	GetConfig(ctx context.Context) (blob []byte, found bool, err error)

	// PutConfig replaces the configuration blob (last write wins).
	PutConfig(ctx context.Context, blob []byte) error

	// GetClaim returns the code bound to identity, if any.
	GetClaim(ctx context.Context, identity string) (code string, found bool, err error)

	// ClaimCode returns the code already bound to identity, or moves one
	// arbitrary code from the pool into a new claim for identity. The
	// lookup, pop and bind happen as one atomic step, so a code is never
	// outside both the pool and the claims while AddCodes could see it.
	// An empty Code with a nil error means the pool was empty.
	ClaimCode(ctx context.Context, identity string) (ClaimResult, error)

	// AddCodes unions codes into the pool, skipping codes that are already
	// available or already issued. It returns the number of net-new codes.
	AddCodes(ctx context.Context, codes []string) (inserted int, err error)

	// Counts reports pool and claim sizes.
	Counts(ctx context.Context) (Counts, error)

	// Reset drops configuration, pool and claims together.
	Reset(ctx context.Context) error

	// Close releases connections held by the backend.
	Close() error
}

// Unavailable wraps err so that errors.Is(err, ErrUnavailable) holds.
func Unavailable(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
}

// IsUnavailable reports whether err was caused by an unreachable backend.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}
