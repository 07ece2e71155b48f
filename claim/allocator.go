// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package claim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/danielhkuo/redeem-portal/auth"
	"github.com/danielhkuo/redeem-portal/metrics"
	"github.com/danielhkuo/redeem-portal/selector"
	"github.com/danielhkuo/redeem-portal/store"
)

// MaxIdentityLength bounds identities in bytes after trimming.
const MaxIdentityLength = 256

// Normalize trims identity and validates it.
func Normalize(identity string) (string, error) {
	id := strings.TrimSpace(identity)
	if id == "" {
		return "", &ValidationError{Field: "userId", Reason: "required"}
	}
	if len(id) > MaxIdentityLength {
		return "", &ValidationError{
			Field:  "userId",
			Reason: fmt.Sprintf("must be at most %d bytes", MaxIdentityLength),
		}
	}
	return id, nil
}

// Options configures an Allocator or Loader.
type Options struct {
	OpTimeout time.Duration // per store call; 0 means none
	LogSalt   string
	Logger    *slog.Logger
	Metrics   *metrics.Metrics
}

func (o Options) withDefaults() Options {
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// Allocator hands out at most one code per identity.
type Allocator struct {
	sel  *selector.Selector
	opts Options
}

func NewAllocator(sel *selector.Selector, opts Options) *Allocator {
	return &Allocator{sel: sel, opts: opts.withDefaults()}
}

// Claim returns the identity's existing code, or moves a fresh one out of
// the pool and binds it. An empty pool is reported as an Exhausted outcome
// with a nil error.
//
// The lookup may fall back to memory if the durable store fails. Once a
// backend has answered the lookup, ClaimCode runs on that same backend so
// one claim never straddles two stores. ClaimCode is detached from ctx
// cancellation: a client that hangs up mid-claim must not strand a popped
// code. OpTimeout still bounds it.
func (a *Allocator) Claim(ctx context.Context, identity string) (Outcome, error) {
	id, err := Normalize(identity)
	if err != nil {
		a.opts.Metrics.ObserveClaim("invalid", "")
		return Outcome{}, err
	}
	log := a.opts.Logger.With("identity", auth.HashIdentity(id, a.opts.LogSalt))

	var (
		code  string
		found bool
	)
	backend, err := a.sel.Do(ctx, func(b store.Backend) error {
		opCtx, cancel := a.opContext(ctx)
		defer cancel()

		var err error
		code, found, err = b.GetClaim(opCtx, id)
		return err
	})
	if err != nil {
		return Outcome{}, a.fail(backend, "lookup", err)
	}
	name := backend.Name()

	if found {
		a.opts.Metrics.ObserveClaim(Existing.String(), name)
		log.Debug("returning existing code", "backend", name)
		return Outcome{Kind: Existing, Code: code, Backend: name}, nil
	}

	res, err := a.claimCode(ctx, backend, id)
	if err != nil {
		a.sel.Report(err)

		var consumed *store.ConsumedError
		if errors.As(err, &consumed) {
			a.opts.Metrics.ObservePartialFailure()
			a.opts.Metrics.ObserveClaim("error", name)
			log.Error("code consumed but claim not recorded",
				"backend", name,
				"code", consumed.Code,
				"error", consumed.Err,
			)
			return Outcome{}, &PartialFailureError{Code: consumed.Code, Backend: name, Err: consumed.Err}
		}
		return Outcome{}, a.fail(backend, "code", err)
	}

	switch {
	case res.Empty():
		a.opts.Metrics.ObserveClaim(Exhausted.String(), name)
		log.Info("code pool exhausted", "backend", name)
		return Outcome{Kind: Exhausted, Backend: name}, nil
	case res.Existing:
		// A concurrent claim for the same identity bound first.
		a.opts.Metrics.ObserveClaim(Existing.String(), name)
		log.Debug("concurrent claim won, returning its code", "backend", name)
		return Outcome{Kind: Existing, Code: res.Code, Backend: name}, nil
	}

	a.opts.Metrics.ObserveClaim(Issued.String(), name)
	log.Info("code issued", "backend", name)
	return Outcome{Kind: Issued, Code: res.Code, Backend: name}, nil
}

func (a *Allocator) claimCode(ctx context.Context, b store.Backend, identity string) (store.ClaimResult, error) {
	ctx, cancel := a.opContext(context.WithoutCancel(ctx))
	defer cancel()
	return b.ClaimCode(ctx, identity)
}

func (a *Allocator) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.opts.OpTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, a.opts.OpTimeout)
}

// fail wraps a store error from step. Connectivity failures become
// ErrBackendUnavailable so the caller knows a retry is safe.
func (a *Allocator) fail(b store.Backend, step string, err error) error {
	name := ""
	if b != nil {
		name = b.Name()
	}
	if store.IsUnavailable(err) {
		a.opts.Metrics.ObserveClaim("unavailable", name)
		return fmt.Errorf("claim %s: %w: %w", step, ErrBackendUnavailable, err)
	}
	a.opts.Metrics.ObserveClaim("error", name)
	return fmt.Errorf("claim %s: %w", step, err)
}
