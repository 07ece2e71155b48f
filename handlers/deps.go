// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/danielhkuo/redeem-portal/claim"
	"github.com/danielhkuo/redeem-portal/cliparse"
	"github.com/danielhkuo/redeem-portal/metrics"
	"github.com/danielhkuo/redeem-portal/middleware"
	"github.com/danielhkuo/redeem-portal/selector"
	"github.com/danielhkuo/redeem-portal/store"
)

// Message shown for any failure whose details stay server-side.
const msgTryAgain = "Something went wrong, please try again"

// Deps are the services shared by every handler.
type Deps struct {
	Selector  *selector.Selector
	Allocator *claim.Allocator
	Loader    *claim.Loader
	Metrics   *metrics.Metrics
}

// NewDeps builds the allocator and loader on top of sel. m may be nil.
func NewDeps(sel *selector.Selector, cfg cliparse.Config, m *metrics.Metrics) Deps {
	opts := claim.Options{
		OpTimeout: cfg.OpTimeout,
		LogSalt:   cfg.LogSalt,
		Logger:    slog.Default(),
		Metrics:   m,
	}
	return Deps{
		Selector:  sel,
		Allocator: claim.NewAllocator(sel, opts),
		Loader:    claim.NewLoader(sel, cfg.MaxBatch, opts),
		Metrics:   m,
	}
}

// opContext bounds one store call by the configured timeout.
func opContext(r *http.Request, cfg cliparse.Config) (context.Context, context.CancelFunc) {
	if cfg.OpTimeout <= 0 {
		return context.WithCancel(r.Context())
	}
	return context.WithTimeout(r.Context(), cfg.OpTimeout)
}

// writeStoreError maps a claim or store error to a response. Validation
// messages are shown as is; everything else gets a generic message.
func writeStoreError(w http.ResponseWriter, r *http.Request, op string, err error) {
	var ve *claim.ValidationError
	var pf *claim.PartialFailureError

	switch {
	case errors.As(err, &ve):
		middleware.ErrorResponse(w, http.StatusBadRequest, ve.Error())
	case errors.Is(err, claim.ErrExhausted):
		middleware.ErrorResponse(w, http.StatusNotFound, "All codes have been claimed")
	case errors.As(err, &pf):
		// Already logged with the consumed code by the allocator.
		middleware.ErrorResponse(w, http.StatusInternalServerError, msgTryAgain)
	case errors.Is(err, claim.ErrBackendUnavailable), store.IsUnavailable(err):
		slog.Warn(op+" failed, store unavailable",
			"error", err,
			"request_id", middleware.RequestIDFrom(r.Context()),
		)
		middleware.ErrorResponse(w, http.StatusServiceUnavailable, msgTryAgain)
	default:
		slog.Error(op+" failed",
			"error", err,
			"request_id", middleware.RequestIDFrom(r.Context()),
		)
		middleware.ErrorResponse(w, http.StatusInternalServerError, msgTryAgain)
	}
}

// parseBody decodes JSON and writes the 400 or 413 itself on failure.
func parseBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := middleware.ParseJSONBody(r, v); err != nil {
		if middleware.IsBodyTooLarge(err) {
			middleware.ErrorResponse(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return false
		}
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return false
	}
	return true
}
