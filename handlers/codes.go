// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/danielhkuo/redeem-portal/auth"
	"github.com/danielhkuo/redeem-portal/claim"
	"github.com/danielhkuo/redeem-portal/cliparse"
	"github.com/danielhkuo/redeem-portal/middleware"
	"github.com/danielhkuo/redeem-portal/models"
	"github.com/danielhkuo/redeem-portal/store"
)

const (
	defaultCodeLength = 8
	maxPrefixLength   = 32
)

type CodesHandler struct {
	deps Deps
	cfg  cliparse.Config
}

func NewCodesHandler(deps Deps, cfg cliparse.Config) *CodesHandler {
	return &CodesHandler{deps: deps, cfg: cfg}
}

// BulkLoad handles POST /api/codes/bulk and POST /api/codes/upload
func (h *CodesHandler) BulkLoad(w http.ResponseWriter, r *http.Request) {
	var req models.CodesRequest
	if !parseBody(w, r, &req) {
		return
	}

	if len(req.Codes) == 0 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "codes must be a non-empty array")
		return
	}

	h.load(w, r, req.Codes, false)
}

// Generate handles POST /api/codes/generate
func (h *CodesHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req models.GenerateCodesRequest
	if !parseBody(w, r, &req) {
		return
	}

	if req.Count < 1 || req.Count > h.cfg.MaxBatch {
		middleware.ErrorResponse(w, http.StatusBadRequest,
			fmt.Sprintf("count must be between 1 and %d", h.cfg.MaxBatch))
		return
	}
	if req.Length == 0 {
		req.Length = defaultCodeLength
	}
	if len(req.Prefix) > maxPrefixLength {
		middleware.ErrorResponse(w, http.StatusBadRequest,
			fmt.Sprintf("prefix must be at most %d characters", maxPrefixLength))
		return
	}

	codes, err := auth.GenerateCodes(req.Count, req.Prefix, req.Length)
	if errors.Is(err, auth.ErrInvalidLength) {
		middleware.ErrorResponse(w, http.StatusBadRequest,
			fmt.Sprintf("length must be between %d and %d", auth.MinCodeLength, auth.MaxCodeLength))
		return
	}
	if err != nil {
		slog.Error("failed to generate codes", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, msgTryAgain)
		return
	}

	h.load(w, r, codes, true)
}

// load enforces the pool cap, then hands the batch to the loader.
func (h *CodesHandler) load(w http.ResponseWriter, r *http.Request, codes []string, echo bool) {
	if h.cfg.MaxCodes > 0 {
		var counts store.Counts
		_, err := h.deps.Selector.Do(r.Context(), func(b store.Backend) error {
			ctx, cancel := opContext(r, h.cfg)
			defer cancel()

			var err error
			counts, err = b.Counts(ctx)
			return err
		})
		if err != nil {
			writeStoreError(w, r, "count codes", err)
			return
		}

		// Counts dedup within the batch but not against the pool, so the
		// check can reject a batch that would in fact fit.
		if counts.Total()+len(claim.Accept(codes)) > h.cfg.MaxCodes {
			middleware.ErrorResponse(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("pool would exceed %d codes", h.cfg.MaxCodes))
			return
		}
	}

	res, err := h.deps.Loader.Load(r.Context(), codes)
	if err != nil {
		writeStoreError(w, r, "load codes", err)
		return
	}

	resp := models.LoadResponse{
		Success:   true,
		Count:     res.Inserted,
		Submitted: res.Submitted,
		Accepted:  res.Accepted,
		Mode:      res.Backend,
	}
	if echo {
		resp.Codes = codes
	}
	middleware.JSONResponse(w, http.StatusOK, resp)
}
