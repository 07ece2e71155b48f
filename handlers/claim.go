// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"

	"github.com/danielhkuo/redeem-portal/claim"
	"github.com/danielhkuo/redeem-portal/cliparse"
	"github.com/danielhkuo/redeem-portal/middleware"
	"github.com/danielhkuo/redeem-portal/models"
)

type ClaimHandler struct {
	deps Deps
	cfg  cliparse.Config
}

func NewClaimHandler(deps Deps, cfg cliparse.Config) *ClaimHandler {
	return &ClaimHandler{deps: deps, cfg: cfg}
}

// Claim handles POST /api/claim
func (h *ClaimHandler) Claim(w http.ResponseWriter, r *http.Request) {
	var req models.ClaimRequest
	if !parseBody(w, r, &req) {
		return
	}

	out, err := h.deps.Allocator.Claim(r.Context(), req.UserID)
	if err == nil {
		err = out.Err()
	}
	if err != nil {
		writeStoreError(w, r, "claim", err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.ClaimResponse{
		Code:     out.Code,
		Existing: out.Kind == claim.Existing,
	})
}
