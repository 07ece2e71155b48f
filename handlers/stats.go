// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"

	"github.com/danielhkuo/redeem-portal/cliparse"
	"github.com/danielhkuo/redeem-portal/middleware"
	"github.com/danielhkuo/redeem-portal/models"
	"github.com/danielhkuo/redeem-portal/store"
)

type StatsHandler struct {
	deps Deps
	cfg  cliparse.Config
}

func NewStatsHandler(deps Deps, cfg cliparse.Config) *StatsHandler {
	return &StatsHandler{deps: deps, cfg: cfg}
}

// GetStats handles GET /api/stats
func (h *StatsHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	var counts store.Counts
	served, err := h.deps.Selector.Do(r.Context(), func(b store.Backend) error {
		ctx, cancel := opContext(r, h.cfg)
		defer cancel()

		var err error
		counts, err = b.Counts(ctx)
		return err
	})
	if err != nil {
		writeStoreError(w, r, "stats", err)
		return
	}

	h.deps.Metrics.SetPool(counts.Available, counts.Claimed)

	middleware.JSONResponse(w, http.StatusOK, models.StatsResponse{
		Total:       counts.Total(),
		Claimed:     counts.Claimed,
		Available:   counts.Available,
		BackendMode: served.Name(),
		Cloud:       !h.deps.Selector.IsFallback(served),
	})
}
