// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"log/slog"
	"net/http"

	"github.com/danielhkuo/redeem-portal/cliparse"
	"github.com/danielhkuo/redeem-portal/middleware"
	"github.com/danielhkuo/redeem-portal/models"
	"github.com/danielhkuo/redeem-portal/selector"
	"github.com/danielhkuo/redeem-portal/store"
)

type AdminHandler struct {
	deps Deps
	cfg  cliparse.Config
}

func NewAdminHandler(deps Deps, cfg cliparse.Config) *AdminHandler {
	return &AdminHandler{deps: deps, cfg: cfg}
}

// Reset handles POST /api/reset
//
// Clears configuration, pool and claims on whichever backend serves the
// request. The other backend is left alone.
func (h *AdminHandler) Reset(w http.ResponseWriter, r *http.Request) {
	served, err := h.deps.Selector.Do(r.Context(), func(b store.Backend) error {
		ctx, cancel := opContext(r, h.cfg)
		defer cancel()
		return b.Reset(ctx)
	})
	if err != nil {
		writeStoreError(w, r, "reset", err)
		return
	}

	slog.Warn("store reset", "backend", served.Name(), "remote", middleware.GetClientIP(r))
	h.deps.Metrics.SetPool(0, 0)

	middleware.JSONResponse(w, http.StatusOK, models.ModeResponse{
		Success: true,
		Mode:    served.Name(),
	})
}

// Status handles GET /api/admin/status
func (h *AdminHandler) Status(w http.ResponseWriter, r *http.Request) {
	middleware.JSONResponse(w, http.StatusOK, statusResponse(h.deps.Selector.Status()))
}

// Reconnect handles POST /api/admin/reconnect
//
// Starts a reconnect run in the background and answers at once with the
// current state.
func (h *AdminHandler) Reconnect(w http.ResponseWriter, r *http.Request) {
	h.deps.Selector.Reconnect()
	middleware.JSONResponse(w, http.StatusAccepted, statusResponse(h.deps.Selector.Status()))
}

func statusResponse(st selector.Status) models.StatusResponse {
	return models.StatusResponse{
		State:     st.State.String(),
		Mode:      st.Mode,
		Backend:   st.Backend,
		Attempts:  st.Attempts,
		LastError: st.LastError,
		Since:     st.Since,
	}
}
