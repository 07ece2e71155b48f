// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/danielhkuo/redeem-portal/cliparse"
	"github.com/danielhkuo/redeem-portal/middleware"
	"github.com/danielhkuo/redeem-portal/models"
	"github.com/danielhkuo/redeem-portal/store"
)

type ConfigHandler struct {
	deps Deps
	cfg  cliparse.Config
}

func NewConfigHandler(deps Deps, cfg cliparse.Config) *ConfigHandler {
	return &ConfigHandler{deps: deps, cfg: cfg}
}

// GetConfig handles GET /api/config
func (h *ConfigHandler) GetConfig(w http.ResponseWriter, r *http.Request) {
	var (
		blob  []byte
		found bool
	)
	_, err := h.deps.Selector.Do(r.Context(), func(b store.Backend) error {
		ctx, cancel := opContext(r, h.cfg)
		defer cancel()

		var err error
		blob, found, err = b.GetConfig(ctx)
		return err
	})
	if err != nil {
		writeStoreError(w, r, "get config", err)
		return
	}

	if !found {
		middleware.JSONResponse(w, http.StatusOK, nil)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, json.RawMessage(blob))
}

// PutConfig handles PUT /api/config (and POST, which older clients send)
func (h *ConfigHandler) PutConfig(w http.ResponseWriter, r *http.Request) {
	var req models.CampaignConfig
	if !parseBody(w, r, &req) {
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "name is required")
		return
	}
	now := time.Now().UTC()
	req.LastUpdated = &now

	blob, err := json.Marshal(req)
	if err != nil {
		slog.Error("failed to encode config", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, msgTryAgain)
		return
	}

	served, err := h.deps.Selector.Do(r.Context(), func(b store.Backend) error {
		ctx, cancel := opContext(r, h.cfg)
		defer cancel()
		return b.PutConfig(ctx, blob)
	})
	if err != nil {
		writeStoreError(w, r, "put config", err)
		return
	}

	slog.Info("campaign config updated", "name", req.Name, "backend", served.Name())

	middleware.JSONResponse(w, http.StatusOK, models.ModeResponse{
		Success: true,
		Mode:    served.Name(),
	})
}
