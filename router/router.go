// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"net/http"

	"github.com/danielhkuo/redeem-portal/cliparse"
	"github.com/danielhkuo/redeem-portal/handlers"
	"github.com/danielhkuo/redeem-portal/middleware"
)

// NewRouter builds the route table and wraps it with request IDs, the
// body limit and CORS.
func NewRouter(deps handlers.Deps, cfg cliparse.Config) http.Handler {
	mux := http.NewServeMux()

	// Initialize handlers
	configHandler := handlers.NewConfigHandler(deps, cfg)
	codesHandler := handlers.NewCodesHandler(deps, cfg)
	claimHandler := handlers.NewClaimHandler(deps, cfg)
	statsHandler := handlers.NewStatsHandler(deps, cfg)
	adminHandler := handlers.NewAdminHandler(deps, cfg)

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Campaign configuration
	mux.HandleFunc("GET /api/config", middleware.WithLogging(configHandler.GetConfig))
	mux.HandleFunc("PUT /api/config", middleware.WithLogging(configHandler.PutConfig))
	mux.HandleFunc("POST /api/config", middleware.WithLogging(configHandler.PutConfig))

	// Code pool
	mux.HandleFunc("POST /api/codes/bulk", middleware.WithLogging(codesHandler.BulkLoad))
	mux.HandleFunc("POST /api/codes/upload", middleware.WithLogging(codesHandler.BulkLoad))
	mux.HandleFunc("POST /api/codes/generate", middleware.WithLogging(codesHandler.Generate))

	// Claims (public)
	mux.HandleFunc("POST /api/claim", middleware.WithLogging(claimHandler.Claim))
	mux.HandleFunc("GET /api/stats", middleware.WithLogging(statsHandler.GetStats))

	// Admin
	mux.HandleFunc("POST /api/reset", middleware.WithLogging(adminHandler.Reset))
	mux.HandleFunc("GET /api/admin/status", middleware.WithLogging(adminHandler.Status))
	mux.HandleFunc("POST /api/admin/reconnect", middleware.WithLogging(adminHandler.Reconnect))

	if deps.Metrics != nil {
		mux.Handle("GET /metrics", deps.Metrics.Handler())
	}

	// Root endpoint
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("redeem-portal API v1"))
	})

	return middleware.WithRequestID(middleware.LimitBody(cfg.BodyLimit, middleware.CORS(mux)))
}
