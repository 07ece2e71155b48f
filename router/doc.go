// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the redeem-portal API.

	handler := router.NewRouter(deps, cfg)

The returned handler assigns request IDs, caps body size at
cfg.BodyLimit and applies CORS before reaching the mux.

# Endpoints

Health and metrics:

	GET /health
	GET /metrics

Campaign configuration:

	GET  /api/config - Current config or null
	PUT  /api/config - Replace config (POST accepted too)

Code pool:

	POST /api/codes/bulk     - Load codes (alias /api/codes/upload)
	POST /api/codes/generate - Generate random codes and load them

Claims:

	POST /api/claim - Claim a code for an identity
	GET  /api/stats - Pool counts and serving backend

Admin:

	POST /api/reset           - Clear the serving backend
	GET  /api/admin/status    - Monitor state
	POST /api/admin/reconnect - Start a reconnect run
*/
package router
