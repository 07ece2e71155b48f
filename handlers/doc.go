// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the redeem-portal API.

# Handler Types

Each handler is a struct holding the shared Deps and the config:

  - ConfigHandler: campaign configuration
  - CodesHandler: bulk load and code generation
  - ClaimHandler: the public claim endpoint
  - StatsHandler: pool counts
  - AdminHandler: reset, monitor status, manual reconnect

	deps := handlers.NewDeps(sel, cfg, metrics)
	claimHandler := handlers.NewClaimHandler(deps, cfg)

# Errors

Store and claim errors go through one mapping:

	ValidationError          → 400 with its message
	pool exhausted           → 404
	store unavailable        → 503
	partial failure, other   → 500

Anything but a validation error gets a generic message; details are only
logged, tagged with the request ID.
*/
package handlers
