// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package metrics defines the Prometheus collectors exported on GET /metrics.

	redeem_portal_claims_total{outcome,backend}
	redeem_portal_claims_partial_failures_total
	redeem_portal_codes_loaded_total
	redeem_portal_pool_available
	redeem_portal_pool_claimed
	redeem_portal_backend_state{state}
	redeem_portal_backend_transitions_total{from,to}

Collectors live on a private registry so tests can create as many
instances as they like.
*/
package metrics
