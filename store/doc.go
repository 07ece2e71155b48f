// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package store defines the Backend interface shared by every code store.

# Primitives

A Backend holds three separate entities:

  - the campaign configuration blob
  - the pool of available codes (a set)
  - the claims map (identity → code)

and exposes the primitive the claim protocol is built on:

	res, err := b.ClaimCode(ctx, id) // lookup, pop and bind in one step

A code is either in the pool or bound to exactly one identity; there is
no moment where it is in neither. Only Reset removes issued codes.

# Implementations

  - memstore: process-local fallback, lost on restart
  - redisstore: Redis (one Lua script per claim)
  - sqlstore: PostgreSQL or SQLite

# Errors

Backends wrap connectivity failures with Unavailable so callers can tell
"backend is down" apart from "backend rejected the operation":

	if store.IsUnavailable(err) {
		// degrade to the fallback
	}
*/
package store
