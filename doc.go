// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the redeem-portal API server.

redeem-portal hands out one-time redemption codes. An operator loads a pool
of codes and a campaign description; each visitor claims with an identity
(phone number, e-mail) and always gets back the same code.

# Starting the Server

	STORE_TYPE=redis REDIS_URL=redis://localhost:6379 go run .

Or with flags:

	go run . -p 3000 -t sqlite -d "file:portal.db"

A .env file in the working directory is loaded first if present.

# Configuration

  - PORT (-p): server port (default: 3000)
  - STORE_TYPE (-t): redis, postgres, sqlite or memory (default: redis)
  - REDIS_URL (-r), DATABASE_URL (-d): durable store location
  - RETRY_ATTEMPTS, RETRY_DELAY: reconnect run after a failure
  - HEALTH_INTERVAL: liveness ping period while connected
  - MAX_CODES, MAX_BATCH, BODY_LIMIT: size limits
  - LOG_SALT, LOG_LEVEL, LOG_FORMAT: logging

See package cliparse for the full list.

# Degraded Mode

If the durable store cannot be reached the server keeps answering from an
in-process memory store. The monitor retries a bounded number of times;
after that only POST /api/admin/reconnect or a restart tries again.
Nothing written to memory is copied back once the durable store returns.

# Architecture

  - handlers: HTTP handlers (config, codes, claim, stats, admin)
  - router: route table
  - claim: allocator and bulk loader
  - selector: health monitor and backend routing
  - store, memstore, redisstore, sqlstore: storage backends
  - retry: retry policy and clock
  - metrics: Prometheus collectors
  - middleware, models, auth, cliparse, db: supporting packages
*/
package main
