// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

# CLI Flags and Environment Variables

	-p                PORT             3000
	-t                STORE_TYPE       redis (redis, postgres, sqlite, memory)
	-r                REDIS_URL        redis://localhost:6379
	-d                DATABASE_URL     (required for postgres and sqlite)
	-prefix           KEY_PREFIX       m_portal
	-retry-attempts   RETRY_ATTEMPTS   3
	-retry-delay      RETRY_DELAY      2s
	-health-interval  HEALTH_INTERVAL  10s (0 disables)
	-op-timeout       OP_TIMEOUT       2s
	-max-codes        MAX_CODES        0 (unlimited)
	-max-batch        MAX_BATCH        100000
	-body-limit       BODY_LIMIT       52428800
	-log-salt         LOG_SALT
	-log-level        LOG_LEVEL        info
	-log-format       LOG_FORMAT       text

CLI flags take precedence over environment variables, which take
precedence over defaults. An empty environment variable counts as unset.

# Validation

ParseFlags returns an error, never exits, when a value is malformed or a
store type is missing its URL.
*/
package cliparse
