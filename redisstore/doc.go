// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package redisstore implements the durable backend on Redis.

# Key Layout

	<prefix>:config           STRING  configuration JSON
	<prefix>:codes:available  SET     unissued codes
	<prefix>:claims           HASH    identity → code
	<prefix>:codes:issued     SET     every code ever bound

The default prefix is "m_portal".

# Atomicity

	ClaimCode  Lua script: HGET claims, else SPOP pool, HSET claims, SADD issued
	AddCodes   Lua script: SISMEMBER issued, SADD the rest

Because the claim script runs as one unit, a popped code is bound before
any AddCodes script can look at it. The issued set keeps AddCodes
independent of the size of the claims hash.

The client is created with retries disabled. A claim that timed out may
still have run on the server; the caller's next claim for the same
identity then returns that code.

# Errors

Transport failures (refused, timeout, closed client) are wrapped with
store.Unavailable. Server replies such as WRONGTYPE are returned as plain
errors.
*/
package redisstore
