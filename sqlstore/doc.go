// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package sqlstore implements the durable backend on PostgreSQL or SQLite.

	s, err := sqlstore.Open(db.TypePostgres, os.Getenv("DATABASE_URL"))

Tables come from package db and are created by the first successful Ping,
so a database that is down at startup does not stop the process.

# Atomicity

ClaimCode runs in one transaction: read the identity's claim, pop a row
with DELETE ... RETURNING, insert the claim with ON CONFLICT DO NOTHING.
PostgreSQL adds FOR UPDATE SKIP LOCKED to the pop so concurrent claims
take different rows; SQLite serializes writers on its one connection.

A conflict on identity means a concurrent claim won; the transaction
rolls back and returns the winner's code. A conflict on code means the
popped row was already issued; it stays deleted and another row is
popped.
*/
package sqlstore
