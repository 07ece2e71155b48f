// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db opens SQL connections and creates the schema used by sqlstore.

# Opening

	conn, err := db.Open(db.TypePostgres, "postgres://...")
	conn, err := db.Open(db.TypeSQLite, "file:portal.db")

PostgreSQL uses github.com/lib/pq. SQLite uses modernc.org/sqlite and is
limited to one open connection.

# Schema Creation

CreateSchema initializes all required tables:

	if err := db.CreateSchema(ctx, conn, db.TypeSQLite); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS for all tables.

# Tables

  - campaign_config: single row (id = 1) holding the configuration JSON
  - code_pool: available codes, primary key on code
  - code_claim: identity → code, primary key on identity, unique code

The pool and claim tables are the two halves of the code lifecycle; a code
moves from code_pool to code_claim exactly once.
*/
package db
