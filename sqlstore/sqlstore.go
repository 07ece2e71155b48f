// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package sqlstore

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"syscall"

	"github.com/danielhkuo/redeem-portal/db"
	"github.com/danielhkuo/redeem-portal/store"
)

// Pop queries per dialect, run inside the ClaimCode transaction. Each is
// a single statement so the row selection and the delete cannot
// interleave with another pop.
const (
	popPostgres = `
		DELETE FROM code_pool
		WHERE code = (SELECT code FROM code_pool LIMIT 1 FOR UPDATE SKIP LOCKED)
		RETURNING code`

	popSQLite = `
		DELETE FROM code_pool
		WHERE code = (SELECT code FROM code_pool ORDER BY RANDOM() LIMIT 1)
		RETURNING code`
)

// Store is the SQL-backed durable backend.
type Store struct {
	conn   *sql.DB
	dbType string
	pop    string

	schemaMu    sync.Mutex
	schemaReady bool
}

var _ store.Backend = (*Store)(nil)

// Open opens a pool for dbType ("postgres" or "sqlite"). The schema is
// created on the first successful Ping.
func Open(dbType, url string) (*Store, error) {
	conn, err := db.Open(dbType, url)
	if err != nil {
		return nil, err
	}
	return New(conn, dbType), nil
}

// New wraps an existing pool.
func New(conn *sql.DB, dbType string) *Store {
	pop := popPostgres
	if dbType == db.TypeSQLite {
		pop = popSQLite
	}
	return &Store{conn: conn, dbType: dbType, pop: pop}
}

func (s *Store) Name() string {
	if s.dbType == db.TypeSQLite {
		return store.NameSQLite
	}
	return store.NamePostgres
}

// Ping verifies connectivity and creates the schema once.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.conn.PingContext(ctx); err != nil {
		return classify("ping", err)
	}

	s.schemaMu.Lock()
	defer s.schemaMu.Unlock()
	if s.schemaReady {
		return nil
	}
	if err := db.CreateSchema(ctx, s.conn, s.dbType); err != nil {
		return classify("ping", err)
	}
	s.schemaReady = true
	return nil
}

func (s *Store) GetConfig(ctx context.Context) ([]byte, bool, error) {
	var payload string
	err := s.conn.QueryRowContext(ctx,
		"SELECT payload FROM campaign_config WHERE id = 1",
	).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, classify("get config", err)
	}
	return []byte(payload), true, nil
}

func (s *Store) PutConfig(ctx context.Context, blob []byte) error {
	_, err := s.conn.ExecContext(ctx, `
		INSERT INTO campaign_config (id, payload, updated_at)
		VALUES (1, $1, CURRENT_TIMESTAMP)
		ON CONFLICT (id) DO UPDATE
		SET payload = excluded.payload, updated_at = excluded.updated_at
	`, string(blob))
	return classify("put config", err)
}

func (s *Store) GetClaim(ctx context.Context, identity string) (string, bool, error) {
	var code string
	err := s.conn.QueryRowContext(ctx,
		"SELECT code FROM code_claim WHERE identity = $1", identity,
	).Scan(&code)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, classify("get claim", err)
	}
	return code, true, nil
}

// ClaimCode looks up, pops and binds inside one transaction. The claim
// insert is ON CONFLICT DO NOTHING over both unique keys:
//   - identity taken: a concurrent claim for the same identity committed
//     first, so roll back (the popped row returns to the pool) and report
//     the winner's code.
//   - code taken: the pool row was re-added by a bulk load that raced an
//     earlier claim. Keep it deleted and pop again.
func (s *Store) ClaimCode(ctx context.Context, identity string) (store.ClaimResult, error) {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return store.ClaimResult{}, classify("claim code", err)
	}
	defer tx.Rollback()

	var bound string
	err = tx.QueryRowContext(ctx,
		"SELECT code FROM code_claim WHERE identity = $1", identity,
	).Scan(&bound)
	if err == nil {
		return store.ClaimResult{Code: bound, Existing: true}, nil
	}
	if err != sql.ErrNoRows {
		return store.ClaimResult{}, classify("claim code", err)
	}

	for {
		var code string
		err := tx.QueryRowContext(ctx, s.pop).Scan(&code)
		if err == sql.ErrNoRows {
			// Stale rows deleted on earlier iterations stay deleted.
			return store.ClaimResult{}, classify("claim code", tx.Commit())
		}
		if err != nil {
			return store.ClaimResult{}, classify("claim code", err)
		}

		res, err := tx.ExecContext(ctx, `
			INSERT INTO code_claim (identity, code)
			VALUES ($1, $2)
			ON CONFLICT DO NOTHING
		`, identity, code)
		if err != nil {
			return store.ClaimResult{}, classify("claim code", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return store.ClaimResult{}, classify("claim code", err)
		}
		if n == 1 {
			if err := tx.Commit(); err != nil {
				return store.ClaimResult{}, classify("claim code", err)
			}
			return store.ClaimResult{Code: code}, nil
		}

		err = tx.QueryRowContext(ctx,
			"SELECT code FROM code_claim WHERE identity = $1", identity,
		).Scan(&bound)
		if err == nil {
			return store.ClaimResult{Code: bound, Existing: true}, nil
		}
		if err != sql.ErrNoRows {
			return store.ClaimResult{}, classify("claim code", err)
		}
	}
}

// AddCodes inserts the batch in one transaction. A code is skipped when
// it is already in the pool (ON CONFLICT) or already issued (NOT EXISTS).
func (s *Store) AddCodes(ctx context.Context, codes []string) (int, error) {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, classify("add codes", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO code_pool (code)
		SELECT CAST($1 AS TEXT)
		WHERE NOT EXISTS (SELECT 1 FROM code_claim WHERE code = CAST($1 AS TEXT))
		ON CONFLICT (code) DO NOTHING
	`)
	if err != nil {
		return 0, classify("add codes", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, code := range codes {
		res, err := stmt.ExecContext(ctx, code)
		if err != nil {
			return 0, classify("add codes", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, classify("add codes", err)
		}
		inserted += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, classify("add codes", err)
	}
	return inserted, nil
}

func (s *Store) Counts(ctx context.Context) (store.Counts, error) {
	var c store.Counts
	err := s.conn.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM code_pool),
			(SELECT COUNT(*) FROM code_claim)
	`).Scan(&c.Available, &c.Claimed)
	if err != nil {
		return store.Counts{}, classify("counts", err)
	}
	return c, nil
}

// Reset empties all three tables in one transaction.
func (s *Store) Reset(ctx context.Context) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return classify("reset", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"code_claim", "code_pool", "campaign_config"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return classify("reset", err)
		}
	}

	return classify("reset", tx.Commit())
}

func (s *Store) Close() error {
	return s.conn.Close()
}

// classify separates connectivity failures from statement failures.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s: %w", op, err)
	}
	if errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, sql.ErrConnDone) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, syscall.ECONNREFUSED) {
		return store.Unavailable(op, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return store.Unavailable(op, err)
	}
	// database/sql does not export its closed-pool error.
	if strings.Contains(err.Error(), "database is closed") {
		return store.Unavailable(op, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
