// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package memstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielhkuo/redeem-portal/store"
	"github.com/danielhkuo/redeem-portal/storetest"
)

func TestBackendSuite(t *testing.T) {
	storetest.RunBackendSuite(t, func(t *testing.T) store.Backend {
		return New()
	})
}

func TestGetConfig_ReturnsCopy(t *testing.T) {
	s := New()
	ctx := context.Background()

	require.NoError(t, s.PutConfig(ctx, []byte("original")))

	blob, _, err := s.GetConfig(ctx)
	require.NoError(t, err)
	blob[0] = 'X'

	again, _, err := s.GetConfig(ctx)
	require.NoError(t, err)
	assert.Equal(t, "original", string(again))
}

func TestClaimCode_IssuedCodeNeverReturnsToPool(t *testing.T) {
	s := New()
	ctx := context.Background()

	_, err := s.AddCodes(ctx, []string{"A"})
	require.NoError(t, err)
	res, err := s.ClaimCode(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, "A", res.Code)

	inserted, err := s.AddCodes(ctx, []string{"A"})
	require.NoError(t, err)
	assert.Equal(t, 0, inserted)

	counts, err := s.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, store.Counts{Available: 0, Claimed: 1}, counts)
}

func TestClose_RejectsEveryPrimitive(t *testing.T) {
	s := New()
	ctx := context.Background()
	_, err := s.AddCodes(ctx, []string{"A"})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	calls := map[string]func() error{
		"Ping": func() error { return s.Ping(ctx) },
		"GetConfig": func() error {
			_, _, err := s.GetConfig(ctx)
			return err
		},
		"PutConfig": func() error { return s.PutConfig(ctx, []byte("{}")) },
		"GetClaim": func() error {
			_, _, err := s.GetClaim(ctx, "u1")
			return err
		},
		"ClaimCode": func() error {
			_, err := s.ClaimCode(ctx, "u1")
			return err
		},
		"AddCodes": func() error {
			_, err := s.AddCodes(ctx, []string{"B"})
			return err
		},
		"Counts": func() error {
			_, err := s.Counts(ctx)
			return err
		},
		"Reset": func() error { return s.Reset(ctx) },
	}

	for name, call := range calls {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, call(), store.ErrClosed)
		})
	}

	assert.NoError(t, s.Close(), "Close is idempotent")
}
