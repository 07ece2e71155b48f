// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package claim

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielhkuo/redeem-portal/selector"
	"github.com/danielhkuo/redeem-portal/store"
)

func TestAccept(t *testing.T) {
	got := Accept([]string{" A ", "A", "", "  ", "B", "a", "B\t"})
	assert.Equal(t, []string{"A", "B", "a"}, got)
}

func TestLoad_DeduplicatesWithinBatch(t *testing.T) {
	runOnBackends(t, func(t *testing.T, f *fixture) {
		res, err := f.loader.Load(context.Background(), []string{"A", "A", "B"})
		require.NoError(t, err)

		assert.Equal(t, 3, res.Submitted)
		assert.Equal(t, 2, res.Accepted)
		assert.Equal(t, 2, res.Inserted)
		assert.Equal(t, 2, f.counts(t).Available)
	})
}

// The reported count is the number of codes new to the pool.
func TestLoad_CountsNetNew(t *testing.T) {
	runOnBackends(t, func(t *testing.T, f *fixture) {
		ctx := context.Background()
		_, err := f.loader.Load(ctx, []string{"A", "B"})
		require.NoError(t, err)

		res, err := f.loader.Load(ctx, []string{"B", "C", " C "})
		require.NoError(t, err)
		assert.Equal(t, 3, res.Submitted)
		assert.Equal(t, 2, res.Accepted)
		assert.Equal(t, 1, res.Inserted)
		assert.Equal(t, 3, f.counts(t).Available)
	})
}

func TestLoad_SkipsIssuedCodes(t *testing.T) {
	runOnBackends(t, func(t *testing.T, f *fixture) {
		ctx := context.Background()
		_, err := f.loader.Load(ctx, []string{"ONE"})
		require.NoError(t, err)
		out, err := f.alloc.Claim(ctx, "u1")
		require.NoError(t, err)
		require.Equal(t, "ONE", out.Code)

		res, err := f.loader.Load(ctx, []string{"ONE", "TWO"})
		require.NoError(t, err)
		assert.Equal(t, 1, res.Inserted)

		c := f.counts(t)
		assert.Equal(t, 1, c.Available)
		assert.Equal(t, 1, c.Claimed)
		assert.Equal(t, 2, c.Total())
	})
}

func TestLoad_Validation(t *testing.T) {
	mem := memoryFixture(t)
	small := NewLoader(mem.sel, 3, Options{})

	tests := []struct {
		name  string
		codes []string
	}{
		{"nil batch", nil},
		{"only blanks", []string{"", "  ", "\n"}},
		{"over max batch", []string{"A", "B", "C", "D"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := small.Load(context.Background(), tt.codes)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
	assert.Equal(t, 0, mem.counts(t).Available)
}

func TestLoad_ReportsServingBackend(t *testing.T) {
	mem := memoryFixture(t)
	res, err := mem.loader.Load(context.Background(), []string{"Z"})
	require.NoError(t, err)
	assert.Equal(t, store.NameMemory, res.Backend)

	f, _ := redisFixture(t)
	require.Equal(t, selector.Ready, f.monitor.State())
	res, err = f.loader.Load(context.Background(), []string{"Z"})
	require.NoError(t, err)
	assert.Equal(t, store.NameRedis, res.Backend)
}
