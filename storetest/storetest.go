// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package storetest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielhkuo/redeem-portal/store"
)

// Factory returns a fresh, empty backend. Cleanup is the factory's job.
type Factory func(t *testing.T) store.Backend

// RunBackendSuite runs the behaviour every store.Backend must provide.
func RunBackendSuite(t *testing.T, newBackend Factory) {
	tests := []struct {
		name string
		fn   func(t *testing.T, b store.Backend)
	}{
		{"Empty", testEmpty},
		{"Ping", testPing},
		{"ConfigRoundTrip", testConfigRoundTrip},
		{"AddCodesDeduplicates", testAddCodesDeduplicates},
		{"AddCodesSkipsIssued", testAddCodesSkipsIssued},
		{"ClaimDrainsPool", testClaimDrainsPool},
		{"ClaimIsIdempotent", testClaimIsIdempotent},
		{"Reset", testReset},
		{"ConcurrentClaims", testConcurrentClaims},
		{"ConcurrentClaimsSameIdentity", testConcurrentClaimsSameIdentity},
		{"ReloadDuringClaims", testReloadDuringClaims},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.fn(t, newBackend(t))
		})
	}
}

func counts(t *testing.T, b store.Backend) store.Counts {
	t.Helper()
	c, err := b.Counts(context.Background())
	require.NoError(t, err)
	return c
}

func testEmpty(t *testing.T, b store.Backend) {
	ctx := context.Background()

	assert.Equal(t, store.Counts{}, counts(t, b))

	_, found, err := b.GetConfig(ctx)
	require.NoError(t, err)
	assert.False(t, found)

	res, err := b.ClaimCode(ctx, "nobody")
	require.NoError(t, err)
	assert.True(t, res.Empty())

	// An empty pool binds nothing.
	_, found, err = b.GetClaim(ctx, "nobody")
	require.NoError(t, err)
	assert.False(t, found)
}

func testPing(t *testing.T, b store.Backend) {
	assert.NoError(t, b.Ping(context.Background()))
	assert.NotEmpty(t, b.Name())
}

func testConfigRoundTrip(t *testing.T, b store.Backend) {
	ctx := context.Background()

	require.NoError(t, b.PutConfig(ctx, []byte(`{"name":"first"}`)))
	require.NoError(t, b.PutConfig(ctx, []byte(`{"name":"second"}`)))

	blob, found, err := b.GetConfig(ctx)
	require.NoError(t, err)
	require.True(t, found)
	assert.JSONEq(t, `{"name":"second"}`, string(blob))
}

func testAddCodesDeduplicates(t *testing.T, b store.Backend) {
	ctx := context.Background()

	inserted, err := b.AddCodes(ctx, []string{"A", "A", "B"})
	require.NoError(t, err)
	assert.Equal(t, 2, inserted)

	inserted, err = b.AddCodes(ctx, []string{"B", "C"})
	require.NoError(t, err)
	assert.Equal(t, 1, inserted, "B is already available")

	assert.Equal(t, store.Counts{Available: 3}, counts(t, b))
}

func testAddCodesSkipsIssued(t *testing.T, b store.Backend) {
	ctx := context.Background()

	_, err := b.AddCodes(ctx, []string{"X"})
	require.NoError(t, err)

	res, err := b.ClaimCode(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, "X", res.Code)

	inserted, err := b.AddCodes(ctx, []string{"X"})
	require.NoError(t, err)
	assert.Equal(t, 0, inserted)

	assert.Equal(t, store.Counts{Available: 0, Claimed: 1}, counts(t, b))
}

func testClaimDrainsPool(t *testing.T, b store.Backend) {
	ctx := context.Background()

	_, err := b.AddCodes(ctx, []string{"X1", "X2"})
	require.NoError(t, err)

	var got []string
	for _, id := range []string{"u1", "u2"} {
		res, err := b.ClaimCode(ctx, id)
		require.NoError(t, err)
		require.False(t, res.Empty())
		assert.False(t, res.Existing)
		got = append(got, res.Code)
	}
	sort.Strings(got)
	assert.Equal(t, []string{"X1", "X2"}, got)

	res, err := b.ClaimCode(ctx, "u3")
	require.NoError(t, err)
	assert.True(t, res.Empty())

	assert.Equal(t, store.Counts{Available: 0, Claimed: 2}, counts(t, b))
}

func testClaimIsIdempotent(t *testing.T, b store.Backend) {
	ctx := context.Background()

	_, err := b.AddCodes(ctx, []string{"A", "B"})
	require.NoError(t, err)

	first, err := b.ClaimCode(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, first.Existing)

	second, err := b.ClaimCode(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, second.Existing)
	assert.Equal(t, first.Code, second.Code)

	code, found, err := b.GetClaim(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, first.Code, code)

	assert.Equal(t, store.Counts{Available: 1, Claimed: 1}, counts(t, b))
}

func testReset(t *testing.T, b store.Backend) {
	ctx := context.Background()

	require.NoError(t, b.PutConfig(ctx, []byte(`{"name":"x"}`)))
	_, err := b.AddCodes(ctx, []string{"A", "B"})
	require.NoError(t, err)
	res, err := b.ClaimCode(ctx, "u1")
	require.NoError(t, err)

	require.NoError(t, b.Reset(ctx))

	assert.Equal(t, store.Counts{}, counts(t, b))

	_, found, err := b.GetConfig(ctx)
	require.NoError(t, err)
	assert.False(t, found)

	_, found, err = b.GetClaim(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, found)

	// Reset forgets issued codes and leaves the backend usable.
	inserted, err := b.AddCodes(ctx, []string{res.Code})
	require.NoError(t, err)
	assert.Equal(t, 1, inserted)
}

func testConcurrentClaims(t *testing.T, b store.Backend) {
	ctx := context.Background()

	const numCodes = 50
	const numWorkers = 100

	codes := make([]string, numCodes)
	for i := range codes {
		codes[i] = fmt.Sprintf("C%03d", i)
	}
	_, err := b.AddCodes(ctx, codes)
	require.NoError(t, err)

	var (
		mu    sync.Mutex
		seen  = make(map[string]int)
		empty int
		wg    sync.WaitGroup
	)
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := b.ClaimCode(ctx, fmt.Sprintf("user-%03d", i))
			if err != nil {
				t.Errorf("ClaimCode: %v", err)
				return
			}
			mu.Lock()
			defer mu.Unlock()
			if res.Empty() {
				empty++
				return
			}
			seen[res.Code]++
		}(i)
	}
	wg.Wait()

	assert.Len(t, seen, numCodes)
	assert.Equal(t, numWorkers-numCodes, empty)
	for code, n := range seen {
		assert.Equal(t, 1, n, "code %s issued more than once", code)
	}

	assert.Equal(t, store.Counts{Available: 0, Claimed: numCodes}, counts(t, b))
}

func testConcurrentClaimsSameIdentity(t *testing.T, b store.Backend) {
	ctx := context.Background()

	const numWorkers = 10
	codes := make([]string, numWorkers)
	for i := range codes {
		codes[i] = fmt.Sprintf("S%02d", i)
	}
	_, err := b.AddCodes(ctx, codes)
	require.NoError(t, err)

	results := make([]string, numWorkers)
	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := b.ClaimCode(ctx, "same-user")
			if err != nil {
				t.Errorf("ClaimCode: %v", err)
				return
			}
			results[i] = res.Code
		}(i)
	}
	wg.Wait()

	for _, r := range results {
		assert.Equal(t, results[0], r, "all claims must converge on one code")
	}

	// Exactly one code left the pool.
	assert.Equal(t, store.Counts{Available: numWorkers - 1, Claimed: 1}, counts(t, b))
}

// testReloadDuringClaims re-uploads the whole pool while claims run. A
// code must never come back into the pool once it is bound, so each code
// goes to at most one identity.
func testReloadDuringClaims(t *testing.T, b store.Backend) {
	ctx := context.Background()

	_, err := b.AddCodes(ctx, []string{"ONLY"})
	require.NoError(t, err)

	res, err := b.ClaimCode(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, "ONLY", res.Code)

	inserted, err := b.AddCodes(ctx, []string{"ONLY"})
	require.NoError(t, err)
	assert.Equal(t, 0, inserted)

	res, err = b.ClaimCode(ctx, "u2")
	require.NoError(t, err)
	assert.True(t, res.Empty(), "u2 must not receive u1's code")

	// Same thing under contention.
	const numCodes = 5
	const numClaims = 20
	batch := make([]string, numCodes)
	for i := range batch {
		batch[i] = fmt.Sprintf("R%02d", i)
	}
	_, err = b.AddCodes(ctx, batch)
	require.NoError(t, err)

	var (
		mu     sync.Mutex
		owners = make(map[string][]string)
		wg     sync.WaitGroup
	)
	for i := 0; i < numClaims; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			if _, err := b.AddCodes(ctx, batch); err != nil {
				t.Errorf("AddCodes: %v", err)
			}
		}()
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("reload-%02d", i)
			res, err := b.ClaimCode(ctx, id)
			if err != nil {
				t.Errorf("ClaimCode: %v", err)
				return
			}
			if res.Empty() {
				return
			}
			mu.Lock()
			owners[res.Code] = append(owners[res.Code], id)
			mu.Unlock()
		}(i)
	}
	wg.Wait()

	assert.Len(t, owners, numCodes)
	for code, ids := range owners {
		assert.Len(t, ids, 1, "code %s issued to %v", code, ids)
	}
	assert.Equal(t, store.Counts{Available: 0, Claimed: numCodes + 1}, counts(t, b))
}
