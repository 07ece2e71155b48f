// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package claim

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"

	"github.com/danielhkuo/redeem-portal/memstore"
	"github.com/danielhkuo/redeem-portal/redisstore"
	"github.com/danielhkuo/redeem-portal/retry"
	"github.com/danielhkuo/redeem-portal/selector"
	"github.com/danielhkuo/redeem-portal/store"
)

// faultyBackend is a memory store that fails every ClaimCode with
// claimErr and reports itself as a durable backend.
type faultyBackend struct {
	*memstore.Store
	claimErr error
}

func (f *faultyBackend) Name() string { return store.NameRedis }

func (f *faultyBackend) ClaimCode(ctx context.Context, identity string) (store.ClaimResult, error) {
	if f.claimErr != nil {
		return store.ClaimResult{}, f.claimErr
	}
	return f.Store.ClaimCode(ctx, identity)
}

// lookupHook runs after every successful GetClaim on the wrapped backend.
type lookupHook struct {
	store.Backend
	after func()
}

func (h *lookupHook) GetClaim(ctx context.Context, identity string) (string, bool, error) {
	code, found, err := h.Backend.GetClaim(ctx, identity)
	if err == nil {
		h.after()
	}
	return code, found, err
}

type stateLog struct {
	mu  sync.Mutex
	got []string
}

func (l *stateLog) record(from, to selector.State) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.got = append(l.got, from.String()+"->"+to.String())
}

func (l *stateLog) contains(s string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, g := range l.got {
		if g == s {
			return true
		}
	}
	return false
}

type fixture struct {
	sel      *selector.Selector
	monitor  *selector.Monitor
	fallback *memstore.Store
	states   *stateLog
	alloc    *Allocator
	loader   *Loader
}

// memoryFixture serves everything from the in-process store.
func memoryFixture(t *testing.T) *fixture {
	t.Helper()
	fallback := memstore.New()
	m := selector.NewMonitor(nil, selector.Config{})
	return newFixture(nil, fallback, m)
}

// durableFixture runs a started monitor over durable and waits for Ready.
func durableFixture(t *testing.T, durable store.Backend) *fixture {
	t.Helper()

	fallback := memstore.New()
	m := selector.NewMonitor(durable, selector.Config{
		Policy:      retry.Policy{MaxAttempts: 2, BaseDelay: time.Second},
		Clock:       retry.NewFakeClock(time.Unix(0, 0)),
		PingTimeout: 500 * time.Millisecond,
	})
	f := newFixture(durable, fallback, m)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = m.Start(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	require.Eventually(t, func() bool { return m.State() == selector.Ready }, 2*time.Second, 5*time.Millisecond)
	return f
}

func newFixture(durable store.Backend, fallback *memstore.Store, m *selector.Monitor) *fixture {
	f := &fixture{
		monitor:  m,
		fallback: fallback,
		states:   &stateLog{},
	}
	m.OnStateChange(f.states.record)
	f.sel = selector.New(durable, fallback, m, nil)
	f.alloc = NewAllocator(f.sel, Options{OpTimeout: time.Second})
	f.loader = NewLoader(f.sel, 0, Options{})
	return f
}

// redisFixture starts miniredis and a ready selector over it.
func redisFixture(t *testing.T) (*fixture, *miniredis.Miniredis) {
	t.Helper()
	return wrappedRedisFixture(t, nil)
}

// wrappedRedisFixture is redisFixture with the Redis store passed through
// wrap before the selector sees it.
func wrappedRedisFixture(t *testing.T, wrap func(store.Backend) store.Backend) (*fixture, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	durable, err := redisstore.Open(redisstore.Options{
		URL:     "redis://" + mr.Addr(),
		Timeout: 500 * time.Millisecond,
	})
	require.NoError(t, err)
	t.Cleanup(func() { durable.Close() })

	var b store.Backend = durable
	if wrap != nil {
		b = wrap(b)
	}
	return durableFixture(t, b), mr
}

func (f *fixture) counts(t *testing.T) store.Counts {
	t.Helper()
	c, err := f.sel.Active().Counts(context.Background())
	require.NoError(t, err)
	return c
}
