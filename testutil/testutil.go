// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/danielhkuo/redeem-portal/cliparse"
	"github.com/danielhkuo/redeem-portal/memstore"
	"github.com/danielhkuo/redeem-portal/redisstore"
	"github.com/danielhkuo/redeem-portal/retry"
	"github.com/danielhkuo/redeem-portal/selector"
)

// Env is a selector plus the stores behind it.
type Env struct {
	Selector *selector.Selector
	Monitor  *selector.Monitor
	Fallback *memstore.Store
	Durable  *redisstore.Store // nil for memory-only
	Redis    *miniredis.Miniredis
	Clock    *retry.FakeClock
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:           3000,
		StoreType:      cliparse.StoreMemory,
		KeyPrefix:      "m_portal_test",
		RetryAttempts:  1,
		RetryDelay:     time.Second,
		HealthInterval: 0,
		OpTimeout:      2 * time.Second,
		MaxCodes:       0,
		MaxBatch:       1000,
		BodyLimit:      1 << 20,
		LogSalt:        "test-log-salt",
		LogLevel:       "info",
		LogFormat:      "text",
	}
}

// SetupMemory returns an Env with no durable store.
func SetupMemory(t *testing.T) *Env {
	t.Helper()

	fallback := memstore.New()
	monitor := selector.NewMonitor(nil, selector.Config{})
	return &Env{
		Selector: selector.New(nil, fallback, monitor, nil),
		Monitor:  monitor,
		Fallback: fallback,
	}
}

// SetupRedis starts miniredis, runs a monitor over it and waits until the
// selector routes to Redis. Everything is torn down with the test.
func SetupRedis(t *testing.T) *Env {
	t.Helper()

	mr := miniredis.RunT(t)
	durable, err := redisstore.Open(redisstore.Options{
		URL:     "redis://" + mr.Addr(),
		Prefix:  GetTestConfig().KeyPrefix,
		Timeout: 500 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("Failed to open redis store: %v", err)
	}
	t.Cleanup(func() { durable.Close() })

	clock := retry.NewFakeClock(time.Unix(0, 0))
	fallback := memstore.New()
	monitor := selector.NewMonitor(durable, selector.Config{
		Policy:      retry.Policy{MaxAttempts: 2, BaseDelay: time.Second},
		Clock:       clock,
		PingTimeout: 500 * time.Millisecond,
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = monitor.Start(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	deadline := time.Now().Add(2 * time.Second)
	for monitor.State() != selector.Ready {
		if time.Now().After(deadline) {
			t.Fatalf("Redis monitor never became ready: %+v", monitor.Status())
		}
		time.Sleep(5 * time.Millisecond)
	}

	return &Env{
		Selector: selector.New(durable, fallback, monitor, nil),
		Monitor:  monitor,
		Fallback: fallback,
		Durable:  durable,
		Redis:    mr,
		Clock:    clock,
	}
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
