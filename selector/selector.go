// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package selector

import (
	"context"
	"log/slog"

	"github.com/danielhkuo/redeem-portal/store"
)

// Selector picks the backend for each operation from the Monitor's
// current state. Nothing is cached between calls.
type Selector struct {
	durable  store.Backend
	fallback store.Backend
	monitor  *Monitor
	logger   *slog.Logger
}

// New returns a Selector. durable may be nil for memory-only operation.
func New(durable, fallback store.Backend, monitor *Monitor, logger *slog.Logger) *Selector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Selector{
		durable:  durable,
		fallback: fallback,
		monitor:  monitor,
		logger:   logger,
	}
}

// Active returns the durable backend when Ready, else the fallback.
func (s *Selector) Active() store.Backend {
	if s.durable != nil && s.monitor.State() == Ready {
		return s.durable
	}
	return s.fallback
}

func (s *Selector) Fallback() store.Backend {
	return s.fallback
}

// Mode is the name of the backend that would serve the next operation.
func (s *Selector) Mode() string {
	return s.Active().Name()
}

// IsFallback reports whether b is the in-process store.
func (s *Selector) IsFallback(b store.Backend) bool {
	return b == s.fallback
}

// Report forwards connectivity failures to the Monitor and ignores the rest.
func (s *Selector) Report(err error) {
	if store.IsUnavailable(err) {
		s.monitor.ReportFailure(err)
	}
}

// Do runs fn against the active backend. If the durable backend fails as
// unavailable, the failure is reported and fn runs once more against the
// fallback. Do returns the backend whose result is returned. Only use it
// for operations that are safe to repeat.
func (s *Selector) Do(ctx context.Context, fn func(store.Backend) error) (store.Backend, error) {
	b := s.Active()
	err := fn(b)
	if err == nil || b == s.fallback || !store.IsUnavailable(err) {
		return b, err
	}

	s.Report(err)
	s.logger.WarnContext(ctx, "durable store call failed, retrying on memory",
		"backend", b.Name(), "error", err)
	return s.fallback, fn(s.fallback)
}

func (s *Selector) Status() Status {
	return s.monitor.Status()
}

// Reconnect asks the Monitor for a fresh reconnect run.
func (s *Selector) Reconnect() {
	s.monitor.Reconnect()
}
