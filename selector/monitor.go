// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package selector

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/danielhkuo/redeem-portal/retry"
	"github.com/danielhkuo/redeem-portal/store"
)

// Config tunes a Monitor. Zero values get defaults from NewMonitor.
type Config struct {
	Policy         retry.Policy
	Clock          retry.Clock
	HealthInterval time.Duration // 0 disables periodic pings
	PingTimeout    time.Duration
	Logger         *slog.Logger
}

// Status is a point-in-time snapshot of the Monitor.
type Status struct {
	State     State     `json:"state"`
	Mode      string    `json:"mode"`
	Backend   string    `json:"backend"`
	Attempts  int       `json:"attempts"`
	LastError string    `json:"lastError,omitempty"`
	Since     time.Time `json:"since"`
}

// Monitor tracks whether the durable backend is reachable and drives
// bounded reconnect runs when it is not.
type Monitor struct {
	backend  store.Backend // nil when running memory-only
	policy   retry.Policy
	clock    retry.Clock
	interval time.Duration
	timeout  time.Duration
	logger   *slog.Logger

	mu        sync.RWMutex
	state     State
	since     time.Time
	attempts  int
	lastErr   error
	listeners []func(from, to State)

	wake chan struct{}
}

// NewMonitor creates a monitor for backend. A nil backend means there is
// no durable store: the monitor stays Degraded and never pings.
func NewMonitor(backend store.Backend, cfg Config) *Monitor {
	if cfg.Clock == nil {
		cfg.Clock = retry.RealClock()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.PingTimeout <= 0 {
		cfg.PingTimeout = 2 * time.Second
	}

	m := &Monitor{
		backend:  backend,
		policy:   cfg.Policy,
		clock:    cfg.Clock,
		interval: cfg.HealthInterval,
		timeout:  cfg.PingTimeout,
		logger:   cfg.Logger,
		state:    Connecting,
		since:    cfg.Clock.Now(),
		wake:     make(chan struct{}, 1),
	}
	if backend == nil {
		m.state = Degraded
	}
	return m
}

// OnStateChange registers fn to run after every transition. Callbacks
// run on the goroutine that caused the transition, outside the lock.
func (m *Monitor) OnStateChange(fn func(from, to State)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, fn)
}

func (m *Monitor) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

func (m *Monitor) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()

	st := Status{
		State:    m.state,
		Mode:     store.NameMemory,
		Backend:  store.NameMemory,
		Attempts: m.attempts,
		Since:    m.since,
	}
	if m.backend != nil {
		st.Backend = m.backend.Name()
		if m.state == Ready {
			st.Mode = m.backend.Name()
		}
	}
	if m.lastErr != nil {
		st.LastError = m.lastErr.Error()
	}
	return st
}

// Start performs the connection handshake and then watches the backend
// until ctx is cancelled. It blocks; run it in its own goroutine.
func (m *Monitor) Start(ctx context.Context) error {
	if m.backend == nil {
		m.logger.Info("no durable store configured, serving from memory")
		<-ctx.Done()
		return nil
	}

	m.logger.Info("health monitor started",
		"backend", m.backend.Name(),
		"interval", m.interval,
		"max_attempts", m.policy.Attempts(),
	)
	m.connect(ctx)

	var tick <-chan time.Time
	for {
		if tick == nil && m.interval > 0 && m.State() == Ready {
			tick = m.clock.After(m.interval)
		}

		select {
		case <-ctx.Done():
			m.logger.Info("health monitor stopping")
			return nil

		case <-tick:
			tick = nil
			if m.State() != Ready {
				continue
			}
			if err := m.ping(ctx); err != nil {
				if ctx.Err() != nil {
					continue
				}
				if m.swap(Degraded, err, Ready) {
					m.logger.Warn("durable store ping failed, switching to memory",
						"backend", m.backend.Name(), "error", err)
				}
				m.connect(ctx)
			}

		case <-m.wake:
			if m.State() != Ready {
				m.connect(ctx)
			}
		}
	}
}

// ReportFailure tells the monitor that an operation on the durable store
// failed for connectivity reasons. A Ready monitor turns Degraded at once
// and schedules a reconnect run.
func (m *Monitor) ReportFailure(err error) {
	if m.backend == nil {
		return
	}
	if m.swap(Degraded, err, Ready) {
		m.logger.Warn("durable store unavailable, switching to memory",
			"backend", m.backend.Name(), "error", err)
		m.signal()
	}
}

// Reconnect requests a fresh reconnect run. It is the manual trigger
// after a run has given up; it does nothing while Ready.
func (m *Monitor) Reconnect() {
	if m.backend == nil {
		return
	}
	m.logger.Info("manual reconnect requested", "backend", m.backend.Name())
	m.signal()
}

func (m *Monitor) signal() {
	select {
	case m.wake <- struct{}{}:
	default:
	}
}

// connect runs one bounded retry schedule against the backend.
func (m *Monitor) connect(ctx context.Context) {
	m.mu.Lock()
	m.attempts = 0
	m.mu.Unlock()

	err := retry.Do(ctx, m.policy, m.clock, func(attempt int) error {
		m.mu.Lock()
		m.attempts = attempt
		m.mu.Unlock()

		err := m.ping(ctx)
		if err != nil {
			m.swap(Degraded, err)
			m.logger.Warn("durable store connection failed",
				"backend", m.backend.Name(),
				"attempt", attempt,
				"max_attempts", m.policy.Attempts(),
				"error", err,
			)
		}
		return err
	})

	if err == nil {
		m.swap(Ready, nil)
		m.logger.Info("connected to durable store", "backend", m.backend.Name())
		return
	}
	if ctx.Err() != nil {
		return
	}
	m.logger.Warn("reconnect attempts exhausted, serving from memory until manual reconnect",
		"backend", m.backend.Name(),
		"attempts", m.policy.Attempts(),
	)
}

func (m *Monitor) ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()
	return m.backend.Ping(ctx)
}

// swap moves to state to. When from is non-empty the move only happens
// if the current state is one of them. err, when non-nil, is recorded as
// the last error; reaching Ready clears it. Listeners run after unlock.
func (m *Monitor) swap(to State, err error, from ...State) bool {
	m.mu.Lock()
	cur := m.state
	if len(from) > 0 && !slices.Contains(from, cur) {
		m.mu.Unlock()
		return false
	}
	if err != nil {
		m.lastErr = err
	}
	if to == Ready {
		m.lastErr = nil
	}
	if cur == to {
		m.mu.Unlock()
		return false
	}
	m.state = to
	m.since = m.clock.Now()
	listeners := slices.Clone(m.listeners)
	m.mu.Unlock()

	for _, fn := range listeners {
		fn(cur, to)
	}
	return true
}
