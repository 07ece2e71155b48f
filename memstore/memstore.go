// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package memstore

import (
	"context"
	"sync"

	"github.com/danielhkuo/redeem-portal/store"
)

// Store is the process-local fallback backend.
// A single mutex guards all three entities so every primitive is atomic.
type Store struct {
	mu     sync.Mutex
	config []byte              // nil until PutConfig
	pool   map[string]struct{} // available codes
	claims map[string]string   // identity → code
	issued map[string]struct{} // reverse index of claims values
	closed bool
}

var _ store.Backend = (*Store)(nil)

// New creates an empty fallback store.
func New() *Store {
	return &Store{
		pool:   make(map[string]struct{}),
		claims: make(map[string]string),
		issued: make(map[string]struct{}),
	}
}

func (s *Store) Name() string { return store.NameMemory }

// Ping only fails after Close.
func (s *Store) Ping(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return store.ErrClosed
	}
	return nil
}

// GetConfig returns a copy of the stored blob.
func (s *Store) GetConfig(ctx context.Context) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, false, store.ErrClosed
	}
	if s.config == nil {
		return nil, false, nil
	}
	result := make([]byte, len(s.config))
	copy(result, s.config)
	return result, true, nil
}

// PutConfig stores a copy of blob.
func (s *Store) PutConfig(ctx context.Context, blob []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return store.ErrClosed
	}
	stored := make([]byte, len(blob))
	copy(stored, blob)
	s.config = stored
	return nil
}

func (s *Store) GetClaim(ctx context.Context, identity string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return "", false, store.ErrClosed
	}
	code, ok := s.claims[identity]
	return code, ok, nil
}

// ClaimCode runs lookup, pop and bind under one lock hold. The popped
// member is arbitrary: map iteration order is unspecified.
func (s *Store) ClaimCode(ctx context.Context, identity string) (store.ClaimResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return store.ClaimResult{}, store.ErrClosed
	}
	if code, ok := s.claims[identity]; ok {
		return store.ClaimResult{Code: code, Existing: true}, nil
	}
	for code := range s.pool {
		delete(s.pool, code)
		s.claims[identity] = code
		s.issued[code] = struct{}{}
		return store.ClaimResult{Code: code}, nil
	}
	return store.ClaimResult{}, nil
}

// AddCodes unions codes into the pool and returns the net-new count.
func (s *Store) AddCodes(ctx context.Context, codes []string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, store.ErrClosed
	}
	inserted := 0
	for _, code := range codes {
		if _, ok := s.pool[code]; ok {
			continue
		}
		if _, ok := s.issued[code]; ok {
			continue
		}
		s.pool[code] = struct{}{}
		inserted++
	}
	return inserted, nil
}

func (s *Store) Counts(ctx context.Context) (store.Counts, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return store.Counts{}, store.ErrClosed
	}
	return store.Counts{
		Available: len(s.pool),
		Claimed:   len(s.claims),
	}, nil
}

// Reset drops all state. The store stays usable afterwards.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return store.ErrClosed
	}
	s.config = nil
	s.pool = make(map[string]struct{})
	s.claims = make(map[string]string)
	s.issued = make(map[string]struct{})
	return nil
}

// Close makes every later call fail with store.ErrClosed and drops the
// contents.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	s.config = nil
	s.pool = nil
	s.claims = nil
	s.issued = nil
	return nil
}
