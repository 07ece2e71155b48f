// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package redisstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/danielhkuo/redeem-portal/store"
)

// DefaultPrefix matches the key layout used by earlier deployments.
const DefaultPrefix = "m_portal"

// addBatchSize bounds how many candidates one script call carries.
const addBatchSize = 1000

// addCodesScript unions ARGV into the pool (KEYS[1]), skipping codes in
// the issued set (KEYS[2]). Returns the number of net-new members.
var addCodesScript = redis.NewScript(`
local added = 0
for _, c in ipairs(ARGV) do
  if redis.call('SISMEMBER', KEYS[2], c) == 0 then
    added = added + redis.call('SADD', KEYS[1], c)
  end
end
return added
`)

// claimScript returns the code bound to ARGV[1] in the claims hash
// (KEYS[2]), or moves one member of the pool (KEYS[1]) into the hash and
// the issued set (KEYS[3]). The reply is {"existing", code},
// {"issued", code}, {"empty"} or {"consumed", code, error} when the
// code was popped but the bind was rejected.
var claimScript = redis.NewScript(`
local bound = redis.call('HGET', KEYS[2], ARGV[1])
if bound then
  return {'existing', bound}
end
local code = redis.call('SPOP', KEYS[1])
if not code then
  return {'empty'}
end
local res = redis.pcall('HSET', KEYS[2], ARGV[1], code)
if type(res) == 'table' and res.err then
  return {'consumed', code, res.err}
end
redis.call('SADD', KEYS[3], code)
return {'issued', code}
`)

// Keys holds the addressable entries.
type Keys struct {
	Config    string
	Available string
	Claims    string
	Issued    string // every code ever bound, for AddCodes dedup
}

// KeysFor derives the key layout from a prefix.
func KeysFor(prefix string) Keys {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return Keys{
		Config:    prefix + ":config",
		Available: prefix + ":codes:available",
		Claims:    prefix + ":claims",
		Issued:    prefix + ":codes:issued",
	}
}

// Store is the Redis-backed durable backend.
type Store struct {
	client *redis.Client
	keys   Keys
}

var _ store.Backend = (*Store)(nil)

// Options configures Open.
type Options struct {
	URL     string
	Prefix  string
	Timeout time.Duration // dial/read/write timeout per command
}

// Open parses the URL and creates a client. It does not dial; the
// selector's handshake does.
func Open(opts Options) (*Store, error) {
	ropts, err := redis.ParseURL(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	// Failures go straight to the selector; it decides about fallback.
	ropts.MaxRetries = -1
	if opts.Timeout > 0 {
		ropts.DialTimeout = opts.Timeout
		ropts.ReadTimeout = opts.Timeout
		ropts.WriteTimeout = opts.Timeout
	}

	return New(redis.NewClient(ropts), opts.Prefix), nil
}

// New wraps an existing client.
func New(client *redis.Client, prefix string) *Store {
	return &Store{client: client, keys: KeysFor(prefix)}
}

func (s *Store) Name() string { return store.NameRedis }

// Keys returns the key layout in use.
func (s *Store) Keys() Keys { return s.keys }

func (s *Store) Ping(ctx context.Context) error {
	return classify("ping", s.client.Ping(ctx).Err())
}

func (s *Store) GetConfig(ctx context.Context) ([]byte, bool, error) {
	blob, err := s.client.Get(ctx, s.keys.Config).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, classify("get config", err)
	}
	return blob, true, nil
}

func (s *Store) PutConfig(ctx context.Context, blob []byte) error {
	return classify("put config", s.client.Set(ctx, s.keys.Config, blob, 0).Err())
}

func (s *Store) GetClaim(ctx context.Context, identity string) (string, bool, error) {
	code, err := s.client.HGet(ctx, s.keys.Claims, identity).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, classify("get claim", err)
	}
	return code, true, nil
}

// ClaimCode runs claimScript, so lookup, pop and bind execute as one
// unit on the server.
func (s *Store) ClaimCode(ctx context.Context, identity string) (store.ClaimResult, error) {
	keys := []string{s.keys.Available, s.keys.Claims, s.keys.Issued}
	reply, err := claimScript.Run(ctx, s.client, keys, identity).StringSlice()
	if err != nil {
		return store.ClaimResult{}, classify("claim code", err)
	}

	switch {
	case len(reply) == 2 && reply[0] == "existing":
		return store.ClaimResult{Code: reply[1], Existing: true}, nil
	case len(reply) == 2 && reply[0] == "issued":
		return store.ClaimResult{Code: reply[1]}, nil
	case len(reply) == 1 && reply[0] == "empty":
		return store.ClaimResult{}, nil
	case len(reply) == 3 && reply[0] == "consumed":
		return store.ClaimResult{}, &store.ConsumedError{Code: reply[1], Err: errors.New(reply[2])}
	}
	return store.ClaimResult{}, fmt.Errorf("claim code: unexpected script reply %q", reply)
}

// AddCodes runs addCodesScript in batches. Each batch is atomic on the
// server; the batch sequence as a whole is not.
func (s *Store) AddCodes(ctx context.Context, codes []string) (int, error) {
	inserted := 0
	keys := []string{s.keys.Available, s.keys.Issued}

	for start := 0; start < len(codes); start += addBatchSize {
		end := min(start+addBatchSize, len(codes))

		args := make([]interface{}, 0, end-start)
		for _, c := range codes[start:end] {
			args = append(args, c)
		}

		n, err := addCodesScript.Run(ctx, s.client, keys, args...).Int()
		if err != nil {
			return inserted, classify("add codes", err)
		}
		inserted += n
	}
	return inserted, nil
}

// Counts reads SCARD and HLEN inside one MULTI so both numbers come from
// the same moment.
func (s *Store) Counts(ctx context.Context) (store.Counts, error) {
	var (
		available *redis.IntCmd
		claimed   *redis.IntCmd
	)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		available = pipe.SCard(ctx, s.keys.Available)
		claimed = pipe.HLen(ctx, s.keys.Claims)
		return nil
	})
	if err != nil {
		return store.Counts{}, classify("counts", err)
	}
	return store.Counts{
		Available: int(available.Val()),
		Claimed:   int(claimed.Val()),
	}, nil
}

func (s *Store) Reset(ctx context.Context) error {
	err := s.client.Del(ctx, s.keys.Config, s.keys.Available, s.keys.Claims, s.keys.Issued).Err()
	return classify("reset", err)
}

func (s *Store) Close() error {
	return s.client.Close()
}

// classify separates replies from the server (the command ran and was
// rejected) from transport failures (the server could not be reached).
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s: %w", op, err)
	}
	var rerr redis.Error
	if errors.As(err, &rerr) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return store.Unavailable(op, err)
}
