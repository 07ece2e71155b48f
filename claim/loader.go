// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package claim

import (
	"context"
	"fmt"
	"strings"

	"github.com/danielhkuo/redeem-portal/selector"
	"github.com/danielhkuo/redeem-portal/store"
)

// DefaultMaxBatch caps candidates per Load call when none is configured.
const DefaultMaxBatch = 100000

// LoadResult describes one bulk load.
//
// Submitted counts raw candidates, Accepted the distinct non-empty ones
// after trimming, and Inserted the codes that were new to the pool. The
// portal reports Inserted as its count.
type LoadResult struct {
	Submitted int
	Accepted  int
	Inserted  int
	Backend   string
}

// Loader merges candidate codes into the pool.
type Loader struct {
	sel      *selector.Selector
	maxBatch int
	opts     Options
}

// NewLoader returns a Loader. maxBatch <= 0 uses DefaultMaxBatch.
func NewLoader(sel *selector.Selector, maxBatch int, opts Options) *Loader {
	if maxBatch <= 0 {
		maxBatch = DefaultMaxBatch
	}
	return &Loader{sel: sel, maxBatch: maxBatch, opts: opts.withDefaults()}
}

// Accept trims candidates and drops empties and duplicates, keeping the
// first occurrence order.
func Accept(candidates []string) []string {
	seen := make(map[string]struct{}, len(candidates))
	out := make([]string, 0, len(candidates))
	for _, c := range candidates {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}

// Load adds candidates to the active backend's pool. Codes already
// available or already issued are skipped without error.
//
// Load applies no per-call timeout of its own; large batches are bounded
// by ctx only.
func (l *Loader) Load(ctx context.Context, candidates []string) (LoadResult, error) {
	res := LoadResult{Submitted: len(candidates)}
	if len(candidates) > l.maxBatch {
		return res, &ValidationError{
			Field:  "codes",
			Reason: fmt.Sprintf("at most %d codes per request, got %d", l.maxBatch, len(candidates)),
		}
	}

	accepted := Accept(candidates)
	res.Accepted = len(accepted)
	if res.Accepted == 0 {
		return res, &ValidationError{Field: "codes", Reason: "no usable codes"}
	}

	backend, err := l.sel.Do(ctx, func(b store.Backend) error {
		var err error
		res.Inserted, err = b.AddCodes(ctx, accepted)
		return err
	})
	if backend != nil {
		res.Backend = backend.Name()
	}
	if err != nil {
		return res, fmt.Errorf("load codes: %w", err)
	}

	l.opts.Metrics.ObserveLoad(res.Inserted)
	l.opts.Logger.Info("codes loaded",
		"backend", res.Backend,
		"submitted", res.Submitted,
		"accepted", res.Accepted,
		"inserted", res.Inserted,
	)
	return res, nil
}
