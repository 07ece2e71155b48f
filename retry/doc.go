// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package retry provides a bounded backoff policy and a clock abstraction.

	p := retry.Policy{MaxAttempts: 3, BaseDelay: 2 * time.Second, Multiplier: 1}
	err := retry.Do(ctx, p, retry.RealClock(), func(attempt int) error {
		return backend.Ping(ctx)
	})

Policy.Delay is a pure function of the attempt number. All waits go
through a Clock; tests use FakeClock and Advance instead of sleeping.

Errors wrapped with NonRetryable end a run on the spot.
*/
package retry
