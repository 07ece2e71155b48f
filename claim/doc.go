// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package claim implements code allocation and bulk loading.

# Claiming

	out, err := alloc.Claim(ctx, userID)
	switch {
	case err != nil:
		// *ValidationError, ErrBackendUnavailable or *PartialFailureError
	case out.Kind == claim.Exhausted:
		// pool empty
	default:
		// out.Code, out.Kind is Issued or Existing
	}

A claim looks up the identity and, when it has no code yet, asks the same
backend for one with a single ClaimCode call. ClaimCode checks the claim,
moves one code out of the pool and binds it as one atomic step, so two
identities never receive the same code and a reload can never put an
in-flight code back in the pool. Concurrent claims for one identity
converge on the code bound first.

ClaimCode does not inherit the caller's cancellation; only OpTimeout
bounds it. A request aborted mid-claim still leaves the code bound.

If a backend reports that it removed a code but could not record the
claim (*store.ConsumedError), the claim fails with *PartialFailureError
and the code is logged at error level. A code is never issued twice; it
may be lost.

A connectivity failure during ClaimCode is not retried on the fallback:
the claim may have been applied. The caller gets ErrBackendUnavailable
and may try again.

# Loading

	res, err := loader.Load(ctx, codes)

Candidates are trimmed, blanks and duplicates dropped, and the rest added
with set-union semantics. Codes already issued are skipped. res.Inserted
is the number of codes new to the pool.
*/
package claim
