// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package claim

// Kind discriminates the arms of an Outcome.
type Kind int

const (
	// Issued: a fresh code was bound to the identity by this call.
	Issued Kind = iota + 1
	// Existing: the identity already held a code; nothing was consumed.
	Existing
	// Exhausted: the pool was empty.
	Exhausted
)

func (k Kind) String() string {
	switch k {
	case Issued:
		return "issued"
	case Existing:
		return "existing"
	case Exhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// Outcome is the result of a successful claim call. Code is set for
// Issued and Existing; Backend names the store that served it.
type Outcome struct {
	Kind    Kind
	Code    string
	Backend string
}

// Err returns ErrExhausted for the Exhausted arm and nil otherwise.
func (o Outcome) Err() error {
	if o.Kind == Exhausted {
		return ErrExhausted
	}
	return nil
}

// HasCode reports whether the outcome carries a code.
func (o Outcome) HasCode() bool {
	return o.Kind == Issued || o.Kind == Existing
}
