// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package memstore implements the in-process fallback store.
//
// Contents live in plain maps behind one mutex and are lost when the
// process exits. The selector routes to this store whenever the durable
// backend is not Ready. Nothing written here is copied to the durable
// backend after it recovers.
//
// After Close every method returns store.ErrClosed.
package memstore
