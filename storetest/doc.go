// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package storetest holds the conformance suite shared by every
// store.Backend implementation:
//
//	func TestBackend(t *testing.T) {
//		storetest.RunBackendSuite(t, func(t *testing.T) store.Backend {
//			return memstore.New()
//		})
//	}
package storetest
