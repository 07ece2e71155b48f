// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides identity hashing and redemption code generation.

# Identity Hashing

Identities are phone numbers or e-mail addresses, so logs carry a salted
hash instead:

	who := auth.HashIdentity(identity, salt)

Returns first 8 bytes (16 hex chars) of HMAC-SHA256.

# Code Generation

Random codes for POST /api/codes/generate:

	code, err := auth.GenerateCode("VIP-", 10)
	codes, err := auth.GenerateCodes(100, "VIP-", 10)

Characters come from crypto/rand over an alphabet without look-alike
characters (no 0, O, 1, I or L). GenerateCodes never returns duplicates
within one batch; collisions with codes already in the pool are absorbed
by the bulk loader.
*/
package auth
