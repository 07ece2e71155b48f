// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
)

// Uppercase letters and digits without the look-alikes 0/O and 1/I/L,
// since codes get typed in by hand.
const codeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

const (
	MinCodeLength = 4
	MaxCodeLength = 64
)

var ErrInvalidLength = errors.New("invalid code length")

// HashIdentity creates a one-way hash of a claim identity for logging.
// Includes salt to prevent rainbow table attacks on phone numbers.
func HashIdentity(identity, salt string) string {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(identity))
	sum := h.Sum(nil)
	// First 16 hex chars (64 bits) are enough to correlate log lines
	return hex.EncodeToString(sum[:8])
}

// GenerateCode returns prefix followed by length random characters.
func GenerateCode(prefix string, length int) (string, error) {
	if length < MinCodeLength || length > MaxCodeLength {
		return "", fmt.Errorf("%w: %d (want %d-%d)", ErrInvalidLength, length, MinCodeLength, MaxCodeLength)
	}

	b := make([]byte, length)
	max := big.NewInt(int64(len(codeAlphabet)))
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate random code: %w", err)
		}
		b[i] = codeAlphabet[n.Int64()]
	}
	return prefix + string(b), nil
}

// GenerateCodes returns count distinct codes.
func GenerateCodes(count int, prefix string, length int) ([]string, error) {
	if count <= 0 {
		return nil, fmt.Errorf("count must be positive, got %d", count)
	}

	seen := make(map[string]struct{}, count)
	codes := make([]string, 0, count)
	for len(codes) < count {
		code, err := GenerateCode(prefix, length)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[code]; dup {
			continue
		}
		seen[code] = struct{}{}
		codes = append(codes, code)
	}
	return codes, nil
}
