// Package hashing provides the content hashing and deterministic identifier
// derivation used across the compiler. The digest algorithm is pinned behind
// the Alg constant so callers never name it directly.
package hashing

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Alg names the digest algorithm recorded in receipts.
// Changing it is a breaking change to every emitted receipt.
const Alg = "sha256"

// IDKind selects the prefix of a derived deterministic identifier.
type IDKind string

const (
	IDKindScene IDKind = "scene"
	IDKindNode  IDKind = "node"
)

// Bytes returns the hex digest of data.
func Bytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// String returns the hex digest of s.
func String(s string) string {
	return Bytes([]byte(s))
}

// DeterministicID derives a reproducible entity identifier from its parts.
// Parts are trimmed, joined with "/", hashed, and prefixed with the kind.
// Same inputs always yield the same id; there is no randomness and no clock.
func DeterministicID(kind IDKind, parts ...string) string {
	trimmed := make([]string, len(parts))
	for i, p := range parts {
		trimmed[i] = strings.TrimSpace(p)
	}
	return string(kind) + "_" + String(strings.Join(trimmed, "/"))
}
