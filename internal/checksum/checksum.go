// Package checksum computes content digests used for optimistic
// concurrency on note updates.
package checksum

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// Match reports whether expected equals the digest of data, compared in
// constant time.
func Match(expected string, data []byte) bool {
	actual := Sum(data)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(actual)) == 1
}
