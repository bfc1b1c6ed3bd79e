// Package integrity provides tamper-evident content hashing for prediction
// and bet audit trails. All functions are pure and deterministic.
package integrity

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
)

// ComputeHash produces a SHA-256 hex digest over an ordered list of canonical
// fields. Each field is length-prefixed before hashing so that delimiter
// collisions in freeform text (reasoning, monologues) cannot produce a false
// match, e.g. ComputeHash("ab", "c") != ComputeHash("a", "bc").
//
// Callers are responsible for canonicalizing timestamps (truncate to
// microsecond precision to match Postgres timestamptz resolution) and
// floats (fixed-precision formatting) before passing them in, the same way
// the original decision-hash scheme did.
func ComputeHash(fields ...string) string {
	h := sha256.New()
	for _, f := range fields {
		var lenBuf [4]byte
		binary.BigEndian.PutUint32(lenBuf[:], uint32(len(f))) //nolint:gosec // field lengths are bounded by JSON body limits
		h.Write(lenBuf[:])
		h.Write([]byte(f))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Verify reports whether stored matches the hash recomputed from fields.
func Verify(stored string, fields ...string) bool {
	return stored == ComputeHash(fields...)
}
