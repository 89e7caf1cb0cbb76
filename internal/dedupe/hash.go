// Package dedupe provides content-addressed deduplication of memo text.
package dedupe

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Normalize lowercases text and collapses all whitespace runs to single
// spaces, trimming the ends. Two memos that normalize identically are
// treated as the same submission regardless of casing or formatting.
func Normalize(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}

// Hash returns the hex-encoded SHA-256 digest of the normalized text.
// This digest is the sole dedup key: resubmitting the same memo with
// different casing or whitespace yields the same hash.
func Hash(text string) string {
	sum := sha256.Sum256([]byte(Normalize(text)))
	return hex.EncodeToString(sum[:])
}
