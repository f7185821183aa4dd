package util

import (
	"crypto/sha256"
	"encoding/hex"
)

// Fingerprint returns a stable hex identifier for s, used to correlate prompts
// and queries in logs without writing their content.
func Fingerprint(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
