// Package checksum fingerprints cached asset blobs.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Sum returns the hex-encoded SHA-256 digest of content.
func Sum(content string) string {
	h := sha256.Sum256([]byte(content))
	return hex.EncodeToString(h[:])
}

// Verify reports an error when content no longer hashes to want.
func Verify(content, want string) error {
	if got := Sum(content); got != want {
		return fmt.Errorf("checksum: mismatch: got %s, want %s", got[:12], short(want))
	}
	return nil
}

func short(s string) string {
	if len(s) > 12 {
		return s[:12]
	}
	return s
}
