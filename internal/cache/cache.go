// Package cache keeps review results for unchanged inputs.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
)

// Cache stores values by key.
type Cache[V any] interface {
	// Get returns the cached value and whether it was found.
	Get(key string) (V, bool)

	// Set stores value under key.
	Set(key string, value V)

	// Clear removes all cached entries.
	Clear()
}

// Stats contains cache statistics.
type Stats struct {
	Hits    int64
	Misses  int64
	Entries int
}

// Key hashes a file path, its content and a salt into a hex SHA-256 key.
// The salt identifies everything else the result depends on, such as the
// rule set fingerprint and analyzer thresholds, so results computed under
// other rules are never served.
func Key(path string, content []byte, salt string) string {
	h := sha256.New()
	h.Write([]byte(path))
	h.Write([]byte{0})
	h.Write([]byte(salt))
	h.Write([]byte{0})
	h.Write(content)
	return hex.EncodeToString(h.Sum(nil))
}
