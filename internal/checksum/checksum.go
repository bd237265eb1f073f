// Package checksum fingerprints song files. The same value is the HTTP
// entity tag of a song and the guard for optimistic updates.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Sum returns the hex SHA-256 of a stored song file.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// ETag quotes a checksum for the ETag header.
func ETag(sum string) string {
	return `"` + sum + `"`
}

// FromETag takes the checksum back out of an If-Match value. Weak tags and
// bare checksums are accepted; "*" matches anything and yields "".
func FromETag(v string) string {
	v = strings.TrimSpace(v)
	if v == "*" {
		return ""
	}
	v = strings.TrimPrefix(v, "W/")
	return strings.Trim(v, `"`)
}
