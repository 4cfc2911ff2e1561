// Package checksum computes content digests used as document versions.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// SumString is Sum for text.
func SumString(text string) string {
	return Sum([]byte(text))
}

// ETag renders a digest as a strong entity tag.
func ETag(sum string) string {
	return `"` + sum + `"`
}

// FromETag strips quotes and a weak prefix from an If-Match value.
// "*" and the empty string yield "".
func FromETag(tag string) string {
	tag = strings.TrimSpace(tag)
	tag = strings.TrimPrefix(tag, "W/")
	tag = strings.Trim(tag, `"`)
	if tag == "*" {
		return ""
	}
	return tag
}
