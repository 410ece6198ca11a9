// Package ids implements the compact base-62 encoding used for all
// display-facing entity identifiers. Entities are identified internally by
// their creation timestamp in seconds; users only ever see the encoded form.
package ids

import "strings"

const charset = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// Encode converts a non-negative integer to its base-62 representation,
// most-significant digit first. Zero encodes to "0".
func Encode(n int64) string {
	if n == 0 {
		return "0"
	}
	var b []byte
	for n > 0 {
		b = append([]byte{charset[n%62]}, b...)
		n /= 62
	}
	return string(b)
}

// Decode reverses Encode. It reports false when id is empty or contains a
// character outside the base-62 charset.
func Decode(id string) (int64, bool) {
	if id == "" {
		return 0, false
	}
	var n int64
	for i := 0; i < len(id); i++ {
		idx := strings.IndexByte(charset, id[i])
		if idx < 0 {
			return 0, false
		}
		n = n*62 + int64(idx)
	}
	return n, true
}
