// Package codec holds the pure helpers shared by the classifier and the
// provider handlers: quantity sanitization and the metadata token encoding.
package codec

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
)

// MaxQuantity is the largest quantity a single submission may carry.
const MaxQuantity = 99

// SanitizeQuantity turns a raw user-entered quantity into a valid integer.
// It is total: parse failures and values below 1 become 1, values above
// MaxQuantity are clamped. Parsing takes the longest leading integer prefix
// ("3abc" → 3, "99.9" → 99), matching how the page's number field behaves.
func SanitizeQuantity(raw string) int {
	s := strings.TrimSpace(raw)

	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	start := i
	n := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		n = n*10 + int(s[i]-'0')
		i++
		if n > MaxQuantity {
			// Already past the clamp; no need to consume more digits.
			break
		}
	}
	if i == start || s[0] == '-' {
		return 1
	}
	if n < 1 {
		return 1
	}
	if n > MaxQuantity {
		return MaxQuantity
	}
	return n
}

// ClampQuantity applies the same [1,MaxQuantity] rule to an already-parsed
// quantity. The proxy uses it to re-sanitize values arriving over the wire.
func ClampQuantity(n int) int {
	if n < 1 {
		return 1
	}
	if n > MaxQuantity {
		return MaxQuantity
	}
	return n
}

// EncodeMetadata encodes arbitrary product metadata into a URL-safe token.
// Absent metadata yields the empty string, which is a valid token meaning
// "no metadata". Strings are encoded as UTF-8; anything else is serialized
// to compact JSON first. The encoding is base64url without padding.
//
// A non-nil error is terminal: the metadata cannot be represented and the
// submission must not proceed with a partial token.
func EncodeMetadata(meta any) (string, error) {
	var payload []byte

	switch v := meta.(type) {
	case nil:
		return "", nil
	case string:
		if v == "" {
			return "", nil
		}
		payload = []byte(v)
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return "", fmt.Errorf("serializing metadata: %w", err)
		}
		payload = data
	}

	return base64.RawURLEncoding.EncodeToString(payload), nil
}

// DecodeMetadata reverses EncodeMetadata, accepting tokens with or without
// padding. The empty token decodes to nil.
func DecodeMetadata(token string) ([]byte, error) {
	if token == "" {
		return nil, nil
	}
	data, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(token, "="))
	if err != nil {
		return nil, fmt.Errorf("decoding metadata token: %w", err)
	}
	return data, nil
}
