package cursor

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// separator joins the two cursor components before base64 encoding.
// Product IDs are UUIDs and never contain '|'; sort values may (product
// names are free text), so Decode splits at the last separator.
const separator = "|"

// Encode builds an opaque pagination cursor from the sort-column value
// of the last row on a page and that row's ID (the tie-breaker).
func Encode(sortValue, id string) string {
	raw := sortValue + separator + id
	return base64.URLEncoding.EncodeToString([]byte(raw))
}

// Decode reverses Encode. It validates structure only: the cursor must
// decode as base64 and split into two non-empty components. Type
// validation of the sort value is the caller's job since the expected
// type depends on the sort column in effect.
func Decode(token string) (sortValue, id string, err error) {
	raw, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return "", "", fmt.Errorf("invalid cursor encoding: %w", err)
	}

	payload := string(raw)
	i := strings.LastIndex(payload, separator)
	if i <= 0 || i == len(payload)-1 {
		return "", "", fmt.Errorf("malformed cursor")
	}

	return payload[:i], payload[i+1:], nil
}
