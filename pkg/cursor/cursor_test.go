package cursor

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	tests := []struct {
		name      string
		sortValue string
		id        string
	}{
		{"timestamp sort value", time.Now().UTC().Format(time.RFC3339Nano), "550e8400-e29b-41d4-a716-446655440000"},
		{"price sort value", "12999", "a1b2c3"},
		{"name sort value", "Wireless Keyboard", "prod-42"},
		{"sort value containing separator-ish runes", "a:b/c+d", "id-1"},
		{"name containing the separator", "Cable 2m | USB-C", "prod-42"},
		{"name containing repeated separators", "a|b|c", "550e8400-e29b-41d4-a716-446655440000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token := Encode(tt.sortValue, tt.id)

			sortValue, id, err := Decode(token)
			require.NoError(t, err)
			assert.Equal(t, tt.sortValue, sortValue)
			assert.Equal(t, tt.id, id)
		})
	}
}

func TestEncodeProducesOpaqueToken(t *testing.T) {
	token := Encode("2024-01-01T00:00:00Z", "abc")
	assert.NotContains(t, token, "abc")
	assert.NotContains(t, token, "2024")
}

func TestDecodeRejectsMalformedTokens(t *testing.T) {
	tests := []struct {
		name  string
		token string
	}{
		{"not base64", "%%%not-base64%%%"},
		{"single component", base64.URLEncoding.EncodeToString([]byte("no-separator"))},
		{"empty sort value", base64.URLEncoding.EncodeToString([]byte("|some-id"))},
		{"empty id", base64.URLEncoding.EncodeToString([]byte("some-value|"))},
		{"empty payload", base64.URLEncoding.EncodeToString([]byte(""))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Decode(tt.token)
			assert.Error(t, err)
		})
	}
}
