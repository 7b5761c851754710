package model

import "time"

// AccessToken is the shared OAuth2 credential managed by the token
// service. ExpiresAt is computed locally at refresh time from the
// issuer-reported ExpiresIn.
type AccessToken struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresIn   int64     `json:"expires_in"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// ValidFor reports whether the token is still usable at the given
// instant, keeping the safety buffer clear of the real expiry.
func (t *AccessToken) ValidFor(now time.Time, buffer time.Duration) bool {
	return t.AccessToken != "" && now.Before(t.ExpiresAt.Add(-buffer))
}
