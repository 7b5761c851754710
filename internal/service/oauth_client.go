package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"storefront-api/internal/model"
	"storefront-api/pkg/apierror"
)

// TokenIssuer exchanges service credentials for an access token.
type TokenIssuer interface {
	FetchToken(ctx context.Context) (*model.AccessToken, error)
}

// OAuthClient is the HTTP implementation of TokenIssuer, speaking the
// client_credentials grant to the issuer's token endpoint.
type OAuthClient struct {
	tokenURL     string
	clientID     string
	clientSecret string
	httpClient   *http.Client
}

// NewOAuthClient creates an issuer client. httpClient may be nil, in
// which case a client with a 10s timeout is used.
func NewOAuthClient(tokenURL, clientID, clientSecret string, httpClient *http.Client) *OAuthClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &OAuthClient{
		tokenURL:     tokenURL,
		clientID:     clientID,
		clientSecret: clientSecret,
		httpClient:   httpClient,
	}
}

// FetchToken performs the credential exchange. 4xx responses surface as
// authorization failures (non-retriable); other failures are transport
// errors the retry layer may attempt again.
func (c *OAuthClient) FetchToken(ctx context.Context) (*model.AccessToken, error) {
	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", c.clientID)
	form.Set("client_secret", c.clientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		return nil, apierror.Unauthorized(fmt.Sprintf("token endpoint rejected credentials (status %d)", resp.StatusCode))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("token endpoint returned status %d", resp.StatusCode)
	}

	var token model.AccessToken
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return nil, fmt.Errorf("failed to decode token response: %w", err)
	}
	if token.AccessToken == "" || token.ExpiresIn <= 0 {
		return nil, fmt.Errorf("token endpoint returned an incomplete token")
	}

	return &token, nil
}

// Ensure OAuthClient implements TokenIssuer
var _ TokenIssuer = (*OAuthClient)(nil)
