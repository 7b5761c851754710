package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-api/pkg/apierror"
)

func TestOAuthClientFetchToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.FormValue("grant_type"))
		assert.Equal(t, "client-1", r.FormValue("client_id"))
		assert.Equal(t, "secret-1", r.FormValue("client_secret"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"tok-xyz","token_type":"Bearer","expires_in":3600}`))
	}))
	defer srv.Close()

	client := NewOAuthClient(srv.URL, "client-1", "secret-1", srv.Client())

	token, err := client.FetchToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-xyz", token.AccessToken)
	assert.Equal(t, "Bearer", token.TokenType)
	assert.Equal(t, int64(3600), token.ExpiresIn)
}

func TestOAuthClientRejectedCredentials(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := NewOAuthClient(srv.URL, "bad", "creds", srv.Client())

	_, err := client.FetchToken(context.Background())
	require.Error(t, err)
	// 4xx means the credentials are wrong: retrying cannot help.
	assert.True(t, apierror.IsClientError(err))
}

func TestOAuthClientServerErrorIsRetriable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewOAuthClient(srv.URL, "client-1", "secret-1", srv.Client())

	_, err := client.FetchToken(context.Background())
	require.Error(t, err)
	assert.False(t, apierror.IsClientError(err))
}

func TestOAuthClientIncompleteToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"token_type":"Bearer"}`))
	}))
	defer srv.Close()

	client := NewOAuthClient(srv.URL, "client-1", "secret-1", srv.Client())

	_, err := client.FetchToken(context.Background())
	assert.Error(t, err)
}
