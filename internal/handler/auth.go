package handler

import (
	"net/http"

	"storefront-api/internal/service"
	"storefront-api/pkg/response"
)

// AuthHandler exposes the shared access token to internal callers that
// need a bearer for upstream requests.
type AuthHandler struct {
	tokenService *service.TokenService
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(tokenService *service.TokenService) *AuthHandler {
	return &AuthHandler{
		tokenService: tokenService,
	}
}

// GetToken handles GET /api/v1/auth/token
func (h *AuthHandler) GetToken(w http.ResponseWriter, r *http.Request) {
	token, err := h.tokenService.GetAccessToken(r.Context())
	if err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, map[string]interface{}{
		"access_token": token.AccessToken,
		"token_type":   token.TokenType,
		"expires_at":   token.ExpiresAt,
	})
}
