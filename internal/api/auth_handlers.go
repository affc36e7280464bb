package api

import (
	"encoding/json"
	"net/http"

	"github.com/technosupport/ts-sizer/internal/tokens"
)

// AuthHandler exchanges configured API keys for short-lived JWTs. There
// is no user database: integrator portals get a key out of band.
type AuthHandler struct {
	Tokens *tokens.Manager
	Keys   map[string]APIKey
}

// APIKey identifies one configured caller.
type APIKey struct {
	UserID string `yaml:"user_id"`
	Role   string `yaml:"role"`
}

func NewAuthHandler(mgr *tokens.Manager, keys map[string]APIKey) *AuthHandler {
	return &AuthHandler{Tokens: mgr, Keys: keys}
}

type tokenRequest struct {
	APIKey string `json:"api_key"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresIn    int    `json:"expires_in"` // Seconds
}

// POST /api/v1/auth/token
func (h *AuthHandler) IssueToken(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.genericError(w)
		return
	}

	key, ok := h.Keys[req.APIKey]
	if !ok {
		h.genericError(w)
		return
	}

	access, err := h.Tokens.GenerateAccessToken(key.UserID, key.Role)
	if err != nil {
		h.genericError(w)
		return
	}
	refresh, err := h.Tokens.GenerateRefreshToken(key.UserID, key.Role)
	if err != nil {
		h.genericError(w)
		return
	}

	respondJSON(w, http.StatusOK, tokenResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    900, // 15 min
	})
}

// POST /api/v1/auth/refresh
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.genericError(w)
		return
	}

	claims, err := h.Tokens.ValidateToken(req.RefreshToken)
	if err != nil || claims.TokenType != tokens.Refresh {
		h.genericError(w)
		return
	}

	access, err := h.Tokens.GenerateAccessToken(claims.UserID, claims.Role)
	if err != nil {
		h.genericError(w)
		return
	}

	respondJSON(w, http.StatusOK, tokenResponse{
		AccessToken: access,
		ExpiresIn:   900,
	})
}

func (h *AuthHandler) genericError(w http.ResponseWriter) {
	respondError(w, http.StatusUnauthorized, "Invalid credential or request")
}
