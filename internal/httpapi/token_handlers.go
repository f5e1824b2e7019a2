package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"ancestra.org/internal/audit"
	"ancestra.org/internal/auth"
)

type tokenRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenPairResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type accessTokenResponse struct {
	AccessToken string `json:"access_token"`
}

// handleToken is the login endpoint: credentials in, access/refresh pair out.
// A missing field is a malformed request (422) and is rejected before the
// credential store is consulted; bad credentials are 403.
func (a *API) handleToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	var req tokenRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		writeError(w, r, http.StatusUnprocessableEntity, "username and password are required")
		return
	}

	pair, err := a.auth.IssueTokenPair(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			writeError(w, r, http.StatusForbidden, "invalid credentials")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "token issuance failed")
		return
	}

	_ = audit.LogEvent(r.Context(), "auth.token.issued", map[string]any{
		"user":       strings.TrimSpace(req.Username),
		"expires_at": pair.AccessExpiresAt,
	})

	writeJSON(w, http.StatusOK, tokenPairResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

// handleTokenRefresh exchanges a refresh token for exactly one new access
// token. The response never carries a refresh_token key: the presented one
// stays in use until it expires.
func (a *API) handleTokenRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	token, err := extractBearerToken(r.Header.Get(authHeader))
	if err != nil {
		unauthorized(w, r, err.Error())
		return
	}

	grant, err := a.auth.Refresh(r.Context(), token)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrWrongTokenKind):
			writeError(w, r, http.StatusUnprocessableEntity, "refresh token required")
		case errors.Is(err, auth.ErrExpiredToken):
			unauthorized(w, r, "token expired")
		case errors.Is(err, auth.ErrInvalidToken):
			unauthorized(w, r, "invalid token")
		default:
			writeError(w, r, http.StatusInternalServerError, "token refresh failed")
		}
		return
	}

	_ = audit.LogEvent(r.Context(), "auth.token.refreshed", map[string]any{
		"user":       grant.Subject,
		"expires_at": grant.ExpiresAt,
	})

	writeJSON(w, http.StatusOK, accessTokenResponse{AccessToken: grant.Token})
}
