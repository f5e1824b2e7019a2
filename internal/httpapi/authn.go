package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"ancestra.org/internal/auth"
)

const (
	authHeader = "Authorization"
	bearer     = "Bearer "
)

// Routes reachable without an access token. The refresh endpoint does its
// own bearer handling because it accepts refresh tokens, not access tokens.
var publicPaths = []string{
	"/api/token",
	"/api/token/refresh",
	"/api/info",
	"/metrics",
	"/healthz",
	"/readyz",
	"/",
}

// withAuth gates every non-public route behind a valid, unexpired access
// token. Failure precedence follows the error taxonomy: missing credential,
// then token validity, then token kind.
func (a *API) withAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions || isPublicPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		token, err := extractBearerToken(r.Header.Get(authHeader))
		if err != nil {
			unauthorized(w, r, err.Error())
			return
		}

		claims, err := a.auth.AuthenticateAccess(token)
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrExpiredToken):
				unauthorized(w, r, "token expired")
			case errors.Is(err, auth.ErrWrongTokenKind):
				// A refresh token where an access token belongs.
				writeError(w, r, http.StatusUnprocessableEntity, "access token required")
			case errors.Is(err, auth.ErrInvalidToken):
				unauthorized(w, r, "invalid token")
			default:
				writeError(w, r, http.StatusInternalServerError, "authentication error")
			}
			return
		}

		ctx := auth.ContextWithIdentity(r.Context(), claims.Subject, claims.Role)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func extractBearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", errors.New("missing bearer token")
	}
	if !strings.HasPrefix(strings.ToLower(header), strings.ToLower(bearer)) {
		return "", errors.New("invalid authorization scheme")
	}
	token := strings.TrimSpace(header[len(bearer):])
	if token == "" {
		return "", errors.New("missing bearer token")
	}
	return token, nil
}

func isPublicPath(path string) bool {
	for _, p := range publicPaths {
		if path == p {
			return true
		}
	}
	return false
}
