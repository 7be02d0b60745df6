package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"taskhub.org/internal/auth"
)

const (
	authHeader = "Authorization"
	bearer     = "Bearer "
)

var publicPaths = []string{
	"/v1/auth/register",
	"/v1/auth/login",
	"/healthz",
	"/readyz",
	"/v1/info",
	"/metrics",
	"/",
}

// withAuth verifies the bearer token and resolves the identity from storage
// before any protected handler runs. The resolved record, not the token's
// embedded role claim, is what downstream gates consult.
func (a *API) withAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}
		if isPublicPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		token, err := extractBearerToken(r.Header.Get(authHeader))
		if err != nil {
			unauthorized(w, r, err.Error())
			return
		}

		ident, err := a.auth.Authenticate(r.Context(), token)
		if err != nil {
			handleAuthError(w, r, err)
			return
		}

		ctx := auth.ContextWithIdentity(r.Context(), ident)
		ctx = auth.ContextWithToken(ctx, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// identity returns the resolved identity or writes a 401 and reports false.
func (a *API) identity(w http.ResponseWriter, r *http.Request) (*auth.User, bool) {
	ident, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		unauthorized(w, r, "authentication required")
		return nil, false
	}
	return ident, true
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
