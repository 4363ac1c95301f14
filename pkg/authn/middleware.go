package authn

import (
	"context"
	"net/http"
	"strings"
)

type contextKey string

const identityContextKey contextKey = "authn.identity"

// Identity is the authenticated caller resolved from a request, mirroring
// wisbric-nightowl's auth.Identity shape.
type Identity struct {
	Subject    string
	InstanceID string
	UserID     string
	Scope      string
}

// NewContext returns a copy of ctx carrying id.
func NewContext(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, id)
}

// FromContext returns the Identity stored by BearerMiddleware, or nil.
func FromContext(ctx context.Context) *Identity {
	id, _ := ctx.Value(identityContextKey).(*Identity)
	return id
}

// BearerMiddleware authenticates requests via `Authorization: Bearer
// <access-token>`, validating the token through issuer and storing the
// resulting Identity in the request context. Requests without a valid
// bearer token are rejected with 401, the same precedence wisbric's
// auth.Middleware gives Bearer tokens over its other schemes (this
// surface has no API-key or dev-header fallback — those are
// out-of-scope non-goals here).
func BearerMiddleware(issuer *Issuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") && !strings.HasPrefix(header, "bearer ") {
				respondJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing bearer token"})
				return
			}
			raw := strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(header, "Bearer "), "bearer "))

			claims, err := issuer.ValidateToken(raw)
			if err != nil {
				respondJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid token"})
				return
			}

			id := &Identity{
				Subject:    claims.Subject,
				InstanceID: claims.TenantID,
				Scope:      claims.Scope,
			}
			next.ServeHTTP(w, r.WithContext(NewContext(r.Context(), id)))
		})
	}
}
