package auth

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

type contextKey string

const ClaimsKey contextKey = "session_claims"

func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, ClaimsKey, claims)
}

func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(ClaimsKey).(*Claims)
	return claims, ok && claims != nil
}

// SessionMiddleware attaches the session claims to the request context when a
// valid session cookie is present. Requests without one pass through
// anonymously.
func (h *AuthHandler) SessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(SessionCookieName)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		claims, err := h.ParseToken(cookie.Value)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		// Sliding session: refresh token if it's more than halfway through its duration
		if claims.ExpiresAt != nil {
			remaining := claims.ExpiresAt.Time.Sub(h.now())
			if remaining < TokenDuration/2 {
				if refreshed, err := h.SessionCookie(claims.RegistrationID, claims.Admin); err == nil {
					http.SetCookie(w, &refreshed)
				}
			}
		}

		next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
	})
}

// Authorize returns the request's session: the claims attached by
// SessionMiddleware, else the ones in the raw Cookie header. Anonymous
// requests get empty claims.
func (h *AuthHandler) Authorize(ctx context.Context, cookieHeader string) *Claims {
	if claims, ok := ClaimsFromContext(ctx); ok {
		return claims
	}
	if claims, err := h.FromCookieHeader(cookieHeader); err == nil {
		return claims
	}
	return &Claims{}
}

// RequireAdmin fails unless the session passed the admin gate.
func RequireAdmin(claims *Claims) error {
	if claims == nil || !claims.Admin {
		return huma.Error401Unauthorized("Unauthorized: admin passcode required")
	}
	return nil
}
