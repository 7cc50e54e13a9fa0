package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gdg-garage/outing-registration-api/internal/config"
)

// handlerAt returns an AuthHandler whose clock is fixed at now.
func handlerAt(now time.Time) *AuthHandler {
	h := NewAuthHandler(&config.Config{JWTSecret: "test-secret", AdminPasscode: "admin"})
	h.now = func() time.Time { return now }
	return h
}

func serve(h *AuthHandler, token string) (*httptest.ResponseRecorder, *Claims) {
	var seen *Claims
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = ClaimsFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if token != "" {
		req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: token})
	}
	rr := httptest.NewRecorder()
	h.SessionMiddleware(next).ServeHTTP(rr, req)
	return rr, seen
}

func sessionCookie(rr *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rr.Result().Cookies() {
		if c.Name == SessionCookieName {
			return c
		}
	}
	return nil
}

func TestSessionMiddleware_SlidingSession(t *testing.T) {
	issued := time.Now()

	t.Run("TokenRenewed", func(t *testing.T) {
		// Issued 13 hours ago, so 11 hours remain (less than TokenDuration/2).
		token, err := handlerAt(issued.Add(-13*time.Hour)).GenerateToken("user-1", false)
		require.NoError(t, err)

		rr, claims := serve(handlerAt(issued), token)

		assert.Equal(t, http.StatusOK, rr.Code)
		require.NotNil(t, claims)
		assert.Equal(t, "user-1", claims.RegistrationID)
		c := sessionCookie(rr)
		require.NotNil(t, c, "expected a refreshed session cookie")
		assert.NotEqual(t, token, c.Value)
	})

	t.Run("TokenNotRenewed", func(t *testing.T) {
		// Issued 11 hours ago, so 13 hours remain.
		token, err := handlerAt(issued.Add(-11*time.Hour)).GenerateToken("user-1", true)
		require.NoError(t, err)

		rr, claims := serve(handlerAt(issued), token)

		assert.Equal(t, http.StatusOK, rr.Code)
		require.NotNil(t, claims)
		assert.True(t, claims.Admin)
		assert.Nil(t, sessionCookie(rr))
	})
}

func TestSessionMiddleware_AnonymousPassesThrough(t *testing.T) {
	h := handlerAt(time.Now())

	rr, claims := serve(h, "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Nil(t, claims)

	rr, claims = serve(h, "not-a-jwt")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Nil(t, claims)

	expired, err := handlerAt(time.Now().Add(-48*time.Hour)).GenerateToken("user-1", true)
	require.NoError(t, err)
	_, claims = serve(h, expired)
	assert.Nil(t, claims)
}

func TestAuthorize(t *testing.T) {
	h := handlerAt(time.Now())
	token, err := h.GenerateToken("user-7", false)
	require.NoError(t, err)

	fromHeader := h.Authorize(context.Background(), SessionCookieName+"="+token)
	assert.Equal(t, "user-7", fromHeader.RegistrationID)

	ctx := WithClaims(context.Background(), &Claims{RegistrationID: "user-ctx"})
	assert.Equal(t, "user-ctx", h.Authorize(ctx, SessionCookieName+"="+token).RegistrationID)

	anonymous := h.Authorize(context.Background(), "")
	assert.Empty(t, anonymous.RegistrationID)
	assert.False(t, anonymous.Admin)
}

func TestRequireAdmin(t *testing.T) {
	h := handlerAt(time.Now())

	assert.Error(t, RequireAdmin(nil))
	assert.Error(t, RequireAdmin(h.Authorize(context.Background(), "")))
	assert.Error(t, RequireAdmin(&Claims{RegistrationID: "x"}))
	assert.NoError(t, RequireAdmin(&Claims{Admin: true}))
}
