package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/gdg-garage/outing-registration-api/internal/config"
	"github.com/gdg-garage/outing-registration-api/internal/identity"
)

const (
	SessionCookieName = "session_token"
	TokenDuration     = 24 * time.Hour
)

var (
	ErrNoSession    = errors.New("no session")
	ErrInvalidToken = errors.New("invalid session token")
)

// Claims identify a browser session: the registration it created, if any, and
// whether it passed the admin gate.
type Claims struct {
	RegistrationID string `json:"rid,omitempty"`
	Admin          bool   `json:"admin,omitempty"`
	jwt.RegisteredClaims
}

type AuthHandler struct {
	secret   []byte
	passcode string
	now      func() time.Time
}

func NewAuthHandler(cfg *config.Config) *AuthHandler {
	return &AuthHandler{
		secret:   []byte(cfg.JWTSecret),
		passcode: cfg.AdminPasscode,
		now:      time.Now,
	}
}

// AuthInput carries the raw Cookie header into huma handlers.
type AuthInput struct {
	Cookie string `header:"Cookie"`
}

func (h *AuthHandler) GenerateToken(registrationID string, admin bool) (string, error) {
	now := h.now()
	claims := Claims{
		RegistrationID: registrationID,
		Admin:          admin,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenDuration)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(h.secret)
}

func (h *AuthHandler) ParseToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return h.secret, nil
	}, jwt.WithTimeFunc(h.now))
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return claims, nil
}

// FromCookieHeader reads and verifies the session cookie from a raw Cookie header.
func (h *AuthHandler) FromCookieHeader(header string) (*Claims, error) {
	raw := identity.ReadCookie(header, SessionCookieName)
	if raw == "" {
		return nil, ErrNoSession
	}
	return h.ParseToken(raw)
}

// SessionCookie signs a fresh token and wraps it in the session cookie.
func (h *AuthHandler) SessionCookie(registrationID string, admin bool) (http.Cookie, error) {
	token, err := h.GenerateToken(registrationID, admin)
	if err != nil {
		return http.Cookie{}, err
	}
	return http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  h.now().Add(TokenDuration),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}, nil
}

// CheckPasscode compares against the configured admin passcode in constant time.
func (h *AuthHandler) CheckPasscode(passcode string) bool {
	if h.passcode == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(passcode), []byte(h.passcode)) == 1
}
