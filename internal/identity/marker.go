// Package identity keeps the local identity marker: the last business key a
// browser submitted, used to recognise a returning visitor without a login.
package identity

import (
	"encoding/base64"
	"net/http"
	"strings"
	"sync"
	"time"
	"unicode/utf8"
)

// CookieName is the marker's fixed key.
const CookieName = "last_emp_id"

// cookieMaxAge is the longest lifetime browsers honour.
const cookieMaxAge = 400 * 24 * time.Hour

// Marker persists one string across reloads. Store is called after every
// successful submit, Load on every startup.
type Marker interface {
	Load() string
	Store(employeeID string)
}

// MemoryMarker keeps the value in process memory.
type MemoryMarker struct {
	mu    sync.Mutex
	value string
}

func NewMemoryMarker(initial string) *MemoryMarker {
	return &MemoryMarker{value: initial}
}

func (m *MemoryMarker) Load() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.value
}

func (m *MemoryMarker) Store(employeeID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.value = employeeID
}

// CookieMarker reads the marker from a request's Cookie header and records a
// pending Set-Cookie when it changes.
type CookieMarker struct {
	value   string
	pending *http.Cookie
}

// NewCookieMarker parses the raw Cookie header of a request. A value that does
// not decode counts as no marker.
func NewCookieMarker(cookieHeader string) *CookieMarker {
	value, _ := DecodeValue(ReadCookie(cookieHeader, CookieName))
	return &CookieMarker{value: value}
}

func (m *CookieMarker) Load() string {
	return m.value
}

func (m *CookieMarker) Store(employeeID string) {
	m.value = employeeID
	m.pending = &http.Cookie{
		Name:     CookieName,
		Value:    EncodeValue(employeeID),
		Path:     "/",
		MaxAge:   int(cookieMaxAge.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

// Cookie returns the cookie to send back, or nil when Store was not called.
func (m *CookieMarker) Cookie() *http.Cookie {
	return m.pending
}

// ReadCookie returns the named cookie's value from a raw Cookie header.
func ReadCookie(header, name string) string {
	header = strings.TrimSpace(header)
	if header == "" {
		return ""
	}
	cookies, err := http.ParseCookie(header)
	if err != nil {
		// A malformed pair elsewhere in the header should not hide ours.
		for _, part := range strings.Split(header, ";") {
			k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
			if ok && k == name {
				return v
			}
		}
		return ""
	}
	for _, c := range cookies {
		if c.Name == name {
			return c.Value
		}
	}
	return ""
}

// EncodeValue makes an arbitrary business key safe for a cookie value. Raw
// values lose every byte outside the cookie charset, non-ASCII text included.
func EncodeValue(employeeID string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(employeeID))
}

// DecodeValue reverses EncodeValue.
func DecodeValue(value string) (string, bool) {
	if value == "" {
		return "", false
	}
	raw, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil || !utf8.Valid(raw) {
		return "", false
	}
	return string(raw), true
}
