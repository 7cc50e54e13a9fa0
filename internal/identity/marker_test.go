package identity

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCookieMarker_LoadsFromHeader(t *testing.T) {
	m := NewCookieMarker("session_token=abc; last_emp_id=" + EncodeValue("E42"))

	assert.Equal(t, "E42", m.Load())
	assert.Nil(t, m.Cookie(), "loading must not emit a cookie")
}

func TestCookieMarker_StoreEmitsPersistentCookie(t *testing.T) {
	m := NewCookieMarker("")
	assert.Empty(t, m.Load())

	m.Store("E7")

	assert.Equal(t, "E7", m.Load())
	c := m.Cookie()
	require.NotNil(t, c)
	assert.Equal(t, CookieName, c.Name)
	assert.Equal(t, EncodeValue("E7"), c.Value)
	assert.Equal(t, "/", c.Path)
	assert.Positive(t, c.MaxAge)
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
}

func TestCookieMarker_RoundTripsAnyKey(t *testing.T) {
	for _, key := range []string{"员工7", "E1; last_emp_id=E2", "a b,c\"d", "Zoë=1"} {
		t.Run(key, func(t *testing.T) {
			stored := NewCookieMarker("")
			stored.Store(key)
			c := stored.Cookie()
			require.NotNil(t, c)

			// Serialising must not drop bytes.
			assert.Equal(t, CookieName+"="+c.Value, (&http.Cookie{Name: c.Name, Value: c.Value}).String())

			reloaded := NewCookieMarker("session_token=abc; " + c.Name + "=" + c.Value)
			assert.Equal(t, key, reloaded.Load())
		})
	}
}

func TestCookieMarker_UndecodableValueIsNoMarker(t *testing.T) {
	assert.Empty(t, NewCookieMarker("last_emp_id=!!!").Load())
	assert.Empty(t, NewCookieMarker("last_emp_id=").Load())
	// Valid base64 that is not UTF-8.
	assert.Empty(t, NewCookieMarker("last_emp_id=_w").Load())
}

func TestReadCookie(t *testing.T) {
	assert.Equal(t, "v", ReadCookie("a=1; name=v", "name"))
	assert.Empty(t, ReadCookie("a=1", "name"))
	assert.Empty(t, ReadCookie("", "name"))
	assert.Equal(t, "v", ReadCookie("noequals; name=v", "name"))
}

func TestMemoryMarker(t *testing.T) {
	m := NewMemoryMarker("E1")
	assert.Equal(t, "E1", m.Load())

	m.Store("E2")
	assert.Equal(t, "E2", m.Load())
}
