package session

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetAndReadCookie(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	SetCookie(rec, req, "abc123")

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	c := cookies[0]
	assert.Equal(t, CookieName, c.Name)
	assert.Equal(t, "abc123", c.Value)
	assert.True(t, c.HttpOnly)
	assert.Equal(t, "/", c.Path)
	assert.False(t, c.Secure, "plain HTTP request must not set Secure")

	// Round-trip through a request.
	req2 := httptest.NewRequest(http.MethodGet, "/", nil)
	req2.AddCookie(c)
	assert.Equal(t, "abc123", IDFromRequest(req2))
}

func TestClearCookie(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	ClearCookie(rec, req)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, CookieName, cookies[0].Name)
	assert.Less(t, cookies[0].MaxAge, 0)
}

func TestIDFromRequestMissing(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, IDFromRequest(req))
}
