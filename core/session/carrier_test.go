package session

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCookieConfig(t *testing.T) {
	conf := CookieConfig{Name: "auth-token", TTL: 7 * 24 * time.Hour, Secure: true}

	cookie, err := conf.Cookie("a.b.c")
	require.NoError(t, err)
	assert.Equal(t, "auth-token", cookie.Name)
	assert.Equal(t, "a.b.c", cookie.Value)
	assert.Equal(t, "/", cookie.Path)
	assert.Equal(t, 604800, cookie.MaxAge)
	assert.True(t, cookie.HttpOnly)
	assert.True(t, cookie.Secure)
	assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)

	_, err = conf.Cookie("")
	assert.Error(t, err)
	_, err = conf.Cookie("bad;value")
	assert.Error(t, err)

	expired := conf.Expired()
	assert.Equal(t, "auth-token", expired.Name)
	assert.Empty(t, expired.Value)
	assert.Less(t, expired.MaxAge, 0)
	assert.Contains(t, expired.String(), "Max-Age=0")
}
