package echoapi

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shuleapp/shule/core/session"
)

func TestCookieCarrier(t *testing.T) {
	conf := session.CookieConfig{Name: "auth-token", TTL: time.Hour, Secure: true}
	e := echo.New()

	t.Run("retrieve", func(t *testing.T) {
		tests := []struct {
			name   string
			cookie *http.Cookie
			want   string
			wantOk bool
		}{
			{name: "absent"},
			{name: "empty", cookie: &http.Cookie{Name: "auth-token"}},
			{name: "other cookie", cookie: &http.Cookie{Name: "theme", Value: "dark"}},
			{name: "present", cookie: &http.Cookie{Name: "auth-token", Value: "abc"}, want: "abc", wantOk: true},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				req := httptest.NewRequest(http.MethodGet, "/", nil)
				if tt.cookie != nil {
					req.AddCookie(tt.cookie)
				}
				c := newCarrier(e.NewContext(req, httptest.NewRecorder()), conf)
				got, ok := c.Retrieve()
				assert.Equal(t, tt.want, got)
				assert.Equal(t, tt.wantOk, ok)
			})
		}
	})

	t.Run("store and clear", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: "auth-token", Value: "old"})
		rec := httptest.NewRecorder()
		c := newCarrier(e.NewContext(req, rec), conf)

		assert.Error(t, c.Store(""))
		assert.Empty(t, rec.Header().Values("Set-Cookie"))

		require.NoError(t, c.Store("new"))
		c.Clear()
		c.Clear()
		_, ok := c.Retrieve()
		assert.False(t, ok)

		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 2)
		assert.Equal(t, "new", cookies[0].Value)
		assert.True(t, cookies[0].Secure)
		assert.Equal(t, 3600, cookies[0].MaxAge)
		assert.Empty(t, cookies[1].Value)
		assert.Equal(t, -1, cookies[1].MaxAge)
	})
}
