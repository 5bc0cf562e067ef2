package session

import (
	"net/http"
	"time"

	"github.com/pkg/errors"
)

// Carrier moves the session token between the client and the server.
// Implementations are bound to one request/response exchange.
type Carrier interface {
	// Store attaches token to the response. Either the whole cookie is set or nothing is.
	Store(token string) error
	// Retrieve returns the token presented by the client, if any.
	Retrieve() (string, bool)
	// Clear instructs the client to drop its token. Clearing twice is harmless.
	Clear()
}

// CookieConfig describes the session cookie.
type CookieConfig struct {
	Name   string
	TTL    time.Duration
	Secure bool
	Path   string
}

// Cookie builds the session cookie for token.
func (c CookieConfig) Cookie(token string) (*http.Cookie, error) {
	if token == "" {
		return nil, errors.New("session: empty token")
	}
	cookie := &http.Cookie{
		Name:     c.Name,
		Value:    token,
		Path:     c.path(),
		MaxAge:   int(c.TTL / time.Second),
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	if err := cookie.Valid(); err != nil {
		return nil, errors.Wrap(err, "session: invalid cookie")
	}
	return cookie, nil
}

// Expired builds the cookie that deletes the session cookie.
func (c CookieConfig) Expired() *http.Cookie {
	return &http.Cookie{
		Name:     c.Name,
		Value:    "",
		Path:     c.path(),
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func (c CookieConfig) path() string {
	if c.Path == "" {
		return "/"
	}
	return c.Path
}
