package echoapi

import (
	"github.com/labstack/echo/v4"

	"github.com/shuleapp/shule/core/session"
)

// cookieCarrier keeps the session token in the request/response cookies of one exchange.
type cookieCarrier struct {
	ctx     echo.Context
	conf    session.CookieConfig
	cleared bool
}

var _ session.Carrier = (*cookieCarrier)(nil)

func newCarrier(ctx echo.Context, conf session.CookieConfig) *cookieCarrier {
	return &cookieCarrier{ctx: ctx, conf: conf}
}

func (c *cookieCarrier) Store(token string) error {
	cookie, err := c.conf.Cookie(token)
	if err != nil {
		return err
	}
	c.ctx.SetCookie(cookie)
	c.cleared = false
	return nil
}

func (c *cookieCarrier) Retrieve() (string, bool) {
	if c.cleared {
		return "", false
	}
	cookie, err := c.ctx.Cookie(c.conf.Name)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	return cookie.Value, true
}

func (c *cookieCarrier) Clear() {
	if c.cleared {
		return
	}
	c.ctx.SetCookie(c.conf.Expired())
	c.cleared = true
}
