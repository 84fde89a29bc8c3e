package auth

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

// sessionCookie reads and writes the session token cookie.
type sessionCookie struct {
	name string
}

// token returns the session token from the cookie, falling back to an
// "Authorization: Bearer" header for non-browser clients.
func (s sessionCookie) token(c echo.Context) (token string, fromCookie bool) {
	if cookie, err := c.Cookie(s.name); err == nil && cookie.Value != "" {
		return cookie.Value, true
	}
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if rest, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(rest), false
	}
	return "", false
}

// set writes the session cookie. The cookie is HttpOnly (JS can't read it),
// Secure if behind TLS, and SameSite=Lax. It lives as long as the token.
func (s sessionCookie) set(c echo.Context, token string, ttl time.Duration) {
	req := c.Request()
	c.SetCookie(&http.Cookie{
		Name:     s.name,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   req.TLS != nil || req.Header.Get("X-Forwarded-Proto") == "https",
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(ttl.Seconds()),
	})
}

// clear removes the session cookie by setting MaxAge to -1.
func (s sessionCookie) clear(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     s.name,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}
