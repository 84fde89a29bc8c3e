package auth

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

// Context keys for storing session data in Echo context. Other packages
// use the exported getters below to read the signed-in identity.
const (
	contextKeyIdentity = "auth_identity"
	contextKeyExpires  = "auth_expires"
)

// Landing pages of the guard.
const (
	LoginPath     = "/login"
	SignupPath    = "/signup"
	DashboardPath = "/dashboard"
)

// ReturnParam is the query parameter carrying the originally requested
// path and query to the login page.
const ReturnParam = "from"

// protectedPrefixes require a session, including every sub-path.
var protectedPrefixes = []string{DashboardPath, "/profile", "/settings"}

// authOnlyPaths are only for visitors without a session.
var authOnlyPaths = []string{LoginPath, SignupPath}

// Action is what the guard does with a request.
type Action int

const (
	// Pass lets the request through to its handler.
	Pass Action = iota
	// Redirect sends the visitor to Decision.Location.
	Redirect
)

// Decision is the outcome of Decide.
type Decision struct {
	Action   Action
	Location string
}

// Decide is the route guard policy. It is a pure function of the requested
// path, its raw query, and whether the request carries a valid session.
func Decide(path, rawQuery string, authenticated bool) Decision {
	switch {
	case isAuthOnlyPath(path):
		if authenticated {
			return Decision{Action: Redirect, Location: DashboardPath}
		}
		return Decision{Action: Pass}

	case isProtectedPath(path):
		if authenticated {
			return Decision{Action: Pass}
		}
		from := path
		if rawQuery != "" {
			from += "?" + rawQuery
		}
		return Decision{
			Action:   Redirect,
			Location: LoginPath + "?" + ReturnParam + "=" + escapeComponent(from),
		}
	}

	return Decision{Action: Pass}
}

// escapeComponent query-escapes s with spaces as %20 rather than "+", the
// form browsers produce for a URI component. Both decode to the same value.
func escapeComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// isProtectedPath matches /dashboard, /profile, /settings and their sub-paths.
func isProtectedPath(path string) bool {
	for _, prefix := range protectedPrefixes {
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return true
		}
	}
	return false
}

// isAuthOnlyPath matches /login and /signup, with or without a trailing slash.
func isAuthOnlyPath(path string) bool {
	trimmed := strings.TrimSuffix(path, "/")
	for _, p := range authOnlyPaths {
		if trimmed == p {
			return true
		}
	}
	return false
}

// Guard returns middleware that decodes the session token, stores the
// identity in the Echo context, and enforces Decide before any handler
// writes a response. Verification is local; the guard does no I/O.
func Guard(sessions *SessionIssuer, cookieName string) echo.MiddlewareFunc {
	cookie := sessionCookie{name: cookieName}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authenticated := false

			if token, fromCookie := cookie.token(c); token != "" {
				identity, expires, err := sessions.Parse(token)
				if err == nil {
					c.Set(contextKeyIdentity, identity)
					c.Set(contextKeyExpires, expires)
					authenticated = true
				} else if fromCookie {
					// Invalid or expired session -- clear the stale cookie.
					cookie.clear(c)
				}
			}

			req := c.Request()
			decision := Decide(req.URL.Path, req.URL.RawQuery, authenticated)
			if decision.Action == Redirect {
				slog.Debug("route guard redirect",
					slog.String("path", req.URL.Path),
					slog.String("location", decision.Location),
					slog.Bool("authenticated", authenticated),
				)
				return c.Redirect(http.StatusSeeOther, decision.Location)
			}

			return next(c)
		}
	}
}

// --- Exported getters ---

// GetIdentity returns the signed-in identity decoded by Guard, or nil.
func GetIdentity(c echo.Context) *Identity {
	identity, ok := c.Get(contextKeyIdentity).(*Identity)
	if !ok {
		return nil
	}
	return identity
}

// GetSessionExpiry returns when the current session token expires, or the
// zero time for anonymous requests.
func GetSessionExpiry(c echo.Context) time.Time {
	expires, _ := c.Get(contextKeyExpires).(time.Time)
	return expires
}
