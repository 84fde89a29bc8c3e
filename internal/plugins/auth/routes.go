package auth

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes sets up the JSON auth endpoints. They are public; the
// guard runs globally and only redirects page paths.
//
// signupLimit and loginLimit are rate limiters applied to the POST
// endpoints to slow down credential stuffing and signup spam.
func RegisterRoutes(e *echo.Echo, h *Handler, signupLimit, loginLimit echo.MiddlewareFunc) {
	api := e.Group("/api/auth")

	api.POST("/signup", h.Signup, signupLimit)
	api.POST("/login", h.Login, loginLimit)
	api.POST("/logout", h.Logout)
	api.GET("/session", h.Session)
}
