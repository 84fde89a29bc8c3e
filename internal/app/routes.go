package app

import (
	"context"
	"net/http"
	"time"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"

	"github.com/spaceyvirtualera/spacey/internal/middleware"
	"github.com/spaceyvirtualera/spacey/internal/plugins/auth"
	"github.com/spaceyvirtualera/spacey/internal/templates/layouts"
	"github.com/spaceyvirtualera/spacey/internal/templates/pages"
)

// RegisterRoutes sets up all application routes: the auth API, the page
// shells, and the health check.
//
// This is the single place where all routes are aggregated.
func (a *App) RegisterRoutes() {
	e := a.Echo

	// Copy the guard's identity into the Go context for page templates.
	middleware.LayoutInjector = injectLayout

	// --- Auth API ---
	repo := auth.NewUserRepository(a.DB, a.Config.Database.Driver(), a.Config.Auth.RoleClaim)
	service := auth.NewAuthService(repo, a.hasher, a.Sessions, auth.Options{
		TrackLastLogin: a.Config.Auth.TrackLastLogin,
	})
	handler := auth.NewHandler(service, a.Sessions, a.Config.Auth.SessionCookieName)

	auth.RegisterRoutes(e, handler,
		middleware.RateLimit(a.limiter, "signup", a.Config.Auth.SignupRateLimit, time.Minute),
		middleware.RateLimit(a.limiter, "login", a.Config.Auth.LoginRateLimit, time.Minute),
	)

	// --- Pages ---
	// The guard has already redirected anyone who may not see these.
	e.GET("/", renderPage(pages.Landing()))
	e.GET(auth.LoginPath, renderPage(pages.Login()))
	e.GET(auth.SignupPath, renderPage(pages.Signup()))
	e.GET(auth.DashboardPath, renderPage(pages.Dashboard()))
	e.GET(auth.DashboardPath+"/*", renderPage(pages.Dashboard()))
	e.GET("/profile", renderPage(pages.Account("Profile")))
	e.GET("/profile/*", renderPage(pages.Account("Profile")))
	e.GET("/settings", renderPage(pages.Account("Settings")))
	e.GET("/settings/*", renderPage(pages.Account("Settings")))

	// Health check for the hosting platform.
	e.GET("/healthz", a.healthz)
}

// renderPage returns a handler rendering component with status 200.
func renderPage(component templ.Component) echo.HandlerFunc {
	return func(c echo.Context) error {
		return middleware.Render(c, http.StatusOK, component)
	}
}

// injectLayout is the LayoutInjector for page rendering.
func injectLayout(c echo.Context, ctx context.Context) context.Context {
	ctx = layouts.SetActivePath(ctx, c.Request().URL.Path)
	if identity := auth.GetIdentity(c); identity != nil {
		ctx = layouts.SetViewer(ctx, identity.Name, identity.Email)
	}
	if from := pages.SafeReturnTo(c.QueryParam(auth.ReturnParam)); from != "" {
		ctx = layouts.SetReturnTo(ctx, from)
	}
	return ctx
}

// healthz reports 200 when the credential store answers a ping.
func (a *App) healthz(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	if err := a.DB.PingContext(ctx); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
