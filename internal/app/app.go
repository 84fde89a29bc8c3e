// Package app is the application bootstrap and dependency injection root.
// It holds the shared infrastructure (DB pool, optional Redis client, Echo
// instance) and wires the auth plugin and page routes together.
package app

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/spaceyvirtualera/spacey/internal/apperror"
	"github.com/spaceyvirtualera/spacey/internal/config"
	"github.com/spaceyvirtualera/spacey/internal/middleware"
	"github.com/spaceyvirtualera/spacey/internal/plugins/auth"
	"github.com/spaceyvirtualera/spacey/internal/templates/pages"
	"github.com/spaceyvirtualera/spacey/static"
)

// App holds all shared dependencies and the Echo HTTP server instance.
// Created once at startup in main.go and used to register all routes.
type App struct {
	// Config holds the loaded application configuration.
	Config *config.Config

	// DB is the credential store connection pool.
	DB *sql.DB

	// Redis backs the rate limiter. Nil when REDIS_URL is unset.
	Redis *redis.Client

	// Echo is the HTTP server instance.
	Echo *echo.Echo

	// Sessions mints and verifies session tokens.
	Sessions *auth.SessionIssuer

	hasher  *auth.PasswordHasher
	limiter middleware.Limiter
	closers []func()
}

// New creates a new App instance with the given dependencies and configures
// the Echo server with global middleware and error handling. It fails when
// the session issuer or password hasher cannot be built from cfg.
func New(cfg *config.Config, db *sql.DB, rdb *redis.Client) (*App, error) {
	sessions, err := auth.NewSessionIssuer(cfg.Auth.SessionSecret, cfg.Auth.SessionTTL, cfg.Auth.RoleClaim)
	if err != nil {
		return nil, fmt.Errorf("creating session issuer: %w", err)
	}
	hasher, err := auth.NewPasswordHasher(cfg.Auth.BcryptCost, cfg.Auth.HashConcurrency)
	if err != nil {
		return nil, fmt.Errorf("creating password hasher: %w", err)
	}

	e := echo.New()

	// Disable Echo's default banner and startup message -- we log our own.
	e.HideBanner = true
	e.HidePort = true

	// Trust forwarding headers only from private ranges so c.RealIP() sees
	// the visitor behind the hosting proxy.
	middleware.TrustedProxies(e, []string{
		"127.0.0.0/8",
		"10.0.0.0/8",
		"172.16.0.0/12",
		"192.168.0.0/16",
		"fd00::/8",
	})

	app := &App{
		Config:   cfg,
		DB:       db,
		Redis:    rdb,
		Echo:     e,
		Sessions: sessions,
		hasher:   hasher,
	}

	if rdb != nil {
		app.limiter = middleware.NewRedisLimiter(rdb, "spacey:ratelimit:")
	} else {
		mem := middleware.NewMemoryLimiter(time.Minute)
		app.limiter = mem
		app.closers = append(app.closers, mem.Close)
	}

	app.setupMiddleware()

	// Register the custom error handler that maps AppErrors to HTTP responses.
	e.HTTPErrorHandler = app.errorHandler

	// Serve the embedded front-end bundle.
	e.StaticFS("/static", static.FS)

	return app, nil
}

// setupMiddleware registers global middleware on the Echo instance.
// Order matters: outermost (recovery) runs first, the route guard runs last
// so it sees a routed request but fires before any page handler.
func (a *App) setupMiddleware() {
	// Panic recovery -- must be outermost to catch panics from all other middleware.
	a.Echo.Use(middleware.Recovery())

	a.Echo.Use(middleware.RequestID())
	a.Echo.Use(middleware.RequestLogger())
	a.Echo.Use(middleware.SecurityHeaders())
	a.Echo.Use(middleware.BodyLimit("64K"))

	a.Echo.Use(middleware.CORS(middleware.CORSConfig{
		AllowedOrigins:   []string{a.Config.BaseURL},
		AllowCredentials: true,
	}))

	a.Echo.Use(auth.Guard(a.Sessions, a.Config.Auth.SessionCookieName))
}

// errorHandler is the custom Echo error handler. It maps domain errors
// (AppError) to HTTP responses: {"error": message} JSON for API requests,
// an error page for browsers. Internal causes are logged, never returned.
func (a *App) errorHandler(err error, c echo.Context) {
	// Don't double-write if response is already committed.
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	message := apperror.InternalMessage

	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		code = appErr.Code
		message = appErr.Message

		// Log internal errors with the underlying cause.
		if appErr.Internal != nil {
			slog.Error("internal error",
				slog.String("type", appErr.Type),
				slog.Any("internal", appErr.Internal),
				slog.String("method", c.Request().Method),
				slog.String("path", c.Request().URL.Path),
			)
		}
	} else {
		// Check for Echo's built-in HTTP errors (e.g., 404 from router).
		var echoErr *echo.HTTPError
		if errors.As(err, &echoErr) {
			code = echoErr.Code
			if msg, ok := echoErr.Message.(string); ok {
				message = msg
			} else {
				message = defaultErrorMessage(code)
			}
		} else {
			// Truly unexpected error -- log it.
			slog.Error("unhandled error",
				slog.Any("error", err),
				slog.String("path", c.Request().URL.Path),
			)
		}
	}

	// API requests always get JSON.
	if isAPIRequest(c) {
		if err := c.JSON(code, map[string]string{"error": message}); err != nil {
			slog.Error("writing error response", slog.Any("error", err))
		}
		return
	}

	// Browser 401 -- send them to sign in.
	if code == http.StatusUnauthorized {
		_ = c.Redirect(http.StatusSeeOther, auth.LoginPath)
		return
	}

	if err := middleware.Render(c, code, pages.ErrorPage(code, message)); err != nil {
		slog.Error("rendering error page", slog.Any("error", err))
	}
}

// defaultErrorMessage returns a user-friendly message for common HTTP status
// codes when no specific message was provided by the error.
func defaultErrorMessage(code int) string {
	switch code {
	case http.StatusBadRequest:
		return "The request was invalid or cannot be processed."
	case http.StatusNotFound:
		return "The page you're looking for doesn't exist or has been moved."
	case http.StatusMethodNotAllowed:
		return "This action is not allowed."
	case http.StatusRequestEntityTooLarge:
		return "The request body is too large."
	case http.StatusTooManyRequests:
		return "You're making too many requests. Please slow down."
	case http.StatusServiceUnavailable:
		return "The service is temporarily unavailable. Please try again later."
	default:
		return apperror.InternalMessage
	}
}

// isAPIRequest returns true if the request targets the JSON API.
func isAPIRequest(c echo.Context) bool {
	path := c.Request().URL.Path
	return path == "/api" || strings.HasPrefix(path, "/api/")
}

// Start begins listening for HTTP requests on the configured port.
func (a *App) Start() error {
	addr := fmt.Sprintf(":%d", a.Config.Port)
	slog.Info("starting Spacey server",
		slog.String("addr", addr),
		slog.String("env", a.Config.Env),
	)
	return a.Echo.Start(addr)
}

// Close releases background resources owned by the App (not the DB or Redis
// connections, which main owns).
func (a *App) Close() {
	for _, closeFn := range a.closers {
		closeFn()
	}
}
