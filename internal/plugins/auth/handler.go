package auth

import (
	"mime"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/spaceyvirtualera/spacey/internal/apperror"
)

// Handler handles the JSON auth endpoints. Handlers are thin: they bind the
// request, call the service, and write the response. Errors are returned to
// the app error handler, which renders {"error": message}.
type Handler struct {
	service  AuthService
	sessions *SessionIssuer
	cookie   sessionCookie
}

// NewHandler creates a new auth handler.
func NewHandler(service AuthService, sessions *SessionIssuer, cookieName string) *Handler {
	return &Handler{
		service:  service,
		sessions: sessions,
		cookie:   sessionCookie{name: cookieName},
	}
}

// Signup processes POST /api/auth/signup.
func (h *Handler) Signup(c echo.Context) error {
	var req SignupRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	_, err := h.service.Register(c.Request().Context(), SignupInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, signupResponse{Success: true})
}

// Login processes POST /api/auth/login. On success the session token is set
// as an HttpOnly cookie and the user id is echoed back.
func (h *Handler) Login(c echo.Context) error {
	var req LoginRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	token, user, err := h.service.Login(c.Request().Context(), LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return err
	}

	h.cookie.set(c, token, h.sessions.TTL())

	return c.JSON(http.StatusOK, loginResponse{Success: true, UserID: user.ID})
}

// Logout processes POST /api/auth/logout. Tokens are not tracked
// server-side, so signing out only drops the cookie.
func (h *Handler) Logout(c echo.Context) error {
	h.cookie.clear(c)
	return c.JSON(http.StatusOK, signupResponse{Success: true})
}

// Session processes GET /api/auth/session and returns the identity the guard
// decoded from the request, or 401.
func (h *Handler) Session(c echo.Context) error {
	identity := GetIdentity(c)
	if identity == nil {
		return apperror.NewUnauthorized("Not signed in")
	}
	return c.JSON(http.StatusOK, sessionResponse{User: *identity, Expires: GetSessionExpiry(c)})
}

// bindJSON decodes a JSON body into dst and refuses any other content type,
// so cross-site HTML form posts never reach signup or login.
func bindJSON(c echo.Context, dst any) error {
	mediaType, _, err := mime.ParseMediaType(c.Request().Header.Get(echo.HeaderContentType))
	if err != nil || mediaType != echo.MIMEApplicationJSON {
		return apperror.NewUnsupportedMediaType("Request body must be JSON")
	}
	if err := c.Bind(dst); err != nil {
		return apperror.NewValidation("Invalid request body")
	}
	return nil
}
