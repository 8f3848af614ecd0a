package handlers

import (
	"net/http"

	"github.com/anonto42/snapgram/backend/internal/backend"
	"github.com/anonto42/snapgram/backend/internal/middleware"
	"github.com/anonto42/snapgram/backend/internal/models"
	"github.com/labstack/echo/v4"
)

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	backend *backend.Backend
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(b *backend.Backend) *AuthHandler {
	return &AuthHandler{backend: b}
}

// RegisterAuthRoutes registers authentication-related routes. requireSession
// guards the routes that act on the caller's session.
func (h *AuthHandler) RegisterAuthRoutes(g *echo.Group, requireSession echo.MiddlewareFunc) {
	g.POST("/signup", h.Signup)
	g.POST("/signin", h.SignIn)
	g.POST("/signout", h.SignOut, requireSession)
}

// Signup creates an account and its user profile
func (h *AuthHandler) Signup(c echo.Context) error {
	var req models.NewUser
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return validationError(c, err)
	}

	account, err := h.backend.CreateUserAccount(c.Request().Context(), req)
	if err != nil {
		if backend.ReasonOf(err) == backend.ReasonConflict {
			return echo.NewHTTPError(http.StatusConflict, "User with this email already exists")
		}
		return backendError(err, "Account not found")
	}

	return c.JSON(http.StatusCreated, account)
}

// SignIn verifies credentials and returns a session token
func (h *AuthHandler) SignIn(c echo.Context) error {
	var req models.SignInRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return validationError(c, err)
	}

	session, err := h.backend.SignInAccount(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		switch backend.ReasonOf(err) {
		case backend.ReasonUnauthorized, backend.ReasonNotFound:
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid email or password")
		}
		return backendError(err, "Account not found")
	}

	return c.JSON(http.StatusOK, session)
}

// SignOut revokes the caller's session
func (h *AuthHandler) SignOut(c echo.Context) error {
	session := middleware.SessionFrom(c)
	if session == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Missing session")
	}

	if err := h.backend.SignOutAccount(c.Request().Context(), session); err != nil {
		return backendError(err, "Session not found")
	}
	return c.NoContent(http.StatusNoContent)
}
