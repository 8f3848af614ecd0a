package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/anonto42/snapgram/backend/internal/backend"
	"github.com/anonto42/snapgram/backend/internal/models"
	"github.com/labstack/echo/v4"
)

// Context keys set by the auth middlewares
const (
	SessionKey = "session"
	UserKey    = "user"
)

// SessionParser turns a bearer token into a session
type SessionParser interface {
	Parse(ctx context.Context, token string) (*models.Session, error)
}

// UserResolver loads the profile behind a session
type UserResolver interface {
	GetCurrentUser(ctx context.Context, session *models.Session) (*models.User, error)
}

// JWTAuthMiddleware checks for a valid session token and stores the session in the context.
func JWTAuthMiddleware(sessions SessionParser) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Missing Authorization header")
			}

			// Expecting "Bearer <token>"
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid Authorization header format")
			}

			session, err := sessions.Parse(c.Request().Context(), parts[1])
			if err != nil {
				if errors.Is(err, backend.ErrUnauthorized) {
					return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
				}
				return echo.NewHTTPError(http.StatusServiceUnavailable, "Session store unavailable")
			}

			c.Set(SessionKey, session)
			return next(c)
		}
	}
}

// CurrentUserMiddleware loads the user profile of the session. It must run after JWTAuthMiddleware.
func CurrentUserMiddleware(users UserResolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			session := SessionFrom(c)
			if session == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Missing session")
			}

			user, err := users.GetCurrentUser(c.Request().Context(), session)
			if err != nil {
				switch backend.ReasonOf(err) {
				case backend.ReasonNotFound:
					return echo.NewHTTPError(http.StatusNotFound, "User profile not found")
				case backend.ReasonUnauthorized:
					return echo.NewHTTPError(http.StatusUnauthorized, "Account no longer valid")
				}
				return echo.NewHTTPError(http.StatusBadGateway, "Could not load current user")
			}

			c.Set(UserKey, user)
			return next(c)
		}
	}
}

// SessionFrom returns the session stored by JWTAuthMiddleware, or nil
func SessionFrom(c echo.Context) *models.Session {
	s, _ := c.Get(SessionKey).(*models.Session)
	return s
}

// UserFrom returns the user stored by CurrentUserMiddleware, or nil
func UserFrom(c echo.Context) *models.User {
	u, _ := c.Get(UserKey).(*models.User)
	return u
}
