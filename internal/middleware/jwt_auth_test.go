package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/anonto42/snapgram/backend/internal/backend"
	"github.com/anonto42/snapgram/backend/internal/models"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSessions struct {
	err error
}

func (f fakeSessions) Parse(_ context.Context, token string) (*models.Session, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.Session{ID: "s1", AccountID: "acc-1", Token: token}, nil
}

type fakeUsers struct {
	err error
}

func (f fakeUsers) GetCurrentUser(_ context.Context, s *models.Session) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.User{ID: "u1", AccountID: s.AccountID}, nil
}

func run(t *testing.T, header string, sessions SessionParser, users UserResolver) (echo.Context, *httptest.ResponseRecorder, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set(echo.HeaderAuthorization, header)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := JWTAuthMiddleware(sessions)(CurrentUserMiddleware(users)(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}))
	err := h(c)
	return c, rec, err
}

func statusOf(t *testing.T, err error) int {
	t.Helper()
	var he *echo.HTTPError
	require.True(t, errors.As(err, &he), "expected *echo.HTTPError, got %v", err)
	return he.Code
}

func TestJWTAuthMiddleware(t *testing.T) {
	tests := []struct {
		name     string
		header   string
		sessions fakeSessions
		want     int
	}{
		{"missing header", "", fakeSessions{}, http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", fakeSessions{}, http.StatusUnauthorized},
		{"invalid token", "Bearer abc", fakeSessions{err: backend.ErrUnauthorized}, http.StatusUnauthorized},
		{"store down", "Bearer abc", fakeSessions{err: backend.ErrUnavailable}, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := run(t, tt.header, tt.sessions, fakeUsers{})
			assert.Equal(t, tt.want, statusOf(t, err))
		})
	}
}

func TestCurrentUserMiddleware(t *testing.T) {
	c, rec, err := run(t, "bearer abc", fakeSessions{}, fakeUsers{})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "abc", SessionFrom(c).Token)
	assert.Equal(t, "u1", UserFrom(c).ID)

	notFound := &backend.Failure{Op: "getCurrentUser", Reason: backend.ReasonNotFound}
	_, _, err = run(t, "Bearer abc", fakeSessions{}, fakeUsers{err: notFound})
	assert.Equal(t, http.StatusNotFound, statusOf(t, err))

	down := &backend.Failure{Op: "getCurrentUser", Reason: backend.ReasonUnavailable}
	_, _, err = run(t, "Bearer abc", fakeSessions{}, fakeUsers{err: down})
	assert.Equal(t, http.StatusBadGateway, statusOf(t, err))
}
