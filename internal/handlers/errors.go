package handlers

import (
	"net/http"

	"github.com/anonto42/snapgram/backend/internal/backend"
	"github.com/anonto42/snapgram/backend/validators"
	"github.com/labstack/echo/v4"
)

// backendError maps a façade failure onto an HTTP error. notFound is the
// message used when the backend reports a missing resource.
func backendError(err error, notFound string) *echo.HTTPError {
	switch backend.ReasonOf(err) {
	case backend.ReasonNotFound:
		return echo.NewHTTPError(http.StatusNotFound, notFound)
	case backend.ReasonUnauthorized:
		return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
	case backend.ReasonConflict:
		return echo.NewHTTPError(http.StatusConflict, "Already exists")
	case backend.ReasonRejected:
		return echo.NewHTTPError(http.StatusBadRequest, "Request rejected by backend")
	case backend.ReasonUnavailable:
		return echo.NewHTTPError(http.StatusServiceUnavailable, "Backend unavailable")
	}
	return echo.NewHTTPError(http.StatusBadGateway, "Backend request failed")
}

// validationError answers a request body that failed validation
func validationError(c echo.Context, err error) error {
	fields := validators.Fields(err)
	if fields == nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusUnprocessableEntity, map[string]interface{}{"fields": fields})
}
