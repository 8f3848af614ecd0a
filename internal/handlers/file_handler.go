package handlers

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"

	"github.com/anonto42/snapgram/backend/internal/backend"
	"github.com/anonto42/snapgram/backend/internal/preview"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// FileHandler serves stored files and generated images without authentication
type FileHandler struct {
	backend *backend.Backend
	logger  *zap.Logger
}

// NewFileHandler creates a new FileHandler
func NewFileHandler(b *backend.Backend, logger *zap.Logger) *FileHandler {
	return &FileHandler{backend: b, logger: logger}
}

// RegisterFileRoutes registers the public file routes
func (h *FileHandler) RegisterFileRoutes(g *echo.Group) {
	g.GET("/storage/buckets/:bucket/files/:id/preview", h.Preview)
	g.GET("/avatars/initials", h.InitialsAvatar)
}

// Preview renders a stored image into the requested box. Only the configured
// media bucket is served.
func (h *FileHandler) Preview(c echo.Context) error {
	if c.Param("bucket") != h.backend.Config().BucketID {
		return echo.NewHTTPError(http.StatusNotFound, "File not found")
	}

	opts := preview.Options{Gravity: c.QueryParam("gravity")}
	var err error
	if opts.Width, err = intParam(c, "width"); err != nil {
		return err
	}
	if opts.Height, err = intParam(c, "height"); err != nil {
		return err
	}
	if opts.Quality, err = intParam(c, "quality"); err != nil {
		return err
	}

	rc, _, err := h.backend.GetFileView(c.Request().Context(), c.Param("bucket"), c.Param("id"))
	if err != nil {
		return backendError(err, "File not found")
	}
	defer rc.Close()

	var buf bytes.Buffer
	contentType, err := preview.Render(&buf, rc, opts)
	if err != nil {
		if errors.Is(err, preview.ErrInvalidGravity) || errors.Is(err, preview.ErrInvalidSize) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		h.logger.Warn("render preview", zap.String("file_id", c.Param("id")), zap.Error(err))
		return echo.NewHTTPError(http.StatusUnsupportedMediaType, "File is not a supported image")
	}

	c.Response().Header().Set("Cache-Control", "public, max-age=86400")
	return c.Blob(http.StatusOK, contentType, buf.Bytes())
}

// InitialsAvatar renders the SVG avatar for ?name=
func (h *FileHandler) InitialsAvatar(c echo.Context) error {
	size, err := intParam(c, "size")
	if err != nil {
		return err
	}
	if size > 1024 {
		size = 1024
	}
	c.Response().Header().Set("Cache-Control", "public, max-age=86400")
	return c.Blob(http.StatusOK, "image/svg+xml", preview.InitialsAvatar(c.QueryParam("name"), size))
}

func intParam(c echo.Context, name string) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "Invalid "+name)
	}
	return n, nil
}
