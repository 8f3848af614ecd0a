package handlers

import (
	"net/http"

	"github.com/anonto42/snapgram/backend/internal/backend"
	"github.com/anonto42/snapgram/backend/internal/middleware"
	"github.com/labstack/echo/v4"
)

// SavedPostHandler handles HTTP requests related to saved posts
type SavedPostHandler struct {
	backend *backend.Backend
}

// NewSavedPostHandler creates a new SavedPostHandler
func NewSavedPostHandler(b *backend.Backend) *SavedPostHandler {
	return &SavedPostHandler{backend: b}
}

// RegisterSavedPostRoutes registers saved post-related routes
func (h *SavedPostHandler) RegisterSavedPostRoutes(g *echo.Group) {
	g.POST("/posts/:id/saves", h.SavePost)
	g.DELETE("/saves/:id", h.UnsavePost)
}

// SavePost bookmarks a post for the caller
func (h *SavedPostHandler) SavePost(c echo.Context) error {
	user := middleware.UserFrom(c)
	ctx := c.Request().Context()

	post, err := h.backend.GetPostByID(ctx, c.Param("id"))
	if err != nil {
		return backendError(err, postNotFound)
	}

	save, err := h.backend.SavePost(ctx, user.ID, post.ID)
	if err != nil {
		return backendError(err, postNotFound)
	}
	return c.JSON(http.StatusCreated, save)
}

// UnsavePost removes one of the caller's bookmarks
func (h *SavedPostHandler) UnsavePost(c echo.Context) error {
	user := middleware.UserFrom(c)
	ctx := c.Request().Context()

	save, err := h.backend.GetSave(ctx, c.Param("id"))
	if err != nil {
		return backendError(err, "Saved post not found")
	}
	if save.User != user.ID {
		return echo.NewHTTPError(http.StatusForbidden, "You can only remove your own saved posts")
	}

	if err := h.backend.DeleteSavedPost(ctx, save.ID); err != nil {
		return backendError(err, "Saved post not found")
	}
	return c.NoContent(http.StatusNoContent)
}
