package handlers

import (
	"net/http"
	"strings"

	"github.com/anonto42/snapgram/backend/internal/backend"
	"github.com/labstack/echo/v4"
)

// FeedHandler handles HTTP requests for post listings
type FeedHandler struct {
	backend *backend.Backend
}

// NewFeedHandler creates a new FeedHandler
func NewFeedHandler(b *backend.Backend) *FeedHandler {
	return &FeedHandler{backend: b}
}

// RegisterFeedRoutes registers feed-related routes
func (h *FeedHandler) RegisterFeedRoutes(g *echo.Group) {
	g.GET("/posts/recent", h.GetRecentPosts)
	g.GET("/posts/search", h.SearchPosts)
}

// GetRecentPosts returns the home feed
func (h *FeedHandler) GetRecentPosts(c echo.Context) error {
	posts, err := h.backend.GetRecentPosts(c.Request().Context())
	if err != nil {
		return backendError(err, "Posts not found")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"documents": posts,
		"total":     len(posts),
	})
}

// SearchPosts returns posts matching ?q=
func (h *FeedHandler) SearchPosts(c echo.Context) error {
	term := strings.TrimSpace(c.QueryParam("q"))
	if term == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Search query 'q' is required")
	}

	posts, err := h.backend.SearchPosts(c.Request().Context(), term)
	if err != nil {
		return backendError(err, "Posts not found")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"documents": posts,
		"total":     len(posts),
	})
}
