package handlers

import (
	"net/http"

	"github.com/anonto42/snapgram/backend/internal/backend"
	"github.com/anonto42/snapgram/backend/internal/middleware"
	"github.com/anonto42/snapgram/backend/internal/models"
	"github.com/labstack/echo/v4"
)

// LikeHandler handles HTTP requests related to likes
type LikeHandler struct {
	backend *backend.Backend
}

// NewLikeHandler creates a new LikeHandler
func NewLikeHandler(b *backend.Backend) *LikeHandler {
	return &LikeHandler{backend: b}
}

// RegisterLikeRoutes registers like-related routes
func (h *LikeHandler) RegisterLikeRoutes(g *echo.Group) {
	g.POST("/posts/:id/likes", h.ToggleLike)
}

// ToggleLike likes the post for the caller, or unlikes it if already liked
func (h *LikeHandler) ToggleLike(c echo.Context) error {
	user := middleware.UserFrom(c)
	ctx := c.Request().Context()

	post, err := h.backend.GetPostByID(ctx, c.Param("id"))
	if err != nil {
		return backendError(err, postNotFound)
	}

	liked := !post.LikedBy(user.ID)
	likes := make([]string, 0, len(post.Likes)+1)
	for _, id := range post.Likes {
		if id != user.ID {
			likes = append(likes, id)
		}
	}
	if liked {
		likes = append(likes, user.ID)
	}

	updated, err := h.backend.LikePost(ctx, post.ID, likes)
	if err != nil {
		return backendError(err, postNotFound)
	}

	return c.JSON(http.StatusOK, models.LikeResponse{
		PostID: updated.ID,
		Liked:  liked,
		Likes:  updated.Likes,
	})
}
