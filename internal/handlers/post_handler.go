package handlers

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/anonto42/snapgram/backend/internal/backend"
	"github.com/anonto42/snapgram/backend/internal/middleware"
	"github.com/anonto42/snapgram/backend/internal/models"
	"github.com/anonto42/snapgram/backend/internal/services"
	"github.com/labstack/echo/v4"
)

const postNotFound = "Post not found"

// PostHandler handles HTTP requests related to posts and the post form
type PostHandler struct {
	backend *backend.Backend
	forms   *services.PostFormService
}

// NewPostHandler creates a new PostHandler
func NewPostHandler(b *backend.Backend, forms *services.PostFormService) *PostHandler {
	return &PostHandler{
		backend: b,
		forms:   forms,
	}
}

// RegisterPostRoutes registers post-related routes
func (h *PostHandler) RegisterPostRoutes(g *echo.Group) {
	g.GET("/create-post", h.CreatePostForm)
	g.GET("/edit-post/:id", h.EditPostForm)
	g.POST("/posts", h.CreatePost)
	g.GET("/posts/:id", h.GetPost)
	g.PUT("/posts/:id", h.UpdatePost)
	g.DELETE("/posts/:id", h.DeletePost)
}

// CreatePostForm returns the empty create form and its controls
func (h *PostHandler) CreatePostForm(c echo.Context) error {
	user := middleware.UserFrom(c)

	view, err := h.forms.View(c.Request().Context(), user.ID, models.ActionCreate, nil)
	if err != nil {
		return backendError(err, "User not found")
	}
	return c.JSON(http.StatusOK, view)
}

// EditPostForm returns the form prefilled with an existing post
func (h *PostHandler) EditPostForm(c echo.Context) error {
	user := middleware.UserFrom(c)

	post, err := h.ownPost(c, user)
	if err != nil {
		return err
	}

	view, err := h.forms.View(c.Request().Context(), user.ID, models.ActionUpdate, post)
	if err != nil {
		return backendError(err, "User not found")
	}
	return c.JSON(http.StatusOK, view)
}

// CreatePost submits the create form
func (h *PostHandler) CreatePost(c echo.Context) error {
	user := middleware.UserFrom(c)

	form, err := bindPostForm(c, models.ActionCreate)
	if err != nil {
		return err
	}

	out, err := h.forms.Submit(c.Request().Context(), user, form, nil)
	if err != nil {
		return submitError(c, err)
	}
	return c.JSON(http.StatusCreated, out)
}

// GetPost retrieves a post by ID
func (h *PostHandler) GetPost(c echo.Context) error {
	post, err := h.backend.GetPostByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return backendError(err, postNotFound)
	}
	return c.JSON(http.StatusOK, post)
}

// UpdatePost submits the edit form of a post owned by the caller
func (h *PostHandler) UpdatePost(c echo.Context) error {
	user := middleware.UserFrom(c)

	post, err := h.ownPost(c, user)
	if err != nil {
		return err
	}

	form, err := bindPostForm(c, models.ActionUpdate)
	if err != nil {
		return err
	}

	out, err := h.forms.Submit(c.Request().Context(), user, form, post)
	if err != nil {
		return submitError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// DeletePost deletes a post owned by the caller together with its image
func (h *PostHandler) DeletePost(c echo.Context) error {
	user := middleware.UserFrom(c)

	post, err := h.ownPost(c, user)
	if err != nil {
		return err
	}

	if err := h.backend.DeletePost(c.Request().Context(), post.ID, post.ImageID); err != nil {
		return backendError(err, postNotFound)
	}
	return c.NoContent(http.StatusNoContent)
}

// ownPost loads the :id post and checks it belongs to user
func (h *PostHandler) ownPost(c echo.Context, user *models.User) (*models.Post, error) {
	post, err := h.backend.GetPostByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return nil, backendError(err, postNotFound)
	}
	if post.Creator != user.ID {
		return nil, echo.NewHTTPError(http.StatusForbidden, "You can only edit your own posts")
	}
	return post, nil
}

// bindPostForm reads a multipart or urlencoded post form
func bindPostForm(c echo.Context, action models.FormAction) (models.PostForm, error) {
	form := models.PostForm{
		Action:   action,
		Caption:  c.FormValue("caption"),
		Location: c.FormValue("location"),
		Tags:     c.FormValue("tags"),
	}

	mf, err := c.MultipartForm()
	if errors.Is(err, http.ErrNotMultipart) {
		return form, nil
	}
	if err != nil {
		return form, echo.NewHTTPError(http.StatusBadRequest, "Invalid multipart form")
	}
	for _, fh := range mf.File["file"] {
		form.Files = append(form.Files, uploadFromHeader(fh))
	}
	return form, nil
}

func uploadFromHeader(fh *multipart.FileHeader) models.Upload {
	return models.Upload{
		Name:        fh.Filename,
		ContentType: fh.Header.Get(echo.HeaderContentType),
		Size:        fh.Size,
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}

// submitError answers a failed form submission
func submitError(c echo.Context, err error) error {
	var verr *services.ValidationError
	var serr *services.SubmitError
	switch {
	case errors.As(err, &verr):
		return c.JSON(http.StatusUnprocessableEntity, map[string]interface{}{"fields": verr.Fields})
	case errors.Is(err, services.ErrSubmissionPending):
		return c.JSON(http.StatusConflict, map[string]interface{}{"toast": services.ToastPending})
	case errors.As(err, &serr):
		body := map[string]interface{}{
			"toast":  serr.Toast,
			"reason": serr.Reason(),
		}
		if serr.Redirect != "" {
			body["redirect"] = serr.Redirect
		}
		return c.JSON(http.StatusBadGateway, body)
	}
	return backendError(err, postNotFound)
}
