package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anonto42/snapgram/backend/internal/models"
	"github.com/anonto42/snapgram/backend/validators"
	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"
)

// HomeRoute is where clients go after a submission
const HomeRoute = "/"

// DefaultPendingTTL bounds how long a crashed submission can block its user
const DefaultPendingTTL = 2 * time.Minute

// PostBackend is the slice of the backend façade the form needs
type PostBackend interface {
	UploadFile(ctx context.Context, upload models.Upload) (*models.File, error)
	GetFilePreview(ctx context.Context, fileID string) (string, error)
	DeleteFile(ctx context.Context, fileID string) error
	CreatePostDocument(ctx context.Context, post models.NewPost) (*models.Post, error)
	UpdatePostDocument(ctx context.Context, post models.UpdatePost) (*models.Post, error)
}

// MutationGuard marks the post mutation in flight per user. Acquire fails
// while any kind is pending, so a user never has a create and an update
// running at once.
type MutationGuard interface {
	Acquire(ctx context.Context, userID, kind string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, userID, kind string) error
	Pending(ctx context.Context, userID string) (string, error)
}

// Outcome is a completed submission
type Outcome struct {
	Post     *models.Post `json:"post"`
	Redirect string       `json:"redirect"`
}

// PostFormService runs post form submissions against the backend
type PostFormService struct {
	backend    PostBackend
	guard      MutationGuard
	validator  *validators.CustomValidator
	logger     *zap.Logger
	pendingTTL time.Duration
}

// NewPostFormService creates a PostFormService
func NewPostFormService(backend PostBackend, guard MutationGuard, validator *validators.CustomValidator, logger *zap.Logger) *PostFormService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PostFormService{
		backend:    backend,
		guard:      guard,
		validator:  validator,
		logger:     logger.Named("post_form"),
		pendingTTL: DefaultPendingTTL,
	}
}

// Pending reads the in-flight mutations of userID
func (s *PostFormService) Pending(ctx context.Context, userID string) (Pending, error) {
	kind, err := s.guard.Pending(ctx, userID)
	if err != nil {
		return Pending{}, err
	}
	return Pending{
		Create: kind == string(models.ActionCreate),
		Update: kind == string(models.ActionUpdate),
	}, nil
}

// View builds the form a client renders. A nil post yields the dedicated create page.
func (s *PostFormService) View(ctx context.Context, userID string, action models.FormAction, post *models.Post) (*models.PostFormView, error) {
	pending, err := s.Pending(ctx, userID)
	if err != nil {
		return nil, err
	}

	view := &models.PostFormView{
		Action:   action,
		Defaults: PostFormDefaults(post),
	}
	if post != nil {
		view.PostID = post.ID
	}
	if action == models.ActionCreate && post == nil {
		view.Controls = CreatePostFormControls(pending)
	} else {
		view.Controls = PostFormControls(action, pending)
	}
	return view, nil
}

// Submit validates form and creates or updates a post for user. existing is
// the post being edited and is required for updates.
func (s *PostFormService) Submit(ctx context.Context, user *models.User, form models.PostForm, existing *models.Post) (*Outcome, error) {
	if len(form.Files) == 0 {
		form.Files = nil
	}
	if err := s.validate(form); err != nil {
		return nil, err
	}
	if form.Action == models.ActionUpdate && existing == nil {
		return nil, ErrPostRequired
	}

	release, err := s.acquire(ctx, user.ID, form.Action)
	if err != nil {
		return nil, err
	}
	defer release()

	var post *models.Post
	if form.Action == models.ActionUpdate {
		post, err = s.update(ctx, form, existing)
	} else {
		post, err = s.create(ctx, user, form)
	}
	if err != nil {
		return nil, err
	}
	return &Outcome{Post: post, Redirect: HomeRoute}, nil
}

func (s *PostFormService) validate(form models.PostForm) error {
	if err := s.validator.Validate(&form); err != nil {
		if fields := validators.Fields(err); fields != nil {
			return &ValidationError{Fields: fields}
		}
		return err
	}
	for _, f := range form.Files {
		if err := sniffImage(f); err != nil {
			return &ValidationError{Fields: map[string]string{"file": err.Error()}}
		}
	}
	return nil
}

func sniffImage(upload models.Upload) error {
	rc, err := upload.Open()
	if err != nil {
		return fmt.Errorf("file could not be read")
	}
	defer rc.Close()

	mt, err := mimetype.DetectReader(rc)
	if err != nil {
		return fmt.Errorf("file could not be read")
	}
	if !strings.HasPrefix(mt.String(), "image/") {
		return fmt.Errorf("file must be an image, got %s", mt.String())
	}
	return nil
}

func (s *PostFormService) acquire(ctx context.Context, userID string, action models.FormAction) (func(), error) {
	ok, err := s.guard.Acquire(ctx, userID, string(action), s.pendingTTL)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrSubmissionPending
	}

	return func() {
		if err := s.guard.Release(context.WithoutCancel(ctx), userID, string(action)); err != nil {
			s.logger.Warn("release mutation", zap.String("user_id", userID), zap.String("action", string(action)), zap.Error(err))
		}
	}, nil
}

func (s *PostFormService) create(ctx context.Context, user *models.User, form models.PostForm) (*models.Post, error) {
	fail := func(err error) error {
		return &SubmitError{Toast: ToastCreateFailed, Err: err}
	}

	file, imageURL, err := s.uploadWithPreview(ctx, form.Files[0])
	if err != nil {
		return nil, fail(err)
	}

	post, err := s.backend.CreatePostDocument(ctx, models.NewPost{
		Creator:  user.ID,
		Caption:  form.Caption,
		ImageURL: imageURL,
		ImageID:  file.ID,
		Location: form.Location,
		Tags:     ParseTags(form.Tags),
	})
	if err != nil {
		s.compensate(ctx, file.ID)
		return nil, fail(err)
	}

	s.logger.Info("post created", zap.String("post_id", post.ID), zap.String("creator", user.ID))
	return post, nil
}

func (s *PostFormService) update(ctx context.Context, form models.PostForm, existing *models.Post) (*models.Post, error) {
	fail := func(err error) error {
		return &SubmitError{Toast: ToastUpdateFailed, Redirect: HomeRoute, Err: err}
	}

	payload := models.UpdatePost{
		PostID:   existing.ID,
		Caption:  form.Caption,
		ImageURL: existing.ImageURL,
		ImageID:  existing.ImageID,
		Location: form.Location,
		Tags:     ParseTags(form.Tags),
	}

	var uploaded *models.File
	if len(form.Files) > 0 {
		file, imageURL, err := s.uploadWithPreview(ctx, form.Files[0])
		if err != nil {
			return nil, fail(err)
		}
		uploaded = file
		payload.ImageURL = imageURL
		payload.ImageID = file.ID
	}

	post, err := s.backend.UpdatePostDocument(ctx, payload)
	if err != nil {
		if uploaded != nil {
			s.compensate(ctx, uploaded.ID)
		}
		return nil, fail(err)
	}

	if uploaded != nil && existing.HasImage() && existing.ImageID != uploaded.ID {
		// the post no longer references it
		_ = s.backend.DeleteFile(context.WithoutCancel(ctx), existing.ImageID)
	}

	s.logger.Info("post updated", zap.String("post_id", post.ID))
	return post, nil
}

// uploadWithPreview stores upload and resolves its preview URL, deleting the
// file again if the preview cannot be produced
func (s *PostFormService) uploadWithPreview(ctx context.Context, upload models.Upload) (*models.File, string, error) {
	file, err := s.backend.UploadFile(ctx, upload)
	if err != nil {
		return nil, "", err
	}

	imageURL, err := s.backend.GetFilePreview(ctx, file.ID)
	if err != nil {
		s.compensate(ctx, file.ID)
		return nil, "", err
	}
	return file, imageURL, nil
}

// compensate deletes an uploaded file no post will reference. Its own failure
// is logged by the backend and otherwise ignored.
func (s *PostFormService) compensate(ctx context.Context, fileID string) {
	s.logger.Warn("deleting orphaned upload", zap.String("file_id", fileID))
	_ = s.backend.DeleteFile(context.WithoutCancel(ctx), fileID)
}
