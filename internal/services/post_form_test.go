package services

import (
	"context"
	"errors"
	"testing"

	"github.com/anonto42/snapgram/backend/internal/backend"
	"github.com/anonto42/snapgram/backend/internal/models"
	"github.com/anonto42/snapgram/backend/internal/repositories"
	"github.com/anonto42/snapgram/backend/validators"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

func pngUpload() models.Upload {
	return models.NewUploadFromBytes("photo.png", "image/png", pngHeader)
}

func newTestService(b PostBackend) (*PostFormService, *repositories.MemoryMutationGuard) {
	guard := repositories.NewMemoryMutationGuard()
	return NewPostFormService(b, guard, validators.NewValidator(), nil), guard
}

var testUser = &models.User{ID: "user-1", AccountID: "acc-1", Name: "Ada"}

func createForm() models.PostForm {
	return models.PostForm{
		Action:   models.ActionCreate,
		Caption:  "sunset over the bay",
		Files:    []models.Upload{pngUpload()},
		Location: "Lisbon",
		Tags:     "art, sea ,sky",
	}
}

func existingPost() *models.Post {
	return &models.Post{
		ID:       "post-9",
		Creator:  testUser.ID,
		Caption:  "old caption",
		ImageURL: "https://cdn.test/old",
		ImageID:  "old-file",
		Tags:     []string{"old"},
	}
}

func TestSubmit_CreateSuccess(t *testing.T) {
	fb := newFakeBackend()
	svc, _ := newTestService(fb)

	out, err := svc.Submit(context.Background(), testUser, createForm(), nil)
	require.NoError(t, err)

	assert.Equal(t, "/", out.Redirect)
	require.Len(t, fb.created, 1)
	created := fb.created[0]
	assert.Equal(t, "user-1", created.Creator)
	assert.Equal(t, "file-1", created.ImageID)
	assert.Equal(t, "https://cdn.test/file-1", created.ImageURL)
	assert.Equal(t, []string{"art", "sea", "sky"}, created.Tags)
	assert.Equal(t, "Lisbon", created.Location)
	assert.Zero(t, fb.count("deleteFile"))
}

func TestSubmit_CreateUploadFailure(t *testing.T) {
	fb := newFakeBackend("uploadFile")
	svc, _ := newTestService(fb)

	_, err := svc.Submit(context.Background(), testUser, createForm(), nil)

	var serr *SubmitError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, ToastCreateFailed, serr.Toast)
	assert.Empty(t, serr.Redirect)
	assert.Equal(t, backend.ReasonUnavailable, serr.Reason())
	assert.Zero(t, fb.count("getFilePreview"))
	assert.Zero(t, fb.count("deleteFile"))
	assert.Zero(t, fb.count("createPost"))
}

func TestSubmit_CreatePreviewFailureDeletesUploadOnce(t *testing.T) {
	fb := newFakeBackend("getFilePreview")
	svc, _ := newTestService(fb)

	_, err := svc.Submit(context.Background(), testUser, createForm(), nil)

	var serr *SubmitError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, ToastCreateFailed, serr.Toast)
	assert.Equal(t, []string{"file-1"}, fb.deleted)
	assert.Zero(t, fb.count("createPost"))
}

func TestSubmit_CreateDocumentFailureDeletesUploadOnce(t *testing.T) {
	fb := newFakeBackend("createPost")
	svc, _ := newTestService(fb)

	_, err := svc.Submit(context.Background(), testUser, createForm(), nil)

	var serr *SubmitError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, ToastCreateFailed, serr.Toast)
	assert.Equal(t, []string{"file-1"}, fb.deleted)
}

func TestSubmit_CompensationSurvivesCanceledContext(t *testing.T) {
	fb := newFakeBackend("createPost")
	svc, _ := newTestService(fb)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Submit(ctx, testUser, createForm(), nil)
	require.Error(t, err)
	assert.Equal(t, []string{"file-1"}, fb.deleted)
}

func TestSubmit_ValidationMakesNoRemoteCalls(t *testing.T) {
	tests := []struct {
		name  string
		form  models.PostForm
		field string
	}{
		{
			name:  "short caption",
			form:  models.PostForm{Action: models.ActionCreate, Caption: "hey", Files: []models.Upload{pngUpload()}},
			field: "caption",
		},
		{
			name:  "missing file on create",
			form:  models.PostForm{Action: models.ActionCreate, Caption: "long enough", Files: []models.Upload{}},
			field: "file",
		},
		{
			name: "two files",
			form: models.PostForm{
				Action:  models.ActionCreate,
				Caption: "long enough",
				Files:   []models.Upload{pngUpload(), pngUpload()},
			},
			field: "file",
		},
		{
			name: "not an image",
			form: models.PostForm{
				Action:  models.ActionCreate,
				Caption: "long enough",
				Files:   []models.Upload{models.NewUploadFromBytes("a.txt", "image/png", []byte("plain text"))},
			},
			field: "file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fb := newFakeBackend()
			svc, _ := newTestService(fb)

			_, err := svc.Submit(context.Background(), testUser, tt.form, nil)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Fields, tt.field)
			assert.Empty(t, fb.calls)
		})
	}
}

func TestSubmit_UpdateWithoutFileReusesImage(t *testing.T) {
	fb := newFakeBackend()
	svc, _ := newTestService(fb)

	form := models.PostForm{Action: models.ActionUpdate, Caption: "new caption", Tags: "a,b"}
	out, err := svc.Submit(context.Background(), testUser, form, existingPost())
	require.NoError(t, err)

	assert.Equal(t, "/", out.Redirect)
	assert.Equal(t, []string{"updatePost"}, fb.calls)
	require.Len(t, fb.updated, 1)
	assert.Equal(t, "post-9", fb.updated[0].PostID)
	assert.Equal(t, "old-file", fb.updated[0].ImageID)
	assert.Equal(t, "https://cdn.test/old", fb.updated[0].ImageURL)
	assert.Equal(t, []string{"a", "b"}, fb.updated[0].Tags)
}

func TestSubmit_UpdateFailureWithoutFile(t *testing.T) {
	fb := newFakeBackend("updatePost")
	svc, _ := newTestService(fb)

	form := models.PostForm{Action: models.ActionUpdate, Caption: "new caption"}
	_, err := svc.Submit(context.Background(), testUser, form, existingPost())

	var serr *SubmitError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, ToastUpdateFailed, serr.Toast)
	assert.Equal(t, "/", serr.Redirect)
	assert.Zero(t, fb.count("deleteFile"))
	assert.Zero(t, fb.count("uploadFile"))
}

func TestSubmit_UpdateWithNewFileDeletesPrevious(t *testing.T) {
	fb := newFakeBackend()
	svc, _ := newTestService(fb)

	form := models.PostForm{Action: models.ActionUpdate, Caption: "new caption", Files: []models.Upload{pngUpload()}}
	out, err := svc.Submit(context.Background(), testUser, form, existingPost())
	require.NoError(t, err)

	assert.Equal(t, "file-1", out.Post.ImageID)
	assert.Equal(t, []string{"old-file"}, fb.deleted)
}

func TestSubmit_UpdateWithNewFileCompensatesOnWriteFailure(t *testing.T) {
	fb := newFakeBackend("updatePost")
	svc, _ := newTestService(fb)

	form := models.PostForm{Action: models.ActionUpdate, Caption: "new caption", Files: []models.Upload{pngUpload()}}
	_, err := svc.Submit(context.Background(), testUser, form, existingPost())
	require.Error(t, err)

	assert.Equal(t, []string{"file-1"}, fb.deleted)
}

func TestSubmit_UpdateRequiresPost(t *testing.T) {
	svc, _ := newTestService(newFakeBackend())

	form := models.PostForm{Action: models.ActionUpdate, Caption: "new caption"}
	_, err := svc.Submit(context.Background(), testUser, form, nil)
	assert.ErrorIs(t, err, ErrPostRequired)
}

func TestSubmit_RefusedWhilePending(t *testing.T) {
	ctx := context.Background()
	fb := newFakeBackend()
	svc, guard := newTestService(fb)

	ok, err := guard.Acquire(ctx, testUser.ID, string(models.ActionUpdate), DefaultPendingTTL)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = svc.Submit(ctx, testUser, createForm(), nil)
	assert.True(t, errors.Is(err, ErrSubmissionPending))
	assert.Empty(t, fb.calls)

	require.NoError(t, guard.Release(ctx, testUser.ID, string(models.ActionUpdate)))
	_, err = svc.Submit(ctx, testUser, createForm(), nil)
	assert.NoError(t, err)
}

func TestSubmit_ReleasesGuardAfterFailure(t *testing.T) {
	ctx := context.Background()
	fb := newFakeBackend("uploadFile")
	svc, _ := newTestService(fb)

	_, err := svc.Submit(ctx, testUser, createForm(), nil)
	require.Error(t, err)

	pending, err := svc.Pending(ctx, testUser.ID)
	require.NoError(t, err)
	assert.False(t, pending.Busy())
}

func TestView(t *testing.T) {
	ctx := context.Background()
	svc, guard := newTestService(newFakeBackend())

	view, err := svc.View(ctx, testUser.ID, models.ActionCreate, nil)
	require.NoError(t, err)
	assert.Equal(t, "Upload", view.Controls.SubmitLabel)
	assert.True(t, view.Controls.ShowCancel)
	assert.Equal(t, []string{}, view.Defaults.File)

	_, err = guard.Acquire(ctx, testUser.ID, string(models.ActionUpdate), DefaultPendingTTL)
	require.NoError(t, err)

	view, err = svc.View(ctx, testUser.ID, models.ActionUpdate, existingPost())
	require.NoError(t, err)
	assert.Equal(t, "post-9", view.PostID)
	assert.Equal(t, "old", view.Defaults.Tags)
	assert.Equal(t, "https://cdn.test/old", view.Defaults.MediaURL)
	assert.True(t, view.Controls.SubmitDisabled)
	assert.Equal(t, "Uploading...", view.Controls.SubmitLabel)
}

func TestView_SubmitDisabledMatchesSubmit(t *testing.T) {
	for _, held := range []models.FormAction{"", models.ActionCreate, models.ActionUpdate} {
		t.Run("pending "+string(held), func(t *testing.T) {
			pages := []struct {
				name   string
				action models.FormAction
				post   *models.Post
				form   models.PostForm
			}{
				{"create page", models.ActionCreate, nil, createForm()},
				{"edit page", models.ActionUpdate, existingPost(), models.PostForm{Action: models.ActionUpdate, Caption: "new caption"}},
			}
			for _, page := range pages {
				ctx := context.Background()
				svc, guard := newTestService(newFakeBackend())
				if held != "" {
					ok, err := guard.Acquire(ctx, testUser.ID, string(held), DefaultPendingTTL)
					require.NoError(t, err)
					require.True(t, ok)
				}

				view, err := svc.View(ctx, testUser.ID, page.action, page.post)
				require.NoError(t, err)

				_, err = svc.Submit(ctx, testUser, page.form, page.post)
				assert.Equal(t, view.Controls.SubmitDisabled, errors.Is(err, ErrSubmissionPending), page.name)
				if !view.Controls.SubmitDisabled {
					assert.NoError(t, err, page.name)
				}
			}
		})
	}
}
