package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/anonto42/snapgram/backend/internal/backend"
	"github.com/anonto42/snapgram/backend/internal/models"
)

// fakeBackend records every call and fails the operations named in failOn
type fakeBackend struct {
	mu      sync.Mutex
	failOn  map[string]bool
	calls   []string
	deleted []string
	created []models.NewPost
	updated []models.UpdatePost
	nextID  int
}

func newFakeBackend(failOn ...string) *fakeBackend {
	f := &fakeBackend{failOn: make(map[string]bool)}
	for _, op := range failOn {
		f.failOn[op] = true
	}
	return f
}

func (f *fakeBackend) record(op string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, op)
	if f.failOn[op] {
		return &backend.Failure{Op: op, Reason: backend.ReasonUnavailable, Err: backend.ErrUnavailable}
	}
	return nil
}

func (f *fakeBackend) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == op {
			n++
		}
	}
	return n
}

func (f *fakeBackend) UploadFile(_ context.Context, upload models.Upload) (*models.File, error) {
	if err := f.record("uploadFile"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	return &models.File{ID: fmt.Sprintf("file-%d", f.nextID), BucketID: "media", Name: upload.Name}, nil
}

func (f *fakeBackend) GetFilePreview(_ context.Context, fileID string) (string, error) {
	if err := f.record("getFilePreview"); err != nil {
		return "", err
	}
	return "https://cdn.test/" + fileID, nil
}

func (f *fakeBackend) DeleteFile(_ context.Context, fileID string) error {
	if err := f.record("deleteFile"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, fileID)
	return nil
}

func (f *fakeBackend) CreatePostDocument(_ context.Context, post models.NewPost) (*models.Post, error) {
	if err := f.record("createPost"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, post)
	return &models.Post{
		ID:       "post-1",
		Creator:  post.Creator,
		Caption:  post.Caption,
		ImageURL: post.ImageURL,
		ImageID:  post.ImageID,
		Location: post.Location,
		Tags:     post.Tags,
		Likes:    []string{},
	}, nil
}

func (f *fakeBackend) UpdatePostDocument(_ context.Context, post models.UpdatePost) (*models.Post, error) {
	if err := f.record("updatePost"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updated = append(f.updated, post)
	return &models.Post{
		ID:       post.PostID,
		Caption:  post.Caption,
		ImageURL: post.ImageURL,
		ImageID:  post.ImageID,
		Location: post.Location,
		Tags:     post.Tags,
	}, nil
}
