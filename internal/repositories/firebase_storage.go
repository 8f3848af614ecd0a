package repositories

import (
	"context"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
	fbstorage "firebase.google.com/go/v4/storage"
	"github.com/anonto42/snapgram/backend/internal/models"
)

// metadataName keeps the original upload name on the object
const metadataName = "name"

// FirebaseStorage implements backend.Storage on Firebase Cloud Storage buckets
type FirebaseStorage struct {
	client *fbstorage.Client
}

// NewFirebaseStorage creates a FirebaseStorage
func NewFirebaseStorage(client *fbstorage.Client) *FirebaseStorage {
	return &FirebaseStorage{client: client}
}

func (s *FirebaseStorage) object(bucketID, fileID string) (*storage.ObjectHandle, error) {
	bucket, err := s.client.Bucket(bucketID)
	if err != nil {
		return nil, wrap(fmt.Sprintf("bucket %s", bucketID), err)
	}
	return bucket.Object(fileID), nil
}

// CreateFile streams upload into a new object named fileID
func (s *FirebaseStorage) CreateFile(ctx context.Context, bucketID, fileID string, upload models.Upload) (*models.File, error) {
	obj, err := s.object(bucketID, fileID)
	if err != nil {
		return nil, err
	}

	rc, err := upload.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer rc.Close()

	w := obj.If(storage.Conditions{DoesNotExist: true}).NewWriter(ctx)
	w.ContentType = upload.ContentType
	w.Metadata = map[string]string{metadataName: upload.Name}

	if _, err := io.Copy(w, rc); err != nil {
		_ = w.Close()
		return nil, wrap(fmt.Sprintf("write %s/%s", bucketID, fileID), err)
	}
	if err := w.Close(); err != nil {
		return nil, wrap(fmt.Sprintf("write %s/%s", bucketID, fileID), err)
	}
	return fileFromAttrs(bucketID, w.Attrs()), nil
}

// GetFile reads object metadata
func (s *FirebaseStorage) GetFile(ctx context.Context, bucketID, fileID string) (*models.File, error) {
	obj, err := s.object(bucketID, fileID)
	if err != nil {
		return nil, err
	}
	attrs, err := obj.Attrs(ctx)
	if err != nil {
		return nil, wrap(fmt.Sprintf("stat %s/%s", bucketID, fileID), err)
	}
	return fileFromAttrs(bucketID, attrs), nil
}

// GetFileView opens the object for reading
func (s *FirebaseStorage) GetFileView(ctx context.Context, bucketID, fileID string) (io.ReadCloser, *models.File, error) {
	obj, err := s.object(bucketID, fileID)
	if err != nil {
		return nil, nil, err
	}
	attrs, err := obj.Attrs(ctx)
	if err != nil {
		return nil, nil, wrap(fmt.Sprintf("stat %s/%s", bucketID, fileID), err)
	}
	r, err := obj.Generation(attrs.Generation).NewReader(ctx)
	if err != nil {
		return nil, nil, wrap(fmt.Sprintf("read %s/%s", bucketID, fileID), err)
	}
	return r, fileFromAttrs(bucketID, attrs), nil
}

// DeleteFile deletes the object
func (s *FirebaseStorage) DeleteFile(ctx context.Context, bucketID, fileID string) error {
	obj, err := s.object(bucketID, fileID)
	if err != nil {
		return err
	}
	if err := obj.Delete(ctx); err != nil {
		return wrap(fmt.Sprintf("delete %s/%s", bucketID, fileID), err)
	}
	return nil
}

func fileFromAttrs(bucketID string, attrs *storage.ObjectAttrs) *models.File {
	name := attrs.Metadata[metadataName]
	if name == "" {
		name = attrs.Name
	}
	return &models.File{
		ID:           attrs.Name,
		BucketID:     bucketID,
		Name:         name,
		MimeType:     attrs.ContentType,
		SizeOriginal: attrs.Size,
		CreatedAt:    attrs.Created,
	}
}
