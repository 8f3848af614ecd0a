package backend

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strconv"

	"github.com/anonto42/snapgram/backend/internal/models"
	"go.uber.org/zap"
)

// Preview parameters requested for post images
const (
	PreviewWidth   = 2000
	PreviewHeight  = 2000
	PreviewGravity = "center"
	PreviewQuality = 100
)

// UploadFile stores upload under a fresh file ID in the configured bucket
func (b *Backend) UploadFile(ctx context.Context, upload models.Upload) (*models.File, error) {
	const op = "uploadFile"

	file, err := b.storage.CreateFile(ctx, b.cfg.BucketID, b.newID(), upload)
	if err != nil {
		return nil, b.fail(op, err, zap.String("name", upload.Name))
	}
	return file, nil
}

// GetFilePreview returns the preview URL of an existing file
func (b *Backend) GetFilePreview(ctx context.Context, fileID string) (string, error) {
	const op = "getFilePreview"

	if _, err := b.storage.GetFile(ctx, b.cfg.BucketID, fileID); err != nil {
		return "", b.fail(op, err, zap.String("file_id", fileID))
	}
	return b.PreviewURL(b.cfg.BucketID, fileID, PreviewWidth, PreviewHeight, PreviewGravity, PreviewQuality), nil
}

// PreviewURL builds the link served by the preview handler
func (b *Backend) PreviewURL(bucketID, fileID string, width, height int, gravity string, quality int) string {
	q := url.Values{}
	q.Set("width", strconv.Itoa(width))
	q.Set("height", strconv.Itoa(height))
	q.Set("gravity", gravity)
	q.Set("quality", strconv.Itoa(quality))
	return fmt.Sprintf("%s/api/v1/storage/buckets/%s/files/%s/preview?%s",
		b.cfg.PublicURL, url.PathEscape(bucketID), url.PathEscape(fileID), q.Encode())
}

// GetFileView opens the stored bytes of a file
func (b *Backend) GetFileView(ctx context.Context, bucketID, fileID string) (io.ReadCloser, *models.File, error) {
	const op = "getFileView"

	rc, file, err := b.storage.GetFileView(ctx, bucketID, fileID)
	if err != nil {
		return nil, nil, b.fail(op, err, zap.String("bucket_id", bucketID), zap.String("file_id", fileID))
	}
	return rc, file, nil
}

// DeleteFile removes a file from the configured bucket
func (b *Backend) DeleteFile(ctx context.Context, fileID string) error {
	const op = "deleteFile"

	if err := b.storage.DeleteFile(ctx, b.cfg.BucketID, fileID); err != nil {
		return b.fail(op, err, zap.String("file_id", fileID))
	}
	return nil
}
