package models

import (
	"bytes"
	"io"
	"time"
)

// File is the storage-side record of an uploaded blob
type File struct {
	ID           string    `json:"id"`
	BucketID     string    `json:"bucketId"`
	Name         string    `json:"name"`
	MimeType     string    `json:"mimeType"`
	SizeOriginal int64     `json:"sizeOriginal"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Upload is a file chosen in a form, not yet sent to storage
type Upload struct {
	Name        string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
}

// NewUploadFromBytes wraps an in-memory payload as an Upload
func NewUploadFromBytes(name, contentType string, data []byte) Upload {
	return Upload{
		Name:        name,
		ContentType: contentType,
		Size:        int64(len(data)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}
