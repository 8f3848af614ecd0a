package repositories

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/anonto42/snapgram/backend/internal/backend"
	"github.com/anonto42/snapgram/backend/internal/models"
)

type memoryObject struct {
	file models.File
	data []byte
}

// MemoryStorage implements backend.Storage in process memory
type MemoryStorage struct {
	mu      sync.RWMutex
	buckets map[string]map[string]memoryObject
}

// NewMemoryStorage creates an empty MemoryStorage
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{buckets: make(map[string]map[string]memoryObject)}
}

// CreateFile reads upload fully and stores it under fileID
func (s *MemoryStorage) CreateFile(_ context.Context, bucketID, fileID string, upload models.Upload) (*models.File, error) {
	rc, err := upload.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	bucket, ok := s.buckets[bucketID]
	if !ok {
		bucket = make(map[string]memoryObject)
		s.buckets[bucketID] = bucket
	}
	if _, exists := bucket[fileID]; exists {
		return nil, fmt.Errorf("file %s/%s: %w", bucketID, fileID, backend.ErrConflict)
	}

	file := models.File{
		ID:           fileID,
		BucketID:     bucketID,
		Name:         upload.Name,
		MimeType:     upload.ContentType,
		SizeOriginal: int64(len(data)),
		CreatedAt:    time.Now(),
	}
	bucket[fileID] = memoryObject{file: file, data: data}
	return &file, nil
}

// GetFile returns the metadata of a stored file
func (s *MemoryStorage) GetFile(_ context.Context, bucketID, fileID string) (*models.File, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	obj, ok := s.buckets[bucketID][fileID]
	if !ok {
		return nil, fmt.Errorf("file %s/%s: %w", bucketID, fileID, backend.ErrNotFound)
	}
	file := obj.file
	return &file, nil
}

// GetFileView returns a reader over the stored bytes
func (s *MemoryStorage) GetFileView(_ context.Context, bucketID, fileID string) (io.ReadCloser, *models.File, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	obj, ok := s.buckets[bucketID][fileID]
	if !ok {
		return nil, nil, fmt.Errorf("file %s/%s: %w", bucketID, fileID, backend.ErrNotFound)
	}
	file := obj.file
	return io.NopCloser(bytes.NewReader(obj.data)), &file, nil
}

// DeleteFile removes a stored file
func (s *MemoryStorage) DeleteFile(_ context.Context, bucketID, fileID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.buckets[bucketID][fileID]; !ok {
		return fmt.Errorf("file %s/%s: %w", bucketID, fileID, backend.ErrNotFound)
	}
	delete(s.buckets[bucketID], fileID)
	return nil
}
