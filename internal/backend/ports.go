package backend

import (
	"context"
	"io"
	"time"

	"github.com/anonto42/snapgram/backend/internal/models"
)

// Document is a record stored in a backend collection
type Document struct {
	ID           string
	CollectionID string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Fields       map[string]any
}

// Accounts is the auth side of the remote backend
type Accounts interface {
	Create(ctx context.Context, id, email, password, name string) (*models.Account, error)
	// VerifyPassword checks credentials and returns the matching account
	VerifyPassword(ctx context.Context, email, password string) (*models.Account, error)
	// RevokeSessions invalidates the backend's refresh tokens for an account
	RevokeSessions(ctx context.Context, accountID string) error
	Get(ctx context.Context, accountID string) (*models.Account, error)
}

// Database is the document side of the remote backend
type Database interface {
	CreateDocument(ctx context.Context, collectionID, documentID string, fields map[string]any) (*Document, error)
	UpdateDocument(ctx context.Context, collectionID, documentID string, fields map[string]any) (*Document, error)
	GetDocument(ctx context.Context, collectionID, documentID string) (*Document, error)
	DeleteDocument(ctx context.Context, collectionID, documentID string) error
	ListDocuments(ctx context.Context, collectionID string, queries ...Query) ([]Document, error)
}

// Storage is the blob side of the remote backend
type Storage interface {
	CreateFile(ctx context.Context, bucketID, fileID string, upload models.Upload) (*models.File, error)
	GetFile(ctx context.Context, bucketID, fileID string) (*models.File, error)
	GetFileView(ctx context.Context, bucketID, fileID string) (io.ReadCloser, *models.File, error)
	DeleteFile(ctx context.Context, bucketID, fileID string) error
}

// Sessions issues and revokes the tokens clients present on every request
type Sessions interface {
	Issue(ctx context.Context, account *models.Account) (*models.Session, error)
	Revoke(ctx context.Context, session *models.Session) error
}

// UserCache keeps the current user for the lifetime of a session
type UserCache interface {
	Get(ctx context.Context, sessionID string) (*models.User, error)
	Set(ctx context.Context, sessionID string, user *models.User, ttl time.Duration) error
	Delete(ctx context.Context, sessionID string) error
}

// PostIndex is an optional full-text index over posts
type PostIndex interface {
	Index(ctx context.Context, post *models.Post) error
	Remove(ctx context.Context, postID string) error
	Search(ctx context.Context, term string, limit int) ([]string, error)
}
