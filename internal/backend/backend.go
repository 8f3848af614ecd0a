// Package backend is the façade over the hosted backend service. Every exported
// operation is a single logical call to the remote service; failures are logged
// once and returned as *Failure so callers can branch on a reason.
package backend

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Config names the backend resources the façade talks to
type Config struct {
	UsersCollectionID string
	PostsCollectionID string
	SavesCollectionID string
	BucketID          string
	// PublicURL is the externally reachable base URL of this server, used for
	// preview and avatar links.
	PublicURL  string
	SessionTTL time.Duration
}

// Backend is the façade. It is safe for concurrent use when its ports are.
type Backend struct {
	cfg      Config
	accounts Accounts
	db       Database
	storage  Storage
	sessions Sessions
	users    UserCache
	index    PostIndex
	logger   *zap.Logger
	newID    func() string
}

// Option customizes a Backend
type Option func(*Backend)

// WithPostIndex enables SearchPosts and keeps the index in step with post writes
func WithPostIndex(index PostIndex) Option {
	return func(b *Backend) { b.index = index }
}

// WithIDGenerator replaces the unique ID source
func WithIDGenerator(fn func() string) Option {
	return func(b *Backend) { b.newID = fn }
}

// New creates a Backend over the given ports
func New(cfg Config, accounts Accounts, db Database, storage Storage, sessions Sessions, users UserCache, logger *zap.Logger, opts ...Option) *Backend {
	if logger == nil {
		logger = zap.NewNop()
	}
	b := &Backend{
		cfg:      cfg,
		accounts: accounts,
		db:       db,
		storage:  storage,
		sessions: sessions,
		users:    users,
		logger:   logger.Named("backend"),
		newID:    uniqueID,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Config returns the resource configuration
func (b *Backend) Config() Config {
	return b.cfg
}

func uniqueID() string {
	return uuid.NewString()
}

// fail logs err once and wraps it as a *Failure for op. Failures from nested
// operations keep their reason and are not logged again.
func (b *Backend) fail(op string, err error, fields ...zap.Field) error {
	var inner *Failure
	if errors.As(err, &inner) {
		return &Failure{Op: op, Reason: inner.Reason, Err: err}
	}
	f := &Failure{Op: op, Reason: classify(err), Err: err}
	b.logger.Error("operation failed",
		append([]zap.Field{
			zap.String("op", op),
			zap.String("reason", string(f.Reason)),
			zap.Error(err),
		}, fields...)...,
	)
	return f
}
