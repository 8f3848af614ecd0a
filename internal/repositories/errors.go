package repositories

import (
	"errors"
	"fmt"
	"net/http"

	"cloud.google.com/go/storage"
	"firebase.google.com/go/v4/auth"
	"firebase.google.com/go/v4/errorutils"
	"github.com/anonto42/snapgram/backend/internal/backend"
	"go.mongodb.org/mongo-driver/mongo"
	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"gorm.io/gorm"
)

// wrap attaches the backend sentinel matching err so the façade can classify it
func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	if sentinel := sentinelFor(err); sentinel != nil {
		return fmt.Errorf("%s: %w: %w", op, sentinel, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func sentinelFor(err error) error {
	switch {
	case auth.IsUserNotFound(err),
		errors.Is(err, storage.ErrObjectNotExist),
		errors.Is(err, storage.ErrBucketNotExist),
		errors.Is(err, mongo.ErrNoDocuments),
		errors.Is(err, gorm.ErrRecordNotFound),
		errorutils.IsNotFound(err):
		return backend.ErrNotFound
	case auth.IsEmailAlreadyExists(err),
		auth.IsUIDAlreadyExists(err),
		mongo.IsDuplicateKeyError(err),
		errorutils.IsAlreadyExists(err),
		errorutils.IsConflict(err):
		return backend.ErrConflict
	case auth.IsUserDisabled(err),
		auth.IsIDTokenInvalid(err),
		auth.IsIDTokenRevoked(err),
		errorutils.IsUnauthenticated(err),
		errorutils.IsPermissionDenied(err):
		return backend.ErrUnauthorized
	case errorutils.IsInvalidArgument(err):
		return backend.ErrRejected
	case mongo.IsTimeout(err),
		mongo.IsNetworkError(err),
		errorutils.IsUnavailable(err),
		errorutils.IsDeadlineExceeded(err):
		return backend.ErrUnavailable
	}

	if s, ok := status.FromError(err); ok && s.Code() != codes.OK && s.Code() != codes.Unknown {
		switch s.Code() {
		case codes.NotFound:
			return backend.ErrNotFound
		case codes.AlreadyExists, codes.Aborted:
			return backend.ErrConflict
		case codes.PermissionDenied, codes.Unauthenticated:
			return backend.ErrUnauthorized
		case codes.InvalidArgument, codes.FailedPrecondition, codes.OutOfRange:
			return backend.ErrRejected
		case codes.Unavailable, codes.DeadlineExceeded, codes.ResourceExhausted:
			return backend.ErrUnavailable
		}
	}

	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch {
		case gerr.Code == http.StatusNotFound:
			return backend.ErrNotFound
		case gerr.Code == http.StatusConflict:
			return backend.ErrConflict
		case gerr.Code == http.StatusUnauthorized, gerr.Code == http.StatusForbidden:
			return backend.ErrUnauthorized
		case gerr.Code == http.StatusTooManyRequests, gerr.Code >= http.StatusInternalServerError:
			return backend.ErrUnavailable
		case gerr.Code >= http.StatusBadRequest:
			return backend.ErrRejected
		}
	}
	return nil
}
