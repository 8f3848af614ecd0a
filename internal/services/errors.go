package services

import (
	"errors"

	"github.com/anonto42/snapgram/backend/internal/backend"
)

// Toasts shown when a submission does not complete
const (
	ToastCreateFailed = "Post could not be uploaded. Please try again !"
	ToastUpdateFailed = "Something went wrong. Please try again!"
	ToastPending      = "Your previous post is still uploading."
)

var (
	// ErrSubmissionPending is returned while another create or update of the same user is in flight
	ErrSubmissionPending = errors.New("submission pending")
	// ErrPostRequired is returned for an update without the post being edited
	ErrPostRequired = errors.New("update requires the existing post")
)

// ValidationError carries per-field messages of a rejected form
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return "invalid post form"
}

// SubmitError is a submission that failed after validation
type SubmitError struct {
	Toast string
	// Redirect is set when the client should navigate away despite the failure
	Redirect string
	Err      error
}

func (e *SubmitError) Error() string {
	return e.Toast + ": " + e.Err.Error()
}

func (e *SubmitError) Unwrap() error {
	return e.Err
}

// Reason is the backend failure reason behind the error
func (e *SubmitError) Reason() backend.Reason {
	return backend.ReasonOf(e.Err)
}
