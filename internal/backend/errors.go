package backend

import (
	"context"
	"errors"
	"fmt"
)

// Sentinel errors drivers wrap so the façade can classify failures
var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrConflict     = errors.New("conflict")
	ErrRejected     = errors.New("rejected by backend")
	ErrUnavailable  = errors.New("backend unavailable")
)

// Reason tags why a façade operation did not complete
type Reason string

const (
	ReasonNotFound     Reason = "not_found"
	ReasonUnauthorized Reason = "unauthorized"
	ReasonConflict     Reason = "conflict"
	ReasonRejected     Reason = "rejected"
	ReasonUnavailable  Reason = "unavailable"
	ReasonUnknown      Reason = "unknown"
)

// Failure is the error every façade operation returns
type Failure struct {
	Op     string
	Reason Reason
	Err    error
}

func (f *Failure) Error() string {
	if f.Err == nil {
		return fmt.Sprintf("%s: %s", f.Op, f.Reason)
	}
	return fmt.Sprintf("%s: %s: %v", f.Op, f.Reason, f.Err)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// ReasonOf extracts the failure reason from err, ReasonUnknown if it carries none
func ReasonOf(err error) Reason {
	var f *Failure
	if errors.As(err, &f) {
		return f.Reason
	}
	return classify(err)
}

func classify(err error) Reason {
	switch {
	case errors.Is(err, ErrNotFound):
		return ReasonNotFound
	case errors.Is(err, ErrUnauthorized):
		return ReasonUnauthorized
	case errors.Is(err, ErrConflict):
		return ReasonConflict
	case errors.Is(err, ErrRejected):
		return ReasonRejected
	case errors.Is(err, ErrUnavailable),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return ReasonUnavailable
	}
	return ReasonUnknown
}
