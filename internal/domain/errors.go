package domain

import "errors"

// Caller errors
var (
	ErrUnauthenticated = errors.New("not authenticated")
)

// Lookup errors
var (
	ErrUserNotFound  = errors.New("user not found")
	ErrHabitNotFound = errors.New("habit not found")
	ErrProofNotFound = errors.New("proof not found")
)

// Request validation errors, all matching ErrBadRequest
var (
	ErrBadRequest   = errors.New("bad request")
	ErrMissingMedia = badRequest("no file uploaded")
	ErrEmptyTitle   = badRequest("title is required")
)

// ErrUpstream matches failures of the persistence or blob store.
var ErrUpstream = errors.New("upstream failure")

type requestError struct {
	msg string
}

func badRequest(msg string) error {
	return &requestError{msg: msg}
}

func (e *requestError) Error() string { return e.msg }

func (e *requestError) Is(target error) bool { return target == ErrBadRequest }

// UpstreamError wraps an error returned by an external store.
type UpstreamError struct {
	Op  string
	Err error
}

func Upstream(op string, err error) error {
	if err == nil {
		return nil
	}
	return &UpstreamError{Op: op, Err: err}
}

func (e *UpstreamError) Error() string { return e.Op + ": " + e.Err.Error() }

func (e *UpstreamError) Unwrap() error { return e.Err }

func (e *UpstreamError) Is(target error) bool { return target == ErrUpstream }
