// Package apperr defines the error kinds shared by every domain package.
//
// Domain sentinels are built with one of the constructors below so that
// callers can match either the sentinel itself or its kind:
//
//	var ErrGoalNotFound = apperr.NotFound("goal not found")
//	errors.Is(err, ErrGoalNotFound)   // exact match
//	errors.Is(err, apperr.ErrNotFound) // any not-found error
package apperr

import "errors"

var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrForbidden  = errors.New("forbidden")
	ErrStore      = errors.New("store failure")
)

type kindError struct {
	kind error
	msg  string
}

func (e *kindError) Error() string { return e.msg }
func (e *kindError) Unwrap() error { return e.kind }

func Validation(msg string) error { return &kindError{kind: ErrValidation, msg: msg} }
func NotFound(msg string) error   { return &kindError{kind: ErrNotFound, msg: msg} }
func Conflict(msg string) error   { return &kindError{kind: ErrConflict, msg: msg} }
func Forbidden(msg string) error  { return &kindError{kind: ErrForbidden, msg: msg} }

// Store wraps an unexpected persistence failure. The original error stays
// reachable through errors.Unwrap chains via errors.Join.
func Store(err error) error {
	if err == nil {
		return nil
	}
	if IsDomain(err) {
		return err
	}
	return errors.Join(ErrStore, err)
}

// IsDomain reports whether err carries one of the caller-facing kinds.
func IsDomain(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrForbidden)
}

// Message returns the caller-facing text of a domain error. Store errors and
// anything unrecognised collapse to a generic message.
func Message(err error) string {
	var ke *kindError
	if errors.As(err, &ke) {
		return ke.msg
	}
	if IsDomain(err) {
		return err.Error()
	}
	return "internal error"
}
