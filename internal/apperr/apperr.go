// Package apperr defines the closed set of failures a submission run can end with.
// Every error that leaves the service layer can be classified with KindOf.
package apperr

import (
	"errors"
	"fmt"
)

// Kind is the coarse classification of a failure.
type Kind string

const (
	KindParse      Kind = "parse"
	KindValidation Kind = "validation"
	KindAborted    Kind = "aborted"
	KindNotFound   Kind = "not_found"
	KindRemote     Kind = "remote"
)

// Sentinel errors, one per kind, so callers can use errors.Is.
var (
	ErrParse      = errors.New("parse error")
	ErrValidation = errors.New("validation error")
	ErrAborted    = errors.New("aborted by user")
	ErrNotFound   = errors.New("not found")
	ErrRemote     = errors.New("remote error")
)

var sentinels = map[Kind]error{
	KindParse:      ErrParse,
	KindValidation: ErrValidation,
	KindAborted:    ErrAborted,
	KindNotFound:   ErrNotFound,
	KindRemote:     ErrRemote,
}

// Error wraps an underlying cause with the operation and the offending subject
// (a date token, a task name, a label).
type Error struct {
	Kind    Kind
	Op      string
	Subject string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	base := e.Op
	if e.Subject != "" {
		base += fmt.Sprintf(" %q", e.Subject)
	}
	if e.Err != nil {
		base += ": " + e.Err.Error()
	}
	return base
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is lets errors.Is(err, ErrNotFound) match any Error of that kind.
func (e *Error) Is(target error) bool {
	return e != nil && sentinels[e.Kind] == target
}

// RemoteError is a failed call to the time-tracking service. Status is 0 when
// no response was received at all.
type RemoteError struct {
	Op     string
	Method string
	Path   string
	Status int
	Body   string
	Err    error
}

func (e *RemoteError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Status == 0 {
		return fmt.Sprintf("%s: %s %s: %v", e.Op, e.Method, e.Path, e.Err)
	}
	msg := fmt.Sprintf("%s: %s %s returned HTTP %d", e.Op, e.Method, e.Path, e.Status)
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

func (e *RemoteError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func (e *RemoteError) Is(target error) bool {
	return e != nil && target == ErrRemote
}

// Parse builds a parse failure for an unrecognized input.
func Parse(op, subject string, err error) error {
	return &Error{Kind: KindParse, Op: op, Subject: subject, Err: err}
}

// Validation builds a failure for input that parsed but breaks a rule.
func Validation(op, subject string, err error) error {
	return &Error{Kind: KindValidation, Op: op, Subject: subject, Err: err}
}

// Aborted builds the failure returned when the user declines to continue.
func Aborted(op, subject string) error {
	return &Error{Kind: KindAborted, Op: op, Subject: subject, Err: ErrAborted}
}

// NotFound builds a failure for a name that has no remote match.
func NotFound(op, subject string, err error) error {
	return &Error{Kind: KindNotFound, Op: op, Subject: subject, Err: err}
}

// KindOf classifies err. ok is false for errors outside the taxonomy.
func KindOf(err error) (kind Kind, ok bool) {
	var re *RemoteError
	if errors.As(err, &re) {
		return KindRemote, true
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind, true
	}
	return "", false
}

// IsKind reports whether err belongs to kind.
func IsKind(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
