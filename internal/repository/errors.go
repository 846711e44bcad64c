// Package repository defines the domain operations over the document store
// and the error values shared by them.  Handlers map these onto HTTP status
// codes: not-found values to 404, ErrUsernameTaken and ErrConflict to 409
// and *StoreError to 500.
package repository

import (
	"errors"
	"fmt"

	"github.com/iliyamo/groovemind/internal/database"
)

// ErrCourseNotFound is returned when no course has the requested id.
var ErrCourseNotFound = errors.New("course not found")

// ErrUserNotFound is returned when no user has the requested username.
var ErrUserNotFound = errors.New("user not found")

// ErrUsernameTaken is returned when registering a username that already
// resolves to a user.
var ErrUsernameTaken = errors.New("username already exists")

// ErrConflict is returned when a write kept racing concurrent writers of
// the same document and was abandoned.  The caller may resubmit.
var ErrConflict = errors.New("conflict")

// StoreError wraps a failure of the underlying store.  Op names the
// repository operation for server-side logs; the message is never shown to
// clients.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }

func (e *StoreError) Unwrap() error { return e.Err }

// wrap classifies err for callers: version conflicts become ErrConflict and
// everything else becomes a *StoreError.
func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, database.ErrVersionConflict) {
		return fmt.Errorf("%s: %w", op, ErrConflict)
	}
	return &StoreError{Op: op, Err: err}
}
