package model

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound reports that a referenced record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrInvalidCredentials reports a login password mismatch.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrTokenIssuance reports that signing one of the session tokens failed.
	ErrTokenIssuance = errors.New("token issuance failed")
	// ErrTransactionAborted is what a caller sees when account provisioning
	// was rolled back. The underlying cause is deliberately not exposed.
	ErrTransactionAborted = errors.New("transaction aborted")
	// ErrSlugExhausted reports that every bounded slug generation attempt
	// collided with an existing slug.
	ErrSlugExhausted = errors.New("slug could not be generated")
	// ErrInvalidRequest reports a caller contract violation.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrDocumentMissing reports that an index document targeted by a
	// partial update does not exist. Non-fatal on update paths: the index
	// self-heals on the next full projection.
	ErrDocumentMissing = errors.New("index document missing")
	// ErrTransientStore reports an external store failure that did not
	// invalidate the primary write.
	ErrTransientStore = errors.New("store temporarily unavailable")
)

// DuplicateError reports a unique constraint violation together with the
// field that caused it.
type DuplicateError struct {
	Field string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("duplicate value for %s", e.Field)
}

// IsDuplicate reports whether err is a unique constraint violation on the
// given field. An empty field matches any duplicate.
func IsDuplicate(err error, field string) bool {
	var dup *DuplicateError
	if !errors.As(err, &dup) {
		return false
	}
	return field == "" || dup.Field == field
}
