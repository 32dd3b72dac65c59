// Package rpc carries request/reply and fire-and-forget messaging between
// services over NATS subjects ("patterns"). Responses travel in a small
// JSON envelope so typed errors survive the process boundary.
package rpc

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dtroode/shopkeeper-server/internal/model"
)

// Message patterns served by the user service.
const (
	PatternUserRegister = "user.register"
	PatternUserVerify   = "user.verify"
	PatternUserRollback = "user.rollback"
)

// Error codes crossing the wire.
const (
	codeNotFound  = "NOT_FOUND"
	codeDuplicate = "DUPLICATE"
	codeInvalid   = "INVALID"
	codeInternal  = "INTERNAL"
)

type envelope struct {
	Data  json.RawMessage `json:"data,omitempty"`
	Error *wireError      `json:"error,omitempty"`
}

type wireError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// encodeError maps a service error onto its wire form. Anything
// unrecognized becomes an opaque internal error: store details never leave
// the owning service.
func encodeError(err error) *wireError {
	var dup *model.DuplicateError
	switch {
	case errors.As(err, &dup):
		return &wireError{Code: codeDuplicate, Message: dup.Error(), Field: dup.Field}
	case errors.Is(err, model.ErrNotFound):
		return &wireError{Code: codeNotFound, Message: model.ErrNotFound.Error()}
	case errors.Is(err, model.ErrInvalidRequest):
		return &wireError{Code: codeInvalid, Message: err.Error()}
	default:
		return &wireError{Code: codeInternal, Message: "internal error"}
	}
}

// decodeError restores the typed error on the calling side.
func decodeError(we *wireError) error {
	switch we.Code {
	case codeDuplicate:
		return &model.DuplicateError{Field: we.Field}
	case codeNotFound:
		return model.ErrNotFound
	case codeInvalid:
		return fmt.Errorf("%w: %s", model.ErrInvalidRequest, we.Message)
	default:
		return fmt.Errorf("remote call failed: %s", we.Message)
	}
}
