package core

import (
	"fmt"

	"github.com/pkg/errors"
)

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

// ValidationError indicates malformed or out-of-range input. It is surfaced
// to the caller as-is; the API layer translates it into a 400 response.
type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

// ReferenceError indicates a foreign key that does not resolve
// (unknown student, course or assessment ID).
type ReferenceError struct {
	Resource string
	ID       string
}

func NewReferenceError(resource, id string) error {
	return &ReferenceError{Resource: resource, ID: id}
}

func (err ReferenceError) Error() string {
	return fmt.Sprintf("%s not found: %s", err.Resource, err.ID)
}

// ConfigError indicates a malformed configuration, e.g. a grade boundary
// table whose thresholds are not strictly descending.
type ConfigError struct {
	Err error
}

func NewConfigError(format string, args ...interface{}) error {
	return &ConfigError{Err: fmt.Errorf(format, args...)}
}

func (err ConfigError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

func IsConfigError(err error) bool {
	_, ok := errors.Cause(err).(*ConfigError)
	return ok
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
