package core

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrNegativeAmount      = errors.New("amount cannot be negative")
	ErrEmptyName           = errors.New("name is required")
	ErrEmptyDescription    = errors.New("description is required")
	ErrEmptyTitle          = errors.New("title is required")
	ErrInvalidDate         = errors.New("invalid date")
	ErrInvalidMonth        = errors.New("invalid month")
	ErrInvalidYear         = errors.New("invalid year")
	ErrInvalidCategoryType = errors.New("category type must be 'expense' or 'income'")
	ErrTargetBeforeStart   = errors.New("target date must be after start date")
	ErrInvalidEmail        = errors.New("invalid email")
	ErrWeakPassword        = errors.New("password must be at least 6 characters")
	ErrFieldTooLong        = errors.New("value too long")
	ErrMissingCategory     = errors.New("category is required")

	errMissingCredentials = errors.New("email and password are required")
)

// ValidationError reports malformed or missing input.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// AuthenticationError reports a missing, invalid or expired session, or bad credentials.
type AuthenticationError struct {
	Reason string
}

func (e *AuthenticationError) Error() string { return e.Reason }

// NotFoundError is returned both for absent rows and rows owned by someone else.
type NotFoundError struct {
	Entity string
}

func (e *NotFoundError) Error() string { return e.Entity + " not found" }

// ConflictError reports a violated per-user uniqueness constraint.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

// StoreError wraps an unexpected storage failure. Its detail is logged, never returned to clients.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }

func (e *StoreError) Unwrap() error { return e.Err }

// Invalid builds a ValidationError for field.
func Invalid(field string, err error) error {
	return &ValidationError{Field: field, Err: err}
}

// NotFound builds a NotFoundError for entity.
func NotFound(entity string) error {
	return &NotFoundError{Entity: entity}
}

// Conflict builds a ConflictError.
func Conflict(format string, args ...any) error {
	return &ConflictError{Message: fmt.Sprintf(format, args...)}
}

// Unauthenticated builds an AuthenticationError.
func Unauthenticated(reason string) error {
	return &AuthenticationError{Reason: reason}
}

// StoreFailure wraps err as a StoreError unless it already belongs to the taxonomy.
func StoreFailure(op string, err error) error {
	if err == nil {
		return nil
	}
	if IsDomainError(err) {
		return err
	}
	return &StoreError{Op: op, Err: err}
}

// IsDomainError reports whether err is one of the typed taxonomy errors.
func IsDomainError(err error) bool {
	var (
		ve *ValidationError
		ae *AuthenticationError
		ne *NotFoundError
		ce *ConflictError
		se *StoreError
	)
	return errors.As(err, &ve) || errors.As(err, &ae) || errors.As(err, &ne) ||
		errors.As(err, &ce) || errors.As(err, &se)
}
