package services

import (
	"errors"
	"fmt"

	"github.com/studyforge/practice-service/internal/validator"
)

// ===== SENTINEL ERRORS =====

var (
	ErrTaskNotFound   = errors.New("task not found")
	ErrExamNotFound   = errors.New("exam not found")
	ErrUserNotFound   = errors.New("user not found")
	ErrResultNotFound = errors.New("result not found")

	ErrExamNameTaken = errors.New("exam name already in use")
	ErrEmptyBatch    = errors.New("batch contains no items")
)

// ===== PERMISSION ERRORS =====

// PermissionError carries enough detail to log an access denial and to
// render a 403 without leaking resource internals.
type PermissionError struct {
	UserID     string
	ResourceID uint
	Resource   string
	Action     string
	Reason     string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("user %s cannot %s %s %d: %s", e.UserID, e.Action, e.Resource, e.ResourceID, e.Reason)
}

func NewPermissionError(userID string, resourceID uint, resource, action, reason string) *PermissionError {
	return &PermissionError{
		UserID:     userID,
		ResourceID: resourceID,
		Resource:   resource,
		Action:     action,
		Reason:     reason,
	}
}

func IsPermissionError(err error) bool {
	var pe *PermissionError
	return errors.As(err, &pe)
}

// ===== VALIDATION ERRORS =====

// ValidationFailedError wraps field-level validation failures so
// handlers can render them as a structured 400 body.
type ValidationFailedError struct {
	Errors validator.ValidationErrors
}

func (e *ValidationFailedError) Error() string {
	return fmt.Sprintf("validation failed: %s", e.Errors.Error())
}

func NewValidationError(errs validator.ValidationErrors) *ValidationFailedError {
	return &ValidationFailedError{Errors: errs}
}

func IsValidationError(err error) bool {
	var ve *ValidationFailedError
	if errors.As(err, &ve) {
		return true
	}
	var errs validator.ValidationErrors
	return errors.As(err, &errs)
}

// IsNotFoundError reports whether err maps to a 404 at the API layer.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrTaskNotFound) ||
		errors.Is(err, ErrExamNotFound) ||
		errors.Is(err, ErrUserNotFound) ||
		errors.Is(err, ErrResultNotFound)
}
