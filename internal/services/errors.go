package services

import (
	"errors"
	"fmt"
)

// ===== SENTINEL ERRORS =====

var (
	// Generic categories matched by handlers with errors.Is
	ErrValidationFailed = errors.New("validation failed")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrForbidden        = errors.New("forbidden")
	ErrNotFound         = errors.New("not found")
	ErrPolicyViolation  = errors.New("policy violation")
	ErrConflict         = errors.New("conflict")
	ErrUpstream         = errors.New("upstream unavailable")

	// Domain sentinels
	ErrUserNotFound       = fmt.Errorf("user %w", ErrNotFound)
	ErrModuleNotFound     = fmt.Errorf("module %w", ErrNotFound)
	ErrEnrollmentNotFound = fmt.Errorf("enrollment %w", ErrNotFound)
	ErrEmailTaken         = fmt.Errorf("email already registered: %w", ErrConflict)

	// Enrollment policy sentinels
	ErrOldStudent             = fmt.Errorf("old students cannot enroll: %w", ErrPolicyViolation)
	ErrModuleUnavailable      = fmt.Errorf("module is not available: %w", ErrPolicyViolation)
	ErrEnrollmentLimitReached = fmt.Errorf("maximum 4 current modules: %w", ErrPolicyViolation)
	ErrAlreadyEnrolled        = fmt.Errorf("already enrolled: %w", ErrPolicyViolation)
)

// ===== TYPED ERRORS =====

// PermissionError carries who tried what on which resource
type PermissionError struct {
	UserID   string
	Resource string
	Action   string
	Reason   string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("user %s cannot %s %s: %s", e.UserID, e.Action, e.Resource, e.Reason)
}

func (e *PermissionError) Unwrap() error {
	return ErrForbidden
}

func NewPermissionError(userID, resource, action, reason string) *PermissionError {
	return &PermissionError{
		UserID:   userID,
		Resource: resource,
		Action:   action,
		Reason:   reason,
	}
}

// ValidationError carries a single invalid field
type ValidationError struct {
	Field   string
	Message string
	Value   interface{}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidationFailed
}

func NewValidationError(field, message string, value interface{}) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
		Value:   value,
	}
}

// NotFoundError names the missing resource
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}
