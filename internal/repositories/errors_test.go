package repositories

import (
	"errors"
	"fmt"
	"testing"

	"gorm.io/gorm"
)

func TestIsNotFoundError(t *testing.T) {
	wrapped := fmt.Errorf("failed to load module: %w", gorm.ErrRecordNotFound)
	if !IsNotFoundError(wrapped) {
		t.Errorf("IsNotFoundError(%v) = false, want true", wrapped)
	}
	if IsNotFoundError(gorm.ErrDuplicatedKey) {
		t.Error("IsNotFoundError() = true for a duplicate key error")
	}
	if IsNotFoundError(nil) {
		t.Error("IsNotFoundError(nil) = true")
	}
}

// Repository Create calls return the translated gorm.ErrDuplicatedKey
// wrapped with context; classification must see through the wrapping.
func TestIsDuplicateError(t *testing.T) {
	wrapped := fmt.Errorf("failed to create enrollment: %w", gorm.ErrDuplicatedKey)
	if !IsDuplicateError(wrapped) {
		t.Errorf("IsDuplicateError(%v) = false, want true", wrapped)
	}
	if IsDuplicateError(errors.New("connection reset by peer")) {
		t.Error("IsDuplicateError() = true for an unrelated error")
	}
	if IsDuplicateError(nil) {
		t.Error("IsDuplicateError(nil) = true")
	}
}
