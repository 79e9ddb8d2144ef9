package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/AcademiaHub/module-service/internal/models"
)

// ModuleRepository interface for module catalog operations
type ModuleRepository interface {
	// Basic CRUD
	Create(ctx context.Context, tx *gorm.DB, module *models.Module) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Module, error)
	Update(ctx context.Context, tx *gorm.DB, module *models.Module) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error

	// List operations
	List(ctx context.Context, tx *gorm.DB, filters ModuleFilters) ([]*models.Module, int64, error)

	// ListAvailable returns available modules the student can still join:
	// not full, not already enrolled.
	ListAvailable(ctx context.Context, tx *gorm.DB, studentID string, filters ModuleFilters) ([]*models.Module, int64, error)

	// Availability toggle
	SetAvailability(ctx context.Context, tx *gorm.DB, id uint, available bool) error

	// Validation and checks
	ExistsByID(ctx context.Context, tx *gorm.DB, id uint) (bool, error)
}
