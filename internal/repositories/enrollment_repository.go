package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/AcademiaHub/module-service/internal/models"
)

// EnrollmentRepository interface for the student-module ledger
type EnrollmentRepository interface {
	// Basic operations
	Create(ctx context.Context, tx *gorm.DB, enrollment *models.Enrollment) error
	Get(ctx context.Context, tx *gorm.DB, studentID string, moduleID uint) (*models.Enrollment, error)
	Delete(ctx context.Context, tx *gorm.DB, studentID string, moduleID uint) error

	// SetStatus marks an enrollment pass or fail and stamps completed_at.
	SetStatus(ctx context.Context, tx *gorm.DB, studentID string, moduleID uint, status models.EnrollmentStatus) error

	// List operations
	ListByStudent(ctx context.Context, tx *gorm.DB, studentID string, filters EnrollmentFilters) ([]*models.Enrollment, int64, error)
	ListByModule(ctx context.Context, tx *gorm.DB, moduleID uint, filters EnrollmentFilters) ([]*models.Enrollment, int64, error)
	Roster(ctx context.Context, tx *gorm.DB, moduleID uint) ([]*RosterEntry, error)

	// Counts and checks
	CountActiveByStudent(ctx context.Context, tx *gorm.DB, studentID string) (int64, error)
	CountActiveByModule(ctx context.Context, tx *gorm.DB, moduleID uint) (int64, error)
	Exists(ctx context.Context, tx *gorm.DB, studentID string, moduleID uint) (bool, error)
}

// TeachingRepository interface for teacher-module assignments
type TeachingRepository interface {
	Attach(ctx context.Context, tx *gorm.DB, assignment *models.TeachingAssignment) error
	Detach(ctx context.Context, tx *gorm.DB, teacherID string, moduleID uint) error
	Exists(ctx context.Context, tx *gorm.DB, teacherID string, moduleID uint) (bool, error)
	ListModules(ctx context.Context, tx *gorm.DB, teacherID string) ([]*models.Module, error)
	ListTeachers(ctx context.Context, tx *gorm.DB, moduleID uint) ([]*models.User, error)
}
