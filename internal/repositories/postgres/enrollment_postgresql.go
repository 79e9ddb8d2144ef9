package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/AcademiaHub/module-service/internal/cache"
	"github.com/AcademiaHub/module-service/internal/models"
	"github.com/AcademiaHub/module-service/internal/repositories"
)

type EnrollmentPostgreSQL struct {
	db           *gorm.DB
	helpers      *SharedHelpers
	cacheManager *cache.CacheManager
}

func NewEnrollmentPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.EnrollmentRepository {
	return &EnrollmentPostgreSQL{
		db:           db,
		helpers:      NewSharedHelpers(db),
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

func (e *EnrollmentPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return e.db
}

// Create inserts an enrollment row. The composite primary key on
// (student_id, module_id) makes a duplicate insert fail at the database,
// which backstops the duplicate check in the service layer.
func (e *EnrollmentPostgreSQL) Create(ctx context.Context, tx *gorm.DB, enrollment *models.Enrollment) error {
	if err := e.getDB(tx).WithContext(ctx).Create(enrollment).Error; err != nil {
		return fmt.Errorf("failed to create enrollment: %w", err)
	}

	cache.InvalidateModuleCache(ctx, e.cacheManager, enrollment.ModuleID)

	return nil
}

// Get retrieves a single enrollment by its composite key
func (e *EnrollmentPostgreSQL) Get(ctx context.Context, tx *gorm.DB, studentID string, moduleID uint) (*models.Enrollment, error) {
	var enrollment models.Enrollment
	err := e.getDB(tx).WithContext(ctx).
		Where("student_id = ? AND module_id = ?", studentID, moduleID).
		First(&enrollment).Error
	if err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// Delete removes an enrollment regardless of its status
func (e *EnrollmentPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, studentID string, moduleID uint) error {
	result := e.getDB(tx).WithContext(ctx).
		Where("student_id = ? AND module_id = ?", studentID, moduleID).
		Delete(&models.Enrollment{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete enrollment: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	cache.InvalidateModuleCache(ctx, e.cacheManager, moduleID)

	return nil
}

// SetStatus marks an enrollment pass or fail and stamps completed_at
func (e *EnrollmentPostgreSQL) SetStatus(ctx context.Context, tx *gorm.DB, studentID string, moduleID uint, status models.EnrollmentStatus) error {
	result := e.getDB(tx).WithContext(ctx).
		Model(&models.Enrollment{}).
		Where("student_id = ? AND module_id = ?", studentID, moduleID).
		Updates(map[string]interface{}{
			"status":       status,
			"completed_at": time.Now(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to set enrollment status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	cache.InvalidateModuleCache(ctx, e.cacheManager, moduleID)

	return nil
}

// ListByStudent retrieves a student's enrollments with module preloaded
func (e *EnrollmentPostgreSQL) ListByStudent(ctx context.Context, tx *gorm.DB, studentID string, filters repositories.EnrollmentFilters) ([]*models.Enrollment, int64, error) {
	filters.StudentID = &studentID
	query := e.getDB(tx).WithContext(ctx).Model(&models.Enrollment{})
	query = e.helpers.ApplyEnrollmentFilters(query, filters)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count enrollments: %w", err)
	}

	query = query.Preload("Module").Order("created_at DESC")
	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	var enrollments []*models.Enrollment
	if err := query.Find(&enrollments).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list enrollments: %w", err)
	}

	return enrollments, total, nil
}

// ListByModule retrieves a module's enrollments with student preloaded
func (e *EnrollmentPostgreSQL) ListByModule(ctx context.Context, tx *gorm.DB, moduleID uint, filters repositories.EnrollmentFilters) ([]*models.Enrollment, int64, error) {
	filters.ModuleID = &moduleID
	query := e.getDB(tx).WithContext(ctx).Model(&models.Enrollment{})
	query = e.helpers.ApplyEnrollmentFilters(query, filters)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count enrollments: %w", err)
	}

	query = query.Preload("Student").Order("created_at ASC")
	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	var enrollments []*models.Enrollment
	if err := query.Find(&enrollments).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list enrollments: %w", err)
	}

	return enrollments, total, nil
}

// Roster returns one row per enrolled student for export
func (e *EnrollmentPostgreSQL) Roster(ctx context.Context, tx *gorm.DB, moduleID uint) ([]*repositories.RosterEntry, error) {
	var entries []*repositories.RosterEntry
	err := e.getDB(tx).WithContext(ctx).
		Model(&models.Enrollment{}).
		Select("module_student.student_id, users.full_name, users.email, module_student.status, module_student.created_at as enrolled_at, module_student.completed_at").
		Joins("JOIN users ON users.id = module_student.student_id").
		Where("module_student.module_id = ?", moduleID).
		Order("users.full_name ASC").
		Scan(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load module roster: %w", err)
	}
	return entries, nil
}

// CountActiveByStudent counts the student's enrollments still in progress
func (e *EnrollmentPostgreSQL) CountActiveByStudent(ctx context.Context, tx *gorm.DB, studentID string) (int64, error) {
	var count int64
	err := e.getDB(tx).WithContext(ctx).
		Model(&models.Enrollment{}).
		Where("student_id = ? AND status IS NULL", studentID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count active enrollments: %w", err)
	}
	return count, nil
}

// CountActiveByModule counts seats currently taken in a module
func (e *EnrollmentPostgreSQL) CountActiveByModule(ctx context.Context, tx *gorm.DB, moduleID uint) (int64, error) {
	var count int64
	err := e.getDB(tx).WithContext(ctx).
		Model(&models.Enrollment{}).
		Where("module_id = ? AND status IS NULL", moduleID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count active enrollments: %w", err)
	}
	return count, nil
}

// Exists checks whether any enrollment row links the student and module
func (e *EnrollmentPostgreSQL) Exists(ctx context.Context, tx *gorm.DB, studentID string, moduleID uint) (bool, error) {
	var count int64
	err := e.getDB(tx).WithContext(ctx).
		Model(&models.Enrollment{}).
		Where("student_id = ? AND module_id = ?", studentID, moduleID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check enrollment existence: %w", err)
	}
	return count > 0, nil
}
