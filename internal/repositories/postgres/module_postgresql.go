package postgres

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/AcademiaHub/module-service/internal/cache"
	"github.com/AcademiaHub/module-service/internal/models"
	"github.com/AcademiaHub/module-service/internal/repositories"
)

type ModulePostgreSQL struct {
	db           *gorm.DB
	helpers      *SharedHelpers
	cacheManager *cache.CacheManager
}

func NewModulePostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.ModuleRepository {
	return &ModulePostgreSQL{
		db:           db,
		helpers:      NewSharedHelpers(db),
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

// getDB returns the transaction DB if provided, otherwise the default DB
func (m *ModulePostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return m.db
}

// Create creates a new module and invalidates list caches
func (m *ModulePostgreSQL) Create(ctx context.Context, tx *gorm.DB, module *models.Module) error {
	if err := m.getDB(tx).WithContext(ctx).Create(module).Error; err != nil {
		return fmt.Errorf("failed to create module: %w", err)
	}
	cache.SafeInvalidatePattern(ctx, m.cacheManager.Module, "list:*")
	cache.SafeInvalidatePattern(ctx, m.cacheManager.Stats, "*")

	return nil
}

// GetByID retrieves a module by ID with caching
func (m *ModulePostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Module, error) {
	cacheKey := fmt.Sprintf("id:%d", id)
	var module models.Module

	err := m.cacheManager.Module.CacheOrExecute(ctx, cacheKey, &module, cache.ModuleCacheConfig.TTL, func() (interface{}, error) {
		var dbModule models.Module
		err := m.getDB(tx).WithContext(ctx).
			Preload("Teachers").
			First(&dbModule, id).Error
		if err != nil {
			return nil, err
		}

		if err := m.attachEnrolledCount(ctx, tx, &dbModule); err != nil {
			return nil, err
		}
		return &dbModule, nil
	})

	if err != nil {
		return nil, err
	}

	return &module, nil
}

// Update updates mutable module fields and invalidates cache.
// Availability is only touched through SetAvailability.
func (m *ModulePostgreSQL) Update(ctx context.Context, tx *gorm.DB, module *models.Module) error {
	result := m.getDB(tx).WithContext(ctx).
		Model(&models.Module{}).
		Where("id = ?", module.ID).
		Updates(map[string]interface{}{
			"title":       module.Title,
			"code":        module.Code,
			"description": module.Description,
			"capacity":    module.Capacity,
			"updated_at":  module.UpdatedAt,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update module: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	cache.InvalidateModuleCache(ctx, m.cacheManager, module.ID)

	return nil
}

// Delete hard deletes a module. Enrollments and teaching assignments go
// with it through ON DELETE CASCADE.
func (m *ModulePostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	result := m.getDB(tx).WithContext(ctx).Unscoped().Delete(&models.Module{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete module: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	cache.InvalidateModuleCache(ctx, m.cacheManager, id)

	return nil
}

// List retrieves modules with filters and pagination
func (m *ModulePostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.ModuleFilters) ([]*models.Module, int64, error) {
	query := m.getDB(tx).WithContext(ctx).Model(&models.Module{})
	query = m.helpers.ApplyModuleFilters(query, filters)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count modules: %w", err)
	}

	query = m.helpers.ApplyPaginationAndSort(query, filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset)

	var modules []*models.Module
	if err := query.Find(&modules).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list modules: %w", err)
	}

	if err := m.attachEnrolledCounts(ctx, tx, modules); err != nil {
		return nil, 0, err
	}

	return modules, total, nil
}

// ListAvailable returns available modules the student can still join: the
// module is marked available, has a free seat, and the student holds no
// enrollment in it yet.
func (m *ModulePostgreSQL) ListAvailable(ctx context.Context, tx *gorm.DB, studentID string, filters repositories.ModuleFilters) ([]*models.Module, int64, error) {
	base := m.getDB(tx).WithContext(ctx).Model(&models.Module{}).
		Where("modules.available = ?", true).
		Where("modules.capacity > (?)",
			m.getDB(tx).Model(&models.Enrollment{}).
				Select("COUNT(*)").
				Where("module_student.module_id = modules.id AND module_student.status IS NULL")).
		Where("NOT EXISTS (?)",
			m.getDB(tx).Model(&models.Enrollment{}).
				Select("1").
				Where("module_student.module_id = modules.id AND module_student.student_id = ?", studentID))

	if filters.Search != nil && *filters.Search != "" {
		like := "%" + *filters.Search + "%"
		base = base.Where("modules.title ILIKE ? OR modules.code ILIKE ?", like, like)
	}

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count available modules: %w", err)
	}

	query := m.helpers.ApplyPaginationAndSort(base, filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset)

	var modules []*models.Module
	if err := query.Find(&modules).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list available modules: %w", err)
	}

	if err := m.attachEnrolledCounts(ctx, tx, modules); err != nil {
		return nil, 0, err
	}

	return modules, total, nil
}

// SetAvailability toggles the available flag and invalidates cache
func (m *ModulePostgreSQL) SetAvailability(ctx context.Context, tx *gorm.DB, id uint, available bool) error {
	result := m.getDB(tx).WithContext(ctx).
		Model(&models.Module{}).
		Where("id = ?", id).
		Update("available", available)
	if result.Error != nil {
		return fmt.Errorf("failed to set module availability: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	cache.InvalidateModuleCache(ctx, m.cacheManager, id)

	return nil
}

// ExistsByID checks module existence with a short-lived cache
func (m *ModulePostgreSQL) ExistsByID(ctx context.Context, tx *gorm.DB, id uint) (bool, error) {
	cacheKey := fmt.Sprintf("module:%d", id)
	var exists bool

	err := m.cacheManager.Exists.CacheOrExecute(ctx, cacheKey, &exists, cache.ExistsCacheConfig.TTL, func() (interface{}, error) {
		var count int64
		err := m.getDB(tx).WithContext(ctx).
			Model(&models.Module{}).
			Where("id = ?", id).
			Count(&count).Error
		if err != nil {
			return nil, fmt.Errorf("failed to check module existence: %w", err)
		}
		return count > 0, nil
	})

	return exists, err
}

func (m *ModulePostgreSQL) attachEnrolledCount(ctx context.Context, tx *gorm.DB, module *models.Module) error {
	var count int64
	err := m.getDB(tx).WithContext(ctx).
		Model(&models.Enrollment{}).
		Where("module_id = ? AND status IS NULL", module.ID).
		Count(&count).Error
	if err != nil {
		return fmt.Errorf("failed to count enrollments: %w", err)
	}
	module.EnrolledCount = int(count)
	return nil
}

func (m *ModulePostgreSQL) attachEnrolledCounts(ctx context.Context, tx *gorm.DB, modules []*models.Module) error {
	if len(modules) == 0 {
		return nil
	}

	ids := make([]uint, len(modules))
	for i, module := range modules {
		ids[i] = module.ID
	}

	type moduleCount struct {
		ModuleID uint
		Count    int
	}
	var counts []moduleCount
	err := m.getDB(tx).WithContext(ctx).
		Model(&models.Enrollment{}).
		Select("module_id, COUNT(*) as count").
		Where("module_id IN ? AND status IS NULL", ids).
		Group("module_id").
		Scan(&counts).Error
	if err != nil {
		return fmt.Errorf("failed to count enrollments: %w", err)
	}

	byModule := make(map[uint]int, len(counts))
	for _, c := range counts {
		byModule[c.ModuleID] = c.Count
	}
	for _, module := range modules {
		module.EnrolledCount = byModule[module.ID]
	}
	return nil
}
