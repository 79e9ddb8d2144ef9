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

type DashboardPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewDashboardPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.DashboardRepository {
	return &DashboardPostgreSQL{
		db:           db,
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

func (d *DashboardPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return d.db
}

// GetPlatformStats aggregates platform-wide counts, cached under the
// stats prefix so any enrollment or module write invalidates it.
func (d *DashboardPostgreSQL) GetPlatformStats(ctx context.Context, tx *gorm.DB) (*repositories.PlatformStats, error) {
	var stats repositories.PlatformStats

	err := d.cacheManager.Stats.CacheOrExecute(ctx, "platform", &stats, cache.StatsCacheConfig.TTL, func() (interface{}, error) {
		var computed repositories.PlatformStats
		db := d.getDB(tx).WithContext(ctx)

		roleCounts := []struct {
			role models.RoleName
			dest *int64
		}{
			{models.RoleStudent, &computed.TotalStudents},
			{models.RoleTeacher, &computed.TotalTeachers},
		}
		for _, rc := range roleCounts {
			err := db.Model(&models.User{}).
				Joins("JOIN user_roles ON user_roles.id = users.role_id").
				Where("user_roles.name = ?", rc.role).
				Count(rc.dest).Error
			if err != nil {
				return nil, fmt.Errorf("failed to count %s users: %w", rc.role, err)
			}
		}

		if err := db.Model(&models.Module{}).Count(&computed.TotalModules).Error; err != nil {
			return nil, fmt.Errorf("failed to count modules: %w", err)
		}
		if err := db.Model(&models.Module{}).Where("available = ?", true).Count(&computed.AvailableModules).Error; err != nil {
			return nil, fmt.Errorf("failed to count available modules: %w", err)
		}

		if err := db.Model(&models.Enrollment{}).Where("status IS NULL").Count(&computed.ActiveEnrollments).Error; err != nil {
			return nil, fmt.Errorf("failed to count active enrollments: %w", err)
		}
		if err := db.Model(&models.Enrollment{}).Where("status = ?", models.EnrollmentPass).Count(&computed.PassedEnrollments).Error; err != nil {
			return nil, fmt.Errorf("failed to count passed enrollments: %w", err)
		}
		if err := db.Model(&models.Enrollment{}).Where("status = ?", models.EnrollmentFail).Count(&computed.FailedEnrollments).Error; err != nil {
			return nil, fmt.Errorf("failed to count failed enrollments: %w", err)
		}

		if graded := computed.PassedEnrollments + computed.FailedEnrollments; graded > 0 {
			computed.PassRate = float64(computed.PassedEnrollments) / float64(graded)
		}

		return &computed, nil
	})

	if err != nil {
		return nil, err
	}

	return &stats, nil
}
