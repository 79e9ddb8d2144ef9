package repositories

import (
	"context"

	"gorm.io/gorm"
)

// DashboardRepository interface for aggregate platform statistics
type DashboardRepository interface {
	GetPlatformStats(ctx context.Context, tx *gorm.DB) (*PlatformStats, error)
}
