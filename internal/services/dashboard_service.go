package services

import (
	"context"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/AcademiaHub/module-service/internal/repositories"
)

type dashboardService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	authority AuthorityService
}

func NewDashboardService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, authority AuthorityService) DashboardService {
	return &dashboardService{
		repo:      repo,
		db:        db,
		logger:    logger,
		authority: authority,
	}
}

// PlatformStats returns platform-wide counts. Admin only.
func (s *dashboardService) PlatformStats(ctx context.Context, actorID string) (*repositories.PlatformStats, error) {
	if err := s.authority.RequireAdmin(ctx, actorID, "stats", "read"); err != nil {
		return nil, err
	}

	stats, err := s.repo.Dashboard().GetPlatformStats(ctx, s.db)
	if err != nil {
		return nil, fmt.Errorf("failed to load platform stats: %w", err)
	}

	return stats, nil
}
