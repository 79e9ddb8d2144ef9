package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"github.com/AcademiaHub/module-service/internal/repositories"
)

type reportService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	authority AuthorityService
}

func NewReportService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, authority AuthorityService) ReportService {
	return &reportService{
		repo:      repo,
		db:        db,
		logger:    logger,
		authority: authority,
	}
}

// ModuleRoster builds an xlsx roster of a module's enrollments. Admin
// only.
func (s *reportService) ModuleRoster(ctx context.Context, moduleID uint, actorID string) (*RosterExport, error) {
	if err := s.authority.RequireAdmin(ctx, actorID, "roster", "export"); err != nil {
		return nil, err
	}

	module, err := s.repo.Module().GetByID(ctx, s.db, moduleID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrModuleNotFound
		}
		return nil, fmt.Errorf("failed to load module: %w", err)
	}

	entries, err := s.repo.Enrollment().Roster(ctx, s.db, moduleID)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Roster"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"Student ID", "Full Name", "Email", "Status", "Enrolled At", "Completed At"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return nil, fmt.Errorf("failed to write roster header: %w", err)
		}
	}

	for row, entry := range entries {
		status := "active"
		if entry.Status != nil {
			status = string(*entry.Status)
		}
		completed := ""
		if entry.CompletedAt != nil {
			completed = entry.CompletedAt.Format(time.RFC3339)
		}

		values := []interface{}{
			entry.StudentID,
			entry.FullName,
			entry.Email,
			status,
			entry.EnrolledAt.Format(time.RFC3339),
			completed,
		}
		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return nil, fmt.Errorf("failed to write roster row: %w", err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to render roster workbook: %w", err)
	}

	s.logger.Info("roster exported", "module_id", moduleID, "rows", len(entries), "actor_id", actorID)

	return &RosterExport{
		FileName: fmt.Sprintf("module-%d-roster-%s.xlsx", module.ID, time.Now().Format("2006-01-02")),
		Data:     buf.Bytes(),
	}, nil
}
