package services

import (
	"context"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/AcademiaHub/module-service/internal/events"
	"github.com/AcademiaHub/module-service/internal/repositories"
	"github.com/AcademiaHub/module-service/internal/validator"
)

type gradingService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
	publisher events.EventPublisher
}

func NewGradingService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, v *validator.Validator, publisher events.EventPublisher) GradingService {
	return &gradingService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: v,
		publisher: publisher,
	}
}

// SetStatus closes out (or re-grades) a student's enrollment. The teacher
// must be assigned to the module; an enrollment can move between pass and
// fail but never back to active.
func (s *gradingService) SetStatus(ctx context.Context, teacherID string, moduleID uint, studentID string, req *SetStatusRequest) (*EnrollmentResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrValidationFailed, err.Error())
	}

	assigned, err := s.repo.Teaching().Exists(ctx, s.db, teacherID, moduleID)
	if err != nil {
		return nil, fmt.Errorf("failed to check teaching assignment: %w", err)
	}
	if !assigned {
		return nil, NewPermissionError(teacherID, "enrollment", "grade", "not assigned to module")
	}

	if err := s.repo.Enrollment().SetStatus(ctx, s.db, studentID, moduleID, req.Status); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrEnrollmentNotFound
		}
		return nil, fmt.Errorf("failed to set enrollment status: %w", err)
	}

	enrollment, err := s.repo.Enrollment().Get(ctx, s.db, studentID, moduleID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload enrollment: %w", err)
	}

	s.logger.Info("enrollment graded",
		"teacher_id", teacherID,
		"student_id", studentID,
		"module_id", moduleID,
		"status", req.Status)
	s.publishGradedEvent(ctx, teacherID, studentID, moduleID, string(req.Status))

	return &EnrollmentResponse{
		StudentID:   enrollment.StudentID,
		ModuleID:    enrollment.ModuleID,
		Status:      enrollment.Status,
		EnrolledAt:  enrollment.CreatedAt,
		CompletedAt: enrollment.CompletedAt,
	}, nil
}

// ListRoster returns a module's enrollments for the grading view. Gated
// the same way as grading itself.
func (s *gradingService) ListRoster(ctx context.Context, teacherID string, moduleID uint) (*EnrollmentListResponse, error) {
	assigned, err := s.repo.Teaching().Exists(ctx, s.db, teacherID, moduleID)
	if err != nil {
		return nil, fmt.Errorf("failed to check teaching assignment: %w", err)
	}
	if !assigned {
		return nil, NewPermissionError(teacherID, "enrollment", "list", "not assigned to module")
	}

	enrollments, total, err := s.repo.Enrollment().ListByModule(ctx, s.db, moduleID, repositories.EnrollmentFilters{})
	if err != nil {
		return nil, fmt.Errorf("failed to list module enrollments: %w", err)
	}

	responses := make([]*EnrollmentResponse, len(enrollments))
	for i, enrollment := range enrollments {
		responses[i] = &EnrollmentResponse{
			StudentID:   enrollment.StudentID,
			ModuleID:    enrollment.ModuleID,
			Status:      enrollment.Status,
			EnrolledAt:  enrollment.CreatedAt,
			CompletedAt: enrollment.CompletedAt,
			Student:     enrollment.Student,
		}
	}

	return &EnrollmentListResponse{
		Enrollments: responses,
		Total:       total,
	}, nil
}

// ListTeachingModules returns the modules the teacher is assigned to
func (s *gradingService) ListTeachingModules(ctx context.Context, teacherID string) (*ModuleListResponse, error) {
	modules, err := s.repo.Teaching().ListModules(ctx, s.db, teacherID)
	if err != nil {
		return nil, fmt.Errorf("failed to list teaching modules: %w", err)
	}

	responses := make([]*ModuleResponse, len(modules))
	for i, module := range modules {
		responses[i] = &ModuleResponse{Module: module, SeatsLeft: module.Capacity - module.EnrolledCount}
	}

	return &ModuleListResponse{
		Modules: responses,
		Total:   int64(len(responses)),
		Page:    1,
		Size:    len(responses),
	}, nil
}

func (s *gradingService) publishGradedEvent(ctx context.Context, teacherID, studentID string, moduleID uint, status string) {
	if s.publisher == nil {
		return
	}
	err := s.publisher.Publish(ctx, events.TopicEnrollments, events.EventEnrollmentGraded, map[string]any{
		"teacher_id": teacherID,
		"student_id": studentID,
		"module_id":  moduleID,
		"status":     status,
	})
	if err != nil {
		s.logger.Warn("failed to publish grading event", "error", err)
	}
}
