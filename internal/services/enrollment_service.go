package services

import (
	"context"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/AcademiaHub/module-service/internal/events"
	"github.com/AcademiaHub/module-service/internal/models"
	"github.com/AcademiaHub/module-service/internal/repositories"
)

// MaxActiveEnrollments caps how many modules a student may take at once.
const MaxActiveEnrollments = 4

type enrollmentService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	authority AuthorityService
	publisher events.EventPublisher
}

func NewEnrollmentService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, authority AuthorityService, publisher events.EventPublisher) EnrollmentService {
	return &enrollmentService{
		repo:      repo,
		db:        db,
		logger:    logger,
		authority: authority,
		publisher: publisher,
	}
}

// Enroll joins a student to a module. All policy checks and the insert
// run inside one transaction, in fixed order: old-student, availability,
// active count, duplicate. The student row is read under FOR UPDATE so
// concurrent enrolls by the same student serialize on the cap check; the
// composite primary key backstops the duplicate check.
func (s *enrollmentService) Enroll(ctx context.Context, studentID string, moduleID uint) (*EnrollmentResponse, error) {
	var enrollment *models.Enrollment

	err := s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		student, err := txRepo.User().GetByIDForUpdate(ctx, nil, studentID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrUserNotFound
			}
			return fmt.Errorf("failed to load student: %w", err)
		}
		if student.IsOldStudent {
			return ErrOldStudent
		}

		module, err := txRepo.Module().GetByID(ctx, nil, moduleID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrModuleNotFound
			}
			return fmt.Errorf("failed to load module: %w", err)
		}
		if !module.Available {
			return ErrModuleUnavailable
		}

		activeCount, err := txRepo.Enrollment().CountActiveByStudent(ctx, nil, studentID)
		if err != nil {
			return err
		}
		if activeCount >= MaxActiveEnrollments {
			return ErrEnrollmentLimitReached
		}

		exists, err := txRepo.Enrollment().Exists(ctx, nil, studentID, moduleID)
		if err != nil {
			return err
		}
		if exists {
			return ErrAlreadyEnrolled
		}

		enrollment = &models.Enrollment{
			StudentID: studentID,
			ModuleID:  moduleID,
		}
		if err := txRepo.Enrollment().Create(ctx, nil, enrollment); err != nil {
			if repositories.IsDuplicateError(err) {
				return ErrAlreadyEnrolled
			}
			return err
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("student enrolled", "student_id", studentID, "module_id", moduleID)
	s.publishEnrollmentEvent(ctx, events.EventEnrollmentCreated, studentID, moduleID)

	return s.toResponse(enrollment), nil
}

// ListCurrent returns the student's enrollments still in progress
func (s *enrollmentService) ListCurrent(ctx context.Context, studentID string) (*EnrollmentListResponse, error) {
	active := true
	return s.listByStudent(ctx, studentID, repositories.EnrollmentFilters{Active: &active})
}

// ListCompleted returns the student's graded enrollments
func (s *enrollmentService) ListCompleted(ctx context.Context, studentID string) (*EnrollmentListResponse, error) {
	active := false
	return s.listByStudent(ctx, studentID, repositories.EnrollmentFilters{Active: &active})
}

// ListAvailable returns the modules the student can still join
func (s *enrollmentService) ListAvailable(ctx context.Context, studentID string, filters repositories.ModuleFilters) (*ModuleListResponse, error) {
	modules, total, err := s.repo.Module().ListAvailable(ctx, s.db, studentID, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list available modules: %w", err)
	}

	responses := make([]*ModuleResponse, len(modules))
	for i, module := range modules {
		seatsLeft := module.Capacity - module.EnrolledCount
		if seatsLeft < 0 {
			seatsLeft = 0
		}
		responses[i] = &ModuleResponse{Module: module, SeatsLeft: seatsLeft}
	}

	page := 1
	if filters.Limit > 0 {
		page = filters.Offset/filters.Limit + 1
	}

	return &ModuleListResponse{
		Modules: responses,
		Total:   total,
		Page:    page,
		Size:    len(responses),
	}, nil
}

// Overview assembles the student home view. Old students only get their
// completed modules; current students also get active enrollments and
// what they can still join.
func (s *enrollmentService) Overview(ctx context.Context, studentID string) (*EnrollmentOverviewResponse, error) {
	student, err := s.repo.User().GetByID(ctx, s.db, studentID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load student: %w", err)
	}

	completed, err := s.ListCompleted(ctx, studentID)
	if err != nil {
		return nil, err
	}

	overview := &EnrollmentOverviewResponse{
		IsOldStudent: student.IsOldStudent,
		Completed:    completed.Enrollments,
	}

	if student.IsOldStudent {
		return overview, nil
	}

	current, err := s.ListCurrent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	available, err := s.ListAvailable(ctx, studentID, repositories.ModuleFilters{})
	if err != nil {
		return nil, err
	}

	overview.Current = current.Enrollments
	overview.Available = available.Modules
	overview.CanEnroll = len(current.Enrollments) < MaxActiveEnrollments

	return overview, nil
}

// RemoveFromModule drops a student from a module. Admin only.
func (s *enrollmentService) RemoveFromModule(ctx context.Context, actorID, studentID string, moduleID uint) error {
	if err := s.authority.RequireAdmin(ctx, actorID, "enrollment", "remove"); err != nil {
		return err
	}

	if err := s.repo.Enrollment().Delete(ctx, s.db, studentID, moduleID); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrEnrollmentNotFound
		}
		return fmt.Errorf("failed to remove enrollment: %w", err)
	}

	s.logger.Info("enrollment removed",
		"student_id", studentID,
		"module_id", moduleID,
		"actor_id", actorID)
	s.publishEnrollmentEvent(ctx, events.EventEnrollmentRemoved, studentID, moduleID)

	return nil
}

func (s *enrollmentService) listByStudent(ctx context.Context, studentID string, filters repositories.EnrollmentFilters) (*EnrollmentListResponse, error) {
	enrollments, total, err := s.repo.Enrollment().ListByStudent(ctx, s.db, studentID, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list enrollments: %w", err)
	}

	responses := make([]*EnrollmentResponse, len(enrollments))
	for i, enrollment := range enrollments {
		responses[i] = s.toResponse(enrollment)
	}

	return &EnrollmentListResponse{
		Enrollments: responses,
		Total:       total,
	}, nil
}

func (s *enrollmentService) toResponse(enrollment *models.Enrollment) *EnrollmentResponse {
	return &EnrollmentResponse{
		StudentID:   enrollment.StudentID,
		ModuleID:    enrollment.ModuleID,
		Status:      enrollment.Status,
		EnrolledAt:  enrollment.CreatedAt,
		CompletedAt: enrollment.CompletedAt,
		Module:      enrollment.Module,
		Student:     enrollment.Student,
	}
}

func (s *enrollmentService) publishEnrollmentEvent(ctx context.Context, eventType string, studentID string, moduleID uint) {
	if s.publisher == nil {
		return
	}
	err := s.publisher.Publish(ctx, events.TopicEnrollments, eventType, map[string]any{
		"student_id": studentID,
		"module_id":  moduleID,
	})
	if err != nil {
		s.logger.Warn("failed to publish enrollment event", "event_type", eventType, "error", err)
	}
}
