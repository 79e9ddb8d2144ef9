package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/AcademiaHub/module-service/internal/events"
	"github.com/AcademiaHub/module-service/internal/models"
	"github.com/AcademiaHub/module-service/internal/repositories"
	"github.com/AcademiaHub/module-service/internal/validator"
)

type userService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
	authority AuthorityService
	publisher events.EventPublisher
}

func NewUserService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, v *validator.Validator, authority AuthorityService, publisher events.EventPublisher) UserService {
	return &userService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: v,
		authority: authority,
		publisher: publisher,
	}
}

// RegisterStudent creates a self-service student account. The role is
// always student regardless of what the caller sends.
func (s *userService) RegisterStudent(ctx context.Context, req *RegisterStudentRequest) (*UserResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrValidationFailed, err.Error())
	}

	return s.createUser(ctx, req.FullName, req.Email, req.Password, models.RoleStudent)
}

// CreateUser creates an account with an arbitrary role. Admin only.
func (s *userService) CreateUser(ctx context.Context, req *CreateUserRequest, actorID string) (*UserResponse, error) {
	if err := s.authority.RequireAdmin(ctx, actorID, "user", "create"); err != nil {
		return nil, err
	}

	if err := s.validator.Validate(req); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrValidationFailed, err.Error())
	}

	return s.createUser(ctx, req.FullName, req.Email, req.Password, req.Role)
}

func (s *userService) createUser(ctx context.Context, fullName, email, password string, role models.RoleName) (*UserResponse, error) {
	taken, err := s.repo.User().ExistsByEmail(ctx, s.db, email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	var user *models.User
	err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		roleRow, err := txRepo.User().EnsureRole(ctx, nil, role)
		if err != nil {
			return err
		}

		user = &models.User{
			ID:           uuid.New().String(),
			FullName:     fullName,
			Email:        email,
			PasswordHash: string(hash),
			RoleID:       &roleRow.ID,
			Role:         roleRow,
		}
		return txRepo.User().Create(ctx, nil, user)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("user created", "user_id", user.ID, "role", role)

	return s.toResponse(user), nil
}

// GetByID returns a user profile
func (s *userService) GetByID(ctx context.Context, id string) (*UserResponse, error) {
	user, err := s.repo.User().GetByID(ctx, s.db, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return s.toResponse(user), nil
}

// List returns users matching the filters. Admin only.
func (s *userService) List(ctx context.Context, filters repositories.UserFilters, actorID string) (*UserListResponse, error) {
	if err := s.authority.RequireAdmin(ctx, actorID, "user", "list"); err != nil {
		return nil, err
	}

	users, total, err := s.repo.User().List(ctx, s.db, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	responses := make([]*UserResponse, len(users))
	for i, user := range users {
		responses[i] = s.toResponse(user)
	}

	return &UserListResponse{Users: responses, Total: total}, nil
}

// Delete removes an account. Enrollments, teaching assignments and chat
// history cascade away with it. Admin only.
func (s *userService) Delete(ctx context.Context, id string, actorID string) error {
	if err := s.authority.RequireAdmin(ctx, actorID, "user", "delete"); err != nil {
		return err
	}

	if err := s.repo.User().Delete(ctx, s.db, id); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to delete user: %w", err)
	}

	s.logger.Info("user deleted", "user_id", id, "actor_id", actorID)

	return nil
}

// ChangeRole moves a user to another role, creating the role row on first
// use. Teaching assignments survive a role change. Admin only.
func (s *userService) ChangeRole(ctx context.Context, userID string, req *ChangeRoleRequest, actorID string) (*UserResponse, error) {
	if err := s.authority.RequireAdmin(ctx, actorID, "user", "change_role"); err != nil {
		return nil, err
	}

	if err := s.validator.Validate(req); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrValidationFailed, err.Error())
	}

	var user *models.User
	err := s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		var err error
		user, err = txRepo.User().GetByID(ctx, nil, userID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrUserNotFound
			}
			return err
		}

		roleRow, err := txRepo.User().EnsureRole(ctx, nil, req.Role)
		if err != nil {
			return err
		}

		if err := txRepo.User().SetRole(ctx, nil, userID, &roleRow.ID); err != nil {
			return err
		}

		user.RoleID = &roleRow.ID
		user.Role = roleRow
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("user role changed", "user_id", userID, "role", req.Role, "actor_id", actorID)
	s.publishUserEvent(ctx, events.EventUserRoleChanged, userID, string(req.Role))

	return s.toResponse(user), nil
}

// AttachModule assigns a teacher to a module. The target user must hold
// the teacher role. Admin only.
func (s *userService) AttachModule(ctx context.Context, req *AttachModuleRequest, actorID string) error {
	if err := s.authority.RequireAdmin(ctx, actorID, "teaching_assignment", "attach"); err != nil {
		return err
	}

	if err := s.validator.Validate(req); err != nil {
		return fmt.Errorf("%w: %s", ErrValidationFailed, err.Error())
	}

	teacher, err := s.repo.User().GetByID(ctx, s.db, req.TeacherID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to load teacher: %w", err)
	}
	if name := teacher.RoleName(); name != models.RoleTeacher && name != models.RoleSuperAdmin {
		return NewValidationError("teacher_id", "user does not hold the teacher role", req.TeacherID)
	}

	exists, err := s.repo.Module().ExistsByID(ctx, s.db, req.ModuleID)
	if err != nil {
		return err
	}
	if !exists {
		return ErrModuleNotFound
	}

	assignment := &models.TeachingAssignment{
		TeacherID: req.TeacherID,
		ModuleID:  req.ModuleID,
	}
	if err := s.repo.Teaching().Attach(ctx, s.db, assignment); err != nil {
		if repositories.IsDuplicateError(err) {
			return fmt.Errorf("teacher already assigned to module: %w", ErrConflict)
		}
		return fmt.Errorf("failed to attach teacher: %w", err)
	}

	s.logger.Info("teacher attached to module",
		"teacher_id", req.TeacherID,
		"module_id", req.ModuleID,
		"actor_id", actorID)

	return nil
}

// DetachModule removes a teaching assignment. Admin only.
func (s *userService) DetachModule(ctx context.Context, teacherID string, moduleID uint, actorID string) error {
	if err := s.authority.RequireAdmin(ctx, actorID, "teaching_assignment", "detach"); err != nil {
		return err
	}

	if err := s.repo.Teaching().Detach(ctx, s.db, teacherID, moduleID); err != nil {
		if repositories.IsNotFoundError(err) {
			return NewNotFoundError("teaching assignment", fmt.Sprintf("%s/%d", teacherID, moduleID))
		}
		return fmt.Errorf("failed to detach teacher: %w", err)
	}

	s.logger.Info("teacher detached from module",
		"teacher_id", teacherID,
		"module_id", moduleID,
		"actor_id", actorID)

	return nil
}

func (s *userService) toResponse(user *models.User) *UserResponse {
	return &UserResponse{
		ID:           user.ID,
		FullName:     user.FullName,
		Email:        user.Email,
		Role:         user.RoleName(),
		IsOldStudent: user.IsOldStudent,
		CreatedAt:    user.CreatedAt,
	}
}

func (s *userService) publishUserEvent(ctx context.Context, eventType, userID, role string) {
	if s.publisher == nil {
		return
	}
	err := s.publisher.Publish(ctx, events.TopicUsers, eventType, map[string]any{
		"user_id": userID,
		"role":    role,
	})
	if err != nil {
		s.logger.Warn("failed to publish user event", "event_type", eventType, "error", err)
	}
}
