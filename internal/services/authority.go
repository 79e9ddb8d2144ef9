package services

import (
	"context"
	"log/slog"

	"gorm.io/gorm"

	"github.com/AcademiaHub/module-service/internal/models"
	"github.com/AcademiaHub/module-service/internal/repositories"
)

// roleAuthority answers role questions from stored user rows. Every check
// fails closed: an unknown user, a missing role row or a lookup error all
// mean "no".
type roleAuthority struct {
	repo   repositories.Repository
	db     *gorm.DB
	logger *slog.Logger
}

func NewRoleAuthority(repo repositories.Repository, db *gorm.DB, logger *slog.Logger) AuthorityService {
	return &roleAuthority{
		repo:   repo,
		db:     db,
		logger: logger,
	}
}

// HasRole reports whether the user holds the given role. A super admin
// passes every role check before the stored role is even consulted.
func (s *roleAuthority) HasRole(ctx context.Context, userID string, role models.RoleName) bool {
	user, err := s.repo.User().GetByID(ctx, s.db, userID)
	if err != nil {
		if !repositories.IsNotFoundError(err) {
			s.logger.Warn("role check failed, denying", "user_id", userID, "error", err)
		}
		return false
	}

	name := user.RoleName()
	if name == models.RoleSuperAdmin {
		return true
	}

	return name == role
}

// IsAdmin reports whether the user holds the admin role
func (s *roleAuthority) IsAdmin(ctx context.Context, userID string) bool {
	return s.HasRole(ctx, userID, models.RoleAdmin)
}

// RequireAdmin returns a permission error unless the user is an admin
func (s *roleAuthority) RequireAdmin(ctx context.Context, userID string, resource, action string) error {
	if s.IsAdmin(ctx, userID) {
		return nil
	}
	return NewPermissionError(userID, resource, action, "admin role required")
}

// RequireRole returns a permission error unless the user holds the role
func (s *roleAuthority) RequireRole(ctx context.Context, userID string, role models.RoleName, resource, action string) error {
	if s.HasRole(ctx, userID, role) {
		return nil
	}
	return NewPermissionError(userID, resource, action, string(role)+" role required")
}
