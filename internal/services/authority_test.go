package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/AcademiaHub/module-service/internal/models"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRoleAuthority_HasRole(t *testing.T) {
	repo := NewMockRepository()
	repo.AddUser("admin-1", models.RoleAdmin, false)
	repo.AddUser("teacher-1", models.RoleTeacher, false)
	repo.AddUser("super-1", models.RoleSuperAdmin, false)
	repo.AddUser("roleless", "", false)

	authority := NewRoleAuthority(repo, nil, testLogger())
	ctx := context.Background()

	tests := []struct {
		name   string
		userID string
		role   models.RoleName
		want   bool
	}{
		{"admin has admin", "admin-1", models.RoleAdmin, true},
		{"admin lacks teacher", "admin-1", models.RoleTeacher, false},
		{"teacher has teacher", "teacher-1", models.RoleTeacher, true},
		{"super admin passes admin check", "super-1", models.RoleAdmin, true},
		{"super admin passes teacher check", "super-1", models.RoleTeacher, true},
		{"super admin passes student check", "super-1", models.RoleStudent, true},
		{"user without role row denied", "roleless", models.RoleStudent, false},
		{"unknown user denied", "ghost", models.RoleAdmin, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := authority.HasRole(ctx, tt.userID, tt.role); got != tt.want {
				t.Errorf("HasRole(%q, %q) = %v, want %v", tt.userID, tt.role, got, tt.want)
			}
		})
	}
}

func TestRoleAuthority_IsAdmin(t *testing.T) {
	repo := NewMockRepository()
	repo.AddUser("admin-1", models.RoleAdmin, false)
	repo.AddUser("student-1", models.RoleStudent, false)
	repo.AddUser("super-1", models.RoleSuperAdmin, false)

	authority := NewRoleAuthority(repo, nil, testLogger())
	ctx := context.Background()

	if !authority.IsAdmin(ctx, "admin-1") {
		t.Error("IsAdmin(admin-1) = false, want true")
	}
	if authority.IsAdmin(ctx, "student-1") {
		t.Error("IsAdmin(student-1) = true, want false")
	}
	if !authority.IsAdmin(ctx, "super-1") {
		t.Error("IsAdmin(super-1) = false, want true")
	}
	if authority.IsAdmin(ctx, "ghost") {
		t.Error("IsAdmin(ghost) = true, want false")
	}
}

func TestRoleAuthority_RequireAdmin(t *testing.T) {
	repo := NewMockRepository()
	repo.AddUser("admin-1", models.RoleAdmin, false)
	repo.AddUser("student-1", models.RoleStudent, false)

	authority := NewRoleAuthority(repo, nil, testLogger())
	ctx := context.Background()

	if err := authority.RequireAdmin(ctx, "admin-1", "module", "create"); err != nil {
		t.Errorf("RequireAdmin(admin-1) error = %v, want nil", err)
	}

	err := authority.RequireAdmin(ctx, "student-1", "module", "create")
	if err == nil {
		t.Fatal("RequireAdmin(student-1) error = nil, want permission error")
	}
	var permErr *PermissionError
	if !errors.As(err, &permErr) {
		t.Fatalf("RequireAdmin(student-1) error type = %T, want *PermissionError", err)
	}
	if permErr.UserID != "student-1" || permErr.Resource != "module" {
		t.Errorf("PermissionError = %+v, want user student-1 on module", permErr)
	}
}
