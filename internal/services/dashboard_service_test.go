package services

import (
	"context"
	"errors"
	"testing"

	"github.com/AcademiaHub/module-service/internal/models"
)

func TestDashboardService_PlatformStats(t *testing.T) {
	repo := NewMockRepository()
	authority := NewRoleAuthority(repo, nil, testLogger())
	svc := NewDashboardService(repo, nil, testLogger(), authority)

	repo.AddUser("admin-1", models.RoleAdmin, false)
	repo.AddUser("teacher-1", models.RoleTeacher, false)
	repo.AddUser("student-1", models.RoleStudent, false)
	repo.AddUser("student-2", models.RoleStudent, false)

	open := repo.AddModule("Open", 10, true)
	closed := repo.AddModule("Closed", 10, false)

	pass := models.EnrollmentPass
	fail := models.EnrollmentFail
	repo.AddEnrollment("student-1", open.ID, nil)
	repo.AddEnrollment("student-1", closed.ID, &pass)
	repo.AddEnrollment("student-2", open.ID, &pass)
	repo.AddEnrollment("student-2", closed.ID, &fail)

	stats, err := svc.PlatformStats(context.Background(), "admin-1")
	if err != nil {
		t.Fatalf("PlatformStats() error = %v", err)
	}

	if stats.TotalStudents != 2 || stats.TotalTeachers != 1 {
		t.Errorf("user counts = %d students / %d teachers, want 2/1", stats.TotalStudents, stats.TotalTeachers)
	}
	if stats.TotalModules != 2 || stats.AvailableModules != 1 {
		t.Errorf("module counts = %d total / %d available, want 2/1", stats.TotalModules, stats.AvailableModules)
	}
	if stats.ActiveEnrollments != 1 || stats.PassedEnrollments != 2 || stats.FailedEnrollments != 1 {
		t.Errorf("enrollment counts = %d/%d/%d, want 1 active, 2 passed, 1 failed",
			stats.ActiveEnrollments, stats.PassedEnrollments, stats.FailedEnrollments)
	}
	if want := 2.0 / 3.0; stats.PassRate != want {
		t.Errorf("PassRate = %v, want %v", stats.PassRate, want)
	}
}

func TestDashboardService_PlatformStatsRequiresAdmin(t *testing.T) {
	repo := NewMockRepository()
	authority := NewRoleAuthority(repo, nil, testLogger())
	svc := NewDashboardService(repo, nil, testLogger(), authority)

	repo.AddUser("teacher-1", models.RoleTeacher, false)

	if _, err := svc.PlatformStats(context.Background(), "teacher-1"); !errors.Is(err, ErrForbidden) {
		t.Errorf("PlatformStats() as teacher error = %v, want ErrForbidden", err)
	}
}
