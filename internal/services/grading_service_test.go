package services

import (
	"context"
	"errors"
	"testing"

	"github.com/AcademiaHub/module-service/internal/events"
	"github.com/AcademiaHub/module-service/internal/models"
	"github.com/AcademiaHub/module-service/internal/validator"
)

func newGradingFixture() (*MockRepository, *events.MockEventPublisher, GradingService) {
	repo := NewMockRepository()
	publisher := events.NewMockEventPublisher()
	svc := NewGradingService(repo, nil, testLogger(), validator.New(), publisher)
	return repo, publisher, svc
}

func TestGradingService_SetStatus(t *testing.T) {
	repo, publisher, svc := newGradingFixture()
	repo.AddUser("teacher-1", models.RoleTeacher, false)
	repo.AddUser("student-1", models.RoleStudent, false)
	module := repo.AddModule("Operating Systems", 30, true)
	repo.AddTeaching("teacher-1", module.ID)
	repo.AddEnrollment("student-1", module.ID, nil)

	resp, err := svc.SetStatus(context.Background(), "teacher-1", module.ID, "student-1", &SetStatusRequest{
		Status: models.EnrollmentPass,
	})
	if err != nil {
		t.Fatalf("SetStatus() error = %v", err)
	}
	if resp.Status == nil || *resp.Status != models.EnrollmentPass {
		t.Errorf("status after grading = %v, want pass", resp.Status)
	}
	if resp.CompletedAt == nil {
		t.Error("CompletedAt not stamped on grading")
	}

	if got := publisher.EventsOfType(events.EventEnrollmentGraded); len(got) != 1 {
		t.Errorf("published %d enrollment.graded events, want 1", len(got))
	}
}

func TestGradingService_SetStatusRequiresAssignment(t *testing.T) {
	repo, _, svc := newGradingFixture()
	repo.AddUser("teacher-1", models.RoleTeacher, false)
	repo.AddUser("student-1", models.RoleStudent, false)
	module := repo.AddModule("Operating Systems", 30, true)
	repo.AddEnrollment("student-1", module.ID, nil)

	_, err := svc.SetStatus(context.Background(), "teacher-1", module.ID, "student-1", &SetStatusRequest{
		Status: models.EnrollmentPass,
	})
	if !errors.Is(err, ErrForbidden) {
		t.Errorf("SetStatus() without assignment error = %v, want ErrForbidden", err)
	}

	// Enrollment must be untouched.
	enrollment, _ := repo.Enrollment().Get(context.Background(), nil, "student-1", module.ID)
	if enrollment.Status != nil {
		t.Error("enrollment was graded despite missing teaching assignment")
	}
}

func TestGradingService_SetStatusMissingEnrollment(t *testing.T) {
	repo, _, svc := newGradingFixture()
	repo.AddUser("teacher-1", models.RoleTeacher, false)
	module := repo.AddModule("Operating Systems", 30, true)
	repo.AddTeaching("teacher-1", module.ID)

	_, err := svc.SetStatus(context.Background(), "teacher-1", module.ID, "ghost", &SetStatusRequest{
		Status: models.EnrollmentFail,
	})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("SetStatus() for missing enrollment error = %v, want ErrNotFound", err)
	}
}

func TestGradingService_Regrade(t *testing.T) {
	repo, _, svc := newGradingFixture()
	repo.AddUser("teacher-1", models.RoleTeacher, false)
	repo.AddUser("student-1", models.RoleStudent, false)
	module := repo.AddModule("Algorithms", 30, true)
	repo.AddTeaching("teacher-1", module.ID)
	failed := models.EnrollmentFail
	repo.AddEnrollment("student-1", module.ID, &failed)

	// fail -> pass is allowed
	resp, err := svc.SetStatus(context.Background(), "teacher-1", module.ID, "student-1", &SetStatusRequest{
		Status: models.EnrollmentPass,
	})
	if err != nil {
		t.Fatalf("re-grade fail->pass error = %v", err)
	}
	if resp.Status == nil || *resp.Status != models.EnrollmentPass {
		t.Errorf("status after re-grade = %v, want pass", resp.Status)
	}
}

func TestGradingService_SetStatusRejectsActive(t *testing.T) {
	repo, _, svc := newGradingFixture()
	repo.AddUser("teacher-1", models.RoleTeacher, false)
	repo.AddUser("student-1", models.RoleStudent, false)
	module := repo.AddModule("Algorithms", 30, true)
	repo.AddTeaching("teacher-1", module.ID)
	repo.AddEnrollment("student-1", module.ID, nil)

	// There is no path back to active and no other status value.
	for _, status := range []models.EnrollmentStatus{"active", "", "passed"} {
		_, err := svc.SetStatus(context.Background(), "teacher-1", module.ID, "student-1", &SetStatusRequest{
			Status: status,
		})
		if !errors.Is(err, ErrValidationFailed) {
			t.Errorf("SetStatus(%q) error = %v, want ErrValidationFailed", status, err)
		}
	}
}

func TestGradingService_ListRoster(t *testing.T) {
	repo, _, svc := newGradingFixture()
	repo.AddUser("teacher-1", models.RoleTeacher, false)
	repo.AddUser("student-1", models.RoleStudent, false)
	repo.AddUser("student-2", models.RoleStudent, false)
	module := repo.AddModule("Databases", 30, true)
	repo.AddTeaching("teacher-1", module.ID)
	repo.AddEnrollment("student-1", module.ID, nil)
	repo.AddEnrollment("student-2", module.ID, nil)

	roster, err := svc.ListRoster(context.Background(), "teacher-1", module.ID)
	if err != nil {
		t.Fatalf("ListRoster() error = %v", err)
	}
	if len(roster.Enrollments) != 2 {
		t.Errorf("roster size = %d, want 2", len(roster.Enrollments))
	}

	if _, err := svc.ListRoster(context.Background(), "teacher-2", module.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("ListRoster() for unassigned teacher error = %v, want ErrForbidden", err)
	}
}

func TestGradingService_ListTeachingModules(t *testing.T) {
	repo, _, svc := newGradingFixture()
	repo.AddUser("teacher-1", models.RoleTeacher, false)
	m1 := repo.AddModule("First", 30, true)
	repo.AddModule("Unassigned", 30, true)
	repo.AddTeaching("teacher-1", m1.ID)

	resp, err := svc.ListTeachingModules(context.Background(), "teacher-1")
	if err != nil {
		t.Fatalf("ListTeachingModules() error = %v", err)
	}
	if len(resp.Modules) != 1 || resp.Modules[0].ID != m1.ID {
		t.Errorf("ListTeachingModules() = %v, want only module %d", resp.Modules, m1.ID)
	}
}
