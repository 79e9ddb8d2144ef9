package services

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/AcademiaHub/module-service/internal/models"
)

func newReportFixture() (*MockRepository, ReportService) {
	repo := NewMockRepository()
	authority := NewRoleAuthority(repo, nil, testLogger())
	return repo, NewReportService(repo, nil, testLogger(), authority)
}

func TestReportService_ModuleRoster(t *testing.T) {
	repo, svc := newReportFixture()
	repo.AddUser("admin-1", models.RoleAdmin, false)
	repo.AddUser("student-1", models.RoleStudent, false)
	repo.AddUser("student-2", models.RoleStudent, false)
	module := repo.AddModule("Databases", 10, true)

	pass := models.EnrollmentPass
	repo.AddEnrollment("student-1", module.ID, nil)
	repo.AddEnrollment("student-2", module.ID, &pass)

	export, err := svc.ModuleRoster(context.Background(), module.ID, "admin-1")
	if err != nil {
		t.Fatalf("ModuleRoster() error = %v", err)
	}
	if !strings.HasSuffix(export.FileName, ".xlsx") {
		t.Errorf("FileName = %q, want .xlsx suffix", export.FileName)
	}

	// The workbook must open and carry a header plus one row per enrollment.
	f, err := excelize.OpenReader(bytes.NewReader(export.Data))
	if err != nil {
		t.Fatalf("exported data is not a valid workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Roster")
	if err != nil {
		t.Fatalf("GetRows() error = %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("workbook has %d rows, want header + 2 enrollments", len(rows))
	}
	if rows[0][0] != "Student ID" {
		t.Errorf("header cell = %q, want %q", rows[0][0], "Student ID")
	}
	if rows[1][3] != "active" || rows[2][3] != "pass" {
		t.Errorf("status column = %q/%q, want active/pass", rows[1][3], rows[2][3])
	}
}

func TestReportService_ModuleRosterRequiresAdmin(t *testing.T) {
	repo, svc := newReportFixture()
	repo.AddUser("teacher-1", models.RoleTeacher, false)
	module := repo.AddModule("Databases", 10, true)

	if _, err := svc.ModuleRoster(context.Background(), module.ID, "teacher-1"); !errors.Is(err, ErrForbidden) {
		t.Errorf("ModuleRoster() as teacher error = %v, want ErrForbidden", err)
	}
}

func TestReportService_ModuleRosterMissingModule(t *testing.T) {
	repo, svc := newReportFixture()
	repo.AddUser("admin-1", models.RoleAdmin, false)

	if _, err := svc.ModuleRoster(context.Background(), 999, "admin-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("ModuleRoster() for missing module error = %v, want ErrNotFound", err)
	}
}
