package repositories

import (
	"time"

	"github.com/AcademiaHub/module-service/internal/models"
)

// ===== SHARED FILTER STRUCTS =====

type ModuleFilters struct {
	Available *bool   `json:"available"`
	TeacherID *string `json:"teacher_id"`
	Search    *string `json:"search"`
	Limit     int     `json:"limit"`
	Offset    int     `json:"offset"`
	SortBy    string  `json:"sort_by"`    // "created_at", "title", "code"
	SortOrder string  `json:"sort_order"` // "asc", "desc"
}

type EnrollmentFilters struct {
	Status    *models.EnrollmentStatus `json:"status"`
	Active    *bool                    `json:"active"`
	StudentID *string                  `json:"student_id"`
	ModuleID  *uint                    `json:"module_id"`
	Limit     int                      `json:"limit"`
	Offset    int                      `json:"offset"`
}

type ChatHistoryFilters struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// ===== SHARED STATISTICS STRUCTS =====

type PlatformStats struct {
	TotalStudents     int64 `json:"total_students"`
	TotalTeachers     int64 `json:"total_teachers"`
	TotalModules      int64 `json:"total_modules"`
	AvailableModules  int64 `json:"available_modules"`
	ActiveEnrollments int64 `json:"active_enrollments"`
	PassedEnrollments int64 `json:"passed_enrollments"`
	FailedEnrollments int64 `json:"failed_enrollments"`

	// PassRate is passed / (passed + failed), 0 when nothing is graded yet.
	PassRate float64 `json:"pass_rate"`
}

// RosterEntry is one row of a module's enrollment roster.
type RosterEntry struct {
	StudentID   string                   `json:"student_id"`
	FullName    string                   `json:"full_name"`
	Email       string                   `json:"email"`
	Status      *models.EnrollmentStatus `json:"status"`
	EnrolledAt  time.Time                `json:"enrolled_at"`
	CompletedAt *time.Time               `json:"completed_at"`
}
