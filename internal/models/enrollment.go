package models

import (
	"time"
)

type EnrollmentStatus string

const (
	EnrollmentPass EnrollmentStatus = "pass"
	EnrollmentFail EnrollmentStatus = "fail"
)

// Enrollment is the student↔module pivot carried as a first-class entity.
// The composite primary key enforces the one-row-per-(student,module)
// invariant at the storage layer. Status nil means the enrollment is still
// active; pass/fail are terminal.
type Enrollment struct {
	StudentID string `json:"student_id" gorm:"primaryKey;size:255"`
	ModuleID  uint   `json:"module_id" gorm:"primaryKey"`

	Status      *EnrollmentStatus `json:"status" gorm:"size:10;index"`
	CompletedAt *time.Time        `json:"completed_at"`
	CreatedAt   time.Time         `json:"created_at"`

	Student *User   `json:"student,omitempty" gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE"`
	Module  *Module `json:"module,omitempty" gorm:"foreignKey:ModuleID;constraint:OnDelete:CASCADE"`
}

func (Enrollment) TableName() string {
	return "module_student"
}

// Active reports whether the enrollment has not been graded yet.
func (e *Enrollment) Active() bool {
	return e.Status == nil
}

// TeachingAssignment grants a teacher grading rights over a module's
// enrollments. Pure authorization scoping; no status of its own.
type TeachingAssignment struct {
	TeacherID string    `json:"teacher_id" gorm:"primaryKey;size:255"`
	ModuleID  uint      `json:"module_id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`

	Teacher *User   `json:"teacher,omitempty" gorm:"foreignKey:TeacherID;constraint:OnDelete:CASCADE"`
	Module  *Module `json:"module,omitempty" gorm:"foreignKey:ModuleID;constraint:OnDelete:CASCADE"`
}

func (TeachingAssignment) TableName() string {
	return "module_teacher"
}
