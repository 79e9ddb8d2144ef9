package models

import (
	"time"

	"gorm.io/gorm"
)

type RoleName string

const (
	RoleAdmin      RoleName = "admin"
	RoleTeacher    RoleName = "teacher"
	RoleStudent    RoleName = "student"
	RoleSuperAdmin RoleName = "super-admin"
)

// UserRole is a static reference row; created lazily the first time a role
// name is referenced.
type UserRole struct {
	ID   uint     `json:"id" gorm:"primaryKey"`
	Name RoleName `json:"name" gorm:"uniqueIndex;not null;size:50"`
}

func (UserRole) TableName() string {
	return "user_roles"
}

type User struct {
	ID           string `json:"id" gorm:"primaryKey;size:255"`
	FullName     string `json:"full_name" gorm:"not null;size:100"`
	Email        string `json:"email" gorm:"uniqueIndex;not null;size:255"`
	PasswordHash string `json:"-" gorm:"size:255"`

	RoleID *uint     `json:"role_id" gorm:"index"`
	Role   *UserRole `json:"role,omitempty" gorm:"foreignKey:RoleID"`

	// Old students keep read access to their completed modules but may not
	// create new enrollments.
	IsOldStudent bool `json:"is_old_student" gorm:"not null;default:false"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	Enrollments []Enrollment         `json:"enrollments,omitempty" gorm:"foreignKey:StudentID"`
	Teaching    []TeachingAssignment `json:"teaching,omitempty" gorm:"foreignKey:TeacherID"`
}

func (User) TableName() string {
	return "users"
}

// RoleName returns the user's role name, or "" when no role row is attached.
// Absence of a role grants nothing; callers must treat "" as unauthorized.
func (u *User) RoleName() RoleName {
	if u == nil || u.Role == nil {
		return ""
	}
	return u.Role.Name
}
