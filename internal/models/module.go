package models

import (
	"time"
)

type Module struct {
	ID          uint    `json:"id" gorm:"primaryKey"`
	Title       string  `json:"title" gorm:"not null;size:255;index" validate:"required,module_title"`
	Code        *string `json:"code" gorm:"size:50" validate:"omitempty,module_code"`
	Description *string `json:"description" gorm:"type:text"`
	Capacity    int     `json:"capacity" gorm:"not null" validate:"required,module_capacity"`
	Available   bool    `json:"available" gorm:"not null;default:true;index"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Enrollments []Enrollment         `json:"enrollments,omitempty" gorm:"foreignKey:ModuleID"`
	Teachers    []TeachingAssignment `json:"teachers,omitempty" gorm:"foreignKey:ModuleID"`

	// Computed fields (not stored)
	EnrolledCount int `json:"enrolled_count" gorm:"-"`
}

func (Module) TableName() string {
	return "modules"
}
