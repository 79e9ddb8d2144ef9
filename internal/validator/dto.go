package validator

import (
	"github.com/AcademiaHub/module-service/internal/models"
)

// ModuleCreateRequest represents the request structure for creating modules
type ModuleCreateRequest struct {
	Title       string  `json:"title" validate:"required,module_title"`
	Code        *string `json:"code" validate:"omitempty,module_code"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	Capacity    int     `json:"capacity" validate:"required,module_capacity"`
	Available   *bool   `json:"available"`
}

// ModuleUpdateRequest represents the request structure for updating modules
type ModuleUpdateRequest struct {
	Title       *string `json:"title" validate:"omitempty,module_title"`
	Code        *string `json:"code" validate:"omitempty,module_code"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	Capacity    *int    `json:"capacity" validate:"omitempty,module_capacity"`
}

// RegisterStudentRequest represents self-service student registration
type RegisterStudentRequest struct {
	FullName string `json:"full_name" validate:"required,min=1,max=255"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// CreateUserRequest represents admin-side user creation
type CreateUserRequest struct {
	FullName string          `json:"full_name" validate:"required,min=1,max=255"`
	Email    string          `json:"email" validate:"required,email,max=255"`
	Password string          `json:"password" validate:"required,min=8,max=72"`
	Role     models.RoleName `json:"role" validate:"required,role_name"`
}

// ChangeRoleRequest represents an admin changing a user's role
type ChangeRoleRequest struct {
	Role models.RoleName `json:"role" validate:"required,role_name"`
}

// AttachModuleRequest links a teacher to a module
type AttachModuleRequest struct {
	TeacherID string `json:"teacher_id" validate:"required"`
	ModuleID  uint   `json:"module_id" validate:"required"`
}

// SetStatusRequest represents a teacher grading a student's enrollment
type SetStatusRequest struct {
	Status models.EnrollmentStatus `json:"status" validate:"required,grade_status"`
}

// ChatRequest represents a message sent to the study assistant
type ChatRequest struct {
	Message string `json:"message" validate:"required,min=1,max=4000"`
}
