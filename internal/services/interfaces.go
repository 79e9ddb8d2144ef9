package services

import (
	"context"
	"io"
	"time"

	"github.com/AcademiaHub/module-service/internal/models"
	"github.com/AcademiaHub/module-service/internal/repositories"
	"github.com/AcademiaHub/module-service/internal/validator"
)

// ===== REQUEST/RESPONSE DTOs =====

// Use business validator types
type CreateModuleRequest = validator.ModuleCreateRequest
type UpdateModuleRequest = validator.ModuleUpdateRequest
type RegisterStudentRequest = validator.RegisterStudentRequest
type CreateUserRequest = validator.CreateUserRequest
type ChangeRoleRequest = validator.ChangeRoleRequest
type AttachModuleRequest = validator.AttachModuleRequest
type SetStatusRequest = validator.SetStatusRequest
type ChatRequest = validator.ChatRequest

type ModuleResponse struct {
	*models.Module
	SeatsLeft int `json:"seats_left"`
}

type ModuleListResponse struct {
	Modules []*ModuleResponse `json:"modules"`
	Total   int64             `json:"total"`
	Page    int               `json:"page"`
	Size    int               `json:"size"`
}

type EnrollmentResponse struct {
	StudentID   string                   `json:"student_id"`
	ModuleID    uint                     `json:"module_id"`
	Status      *models.EnrollmentStatus `json:"status"`
	EnrolledAt  time.Time                `json:"enrolled_at"`
	CompletedAt *time.Time               `json:"completed_at"`
	Module      *models.Module           `json:"module,omitempty"`
	Student     *models.User             `json:"student,omitempty"`
}

type EnrollmentListResponse struct {
	Enrollments []*EnrollmentResponse `json:"enrollments"`
	Total       int64                 `json:"total"`
}

// EnrollmentOverviewResponse is the student home view. Old students only
// see their completed modules.
type EnrollmentOverviewResponse struct {
	IsOldStudent bool                  `json:"is_old_student"`
	CanEnroll    bool                  `json:"can_enroll"`
	Current      []*EnrollmentResponse `json:"current"`
	Completed    []*EnrollmentResponse `json:"completed"`
	Available    []*ModuleResponse     `json:"available"`
}

type UserResponse struct {
	ID           string          `json:"id"`
	FullName     string          `json:"full_name"`
	Email        string          `json:"email"`
	Role         models.RoleName `json:"role"`
	IsOldStudent bool            `json:"is_old_student"`
	CreatedAt    time.Time       `json:"created_at"`
}

type UserListResponse struct {
	Users []*UserResponse `json:"users"`
	Total int64           `json:"total"`
}

type ChatResponse struct {
	Message ChatResponseMessage `json:"message"`
}

type ChatResponseMessage struct {
	Content string `json:"content"`
}

type ChatHistoryResponse struct {
	Messages []*models.ChatMessage `json:"messages"`
	Total    int64                 `json:"total"`
}

type RosterExport struct {
	FileName string
	Data     []byte
}

// ===== SERVICE INTERFACES =====

// AuthorityService answers role questions. Checks fail closed.
type AuthorityService interface {
	HasRole(ctx context.Context, userID string, role models.RoleName) bool
	IsAdmin(ctx context.Context, userID string) bool
	RequireAdmin(ctx context.Context, userID string, resource, action string) error
	RequireRole(ctx context.Context, userID string, role models.RoleName, resource, action string) error
}

// ModuleService manages the module catalog. Mutations are admin only.
type ModuleService interface {
	Create(ctx context.Context, req *CreateModuleRequest, actorID string) (*ModuleResponse, error)
	GetByID(ctx context.Context, id uint) (*ModuleResponse, error)
	Update(ctx context.Context, id uint, req *UpdateModuleRequest, actorID string) (*ModuleResponse, error)
	Delete(ctx context.Context, id uint, actorID string) error
	ToggleAvailability(ctx context.Context, id uint, actorID string) (*ModuleResponse, error)
	List(ctx context.Context, filters repositories.ModuleFilters) (*ModuleListResponse, error)
}

// EnrollmentService manages the student-module ledger
type EnrollmentService interface {
	Enroll(ctx context.Context, studentID string, moduleID uint) (*EnrollmentResponse, error)
	ListCurrent(ctx context.Context, studentID string) (*EnrollmentListResponse, error)
	ListCompleted(ctx context.Context, studentID string) (*EnrollmentListResponse, error)
	ListAvailable(ctx context.Context, studentID string, filters repositories.ModuleFilters) (*ModuleListResponse, error)
	Overview(ctx context.Context, studentID string) (*EnrollmentOverviewResponse, error)
	RemoveFromModule(ctx context.Context, actorID, studentID string, moduleID uint) error
}

// GradingService lets assigned teachers close out enrollments
type GradingService interface {
	SetStatus(ctx context.Context, teacherID string, moduleID uint, studentID string, req *SetStatusRequest) (*EnrollmentResponse, error)
	ListRoster(ctx context.Context, teacherID string, moduleID uint) (*EnrollmentListResponse, error)
	ListTeachingModules(ctx context.Context, teacherID string) (*ModuleListResponse, error)
}

// UserService manages accounts, roles and teaching assignments
type UserService interface {
	RegisterStudent(ctx context.Context, req *RegisterStudentRequest) (*UserResponse, error)
	CreateUser(ctx context.Context, req *CreateUserRequest, actorID string) (*UserResponse, error)
	GetByID(ctx context.Context, id string) (*UserResponse, error)
	List(ctx context.Context, filters repositories.UserFilters, actorID string) (*UserListResponse, error)
	Delete(ctx context.Context, id string, actorID string) error
	ChangeRole(ctx context.Context, userID string, req *ChangeRoleRequest, actorID string) (*UserResponse, error)
	AttachModule(ctx context.Context, req *AttachModuleRequest, actorID string) error
	DetachModule(ctx context.Context, teacherID string, moduleID uint, actorID string) error
}

// ChatService proxies the study assistant and persists conversations
type ChatService interface {
	Ask(ctx context.Context, userID *string, req *ChatRequest) (*ChatResponse, error)
	AskStream(ctx context.Context, userID *string, req *ChatRequest, out io.Writer) error
	History(ctx context.Context, userID string, filters repositories.ChatHistoryFilters) (*ChatHistoryResponse, error)
}

// ReportService produces admin exports
type ReportService interface {
	ModuleRoster(ctx context.Context, moduleID uint, actorID string) (*RosterExport, error)
}

// DashboardService exposes aggregate platform statistics
type DashboardService interface {
	PlatformStats(ctx context.Context, actorID string) (*repositories.PlatformStats, error)
}

// ===== SERVICE MANAGER =====

type ServiceManager interface {
	// Core service getters
	Authority() AuthorityService
	Module() ModuleService
	Enrollment() EnrollmentService
	Grading() GradingService
	User() UserService
	Chat() ChatService
	Report() ReportService
	Dashboard() DashboardService

	// Health and lifecycle
	Initialize(ctx context.Context) error
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
