package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/AcademiaHub/module-service/internal/config"
	"github.com/AcademiaHub/module-service/internal/events"
	"github.com/AcademiaHub/module-service/internal/repositories"
	"github.com/AcademiaHub/module-service/internal/validator"
)

// ServiceManagerConfig holds configuration for the service manager
type ServiceManagerConfig struct {
	EnableDebugLogging bool
	LogLevel           slog.Level
	DefaultTimeout     time.Duration

	Chat config.ChatConfig
}

// serviceManager implements ServiceManager interface
type serviceManager struct {
	// Dependencies
	db        *gorm.DB
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	publisher events.EventPublisher
	config    ServiceManagerConfig

	// Service instances
	authorityService  AuthorityService
	moduleService     ModuleService
	enrollmentService EnrollmentService
	gradingService    GradingService
	userService       UserService
	chatService       ChatService
	reportService     ReportService
	dashboardService  DashboardService

	// Lifecycle management
	initialized bool
	shutdown    bool
	mu          sync.RWMutex
}

// NewServiceManager creates a new service manager with all dependencies
func NewServiceManager(db *gorm.DB, repo repositories.Repository, logger *slog.Logger, v *validator.Validator, publisher events.EventPublisher, cfg ServiceManagerConfig) ServiceManager {
	return &serviceManager{
		db:        db,
		repo:      repo,
		logger:    logger,
		validator: v,
		publisher: publisher,
		config:    cfg,
	}
}

// Initialize constructs all service instances
func (sm *serviceManager) Initialize(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.initialized {
		return nil
	}
	if sm.shutdown {
		return fmt.Errorf("service manager already shut down")
	}
	if sm.repo == nil {
		return fmt.Errorf("repository is required")
	}
	if sm.validator == nil {
		return fmt.Errorf("validator is required")
	}

	sm.authorityService = NewRoleAuthority(sm.repo, sm.db, sm.logger)
	sm.moduleService = NewModuleService(sm.repo, sm.db, sm.logger, sm.validator, sm.authorityService, sm.publisher)
	sm.enrollmentService = NewEnrollmentService(sm.repo, sm.db, sm.logger, sm.authorityService, sm.publisher)
	sm.gradingService = NewGradingService(sm.repo, sm.db, sm.logger, sm.validator, sm.publisher)
	sm.userService = NewUserService(sm.repo, sm.db, sm.logger, sm.validator, sm.authorityService, sm.publisher)
	sm.chatService = NewChatService(sm.repo, sm.db, sm.logger, sm.validator, sm.config.Chat)
	sm.reportService = NewReportService(sm.repo, sm.db, sm.logger, sm.authorityService)
	sm.dashboardService = NewDashboardService(sm.repo, sm.db, sm.logger, sm.authorityService)

	sm.initialized = true
	sm.logger.Info("service manager initialized")

	return nil
}

func (sm *serviceManager) Authority() AuthorityService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.authorityService
}

func (sm *serviceManager) Module() ModuleService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.moduleService
}

func (sm *serviceManager) Enrollment() EnrollmentService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.enrollmentService
}

func (sm *serviceManager) Grading() GradingService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.gradingService
}

func (sm *serviceManager) User() UserService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.userService
}

func (sm *serviceManager) Chat() ChatService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.chatService
}

func (sm *serviceManager) Report() ReportService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.reportService
}

func (sm *serviceManager) Dashboard() DashboardService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.dashboardService
}

// HealthCheck verifies the manager and its repository are usable
func (sm *serviceManager) HealthCheck(ctx context.Context) error {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		return fmt.Errorf("service manager not initialized")
	}
	if sm.shutdown {
		return fmt.Errorf("service manager shut down")
	}

	return sm.repo.Ping(ctx)
}

// Shutdown releases the manager's resources
func (sm *serviceManager) Shutdown(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.shutdown {
		return nil
	}
	sm.shutdown = true
	sm.initialized = false

	if sm.publisher != nil {
		if err := sm.publisher.Close(); err != nil {
			sm.logger.Warn("failed to close event publisher", "error", err)
		}
	}

	sm.logger.Info("service manager shut down")

	return nil
}
