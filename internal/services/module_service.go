package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/AcademiaHub/module-service/internal/events"
	"github.com/AcademiaHub/module-service/internal/models"
	"github.com/AcademiaHub/module-service/internal/repositories"
	"github.com/AcademiaHub/module-service/internal/validator"
)

type moduleService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
	authority AuthorityService
	publisher events.EventPublisher
}

func NewModuleService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, v *validator.Validator, authority AuthorityService, publisher events.EventPublisher) ModuleService {
	return &moduleService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: v,
		authority: authority,
		publisher: publisher,
	}
}

// Create adds a module to the catalog. Admin only.
func (s *moduleService) Create(ctx context.Context, req *CreateModuleRequest, actorID string) (*ModuleResponse, error) {
	if err := s.authority.RequireAdmin(ctx, actorID, "module", "create"); err != nil {
		return nil, err
	}

	if errs := s.validator.GetBusinessValidator().ValidateModuleCreate(req); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrValidationFailed, errs.Error())
	}

	module := &models.Module{
		Title:       req.Title,
		Code:        req.Code,
		Description: req.Description,
		Capacity:    req.Capacity,
		Available:   true,
	}
	if req.Available != nil {
		module.Available = *req.Available
	}

	if err := s.repo.Module().Create(ctx, s.db, module); err != nil {
		return nil, fmt.Errorf("failed to create module: %w", err)
	}

	s.logger.Info("module created", "module_id", module.ID, "actor_id", actorID)
	s.publishModuleEvent(ctx, events.EventModuleCreated, module.ID, actorID)

	return s.toResponse(module), nil
}

// GetByID returns a module with its current seat usage
func (s *moduleService) GetByID(ctx context.Context, id uint) (*ModuleResponse, error) {
	module, err := s.repo.Module().GetByID(ctx, s.db, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrModuleNotFound
		}
		return nil, fmt.Errorf("failed to get module: %w", err)
	}

	return s.toResponse(module), nil
}

// Update applies partial changes to a module. Admin only.
func (s *moduleService) Update(ctx context.Context, id uint, req *UpdateModuleRequest, actorID string) (*ModuleResponse, error) {
	if err := s.authority.RequireAdmin(ctx, actorID, "module", "update"); err != nil {
		return nil, err
	}

	if errs := s.validator.GetBusinessValidator().ValidateModuleUpdate(req); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrValidationFailed, errs.Error())
	}

	module, err := s.repo.Module().GetByID(ctx, s.db, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrModuleNotFound
		}
		return nil, fmt.Errorf("failed to get module: %w", err)
	}

	if req.Title != nil {
		module.Title = *req.Title
	}
	if req.Code != nil {
		module.Code = req.Code
	}
	if req.Description != nil {
		module.Description = req.Description
	}
	if req.Capacity != nil {
		module.Capacity = *req.Capacity
	}
	module.UpdatedAt = time.Now()

	if err := s.repo.Module().Update(ctx, s.db, module); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrModuleNotFound
		}
		return nil, fmt.Errorf("failed to update module: %w", err)
	}

	s.logger.Info("module updated", "module_id", id, "actor_id", actorID)
	s.publishModuleEvent(ctx, events.EventModuleUpdated, id, actorID)

	return s.toResponse(module), nil
}

// Delete removes a module. Enrollments and teaching assignments cascade
// away with it. Admin only.
func (s *moduleService) Delete(ctx context.Context, id uint, actorID string) error {
	if err := s.authority.RequireAdmin(ctx, actorID, "module", "delete"); err != nil {
		return err
	}

	if err := s.repo.Module().Delete(ctx, s.db, id); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrModuleNotFound
		}
		return fmt.Errorf("failed to delete module: %w", err)
	}

	s.logger.Info("module deleted", "module_id", id, "actor_id", actorID)
	s.publishModuleEvent(ctx, events.EventModuleDeleted, id, actorID)

	return nil
}

// ToggleAvailability flips the available flag. Admin only.
func (s *moduleService) ToggleAvailability(ctx context.Context, id uint, actorID string) (*ModuleResponse, error) {
	if err := s.authority.RequireAdmin(ctx, actorID, "module", "toggle_availability"); err != nil {
		return nil, err
	}

	module, err := s.repo.Module().GetByID(ctx, s.db, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrModuleNotFound
		}
		return nil, fmt.Errorf("failed to get module: %w", err)
	}

	module.Available = !module.Available
	if err := s.repo.Module().SetAvailability(ctx, s.db, id, module.Available); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrModuleNotFound
		}
		return nil, fmt.Errorf("failed to toggle module availability: %w", err)
	}

	s.logger.Info("module availability toggled",
		"module_id", id,
		"available", module.Available,
		"actor_id", actorID)
	s.publishModuleEvent(ctx, events.EventModuleUpdated, id, actorID)

	return s.toResponse(module), nil
}

// List returns modules matching the filters
func (s *moduleService) List(ctx context.Context, filters repositories.ModuleFilters) (*ModuleListResponse, error) {
	modules, total, err := s.repo.Module().List(ctx, s.db, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list modules: %w", err)
	}

	return s.toListResponse(modules, total, filters.Limit, filters.Offset), nil
}

func (s *moduleService) toResponse(module *models.Module) *ModuleResponse {
	seatsLeft := module.Capacity - module.EnrolledCount
	if seatsLeft < 0 {
		seatsLeft = 0
	}
	return &ModuleResponse{
		Module:    module,
		SeatsLeft: seatsLeft,
	}
}

func (s *moduleService) toListResponse(modules []*models.Module, total int64, limit, offset int) *ModuleListResponse {
	responses := make([]*ModuleResponse, len(modules))
	for i, module := range modules {
		responses[i] = s.toResponse(module)
	}

	page := 1
	if limit > 0 {
		page = offset/limit + 1
	}

	return &ModuleListResponse{
		Modules: responses,
		Total:   total,
		Page:    page,
		Size:    len(responses),
	}
}

func (s *moduleService) publishModuleEvent(ctx context.Context, eventType string, moduleID uint, actorID string) {
	if s.publisher == nil {
		return
	}
	err := s.publisher.Publish(ctx, events.TopicModules, eventType, map[string]any{
		"module_id": moduleID,
		"actor_id":  actorID,
	})
	if err != nil {
		s.logger.Warn("failed to publish module event", "event_type", eventType, "error", err)
	}
}
