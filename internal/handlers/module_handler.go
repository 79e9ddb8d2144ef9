package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/AcademiaHub/module-service/internal/repositories"
	"github.com/AcademiaHub/module-service/internal/services"
	"github.com/AcademiaHub/module-service/internal/utils"
)

type ModuleHandler struct {
	BaseHandler
	service services.ModuleService
}

func NewModuleHandler(service services.ModuleService, logger utils.Logger) *ModuleHandler {
	return &ModuleHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
	}
}

// CreateModule creates a new module
// @Summary Create module
// @Tags modules
// @Accept json
// @Produce json
// @Param module body services.CreateModuleRequest true "Module data"
// @Success 201 {object} services.ModuleResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /admin/modules [post]
func (h *ModuleHandler) CreateModule(c *gin.Context) {
	var req services.CreateModuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	actorID := h.requireUserID(c)
	if actorID == "" {
		return
	}

	h.LogRequest(c, "Creating module", "title", req.Title)

	module, err := h.service.Create(c.Request.Context(), &req, actorID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, module)
}

// GetModule retrieves a module by ID
// @Summary Get module
// @Tags modules
// @Produce json
// @Param id path uint true "Module ID"
// @Success 200 {object} services.ModuleResponse
// @Failure 404 {object} ErrorResponse
// @Router /admin/modules/{id} [get]
func (h *ModuleHandler) GetModule(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	module, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, module)
}

// ListModules lists modules with optional filters
// @Summary List modules
// @Tags modules
// @Produce json
// @Param available query bool false "Filter by availability"
// @Param search query string false "Search in title and code"
// @Param page query int false "Page number (default: 1)"
// @Param size query int false "Page size (default: 20, max: 100)"
// @Success 200 {object} services.ModuleListResponse
// @Router /admin/modules [get]
func (h *ModuleHandler) ListModules(c *gin.Context) {
	filters := parseModuleFilters(c)

	modules, err := h.service.List(c.Request.Context(), filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, modules)
}

// UpdateModule updates a module
// @Summary Update module
// @Tags modules
// @Accept json
// @Produce json
// @Param id path uint true "Module ID"
// @Param module body services.UpdateModuleRequest true "Fields to update"
// @Success 200 {object} services.ModuleResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /admin/modules/{id} [put]
func (h *ModuleHandler) UpdateModule(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	var req services.UpdateModuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	actorID := h.requireUserID(c)
	if actorID == "" {
		return
	}

	h.LogRequest(c, "Updating module", "module_id", id)

	module, err := h.service.Update(c.Request.Context(), id, &req, actorID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, module)
}

// DeleteModule deletes a module and its enrollments
// @Summary Delete module
// @Tags modules
// @Param id path uint true "Module ID"
// @Success 204
// @Failure 404 {object} ErrorResponse
// @Router /admin/modules/{id} [delete]
func (h *ModuleHandler) DeleteModule(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	actorID := h.requireUserID(c)
	if actorID == "" {
		return
	}

	h.LogRequest(c, "Deleting module", "module_id", id)

	if err := h.service.Delete(c.Request.Context(), id, actorID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ToggleAvailability flips a module's availability
// @Summary Toggle module availability
// @Tags modules
// @Produce json
// @Param id path uint true "Module ID"
// @Success 200 {object} services.ModuleResponse
// @Failure 404 {object} ErrorResponse
// @Router /admin/modules/{id}/toggle [post]
func (h *ModuleHandler) ToggleAvailability(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	actorID := h.requireUserID(c)
	if actorID == "" {
		return
	}

	h.LogRequest(c, "Toggling module availability", "module_id", id)

	module, err := h.service.ToggleAvailability(c.Request.Context(), id, actorID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, module)
}

func parseModuleFilters(c *gin.Context) repositories.ModuleFilters {
	filters := repositories.ModuleFilters{}

	if raw := c.Query("available"); raw != "" {
		if available, err := strconv.ParseBool(raw); err == nil {
			filters.Available = &available
		}
	}
	if search := c.Query("search"); search != "" {
		filters.Search = &search
	}

	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	size, err := strconv.Atoi(c.DefaultQuery("size", "20"))
	if err != nil || size < 1 {
		size = 20
	}
	if size > 100 {
		size = 100
	}

	filters.Limit = size
	filters.Offset = (page - 1) * size
	filters.SortBy = c.DefaultQuery("sort_by", "created_at")
	filters.SortOrder = c.DefaultQuery("sort_order", "desc")

	return filters
}
