package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/AcademiaHub/module-service/internal/models"
	"github.com/AcademiaHub/module-service/internal/repositories"
	"github.com/AcademiaHub/module-service/internal/services"
	"github.com/AcademiaHub/module-service/internal/utils"
)

// AdminHandler covers user administration, exports and platform stats
type AdminHandler struct {
	BaseHandler
	userService      services.UserService
	reportService    services.ReportService
	dashboardService services.DashboardService
}

func NewAdminHandler(
	userService services.UserService,
	reportService services.ReportService,
	dashboardService services.DashboardService,
	logger utils.Logger,
) *AdminHandler {
	return &AdminHandler{
		BaseHandler:      NewBaseHandler(logger),
		userService:      userService,
		reportService:    reportService,
		dashboardService: dashboardService,
	}
}

// CreateTeacher creates a teacher account
// @Summary Create teacher
// @Tags admin
// @Accept json
// @Produce json
// @Param teacher body services.RegisterStudentRequest true "Account data"
// @Success 201 {object} services.UserResponse
// @Failure 409 {object} ErrorResponse "Email already registered"
// @Router /admin/teachers [post]
func (h *AdminHandler) CreateTeacher(c *gin.Context) {
	var req services.RegisterStudentRequest
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

	h.LogRequest(c, "Creating teacher", "email", req.Email)

	user, err := h.userService.CreateUser(c.Request.Context(), &services.CreateUserRequest{
		FullName: req.FullName,
		Email:    req.Email,
		Password: req.Password,
		Role:     models.RoleTeacher,
	}, actorID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, user)
}

// ListUsers lists users with optional role and search filters
// @Summary List users
// @Tags admin
// @Produce json
// @Param role query string false "Filter by role"
// @Param q query string false "Search in name and email"
// @Success 200 {object} services.UserListResponse
// @Router /admin/users [get]
func (h *AdminHandler) ListUsers(c *gin.Context) {
	actorID := h.requireUserID(c)
	if actorID == "" {
		return
	}

	filters := repositories.UserFilters{Query: c.Query("q")}
	if raw := c.Query("role"); raw != "" {
		role := models.RoleName(raw)
		filters.Role = &role
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

	users, err := h.userService.List(c.Request.Context(), filters, actorID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, users)
}

// DeleteUser removes a user and their enrollment history
// @Summary Delete user
// @Tags admin
// @Param id path string true "User ID"
// @Success 204
// @Failure 404 {object} ErrorResponse
// @Router /admin/students/{id} [delete]
func (h *AdminHandler) DeleteUser(c *gin.Context) {
	userID := c.Param("id")

	actorID := h.requireUserID(c)
	if actorID == "" {
		return
	}

	h.LogRequest(c, "Deleting user", "target_id", userID)

	if err := h.userService.Delete(c.Request.Context(), userID, actorID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ChangeRole changes a user's role
// @Summary Change user role
// @Tags admin
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param role body services.ChangeRoleRequest true "New role"
// @Success 200 {object} services.UserResponse
// @Failure 404 {object} ErrorResponse
// @Router /admin/users/{id}/role [patch]
func (h *AdminHandler) ChangeRole(c *gin.Context) {
	userID := c.Param("id")

	var req services.ChangeRoleRequest
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

	h.LogRequest(c, "Changing user role", "target_id", userID, "role", req.Role)

	user, err := h.userService.ChangeRole(c.Request.Context(), userID, &req, actorID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// AttachModule assigns a teacher to a module
// @Summary Attach teacher to module
// @Tags admin
// @Accept json
// @Param id path string true "Teacher ID"
// @Success 201
// @Failure 400 {object} ErrorResponse "Target is not a teacher"
// @Failure 409 {object} ErrorResponse "Already assigned"
// @Router /admin/teachers/{id}/modules [post]
func (h *AdminHandler) AttachModule(c *gin.Context) {
	teacherID := c.Param("id")

	var body struct {
		ModuleID uint `json:"module_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
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

	h.LogRequest(c, "Attaching teacher to module", "teacher_id", teacherID, "module_id", body.ModuleID)

	err := h.userService.AttachModule(c.Request.Context(), &services.AttachModuleRequest{
		TeacherID: teacherID,
		ModuleID:  body.ModuleID,
	}, actorID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusCreated)
}

// DetachModule removes a teacher's module assignment
// @Summary Detach teacher from module
// @Tags admin
// @Param id path string true "Teacher ID"
// @Param module_id path uint true "Module ID"
// @Success 204
// @Failure 404 {object} ErrorResponse
// @Router /admin/teachers/{id}/modules/{module_id} [delete]
func (h *AdminHandler) DetachModule(c *gin.Context) {
	teacherID := c.Param("id")
	moduleID := h.parseIDParam(c, "module_id")
	if moduleID == 0 {
		return
	}

	actorID := h.requireUserID(c)
	if actorID == "" {
		return
	}

	h.LogRequest(c, "Detaching teacher from module", "teacher_id", teacherID, "module_id", moduleID)

	if err := h.userService.DetachModule(c.Request.Context(), teacherID, moduleID, actorID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ExportRoster streams a module roster as an xlsx workbook
// @Summary Export module roster
// @Tags admin
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param id path uint true "Module ID"
// @Success 200 {file} binary
// @Failure 404 {object} ErrorResponse
// @Router /admin/modules/{id}/roster/export [get]
func (h *AdminHandler) ExportRoster(c *gin.Context) {
	moduleID := h.parseIDParam(c, "id")
	if moduleID == 0 {
		return
	}

	actorID := h.requireUserID(c)
	if actorID == "" {
		return
	}

	h.LogRequest(c, "Exporting module roster", "module_id", moduleID)

	export, err := h.reportService.ModuleRoster(c.Request.Context(), moduleID, actorID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.FileName))
	c.Data(http.StatusOK,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		export.Data)
}

// GetStats returns aggregate platform statistics
// @Summary Platform statistics
// @Tags admin
// @Produce json
// @Success 200 {object} repositories.PlatformStats
// @Router /admin/stats [get]
func (h *AdminHandler) GetStats(c *gin.Context) {
	actorID := h.requireUserID(c)
	if actorID == "" {
		return
	}

	stats, err := h.dashboardService.PlatformStats(c.Request.Context(), actorID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}
