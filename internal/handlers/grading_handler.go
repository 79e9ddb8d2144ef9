package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AcademiaHub/module-service/internal/services"
	"github.com/AcademiaHub/module-service/internal/utils"
)

type GradingHandler struct {
	BaseHandler
	service services.GradingService
}

func NewGradingHandler(service services.GradingService, logger utils.Logger) *GradingHandler {
	return &GradingHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
	}
}

// ListTeachingModules returns the modules assigned to the current teacher
// @Summary List teaching modules
// @Tags teachers
// @Produce json
// @Success 200 {object} services.ModuleListResponse
// @Router /teacher/modules [get]
func (h *GradingHandler) ListTeachingModules(c *gin.Context) {
	teacherID := h.requireUserID(c)
	if teacherID == "" {
		return
	}

	modules, err := h.service.ListTeachingModules(c.Request.Context(), teacherID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, modules)
}

// ListRoster returns the enrollments of a module the teacher is assigned to
// @Summary List module roster
// @Tags teachers
// @Produce json
// @Param module_id path uint true "Module ID"
// @Success 200 {object} services.EnrollmentListResponse
// @Failure 403 {object} ErrorResponse "Not assigned to module"
// @Router /teacher/modules/{module_id}/students [get]
func (h *GradingHandler) ListRoster(c *gin.Context) {
	moduleID := h.parseIDParam(c, "module_id")
	if moduleID == 0 {
		return
	}

	teacherID := h.requireUserID(c)
	if teacherID == "" {
		return
	}

	roster, err := h.service.ListRoster(c.Request.Context(), teacherID, moduleID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, roster)
}

// SetStatus grades a student's enrollment as pass or fail
// @Summary Grade an enrollment
// @Tags teachers
// @Accept json
// @Produce json
// @Param module_id path uint true "Module ID"
// @Param student_id path string true "Student ID"
// @Param status body services.SetStatusRequest true "Final status"
// @Success 200 {object} services.EnrollmentResponse
// @Failure 400 {object} ErrorResponse "Status not pass or fail"
// @Failure 403 {object} ErrorResponse "Not assigned to module"
// @Failure 404 {object} ErrorResponse "Enrollment not found"
// @Router /teacher/modules/{module_id}/students/{student_id}/status [patch]
func (h *GradingHandler) SetStatus(c *gin.Context) {
	moduleID := h.parseIDParam(c, "module_id")
	if moduleID == 0 {
		return
	}
	studentID := c.Param("student_id")

	var req services.SetStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	teacherID := h.requireUserID(c)
	if teacherID == "" {
		return
	}

	h.LogRequest(c, "Grading enrollment",
		"teacher_id", teacherID,
		"module_id", moduleID,
		"student_id", studentID,
		"status", req.Status)

	enrollment, err := h.service.SetStatus(c.Request.Context(), teacherID, moduleID, studentID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, enrollment)
}
