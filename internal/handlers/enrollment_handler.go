package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AcademiaHub/module-service/internal/services"
	"github.com/AcademiaHub/module-service/internal/utils"
)

type EnrollmentHandler struct {
	BaseHandler
	service services.EnrollmentService
}

func NewEnrollmentHandler(service services.EnrollmentService, logger utils.Logger) *EnrollmentHandler {
	return &EnrollmentHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
	}
}

// ===== STUDENT ENDPOINTS =====

// Enroll enrolls the current student in a module
// @Summary Enroll in a module
// @Tags students
// @Produce json
// @Param module_id path uint true "Module ID"
// @Success 201 {object} services.EnrollmentResponse
// @Failure 404 {object} ErrorResponse "Module not found"
// @Failure 409 {object} ErrorResponse "Enrollment policy violated"
// @Router /student/enroll/{module_id} [post]
func (h *EnrollmentHandler) Enroll(c *gin.Context) {
	moduleID := h.parseIDParam(c, "module_id")
	if moduleID == 0 {
		return
	}

	studentID := h.requireUserID(c)
	if studentID == "" {
		return
	}

	h.LogRequest(c, "Enrolling student", "student_id", studentID, "module_id", moduleID)

	enrollment, err := h.service.Enroll(c.Request.Context(), studentID, moduleID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, enrollment)
}

// Overview returns the student's full enrollment picture
// @Summary Enrollment overview
// @Tags students
// @Produce json
// @Success 200 {object} services.EnrollmentOverviewResponse
// @Router /student/modules [get]
func (h *EnrollmentHandler) Overview(c *gin.Context) {
	studentID := h.requireUserID(c)
	if studentID == "" {
		return
	}

	overview, err := h.service.Overview(c.Request.Context(), studentID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, overview)
}

// ListCurrent returns the student's active enrollments
// @Summary List current modules
// @Tags students
// @Produce json
// @Success 200 {object} services.EnrollmentListResponse
// @Router /student/modules/current [get]
func (h *EnrollmentHandler) ListCurrent(c *gin.Context) {
	studentID := h.requireUserID(c)
	if studentID == "" {
		return
	}

	enrollments, err := h.service.ListCurrent(c.Request.Context(), studentID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, enrollments)
}

// ListCompleted returns the student's graded enrollments
// @Summary List completed modules
// @Tags students
// @Produce json
// @Success 200 {object} services.EnrollmentListResponse
// @Router /student/modules/completed [get]
func (h *EnrollmentHandler) ListCompleted(c *gin.Context) {
	studentID := h.requireUserID(c)
	if studentID == "" {
		return
	}

	enrollments, err := h.service.ListCompleted(c.Request.Context(), studentID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, enrollments)
}

// ListAvailable returns modules the student could still enroll in
// @Summary List available modules
// @Tags students
// @Produce json
// @Param search query string false "Search in title and code"
// @Success 200 {object} services.ModuleListResponse
// @Router /student/modules/available [get]
func (h *EnrollmentHandler) ListAvailable(c *gin.Context) {
	studentID := h.requireUserID(c)
	if studentID == "" {
		return
	}

	modules, err := h.service.ListAvailable(c.Request.Context(), studentID, parseModuleFilters(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, modules)
}

// ===== ADMIN ENDPOINTS =====

// RemoveFromModule drops a student from a module
// @Summary Remove student from module
// @Tags admin
// @Param id path string true "Student ID"
// @Param module_id path uint true "Module ID"
// @Success 204
// @Failure 404 {object} ErrorResponse
// @Router /admin/students/{id}/modules/{module_id} [delete]
func (h *EnrollmentHandler) RemoveFromModule(c *gin.Context) {
	studentID := c.Param("id")
	moduleID := h.parseIDParam(c, "module_id")
	if moduleID == 0 {
		return
	}

	actorID := h.requireUserID(c)
	if actorID == "" {
		return
	}

	h.LogRequest(c, "Removing student from module", "student_id", studentID, "module_id", moduleID)

	if err := h.service.RemoveFromModule(c.Request.Context(), actorID, studentID, moduleID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
