package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/AcademiaHub/module-service/internal/config"
	"github.com/AcademiaHub/module-service/internal/models"
	"github.com/AcademiaHub/module-service/internal/repositories"
	"github.com/AcademiaHub/module-service/internal/services"
	"github.com/AcademiaHub/module-service/internal/utils"
)

type HandlerManager struct {
	moduleHandler     *ModuleHandler
	enrollmentHandler *EnrollmentHandler
	gradingHandler    *GradingHandler
	userHandler       *UserHandler
	adminHandler      *AdminHandler
	chatHandler       *ChatHandler
	authMiddleware    *CasdoorAuthMiddleware
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	logger utils.Logger,
	casdoorConfig config.CasdoorConfig,
	userRepo repositories.UserRepository,
) *HandlerManager {
	authMiddleware := NewCasdoorAuthMiddleware(casdoorConfig, userRepo)

	return &HandlerManager{
		moduleHandler:     NewModuleHandler(serviceManager.Module(), logger),
		enrollmentHandler: NewEnrollmentHandler(serviceManager.Enrollment(), logger),
		gradingHandler:    NewGradingHandler(serviceManager.Grading(), logger),
		userHandler:       NewUserHandler(serviceManager.User(), logger),
		adminHandler:      NewAdminHandler(serviceManager.User(), serviceManager.Report(), serviceManager.Dashboard(), logger),
		chatHandler:       NewChatHandler(serviceManager.Chat(), logger),
		authMiddleware:    authMiddleware,
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	v1 := router.Group("/api/v1")
	{
		// Public routes
		v1.POST("/auth/register", hm.userHandler.Register)

		// Chat answers anonymous callers too; history needs an account
		v1.POST("/chat", hm.authMiddleware.OptionalAuthMiddleware(), hm.chatHandler.Ask)

		// Authenticated routes
		authed := v1.Group("")
		authed.Use(hm.authMiddleware.AuthMiddleware())
		{
			authed.GET("/me", hm.userHandler.Me)
			authed.GET("/chat/history", hm.chatHandler.History)

			// Student routes
			student := authed.Group("/student")
			student.Use(hm.authMiddleware.RequireRoleMiddleware(models.RoleStudent))
			{
				student.GET("/modules", hm.enrollmentHandler.Overview)
				student.GET("/modules/current", hm.enrollmentHandler.ListCurrent)
				student.GET("/modules/completed", hm.enrollmentHandler.ListCompleted)
				student.GET("/modules/available", hm.enrollmentHandler.ListAvailable)
				student.POST("/enroll/:module_id", hm.enrollmentHandler.Enroll)
			}

			// Teacher routes
			teacher := authed.Group("/teacher")
			teacher.Use(hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher))
			{
				teacher.GET("/modules", hm.gradingHandler.ListTeachingModules)
				teacher.GET("/modules/:module_id/students", hm.gradingHandler.ListRoster)
				teacher.PATCH("/modules/:module_id/students/:student_id/status", hm.gradingHandler.SetStatus)
			}

			// Admin routes. The services re-check authority; this gate just
			// keeps non-admins from probing the surface.
			admin := authed.Group("/admin")
			admin.Use(hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin))
			{
				admin.POST("/modules", hm.moduleHandler.CreateModule)
				admin.GET("/modules", hm.moduleHandler.ListModules)
				admin.GET("/modules/:id", hm.moduleHandler.GetModule)
				admin.PUT("/modules/:id", hm.moduleHandler.UpdateModule)
				admin.DELETE("/modules/:id", hm.moduleHandler.DeleteModule)
				admin.POST("/modules/:id/toggle", hm.moduleHandler.ToggleAvailability)
				admin.GET("/modules/:id/roster/export", hm.adminHandler.ExportRoster)

				admin.GET("/users", hm.adminHandler.ListUsers)
				admin.PATCH("/users/:id/role", hm.adminHandler.ChangeRole)

				admin.POST("/teachers", hm.adminHandler.CreateTeacher)
				admin.DELETE("/teachers/:id", hm.adminHandler.DeleteUser)
				admin.POST("/teachers/:id/modules", hm.adminHandler.AttachModule)
				admin.DELETE("/teachers/:id/modules/:module_id", hm.adminHandler.DetachModule)

				admin.DELETE("/students/:id", hm.adminHandler.DeleteUser)
				admin.DELETE("/students/:id/modules/:module_id", hm.enrollmentHandler.RemoveFromModule)

				admin.GET("/stats", hm.adminHandler.GetStats)
			}
		}
	}

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"service": "module-service",
		})
	})
}
