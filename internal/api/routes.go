package api

import (
	"alcyxob/club-app/internal/domain"
	"alcyxob/club-app/internal/service"
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// HealthCheck reports whether a backing dependency is reachable.
type HealthCheck func(ctx context.Context) error

const healthCheckTimeout = 2 * time.Second

// SetupRoutes registers every route. metricsHandler may be nil to leave
// metrics unexposed.
func SetupRoutes(
	router *gin.Engine,
	jwtSecret string,
	planService service.TrainingPlanService,
	attendanceService service.AttendanceService,
	health HealthCheck,
	metricsPath string,
	metricsHandler http.Handler,
	logger *zap.Logger,
) {
	planHandler := NewPlanHandler(planService, logger)
	attendanceHandler := NewAttendanceHandler(attendanceService, logger)
	scheduleHandler := NewScheduleHandler(planService, logger)

	authMiddleware := AuthMiddleware(jwtSecret)
	coordinators := RoleMiddleware(domain.RoleAdmin, domain.RoleSupervisor)
	staff := RoleMiddleware(domain.RoleAdmin, domain.RoleSupervisor, domain.RoleCoach)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	router.GET("/healthz", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
		defer cancel()
		if health != nil {
			if err := health(ctx); err != nil {
				logger.Warn("health check failed", zap.Error(err))
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if metricsHandler != nil {
		router.GET(metricsPath, gin.WrapH(metricsHandler))
	}

	protected := router.Group("/api/v1")
	protected.Use(authMiddleware)
	{
		protected.GET("/me", func(c *gin.Context) {
			actor, ok := requireActor(c)
			if !ok {
				return
			}
			c.JSON(http.StatusOK, gin.H{"userId": actor.UserID.Hex(), "role": actor.Role, "sportTypes": actor.SportTypes})
		})

		// --- Training Plans ---
		plans := protected.Group("/plans")
		{
			plans.GET("", staff, planHandler.ListPlans)
			plans.POST("", coordinators, planHandler.CreatePlan)
			plans.POST("/from-schedule", coordinators, planHandler.CreatePlanFromSchedule)
			plans.POST("/duration-check", planHandler.CheckDuration)

			plans.GET("/:planId", staff, planHandler.GetPlan)
			plans.PUT("/:planId", coordinators, planHandler.UpdatePlan)
			plans.DELETE("/:planId", coordinators, planHandler.DeletePlan)
			plans.DELETE("/:planId/activities/:order", coordinators, planHandler.RemoveActivity)

			// Which role may take which step is decided per transition.
			plans.PATCH("/:planId/status", staff, planHandler.UpdateStatus)

			// --- Attachments ---
			plans.POST("/:planId/attachments/upload-url", coordinators, planHandler.RequestUploadURL)
			plans.POST("/:planId/attachments", coordinators, planHandler.ConfirmAttachment)
			plans.GET("/:planId/attachments/:name/url", staff, planHandler.DownloadURL)

			// --- Attendance ---
			// Writes are not role-gated here: a refused write must say whether
			// the role or the plan status is the reason.
			plans.GET("/:planId/attendance", staff, attendanceHandler.GetAttendance)
			plans.PUT("/:planId/attendance", attendanceHandler.UpdateAttendance)
		}

		// --- Schedules ---
		protected.GET("/teams/:teamId/schedules", staff, scheduleHandler.ListTeamSchedules)
		protected.GET("/schedules/:scheduleId", staff, scheduleHandler.GetSchedule)
	}
}
