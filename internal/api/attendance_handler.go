package api

import (
	"alcyxob/club-app/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AttendanceHandler serves the attendance sheet of a plan. Its responses
// always carry a "success" flag.
type AttendanceHandler struct {
	attendanceService service.AttendanceService
	logger            *zap.Logger
}

func NewAttendanceHandler(attendanceService service.AttendanceService, logger *zap.Logger) *AttendanceHandler {
	return &AttendanceHandler{attendanceService: attendanceService, logger: logger}
}

// GetAttendance godoc
// @Summary Get the attendance sheet of a plan
// @Description Coaches opening the sheet of an assigned, in-progress or completed plan get the roster seeded as absent first.
// @Tags Attendance
// @Produce json
// @Security BearerAuth
// @Param planId path string true "Plan ID"
// @Success 200 {object} AttendanceResponse
// @Failure 404 {object} gin.H "Plan not found"
// @Router /plans/{planId}/attendance [get]
func (h *AttendanceHandler) GetAttendance(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	planID, ok := pathObjectID(c, "planId")
	if !ok {
		return
	}

	sheet, err := h.attendanceService.GetAttendance(c.Request.Context(), actor, planID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, mapSheetToResponse(sheet))
}

// UpdateAttendance godoc
// @Summary Save the attendance sheet of a plan
// @Description Upserts one record per player. When a player is listed twice the last entry wins.
// @Tags Attendance
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param planId path string true "Plan ID"
// @Param attendance body AttendanceRequest true "Records"
// @Success 200 {object} gin.H "{success: true}"
// @Failure 403 {object} gin.H "{success: false, error, reason}; reason is role or status"
// @Router /plans/{planId}/attendance [put]
func (h *AttendanceHandler) UpdateAttendance(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	planID, ok := pathObjectID(c, "planId")
	if !ok {
		return
	}
	var req AttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, bindError(err))
		return
	}
	updates, err := req.toUpdates()
	if err != nil {
		h.fail(c, err)
		return
	}

	if err := h.attendanceService.SetAttendance(c.Request.Context(), actor, planID, updates); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *AttendanceHandler) fail(c *gin.Context, err error) {
	status, body, known := errorResponse(err)
	if !known {
		logUnexpected(c, h.logger, err)
	}
	body["success"] = false
	c.AbortWithStatusJSON(status, body)
}
