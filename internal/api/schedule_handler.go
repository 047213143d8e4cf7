package api

import (
	"alcyxob/club-app/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ScheduleHandler exposes the bookings plans can be bound to.
type ScheduleHandler struct {
	planService service.TrainingPlanService
	logger      *zap.Logger
}

func NewScheduleHandler(planService service.TrainingPlanService, logger *zap.Logger) *ScheduleHandler {
	return &ScheduleHandler{planService: planService, logger: logger}
}

// ListTeamSchedules godoc
// @Summary List candidate schedules of a team
// @Description Future Training bookings of the team, soonest first.
// @Tags Schedules
// @Produce json
// @Security BearerAuth
// @Param teamId path string true "Team ID"
// @Success 200 {array} domain.Booking
// @Router /teams/{teamId}/schedules [get]
func (h *ScheduleHandler) ListTeamSchedules(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	teamID, ok := pathObjectID(c, "teamId")
	if !ok {
		return
	}
	bookings, err := h.planService.CandidateSchedules(c.Request.Context(), actor, teamID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, bookings)
}

func (h *ScheduleHandler) GetSchedule(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	scheduleID, ok := pathObjectID(c, "scheduleId")
	if !ok {
		return
	}
	booking, err := h.planService.GetSchedule(c.Request.Context(), actor, scheduleID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, booking)
}
