package api

import (
	"alcyxob/club-app/internal/domain"
	"alcyxob/club-app/internal/service"
	"alcyxob/club-app/internal/storage"
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const idempotencyKeyHeader = "Idempotency-Key"

type PlanHandler struct {
	planService service.TrainingPlanService
	logger      *zap.Logger
}

func NewPlanHandler(planService service.TrainingPlanService, logger *zap.Logger) *PlanHandler {
	return &PlanHandler{planService: planService, logger: logger}
}

// ListPlans godoc
// @Summary List training plans
// @Description Lists plans ordered by date. Supervisors only see teams of their sport types.
// @Tags Plans
// @Produce json
// @Security BearerAuth
// @Param teamId query string false "Team ID"
// @Param status query string false "draft, assigned, in_progress or completed"
// @Success 200 {array} service.PlanView
// @Failure 400 {object} gin.H "Invalid filter"
// @Failure 403 {object} gin.H "Forbidden"
// @Router /plans [get]
func (h *PlanHandler) ListPlans(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	teamID, err := optionalObjectID("teamId", c.Query("teamId"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	query := service.PlanQuery{
		TeamID: teamID,
		Status: domain.PlanStatus(strings.ToLower(c.Query("status"))),
	}

	plans, err := h.planService.ListPlans(c.Request.Context(), actor, query)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, plans)
}

// GetPlan godoc
// @Summary Get a training plan
// @Description Returns the plan with its team and schedule. A schedule that cannot be looked up is reported with state "failed".
// @Tags Plans
// @Produce json
// @Security BearerAuth
// @Param planId path string true "Plan ID"
// @Success 200 {object} service.PlanView
// @Failure 404 {object} gin.H "Plan not found"
// @Router /plans/{planId} [get]
func (h *PlanHandler) GetPlan(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	planID, ok := pathObjectID(c, "planId")
	if !ok {
		return
	}
	view, err := h.planService.GetPlan(c.Request.Context(), actor, planID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// CreatePlan godoc
// @Summary Create a training plan
// @Description Creates a Draft plan. An activity total that differs from the duration is reported in durationCheck but does not block saving.
// @Tags Plans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param Idempotency-Key header string false "Replays return the plan created by the first call"
// @Param plan body PlanRequest true "Plan"
// @Success 201 {object} service.PlanView
// @Failure 400 {object} gin.H "Validation error"
// @Failure 403 {object} gin.H "Forbidden"
// @Failure 404 {object} gin.H "Team or schedule not found"
// @Router /plans [post]
func (h *PlanHandler) CreatePlan(c *gin.Context) {
	h.create(c, h.planService.CreatePlan)
}

// CreatePlanFromSchedule godoc
// @Summary Create a training plan for a reserved training slot
// @Description Creates an Assigned plan bound to a future Training booking. Activities must fill the duration exactly.
// @Tags Plans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param plan body PlanRequest true "Plan; scheduleId is required"
// @Success 201 {object} service.PlanView
// @Failure 400 {object} gin.H "Validation error or duration mismatch"
// @Router /plans/from-schedule [post]
func (h *PlanHandler) CreatePlanFromSchedule(c *gin.Context) {
	h.create(c, h.planService.CreatePlanFromSchedule)
}

type createFunc func(ctx context.Context, actor service.Actor, input service.PlanInput) (*service.PlanView, error)

func (h *PlanHandler) create(c *gin.Context, create createFunc) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req PlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, bindError(err))
		return
	}
	input, err := req.toInput()
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	input.RequestKey = c.GetHeader(idempotencyKeyHeader)

	view, err := create(c.Request.Context(), actor, input)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

// UpdatePlan godoc
// @Summary Update a training plan
// @Description Replaces the editable fields. Completed plans are read-only (423).
// @Tags Plans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param planId path string true "Plan ID"
// @Param plan body PlanRequest true "Plan"
// @Success 200 {object} service.PlanView
// @Failure 423 {object} gin.H "Plan is completed"
// @Router /plans/{planId} [put]
func (h *PlanHandler) UpdatePlan(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	planID, ok := pathObjectID(c, "planId")
	if !ok {
		return
	}
	var req PlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, bindError(err))
		return
	}
	input, err := req.toInput()
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	view, err := h.planService.UpdatePlan(c.Request.Context(), actor, planID, input)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// DeletePlan godoc
// @Summary Delete a training plan
// @Description Deletes the plan and its attendance records.
// @Tags Plans
// @Security BearerAuth
// @Param planId path string true "Plan ID"
// @Success 204
// @Router /plans/{planId} [delete]
func (h *PlanHandler) DeletePlan(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	planID, ok := pathObjectID(c, "planId")
	if !ok {
		return
	}
	if err := h.planService.DeletePlan(c.Request.Context(), actor, planID); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// RemoveActivity deletes one activity (1-based order) and renumbers the rest.
func (h *PlanHandler) RemoveActivity(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	planID, ok := pathObjectID(c, "planId")
	if !ok {
		return
	}
	order, err := strconv.Atoi(c.Param("order"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Activity order must be a number")
		return
	}

	view, err := h.planService.RemoveActivity(c.Request.Context(), actor, planID, order)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// UpdateStatus godoc
// @Summary Change the status of a training plan
// @Description draft→assigned (admin, supervisor), assigned→in_progress and in_progress→completed (coach).
// @Tags Plans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param planId path string true "Plan ID"
// @Param status body StatusRequest true "Target status"
// @Success 200 {object} service.PlanView
// @Failure 403 {object} gin.H "Role may not take this step"
// @Failure 409 {object} gin.H "Illegal transition or concurrent change"
// @Router /plans/{planId}/status [patch]
func (h *PlanHandler) UpdateStatus(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	planID, ok := pathObjectID(c, "planId")
	if !ok {
		return
	}
	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, bindError(err))
		return
	}

	view, err := h.planService.UpdateStatus(c.Request.Context(), actor, planID, req.Status)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// CheckDuration lets editors show the duration warning while typing.
func (h *PlanHandler) CheckDuration(c *gin.Context) {
	var req DurationCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, bindError(err))
		return
	}
	activities := make([]domain.Activity, len(req.Activities))
	for i, a := range req.Activities {
		activities[i] = domain.Activity{Title: a.Title, Duration: a.Duration, Order: a.Order}
	}
	c.JSON(http.StatusOK, service.CheckDuration(activities, req.Duration))
}

// --- Attachments ---

// RequestUploadURL godoc
// @Summary Get a presigned URL to upload a plan attachment
// @Tags Plans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param planId path string true "Plan ID"
// @Param request body UploadURLRequest true "Content type of the file"
// @Success 200 {object} service.AttachmentUpload
// @Failure 503 {object} gin.H "Attachments are not configured"
// @Router /plans/{planId}/attachments/upload-url [post]
func (h *PlanHandler) RequestUploadURL(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	planID, ok := pathObjectID(c, "planId")
	if !ok {
		return
	}
	var req UploadURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, bindError(err))
		return
	}

	upload, err := h.planService.RequestAttachmentUpload(c.Request.Context(), actor, planID, req.ContentType)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, upload)
}

// ConfirmAttachment records an uploaded object on the plan.
func (h *PlanHandler) ConfirmAttachment(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	planID, ok := pathObjectID(c, "planId")
	if !ok {
		return
	}
	var req ConfirmAttachmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, bindError(err))
		return
	}

	view, err := h.planService.ConfirmAttachment(c.Request.Context(), actor, planID, req.ObjectKey)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// DownloadURL returns a presigned URL for an attachment. :name is the last
// segment of the object key.
func (h *PlanHandler) DownloadURL(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	planID, ok := pathObjectID(c, "planId")
	if !ok {
		return
	}
	key := storage.PlanObjectKey(planID.Hex(), c.Param("name"))

	url, err := h.planService.AttachmentDownloadURL(c.Request.Context(), actor, planID, key)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, DownloadURLResponse{
		URL:       url,
		ExpiresAt: time.Now().UTC().Add(storage.DefaultPresignedURLExpiry),
	})
}

// --- Helpers ---

func requireActor(c *gin.Context) (service.Actor, bool) {
	actor, ok := actorFromContext(c)
	if !ok {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
	}
	return actor, ok
}

func pathObjectID(c *gin.Context, param string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param(param))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid "+param+" format.")
		return primitive.NilObjectID, false
	}
	return id, true
}
