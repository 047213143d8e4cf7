package service

import (
	"alcyxob/club-app/internal/domain"
	"alcyxob/club-app/internal/metrics"
	"alcyxob/club-app/internal/repository"
	"alcyxob/club-app/internal/storage"
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// --- Inputs & Views ---

// ActivityInput is one activity of a plan payload.
type ActivityInput struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"max=2000"`
	Duration    int    `json:"duration" validate:"gt=0"`
	Order       int    `json:"order" validate:"gte=0"`
}

// PlanInput is the create/update payload of a training plan.
type PlanInput struct {
	Title       string              `json:"title" validate:"required,max=200"`
	Description string              `json:"description" validate:"max=5000"`
	TeamID      primitive.ObjectID  `json:"teamId" validate:"required"`
	Date        time.Time           `json:"date"`
	Duration    int                 `json:"duration" validate:"gt=0"`
	Activities  []ActivityInput     `json:"activities" validate:"max=100,dive"`
	Notes       string              `json:"notes" validate:"max=5000"`
	ScheduleID  *primitive.ObjectID `json:"scheduleId"`
	IsRecurring bool                `json:"isRecurring"`

	// RequestKey makes creation idempotent. Ignored on update.
	RequestKey string `json:"-" validate:"max=64"`
}

// TeamSummary is the denormalized team shown with a plan.
type TeamSummary struct {
	ID        primitive.ObjectID `json:"id"`
	Name      string             `json:"name"`
	SportType string             `json:"sportType"`
}

func summarizeTeam(t *domain.Team) *TeamSummary {
	if t == nil {
		return nil
	}
	return &TeamSummary{ID: t.ID, Name: t.Name, SportType: t.SportType}
}

// PlanView is a plan together with what is shown next to it: its team, its
// resolved schedule and the duration check of its activities.
type PlanView struct {
	*domain.TrainingPlan
	Team            *TeamSummary  `json:"team,omitempty"`
	TeamUnavailable bool          `json:"teamUnavailable,omitempty"`
	Schedule        ScheduleInfo  `json:"schedule"`
	DurationCheck   DurationCheck `json:"durationCheck"`
}

// PlanQuery filters ListPlans.
type PlanQuery struct {
	TeamID primitive.ObjectID
	Status domain.PlanStatus
}

// AttachmentUpload is a presigned upload slot for a new plan attachment.
type AttachmentUpload struct {
	ObjectKey string    `json:"objectKey"`
	UploadURL string    `json:"uploadUrl"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// --- Service Interface ---
type TrainingPlanService interface {
	CreatePlan(ctx context.Context, actor Actor, input PlanInput) (*PlanView, error)
	CreatePlanFromSchedule(ctx context.Context, actor Actor, input PlanInput) (*PlanView, error)
	GetPlan(ctx context.Context, actor Actor, planID primitive.ObjectID) (*PlanView, error)
	UpdatePlan(ctx context.Context, actor Actor, planID primitive.ObjectID, input PlanInput) (*PlanView, error)
	DeletePlan(ctx context.Context, actor Actor, planID primitive.ObjectID) error
	ListPlans(ctx context.Context, actor Actor, query PlanQuery) ([]PlanView, error)
	RemoveActivity(ctx context.Context, actor Actor, planID primitive.ObjectID, order int) (*PlanView, error)
	UpdateStatus(ctx context.Context, actor Actor, planID primitive.ObjectID, status domain.PlanStatus) (*PlanView, error)

	// Schedules
	CandidateSchedules(ctx context.Context, actor Actor, teamID primitive.ObjectID) ([]domain.Booking, error)
	GetSchedule(ctx context.Context, actor Actor, scheduleID primitive.ObjectID) (*domain.Booking, error)

	// Attachments
	RequestAttachmentUpload(ctx context.Context, actor Actor, planID primitive.ObjectID, contentType string) (*AttachmentUpload, error)
	ConfirmAttachment(ctx context.Context, actor Actor, planID primitive.ObjectID, objectKey string) (*PlanView, error)
	AttachmentDownloadURL(ctx context.Context, actor Actor, planID primitive.ObjectID, objectKey string) (string, error)
}

// --- Service Implementation ---

type trainingPlanService struct {
	plans   repository.TrainingPlanRepository
	teams   repository.TeamDirectory
	binder  *ScheduleBinder
	files   storage.FileStorage // nil when attachments are disabled
	logger  *zap.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewTrainingPlanService creates the plan service. fileStorage may be nil,
// in which case the attachment operations return ErrAttachmentsDisabled.
func NewTrainingPlanService(
	plans repository.TrainingPlanRepository,
	teams repository.TeamDirectory,
	binder *ScheduleBinder,
	fileStorage storage.FileStorage,
	logger *zap.Logger,
	m *metrics.Metrics,
) TrainingPlanService {
	return &trainingPlanService{
		plans:   plans,
		teams:   teams,
		binder:  binder,
		files:   fileStorage,
		logger:  logger,
		metrics: m,
		now:     time.Now,
	}
}

// === Creation ===

// CreatePlan creates an ad hoc plan in Draft. A selected schedule is bound,
// and an activity total that does not match the duration is only reported.
func (s *trainingPlanService) CreatePlan(ctx context.Context, actor Actor, input PlanInput) (*PlanView, error) {
	if !actor.IsCoordinator() {
		return nil, ErrPlanAccessDenied
	}
	if existing, err := s.findByRequestKey(ctx, actor, input.RequestKey, domain.OriginAdHoc); existing != nil || err != nil {
		return existing, err
	}

	plan, team, booking, err := s.preparePlan(ctx, actor, input, false)
	if err != nil {
		return nil, err
	}
	plan.Status = domain.PlanDraft
	plan.Origin = domain.OriginAdHoc

	view, err := s.insert(ctx, actor, plan, team, booking)
	if err != nil {
		return nil, err
	}
	if !view.DurationCheck.IsConsistent {
		s.logger.Info("plan created with inconsistent duration",
			zap.String("planId", plan.ID.Hex()),
			zap.Int("activityMinutes", view.DurationCheck.TotalActivityMinutes),
			zap.Int("duration", plan.Duration))
	}
	s.metrics.PlanCreated(string(domain.OriginAdHoc))
	return view, nil
}

// CreatePlanFromSchedule creates a plan for a future Training booking of the
// team. The plan starts out Assigned, and its activities must fill the
// duration exactly.
func (s *trainingPlanService) CreatePlanFromSchedule(ctx context.Context, actor Actor, input PlanInput) (*PlanView, error) {
	if !actor.IsCoordinator() {
		return nil, ErrPlanAccessDenied
	}
	if input.ScheduleID == nil || *input.ScheduleID == primitive.NilObjectID {
		return nil, invalid("scheduleId", "is required")
	}
	if existing, err := s.findByRequestKey(ctx, actor, input.RequestKey, domain.OriginSchedule); existing != nil || err != nil {
		return existing, err
	}

	plan, team, booking, err := s.preparePlan(ctx, actor, input, true)
	if err != nil {
		return nil, err
	}
	if check := CheckDuration(plan.Activities, plan.Duration); !check.IsConsistent {
		return nil, &DurationMismatchError{Check: check}
	}
	plan.Status = domain.PlanAssigned
	plan.Origin = domain.OriginSchedule

	view, err := s.insert(ctx, actor, plan, team, booking)
	if err != nil {
		return nil, err
	}
	s.metrics.PlanCreated(string(domain.OriginSchedule))
	return view, nil
}

// findByRequestKey returns the plan an earlier call with the same key created.
// A key is only replayed on the creation path that first used it, so a
// schedule-driven retry never skips its own checks.
func (s *trainingPlanService) findByRequestKey(ctx context.Context, actor Actor, key string, origin domain.PlanOrigin) (*PlanView, error) {
	if key == "" {
		return nil, nil
	}
	existing, err := s.plans.GetByRequestKey(ctx, key)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if existing.CreatedBy != actor.UserID {
		// Keys are client generated; never hand out someone else's plan.
		return nil, invalid("Idempotency-Key", "was already used")
	}
	if existing.Origin != origin {
		return nil, invalid("Idempotency-Key", "was already used for a different kind of request")
	}
	s.logger.Info("replaying idempotent plan creation",
		zap.String("planId", existing.ID.Hex()),
		zap.String("requestKey", key))
	return s.view(ctx, existing, nil), nil
}

// preparePlan validates the input and builds the plan it describes,
// binding the selected schedule if there is one.
func (s *trainingPlanService) preparePlan(ctx context.Context, actor Actor, input PlanInput, requireFuture bool) (*domain.TrainingPlan, *domain.Team, *domain.Booking, error) {
	input = normalizeInput(input)
	if err := checkInput(input); err != nil {
		return nil, nil, nil, err
	}
	team, err := s.authorizeTeam(ctx, actor, input.TeamID)
	if err != nil {
		return nil, nil, nil, err
	}

	plan := &domain.TrainingPlan{CreatedBy: actor.UserID, RequestKey: input.RequestKey}
	applyInput(plan, input)

	var booking *domain.Booking
	if input.ScheduleID != nil {
		booking, err = s.binder.Lookup(ctx, *input.ScheduleID, input.TeamID, requireFuture)
		if err != nil {
			return nil, nil, nil, err
		}
		s.binder.Bind(plan, booking)
	}
	return plan, team, booking, nil
}

func (s *trainingPlanService) insert(ctx context.Context, actor Actor, plan *domain.TrainingPlan, team *domain.Team, booking *domain.Booking) (*PlanView, error) {
	id, err := s.plans.Create(ctx, plan)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) && plan.RequestKey != "" {
			// Lost a race with a retry of the same request.
			existing, findErr := s.findByRequestKey(ctx, actor, plan.RequestKey, plan.Origin)
			if findErr != nil {
				return nil, findErr
			}
			if existing != nil {
				return existing, nil
			}
		}
		return nil, err
	}
	plan.ID = id
	s.logger.Info("training plan created",
		zap.String("planId", id.Hex()),
		zap.String("teamId", plan.TeamID.Hex()),
		zap.String("status", string(plan.Status)))

	view := &PlanView{
		TrainingPlan:  plan,
		Team:          summarizeTeam(team),
		Schedule:      ScheduleInfo{State: ScheduleNone},
		DurationCheck: CheckDuration(plan.Activities, plan.Duration),
	}
	if booking != nil {
		view.Schedule = resolvedSchedule(booking)
	}
	return view, nil
}

// === Reads ===

// GetPlan returns one plan. A team or schedule that cannot be looked up is
// flagged on the view instead of failing the read.
func (s *trainingPlanService) GetPlan(ctx context.Context, actor Actor, planID primitive.ObjectID) (*PlanView, error) {
	if !actor.CanReadPlans() {
		return nil, ErrPlanAccessDenied
	}
	plan, err := s.load(ctx, planID)
	if err != nil {
		return nil, err
	}
	team, err := s.teams.GetByID(ctx, plan.TeamID)
	if err != nil {
		if actor.Role == domain.RoleSupervisor {
			// Scope cannot be checked without the team.
			if errors.Is(err, repository.ErrNotFound) {
				return nil, ErrPlanAccessDenied
			}
			return nil, err
		}
		s.logger.Warn("team lookup failed", zap.String("planId", plan.ID.Hex()), zap.Error(err))
		team = nil
	} else if !actor.CoversSport(team.SportType) {
		return nil, ErrPlanAccessDenied
	}

	view := s.view(ctx, plan, team)
	if team == nil {
		view.TeamUnavailable = true
	}
	return view, nil
}

// ListPlans returns the plans matching query, ordered by date. Supervisors
// only see plans of teams whose sport type they cover. Rows whose team or
// schedule cannot be looked up are degraded, not dropped.
func (s *trainingPlanService) ListPlans(ctx context.Context, actor Actor, query PlanQuery) ([]PlanView, error) {
	if !actor.CanReadPlans() {
		return nil, ErrPlanAccessDenied
	}
	if query.Status != "" && !query.Status.Valid() {
		return nil, invalid("status", "unknown status %q", query.Status)
	}

	filter := repository.PlanFilter{TeamID: query.TeamID, Status: query.Status}
	if actor.Role == domain.RoleSupervisor {
		ids := []primitive.ObjectID{}
		if len(actor.SportTypes) > 0 {
			scoped, err := s.teams.ListIDsBySportTypes(ctx, actor.SportTypes)
			if err != nil {
				return nil, err
			}
			ids = append(ids, scoped...)
		}
		filter.TeamIDs = ids
	}

	plans, err := s.plans.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	schedules := s.binder.ResolveMany(ctx, plans)
	teams := make(map[primitive.ObjectID]*domain.Team)
	views := make([]PlanView, 0, len(plans))
	for i := range plans {
		plan := &plans[i]
		team, seen := teams[plan.TeamID]
		if !seen {
			team = s.lookupTeam(ctx, plan)
			teams[plan.TeamID] = team
		}
		views = append(views, PlanView{
			TrainingPlan:    plan,
			Team:            summarizeTeam(team),
			TeamUnavailable: team == nil,
			Schedule:        infoFor(schedules, plan),
			DurationCheck:   CheckDuration(plan.Activities, plan.Duration),
		})
	}
	return views, nil
}

// === Edits ===

// UpdatePlan replaces the mutable fields of a plan that is not completed.
// The status is left alone; it only changes through UpdateStatus.
func (s *trainingPlanService) UpdatePlan(ctx context.Context, actor Actor, planID primitive.ObjectID, input PlanInput) (*PlanView, error) {
	if !actor.IsCoordinator() {
		return nil, ErrPlanAccessDenied
	}
	plan, err := s.load(ctx, planID)
	if err != nil {
		return nil, err
	}
	if plan.IsLocked() {
		return nil, ErrPlanLocked
	}
	if err := s.authorizePlan(ctx, actor, plan); err != nil {
		return nil, err
	}

	input = normalizeInput(input)
	if err := checkInput(input); err != nil {
		return nil, err
	}
	// Attendance of an assigned plan belongs to its team's roster.
	if input.TeamID != plan.TeamID && plan.Status != domain.PlanDraft {
		return nil, invalid("teamId", "cannot be changed once the plan is %s", plan.Status)
	}
	team, err := s.authorizeTeam(ctx, actor, input.TeamID)
	if err != nil {
		return nil, err
	}

	var booking *domain.Booking
	if input.ScheduleID != nil {
		booking, err = s.binder.Lookup(ctx, *input.ScheduleID, input.TeamID, false)
		if err != nil {
			return nil, err
		}
	}

	applyInput(plan, input)
	plan.ScheduleID = nil
	if booking != nil {
		s.binder.Bind(plan, booking)
	}

	if err := s.save(ctx, plan); err != nil {
		return nil, err
	}
	s.logger.Info("training plan updated", zap.String("planId", plan.ID.Hex()))

	view := &PlanView{
		TrainingPlan:  plan,
		Team:          summarizeTeam(team),
		Schedule:      ScheduleInfo{State: ScheduleNone},
		DurationCheck: CheckDuration(plan.Activities, plan.Duration),
	}
	if booking != nil {
		view.Schedule = resolvedSchedule(booking)
	}
	return view, nil
}

// RemoveActivity deletes the activity at the 1-based position order and
// renumbers the remaining ones.
func (s *trainingPlanService) RemoveActivity(ctx context.Context, actor Actor, planID primitive.ObjectID, order int) (*PlanView, error) {
	if !actor.IsCoordinator() {
		return nil, ErrPlanAccessDenied
	}
	plan, err := s.load(ctx, planID)
	if err != nil {
		return nil, err
	}
	if plan.IsLocked() {
		return nil, ErrPlanLocked
	}
	if err := s.authorizePlan(ctx, actor, plan); err != nil {
		return nil, err
	}

	activities, err := RemoveActivityAt(plan.Activities, order)
	if err != nil {
		return nil, err
	}
	plan.Activities = activities
	if err := s.save(ctx, plan); err != nil {
		return nil, err
	}
	return s.view(ctx, plan, nil), nil
}

// save writes the plan and tells a plan that was completed in the
// meantime apart from one that was deleted.
func (s *trainingPlanService) save(ctx context.Context, plan *domain.TrainingPlan) error {
	err := s.plans.Update(ctx, plan)
	if err == nil {
		return nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return err
	}
	current, loadErr := s.load(ctx, plan.ID)
	if loadErr != nil {
		return loadErr
	}
	if current.IsLocked() {
		return ErrPlanLocked
	}
	return err
}

// UpdateStatus moves the plan along its lifecycle. The change is a
// compare-and-set: if another caller changed the status first,
// ErrStatusConflict is returned.
func (s *trainingPlanService) UpdateStatus(ctx context.Context, actor Actor, planID primitive.ObjectID, status domain.PlanStatus) (*PlanView, error) {
	if !status.Valid() {
		return nil, invalid("status", "unknown status %q", status)
	}
	plan, err := s.load(ctx, planID)
	if err != nil {
		return nil, err
	}
	from := plan.Status
	if err := CheckTransition(from, status, actor.Role); err != nil {
		return nil, err
	}
	if err := s.authorizePlan(ctx, actor, plan); err != nil {
		return nil, err
	}

	if err := s.plans.UpdateStatus(ctx, plan.ID, from, status); err != nil {
		switch {
		case errors.Is(err, repository.ErrUpdateFailed):
			return nil, ErrStatusConflict
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	plan.Status = status
	plan.UpdatedAt = s.now().UTC()

	s.metrics.StatusTransition(string(from), string(status))
	s.logger.Info("training plan status changed",
		zap.String("planId", plan.ID.Hex()),
		zap.String("from", string(from)),
		zap.String("to", string(status)),
		zap.String("by", actor.UserID.Hex()))
	return s.view(ctx, plan, nil), nil
}

// DeletePlan removes the plan together with its attendance records. Stored
// attachments are removed afterwards; failures there are only logged.
func (s *trainingPlanService) DeletePlan(ctx context.Context, actor Actor, planID primitive.ObjectID) error {
	if !actor.IsCoordinator() {
		return ErrPlanAccessDenied
	}
	plan, err := s.load(ctx, planID)
	if err != nil {
		return err
	}
	if err := s.authorizePlan(ctx, actor, plan); err != nil {
		return err
	}

	if err := s.plans.DeleteWithAttendance(ctx, plan.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrPlanNotFound
		}
		return err
	}
	s.logger.Info("training plan deleted",
		zap.String("planId", plan.ID.Hex()),
		zap.String("by", actor.UserID.Hex()))

	if s.files != nil {
		for _, key := range plan.Attachments {
			if err := s.files.DeleteObject(ctx, key); err != nil {
				s.logger.Warn("failed to delete plan attachment",
					zap.String("planId", plan.ID.Hex()),
					zap.String("objectKey", key),
					zap.Error(err))
			}
		}
	}
	return nil
}

// === Schedules ===

// CandidateSchedules lists the future Training bookings a plan of the team
// can be bound to.
func (s *trainingPlanService) CandidateSchedules(ctx context.Context, actor Actor, teamID primitive.ObjectID) ([]domain.Booking, error) {
	if !actor.CanReadPlans() {
		return nil, ErrPlanAccessDenied
	}
	if actor.Role == domain.RoleSupervisor {
		if _, err := s.authorizeTeam(ctx, actor, teamID); err != nil {
			return nil, err
		}
	}
	return s.binder.CandidateSchedules(ctx, teamID)
}

func (s *trainingPlanService) GetSchedule(ctx context.Context, actor Actor, scheduleID primitive.ObjectID) (*domain.Booking, error) {
	if !actor.CanReadPlans() {
		return nil, ErrPlanAccessDenied
	}
	return s.binder.GetSchedule(ctx, scheduleID)
}

// === Attachments ===

// RequestAttachmentUpload issues a presigned PUT URL for a new attachment.
// The key only becomes part of the plan once ConfirmAttachment is called.
func (s *trainingPlanService) RequestAttachmentUpload(ctx context.Context, actor Actor, planID primitive.ObjectID, contentType string) (*AttachmentUpload, error) {
	plan, err := s.editableForAttachments(ctx, actor, planID)
	if err != nil {
		return nil, err
	}
	contentType = strings.TrimSpace(contentType)
	if contentType == "" {
		return nil, invalid("contentType", "is required")
	}

	key := storage.AttachmentKey(plan.ID.Hex(), contentType)
	url, err := s.files.GeneratePresignedUploadURL(ctx, key, contentType, storage.DefaultPresignedURLExpiry)
	if err != nil {
		return nil, err
	}
	return &AttachmentUpload{
		ObjectKey: key,
		UploadURL: url,
		ExpiresAt: s.now().UTC().Add(storage.DefaultPresignedURLExpiry),
	}, nil
}

// ConfirmAttachment records an uploaded object on the plan.
func (s *trainingPlanService) ConfirmAttachment(ctx context.Context, actor Actor, planID primitive.ObjectID, objectKey string) (*PlanView, error) {
	plan, err := s.editableForAttachments(ctx, actor, planID)
	if err != nil {
		return nil, err
	}
	if !storage.BelongsToPlan(objectKey, plan.ID.Hex()) {
		return nil, invalid("objectKey", "was not issued for this plan")
	}

	if err := s.plans.AddAttachment(ctx, plan.ID, objectKey); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Completed or deleted since it was loaded.
			if _, loadErr := s.load(ctx, plan.ID); loadErr != nil {
				return nil, loadErr
			}
			return nil, ErrPlanLocked
		}
		return nil, err
	}
	if !containsKey(plan.Attachments, objectKey) {
		plan.Attachments = append(plan.Attachments, objectKey)
	}
	return s.view(ctx, plan, nil), nil
}

// AttachmentDownloadURL issues a presigned GET URL for one of the plan's attachments.
func (s *trainingPlanService) AttachmentDownloadURL(ctx context.Context, actor Actor, planID primitive.ObjectID, objectKey string) (string, error) {
	if s.files == nil {
		return "", ErrAttachmentsDisabled
	}
	if !actor.CanReadPlans() {
		return "", ErrPlanAccessDenied
	}
	plan, err := s.load(ctx, planID)
	if err != nil {
		return "", err
	}
	if err := s.authorizePlan(ctx, actor, plan); err != nil {
		return "", err
	}
	if !containsKey(plan.Attachments, objectKey) {
		return "", ErrAttachmentNotFound
	}
	return s.files.GeneratePresignedDownloadURL(ctx, objectKey, storage.DefaultPresignedURLExpiry)
}

func (s *trainingPlanService) editableForAttachments(ctx context.Context, actor Actor, planID primitive.ObjectID) (*domain.TrainingPlan, error) {
	if s.files == nil {
		return nil, ErrAttachmentsDisabled
	}
	if !actor.IsCoordinator() {
		return nil, ErrPlanAccessDenied
	}
	plan, err := s.load(ctx, planID)
	if err != nil {
		return nil, err
	}
	if plan.IsLocked() {
		return nil, ErrPlanLocked
	}
	if err := s.authorizePlan(ctx, actor, plan); err != nil {
		return nil, err
	}
	return plan, nil
}

// --- Helpers ---

func (s *trainingPlanService) load(ctx context.Context, planID primitive.ObjectID) (*domain.TrainingPlan, error) {
	if planID == primitive.NilObjectID {
		return nil, ErrPlanNotFound
	}
	plan, err := s.plans.GetByID(ctx, planID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	return plan, nil
}

// authorizeTeam loads the team a plan is written for and checks the actor's
// sport scope covers it.
func (s *trainingPlanService) authorizeTeam(ctx context.Context, actor Actor, teamID primitive.ObjectID) (*domain.Team, error) {
	team, err := s.teams.GetByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, err
	}
	if !actor.CoversSport(team.SportType) {
		return nil, ErrPlanAccessDenied
	}
	return team, nil
}

// authorizePlan checks an existing plan is within the actor's sport scope.
// Only supervisors are scoped, so only they pay for the team lookup.
func (s *trainingPlanService) authorizePlan(ctx context.Context, actor Actor, plan *domain.TrainingPlan) error {
	if actor.Role != domain.RoleSupervisor {
		return nil
	}
	_, err := s.authorizeTeam(ctx, actor, plan.TeamID)
	if errors.Is(err, ErrTeamNotFound) {
		return ErrPlanAccessDenied
	}
	return err
}

func (s *trainingPlanService) lookupTeam(ctx context.Context, plan *domain.TrainingPlan) *domain.Team {
	team, err := s.teams.GetByID(ctx, plan.TeamID)
	if err != nil {
		s.logger.Warn("team lookup failed",
			zap.String("planId", plan.ID.Hex()),
			zap.String("teamId", plan.TeamID.Hex()),
			zap.Error(err))
		return nil
	}
	return team
}

// view enriches plan for display. team is looked up when nil.
func (s *trainingPlanService) view(ctx context.Context, plan *domain.TrainingPlan, team *domain.Team) *PlanView {
	if team == nil {
		team = s.lookupTeam(ctx, plan)
	}
	return &PlanView{
		TrainingPlan:    plan,
		Team:            summarizeTeam(team),
		TeamUnavailable: team == nil,
		Schedule:        s.binder.Resolve(ctx, plan),
		DurationCheck:   CheckDuration(plan.Activities, plan.Duration),
	}
}

func normalizeInput(input PlanInput) PlanInput {
	input.Title = strings.TrimSpace(input.Title)
	input.Description = strings.TrimSpace(input.Description)
	input.Notes = strings.TrimSpace(input.Notes)
	input.RequestKey = strings.TrimSpace(input.RequestKey)
	if input.ScheduleID != nil && *input.ScheduleID == primitive.NilObjectID {
		input.ScheduleID = nil
	}
	activities := make([]ActivityInput, len(input.Activities))
	for i, a := range input.Activities {
		a.Title = strings.TrimSpace(a.Title)
		a.Description = strings.TrimSpace(a.Description)
		activities[i] = a
	}
	input.Activities = activities
	return input
}

func checkInput(input PlanInput) error {
	if err := validateStruct(input); err != nil {
		return err
	}
	if input.ScheduleID == nil && input.Date.IsZero() {
		return invalid("date", "is required when no schedule is selected")
	}
	return nil
}

// applyInput copies the mutable fields of input onto plan. Schedule binding
// is left to the caller.
func applyInput(plan *domain.TrainingPlan, input PlanInput) {
	plan.Title = input.Title
	plan.Description = input.Description
	if plan.Description == "" {
		plan.Description = domain.DefaultPlanDescription
	}
	plan.TeamID = input.TeamID
	plan.Date = input.Date.UTC()
	plan.Duration = input.Duration
	plan.Notes = input.Notes
	plan.IsRecurring = input.IsRecurring

	activities := make([]domain.Activity, len(input.Activities))
	for i, a := range input.Activities {
		activities[i] = domain.Activity{
			Title:       a.Title,
			Description: a.Description,
			Duration:    a.Duration,
			Order:       a.Order,
		}
	}
	plan.Activities = NormalizeActivities(activities)
}

func containsKey(keys []string, key string) bool {
	for _, k := range keys {
		if k == key {
			return true
		}
	}
	return false
}
