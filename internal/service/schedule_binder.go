package service

import (
	"alcyxob/club-app/internal/domain"
	"alcyxob/club-app/internal/metrics"
	"alcyxob/club-app/internal/repository"
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ScheduleUnavailable is shown in place of a schedule that could not be looked up.
const ScheduleUnavailable = "schedule info unavailable"

// ScheduleState tags the outcome of resolving a plan's schedule.
type ScheduleState string

const (
	ScheduleResolved ScheduleState = "resolved"
	ScheduleNone     ScheduleState = "none" // The plan is not bound to a schedule
	ScheduleFailed   ScheduleState = "failed"
)

// ScheduleInfo is the display-side view of a plan's booking. A failed lookup
// is carried here instead of failing the read of the plan.
type ScheduleInfo struct {
	State   ScheduleState   `json:"state"`
	Booking *domain.Booking `json:"booking,omitempty"`
	Reason  string          `json:"reason,omitempty"`
}

func resolvedSchedule(b *domain.Booking) ScheduleInfo {
	return ScheduleInfo{State: ScheduleResolved, Booking: b}
}

func failedSchedule() ScheduleInfo {
	return ScheduleInfo{State: ScheduleFailed, Reason: ScheduleUnavailable}
}

// ScheduleBinder attaches plans to reserved Training slots and resolves the
// booking behind a plan's schedule reference for display.
type ScheduleBinder struct {
	bookings repository.BookingDirectory
	logger   *zap.Logger
	metrics  *metrics.Metrics
	now      func() time.Time
}

// NewScheduleBinder creates a binder reading from the given booking directory.
func NewScheduleBinder(bookings repository.BookingDirectory, logger *zap.Logger, m *metrics.Metrics) *ScheduleBinder {
	return &ScheduleBinder{
		bookings: bookings,
		logger:   logger,
		metrics:  m,
		now:      time.Now,
	}
}

// CandidateSchedules returns the team's future Training bookings, soonest first.
func (b *ScheduleBinder) CandidateSchedules(ctx context.Context, teamID primitive.ObjectID) ([]domain.Booking, error) {
	if teamID == primitive.NilObjectID {
		return nil, invalid("teamId", "is required")
	}
	bookings, err := b.bookings.ListByTeam(ctx, teamID, domain.PurposeTraining, b.now().UTC())
	if err != nil {
		return nil, err
	}
	if bookings == nil {
		bookings = []domain.Booking{}
	}
	return bookings, nil
}

// GetSchedule looks up one booking.
func (b *ScheduleBinder) GetSchedule(ctx context.Context, id primitive.ObjectID) (*domain.Booking, error) {
	booking, err := b.bookings.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrScheduleNotFound
		}
		return nil, err
	}
	return booking, nil
}

// Lookup fetches the booking a plan of teamID is about to be bound to and
// checks it may be used: reserved for training, by the same team, and, when
// requireFuture is set, not yet started.
func (b *ScheduleBinder) Lookup(ctx context.Context, scheduleID, teamID primitive.ObjectID, requireFuture bool) (*domain.Booking, error) {
	booking, err := b.GetSchedule(ctx, scheduleID)
	if err != nil {
		return nil, err
	}
	if !booking.IsTraining() {
		return nil, ErrScheduleNotTraining
	}
	if booking.TeamID != teamID {
		return nil, ErrScheduleTeamMismatch
	}
	if requireFuture && booking.StartTime.Before(b.now()) {
		return nil, ErrSchedulePast
	}
	return booking, nil
}

// Bind copies the booking onto the plan: the plan takes the slot's start time
// and becomes recurring when the slot recurs. Recurrence only flows from the
// booking to the plan, never back.
func (b *ScheduleBinder) Bind(plan *domain.TrainingPlan, booking *domain.Booking) {
	id := booking.ID
	plan.ScheduleID = &id
	plan.Date = booking.StartTime
	if booking.IsRecurring {
		plan.IsRecurring = true
	}
}

// Resolve returns the plan's schedule for display. Lookup failures are
// logged and reported as ScheduleFailed; they never fail the caller.
func (b *ScheduleBinder) Resolve(ctx context.Context, plan *domain.TrainingPlan) ScheduleInfo {
	if plan.ScheduleID == nil {
		return ScheduleInfo{State: ScheduleNone}
	}
	booking, err := b.bookings.GetByID(ctx, *plan.ScheduleID)
	if err != nil {
		b.logger.Warn("schedule lookup failed",
			zap.String("planId", plan.ID.Hex()),
			zap.String("scheduleId", plan.ScheduleID.Hex()),
			zap.Error(err))
		b.metrics.ScheduleLookup("failed")
		return failedSchedule()
	}
	b.metrics.ScheduleLookup("resolved")
	return resolvedSchedule(booking)
}

// ResolveMany resolves the schedules of a list of plans, looking each
// distinct booking up once. The result is keyed by schedule ID.
func (b *ScheduleBinder) ResolveMany(ctx context.Context, plans []domain.TrainingPlan) map[primitive.ObjectID]ScheduleInfo {
	out := make(map[primitive.ObjectID]ScheduleInfo)
	for i := range plans {
		id := plans[i].ScheduleID
		if id == nil {
			continue
		}
		if _, seen := out[*id]; seen {
			continue
		}
		out[*id] = b.Resolve(ctx, &plans[i])
	}
	return out
}

// infoFor picks a plan's entry out of a ResolveMany result.
func infoFor(resolved map[primitive.ObjectID]ScheduleInfo, plan *domain.TrainingPlan) ScheduleInfo {
	if plan.ScheduleID == nil {
		return ScheduleInfo{State: ScheduleNone}
	}
	if info, ok := resolved[*plan.ScheduleID]; ok {
		return info
	}
	return failedSchedule()
}
