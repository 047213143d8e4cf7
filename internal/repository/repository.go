package repository

import (
	"alcyxob/club-app/internal/domain"
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Error constants for the repository layer.
var (
	ErrNotFound     = RepositoryError("not found")
	ErrDuplicate    = RepositoryError("duplicate key")
	ErrUpdateFailed = RepositoryError("update failed")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// PlanFilter narrows ListPlans. Zero values mean "no restriction".
type PlanFilter struct {
	TeamID primitive.ObjectID
	Status domain.PlanStatus
	// TeamIDs restricts results to these teams when non-nil. An empty,
	// non-nil slice matches nothing.
	TeamIDs []primitive.ObjectID
}

// TrainingPlanRepository defines the interface for interacting with training plan data.
type TrainingPlanRepository interface {
	Create(ctx context.Context, plan *domain.TrainingPlan) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.TrainingPlan, error)
	GetByRequestKey(ctx context.Context, key string) (*domain.TrainingPlan, error)
	List(ctx context.Context, filter PlanFilter) ([]domain.TrainingPlan, error)
	// Update replaces the mutable fields of the plan. It refuses to touch a
	// plan that is completed in storage and reports ErrNotFound in that case.
	Update(ctx context.Context, plan *domain.TrainingPlan) error
	// UpdateStatus moves the plan from one status to another, failing with
	// ErrUpdateFailed when the stored status is no longer `from`.
	UpdateStatus(ctx context.Context, id primitive.ObjectID, from, to domain.PlanStatus) error
	AddAttachment(ctx context.Context, id primitive.ObjectID, objectKey string) error
	// DeleteWithAttendance removes the plan and all its attendance records
	// as one unit.
	DeleteWithAttendance(ctx context.Context, id primitive.ObjectID) error
}

// AttendanceRepository defines the interface for the attendance ledger.
// Records are keyed on (planId, playerId); every write is an upsert.
type AttendanceRepository interface {
	GetByPlanID(ctx context.Context, planID primitive.ObjectID) ([]domain.AttendanceRecord, error)
	// SeedAbsent inserts an Absent record for every player that has none.
	// Existing records are left untouched. Returns the number inserted.
	SeedAbsent(ctx context.Context, planID primitive.ObjectID, playerIDs []primitive.ObjectID) (int, error)
	// Upsert writes each record by (planId, playerId), overwriting status,
	// notes and marker fields.
	Upsert(ctx context.Context, records []domain.AttendanceRecord) error
}

// BookingDirectory is the read side of the club's court reservations.
type BookingDirectory interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Booking, error)
	// ListByTeam returns the team's bookings with the given purpose starting
	// at or after `from`, soonest first.
	ListByTeam(ctx context.Context, teamID primitive.ObjectID, purpose domain.BookingPurpose, from time.Time) ([]domain.Booking, error)
}

// TeamDirectory is the read side of team and roster management.
type TeamDirectory interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Team, error)
	ListIDsBySportTypes(ctx context.Context, sportTypes []string) ([]primitive.ObjectID, error)
}

// UserDirectory resolves display names.
type UserDirectory interface {
	GetNames(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]string, error)
}
