// internal/domain/training_plan.go
package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DefaultPlanDescription is stored when a plan is created without a description.
const DefaultPlanDescription = "No description provided."

// PlanStatus tracks where a training plan is in its lifecycle.
type PlanStatus string

const (
	PlanDraft      PlanStatus = "draft"
	PlanAssigned   PlanStatus = "assigned"
	PlanInProgress PlanStatus = "in_progress"
	PlanCompleted  PlanStatus = "completed"
)

// Valid reports whether s is one of the known plan states.
func (s PlanStatus) Valid() bool {
	switch s {
	case PlanDraft, PlanAssigned, PlanInProgress, PlanCompleted:
		return true
	}
	return false
}

// PlanOrigin records which creation path produced a plan.
type PlanOrigin string

const (
	OriginAdHoc    PlanOrigin = "adhoc"
	OriginSchedule PlanOrigin = "schedule"
)

// TrainingPlan is a coached session for one team, optionally bound to a
// reserved Training booking.
type TrainingPlan struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Title       string              `bson:"title" json:"title"`
	Description string              `bson:"description" json:"description"`
	TeamID      primitive.ObjectID  `bson:"teamId" json:"teamId"`
	Date        time.Time           `bson:"date" json:"date"` // Mirrors the booking start when ScheduleID is set
	Duration    int                 `bson:"duration" json:"duration"` // Minutes
	Activities  []Activity          `bson:"activities" json:"activities"`
	Status      PlanStatus          `bson:"status" json:"status"`
	ScheduleID  *primitive.ObjectID `bson:"scheduleId,omitempty" json:"scheduleId,omitempty"`
	IsRecurring bool                `bson:"isRecurring" json:"isRecurring"`
	Notes       string              `bson:"notes,omitempty" json:"notes,omitempty"`
	Attachments []string            `bson:"attachments,omitempty" json:"attachments,omitempty"` // Object storage keys
	CreatedBy   primitive.ObjectID  `bson:"createdBy" json:"createdBy"`

	// RequestKey is the client supplied idempotency key of the create call, if any.
	RequestKey string     `bson:"requestKey,omitempty" json:"-"`
	Origin     PlanOrigin `bson:"origin,omitempty" json:"origin,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// IsLocked reports whether the plan no longer accepts field edits.
func (p *TrainingPlan) IsLocked() bool {
	return p.Status == PlanCompleted
}

// Activity is one block of a training plan. It has no identity beyond its
// position; Order is the 1-based display and execution order.
type Activity struct {
	Title       string `bson:"title" json:"title"`
	Description string `bson:"description,omitempty" json:"description,omitempty"`
	Duration    int    `bson:"duration" json:"duration"` // Minutes
	Order       int    `bson:"order" json:"order"`
}
