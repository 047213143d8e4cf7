package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AttendanceStatus is a player's presence at a training session.
type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "present"
	AttendanceAbsent  AttendanceStatus = "absent"
	AttendanceLate    AttendanceStatus = "late"
	AttendanceExcused AttendanceStatus = "excused"
)

// AttendanceStatuses lists the statuses in display order.
var AttendanceStatuses = []AttendanceStatus{
	AttendancePresent, AttendanceAbsent, AttendanceLate, AttendanceExcused,
}

// Valid reports whether s is a known attendance status.
func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendancePresent, AttendanceAbsent, AttendanceLate, AttendanceExcused:
		return true
	}
	return false
}

// Tone is the colour family clients use to render the status.
func (s AttendanceStatus) Tone() string {
	switch s {
	case AttendancePresent:
		return "success"
	case AttendanceAbsent:
		return "error"
	case AttendanceLate:
		return "warning"
	case AttendanceExcused:
		return "info"
	}
	return "default"
}

// AttendanceRecord is the presence of one player at one training plan.
// There is at most one record per (PlanID, PlayerID).
type AttendanceRecord struct {
	ID        primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	PlanID    primitive.ObjectID  `bson:"planId" json:"planId"`
	PlayerID  primitive.ObjectID  `bson:"playerId" json:"playerId"`
	Status    AttendanceStatus    `bson:"status" json:"status"`
	Notes     string              `bson:"notes,omitempty" json:"notes,omitempty"`
	MarkedBy  *primitive.ObjectID `bson:"markedBy,omitempty" json:"markedBy,omitempty"` // Coach who last wrote the record
	MarkedAt  *time.Time          `bson:"markedAt,omitempty" json:"markedAt,omitempty"`
	CreatedAt time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time           `bson:"updatedAt" json:"updatedAt"`
}
