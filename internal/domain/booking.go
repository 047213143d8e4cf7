package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// BookingPurpose tags what a reserved court slot is for.
type BookingPurpose string

const (
	PurposeTraining BookingPurpose = "training"
	PurposeMatch    BookingPurpose = "match"
)

// Booking is a reserved time slot at a court ("schedule"). Bookings are
// owned by the booking directory; this service only reads them.
type Booking struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TeamID      primitive.ObjectID `bson:"teamId" json:"teamId"`
	CourtID     primitive.ObjectID `bson:"courtId" json:"courtId"`
	CourtName   string             `bson:"courtName,omitempty" json:"courtName,omitempty"`
	Purpose     BookingPurpose     `bson:"purpose" json:"purpose"`
	StartTime   time.Time          `bson:"startTime" json:"startTime"`
	EndTime     time.Time          `bson:"endTime" json:"endTime"`
	IsRecurring bool               `bson:"isRecurring" json:"isRecurring"`
}

// IsTraining reports whether the slot was reserved for training.
func (b *Booking) IsTraining() bool {
	return b.Purpose == PurposeTraining
}
