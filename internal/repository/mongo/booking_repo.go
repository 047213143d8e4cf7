package mongo

import (
	"alcyxob/club-app/internal/domain"
	"alcyxob/club-app/internal/repository"
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const bookingCollectionName = "bookings"

// mongoBookingDirectory reads court reservations written by the booking module.
type mongoBookingDirectory struct {
	collection *mongo.Collection
}

// NewMongoBookingDirectory creates a read-only booking directory.
func NewMongoBookingDirectory(db *mongo.Database) repository.BookingDirectory {
	return &mongoBookingDirectory{
		collection: db.Collection(bookingCollectionName),
	}
}

// GetByID retrieves a booking by its ID.
func (r *mongoBookingDirectory) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Booking, error) {
	var booking domain.Booking
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&booking)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &booking, nil
}

// ListByTeam retrieves a team's bookings of one purpose starting at or after `from`.
func (r *mongoBookingDirectory) ListByTeam(ctx context.Context, teamID primitive.ObjectID, purpose domain.BookingPurpose, from time.Time) ([]domain.Booking, error) {
	filter := bson.M{
		"teamId":    teamID,
		"purpose":   purpose,
		"startTime": bson.M{"$gte": from},
	}
	findOptions := options.Find().SetSort(bson.D{{Key: "startTime", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	bookings := []domain.Booking{}
	if err = cursor.All(ctx, &bookings); err != nil {
		return nil, err
	}
	return bookings, nil
}
