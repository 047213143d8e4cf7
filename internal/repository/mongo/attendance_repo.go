package mongo

import (
	"alcyxob/club-app/internal/domain"
	"alcyxob/club-app/internal/repository"
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const attendanceCollectionName = "attendance"

// mongoAttendanceRepository implements repository.AttendanceRepository.
// The unique (planId, playerId) index makes every write an upsert on that pair.
type mongoAttendanceRepository struct {
	collection *mongo.Collection
}

// NewMongoAttendanceRepository creates a new attendance repository backed by MongoDB.
func NewMongoAttendanceRepository(db *mongo.Database) repository.AttendanceRepository {
	return &mongoAttendanceRepository{
		collection: db.Collection(attendanceCollectionName),
	}
}

// GetByPlanID returns every record of the plan.
func (r *mongoAttendanceRepository) GetByPlanID(ctx context.Context, planID primitive.ObjectID) ([]domain.AttendanceRecord, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"planId": planID},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	records := []domain.AttendanceRecord{}
	if err = cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// SeedAbsent inserts default records with $setOnInsert so existing ones are never overwritten.
func (r *mongoAttendanceRepository) SeedAbsent(ctx context.Context, planID primitive.ObjectID, playerIDs []primitive.ObjectID) (int, error) {
	if len(playerIDs) == 0 {
		return 0, nil
	}
	now := time.Now().UTC()
	models := make([]mongo.WriteModel, 0, len(playerIDs))
	for _, playerID := range playerIDs {
		models = append(models, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"planId": planID, "playerId": playerID}).
			SetUpdate(bson.M{"$setOnInsert": bson.M{
				"planId":    planID,
				"playerId":  playerID,
				"status":    domain.AttendanceAbsent,
				"createdAt": now,
				"updatedAt": now,
			}}).
			SetUpsert(true))
	}

	result, err := r.collection.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false))
	if err != nil {
		// A concurrent seed may win the race for a pair; the unique index
		// rejects our insert and the record exists either way.
		if mongo.IsDuplicateKeyError(err) {
			if result != nil {
				return int(result.UpsertedCount), nil
			}
			return 0, nil
		}
		return 0, err
	}
	return int(result.UpsertedCount), nil
}

// Upsert writes each record keyed on (planId, playerId).
func (r *mongoAttendanceRepository) Upsert(ctx context.Context, records []domain.AttendanceRecord) error {
	if len(records) == 0 {
		return nil
	}
	now := time.Now().UTC()
	models := make([]mongo.WriteModel, 0, len(records))
	for _, rec := range records {
		set := bson.M{
			"status":    rec.Status,
			"notes":     rec.Notes,
			"updatedAt": now,
		}
		if rec.MarkedBy != nil {
			set["markedBy"] = rec.MarkedBy
		}
		if rec.MarkedAt != nil {
			set["markedAt"] = rec.MarkedAt
		}
		models = append(models, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"planId": rec.PlanID, "playerId": rec.PlayerID}).
			SetUpdate(bson.M{
				"$set":         set,
				"$setOnInsert": bson.M{"createdAt": now},
			}).
			SetUpsert(true))
	}

	_, err := r.collection.BulkWrite(ctx, models)
	return err
}

// EnsureAttendanceIndexes creates the unique (planId, playerId) index.
func EnsureAttendanceIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "planId", Value: 1}, {Key: "playerId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
