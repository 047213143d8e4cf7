// internal/repository/mongo/training_plan_repo.go
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
	"go.uber.org/zap"
)

const trainingPlanCollectionName = "training_plans"

// mongoTrainingPlanRepository implements repository.TrainingPlanRepository
type mongoTrainingPlanRepository struct {
	collection *mongo.Collection
	attendance *mongo.Collection
	logger     *zap.Logger
}

// NewMongoTrainingPlanRepository creates a new TrainingPlan repository.
// The attendance collection is needed for cascading deletes.
func NewMongoTrainingPlanRepository(db *mongo.Database, logger *zap.Logger) repository.TrainingPlanRepository {
	return &mongoTrainingPlanRepository{
		collection: db.Collection(trainingPlanCollectionName),
		attendance: db.Collection(attendanceCollectionName),
		logger:     logger,
	}
}

// Create inserts a new training plan.
func (r *mongoTrainingPlanRepository) Create(ctx context.Context, plan *domain.TrainingPlan) (primitive.ObjectID, error) {
	if plan.TeamID == primitive.NilObjectID || plan.Title == "" {
		return primitive.NilObjectID, errors.New("plan requires teamId and title")
	}
	plan.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	plan.CreatedAt = now
	plan.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, plan)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			// Only requestKey is unique besides _id.
			return primitive.NilObjectID, repository.ErrDuplicate
		}
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted plan ID")
	}
	return insertedID, nil
}

// GetByID retrieves a single training plan by its ID.
func (r *mongoTrainingPlanRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.TrainingPlan, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

// GetByRequestKey finds the plan created by an earlier call with the same idempotency key.
func (r *mongoTrainingPlanRepository) GetByRequestKey(ctx context.Context, key string) (*domain.TrainingPlan, error) {
	if key == "" {
		return nil, repository.ErrNotFound
	}
	return r.findOne(ctx, bson.M{"requestKey": key})
}

func (r *mongoTrainingPlanRepository) findOne(ctx context.Context, filter bson.M) (*domain.TrainingPlan, error) {
	var plan domain.TrainingPlan
	err := r.collection.FindOne(ctx, filter).Decode(&plan)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &plan, nil
}

// List retrieves plans matching the filter, ordered by session date.
func (r *mongoTrainingPlanRepository) List(ctx context.Context, filter repository.PlanFilter) ([]domain.TrainingPlan, error) {
	query := bson.M{}
	if filter.TeamIDs != nil {
		if len(filter.TeamIDs) == 0 {
			return []domain.TrainingPlan{}, nil
		}
		query["teamId"] = bson.M{"$in": filter.TeamIDs}
	}
	if filter.TeamID != primitive.NilObjectID {
		if filter.TeamIDs != nil && !containsID(filter.TeamIDs, filter.TeamID) {
			return []domain.TrainingPlan{}, nil
		}
		query["teamId"] = filter.TeamID
	}
	if filter.Status != "" {
		query["status"] = filter.Status
	}

	findOptions := options.Find().SetSort(bson.D{{Key: "date", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := r.collection.Find(ctx, query, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	plans := []domain.TrainingPlan{}
	if err = cursor.All(ctx, &plans); err != nil {
		return nil, err
	}
	return plans, nil
}

// Update replaces the mutable fields. The status filter guarantees a plan
// completed concurrently is never modified.
func (r *mongoTrainingPlanRepository) Update(ctx context.Context, plan *domain.TrainingPlan) error {
	if plan.ID == primitive.NilObjectID {
		return errors.New("training plan ID is required for update")
	}

	filter := bson.M{
		"_id":    plan.ID,
		"status": bson.M{"$ne": domain.PlanCompleted},
	}
	plan.UpdatedAt = time.Now().UTC()
	set := bson.M{
		"title":       plan.Title,
		"description": plan.Description,
		"teamId":      plan.TeamID,
		"date":        plan.Date,
		"duration":    plan.Duration,
		"activities":  plan.Activities,
		"isRecurring": plan.IsRecurring,
		"notes":       plan.Notes,
		"updatedAt":   plan.UpdatedAt,
	}
	update := bson.M{"$set": set}
	if plan.ScheduleID != nil {
		set["scheduleId"] = plan.ScheduleID
	} else {
		update["$unset"] = bson.M{"scheduleId": ""}
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// UpdateStatus performs a compare-and-set on the status field.
func (r *mongoTrainingPlanRepository) UpdateStatus(ctx context.Context, id primitive.ObjectID, from, to domain.PlanStatus) error {
	filter := bson.M{"_id": id, "status": from}
	update := bson.M{"$set": bson.M{"status": to, "updatedAt": time.Now().UTC()}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrUpdateFailed
	}
	return nil
}

// AddAttachment records an uploaded object key on the plan.
func (r *mongoTrainingPlanRepository) AddAttachment(ctx context.Context, id primitive.ObjectID, objectKey string) error {
	filter := bson.M{"_id": id, "status": bson.M{"$ne": domain.PlanCompleted}}
	update := bson.M{
		"$addToSet": bson.M{"attachments": objectKey},
		"$set":      bson.M{"updatedAt": time.Now().UTC()},
	}
	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// DeleteWithAttendance removes the plan and its attendance in one transaction.
// Standalone servers cannot run transactions; there the attendance is deleted
// first so a failure never leaves orphaned records behind.
func (r *mongoTrainingPlanRepository) DeleteWithAttendance(ctx context.Context, id primitive.ObjectID) error {
	if id == primitive.NilObjectID {
		return errors.New("plan ID is required for deletion")
	}

	session, err := r.collection.Database().Client().StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		return nil, r.deleteCascade(sessCtx, id)
	})
	if err != nil && isTransactionUnsupported(err) {
		r.logger.Warn("transactions unavailable, deleting plan without one", zap.String("planId", id.Hex()))
		return r.deleteCascade(ctx, id)
	}
	return err
}

func (r *mongoTrainingPlanRepository) deleteCascade(ctx context.Context, id primitive.ObjectID) error {
	if _, err := r.attendance.DeleteMany(ctx, bson.M{"planId": id}); err != nil {
		return err
	}
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// isTransactionUnsupported matches the IllegalOperation error a standalone
// mongod returns for transactional commands.
func isTransactionUnsupported(err error) bool {
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) {
		return cmdErr.Code == 20
	}
	return false
}

func containsID(ids []primitive.ObjectID, id primitive.ObjectID) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

// EnsureTrainingPlanIndexes creates necessary indexes. Call during startup.
func EnsureTrainingPlanIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			// Team calendar: plans of a team ordered by date
			Keys: bson.D{{Key: "teamId", Value: 1}, {Key: "date", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "status", Value: 1}},
		},
		{
			// Idempotent creation; most plans carry no key
			Keys:    bson.D{{Key: "requestKey", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true),
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
