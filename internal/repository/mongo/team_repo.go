package mongo

import (
	"alcyxob/club-app/internal/domain"
	"alcyxob/club-app/internal/repository"
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const teamCollectionName = "teams"

// mongoTeamDirectory reads teams and their rosters.
type mongoTeamDirectory struct {
	collection *mongo.Collection
}

// NewMongoTeamDirectory creates a read-only team directory.
func NewMongoTeamDirectory(db *mongo.Database) repository.TeamDirectory {
	return &mongoTeamDirectory{
		collection: db.Collection(teamCollectionName),
	}
}

// GetByID retrieves a team including its roster.
func (r *mongoTeamDirectory) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Team, error) {
	var team domain.Team
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&team)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &team, nil
}

// ListIDsBySportTypes returns the IDs of teams playing one of the sport types.
func (r *mongoTeamDirectory) ListIDsBySportTypes(ctx context.Context, sportTypes []string) ([]primitive.ObjectID, error) {
	ids := []primitive.ObjectID{}
	if len(sportTypes) == 0 {
		return ids, nil
	}
	findOptions := options.Find().SetProjection(bson.M{"_id": 1})
	cursor, err := r.collection.Find(ctx, bson.M{"sportType": bson.M{"$in": sportTypes}}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var doc struct {
			ID primitive.ObjectID `bson:"_id"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		ids = append(ids, doc.ID)
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}
