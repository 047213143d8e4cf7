package mongo

import (
	"alcyxob/club-app/internal/domain"
	"alcyxob/club-app/internal/repository"
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const userCollectionName = "users"

// mongoUserDirectory implements repository.UserDirectory using MongoDB.
type mongoUserDirectory struct {
	collection *mongo.Collection
}

// NewMongoUserDirectory creates a read-only user directory.
func NewMongoUserDirectory(db *mongo.Database) repository.UserDirectory {
	return &mongoUserDirectory{
		collection: db.Collection(userCollectionName),
	}
}

// GetNames maps user IDs to display names. Unknown IDs are simply absent
// from the result.
func (r *mongoUserDirectory) GetNames(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]string, error) {
	names := make(map[primitive.ObjectID]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}

	findOptions := options.Find().SetProjection(bson.M{"_id": 1, "name": 1})
	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var user domain.User
		if err := cursor.Decode(&user); err != nil {
			return nil, err
		}
		names[user.ID] = user.Name
	}
	// Check for cursor errors after iteration
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return names, nil
}
