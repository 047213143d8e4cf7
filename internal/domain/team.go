package domain

import "go.mongodb.org/mongo-driver/bson/primitive"

// Team is read from the team directory. Players seed attendance rosters.
type Team struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name      string             `bson:"name" json:"name"`
	SportType string             `bson:"sportType" json:"sportType"`
	Players   []TeamMember       `bson:"players" json:"players"`
}

// TeamMember is one roster entry.
type TeamMember struct {
	UserID   primitive.ObjectID `bson:"userId" json:"userId"`
	Name     string             `bson:"name" json:"name"`
	Position string             `bson:"position,omitempty" json:"position,omitempty"`
}
