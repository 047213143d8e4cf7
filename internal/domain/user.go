package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role type to distinguish between user roles
type Role string

const (
	RoleAdmin      Role = "admin"      // Club coordinator, authors plans for every team
	RoleSupervisor Role = "supervisor" // Coordinator limited to a set of sport types
	RoleCoach      Role = "coach"      // Runs sessions and records attendance
	RolePlayer     Role = "player"
)

// Valid reports whether r is a role this service knows about.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleSupervisor, RoleCoach, RolePlayer:
		return true
	}
	return false
}

// User is the subset of the club's user record this service reads for
// display purposes (player names, the coach who marked attendance).
type User struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name      string             `bson:"name" json:"name"`
	Email     string             `bson:"email" json:"email"`
	Role      Role               `bson:"role" json:"role"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}
