package service

import (
	"alcyxob/club-app/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Actor is the authenticated caller of an operation. It is passed explicitly
// into every service call; there is no ambient "current user".
type Actor struct {
	UserID primitive.ObjectID
	Role   domain.Role
	// SportTypes limits a supervisor to teams of these sport types.
	SportTypes []string
}

func (a Actor) IsCoach() bool {
	return a.Role == domain.RoleCoach
}

// IsCoordinator reports the roles that author and assign plans.
func (a Actor) IsCoordinator() bool {
	return a.Role == domain.RoleAdmin || a.Role == domain.RoleSupervisor
}

// CanReadPlans covers everyone involved in running sessions.
func (a Actor) CanReadPlans() bool {
	return a.IsCoordinator() || a.IsCoach()
}

// CoversSport reports whether the actor's sport scope includes sportType.
// Only supervisors are scoped.
func (a Actor) CoversSport(sportType string) bool {
	if a.Role != domain.RoleSupervisor {
		return true
	}
	for _, s := range a.SportTypes {
		if s == sportType {
			return true
		}
	}
	return false
}
