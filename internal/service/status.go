package service

import "alcyxob/club-app/internal/domain"

type transition struct {
	from, to domain.PlanStatus
}

// transitions lists every legal status edge with the roles allowed to take it.
var transitions = map[transition]func(domain.Role) bool{
	// Assigning happens outside the coach workflow, by whoever coordinates the team.
	{domain.PlanDraft, domain.PlanAssigned}: func(r domain.Role) bool {
		return r == domain.RoleAdmin || r == domain.RoleSupervisor
	},
	// "Start Training"
	{domain.PlanAssigned, domain.PlanInProgress}: func(r domain.Role) bool {
		return r == domain.RoleCoach
	},
	// "Complete Training"
	{domain.PlanInProgress, domain.PlanCompleted}: func(r domain.Role) bool {
		return r == domain.RoleCoach
	},
}

// CheckTransition reports whether role may move a plan from one status to
// another: ErrInvalidTransition for an edge that does not exist,
// ErrTransitionForbidden for an edge the role may not take.
func CheckTransition(from, to domain.PlanStatus, role domain.Role) error {
	allowed, ok := transitions[transition{from, to}]
	if !ok {
		return ErrInvalidTransition
	}
	if !allowed(role) {
		return ErrTransitionForbidden
	}
	return nil
}

// attendanceOpen reports plan states in which attendance may be recorded.
func attendanceOpen(status domain.PlanStatus) bool {
	switch status {
	case domain.PlanAssigned, domain.PlanInProgress, domain.PlanCompleted:
		return true
	}
	return false
}

// CheckAttendanceWrite decides whether role may write attendance for a plan
// in the given status. The role is checked first.
func CheckAttendanceWrite(status domain.PlanStatus, role domain.Role) error {
	if role != domain.RoleCoach {
		return &AttendanceDeniedError{Reason: DenyRole, Role: role, Status: status}
	}
	if !attendanceOpen(status) {
		return &AttendanceDeniedError{Reason: DenyStatus, Role: role, Status: status}
	}
	return nil
}
