package service

import (
	"alcyxob/club-app/internal/domain"
	"errors"
	"fmt"
)

// --- Error Definitions ---
var (
	ErrPlanNotFound        = errors.New("training plan not found")
	ErrPlanLocked          = errors.New("training plan is completed and can no longer be edited")
	ErrPlanAccessDenied    = errors.New("access denied to this training plan")
	ErrStatusConflict      = errors.New("training plan status was changed by someone else")
	ErrInvalidTransition   = errors.New("invalid training plan status transition")
	ErrTransitionForbidden = errors.New("your role may not perform this status change")
	ErrTeamNotFound        = errors.New("team not found")

	ErrScheduleNotFound     = errors.New("schedule not found")
	ErrScheduleNotTraining  = errors.New("schedule is not reserved for training")
	ErrScheduleTeamMismatch = errors.New("schedule belongs to another team")
	ErrSchedulePast         = errors.New("schedule has already started")

	ErrAttachmentsDisabled = errors.New("attachment storage is not configured")
	ErrAttachmentNotFound  = errors.New("attachment not found on this plan")
)

// ValidationError reports a rejected input field. Nothing is persisted when
// it is returned.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func invalid(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// DurationMismatchError blocks schedule-driven plan creation when the
// activities do not fill the planned duration exactly.
type DurationMismatchError struct {
	Check DurationCheck
}

func (e *DurationMismatchError) Error() string {
	return fmt.Sprintf("activities add up to %d minutes but the plan lasts %d minutes",
		e.Check.TotalActivityMinutes, e.Check.PlanDuration)
}

// DenyReason says why an attendance write was refused.
type DenyReason string

const (
	DenyRole   DenyReason = "role"
	DenyStatus DenyReason = "status"
)

// AttendanceDeniedError is returned before any attendance write that the
// caller's role or the plan's status does not allow.
type AttendanceDeniedError struct {
	Reason DenyReason
	Role   domain.Role
	Status domain.PlanStatus
}

func (e *AttendanceDeniedError) Error() string {
	switch e.Reason {
	case DenyRole:
		return "only coaches can record attendance"
	case DenyStatus:
		if e.Status == domain.PlanDraft {
			return "attendance opens once the training plan has been assigned"
		}
		return fmt.Sprintf("attendance cannot be recorded while the plan is %s", e.Status)
	}
	return "attendance cannot be recorded"
}
