package api

import (
	"alcyxob/club-app/internal/domain"
	"alcyxob/club-app/internal/service"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Plans ---

// ActivityRequest is one activity in a plan payload.
type ActivityRequest struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Duration    int    `json:"duration"` // Minutes
	Order       int    `json:"order"`
}

// PlanRequest is the payload of plan create and update calls.
type PlanRequest struct {
	Title       string            `json:"title"`
	Description string            `json:"description"`
	TeamID      string            `json:"teamId"`
	Date        *time.Time        `json:"date"` // RFC3339; taken from the schedule when one is selected
	Duration    int               `json:"duration"`
	Activities  []ActivityRequest `json:"activities"`
	Notes       string            `json:"notes,omitempty"`
	ScheduleID  *string           `json:"scheduleId"` // null detaches
	IsRecurring bool              `json:"isRecurring"`
}

func (r PlanRequest) toInput() (service.PlanInput, error) {
	input := service.PlanInput{
		Title:       r.Title,
		Description: r.Description,
		Duration:    r.Duration,
		Notes:       r.Notes,
		IsRecurring: r.IsRecurring,
		Activities:  toActivityInputs(r.Activities),
	}
	teamID, err := optionalObjectID("teamId", r.TeamID)
	if err != nil {
		return input, err
	}
	input.TeamID = teamID
	if r.Date != nil {
		input.Date = *r.Date
	}
	if r.ScheduleID != nil {
		scheduleID, err := optionalObjectID("scheduleId", *r.ScheduleID)
		if err != nil {
			return input, err
		}
		if scheduleID != primitive.NilObjectID {
			input.ScheduleID = &scheduleID
		}
	}
	return input, nil
}

func toActivityInputs(activities []ActivityRequest) []service.ActivityInput {
	out := make([]service.ActivityInput, len(activities))
	for i, a := range activities {
		out[i] = service.ActivityInput{
			Title:       a.Title,
			Description: a.Description,
			Duration:    a.Duration,
			Order:       a.Order,
		}
	}
	return out
}

// optionalObjectID parses a hex id; an empty string gives NilObjectID.
func optionalObjectID(field, hex string) (primitive.ObjectID, error) {
	hex = strings.TrimSpace(hex)
	if hex == "" {
		return primitive.NilObjectID, nil
	}
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, &service.ValidationError{Field: field, Message: "is not a valid id"}
	}
	return id, nil
}

type StatusRequest struct {
	Status domain.PlanStatus `json:"status" binding:"required"`
}

type DurationCheckRequest struct {
	Duration   int               `json:"duration"`
	Activities []ActivityRequest `json:"activities"`
}

// --- Attachments ---

type UploadURLRequest struct {
	ContentType string `json:"contentType" binding:"required"`
}

type ConfirmAttachmentRequest struct {
	ObjectKey string `json:"objectKey" binding:"required"`
}

type DownloadURLResponse struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// --- Attendance ---

type AttendanceRecordRequest struct {
	PlayerID string `json:"playerId"`
	Status   string `json:"status"`
	Notes    string `json:"notes,omitempty"`
}

// AttendanceRequest carries the full sheet: one entry per player.
type AttendanceRequest struct {
	Records []AttendanceRecordRequest `json:"records"`
}

func (r AttendanceRequest) toUpdates() ([]service.AttendanceUpdate, error) {
	updates := make([]service.AttendanceUpdate, len(r.Records))
	for i, rec := range r.Records {
		playerID, err := primitive.ObjectIDFromHex(strings.TrimSpace(rec.PlayerID))
		if err != nil {
			return nil, &service.ValidationError{Field: "records.playerId", Message: "is not a valid id: " + rec.PlayerID}
		}
		updates[i] = service.AttendanceUpdate{
			PlayerID: playerID,
			Status:   domain.AttendanceStatus(strings.ToLower(strings.TrimSpace(rec.Status))),
			Notes:    rec.Notes,
		}
	}
	return updates, nil
}

// AttendanceResponse is returned by GET /plans/:planId/attendance.
type AttendanceResponse struct {
	Success        bool                            `json:"success"`
	Attendance     []service.AttendanceEntry       `json:"attendance"`
	PlanStatus     domain.PlanStatus               `json:"planStatus"`
	Editable       bool                            `json:"editable"`
	ReadOnlyReason string                          `json:"readOnlyReason,omitempty"`
	Summary        map[domain.AttendanceStatus]int `json:"summary"`
}

func mapSheetToResponse(sheet *service.AttendanceSheet) AttendanceResponse {
	records := sheet.Records
	if records == nil {
		records = []service.AttendanceEntry{}
	}
	return AttendanceResponse{
		Success:        true,
		Attendance:     records,
		PlanStatus:     sheet.PlanStatus,
		Editable:       sheet.Editable,
		ReadOnlyReason: sheet.ReadOnlyReason,
		Summary:        sheet.Summary,
	}
}
