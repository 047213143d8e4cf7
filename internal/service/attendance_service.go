package service

import (
	"alcyxob/club-app/internal/domain"
	"alcyxob/club-app/internal/metrics"
	"alcyxob/club-app/internal/repository"
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// AttendanceEntry is one record of the attendance sheet with the names
// needed to show it.
type AttendanceEntry struct {
	domain.AttendanceRecord
	PlayerName   string `json:"playerName"`
	Position     string `json:"position,omitempty"`
	MarkedByName string `json:"markedByName,omitempty"`
	Tone         string `json:"tone"`
}

// AttendanceSheet is the attendance of one plan as seen by the caller.
type AttendanceSheet struct {
	PlanID     primitive.ObjectID `json:"planId"`
	PlanStatus domain.PlanStatus  `json:"planStatus"`
	// Editable tells whether the caller may save the sheet; when false,
	// ReadOnlyReason explains why.
	Editable       bool                            `json:"editable"`
	ReadOnlyReason string                          `json:"readOnlyReason,omitempty"`
	Records        []AttendanceEntry               `json:"records"`
	Summary        map[domain.AttendanceStatus]int `json:"summary"`
}

// AttendanceUpdate is one player's entry in a save of the attendance sheet.
type AttendanceUpdate struct {
	PlayerID primitive.ObjectID      `json:"playerId"`
	Status   domain.AttendanceStatus `json:"status"`
	Notes    string                  `json:"notes"`
}

// AttendanceService manages the attendance ledger of training plans.
type AttendanceService interface {
	GetAttendance(ctx context.Context, actor Actor, planID primitive.ObjectID) (*AttendanceSheet, error)
	SeedFromRoster(ctx context.Context, actor Actor, planID, teamID primitive.ObjectID) (int, error)
	SetAttendance(ctx context.Context, actor Actor, planID primitive.ObjectID, updates []AttendanceUpdate) error
}

type attendanceService struct {
	plans      repository.TrainingPlanRepository
	attendance repository.AttendanceRepository
	teams      repository.TeamDirectory
	users      repository.UserDirectory
	logger     *zap.Logger
	metrics    *metrics.Metrics
	now        func() time.Time
}

// NewAttendanceService creates a new AttendanceService.
func NewAttendanceService(
	plans repository.TrainingPlanRepository,
	attendance repository.AttendanceRepository,
	teams repository.TeamDirectory,
	users repository.UserDirectory,
	logger *zap.Logger,
	m *metrics.Metrics,
) AttendanceService {
	return &attendanceService{
		plans:      plans,
		attendance: attendance,
		teams:      teams,
		users:      users,
		logger:     logger,
		metrics:    m,
		now:        time.Now,
	}
}

// GetAttendance returns the plan's attendance. When the caller may record
// attendance, players of the roster without a record are first seeded as
// Absent, so the first open of the sheet lists the whole team.
func (s *attendanceService) GetAttendance(ctx context.Context, actor Actor, planID primitive.ObjectID) (*AttendanceSheet, error) {
	if !actor.CanReadPlans() {
		return nil, ErrPlanAccessDenied
	}
	plan, err := s.loadPlan(ctx, planID)
	if err != nil {
		return nil, err
	}

	team, err := s.teams.GetByID(ctx, plan.TeamID)
	if err != nil {
		if actor.Role == domain.RoleSupervisor {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, ErrPlanAccessDenied
			}
			return nil, err
		}
		s.logger.Warn("roster lookup failed",
			zap.String("planId", plan.ID.Hex()),
			zap.String("teamId", plan.TeamID.Hex()),
			zap.Error(err))
		team = nil
	} else if !actor.CoversSport(team.SportType) {
		return nil, ErrPlanAccessDenied
	}

	sheet := &AttendanceSheet{
		PlanID:     plan.ID,
		PlanStatus: plan.Status,
		Editable:   true,
	}
	if denied := CheckAttendanceWrite(plan.Status, actor.Role); denied != nil {
		sheet.Editable = false
		sheet.ReadOnlyReason = denied.Error()
	}

	if sheet.Editable && team != nil {
		if _, err := s.seed(ctx, plan.ID, team); err != nil {
			// The sheet still shows what exists; seeding runs again on next open.
			s.logger.Warn("attendance seeding failed", zap.String("planId", plan.ID.Hex()), zap.Error(err))
		}
	}

	records, err := s.attendance.GetByPlanID(ctx, plan.ID)
	if err != nil {
		return nil, err
	}
	sheet.Records = s.enrich(ctx, records, team)
	sheet.Summary = summarize(records)
	return sheet, nil
}

// SeedFromRoster creates an Absent record for every player of the team
// that has none yet. Existing records are never touched, so seeding twice
// is harmless. It returns the number of records created.
func (s *attendanceService) SeedFromRoster(ctx context.Context, actor Actor, planID, teamID primitive.ObjectID) (int, error) {
	plan, err := s.loadPlan(ctx, planID)
	if err != nil {
		return 0, err
	}
	if err := s.checkWrite(plan, actor); err != nil {
		return 0, err
	}
	if teamID != plan.TeamID {
		return 0, invalid("teamId", "is not the team of this plan")
	}

	team, err := s.teams.GetByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return 0, ErrTeamNotFound
		}
		return 0, err
	}
	return s.seed(ctx, plan.ID, team)
}

func (s *attendanceService) seed(ctx context.Context, planID primitive.ObjectID, team *domain.Team) (int, error) {
	playerIDs := make([]primitive.ObjectID, 0, len(team.Players))
	for _, p := range team.Players {
		if p.UserID != primitive.NilObjectID {
			playerIDs = append(playerIDs, p.UserID)
		}
	}
	if len(playerIDs) == 0 {
		return 0, nil
	}
	inserted, err := s.attendance.SeedAbsent(ctx, planID, playerIDs)
	if err != nil {
		return 0, err
	}
	if inserted > 0 {
		s.logger.Info("attendance seeded from roster",
			zap.String("planId", planID.Hex()),
			zap.String("teamId", team.ID.Hex()),
			zap.Int("inserted", inserted))
	}
	return inserted, nil
}

// SetAttendance saves the submitted sheet. Each player's record is replaced
// by the submitted entry; when a player appears more than once the last
// entry wins.
func (s *attendanceService) SetAttendance(ctx context.Context, actor Actor, planID primitive.ObjectID, updates []AttendanceUpdate) error {
	plan, err := s.loadPlan(ctx, planID)
	if err != nil {
		return err
	}
	if err := s.checkWrite(plan, actor); err != nil {
		return err
	}

	latest := make(map[primitive.ObjectID]AttendanceUpdate, len(updates))
	order := make([]primitive.ObjectID, 0, len(updates))
	for i, u := range updates {
		if u.PlayerID == primitive.NilObjectID {
			return invalid(fmt.Sprintf("records[%d].playerId", i), "is required")
		}
		if !u.Status.Valid() {
			return invalid(fmt.Sprintf("records[%d].status", i), "unknown status %q", u.Status)
		}
		if _, seen := latest[u.PlayerID]; !seen {
			order = append(order, u.PlayerID)
		}
		latest[u.PlayerID] = u
	}
	if len(order) == 0 {
		return nil
	}

	now := s.now().UTC()
	marker := actor.UserID
	records := make([]domain.AttendanceRecord, 0, len(order))
	for _, playerID := range order {
		u := latest[playerID]
		markedAt := now
		records = append(records, domain.AttendanceRecord{
			PlanID:    plan.ID,
			PlayerID:  playerID,
			Status:    u.Status,
			Notes:     strings.TrimSpace(u.Notes),
			MarkedBy:  &marker,
			MarkedAt:  &markedAt,
			UpdatedAt: now,
		})
	}

	if err := s.attendance.Upsert(ctx, records); err != nil {
		return err
	}
	s.metrics.AttendanceWritten(len(records))
	s.logger.Info("attendance saved",
		zap.String("planId", plan.ID.Hex()),
		zap.String("coachId", actor.UserID.Hex()),
		zap.Int("records", len(records)))
	return nil
}

// --- Helpers ---

func (s *attendanceService) loadPlan(ctx context.Context, planID primitive.ObjectID) (*domain.TrainingPlan, error) {
	plan, err := s.plans.GetByID(ctx, planID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	return plan, nil
}

func (s *attendanceService) checkWrite(plan *domain.TrainingPlan, actor Actor) error {
	err := CheckAttendanceWrite(plan.Status, actor.Role)
	var denied *AttendanceDeniedError
	if errors.As(err, &denied) {
		s.metrics.AttendanceDenied(string(denied.Reason))
		s.logger.Info("attendance write denied",
			zap.String("planId", plan.ID.Hex()),
			zap.String("role", string(actor.Role)),
			zap.String("status", string(plan.Status)),
			zap.String("reason", string(denied.Reason)))
	}
	return err
}

// enrich attaches player and coach names. Players come from the roster;
// anyone missing there is resolved through the user directory. Names that
// cannot be resolved are left empty.
func (s *attendanceService) enrich(ctx context.Context, records []domain.AttendanceRecord, team *domain.Team) []AttendanceEntry {
	names := make(map[primitive.ObjectID]string)
	positions := make(map[primitive.ObjectID]string)
	if team != nil {
		for _, p := range team.Players {
			names[p.UserID] = p.Name
			positions[p.UserID] = p.Position
		}
	}

	var missing []primitive.ObjectID
	wanted := make(map[primitive.ObjectID]bool)
	want := func(id primitive.ObjectID) {
		if _, known := names[id]; known || wanted[id] {
			return
		}
		wanted[id] = true
		missing = append(missing, id)
	}
	for _, r := range records {
		want(r.PlayerID)
		if r.MarkedBy != nil {
			want(*r.MarkedBy)
		}
	}
	if len(missing) > 0 {
		resolved, err := s.users.GetNames(ctx, missing)
		if err != nil {
			s.logger.Warn("user name lookup failed", zap.Int("users", len(missing)), zap.Error(err))
		}
		for id, name := range resolved {
			names[id] = name
		}
	}

	entries := make([]AttendanceEntry, 0, len(records))
	for _, r := range records {
		e := AttendanceEntry{
			AttendanceRecord: r,
			PlayerName:       names[r.PlayerID],
			Position:         positions[r.PlayerID],
			Tone:             r.Status.Tone(),
		}
		if r.MarkedBy != nil {
			e.MarkedByName = names[*r.MarkedBy]
		}
		entries = append(entries, e)
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return strings.ToLower(entries[i].PlayerName) < strings.ToLower(entries[j].PlayerName)
	})
	return entries
}

func summarize(records []domain.AttendanceRecord) map[domain.AttendanceStatus]int {
	summary := make(map[domain.AttendanceStatus]int, len(domain.AttendanceStatuses))
	for _, st := range domain.AttendanceStatuses {
		summary[st] = 0
	}
	for _, r := range records {
		summary[r.Status]++
	}
	return summary
}
