package service

import (
	"alcyxob/club-app/internal/domain"
	"alcyxob/club-app/internal/repository"
	"context"
	"errors"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

var errBackend = errors.New("backend unavailable")

// --- Training plans ---

type mockPlanRepo struct {
	plans      map[primitive.ObjectID]*domain.TrainingPlan
	attendance *mockAttendanceRepo // cascade target
	creates    int
	updates    int
	createErr  error
}

func newMockPlanRepo(attendance *mockAttendanceRepo) *mockPlanRepo {
	return &mockPlanRepo{plans: map[primitive.ObjectID]*domain.TrainingPlan{}, attendance: attendance}
}

func clonePlan(p *domain.TrainingPlan) *domain.TrainingPlan {
	c := *p
	c.Activities = append([]domain.Activity(nil), p.Activities...)
	c.Attachments = append([]string(nil), p.Attachments...)
	if p.ScheduleID != nil {
		id := *p.ScheduleID
		c.ScheduleID = &id
	}
	return &c
}

func (m *mockPlanRepo) put(p *domain.TrainingPlan) *domain.TrainingPlan {
	if p.ID == primitive.NilObjectID {
		p.ID = primitive.NewObjectID()
	}
	m.plans[p.ID] = clonePlan(p)
	return p
}

func (m *mockPlanRepo) Create(_ context.Context, plan *domain.TrainingPlan) (primitive.ObjectID, error) {
	if m.createErr != nil {
		return primitive.NilObjectID, m.createErr
	}
	if plan.RequestKey != "" {
		for _, p := range m.plans {
			if p.RequestKey == plan.RequestKey {
				return primitive.NilObjectID, repository.ErrDuplicate
			}
		}
	}
	m.creates++
	plan.ID = primitive.NewObjectID()
	plan.CreatedAt = time.Now().UTC()
	plan.UpdatedAt = plan.CreatedAt
	m.plans[plan.ID] = clonePlan(plan)
	return plan.ID, nil
}

func (m *mockPlanRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.TrainingPlan, error) {
	p, ok := m.plans[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return clonePlan(p), nil
}

func (m *mockPlanRepo) GetByRequestKey(_ context.Context, key string) (*domain.TrainingPlan, error) {
	for _, p := range m.plans {
		if key != "" && p.RequestKey == key {
			return clonePlan(p), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *mockPlanRepo) List(_ context.Context, filter repository.PlanFilter) ([]domain.TrainingPlan, error) {
	out := []domain.TrainingPlan{}
	for _, p := range m.plans {
		if filter.TeamIDs != nil && !containsObjectID(filter.TeamIDs, p.TeamID) {
			continue
		}
		if filter.TeamID != primitive.NilObjectID && p.TeamID != filter.TeamID {
			continue
		}
		if filter.Status != "" && p.Status != filter.Status {
			continue
		}
		out = append(out, *clonePlan(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (m *mockPlanRepo) Update(_ context.Context, plan *domain.TrainingPlan) error {
	stored, ok := m.plans[plan.ID]
	if !ok || stored.Status == domain.PlanCompleted {
		return repository.ErrNotFound
	}
	m.updates++
	updated := clonePlan(plan)
	updated.Status = stored.Status
	updated.CreatedAt = stored.CreatedAt
	updated.Attachments = stored.Attachments
	m.plans[plan.ID] = updated
	return nil
}

func (m *mockPlanRepo) UpdateStatus(_ context.Context, id primitive.ObjectID, from, to domain.PlanStatus) error {
	stored, ok := m.plans[id]
	if !ok || stored.Status != from {
		return repository.ErrUpdateFailed
	}
	stored.Status = to
	return nil
}

func (m *mockPlanRepo) AddAttachment(_ context.Context, id primitive.ObjectID, key string) error {
	stored, ok := m.plans[id]
	if !ok || stored.Status == domain.PlanCompleted {
		return repository.ErrNotFound
	}
	for _, k := range stored.Attachments {
		if k == key {
			return nil
		}
	}
	stored.Attachments = append(stored.Attachments, key)
	return nil
}

func (m *mockPlanRepo) DeleteWithAttendance(ctx context.Context, id primitive.ObjectID) error {
	if _, ok := m.plans[id]; !ok {
		return repository.ErrNotFound
	}
	if m.attendance != nil {
		m.attendance.deletePlan(id)
	}
	delete(m.plans, id)
	return nil
}

// --- Attendance ---

type mockAttendanceRepo struct {
	records map[primitive.ObjectID]map[primitive.ObjectID]domain.AttendanceRecord
	seedErr error
}

func newMockAttendanceRepo() *mockAttendanceRepo {
	return &mockAttendanceRepo{records: map[primitive.ObjectID]map[primitive.ObjectID]domain.AttendanceRecord{}}
}

func (m *mockAttendanceRepo) byPlan(planID primitive.ObjectID) map[primitive.ObjectID]domain.AttendanceRecord {
	ledger, ok := m.records[planID]
	if !ok {
		ledger = map[primitive.ObjectID]domain.AttendanceRecord{}
		m.records[planID] = ledger
	}
	return ledger
}

func (m *mockAttendanceRepo) GetByPlanID(_ context.Context, planID primitive.ObjectID) ([]domain.AttendanceRecord, error) {
	out := []domain.AttendanceRecord{}
	for _, r := range m.records[planID] {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PlayerID.Hex() < out[j].PlayerID.Hex() })
	return out, nil
}

func (m *mockAttendanceRepo) SeedAbsent(_ context.Context, planID primitive.ObjectID, playerIDs []primitive.ObjectID) (int, error) {
	if m.seedErr != nil {
		return 0, m.seedErr
	}
	ledger := m.byPlan(planID)
	inserted := 0
	for _, id := range playerIDs {
		if _, exists := ledger[id]; exists {
			continue
		}
		ledger[id] = domain.AttendanceRecord{
			ID:       primitive.NewObjectID(),
			PlanID:   planID,
			PlayerID: id,
			Status:   domain.AttendanceAbsent,
		}
		inserted++
	}
	return inserted, nil
}

func (m *mockAttendanceRepo) Upsert(_ context.Context, records []domain.AttendanceRecord) error {
	for _, r := range records {
		ledger := m.byPlan(r.PlanID)
		if existing, ok := ledger[r.PlayerID]; ok {
			r.ID = existing.ID
		} else {
			r.ID = primitive.NewObjectID()
		}
		ledger[r.PlayerID] = r
	}
	return nil
}

func (m *mockAttendanceRepo) deletePlan(planID primitive.ObjectID) {
	delete(m.records, planID)
}

func (m *mockAttendanceRepo) count(planID primitive.ObjectID) int {
	return len(m.records[planID])
}

// --- Directories ---

type mockBookings struct {
	bookings map[primitive.ObjectID]*domain.Booking
	failing  map[primitive.ObjectID]bool
	lookups  int
}

func newMockBookings() *mockBookings {
	return &mockBookings{bookings: map[primitive.ObjectID]*domain.Booking{}, failing: map[primitive.ObjectID]bool{}}
}

func (m *mockBookings) add(b *domain.Booking) *domain.Booking {
	if b.ID == primitive.NilObjectID {
		b.ID = primitive.NewObjectID()
	}
	m.bookings[b.ID] = b
	return b
}

func (m *mockBookings) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Booking, error) {
	m.lookups++
	if m.failing[id] {
		return nil, errBackend
	}
	b, ok := m.bookings[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *b
	return &c, nil
}

func (m *mockBookings) ListByTeam(_ context.Context, teamID primitive.ObjectID, purpose domain.BookingPurpose, from time.Time) ([]domain.Booking, error) {
	out := []domain.Booking{}
	for _, b := range m.bookings {
		if b.TeamID == teamID && b.Purpose == purpose && !b.StartTime.Before(from) {
			out = append(out, *b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

type mockTeams struct {
	teams   map[primitive.ObjectID]*domain.Team
	failing map[primitive.ObjectID]bool
}

func newMockTeams() *mockTeams {
	return &mockTeams{teams: map[primitive.ObjectID]*domain.Team{}, failing: map[primitive.ObjectID]bool{}}
}

func (m *mockTeams) add(t *domain.Team) *domain.Team {
	if t.ID == primitive.NilObjectID {
		t.ID = primitive.NewObjectID()
	}
	m.teams[t.ID] = t
	return t
}

func (m *mockTeams) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Team, error) {
	if m.failing[id] {
		return nil, errBackend
	}
	t, ok := m.teams[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return t, nil
}

func (m *mockTeams) ListIDsBySportTypes(_ context.Context, sportTypes []string) ([]primitive.ObjectID, error) {
	var ids []primitive.ObjectID
	for _, t := range m.teams {
		for _, s := range sportTypes {
			if t.SportType == s {
				ids = append(ids, t.ID)
			}
		}
	}
	return ids, nil
}

type mockUsers struct {
	names map[primitive.ObjectID]string
	err   error
}

func (m *mockUsers) GetNames(_ context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]string, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := map[primitive.ObjectID]string{}
	for _, id := range ids {
		if name, ok := m.names[id]; ok {
			out[id] = name
		}
	}
	return out, nil
}

func containsObjectID(ids []primitive.ObjectID, id primitive.ObjectID) bool {
	for _, c := range ids {
		if c == id {
			return true
		}
	}
	return false
}

// --- Fixture ---

type fixture struct {
	plans      *mockPlanRepo
	attendance *mockAttendanceRepo
	bookings   *mockBookings
	teams      *mockTeams
	users      *mockUsers
	files      *mockStorage

	planSvc       TrainingPlanService
	attendanceSvc AttendanceService

	football *domain.Team
	tennis   *domain.Team

	admin      Actor
	supervisor Actor // football only
	coach      Actor
	player     Actor
}

func newFixture() *fixture {
	f := &fixture{
		attendance: newMockAttendanceRepo(),
		bookings:   newMockBookings(),
		teams:      newMockTeams(),
		users:      &mockUsers{names: map[primitive.ObjectID]string{}},
		files:      newMockStorage(),
	}
	f.plans = newMockPlanRepo(f.attendance)

	f.football = f.teams.add(&domain.Team{
		Name:      "U17 Football",
		SportType: "football",
		Players: []domain.TeamMember{
			{UserID: primitive.NewObjectID(), Name: "Ana", Position: "GK"},
			{UserID: primitive.NewObjectID(), Name: "Ben", Position: "DF"},
			{UserID: primitive.NewObjectID(), Name: "Cleo", Position: "FW"},
		},
	})
	f.tennis = f.teams.add(&domain.Team{Name: "Tennis Squad", SportType: "tennis"})

	f.admin = Actor{UserID: primitive.NewObjectID(), Role: domain.RoleAdmin}
	f.supervisor = Actor{UserID: primitive.NewObjectID(), Role: domain.RoleSupervisor, SportTypes: []string{"football"}}
	f.coach = Actor{UserID: primitive.NewObjectID(), Role: domain.RoleCoach}
	f.player = Actor{UserID: primitive.NewObjectID(), Role: domain.RolePlayer}
	f.users.names[f.coach.UserID] = "Coach Dana"

	logger := zap.NewNop()
	binder := NewScheduleBinder(f.bookings, logger, nil)
	f.planSvc = NewTrainingPlanService(f.plans, f.teams, binder, f.files, logger, nil)
	f.attendanceSvc = NewAttendanceService(f.plans, f.attendance, f.teams, f.users, logger, nil)
	return f
}

// plan stores a plan of the football team in the given status.
func (f *fixture) plan(status domain.PlanStatus) *domain.TrainingPlan {
	return f.plans.put(&domain.TrainingPlan{
		Title:    "Passing",
		TeamID:   f.football.ID,
		Date:     time.Now().Add(48 * time.Hour).UTC(),
		Duration: 60,
		Activities: []domain.Activity{
			{Title: "Warmup", Duration: 15, Order: 1},
			{Title: "Drills", Duration: 45, Order: 2},
		},
		Status: status,
	})
}

func (f *fixture) trainingBooking(start time.Time, recurring bool) *domain.Booking {
	return f.bookings.add(&domain.Booking{
		TeamID:      f.football.ID,
		CourtID:     primitive.NewObjectID(),
		CourtName:   "Court 1",
		Purpose:     domain.PurposeTraining,
		StartTime:   start.UTC(),
		EndTime:     start.Add(90 * time.Minute).UTC(),
		IsRecurring: recurring,
	})
}

func validInput(teamID primitive.ObjectID) PlanInput {
	return PlanInput{
		Title:    "Pressing",
		TeamID:   teamID,
		Date:     time.Now().Add(24 * time.Hour),
		Duration: 60,
		Activities: []ActivityInput{
			{Title: "Warmup", Duration: 30, Order: 1},
			{Title: "Game", Duration: 30, Order: 2},
		},
	}
}

// --- Object storage ---

type mockStorage struct {
	deleted []string
	failDel bool
}

func newMockStorage() *mockStorage { return &mockStorage{} }

func (m *mockStorage) GeneratePresignedUploadURL(_ context.Context, key, _ string, _ time.Duration) (string, error) {
	return "https://storage.test/upload/" + key, nil
}

func (m *mockStorage) GeneratePresignedDownloadURL(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://storage.test/download/" + key, nil
}

func (m *mockStorage) DeleteObject(_ context.Context, key string) error {
	if m.failDel {
		return errBackend
	}
	m.deleted = append(m.deleted, key)
	return nil
}
