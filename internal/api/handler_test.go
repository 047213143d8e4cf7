package api

import (
	"alcyxob/club-app/internal/domain"
	"alcyxob/club-app/internal/service"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const testSecret = "test-secret-0123456789"

func init() {
	gin.SetMode(gin.TestMode)
}

// --- Mock Services ---

type mockPlanService struct {
	service.TrainingPlanService // unimplemented methods panic

	lastActor service.Actor
	lastInput service.PlanInput
	view      *service.PlanView
	err       error
}

func (m *mockPlanService) CreatePlan(_ context.Context, actor service.Actor, input service.PlanInput) (*service.PlanView, error) {
	m.lastActor, m.lastInput = actor, input
	return m.view, m.err
}

func (m *mockPlanService) CreatePlanFromSchedule(_ context.Context, actor service.Actor, input service.PlanInput) (*service.PlanView, error) {
	m.lastActor, m.lastInput = actor, input
	return m.view, m.err
}

func (m *mockPlanService) GetPlan(_ context.Context, actor service.Actor, _ primitive.ObjectID) (*service.PlanView, error) {
	m.lastActor = actor
	return m.view, m.err
}

func (m *mockPlanService) UpdatePlan(_ context.Context, actor service.Actor, _ primitive.ObjectID, input service.PlanInput) (*service.PlanView, error) {
	m.lastActor, m.lastInput = actor, input
	return m.view, m.err
}

func (m *mockPlanService) ListPlans(_ context.Context, actor service.Actor, _ service.PlanQuery) ([]service.PlanView, error) {
	m.lastActor = actor
	if m.err != nil {
		return nil, m.err
	}
	return []service.PlanView{}, nil
}

type mockAttendanceService struct {
	service.AttendanceService

	sheet   *service.AttendanceSheet
	updates []service.AttendanceUpdate
	err     error
}

func (m *mockAttendanceService) GetAttendance(_ context.Context, _ service.Actor, _ primitive.ObjectID) (*service.AttendanceSheet, error) {
	return m.sheet, m.err
}

func (m *mockAttendanceService) SetAttendance(_ context.Context, _ service.Actor, _ primitive.ObjectID, updates []service.AttendanceUpdate) error {
	m.updates = updates
	return m.err
}

// --- Helpers ---

func newTestRouter(plans *mockPlanService, attendance *mockAttendanceService, health HealthCheck) *gin.Engine {
	router := gin.New()
	router.Use(RequestID())
	SetupRoutes(router, testSecret, plans, attendance, health, "/metrics", nil, zap.NewNop())
	return router
}

func mintToken(t *testing.T, userID primitive.ObjectID, role domain.Role, expiresIn time.Duration) string {
	t.Helper()
	claims := jwtClaims{
		UserID: userID.Hex(),
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
		},
	}
	if role == domain.RoleSupervisor {
		claims.SportTypes = []string{"football"}
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func doRequest(router *gin.Engine, method, path, token string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return body
}

func samplePlanView() *service.PlanView {
	return &service.PlanView{
		TrainingPlan: &domain.TrainingPlan{
			ID:       primitive.NewObjectID(),
			Title:    "Pressing",
			TeamID:   primitive.NewObjectID(),
			Duration: 60,
			Status:   domain.PlanDraft,
		},
		Schedule: service.ScheduleInfo{State: service.ScheduleNone},
	}
}

// --- Authentication ---

func TestAuthMiddleware(t *testing.T) {
	router := newTestRouter(&mockPlanService{}, &mockAttendanceService{}, nil)
	user := primitive.NewObjectID()

	cases := []struct {
		name  string
		token string
		want  int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"garbage", "not-a-jwt", http.StatusUnauthorized},
		{"expired", mintToken(t, user, domain.RoleAdmin, -time.Minute), http.StatusUnauthorized},
		{"valid", mintToken(t, user, domain.RoleAdmin, time.Hour), http.StatusOK},
	}
	for _, tc := range cases {
		w := doRequest(router, http.MethodGet, "/api/v1/plans", tc.token, nil, nil)
		if w.Code != tc.want {
			t.Errorf("%s: status %d, want %d", tc.name, w.Code, tc.want)
		}
	}
}

func TestAuthMiddlewareRejectsUnknownRole(t *testing.T) {
	router := newTestRouter(&mockPlanService{}, &mockAttendanceService{}, nil)
	token := mintToken(t, primitive.NewObjectID(), domain.Role("janitor"), time.Hour)

	if w := doRequest(router, http.MethodGet, "/api/v1/plans", token, nil, nil); w.Code != http.StatusUnauthorized {
		t.Errorf("status %d, want 401", w.Code)
	}
}

func TestActorCarriesSportScope(t *testing.T) {
	plans := &mockPlanService{}
	router := newTestRouter(plans, &mockAttendanceService{}, nil)
	user := primitive.NewObjectID()

	w := doRequest(router, http.MethodGet, "/api/v1/plans", mintToken(t, user, domain.RoleSupervisor, time.Hour), nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
	if plans.lastActor.UserID != user || len(plans.lastActor.SportTypes) != 1 {
		t.Errorf("actor = %+v", plans.lastActor)
	}
}

func TestCoachCannotCreatePlans(t *testing.T) {
	router := newTestRouter(&mockPlanService{view: samplePlanView()}, &mockAttendanceService{}, nil)
	token := mintToken(t, primitive.NewObjectID(), domain.RoleCoach, time.Hour)

	w := doRequest(router, http.MethodPost, "/api/v1/plans", token, PlanRequest{Title: "x"}, nil)
	if w.Code != http.StatusForbidden {
		t.Errorf("status %d, want 403", w.Code)
	}
}

// --- Plans ---

func TestCreatePlan(t *testing.T) {
	plans := &mockPlanService{view: samplePlanView()}
	router := newTestRouter(plans, &mockAttendanceService{}, nil)
	token := mintToken(t, primitive.NewObjectID(), domain.RoleAdmin, time.Hour)
	teamID := primitive.NewObjectID()
	scheduleID := primitive.NewObjectID().Hex()

	req := PlanRequest{
		Title:      "Pressing",
		TeamID:     teamID.Hex(),
		Duration:   60,
		ScheduleID: &scheduleID,
		Activities: []ActivityRequest{{Title: "Warmup", Duration: 60, Order: 1}},
	}
	w := doRequest(router, http.MethodPost, "/api/v1/plans", token, req, map[string]string{"Idempotency-Key": "abc-123"})
	if w.Code != http.StatusCreated {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}
	if plans.lastInput.TeamID != teamID || plans.lastInput.ScheduleID == nil || plans.lastInput.ScheduleID.Hex() != scheduleID {
		t.Errorf("input = %+v", plans.lastInput)
	}
	if plans.lastInput.RequestKey != "abc-123" {
		t.Errorf("request key = %q", plans.lastInput.RequestKey)
	}
	body := decode(t, w)
	if body["title"] != "Pressing" || body["status"] != "draft" {
		t.Errorf("body = %v", body)
	}
}

func TestCreatePlanRejectsMalformedIDs(t *testing.T) {
	router := newTestRouter(&mockPlanService{view: samplePlanView()}, &mockAttendanceService{}, nil)
	token := mintToken(t, primitive.NewObjectID(), domain.RoleAdmin, time.Hour)

	w := doRequest(router, http.MethodPost, "/api/v1/plans", token, PlanRequest{Title: "x", TeamID: "nope"}, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status %d", w.Code)
	}
	if body := decode(t, w); body["field"] != "teamId" {
		t.Errorf("body = %v", body)
	}
}

func TestCreatePlanRejectsNonNumericDuration(t *testing.T) {
	router := newTestRouter(&mockPlanService{view: samplePlanView()}, &mockAttendanceService{}, nil)
	token := mintToken(t, primitive.NewObjectID(), domain.RoleAdmin, time.Hour)

	raw := map[string]interface{}{"title": "x", "duration": "sixty"}
	w := doRequest(router, http.MethodPost, "/api/v1/plans", token, raw, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", w.Code)
	}
	body := decode(t, w)
	if body["field"] != "duration" {
		t.Errorf("body = %v, want field duration", body)
	}
	if msg, _ := body["error"].(string); strings.Contains(msg, "json:") {
		t.Errorf("decoder text leaked: %q", msg)
	}
}

func TestBindFailuresNameTheField(t *testing.T) {
	router := newTestRouter(&mockPlanService{}, &mockAttendanceService{}, nil)
	admin := mintToken(t, primitive.NewObjectID(), domain.RoleAdmin, time.Hour)
	coach := mintToken(t, primitive.NewObjectID(), domain.RoleCoach, time.Hour)
	planPath := "/api/v1/plans/" + primitive.NewObjectID().Hex()

	w := doRequest(router, http.MethodPatch, planPath+"/status", admin, map[string]string{}, nil)
	if body := decode(t, w); w.Code != http.StatusBadRequest || body["field"] != "status" {
		t.Errorf("missing status: %d %v", w.Code, body)
	}

	records := map[string]interface{}{"records": "present"}
	w = doRequest(router, http.MethodPut, planPath+"/attendance", coach, records, nil)
	body := decode(t, w)
	if w.Code != http.StatusBadRequest || body["success"] != false || body["field"] != "records" {
		t.Errorf("malformed attendance: %d %v", w.Code, body)
	}
}

func TestErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"validation", &service.ValidationError{Field: "title", Message: "is required"}, http.StatusBadRequest},
		{"duration mismatch", &service.DurationMismatchError{Check: service.DurationCheck{TotalActivityMinutes: 40, PlanDuration: 60}}, http.StatusBadRequest},
		{"locked", service.ErrPlanLocked, http.StatusLocked},
		{"not found", service.ErrPlanNotFound, http.StatusNotFound},
		{"schedule past", service.ErrSchedulePast, http.StatusBadRequest},
		{"denied", service.ErrPlanAccessDenied, http.StatusForbidden},
		{"transition", service.ErrInvalidTransition, http.StatusConflict},
		{"conflict", service.ErrStatusConflict, http.StatusConflict},
		{"unexpected", errors.New("socket closed: 10.0.0.7:27017"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			router := newTestRouter(&mockPlanService{err: tc.err}, &mockAttendanceService{}, nil)
			token := mintToken(t, primitive.NewObjectID(), domain.RoleAdmin, time.Hour)

			w := doRequest(router, http.MethodPut, "/api/v1/plans/"+primitive.NewObjectID().Hex(), token, PlanRequest{Title: "x"}, nil)
			if w.Code != tc.want {
				t.Fatalf("status %d, want %d", w.Code, tc.want)
			}
			body := decode(t, w)
			if tc.want == http.StatusInternalServerError && body["error"] != genericErrorMessage {
				t.Errorf("internal detail leaked: %v", body["error"])
			}
			if tc.name == "duration mismatch" && body["durationCheck"] == nil {
				t.Error("duration check missing from response")
			}
		})
	}
}

func TestGetPlanRejectsBadID(t *testing.T) {
	router := newTestRouter(&mockPlanService{}, &mockAttendanceService{}, nil)
	token := mintToken(t, primitive.NewObjectID(), domain.RoleCoach, time.Hour)

	if w := doRequest(router, http.MethodGet, "/api/v1/plans/xyz", token, nil, nil); w.Code != http.StatusBadRequest {
		t.Errorf("status %d, want 400", w.Code)
	}
}

func TestDurationCheckEndpoint(t *testing.T) {
	router := newTestRouter(&mockPlanService{}, &mockAttendanceService{}, nil)
	token := mintToken(t, primitive.NewObjectID(), domain.RoleAdmin, time.Hour)

	req := DurationCheckRequest{Duration: 60, Activities: []ActivityRequest{{Duration: 20}, {Duration: 20}}}
	w := doRequest(router, http.MethodPost, "/api/v1/plans/duration-check", token, req, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
	body := decode(t, w)
	if body["totalActivityMinutes"] != float64(40) || body["isConsistent"] != false {
		t.Errorf("body = %v", body)
	}
}

// --- Attendance ---

func TestGetAttendanceShape(t *testing.T) {
	attendance := &mockAttendanceService{sheet: &service.AttendanceSheet{
		PlanStatus: domain.PlanAssigned,
		Editable:   true,
		Records: []service.AttendanceEntry{{
			AttendanceRecord: domain.AttendanceRecord{PlayerID: primitive.NewObjectID(), Status: domain.AttendanceLate},
			PlayerName:       "Ana",
			Tone:             "warning",
		}},
	}}
	router := newTestRouter(&mockPlanService{}, attendance, nil)
	token := mintToken(t, primitive.NewObjectID(), domain.RoleCoach, time.Hour)

	w := doRequest(router, http.MethodGet, "/api/v1/plans/"+primitive.NewObjectID().Hex()+"/attendance", token, nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
	body := decode(t, w)
	if body["success"] != true {
		t.Errorf("success = %v", body["success"])
	}
	records, ok := body["attendance"].([]interface{})
	if !ok || len(records) != 1 {
		t.Fatalf("attendance = %v", body["attendance"])
	}
	if rec := records[0].(map[string]interface{}); rec["tone"] != "warning" || rec["playerName"] != "Ana" {
		t.Errorf("record = %v", rec)
	}
}

func TestUpdateAttendance(t *testing.T) {
	attendance := &mockAttendanceService{}
	router := newTestRouter(&mockPlanService{}, attendance, nil)
	token := mintToken(t, primitive.NewObjectID(), domain.RoleCoach, time.Hour)
	player := primitive.NewObjectID()

	req := AttendanceRequest{Records: []AttendanceRecordRequest{{PlayerID: player.Hex(), Status: "Present"}}}
	w := doRequest(router, http.MethodPut, "/api/v1/plans/"+primitive.NewObjectID().Hex()+"/attendance", token, req, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}
	if body := decode(t, w); body["success"] != true {
		t.Errorf("body = %v", body)
	}
	if len(attendance.updates) != 1 || attendance.updates[0].Status != domain.AttendancePresent {
		t.Errorf("updates = %+v", attendance.updates)
	}
}

func TestUpdateAttendanceDeniedExplainsWhy(t *testing.T) {
	attendance := &mockAttendanceService{err: service.CheckAttendanceWrite(domain.PlanDraft, domain.RoleCoach)}
	router := newTestRouter(&mockPlanService{}, attendance, nil)
	token := mintToken(t, primitive.NewObjectID(), domain.RoleCoach, time.Hour)

	req := AttendanceRequest{Records: []AttendanceRecordRequest{{PlayerID: primitive.NewObjectID().Hex(), Status: "present"}}}
	w := doRequest(router, http.MethodPut, "/api/v1/plans/"+primitive.NewObjectID().Hex()+"/attendance", token, req, nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("status %d", w.Code)
	}
	body := decode(t, w)
	if body["success"] != false || body["reason"] != "status" || body["error"] == "" {
		t.Errorf("body = %v", body)
	}
}

// --- Infrastructure ---

func TestRequestIDIsEchoed(t *testing.T) {
	router := newTestRouter(&mockPlanService{}, &mockAttendanceService{}, nil)

	w := doRequest(router, http.MethodGet, "/ping", "", nil, map[string]string{"X-Request-ID": "req-42"})
	if got := w.Header().Get("X-Request-ID"); got != "req-42" {
		t.Errorf("X-Request-ID = %q", got)
	}
	w = doRequest(router, http.MethodGet, "/ping", "", nil, nil)
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("no request id generated")
	}
}

func TestHealthz(t *testing.T) {
	healthy := newTestRouter(&mockPlanService{}, &mockAttendanceService{}, func(context.Context) error { return nil })
	if w := doRequest(healthy, http.MethodGet, "/healthz", "", nil, nil); w.Code != http.StatusOK {
		t.Errorf("healthy: status %d", w.Code)
	}

	down := newTestRouter(&mockPlanService{}, &mockAttendanceService{}, func(context.Context) error { return errors.New("no primary") })
	if w := doRequest(down, http.MethodGet, "/healthz", "", nil, nil); w.Code != http.StatusServiceUnavailable {
		t.Errorf("down: status %d", w.Code)
	}
}
