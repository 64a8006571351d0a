package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/rollcall/internal/config"
	"github.com/MrSnakeDoc/rollcall/internal/domain"
	"github.com/MrSnakeDoc/rollcall/internal/httpserver/deps"
	"github.com/MrSnakeDoc/rollcall/internal/httpserver/mw"
	"github.com/MrSnakeDoc/rollcall/internal/logger"
	"github.com/MrSnakeDoc/rollcall/internal/metrics"
	"github.com/MrSnakeDoc/rollcall/internal/scheduler"
	"github.com/MrSnakeDoc/rollcall/internal/service"
	"github.com/MrSnakeDoc/rollcall/internal/store/memory"
)

const superSecret = "super-secret"

type testServer struct {
	handler http.Handler
	store   *memory.Store
	trigger chan struct{}
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	log := logger.New("error", false)
	m := metrics.New()
	st := memory.New()
	ctx := context.Background()

	require.NoError(t, st.UpsertDomains(ctx, []domain.Domain{
		{Name: "AI/ML", Password: "ai-pass", MeetLink: "https://meet/ai"},
		{Name: "Music", Password: "music-pass"},
		{Name: "Dance", Password: "dance-pass"},
	}))
	require.NoError(t, st.SaveStudent(ctx, domain.Student{
		ID: "s1", RollNo: "2306249", Name: "Asha", Email: "asha@x.io",
		Domains: []string{"AI/ML", "Music", "Dance"},
	}))
	require.NoError(t, st.SaveSchedule(ctx, []domain.ScheduleItem{
		{RollNo: "2306249", Times: []string{"9am", "10am"}},
	}))

	cfg := &config.Config{
		ListenPort:     ":0",
		RequestTimeout: 2 * time.Second,
		CORSOrigins:    []string{"*"},
	}
	trigger := make(chan struct{}, 1)
	d := deps.Deps{
		Logger:            log,
		StartTime:         time.Now(),
		Version:           "test",
		TimeNow:           time.Now,
		LoginBurst:        3,
		LoginRefillPerMin: 1,
		Roster:            service.NewRoster(st, superSecret, log, m),
		Metrics:           m,
		Status:            scheduler.NewStatus(),
		StoreKind:         "memory",
		EventDate:         "Feb 15, 2026",
		ScheduleFile:      "schedule.xlsx",
		ReloadTrigger:     trigger,
	}

	return &testServer{
		handler: New(cfg, log, d).Handler(),
		store:   st,
		trigger: trigger,
	}
}

func (ts *testServer) do(t *testing.T, method, path, password string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if password != "" {
		req.Header.Set(mw.AdminPasswordHeader, password)
	}

	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

// ─────────────────────────────────────────────────────────────────
// Public endpoints
// ─────────────────────────────────────────────────────────────────

func TestStudentSchedule(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/students/2306249/schedule", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Student struct {
			Name   string `json:"name"`
			RollNo string `json:"rollNo"`
		} `json:"student"`
		EventDate   string           `json:"eventDate"`
		Assignments []map[string]any `json:"assignments"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	assert.Equal(t, "Asha", body.Student.Name)
	assert.Equal(t, "Feb 15, 2026", body.EventDate)
	require.Len(t, body.Assignments, 3)

	assert.Equal(t, "AI/ML", body.Assignments[0]["domain"])
	assert.Equal(t, "9am", body.Assignments[0]["timeSlot"])
	assert.Equal(t, true, body.Assignments[0]["joinable"])

	assert.Equal(t, "https://meet.google.com/lookup/music", body.Assignments[1]["joinURL"])

	_, hasSlot := body.Assignments[2]["timeSlot"]
	assert.False(t, hasSlot, "undefined time slot must be omitted")
	assert.Equal(t, false, body.Assignments[2]["joinable"])
}

func TestStudentScheduleNotFound(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/students/unknown/schedule", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), domain.ErrNotFound.Error())
}

func TestListDomainsHidesPasswords(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/domains", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "password")
	assert.NotContains(t, rec.Body.String(), "ai-pass")

	views := decode[[]domain.DomainView](t, rec)
	assert.Len(t, views, 3)
}

func TestLogin(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name       string
		password   string
		wantStatus int
		wantRole   string
		wantDomain string
	}{
		{"super admin", superSecret, http.StatusOK, "super_admin", ""},
		{"domain admin", "music-pass", http.StatusOK, "domain_admin", "Music"},
		{"wrong password", "nope", http.StatusUnauthorized, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(t, http.MethodPost, "/api/admin/login", "", map[string]string{"password": tt.password})
			require.Equal(t, tt.wantStatus, rec.Code)

			body := decode[map[string]any](t, rec)
			if tt.wantStatus != http.StatusOK {
				assert.Equal(t, false, body["success"])
				assert.Equal(t, "Invalid credentials", body["error"])
				return
			}
			assert.Equal(t, true, body["success"])
			assert.Equal(t, tt.wantRole, body["role"])
			if tt.wantDomain != "" {
				assert.Equal(t, tt.wantDomain, body["domainName"])
			}
		})
	}
}

func TestLoginMissingPassword(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/admin/login", "", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "password is required")
}

func TestLoginRateLimited(t *testing.T) {
	ts := newTestServer(t)

	var last int
	for i := 0; i < 4; i++ {
		last = ts.do(t, http.MethodPost, "/api/admin/login", "", map[string]string{"password": "nope"}).Code
	}
	assert.Equal(t, http.StatusTooManyRequests, last)
}

// ─────────────────────────────────────────────────────────────────
// Admin endpoints
// ─────────────────────────────────────────────────────────────────

func TestAdminEndpointsRequirePassword(t *testing.T) {
	ts := newTestServer(t)

	assert.Equal(t, http.StatusUnauthorized, ts.do(t, http.MethodGet, "/api/students", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, ts.do(t, http.MethodGet, "/api/students", "wrong", nil).Code)
	assert.Equal(t, http.StatusForbidden, ts.do(t, http.MethodGet, "/api/students", "music-pass", nil).Code)
	assert.Equal(t, http.StatusOK, ts.do(t, http.MethodGet, "/api/students", superSecret, nil).Code)
}

func TestAdminPasswordGuessesShareLoginLimit(t *testing.T) {
	ts := newTestServer(t)

	// burst is 3: two header guesses and one login attempt spend it
	assert.Equal(t, http.StatusUnauthorized, ts.do(t, http.MethodGet, "/api/students", "guess-1", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, ts.do(t, http.MethodPut, "/api/admin/students", "guess-2", []any{}).Code)
	assert.Equal(t, http.StatusUnauthorized,
		ts.do(t, http.MethodPost, "/api/admin/login", "", map[string]string{"password": "guess-3"}).Code)

	assert.Equal(t, http.StatusTooManyRequests, ts.do(t, http.MethodPost, "/api/domains", "guess-4", nil).Code)
	assert.Equal(t, http.StatusTooManyRequests, ts.do(t, http.MethodGet, "/api/students", superSecret, nil).Code)
	assert.Equal(t, http.StatusTooManyRequests,
		ts.do(t, http.MethodPost, "/api/admin/login", "", map[string]string{"password": superSecret}).Code)
}

func TestUpsertStudentMergesAndCreates(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/students", superSecret, map[string]any{
		"id":    "s1",
		"email": "new@x.io",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var merged struct {
		Success bool           `json:"success"`
		Student domain.Student `json:"student"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &merged))
	assert.True(t, merged.Success)
	assert.Equal(t, "Asha", merged.Student.Name)
	assert.Equal(t, "new@x.io", merged.Student.Email)

	rec = ts.do(t, http.MethodPost, "/api/students", superSecret, map[string]any{
		"name":   "Ravi",
		"rollNo": "2306250",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	created := decode[map[string]any](t, rec)
	student := created["student"].(map[string]any)
	assert.NotEmpty(t, student["id"])

	rec = ts.do(t, http.MethodPost, "/api/students", superSecret, map[string]any{"rollNo": "2306249"})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestDeleteStudent(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodDelete, "/api/students", superSecret, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "ID required")

	assert.Equal(t, http.StatusOK, ts.do(t, http.MethodDelete, "/api/students?id=s1", superSecret, nil).Code)
	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodDelete, "/api/students?id=s1", superSecret, nil).Code)

	// no cascade
	item, err := ts.store.GetScheduleByRollNo(context.Background(), "2306249")
	require.NoError(t, err)
	assert.NotNil(t, item)
}

func TestUpdateDomain(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name       string
		password   string
		body       map[string]any
		wantStatus int
	}{
		{"own domain", "music-pass", map[string]any{"name": "Music", "meetLink": "https://meet/music"}, http.StatusOK},
		{"other domain", "music-pass", map[string]any{"name": "Dance", "meetLink": "x"}, http.StatusForbidden},
		{"super admin any domain", superSecret, map[string]any{"name": "Dance", "meetLink": "https://meet/dance"}, http.StatusOK},
		{"unknown domain", superSecret, map[string]any{"name": "Ghost", "meetLink": "x"}, http.StatusNotFound},
		{"missing link", superSecret, map[string]any{"name": "Dance"}, http.StatusBadRequest},
		{"no password", "", map[string]any{"name": "Dance", "meetLink": "x"}, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(t, http.MethodPost, "/api/domains", tt.password, tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
		})
	}

	rec := ts.do(t, http.MethodGet, "/api/students/2306249/schedule", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "https://meet/music")
	assert.Contains(t, rec.Body.String(), "https://meet/dance")
}

func TestBulkEndpoints(t *testing.T) {
	ts := newTestServer(t)

	students := []domain.Student{
		{RollNo: "1", Name: "A", Domains: []string{"Music"}},
		{RollNo: "2306249", Name: "Asha Renamed", Domains: []string{"Dance"}},
	}
	for i := 0; i < 2; i++ {
		rec := ts.do(t, http.MethodPut, "/api/admin/students", superSecret, students)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}

	all, err := ts.store.ListStudents(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 2)
	asha, _ := ts.store.GetStudentByRollNo(context.Background(), "2306249")
	require.NotNil(t, asha)
	assert.Equal(t, "s1", asha.ID, "existing id is kept")

	rec := ts.do(t, http.MethodPut, "/api/admin/domains", superSecret, []domain.Domain{{Name: "Chess", Password: "c"}})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodPut, "/api/admin/schedule", superSecret, []domain.ScheduleItem{{RollNo: "1", Times: []string{"8am"}}})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1.0, decode[map[string]any](t, rec)["count"])

	rec = ts.do(t, http.MethodPut, "/api/admin/schedule", superSecret, []domain.ScheduleItem{{Name: "no roll"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodPut, "/api/admin/schedule", "music-pass", []domain.ScheduleItem{})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestInvalidJSON(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/students", strings.NewReader("{nope"))
	req.Header.Set(mw.AdminPasswordHeader, superSecret)
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// ─────────────────────────────────────────────────────────────────
// Infra endpoints
// ─────────────────────────────────────────────────────────────────

func TestProbes(t *testing.T) {
	ts := newTestServer(t)

	assert.Equal(t, http.StatusOK, ts.do(t, http.MethodGet, "/healthz", "", nil).Code)

	rec := ts.do(t, http.MethodGet, "/readyz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decode[map[string]any](t, rec)["ready"])

	rec = ts.do(t, http.MethodGet, "/infra", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode[map[string]any](t, rec)["mode"])

	rec = ts.do(t, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "rollcall_")
}

func TestReload(t *testing.T) {
	ts := newTestServer(t)

	assert.Equal(t, http.StatusUnauthorized, ts.do(t, http.MethodPost, "/reload", "", nil).Code)
	assert.Equal(t, http.StatusAccepted, ts.do(t, http.MethodPost, "/reload", superSecret, nil).Code)
	// trigger channel is full until the reloader drains it
	assert.Equal(t, http.StatusTooManyRequests, ts.do(t, http.MethodPost, "/reload", superSecret, nil).Code)
	assert.Len(t, ts.trigger, 1)
}

func TestCORSPreflight(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/domains", nil)
	req.Header.Set("Origin", "https://dashboard.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", mw.AdminPasswordHeader)
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
