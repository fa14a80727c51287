package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"sitecheck-backend/internal/database"
	"sitecheck-backend/internal/metrics"
	"sitecheck-backend/internal/middleware"
	"sitecheck-backend/internal/models"
	"sitecheck-backend/internal/session"
	"sitecheck-backend/internal/websocket"
)

const testSecret = "handler-secret"

// Wednesday 14 October 2026; the week starts on Monday the 12th
var fixedNow = time.Date(2026, 10, 14, 9, 30, 0, 0, time.UTC)

type sentAlert struct {
	tokens []string
	rec    models.InspectionRecord
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentAlert
}

func (f *fakeNotifier) SendDefectAlert(_ context.Context, tokens []string, rec models.InspectionRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentAlert{tokens: tokens, rec: rec})
	return nil
}

type testServer struct {
	t       *testing.T
	handler http.Handler
	store   *database.Store
	env     *Inspections
	alerts  *fakeNotifier

	inspector, other, admin                *models.User
	inspectorToken, otherToken, adminToken string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db, err := database.Connect("sqlite3", filepath.Join(t.TempDir(), "handlers.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(db))

	store := database.NewStore(db)
	sessions := session.NewManager(time.Hour)
	m, err := metrics.New(sessions.Count)
	require.NoError(t, err)
	hub := websocket.NewHub()
	go hub.Run()

	ts := &testServer{t: t, store: store, alerts: &fakeNotifier{}}
	ts.env = &Inspections{
		Store:    store,
		Sessions: sessions,
		Hub:      hub,
		Alerts:   ts.alerts,
		Metrics:  m,
		Clock:    func() time.Time { return fixedNow },
	}
	ts.handler = NewRouter(RouterConfig{
		Inspections:    ts.env,
		JWTSecret:      testSecret,
		TokenTTL:       time.Hour,
		AllowedOrigins: []string{"*"},
	})

	ts.inspector, ts.inspectorToken = ts.user("sam@example.com", "Sam Site", models.RoleInspector)
	ts.other, ts.otherToken = ts.user("alex@example.com", "Alex Other", models.RoleInspector)
	ts.admin, ts.adminToken = ts.user("boss@example.com", "Site Manager", models.RoleAdmin)
	return ts
}

func (ts *testServer) user(email, name, role string) (*models.User, string) {
	hash, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	require.NoError(ts.t, err)
	u := &models.User{Email: email, Password: string(hash), Name: name, Role: role, CompanyID: "c1"}
	require.NoError(ts.t, ts.store.CreateUser(context.Background(), u))
	token, err := middleware.IssueToken(testSecret, u, time.Hour)
	require.NoError(ts.t, err)
	return u, token
}

func (ts *testServer) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	ts.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(ts.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

// open starts a session and returns its base path
func (ts *testServer) open(kind, draftID, token string) (string, SessionView) {
	ts.t.Helper()
	rec := ts.do(http.MethodPost, "/api/inspections/sessions", token, OpenSessionRequest{Kind: kind, DraftID: draftID})
	require.Equal(ts.t, http.StatusCreated, rec.Code, rec.Body.String())
	view := decodeBody[SessionView](ts.t, rec)
	return "/api/inspections/sessions/" + view.SessionID, view
}

func (ts *testServer) mustOK(rec *httptest.ResponseRecorder) SessionView {
	ts.t.Helper()
	require.Equal(ts.t, http.StatusOK, rec.Code, rec.Body.String())
	return decodeBody[SessionView](ts.t, rec)
}

func TestLogin(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodPost, "/api/auth/login", "", LoginRequest{Email: "SAM@example.com ", Password: "secret123"})
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody[LoginResponse](t, rec)
	assert.True(t, resp.OK)
	require.NotNil(t, resp.User)
	assert.Equal(t, "c1", resp.User.CompanyID)

	claims, err := middleware.ParseToken(testSecret, resp.Token)
	require.NoError(t, err)
	assert.Equal(t, ts.inspector.ID, claims.UserID)

	rec = ts.do(http.MethodGet, "/api/auth/status", resp.Token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(http.MethodPost, "/api/auth/login", "", LoginRequest{Email: "sam@example.com", Password: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = ts.do(http.MethodPost, "/api/auth/login", "", LoginRequest{Email: "nobody@example.com", Password: "x"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCatalogEndpoint(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodGet, "/api/catalog/greasing", ts.inspectorToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody[CatalogResponse](t, rec)
	assert.True(t, resp.Profile.Binary)
	assert.Equal(t, models.BinaryStatuses, resp.Statuses)
	assert.NotEmpty(t, resp.Groups)

	assert.Equal(t, http.StatusNotFound, ts.do(http.MethodGet, "/api/catalog/crane", ts.inspectorToken, nil).Code)
	assert.Equal(t, http.StatusUnauthorized, ts.do(http.MethodGet, "/api/catalog/plant", "", nil).Code)
}

func TestEditSaveAndResume(t *testing.T) {
	ts := newTestServer(t)
	base, view := ts.open("plant", "", ts.inspectorToken)
	assert.Equal(t, models.Wednesday, view.ActiveDay, "today's weekday is active")
	assert.Equal(t, "2026-10-12", view.Header.WeekStart)
	assert.Len(t, view.Days, 7)

	ts.mustOK(ts.do(http.MethodPut, base+"/header", ts.inspectorToken, HeaderRequest{EquipmentID: "EX-042", ProjectID: "P-7"}))

	view = ts.mustOK(ts.do(http.MethodPut, base+"/checks/coolant/status", ts.inspectorToken, map[string]string{"status": "requires_action"}))
	assert.Equal(t, []string{"coolant"}, view.Expanded)
	ts.mustOK(ts.do(http.MethodPut, base+"/checks/coolant/notes", ts.inspectorToken, map[string]string{"notes": "low"}))
	view = ts.mustOK(ts.do(http.MethodPost, base+"/checks/coolant/photos", ts.inspectorToken, map[string]string{"ref": "img-1"}))
	require.Len(t, view.Working.Checks, 1)
	assert.Equal(t, []string{"img-1"}, view.Working.Checks[0].Photos)

	// Moving the status back keeps the notes but closes the panel
	view = ts.mustOK(ts.do(http.MethodPut, base+"/checks/coolant/status", ts.inspectorToken, map[string]string{"status": "satisfactory"}))
	assert.Empty(t, view.Expanded)
	assert.Equal(t, "low", view.Working.Checks[0].Notes)

	view = ts.mustOK(ts.do(http.MethodPost, base+"/day", ts.inspectorToken, map[string]string{"day": "Mon"}))
	assert.Equal(t, models.Monday, view.ActiveDay)
	assert.Empty(t, view.Working.Checks, "days never bleed into each other")
	ts.mustOK(ts.do(http.MethodPut, base+"/checks/horn/status", ts.inspectorToken, map[string]string{"status": "satisfactory"}))
	ts.mustOK(ts.do(http.MethodPut, base+"/fields", ts.inspectorToken, map[string]interface{}{"fields": map[string]string{"hours_reading": "1500"}}))

	view = ts.mustOK(ts.do(http.MethodPost, base+"/save", ts.inspectorToken, nil))
	require.NotEmpty(t, view.DraftID)
	assert.Equal(t, models.DayStateSaved, view.Days[0].State)
	assert.Equal(t, "2026-10-12", view.Days[0].Date)
	assert.Equal(t, 1.0, testutil.ToFloat64(ts.env.Metrics.DraftSaves.WithLabelValues("plant", "success")))

	rec := ts.do(http.MethodGet, "/api/drafts?kind=plant", ts.inspectorToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	drafts := decodeBody[struct {
		Drafts []models.DraftSummary `json:"drafts"`
	}](t, rec)
	require.Len(t, drafts.Drafts, 1)
	assert.Equal(t, "EX-042", drafts.Drafts[0].EquipmentID)

	require.Equal(t, http.StatusOK, ts.do(http.MethodDelete, base, ts.inspectorToken, nil).Code)
	assert.Equal(t, http.StatusNotFound, ts.do(http.MethodGet, base, ts.inspectorToken, nil).Code)

	_, resumed := ts.open("plant", view.DraftID, ts.inspectorToken)
	assert.Equal(t, view.DraftID, resumed.DraftID)
	assert.Equal(t, "EX-042", resumed.Header.EquipmentID)
	require.Len(t, resumed.Working.Checks, 1, "wednesday was carried along with the save")
	assert.Equal(t, "coolant", resumed.Working.Checks[0].ItemID)
	assert.Equal(t, "low", resumed.Working.Checks[0].Notes)
	assert.True(t, resumed.Days[0].Completed)

	// Opening the draft as another kind starts fresh without complaint
	_, fresh := ts.open("vehicle", view.DraftID, ts.inspectorToken)
	assert.Empty(t, fresh.DraftID)
	assert.Empty(t, fresh.Warning)
}

func TestEditErrors(t *testing.T) {
	ts := newTestServer(t)
	base, _ := ts.open("greasing", "", ts.inspectorToken)

	rec := ts.do(http.MethodPut, base+"/checks/slew_ring/status", ts.inspectorToken, map[string]string{"status": "satisfactory"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, "graded answers are not valid for greasing")

	rec = ts.do(http.MethodPut, base+"/checks/engine_oil/status", ts.inspectorToken, map[string]string{"status": "pass"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(http.MethodPut, base+"/checks/slew_ring/notes", ts.inspectorToken, map[string]string{"notes": "x"})
	assert.Equal(t, http.StatusConflict, rec.Code, "notes need an answer first")

	rec = ts.do(http.MethodPost, base+"/day", ts.inspectorToken, map[string]string{"day": "someday"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(http.MethodPut, base+"/fields", ts.inspectorToken, map[string]interface{}{"fields": map[string]string{"mileage": "10"}})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = ts.do(http.MethodPost, base+"/save", ts.inspectorToken, nil)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := decodeBody[map[string]interface{}](t, rec)
	assert.Equal(t, "equipment", body["field"])

	assert.Equal(t, http.StatusNotFound, ts.do(http.MethodGet, base, ts.otherToken, nil).Code, "sessions are private")
	assert.Equal(t, http.StatusBadRequest, ts.do(http.MethodPost, "/api/inspections/sessions", ts.inspectorToken, map[string]string{"kind": "crane"}).Code)
}

func TestUpdateDayFieldsRejectsWholeBatch(t *testing.T) {
	ts := newTestServer(t)
	base, _ := ts.open("plant", "", ts.inspectorToken)

	// Map order varies per request; repeat so the bad key is seen first and last
	for i := 0; i < 10; i++ {
		rec := ts.do(http.MethodPut, base+"/fields", ts.inspectorToken, map[string]interface{}{
			"fields": map[string]string{"hours_reading": "1500", "comments": "ok", "mileage": "10"},
		})
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
		body := decodeBody[map[string]interface{}](t, rec)
		assert.Equal(t, "mileage", body["field"])

		view := ts.mustOK(ts.do(http.MethodGet, base, ts.inspectorToken, nil))
		assert.Empty(t, view.Working.Fields, "a rejected batch writes nothing")
	}

	view := ts.mustOK(ts.do(http.MethodPut, base+"/fields", ts.inspectorToken, map[string]interface{}{
		"fields": map[string]string{"hours_reading": "1500", "comments": "ok"},
	}))
	assert.Equal(t, map[string]string{"hours_reading": "1500", "comments": "ok"}, view.Working.Fields)
}

func TestSubmitWeek(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(http.MethodPost, "/api/devices/fcm-token", ts.adminToken, map[string]string{"token": "tok-admin", "device_type": "ios"})
	require.Equal(t, http.StatusOK, rec.Code)

	base, _ := ts.open("plant", "", ts.inspectorToken)
	ts.mustOK(ts.do(http.MethodPut, base+"/header", ts.inspectorToken, HeaderRequest{EquipmentID: "EX-042"}))
	ts.mustOK(ts.do(http.MethodPut, base+"/checks/coolant/status", ts.inspectorToken, map[string]string{"status": "immediate_attention"}))
	ts.mustOK(ts.do(http.MethodPost, base+"/day", ts.inspectorToken, map[string]string{"day": "mon"}))
	ts.mustOK(ts.do(http.MethodPut, base+"/checks/horn/status", ts.inspectorToken, map[string]string{"status": "satisfactory"}))
	saved := ts.mustOK(ts.do(http.MethodPost, base+"/save", ts.inspectorToken, nil))

	rec = ts.do(http.MethodPost, base+"/submit", ts.inspectorToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decodeBody[SubmitResponse](t, rec)
	require.NotNil(t, resp.Result)
	assert.Equal(t, 2, resp.Result.Created)
	assert.Equal(t, []models.DayCode{models.Monday, models.Wednesday}, resp.Result.Days)
	assert.True(t, resp.Result.DraftDeleted)
	assert.True(t, resp.Result.Done)

	assert.Equal(t, http.StatusNotFound, ts.do(http.MethodGet, base, ts.inspectorToken, nil).Code, "session closes after submit")

	draft, err := ts.store.GetDraft(context.Background(), ts.inspector.ID, saved.DraftID)
	require.NoError(t, err)
	assert.Nil(t, draft)

	rec = ts.do(http.MethodGet, "/api/inspections/records?kind=plant", ts.inspectorToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	mine := decodeBody[struct {
		Records []models.RecordResponse `json:"records"`
	}](t, rec)
	require.Len(t, mine.Records, 2)
	assert.Equal(t, "2026-10-14", mine.Records[0].Date)
	assert.Equal(t, 1, mine.Records[0].DefectCount)
	assert.Equal(t, "Sam Site", mine.Records[0].UserName)

	path := "/api/inspections/records/" + mine.Records[0].ID
	assert.Equal(t, http.StatusOK, ts.do(http.MethodGet, path, ts.inspectorToken, nil).Code)
	assert.Equal(t, http.StatusOK, ts.do(http.MethodGet, path, ts.adminToken, nil).Code)
	assert.Equal(t, http.StatusNotFound, ts.do(http.MethodGet, path, ts.otherToken, nil).Code, "other inspectors cannot read it")

	assert.Equal(t, http.StatusForbidden, ts.do(http.MethodGet, "/api/manager/records", ts.inspectorToken, nil).Code)
	rec = ts.do(http.MethodGet, "/api/manager/records?from=2026-10-13", ts.adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	company := decodeBody[struct {
		Records []models.RecordResponse `json:"records"`
	}](t, rec)
	require.Len(t, company.Records, 1)

	ts.alerts.mu.Lock()
	require.Len(t, ts.alerts.sent, 1, "only the day with a defect alerts")
	assert.Equal(t, []string{"tok-admin"}, ts.alerts.sent[0].tokens)
	assert.Equal(t, models.Wednesday, ts.alerts.sent[0].rec.Day)
	ts.alerts.mu.Unlock()

	assert.Equal(t, 2.0, testutil.ToFloat64(ts.env.Metrics.RecordsCreated.WithLabelValues("plant")))

	rec = ts.do(http.MethodDelete, "/api/manager/records/"+company.Records[0].ID, ts.adminToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSubmitWithNothingCompleted(t *testing.T) {
	ts := newTestServer(t)
	base, _ := ts.open("vehicle", "", ts.inspectorToken)
	ts.mustOK(ts.do(http.MethodPut, base+"/header", ts.inspectorToken, HeaderRequest{
		EquipmentText: "Transit van",
		Extra:         map[string]string{"registration": "AB12 CDE"},
	}))

	rec := ts.do(http.MethodPost, base+"/submit", ts.inspectorToken, nil)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := decodeBody[map[string]interface{}](t, rec)
	assert.Equal(t, "days", body["field"])
	assert.Equal(t, 1.0, testutil.ToFloat64(ts.env.Metrics.ValidationErrors.WithLabelValues("submit")))
}

func TestDraftEndpointsAreOwnerScoped(t *testing.T) {
	ts := newTestServer(t)
	base, _ := ts.open("bucket_change", "", ts.inspectorToken)
	ts.mustOK(ts.do(http.MethodPut, base+"/header", ts.inspectorToken, HeaderRequest{EquipmentID: "EX-7"}))
	ts.mustOK(ts.do(http.MethodPut, base+"/checks/"+firstItem(t, ts, "bucket_change")+"/status", ts.inspectorToken, map[string]string{"status": "pass"}))
	view := ts.mustOK(ts.do(http.MethodPost, base+"/save", ts.inspectorToken, nil))

	assert.Equal(t, http.StatusNotFound, ts.do(http.MethodDelete, "/api/drafts/"+view.DraftID, ts.otherToken, nil).Code)

	_, stolen := ts.open("bucket_change", view.DraftID, ts.otherToken)
	assert.Empty(t, stolen.DraftID, "another user's draft is treated as absent")

	assert.Equal(t, http.StatusOK, ts.do(http.MethodDelete, "/api/drafts/"+view.DraftID, ts.inspectorToken, nil).Code)
}

func firstItem(t *testing.T, ts *testServer, kind string) string {
	t.Helper()
	rec := ts.do(http.MethodGet, "/api/catalog/"+kind, ts.inspectorToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody[CatalogResponse](t, rec)
	require.NotEmpty(t, resp.Groups)
	return resp.Groups[0].Items[0].ID
}

func TestCreateUser(t *testing.T) {
	ts := newTestServer(t)
	req := CreateUserRequest{Email: "new@example.com", Password: "pw", Name: "New Hire", Role: models.RoleInspector}

	assert.Equal(t, http.StatusForbidden, ts.do(http.MethodPost, "/api/users", ts.inspectorToken, req).Code)

	rec := ts.do(http.MethodPost, "/api/users", ts.adminToken, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	resp := decodeBody[CreateUserResponse](t, rec)
	require.NotNil(t, resp.User)
	assert.Equal(t, "c1", resp.User.CompanyID)

	assert.Equal(t, http.StatusConflict, ts.do(http.MethodPost, "/api/users", ts.adminToken, req).Code)

	req.Email, req.Role = "x@example.com", "driver"
	assert.Equal(t, http.StatusBadRequest, ts.do(http.MethodPost, "/api/users", ts.adminToken, req).Code)
}

func TestHealthAndMetrics(t *testing.T) {
	ts := newTestServer(t)
	assert.Equal(t, http.StatusOK, ts.do(http.MethodGet, "/health", "", nil).Code)

	ts.open("plant", "", ts.inspectorToken)
	rec := ts.do(http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "sitecheck_active_sessions 1")
}
