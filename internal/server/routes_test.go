package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"golang.org/x/net/websocket"

	"live-placement-backend/internal/auth"
	"live-placement-backend/internal/config"
	"live-placement-backend/internal/controller/shortlist"
	"live-placement-backend/internal/database"
	"live-placement-backend/internal/model"
	"live-placement-backend/internal/realtime"
	"live-placement-backend/internal/testutil"
)

const testSecret = "server-secret"

var testDB *database.DBinstanceStruct

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	var err error
	var srvTeardown func(context.Context, ...testcontainers.TerminateOption) error
	srvTeardown, testDB, err = database.GetTestDB()
	if err != nil {
		os.Exit(1)
	}
	code := m.Run()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if srvTeardown != nil {
		_ = srvTeardown(ctx)
	}
	os.Exit(code)
}

func newTestServer(t *testing.T) (*MyServer, http.Handler) {
	t.Helper()
	cfg := &config.Config{
		SecretKey:          testSecret,
		RateLimitPerSecond: 1000,
		WSSendBuffer:       16,
		Logging:            true,
		AuditLogPath:       filepath.Join(t.TempDir(), "workflow.log"),
	}
	s := NewMyServer(cfg, testDB)
	return s, s.RegisterRoutes()
}

func token(t *testing.T, subject string, role string) string {
	t.Helper()
	signed, err := auth.GenerateToken(testSecret, subject, role, time.Hour)
	require.NoError(t, err)
	return signed
}

func TestHealth(t *testing.T) {
	_, r := newTestServer(t)
	rec, resp := testutil.MakeJSONRequest(nil, "", r, "/health", http.MethodGet)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "up", resp["status"])
}

func TestSwaggerDoc(t *testing.T) {
	_, r := newTestServer(t)
	rec, resp := testutil.MakeJSONRequest(nil, "", r, "/swagger/doc.json", http.MethodGet)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "/api/v1", resp["basePath"])

	paths, ok := resp["paths"].(map[string]interface{})
	require.True(t, ok)
	for _, p := range []string{
		"/shortlist",
		"/shortlist/{student_id}/{company_id}/stage",
		"/offers/{offer_id}/decision",
		"/companies/{company_id}/process",
		"/students/{student_id}/shortlist",
	} {
		assert.Contains(t, paths, p)
	}
}

func TestRoutes_RequireToken(t *testing.T) {
	_, r := newTestServer(t)
	rec, _ := testutil.MakeJSONRequest(nil, "", r, "/api/v1/companies", http.MethodGet)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRoutes_PlacementFlow(t *testing.T) {
	s, r := newTestServer(t)
	student, err := database.NewTestStudent(testDB, "Flow Student")
	require.NoError(t, err)
	other, err := database.NewTestCompany(testDB, "Flow Other Co", 2, "poc-flow-other")
	require.NoError(t, err)

	company := database.TestCompanyTechNova
	pocToken := token(t, database.TestPOCTechNovaID, model.RolePOC)
	otherToken := token(t, "poc-flow-other", model.RolePOC)
	adminToken := token(t, database.TestAdminID, model.RoleAdmin)
	pairPath := "/" + student.ID.String() + "/" + company.ID.String()

	rec, _ := testutil.MakeJSONRequest(gin.H{"student_id": student.ID, "company_id": company.ID}, pocToken, r, "/api/v1/shortlist", http.MethodPost)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, _ = testutil.MakeJSONRequest(gin.H{"student_id": student.ID, "company_id": other.ID}, otherToken, r, "/api/v1/shortlist", http.MethodPost)
	require.Equal(t, http.StatusCreated, rec.Code)

	// a POC cannot touch another company's list
	rec, resp := testutil.MakeJSONRequest(gin.H{"student_id": student.ID, "company_id": company.ID}, otherToken, r, "/api/v1/shortlist", http.MethodPost)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "FORBIDDEN", resp["code"])

	rec, resp = testutil.MakeJSONRequest(gin.H{"stage": "R3"}, pocToken, r, "/api/v1/shortlist"+pairPath+"/stage", http.MethodPatch)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_STAGE", resp["code"])

	rec, resp = testutil.MakeJSONRequest(gin.H{"stage": "R2"}, pocToken, r, "/api/v1/shortlist"+pairPath+"/stage", http.MethodPatch)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "R2", resp["stage"])

	rec, resp = testutil.MakeJSONRequest(gin.H{"student_id": student.ID, "company_id": company.ID}, pocToken, r, "/api/v1/offers", http.MethodPost)
	require.Equal(t, http.StatusCreated, rec.Code)
	offerID := resp["id"].(string)

	rec, resp = testutil.MakeJSONRequest(gin.H{"student_id": student.ID, "company_id": company.ID}, pocToken, r, "/api/v1/offers", http.MethodPost)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "OFFER_EXISTS", resp["code"])

	// only admin decides
	rec, _ = testutil.MakeJSONRequest(gin.H{"decision": "APPROVE"}, pocToken, r, "/api/v1/offers/"+offerID+"/decision", http.MethodPatch)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, resp = testutil.MakeJSONRequest(gin.H{"decision": "APPROVE"}, adminToken, r, "/api/v1/offers/"+offerID+"/decision", http.MethodPatch)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "APPROVED", resp["approval_status"])

	rec, resp = testutil.MakeJSONRequest(gin.H{"stage": "R1"}, otherToken, r, "/api/v1/shortlist/"+student.ID.String()+"/"+other.ID.String()+"/stage", http.MethodPatch)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "PLACEMENT_LOCKED", resp["code"])

	rec, _ = testutil.MakeJSONRequest(nil, otherToken, r, "/api/v1/companies/"+other.ID.String()+"/shortlist", http.MethodGet)
	require.Equal(t, http.StatusOK, rec.Code)
	var entries []shortlist.CompanyEntry
	require.NoError(t, testutil.DecodeJSON(rec, &entries))
	require.Len(t, entries, 1)
	assert.True(t, entries[0].IsStudentPlaced)
	assert.Equal(t, company.Name, entries[0].StudentPlacedCompanyName)
	assert.Equal(t, "Flow Student", entries[0].StudentName)

	studentToken := token(t, student.ID.String(), model.RoleStudent)
	rec, _ = testutil.MakeJSONRequest(nil, studentToken, r, "/api/v1/students/"+student.ID.String()+"/shortlist", http.MethodGet)
	require.Equal(t, http.StatusOK, rec.Code)
	var applications []shortlist.StudentEntry
	require.NoError(t, testutil.DecodeJSON(rec, &applications))
	assert.Len(t, applications, 2)

	rec, _ = testutil.MakeJSONRequest(nil, studentToken, r, "/api/v1/students/"+uuid.NewString()+"/shortlist", http.MethodGet)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	content, err := os.ReadFile(s.cfg.AuditLogPath)
	require.NoError(t, err)
	assert.Contains(t, string(content), "DecideOffer | Success | "+database.TestAdminID)
}

func TestRoutes_ProcessCompletion(t *testing.T) {
	_, r := newTestServer(t)
	company, err := database.NewTestCompany(testDB, "Process Co", 1, "poc-process")
	require.NoError(t, err)
	adminToken := token(t, database.TestAdminID, model.RoleAdmin)
	pocToken := token(t, "poc-process", model.RolePOC)
	path := "/api/v1/companies/" + company.ID.String() + "/process"

	rec, _ := testutil.MakeJSONRequest(gin.H{"is_process_completed": true}, pocToken, r, path, http.MethodPatch)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = testutil.MakeJSONRequest(gin.H{}, adminToken, r, path, http.MethodPatch)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, resp := testutil.MakeJSONRequest(gin.H{"is_process_completed": true}, adminToken, r, path, http.MethodPatch)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, resp["is_process_completed"])

	student, err := database.NewTestStudent(testDB, "Late Student")
	require.NoError(t, err)
	rec, resp = testutil.MakeJSONRequest(gin.H{"student_id": student.ID, "company_id": company.ID}, pocToken, r, "/api/v1/shortlist", http.MethodPost)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "PROCESS_FROZEN", resp["code"])

	rec, _ = testutil.MakeJSONRequest(nil, pocToken, r, "/api/v1/companies", http.MethodGet)
	require.Equal(t, http.StatusOK, rec.Code)
	var companies []model.Company
	require.NoError(t, testutil.DecodeJSON(rec, &companies))
	require.Len(t, companies, 1)
	assert.Equal(t, company.ID, companies[0].ID)
}

func TestWebsocket_ReceivesEventAfterMutation(t *testing.T) {
	_, r := newTestServer(t)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	company, err := database.NewTestCompany(testDB, "Live Co", 2, "poc-live")
	require.NoError(t, err)
	student, err := database.NewTestStudent(testDB, "Live Student")
	require.NoError(t, err)
	pocToken := token(t, "poc-live", model.RolePOC)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/ws?token=" + pocToken
	conn, err := websocket.Dial(wsURL, "", srv.URL)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	require.NoError(t, conn.SetDeadline(time.Now().Add(5*time.Second)))

	join, err := json.Marshal(map[string]string{"room": string(realtime.CompanyRoom(company.ID))})
	require.NoError(t, err)
	require.NoError(t, websocket.JSON.Send(conn, realtime.Frame{Type: "room.join", RequestID: "1", Payload: join}))

	var frame realtime.Frame
	require.NoError(t, websocket.JSON.Receive(conn, &frame))
	require.Equal(t, "room.joined", frame.Type)

	rec, _ := testutil.MakeJSONRequest(gin.H{"student_id": student.ID, "company_id": company.ID}, pocToken, r, "/api/v1/shortlist", http.MethodPost)
	require.Equal(t, http.StatusCreated, rec.Code)

	require.NoError(t, websocket.JSON.Receive(conn, &frame))
	require.Equal(t, "event", frame.Type)
	var ev realtime.Event
	require.NoError(t, json.Unmarshal(frame.Payload, &ev))
	assert.Equal(t, realtime.EventShortlistAdded, ev.Name)
	assert.Equal(t, company.ID, ev.Payload.CompanyID)
	assert.Equal(t, "Live Student", ev.Payload.StudentName)
}
