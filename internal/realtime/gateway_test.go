package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/websocket"

	"live-placement-backend/internal/model"
)

func startGateway(t *testing.T, hub *Hub, principal Principal, scope CompanyScope) *websocket.Conn {
	t.Helper()
	gateway := NewGateway(hub, 8, nil, scope)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gateway.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
	}))
	t.Cleanup(srv.Close)

	conn, err := websocket.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), "", srv.URL)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	require.NoError(t, conn.SetDeadline(time.Now().Add(5*time.Second)))
	return conn
}

func send(t *testing.T, conn *websocket.Conn, frameType, requestID string, payload any) {
	t.Helper()
	frame := Frame{Type: frameType, RequestID: requestID}
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		frame.Payload = raw
	}
	require.NoError(t, websocket.JSON.Send(conn, frame))
}

func receive(t *testing.T, conn *websocket.Conn) Frame {
	t.Helper()
	var frame Frame
	require.NoError(t, websocket.JSON.Receive(conn, &frame))
	return frame
}

func TestGateway_JoinThenReceiveEvent(t *testing.T) {
	hub := NewHub()
	companyID := uuid.New()
	conn := startGateway(t, hub, Principal{UserID: "poc-1", Role: model.RolePOC, CompanyIDs: []uuid.UUID{companyID}}, nil)

	send(t, conn, "room.join", "r1", roomPayload{Room: string(CompanyRoom(companyID))})
	joined := receive(t, conn)
	assert.Equal(t, "room.joined", joined.Type)
	assert.Equal(t, "r1", joined.RequestID)

	var payload joinedPayload
	require.NoError(t, json.Unmarshal(joined.Payload, &payload))
	assert.True(t, payload.Resync)
	assert.Equal(t, string(CompanyRoom(companyID)), payload.Room)

	assert.Equal(t, 1, hub.Publish(Event{
		Name:    EventShortlistUpdate,
		Rooms:   []Room{CompanyRoom(companyID)},
		Payload: Payload{CompanyID: companyID, Stage: "R2"},
	}))

	frame := receive(t, conn)
	require.Equal(t, "event", frame.Type)
	var ev Event
	require.NoError(t, json.Unmarshal(frame.Payload, &ev))
	assert.Equal(t, EventShortlistUpdate, ev.Name)
	assert.Equal(t, "R2", ev.Payload.Stage)
}

func TestGateway_DeniesForeignRoom(t *testing.T) {
	hub := NewHub()
	conn := startGateway(t, hub, Principal{UserID: "poc-1", Role: model.RolePOC}, nil)

	send(t, conn, "room.join", "r1", roomPayload{Room: string(CompanyRoom(uuid.New()))})
	frame := receive(t, conn)
	assert.Equal(t, "error", frame.Type)

	var payload errorPayload
	require.NoError(t, json.Unmarshal(frame.Payload, &payload))
	assert.Equal(t, "FORBIDDEN", payload.Code)
	assert.Equal(t, 0, hub.Members(AdminRoom))
}

func TestGateway_PingAndLeave(t *testing.T) {
	hub := NewHub()
	conn := startGateway(t, hub, Principal{UserID: "admin", Role: model.RoleAdmin}, nil)

	send(t, conn, "ping", "p1", nil)
	assert.Equal(t, "pong", receive(t, conn).Type)

	send(t, conn, "room.join", "r1", roomPayload{Room: string(AdminRoom)})
	require.Equal(t, "room.joined", receive(t, conn).Type)
	assert.Equal(t, 1, hub.Members(AdminRoom))

	send(t, conn, "room.leave", "r2", roomPayload{Room: string(AdminRoom)})
	assert.Equal(t, "room.left", receive(t, conn).Type)
	assert.Equal(t, 0, hub.Members(AdminRoom))

	send(t, conn, "room.dance", "r3", nil)
	assert.Equal(t, "error", receive(t, conn).Type)
}

func TestGateway_RequiresPrincipal(t *testing.T) {
	rec := httptest.NewRecorder()
	NewGateway(NewHub(), 8, nil, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ws", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGateway_JoinUsesCurrentCompanyScope(t *testing.T) {
	removed := uuid.New()
	assigned := uuid.New()
	scope := func(_ context.Context, userID string) ([]uuid.UUID, error) {
		assert.Equal(t, "poc-1", userID)
		return []uuid.UUID{assigned}, nil
	}
	hub := NewHub()
	conn := startGateway(t, hub, Principal{UserID: "poc-1", Role: model.RolePOC, CompanyIDs: []uuid.UUID{removed}}, scope)

	send(t, conn, "room.join", "r1", roomPayload{Room: string(CompanyRoom(removed))})
	frame := receive(t, conn)
	require.Equal(t, "error", frame.Type)
	var payload errorPayload
	require.NoError(t, json.Unmarshal(frame.Payload, &payload))
	assert.Equal(t, "FORBIDDEN", payload.Code)
	assert.Equal(t, 0, hub.Members(CompanyRoom(removed)))

	send(t, conn, "room.join", "r2", roomPayload{Room: string(CompanyRoom(assigned))})
	assert.Equal(t, "room.joined", receive(t, conn).Type)
	assert.Equal(t, 1, hub.Members(CompanyRoom(assigned)))
}

func TestGateway_ScopeFailureRefusesJoin(t *testing.T) {
	companyID := uuid.New()
	scope := func(context.Context, string) ([]uuid.UUID, error) {
		return nil, errors.New("db down")
	}
	hub := NewHub()
	conn := startGateway(t, hub, Principal{UserID: "poc-1", Role: model.RolePOC, CompanyIDs: []uuid.UUID{companyID}}, scope)

	send(t, conn, "room.join", "r1", roomPayload{Room: string(CompanyRoom(companyID))})
	frame := receive(t, conn)
	require.Equal(t, "error", frame.Type)
	var payload errorPayload
	require.NoError(t, json.Unmarshal(frame.Payload, &payload))
	assert.Equal(t, "INTERNAL", payload.Code)
	assert.Equal(t, 0, hub.Members(CompanyRoom(companyID)))

	send(t, conn, "room.join", "r2", roomPayload{Room: string(POCRoom)})
	assert.Equal(t, "room.joined", receive(t, conn).Type)
}
