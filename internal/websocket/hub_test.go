package websocket

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitecheck-backend/internal/middleware"
	"sitecheck-backend/internal/models"
)

const testSecret = "ws-secret"

func dial(t *testing.T, server *httptest.Server, user *models.User) *websocket.Conn {
	t.Helper()
	token, err := middleware.IssueToken(testSecret, user, time.Hour)
	require.NoError(t, err)

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestBroadcastReachesCompanyAdminsOnly(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	server := httptest.NewServer(HandleWebSocket(hub, testSecret))
	defer server.Close()

	admin := &models.User{ID: "a1", Email: "boss@example.com", Role: models.RoleAdmin, CompanyID: "c1"}
	inspector := &models.User{ID: "i1", Email: "sam@example.com", Role: models.RoleInspector, CompanyID: "c1"}
	otherAdmin := &models.User{ID: "a2", Email: "else@example.com", Role: models.RoleAdmin, CompanyID: "c2"}

	adminConn := dial(t, server, admin)
	dial(t, server, inspector)
	dial(t, server, otherAdmin)

	require.Eventually(t, func() bool { return hub.GetClientCount() == 3 }, time.Second, 10*time.Millisecond)

	sent := hub.BroadcastToCompanyRole("c1", models.RoleAdmin, Event{
		Type: "inspection_submitted",
		Data: map[string]interface{}{"kind": "plant", "created": 2},
	})
	assert.Equal(t, 1, sent)

	adminConn.SetReadDeadline(time.Now().Add(time.Second))
	_, payload, err := adminConn.ReadMessage()
	require.NoError(t, err)

	var event struct {
		Type string                 `json:"type"`
		Data map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(payload, &event))
	assert.Equal(t, "inspection_submitted", event.Type)
	assert.Equal(t, "plant", event.Data["kind"])
}

func TestRejectsBadToken(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	server := httptest.NewServer(HandleWebSocket(hub, testSecret))
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws?token=bogus"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, 401, resp.StatusCode)
}

func TestDisconnectUnregisters(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	server := httptest.NewServer(HandleWebSocket(hub, testSecret))
	defer server.Close()

	conn := dial(t, server, &models.User{ID: "i1", Role: models.RoleInspector, CompanyID: "c1"})
	require.Eventually(t, func() bool { return hub.IsUserConnected("i1") }, time.Second, 10*time.Millisecond)

	conn.Close()
	assert.Eventually(t, func() bool { return !hub.IsUserConnected("i1") }, 2*time.Second, 10*time.Millisecond)
}
