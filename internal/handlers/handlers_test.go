package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/inote-dev/inote/internal/auth"
	"github.com/inote-dev/inote/internal/config"
	"github.com/inote-dev/inote/internal/content"
	"github.com/inote-dev/inote/internal/groups"
	"github.com/inote-dev/inote/internal/handlers"
	"github.com/inote-dev/inote/internal/identity"
	"github.com/inote-dev/inote/internal/realtime"
	"github.com/inote-dev/inote/internal/router"
	"github.com/inote-dev/inote/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testServer struct {
	t      *testing.T
	engine *gin.Engine
}

func newTestServer(t *testing.T, publicReads bool) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	require.NoError(t, auth.InitJWTSecret("test-secret"))

	gdb := testutil.NewDB(t)
	identitySvc := identity.NewService(gdb, time.Hour)
	h := &handlers.Handler{
		Identity: identitySvc,
		Groups:   groups.NewService(gdb),
		Notes:    content.NewMemoryNoteStore(),
		Tasks:    content.NewMemoryTaskStore(),
		Hub:      realtime.NewHub([]string{"http://localhost:5173"}, zap.NewNop()),
		Log:      zap.NewNop(),
	}

	cfg := config.Config{
		AllowedOrigins:     []string{"http://localhost:5173"},
		PublicContentReads: publicReads,
	}

	return &testServer{t: t, engine: router.NewRouter(cfg, h, identitySvc, zap.NewNop())}
}

func (s *testServer) do(method, path, token string, body interface{}) (int, map[string]interface{}) {
	s.t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(s.t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)

	var out map[string]interface{}
	if rec.Body.Len() > 0 && strings.HasPrefix(strings.TrimSpace(rec.Body.String()), "{") {
		require.NoError(s.t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return rec.Code, out
}

func (s *testServer) register(name string) (string, string) {
	s.t.Helper()

	status, body := s.do(http.MethodPost, "/api/user/register", "", gin.H{
		"name":                  name,
		"email":                 name + "@example.com",
		"password":              "password123",
		"password_confirmation": "password123",
	})
	require.Equal(s.t, http.StatusCreated, status, body)

	user := body["user"].(map[string]interface{})
	return body["token"].(string), fmt.Sprint(user["id"])
}

func memberNames(group map[string]interface{}) []string {
	names := []string{}
	for _, m := range group["members"].([]interface{}) {
		names = append(names, m.(map[string]interface{})["username"].(string))
	}
	return names
}

func TestScenario_GroupLifecycle(t *testing.T) {
	s := newTestServer(t, true)
	aliceToken, _ := s.register("alice")
	bobToken, bobID := s.register("bob")

	status, body := s.do(http.MethodPost, "/api/groups", aliceToken, gin.H{"name": "G", "entry_code": "ABC123"})
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "Group created", body["message"])
	group := body["group"].(map[string]interface{})
	groupID := group["id"].(string)
	assert.Equal(t, "alice", group["leader"])
	assert.Equal(t, []string{"alice"}, memberNames(group))

	status, body = s.do(http.MethodPost, "/api/groups/join", bobToken, gin.H{"name": "G", "entry_code": "ABC123"})
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "Joined group", body["message"])
	assert.ElementsMatch(t, []string{"alice", "bob"}, memberNames(body["group"].(map[string]interface{})))

	status, body = s.do(http.MethodPost, "/api/notes", aliceToken, gin.H{"title": "Plan", "note": "x", "category": "G"})
	require.Equal(t, http.StatusCreated, status, body)

	// kick_member_id is accepted as a string.
	status, body = s.do(http.MethodPut, "/api/groups/"+groupID, aliceToken, gin.H{"kick_member_id": bobID})
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, []string{"alice"}, memberNames(body["group"].(map[string]interface{})))

	status, body = s.do(http.MethodGet, "/api/my-groups", bobToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, body["groups"])

	status, body = s.do(http.MethodDelete, "/api/groups/"+groupID, aliceToken, nil)
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "Group and related notes/tasks deleted", body["message"])
	assert.Empty(t, body["groups"])

	status, _ = s.do(http.MethodGet, "/api/groups/"+groupID, aliceToken, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestGroups_NonLeaderIsForbidden(t *testing.T) {
	s := newTestServer(t, true)
	aliceToken, _ := s.register("alice")
	bobToken, _ := s.register("bob")

	_, body := s.do(http.MethodPost, "/api/groups", aliceToken, gin.H{"name": "G", "entry_code": "ABC123"})
	groupID := body["group"].(map[string]interface{})["id"].(string)

	status, body := s.do(http.MethodPut, "/api/groups/"+groupID, bobToken, gin.H{"name": "Mine"})
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "Unauthorized", body["message"])

	status, _ = s.do(http.MethodDelete, "/api/groups/"+groupID, bobToken, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, body = s.do(http.MethodPost, "/api/groups/"+groupID+"/leave", aliceToken, nil)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Contains(t, body["message"], "Leader cannot leave")

	status, body = s.do(http.MethodGet, "/api/groups/"+groupID, bobToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "G", body["name"])
}

func TestGroups_NonLeaderForbiddenBeforeValidation(t *testing.T) {
	s := newTestServer(t, true)
	aliceToken, _ := s.register("alice")
	bobToken, _ := s.register("bob")

	_, body := s.do(http.MethodPost, "/api/groups", aliceToken, gin.H{"name": "G", "entry_code": "ABC123"})
	groupID := body["group"].(map[string]interface{})["id"].(string)

	payloads := map[string]interface{}{
		"oversized name":  gin.H{"name": strings.Repeat("x", 300)},
		"bad kick id":     gin.H{"kick_member_id": "abc"},
		"wrong name type": `{"name": 5}`,
		"malformed json":  `{not json`,
	}

	for name, payload := range payloads {
		t.Run(name, func(t *testing.T) {
			status, body := s.do(http.MethodPut, "/api/groups/"+groupID, bobToken, payload)
			assert.Equal(t, http.StatusForbidden, status)
			assert.Equal(t, "Unauthorized", body["message"])
			assert.NotContains(t, body, "errors")
		})
	}

	// The leader still gets field errors, and a missing group is reported first.
	status, _ := s.do(http.MethodPut, "/api/groups/"+groupID, aliceToken, gin.H{"name": strings.Repeat("x", 300)})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	status, _ = s.do(http.MethodPut, "/api/groups/999", bobToken, `{not json`)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestGroups_JoinAndConflict(t *testing.T) {
	s := newTestServer(t, true)
	aliceToken, _ := s.register("alice")
	bobToken, _ := s.register("bob")

	_, body := s.do(http.MethodPost, "/api/groups", aliceToken, gin.H{"name": "G", "entry_code": "ABC123"})
	groupID := body["group"].(map[string]interface{})["id"].(string)

	status, body := s.do(http.MethodPost, "/api/groups", bobToken, gin.H{"name": "G", "entry_code": "OTHER"})
	assert.Equal(t, http.StatusConflict, status)
	assert.Contains(t, body["errors"], "name")

	status, body = s.do(http.MethodPost, "/api/groups/join", bobToken, gin.H{"group_id": groupID, "entry_code": "WRONG"})
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Group not found or entry code incorrect", body["message"])

	status, _ = s.do(http.MethodPost, "/api/groups/join", bobToken, gin.H{"entry_code": "ABC123"})
	assert.Equal(t, http.StatusUnprocessableEntity, status)

	status, _ = s.do(http.MethodPost, "/api/groups/join", bobToken, gin.H{"group_id": "abc", "entry_code": "ABC123"})
	assert.Equal(t, http.StatusUnprocessableEntity, status)

	for i := 0; i < 2; i++ {
		status, body = s.do(http.MethodPost, "/api/groups/join", bobToken, `{"group_id": `+groupID+`, "entry_code": "ABC123"}`)
		require.Equal(t, http.StatusOK, status, body)
	}
	assert.Len(t, memberNames(body["group"].(map[string]interface{})), 2)

	status, body = s.do(http.MethodGet, "/api/groups", bobToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Nil(t, body, "index returns a bare array")
}

func TestUser_AuthFlow(t *testing.T) {
	s := newTestServer(t, true)

	status, body := s.do(http.MethodPost, "/api/user/register", "", gin.H{
		"name": "alice", "email": "not-an-email", "password": "short", "password_confirmation": "short",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	errs := body["errors"].(map[string]interface{})
	assert.Contains(t, errs, "email")
	assert.Contains(t, errs, "password")

	token, _ := s.register("alice")

	status, _ = s.do(http.MethodPost, "/api/user/register", "", gin.H{
		"name": "alice", "email": "other@example.com", "password": "password123", "password_confirmation": "password123",
	})
	assert.Equal(t, http.StatusConflict, status)

	status, body = s.do(http.MethodPost, "/api/user/login", "", gin.H{"name": "alice", "password": "wrongpassword"})
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "These credentials do not match our records.", body["message"])

	status, body = s.do(http.MethodPost, "/api/user/login", "", gin.H{"name": "alice", "password": "password123"})
	require.Equal(t, http.StatusCreated, status)
	assert.NotEmpty(t, body["token"])

	status, body = s.do(http.MethodGet, "/api/user", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "alice", body["name"])
	assert.NotContains(t, body, "password_hash")

	status, body = s.do(http.MethodPut, "/api/user/edit", token, gin.H{"name": "alicia"})
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "alicia", body["user"].(map[string]interface{})["name"])

	status, _ = s.do(http.MethodPost, "/api/user/logout", token, nil)
	require.Equal(t, http.StatusOK, status)

	status, body = s.do(http.MethodGet, "/api/user", token, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Unauthenticated.", body["message"])
}

func TestUser_Delete(t *testing.T) {
	s := newTestServer(t, true)
	token, _ := s.register("alice")

	status, _ := s.do(http.MethodPost, "/api/groups", token, gin.H{"name": "G", "entry_code": "ABC123"})
	require.Equal(t, http.StatusOK, status)

	status, body := s.do(http.MethodDelete, "/api/user/delete", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "User account and related data deleted successfully.", body["message"])

	status, _ = s.do(http.MethodGet, "/api/groups", token, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestNotes_Envelope(t *testing.T) {
	s := newTestServer(t, true)
	token, _ := s.register("alice")
	bobToken, _ := s.register("bob")

	status, _ := s.do(http.MethodPost, "/api/notes", "", gin.H{"title": "a", "note": "b", "category": "c"})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body := s.do(http.MethodPost, "/api/notes", token, gin.H{"title": "a"})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Contains(t, body["errors"], "note")
	assert.Contains(t, body["errors"], "category")

	status, body = s.do(http.MethodPost, "/api/notes", token, gin.H{"title": "Groceries", "note": "milk", "category": "Home"})
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, true, body["success"])
	note := body["data"].(map[string]interface{})
	assert.Equal(t, "alice", note["by"])
	id := fmt.Sprint(note["id"])

	status, body = s.do(http.MethodPut, "/api/notes/"+id, bobToken, gin.H{"title": "Shopping"})
	require.Equal(t, http.StatusCreated, status)
	note = body["data"].(map[string]interface{})
	assert.Equal(t, "bob", note["by"])
	assert.Equal(t, "Shopping", note["title"])
	assert.Equal(t, "milk", note["note"])

	status, body = s.do(http.MethodGet, "/api/notes", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["data"], 1)

	status, _ = s.do(http.MethodDelete, "/api/notes/"+id, token, nil)
	assert.Equal(t, http.StatusAccepted, status)

	status, _ = s.do(http.MethodGet, "/api/notes/"+id, "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	status, _ = s.do(http.MethodDelete, "/api/notes/"+id, token, nil)
	assert.Equal(t, http.StatusNotFound, status)
	status, _ = s.do(http.MethodGet, "/api/notes/abc", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestTasks_Items(t *testing.T) {
	s := newTestServer(t, true)
	token, _ := s.register("alice")

	status, body := s.do(http.MethodPost, "/api/tasks", token, gin.H{"title": "Launch", "category": "Work", "task_items": "nope"})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Contains(t, body["errors"], "task_items")

	status, body = s.do(http.MethodPost, "/api/tasks", token, gin.H{
		"title":      "Launch",
		"category":   "Work",
		"task_items": []interface{}{gin.H{"item": "Write docs", "done": false}, "plain"},
	})
	require.Equal(t, http.StatusCreated, status, body)
	task := body["data"].(map[string]interface{})
	assert.Len(t, task["task_items"], 2)
	id := fmt.Sprint(task["id"])

	status, body = s.do(http.MethodPut, "/api/tasks/"+id, token, gin.H{"title": "Ship"})
	require.Equal(t, http.StatusCreated, status)
	task = body["data"].(map[string]interface{})
	assert.Equal(t, "Ship", task["title"])
	assert.Len(t, task["task_items"], 2)

	status, body = s.do(http.MethodPut, "/api/tasks/"+id, token, gin.H{"task_items": []interface{}{}})
	require.Equal(t, http.StatusCreated, status)
	assert.Empty(t, body["data"].(map[string]interface{})["task_items"])

	status, _ = s.do(http.MethodDelete, "/api/tasks/"+id, token, nil)
	assert.Equal(t, http.StatusAccepted, status)
}

func TestContent_PrivateReads(t *testing.T) {
	s := newTestServer(t, false)
	token, _ := s.register("alice")

	status, _ := s.do(http.MethodGet, "/api/notes", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	status, _ = s.do(http.MethodGet, "/api/tasks", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = s.do(http.MethodGet, "/api/notes", token, nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestMalformedBody(t *testing.T) {
	s := newTestServer(t, true)
	token, _ := s.register("alice")

	status, body := s.do(http.MethodPost, "/api/groups", token, `{"name":`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Invalid request", body["message"])
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, true)

	status, body := s.do(http.MethodGet, "/api/health", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "inote is running", body["message"])
}

func TestGroupWebSocket(t *testing.T) {
	s := newTestServer(t, true)
	aliceToken, _ := s.register("alice")
	bobToken, bobID := s.register("bob")
	carolToken, _ := s.register("carol")

	_, body := s.do(http.MethodPost, "/api/groups", aliceToken, gin.H{"name": "G", "entry_code": "ABC123"})
	groupID := body["group"].(map[string]interface{})["id"].(string)

	srv := httptest.NewServer(s.engine)
	defer srv.Close()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/groups/" + groupID + "/ws?token="

	_, resp, err := websocket.DefaultDialer.Dial(wsURL+carolToken, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL+aliceToken, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var event realtime.Event
	require.NoError(t, conn.ReadJSON(&event))
	assert.Equal(t, "connected", event.Type)

	status, _ := s.do(http.MethodPost, "/api/groups/join", bobToken, gin.H{"name": "G", "entry_code": "ABC123"})
	require.Equal(t, http.StatusOK, status)

	require.NoError(t, conn.ReadJSON(&event))
	assert.Equal(t, "refresh", event.Type)
	assert.Equal(t, groupID, event.GroupID)
	assert.Equal(t, realtime.ReasonMembersChanged, event.Reason)

	bobConn, _, err := websocket.DefaultDialer.Dial(wsURL+bobToken, nil)
	require.NoError(t, err)
	defer bobConn.Close()
	require.NoError(t, bobConn.SetReadDeadline(time.Now().Add(5*time.Second)))
	require.NoError(t, bobConn.ReadJSON(&event))

	// A kicked member loses the channel; the leader is told to refresh.
	status, _ = s.do(http.MethodPut, "/api/groups/"+groupID, aliceToken, gin.H{"kick_member_id": bobID})
	require.Equal(t, http.StatusOK, status)

	_, _, err = bobConn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)

	require.NoError(t, conn.ReadJSON(&event))
	assert.Equal(t, "refresh", event.Type)
	assert.Equal(t, realtime.ReasonMembersChanged, event.Reason)
}
