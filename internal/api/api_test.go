package api_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IsbatBInHossain/chess-game-server/internal/api"
	"github.com/IsbatBInHossain/chess-game-server/internal/api/apierr"
	"github.com/IsbatBInHossain/chess-game-server/internal/api/response"
	"github.com/IsbatBInHossain/chess-game-server/internal/factory"
	"github.com/IsbatBInHossain/chess-game-server/internal/model"
)

// testServer wraps the router with the test application behind it
type testServer struct {
	handler http.Handler
	app     *factory.TestApp
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	app := factory.NewTestApp()

	router := api.NewRouter(api.RouterConfig{
		Logger:         logger,
		AuthService:    app.AuthService,
		GameController: app.GameController,
		GameStore:      app.Games,
		WebSocket:      app.WebSocket,
	})

	return &testServer{handler: router, app: app}
}

func (ts *testServer) request(method, path string, body any, token string) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		b, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(b)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v))
	return v
}

func errorCode(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[apierr.ErrorResponse](t, rr).Error.Code
}

func register(t *testing.T, ts *testServer, username string) response.AuthResponse {
	t.Helper()
	body := map[string]string{"username": username, "password": "secret123"}
	rr := ts.request(http.MethodPost, "/api/v1/players/register", body, "")
	require.Equal(t, http.StatusCreated, rr.Code)
	return decode[response.AuthResponse](t, rr)
}

func TestHealthCheck(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/v1/health", nil, "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "ok")
}

func TestCreateGuest(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodPost, "/api/v1/players/guest", nil, "")
	assert.Equal(t, http.StatusCreated, rr.Code)

	resp := decode[response.AuthResponse](t, rr)
	assert.True(t, resp.Principal.IsGuest)
	assert.Equal(t, "guest", resp.Principal.Tier)
	assert.True(t, strings.HasPrefix(resp.Principal.ID, "guest-"))
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "Bearer "+resp.Token, rr.Header().Get("Authorization"))
	assert.Equal(t, "no-store", rr.Header().Get("Cache-Control"))
	assert.True(t, resp.ExpiresAt.After(ts.app.MockClock.Now()))
}

func TestRegisterAndLogin(t *testing.T) {
	ts := newTestServer(t)

	registered := register(t, ts, "alice")
	assert.False(t, registered.Principal.IsGuest)
	assert.Equal(t, "alice", registered.Principal.Username)

	loginBody := map[string]string{"username": "alice", "password": "secret123"}
	rr := ts.request(http.MethodPost, "/api/v1/players/login", loginBody, "")
	assert.Equal(t, http.StatusOK, rr.Code)

	loggedIn := decode[response.AuthResponse](t, rr)
	assert.Equal(t, registered.Principal.ID, loggedIn.Principal.ID)
	assert.Equal(t, "Bearer "+loggedIn.Token, rr.Header().Get("Authorization"))
}

func TestRegisterErrors(t *testing.T) {
	ts := newTestServer(t)
	register(t, ts, "alice")

	tests := []struct {
		name   string
		body   any
		status int
		code   string
	}{
		{"duplicate username", map[string]string{"username": "alice", "password": "secret123"}, http.StatusConflict, apierr.CodeUsernameExists},
		{"missing username", map[string]string{"password": "secret123"}, http.StatusBadRequest, apierr.CodeInvalidRequest},
		{"missing password", map[string]string{"username": "bob"}, http.StatusBadRequest, apierr.CodeInvalidRequest},
		{"short password", map[string]string{"username": "bob", "password": "abc"}, http.StatusBadRequest, apierr.CodeInvalidPassword},
		{"bad username", map[string]string{"username": "b o b", "password": "secret123"}, http.StatusBadRequest, apierr.CodeInvalidUsername},
		{"malformed body", "not an object", http.StatusBadRequest, apierr.CodeInvalidRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := ts.request(http.MethodPost, "/api/v1/players/register", tt.body, "")
			assert.Equal(t, tt.status, rr.Code)
			assert.Equal(t, tt.code, errorCode(t, rr))
		})
	}
}

func TestLoginWrongPassword(t *testing.T) {
	ts := newTestServer(t)
	register(t, ts, "alice")

	body := map[string]string{"username": "alice", "password": "wrong-password"}
	rr := ts.request(http.MethodPost, "/api/v1/players/login", body, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, apierr.CodeInvalidCredentials, errorCode(t, rr))
}

func TestGetMe(t *testing.T) {
	ts := newTestServer(t)
	alice := register(t, ts, "alice")

	rr := ts.request(http.MethodGet, "/api/v1/players/me", nil, alice.Token)
	assert.Equal(t, http.StatusOK, rr.Code)

	me := decode[response.Principal](t, rr)
	assert.Equal(t, alice.Principal.ID, me.ID)
	assert.Equal(t, "alice", me.Username)
}

func TestUnauthorized(t *testing.T) {
	ts := newTestServer(t)

	for _, path := range []string{"/api/v1/players/me", "/api/v1/players/me/games", "/api/v1/sessions/1"} {
		rr := ts.request(http.MethodGet, path, nil, "")
		assert.Equal(t, http.StatusUnauthorized, rr.Code, path)

		rr = ts.request(http.MethodGet, path, nil, "forged-token")
		assert.Equal(t, http.StatusUnauthorized, rr.Code, path)
	}
}

func TestGameHistory(t *testing.T) {
	ts := newTestServer(t)
	ctx := t.Context()
	alice := register(t, ts, "alice")
	bob := register(t, ts, "bob")

	mm := ts.app.Matchmaking
	require.NoError(t, mm.Enqueue(ctx, model.PrincipalID(alice.Principal.ID), model.TierRegistered))
	require.NoError(t, mm.Enqueue(ctx, model.PrincipalID(bob.Principal.ID), model.TierRegistered))
	rec, err := mm.AttemptPair(ctx, model.TierRegistered)
	require.NoError(t, err)
	require.NotNil(t, rec)

	require.NoError(t, ts.app.GameController.Terminate(ctx, rec.White, rec.ID, model.ReasonResignation))

	rr := ts.request(http.MethodGet, "/api/v1/players/me/games", nil, alice.Token)
	require.Equal(t, http.StatusOK, rr.Code)
	list := decode[response.GameList](t, rr)
	require.Len(t, list.Games, 1)
	assert.Equal(t, rec.GameID, list.Games[0].ID)
	assert.Equal(t, "0-1", list.Games[0].Result)
	assert.NotNil(t, list.Games[0].FinishedAt)

	rr = ts.request(http.MethodGet, "/api/v1/players/me/games?limit=0", nil, alice.Token)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestGuestHistoryIsEmpty(t *testing.T) {
	ts := newTestServer(t)
	rr := ts.request(http.MethodPost, "/api/v1/players/guest", nil, "")
	guest := decode[response.AuthResponse](t, rr)

	rr = ts.request(http.MethodGet, "/api/v1/players/me/games", nil, guest.Token)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, decode[response.GameList](t, rr).Games)
}

func TestSessionSnapshot(t *testing.T) {
	ts := newTestServer(t)
	ctx := t.Context()
	alice := register(t, ts, "alice")
	bob := register(t, ts, "bob")
	carol := register(t, ts, "carol")

	mm := ts.app.Matchmaking
	require.NoError(t, mm.Enqueue(ctx, model.PrincipalID(alice.Principal.ID), model.TierRegistered))
	require.NoError(t, mm.Enqueue(ctx, model.PrincipalID(bob.Principal.ID), model.TierRegistered))
	rec, err := mm.AttemptPair(ctx, model.TierRegistered)
	require.NoError(t, err)
	require.NotNil(t, rec)
	path := "/api/v1/sessions/" + string(rec.ID)

	rr := ts.request(http.MethodGet, path, nil, alice.Token)
	require.Equal(t, http.StatusOK, rr.Code)
	snap := decode[response.Session](t, rr)
	assert.Equal(t, string(rec.ID), snap.ID)
	assert.Equal(t, "active", snap.State)
	assert.Equal(t, "w", snap.Turn)
	assert.Empty(t, snap.Moves)

	rr = ts.request(http.MethodGet, path, nil, carol.Token)
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, apierr.CodeNotAParticipant, errorCode(t, rr))

	rr = ts.request(http.MethodGet, "/api/v1/sessions/999", nil, alice.Token)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, apierr.CodeSessionNotFound, errorCode(t, rr))

	// Once terminated the session is no longer served
	require.NoError(t, ts.app.GameController.Terminate(ctx, model.PrincipalID(alice.Principal.ID), rec.ID, model.ReasonResignation))
	rr = ts.request(http.MethodGet, path, nil, alice.Token)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestWebSocketRoute(t *testing.T) {
	ts := newTestServer(t)
	server := httptest.NewServer(ts.handler)
	defer server.Close()

	rr := ts.request(http.MethodPost, "/api/v1/players/guest", nil, "")
	guest := decode[response.AuthResponse](t, rr)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(map[string]string{"type": "auth", "token": guest.Token}))
	var ev map[string]any
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, "auth_success", ev["type"])
	assert.Equal(t, guest.Principal.ID, ev["principalId"])
}
