package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DoyleJ11/mlbb-draft/internal/engine"
	"github.com/DoyleJ11/mlbb-draft/internal/hub"
	"github.com/DoyleJ11/mlbb-draft/internal/lobby"
	"github.com/DoyleJ11/mlbb-draft/internal/ws"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestRouter(t *testing.T) (http.Handler, *lobby.Lobby) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	h := hub.NewHub(ctx, zap.NewNop())
	l := lobby.NewLobby(ctx, h, lobby.Options{
		Rules: engine.Rules{TurnSeconds: 30},
		Clock: clockwork.NewFakeClock(),
	})
	router := SetupRoutes(l, RouteConfig{AllowedOrigins: []string{"*"}, WS: ws.DefaultOptions()}, zap.NewNop())
	return router, l
}

func TestHealthz(t *testing.T) {
	router, _ := newTestRouter(t)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGetState_ReturnsSnapshot(t *testing.T) {
	router, l := newTestRouter(t)
	l.Inbox() <- lobby.FromClient{Role: lobby.RoleAdmin, Cmd: engine.Command{Type: engine.CmdStartDraft}}

	// The snapshot request queues behind the start command in the lobby inbox
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/state", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body stateResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.True(t, body.State.Started)
	assert.Equal(t, 1, body.Version)
	assert.True(t, body.TimerRunning)
	assert.Equal(t, 30, body.State.Timer)
	assert.NotEmpty(t, body.History)
}

func TestGetState_LobbyGone(t *testing.T) {
	router, l := newTestRouter(t)
	l.Inbox() <- lobby.Shutdown{}
	<-l.Done()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/state", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestCORS_AllowsConfiguredOrigin(t *testing.T) {
	router, _ := newTestRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Origin", "http://localhost:3000")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
