package simulation

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/CSroseX/bisney/internal/decisionlog"
)

func newTestAdmin(t *testing.T) (*State, *http.ServeMux, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	state := NewState()
	admin := NewAdmin(state, decisionlog.New(zap.New(core)))

	mux := http.NewServeMux()
	mux.Handle("POST /disaster", admin.LegacyToggle(ModeDisaster))
	mux.Handle("POST /ddos", admin.LegacyToggle(ModeDDoS))
	mux.HandleFunc("POST /simulation/{mode}", admin.ModeHandler)
	mux.HandleFunc("GET /simulation/status", admin.StatusHandler)
	return state, mux, logs
}

func do(t *testing.T, h http.Handler, method, target string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, body
}

func TestLegacyToggles(t *testing.T) {
	state, mux, logs := newTestAdmin(t)

	rec, body := do(t, mux, http.MethodPost, "/disaster")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, map[string]any{"disaster_mode": true}, body)
	assert.True(t, state.Degraded())

	_, body = do(t, mux, http.MethodPost, "/disaster")
	assert.Equal(t, map[string]any{"disaster_mode": false}, body)

	_, body = do(t, mux, http.MethodPost, "/ddos")
	assert.Equal(t, map[string]any{"ddos_mode": true}, body)

	toggles := logs.FilterField(zap.String("event", "disaster_mode_toggle")).All()
	require.Len(t, toggles, 2)
	assert.Equal(t, zapcore.InfoLevel, toggles[0].Level)
	ddos := logs.FilterField(zap.String("event", "ddos_mode_toggle")).All()
	require.Len(t, ddos, 1)
	assert.Equal(t, zapcore.WarnLevel, ddos[0].Level)
}

func TestModeHandler(t *testing.T) {
	state, mux, _ := newTestAdmin(t)

	rec, body := do(t, mux, http.MethodPost, "/simulation/latency")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]any{"mode": "latency", "active": true}, body)
	assert.True(t, state.Degraded())

	_, body = do(t, mux, http.MethodPost, "/simulation/ddos")
	assert.Equal(t, map[string]any{"mode": "ddos", "active": true}, body)
	assert.True(t, state.DDoS())
}

func TestModeHandlerRejectsUnknownMode(t *testing.T) {
	for _, mode := range []string{"bogus", "disaster"} {
		t.Run(mode, func(t *testing.T) {
			state, mux, _ := newTestAdmin(t)

			rec, body := do(t, mux, http.MethodPost, "/simulation/"+mode)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, body["error"], mode)
			assert.Equal(t, Snapshot{}, state.Snapshot())
			assert.Zero(t, state.Stats().Toggles)
		})
	}
}

func TestModeHandlerDuration(t *testing.T) {
	state, mux, _ := newTestAdmin(t)

	rec, _ := do(t, mux, http.MethodPost, "/simulation/ddos?duration_sec=nope")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, state.DDoS())

	rec, _ = do(t, mux, http.MethodPost, "/simulation/ddos?duration_sec=60")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, state.Snapshot().Expires, ModeDDoS)
}

func TestStatusHandler(t *testing.T) {
	state, mux, _ := newTestAdmin(t)
	_, _ = state.Toggle(ModeDDoS)
	state.RecordRequest()

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/simulation/status", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var got StatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.True(t, got.DDoSMode)
	assert.False(t, got.DisasterMode)
	assert.Equal(t, int64(1), got.Stats.TotalRequests)
	assert.Equal(t, int64(1), got.Stats.Toggles)
}

func TestWrongMethodIsRejected(t *testing.T) {
	_, mux, _ := newTestAdmin(t)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/disaster", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
