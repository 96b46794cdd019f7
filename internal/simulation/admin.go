package simulation

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/CSroseX/bisney/internal/decisionlog"
)

// ModeResponse is the body of POST /simulation/{mode}
type ModeResponse struct {
	Mode   string `json:"mode"`
	Active bool   `json:"active"`
}

// StatusResponse is the body of GET /simulation/status
type StatusResponse struct {
	Snapshot
	Stats Stats `json:"stats"`
}

// Admin serves the toggle endpoints over a State.
type Admin struct {
	state *State
	log   *decisionlog.Logger
}

func NewAdmin(state *State, log *decisionlog.Logger) *Admin {
	return &Admin{state: state, log: log}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (a *Admin) toggle(r *http.Request, mode string, ttl time.Duration) (bool, error) {
	active, err := a.state.ToggleFor(mode, ttl)
	if err != nil {
		a.log.Warn(r.Context(), decisionlog.EventInvalidMode, "Invalid simulation mode", zap.String("mode", mode))
		return false, err
	}

	level := zapcore.InfoLevel
	if mode == ModeDDoS {
		level = zapcore.WarnLevel
	}
	fields := []zap.Field{zap.Bool(mode+"_mode", active)}
	if ttl > 0 && active {
		fields = append(fields, zap.Duration("expires_in", ttl))
	}
	a.log.Log(r.Context(), level, decisionlog.ModeToggle(mode), modeTitle(mode)+" mode toggled", fields...)
	return active, nil
}

func modeTitle(mode string) string {
	if mode == ModeDDoS {
		return "DDoS"
	}
	return strings.ToUpper(mode[:1]) + mode[1:]
}

// LegacyToggle handles the single-purpose POST /disaster and POST /ddos
// routes, answering {"<mode>_mode": bool}.
func (a *Admin) LegacyToggle(mode string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		active, err := a.toggle(r, mode, 0)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{mode + "_mode": active})
	}
}

// ModeHandler handles POST /simulation/{mode}. An optional duration_sec query
// parameter makes an activation revert on its own.
func (a *Admin) ModeHandler(w http.ResponseWriter, r *http.Request) {
	mode := r.PathValue("mode")
	if mode != ModeDDoS && mode != ModeLatency {
		a.log.Warn(r.Context(), decisionlog.EventInvalidMode, "Invalid simulation mode", zap.String("mode", mode))
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid mode: " + mode})
		return
	}

	var ttl time.Duration
	if raw := r.URL.Query().Get("duration_sec"); raw != "" {
		secs, err := strconv.Atoi(raw)
		if err != nil || secs < 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid duration_sec"})
			return
		}
		ttl = time.Duration(secs) * time.Second
	}

	active, err := a.toggle(r, mode, ttl)
	if errors.Is(err, ErrInvalidMode) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid mode: " + mode})
		return
	}
	writeJSON(w, http.StatusOK, ModeResponse{Mode: mode, Active: active})
}

// StatusHandler handles GET /simulation/status to inspect current state
func (a *Admin) StatusHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, StatusResponse{
		Snapshot: a.state.Snapshot(),
		Stats:    a.state.Stats(),
	})
}
