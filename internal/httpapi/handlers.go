package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/DoyleJ11/mlbb-draft/internal/engine"
	"github.com/DoyleJ11/mlbb-draft/internal/lobby"
	"go.uber.org/zap"
)

type stateResponse struct {
	Version      int            `json:"version"`
	TimerRunning bool           `json:"timerRunning"`
	State        engine.State   `json:"state"`
	History      []engine.Event `json:"history"`
}

// GetState returns the current draft snapshot for overlays and debugging.
func GetState(l *lobby.Lobby, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		view, err := l.Snapshot(ctx)
		if err != nil {
			log.Warn("state snapshot failed", zap.Error(err))
			http.Error(w, "draft unavailable", http.StatusServiceUnavailable)
			return
		}

		history := view.History
		if history == nil {
			history = []engine.Event{}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(stateResponse{
			Version:      view.Version,
			TimerRunning: view.TimerRunning,
			State:        view.State,
			History:      history,
		})
	}
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
