package api

import (
	"log/slog"
	"net/http"

	"github.com/jmoiron/sqlx"

	"github.com/erazemk/ambulanta/internal/store"
)

// StatusHandler exposes the status engine.
type StatusHandler struct {
	DB *sqlx.DB
}

// Get handles GET /api/status.
func (h *StatusHandler) Get(w http.ResponseWriter, r *http.Request) {
	s, err := store.GetSummary(r.Context(), h.DB)
	if err != nil {
		storeError(w, err, "get status")
		return
	}
	jsonResponse(w, http.StatusOK, s)
}

// Recompute handles POST /api/status/recompute.
func (h *StatusHandler) Recompute(w http.ResponseWriter, r *http.Request) {
	changed, err := store.RecomputeAll(r.Context(), h.DB)
	if err != nil {
		storeError(w, err, "recompute statuses")
		return
	}

	slog.Info("statuses recomputed", "user", username(r), "changed", changed)
	jsonResponse(w, http.StatusOK, map[string]int{"changed": changed})
}
