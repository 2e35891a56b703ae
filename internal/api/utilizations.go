package api

import (
	"log/slog"
	"net/http"

	"github.com/jmoiron/sqlx"

	"github.com/erazemk/ambulanta/internal/model"
	"github.com/erazemk/ambulanta/internal/store"
)

// UtilizationsHandler handles utilization (disposal) endpoints.
type UtilizationsHandler struct {
	DB            *sqlx.DB
	ExportCharset string
}

// List handles GET /api/utilizations.
func (h *UtilizationsHandler) List(w http.ResponseWriter, r *http.Request) {
	utilizations, err := store.ListUtilizations(r.Context(), h.DB)
	if err != nil {
		storeError(w, err, "list utilizations")
		return
	}
	if utilizations == nil {
		utilizations = []model.Utilization{}
	}
	jsonResponse(w, http.StatusOK, utilizations)
}

// Create handles POST /api/utilizations.
func (h *UtilizationsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if err := decodeJSON(r, &req); err != nil {
		badBody(w, err)
		return
	}

	u, err := store.CreateUtilization(r.Context(), h.DB, req.Name)
	if err != nil {
		storeError(w, err, "create utilization")
		return
	}

	slog.Info("utilization created", "user", username(r), "id", u.ID, "name", u.Name)
	jsonResponse(w, http.StatusCreated, u)
}

// Get handles GET /api/utilizations/{id}.
func (h *UtilizationsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	u, err := store.GetUtilization(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, err, "get utilization")
		return
	}
	if u == nil {
		jsonError(w, http.StatusNotFound, "utilization not found")
		return
	}
	if u.Lines == nil {
		u.Lines = []model.UtilizationLine{}
	}
	jsonResponse(w, http.StatusOK, u)
}

// Delete handles DELETE /api/utilizations/{id}.
func (h *UtilizationsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := store.DeleteUtilization(r.Context(), h.DB, id); err != nil {
		storeError(w, err, "delete utilization")
		return
	}

	slog.Info("utilization deleted", "user", username(r), "id", id)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "utilization deleted"})
}

// SetStatus handles PUT /api/utilizations/{id}/status.
func (h *UtilizationsHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req statusRequest
	if err := decodeJSON(r, &req); err != nil {
		badBody(w, err)
		return
	}

	u, err := store.SetUtilizationStatus(r.Context(), h.DB, id, req.Status)
	if err != nil {
		storeError(w, err, "change utilization status")
		return
	}

	slog.Info("utilization status changed", "user", username(r), "id", id, "status", u.Status)
	jsonResponse(w, http.StatusOK, u)
}

// AddLine handles POST /api/utilizations/{id}/lines.
func (h *UtilizationsHandler) AddLine(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req store.LineFields
	if err := decodeJSON(r, &req); err != nil {
		badBody(w, err)
		return
	}

	line, err := store.AddUtilizationLine(r.Context(), h.DB, id, req)
	if err != nil {
		storeError(w, err, "add utilization line")
		return
	}
	jsonResponse(w, http.StatusCreated, line)
}

// UpdateLine handles PUT /api/utilizations/{id}/lines/{lineID}.
func (h *UtilizationsHandler) UpdateLine(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	lineID, ok := pathID(w, r, "lineID")
	if !ok {
		return
	}

	var req store.LineFields
	if err := decodeJSON(r, &req); err != nil {
		badBody(w, err)
		return
	}

	line, err := store.UpdateUtilizationLine(r.Context(), h.DB, id, lineID, req)
	if err != nil {
		storeError(w, err, "update utilization line")
		return
	}
	jsonResponse(w, http.StatusOK, line)
}

// DeleteLine handles DELETE /api/utilizations/{id}/lines/{lineID}.
func (h *UtilizationsHandler) DeleteLine(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	lineID, ok := pathID(w, r, "lineID")
	if !ok {
		return
	}

	if err := store.DeleteUtilizationLine(r.Context(), h.DB, id, lineID); err != nil {
		storeError(w, err, "delete utilization line")
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "utilization line deleted"})
}

// Report handles GET /api/utilizations/{id}/report.
func (h *UtilizationsHandler) Report(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	rep, err := store.UtilizationReport(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, err, "build utilization report")
		return
	}
	if rep == nil {
		jsonError(w, http.StatusNotFound, "utilization not found")
		return
	}
	writeReport(w, r, rep, h.ExportCharset)
}
