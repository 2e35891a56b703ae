package api

import (
	"log/slog"
	"net/http"

	"github.com/jmoiron/sqlx"

	"github.com/erazemk/ambulanta/internal/model"
	"github.com/erazemk/ambulanta/internal/store"
)

// EquipmentHandler handles equipment endpoints.
type EquipmentHandler struct {
	DB *sqlx.DB
}

// List handles GET /api/equipment, grouped by category and subcategory
// unless ?view=flat is given.
func (h *EquipmentHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("view") == "flat" {
		items, err := store.ListEquipment(r.Context(), h.DB)
		if err != nil {
			storeError(w, err, "list equipment")
			return
		}
		if items == nil {
			items = []model.Equipment{}
		}
		jsonResponse(w, http.StatusOK, items)
		return
	}

	groups, err := store.ListEquipmentGrouped(r.Context(), h.DB)
	if err != nil {
		storeError(w, err, "list equipment")
		return
	}
	jsonResponse(w, http.StatusOK, groups)
}

// Create handles POST /api/equipment.
func (h *EquipmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req store.EquipmentFields
	if err := decodeJSON(r, &req); err != nil {
		badBody(w, err)
		return
	}

	e, err := store.CreateEquipment(r.Context(), h.DB, req, username(r))
	if err != nil {
		storeError(w, err, "create equipment")
		return
	}

	slog.Info("equipment created", "user", username(r), "id", e.ID, "name", e.Name)
	jsonResponse(w, http.StatusCreated, e)
}

// Get handles GET /api/equipment/{id}.
func (h *EquipmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	e, err := store.GetEquipment(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, err, "get equipment")
		return
	}
	if e == nil {
		jsonError(w, http.StatusNotFound, "equipment not found")
		return
	}
	jsonResponse(w, http.StatusOK, e)
}

// Update handles PUT /api/equipment/{id}.
func (h *EquipmentHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req store.EquipmentFields
	if err := decodeJSON(r, &req); err != nil {
		badBody(w, err)
		return
	}

	e, err := store.UpdateEquipment(r.Context(), h.DB, id, req, username(r))
	if err != nil {
		storeError(w, err, "update equipment")
		return
	}
	jsonResponse(w, http.StatusOK, e)
}

// Delete handles DELETE /api/equipment/{id}.
func (h *EquipmentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := store.DeleteEquipment(r.Context(), h.DB, id); err != nil {
		storeError(w, err, "delete equipment")
		return
	}

	slog.Info("equipment deleted", "user", username(r), "id", id)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "equipment deleted"})
}

// Attention handles GET /api/equipment/attention?date=DD-MM-YYYY.
func (h *EquipmentHandler) Attention(w http.ResponseWriter, r *http.Request) {
	at, ok := attentionDate(w, r)
	if !ok {
		return
	}

	items, err := store.ListEquipmentNeedingAttention(r.Context(), h.DB, at)
	if err != nil {
		storeError(w, err, "list equipment needing attention")
		return
	}
	if items == nil {
		items = []store.EquipmentAttention{}
	}
	jsonResponse(w, http.StatusOK, items)
}
