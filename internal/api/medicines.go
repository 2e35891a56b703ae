package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/erazemk/ambulanta/internal/dates"
	"github.com/erazemk/ambulanta/internal/model"
	"github.com/erazemk/ambulanta/internal/store"
)

// MedicinesHandler handles medicine endpoints.
type MedicinesHandler struct {
	DB *sqlx.DB
}

// List handles GET /api/medicines. Medicines are grouped by category,
// subcategory and sub-subcategory unless ?view=flat is given.
func (h *MedicinesHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("view") == "flat" {
		medicines, err := store.ListMedicines(r.Context(), h.DB)
		if err != nil {
			storeError(w, err, "list medicines")
			return
		}
		if medicines == nil {
			medicines = []model.Medicine{}
		}
		jsonResponse(w, http.StatusOK, medicines)
		return
	}

	groups, err := store.ListMedicinesGrouped(r.Context(), h.DB)
	if err != nil {
		storeError(w, err, "list medicines")
		return
	}
	jsonResponse(w, http.StatusOK, groups)
}

// Create handles POST /api/medicines.
func (h *MedicinesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req store.MedicineFields
	if err := decodeJSON(r, &req); err != nil {
		badBody(w, err)
		return
	}

	m, err := store.CreateMedicine(r.Context(), h.DB, req, username(r))
	if err != nil {
		storeError(w, err, "create medicine")
		return
	}

	slog.Info("medicine created", "user", username(r), "id", m.ID, "name", m.Name)
	jsonResponse(w, http.StatusCreated, m)
}

// Get handles GET /api/medicines/{id}.
func (h *MedicinesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	m, err := store.GetMedicine(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, err, "get medicine")
		return
	}
	if m == nil {
		jsonError(w, http.StatusNotFound, "medicine not found")
		return
	}
	jsonResponse(w, http.StatusOK, m)
}

// Update handles PUT /api/medicines/{id}. Only the fields present in the
// body change.
func (h *MedicinesHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req store.MedicineFields
	if err := decodeJSON(r, &req); err != nil {
		badBody(w, err)
		return
	}

	m, err := store.UpdateMedicine(r.Context(), h.DB, id, req, username(r))
	if err != nil {
		storeError(w, err, "update medicine")
		return
	}
	jsonResponse(w, http.StatusOK, m)
}

// Delete handles DELETE /api/medicines/{id}.
func (h *MedicinesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := store.DeleteMedicine(r.Context(), h.DB, id); err != nil {
		storeError(w, err, "delete medicine")
		return
	}

	slog.Info("medicine deleted", "user", username(r), "id", id)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "medicine deleted"})
}

// Attention handles GET /api/medicines/attention?date=DD-MM-YYYY.
func (h *MedicinesHandler) Attention(w http.ResponseWriter, r *http.Request) {
	at, ok := attentionDate(w, r)
	if !ok {
		return
	}

	items, err := store.ListMedicinesNeedingAttention(r.Context(), h.DB, at)
	if err != nil {
		storeError(w, err, "list medicines needing attention")
		return
	}
	if items == nil {
		items = []store.MedicineAttention{}
	}
	jsonResponse(w, http.StatusOK, items)
}

// attentionDate reads the ?date query parameter, defaulting to today.
func attentionDate(w http.ResponseWriter, r *http.Request) (time.Time, bool) {
	raw := r.URL.Query().Get("date")
	if raw == "" {
		return time.Now(), true
	}
	at, ok := dates.Parse(raw)
	if !ok {
		jsonResponse(w, http.StatusBadRequest, validationResponse{Errors: []store.FieldError{
			{Field: "date", Message: "must be DD-MM-YYYY"},
		}})
		return time.Time{}, false
	}
	return at, true
}
