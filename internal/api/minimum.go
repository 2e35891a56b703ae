package api

import (
	"log/slog"
	"net/http"

	"github.com/jmoiron/sqlx"

	"github.com/erazemk/ambulanta/internal/model"
	"github.com/erazemk/ambulanta/internal/store"
)

// MinimumHandler handles the minimum-stock lists of both kinds.
type MinimumHandler struct {
	DB *sqlx.DB
}

// pathKind parses the {kind} path value.
func pathKind(w http.ResponseWriter, r *http.Request) (model.Kind, bool) {
	kind, ok := model.ParseKind(r.PathValue("kind"))
	if !ok {
		jsonError(w, http.StatusNotFound, "unknown kind")
		return "", false
	}
	return kind, true
}

// List handles GET /api/minimum/{kind}.
func (h *MinimumHandler) List(w http.ResponseWriter, r *http.Request) {
	kind, ok := pathKind(w, r)
	if !ok {
		return
	}

	var (
		rows any
		err  error
	)
	switch kind {
	case model.KindMedicine:
		var list []model.MedicineMinimum
		if list, err = store.ListMedicineMinimum(r.Context(), h.DB); list == nil {
			list = []model.MedicineMinimum{}
		}
		rows = list
	case model.KindEquipment:
		var list []model.EquipmentMinimum
		if list, err = store.ListEquipmentMinimum(r.Context(), h.DB); list == nil {
			list = []model.EquipmentMinimum{}
		}
		rows = list
	}
	if err != nil {
		storeError(w, err, "list minimum stock")
		return
	}
	jsonResponse(w, http.StatusOK, rows)
}

// Create handles POST /api/minimum/{kind}. A linked item is created with it.
func (h *MinimumHandler) Create(w http.ResponseWriter, r *http.Request) {
	kind, ok := pathKind(w, r)
	if !ok {
		return
	}

	var (
		row any
		err error
	)
	switch kind {
	case model.KindMedicine:
		var req store.MedicineShared
		if err := decodeJSON(r, &req); err != nil {
			badBody(w, err)
			return
		}
		row, err = store.CreateMedicineMinimum(r.Context(), h.DB, req, username(r))
	case model.KindEquipment:
		var req store.EquipmentShared
		if err := decodeJSON(r, &req); err != nil {
			badBody(w, err)
			return
		}
		row, err = store.CreateEquipmentMinimum(r.Context(), h.DB, req, username(r))
	}
	if err != nil {
		storeError(w, err, "create minimum stock row")
		return
	}

	slog.Info("minimum stock row created", "user", username(r), "kind", kind)
	jsonResponse(w, http.StatusCreated, row)
}

// Update handles PUT /api/minimum/{kind}/{id}.
func (h *MinimumHandler) Update(w http.ResponseWriter, r *http.Request) {
	kind, ok := pathKind(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var (
		row any
		err error
	)
	switch kind {
	case model.KindMedicine:
		var req store.MedicineShared
		if err := decodeJSON(r, &req); err != nil {
			badBody(w, err)
			return
		}
		row, err = store.UpdateMedicineMinimum(r.Context(), h.DB, id, req, username(r))
	case model.KindEquipment:
		var req store.EquipmentShared
		if err := decodeJSON(r, &req); err != nil {
			badBody(w, err)
			return
		}
		row, err = store.UpdateEquipmentMinimum(r.Context(), h.DB, id, req, username(r))
	}
	if err != nil {
		storeError(w, err, "update minimum stock row")
		return
	}
	jsonResponse(w, http.StatusOK, row)
}

// Delete handles DELETE /api/minimum/{kind}/{id}. The linked item goes too.
func (h *MinimumHandler) Delete(w http.ResponseWriter, r *http.Request) {
	kind, ok := pathKind(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var err error
	switch kind {
	case model.KindMedicine:
		err = store.DeleteMedicineMinimum(r.Context(), h.DB, id)
	case model.KindEquipment:
		err = store.DeleteEquipmentMinimum(r.Context(), h.DB, id)
	}
	if err != nil {
		storeError(w, err, "delete minimum stock row")
		return
	}

	slog.Info("minimum stock row deleted", "user", username(r), "kind", kind, "id", id)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "minimum stock row deleted"})
}
