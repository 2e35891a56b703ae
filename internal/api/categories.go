package api

import (
	"log/slog"
	"net/http"

	"github.com/jmoiron/sqlx"

	"github.com/erazemk/ambulanta/internal/model"
	"github.com/erazemk/ambulanta/internal/store"
)

// CategoriesHandler handles the category trees.
type CategoriesHandler struct {
	DB *sqlx.DB
}

type nameRequest struct {
	Name string `json:"name"`
}

// List handles GET /api/categories/{kind}.
func (h *CategoriesHandler) List(w http.ResponseWriter, r *http.Request) {
	kind, ok := pathKind(w, r)
	if !ok {
		return
	}

	categories, err := store.ListCategories(r.Context(), h.DB, kind)
	if err != nil {
		storeError(w, err, "list categories")
		return
	}
	if categories == nil {
		categories = []model.Category{}
	}
	jsonResponse(w, http.StatusOK, categories)
}

// Create handles POST /api/categories/{kind}.
func (h *CategoriesHandler) Create(w http.ResponseWriter, r *http.Request) {
	kind, ok := pathKind(w, r)
	if !ok {
		return
	}

	var req nameRequest
	if err := decodeJSON(r, &req); err != nil {
		badBody(w, err)
		return
	}

	c, err := store.CreateCategory(r.Context(), h.DB, kind, req.Name)
	if err != nil {
		storeError(w, err, "create category")
		return
	}

	slog.Info("category created", "user", username(r), "kind", kind, "name", c.Name)
	jsonResponse(w, http.StatusCreated, c)
}

// Delete handles DELETE /api/categories/{kind}/{id}. Subcategories go with
// it; items keep their now dangling category ids.
func (h *CategoriesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	kind, ok := pathKind(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := store.DeleteCategory(r.Context(), h.DB, kind, id); err != nil {
		storeError(w, err, "delete category")
		return
	}

	slog.Info("category deleted", "user", username(r), "kind", kind, "id", id)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "category deleted"})
}

// ListSubcategories handles GET /api/categories/{kind}/{id}/subcategories.
func (h *CategoriesHandler) ListSubcategories(w http.ResponseWriter, r *http.Request) {
	kind, ok := pathKind(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	subs, err := store.ListSubcategories(r.Context(), h.DB, kind, id)
	if err != nil {
		storeError(w, err, "list subcategories")
		return
	}
	if subs == nil {
		subs = []model.Subcategory{}
	}
	jsonResponse(w, http.StatusOK, subs)
}

// CreateSubcategory handles POST /api/categories/{kind}/{id}/subcategories.
func (h *CategoriesHandler) CreateSubcategory(w http.ResponseWriter, r *http.Request) {
	kind, ok := pathKind(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req nameRequest
	if err := decodeJSON(r, &req); err != nil {
		badBody(w, err)
		return
	}

	s, err := store.CreateSubcategory(r.Context(), h.DB, kind, id, req.Name)
	if err != nil {
		storeError(w, err, "create subcategory")
		return
	}
	jsonResponse(w, http.StatusCreated, s)
}

// DeleteSubcategory handles DELETE /api/subcategories/{kind}/{id}.
func (h *CategoriesHandler) DeleteSubcategory(w http.ResponseWriter, r *http.Request) {
	kind, ok := pathKind(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := store.DeleteSubcategory(r.Context(), h.DB, kind, id); err != nil {
		storeError(w, err, "delete subcategory")
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "subcategory deleted"})
}

// ListSubSubcategories handles GET /api/subcategories/medicine/{id}/subsubcategories.
func (h *CategoriesHandler) ListSubSubcategories(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	subs, err := store.ListSubSubcategories(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, err, "list sub-subcategories")
		return
	}
	if subs == nil {
		subs = []model.SubSubcategory{}
	}
	jsonResponse(w, http.StatusOK, subs)
}

// CreateSubSubcategory handles POST /api/subcategories/medicine/{id}/subsubcategories.
func (h *CategoriesHandler) CreateSubSubcategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req nameRequest
	if err := decodeJSON(r, &req); err != nil {
		badBody(w, err)
		return
	}

	s, err := store.CreateSubSubcategory(r.Context(), h.DB, id, req.Name)
	if err != nil {
		storeError(w, err, "create sub-subcategory")
		return
	}
	jsonResponse(w, http.StatusCreated, s)
}

// DeleteSubSubcategory handles DELETE /api/subsubcategories/{id}.
func (h *CategoriesHandler) DeleteSubSubcategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := store.DeleteSubSubcategory(r.Context(), h.DB, id); err != nil {
		storeError(w, err, "delete sub-subcategory")
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "sub-subcategory deleted"})
}
