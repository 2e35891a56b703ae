package api

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/erazemk/ambulanta/internal/imaging"
	"github.com/erazemk/ambulanta/internal/model"
	"github.com/erazemk/ambulanta/internal/store"
)

// ImagesHandler handles photos of medicines and equipment.
type ImagesHandler struct {
	DB   *sqlx.DB
	Kind model.Kind
}

// Upload handles PUT /api/{medicines|equipment}/{id}/image. The body is
// either the raw image or a multipart form with an "image" file.
func (h *ImagesHandler) Upload(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, imaging.MaxUploadBytes+1<<20)
	body := r.Body
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		file, _, err := r.FormFile("image")
		if err != nil {
			jsonError(w, http.StatusBadRequest, "image file required")
			return
		}
		defer file.Close()
		body = file
	}

	photo, err := imaging.Normalize(body)
	if err != nil {
		storeError(w, err, "process image")
		return
	}

	if err := store.SetItemImage(r.Context(), h.DB, h.Kind, id, photo.Data, photo.MIME); err != nil {
		storeError(w, err, "save image")
		return
	}

	slog.Info("image uploaded", "user", username(r), "kind", h.Kind, "id", id, "width", photo.Width, "height", photo.Height)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "image uploaded"})
}

// Get handles GET /api/{medicines|equipment}/{id}/image.
func (h *ImagesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	data, mime, err := store.GetItemImage(r.Context(), h.DB, h.Kind, id)
	if err != nil {
		storeError(w, err, "get image")
		return
	}
	if data == nil {
		jsonError(w, http.StatusNotFound, "no image")
		return
	}

	w.Header().Set("Content-Type", mime)
	w.Header().Set("Cache-Control", "private, max-age=3600")
	w.Write(data)
}
