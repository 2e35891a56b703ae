package api

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/erazemk/ambulanta/internal/backup"
	"github.com/erazemk/ambulanta/internal/store"
)

// MaxImportBytes caps the size of an uploaded database.
const MaxImportBytes = 512 << 20

// DatabaseHandler handles whole-database export and import.
type DatabaseHandler struct {
	DB        *sqlx.DB
	BackupDir string
}

// Export handles GET /api/database/export.
func (h *DatabaseHandler) Export(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/vnd.sqlite3")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, backup.ExportFileName()))
	if err := backup.Export(r.Context(), h.DB, w); err != nil {
		// Headers may already be out; the client sees a truncated file.
		slog.Error("database export failed", "error", err)
		return
	}
	slog.Info("database exported", "user", username(r))
}

// Import handles POST /api/database/import. The body is the database file,
// raw or as the "file" field of a multipart form.
func (h *DatabaseHandler) Import(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxImportBytes)

	var body io.Reader = r.Body
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		file, _, err := r.FormFile("file")
		if err != nil {
			jsonError(w, http.StatusBadRequest, "database file required")
			return
		}
		defer file.Close()
		body = file
	}

	saved, err := backup.Import(r.Context(), h.DB, body, h.BackupDir)
	if err != nil {
		slog.Warn("database import rejected", "user", username(r), "error", err)
		jsonError(w, http.StatusBadRequest, "import failed: "+err.Error())
		return
	}

	changed, err := store.RecomputeAll(r.Context(), h.DB)
	if err != nil {
		storeError(w, err, "recompute statuses after import")
		return
	}

	slog.Info("database imported", "user", username(r), "backup", saved, "changed", changed)
	jsonResponse(w, http.StatusOK, map[string]any{
		"message": "database imported",
		"backup":  filepath.Base(saved),
		"changed": changed,
	})
}
