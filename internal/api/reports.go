package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strings"

	"github.com/erazemk/ambulanta/internal/report"
	"github.com/erazemk/ambulanta/internal/store"
)

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// writeReport renders rep as JSON, or as CSV for ?format=csv. The CSV
// charset comes from ?charset and falls back to defaultCharset.
func writeReport(w http.ResponseWriter, r *http.Request, rep *store.Report, defaultCharset string) {
	q := r.URL.Query()
	switch q.Get("format") {
	case "", "json":
		jsonResponse(w, http.StatusOK, rep)
		return
	case "csv":
	default:
		jsonError(w, http.StatusBadRequest, "format must be json or csv")
		return
	}

	charset := q.Get("charset")
	if charset == "" {
		charset = defaultCharset
	}
	if !report.ValidCharset(charset) {
		jsonError(w, http.StatusBadRequest, "unsupported charset")
		return
	}

	name := strings.Trim(unsafeFileChars.ReplaceAllString(rep.Title, "-"), "-")
	if name == "" {
		name = "report"
	}
	w.Header().Set("Content-Type", "text/csv; charset="+charset)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.csv"`, name))
	if err := report.WriteCSV(w, rep, charset); err != nil {
		slog.Error("writing csv report", "error", err, "title", rep.Title)
	}
}
