package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/erazemk/ambulanta/internal/imaging"
	"github.com/erazemk/ambulanta/internal/store"
)

// jsonResponse writes a JSON response with the given status code.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("encoding response", "error", err)
		}
	}
}

// jsonError writes a JSON error response.
func jsonError(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]string{"error": message})
}

// validationResponse is the body of a 400 caused by invalid fields.
type validationResponse struct {
	Errors []store.FieldError `json:"errors"`
}

// decodeJSON decodes a JSON request body into the given target. A value of
// the wrong type is reported as a field validation error.
func decodeJSON(r *http.Request, target any) error {
	defer r.Body.Close()
	err := json.NewDecoder(r.Body).Decode(target)
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return &store.ValidationError{Fields: []store.FieldError{{
			Field:   typeErr.Field,
			Message: fmt.Sprintf("must be of type %s", typeErr.Type),
		}}}
	}
	return err
}

// badBody writes the response for a body decodeJSON rejected.
func badBody(w http.ResponseWriter, err error) {
	var v *store.ValidationError
	if errors.As(err, &v) {
		jsonResponse(w, http.StatusBadRequest, validationResponse{Errors: v.Fields})
		return
	}
	jsonError(w, http.StatusBadRequest, "invalid request body")
}

// storeError maps a store error to a response. Unexpected errors are
// logged with action and reported without detail.
func storeError(w http.ResponseWriter, err error, action string) {
	var v *store.ValidationError
	switch {
	case errors.As(err, &v):
		jsonResponse(w, http.StatusBadRequest, validationResponse{Errors: v.Fields})
	case errors.Is(err, store.ErrNotFound):
		jsonError(w, http.StatusNotFound, "not found")
	case errors.Is(err, store.ErrConstraint):
		jsonError(w, http.StatusConflict, "conflicts with existing data")
	case errors.Is(err, store.ErrInvalidTransition):
		jsonError(w, http.StatusConflict, err.Error())
	case errors.Is(err, store.ErrLocked):
		jsonError(w, http.StatusConflict, err.Error())
	case errors.Is(err, imaging.ErrUnsupported):
		jsonError(w, http.StatusUnsupportedMediaType, "image must be JPEG or PNG")
	case errors.Is(err, imaging.ErrTooLarge):
		jsonError(w, http.StatusRequestEntityTooLarge, "image too large")
	default:
		slog.Error("failed to "+action, "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to "+action)
	}
}

// pathID parses the named path value as a row id.
func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		jsonError(w, http.StatusBadRequest, "invalid "+name)
		return 0, false
	}
	return id, true
}

// username returns the signed-in user's name for last_modified_by.
func username(r *http.Request) string {
	if claims := GetClaims(r.Context()); claims != nil {
		return claims.Username
	}
	return ""
}
