package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/opencampus/admissions/internal/apperr"
	"github.com/opencampus/admissions/internal/rbac"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errBody struct {
	Error  string             `json:"error"`
	Kind   string             `json:"kind"`
	Fields []apperr.FieldError `json:"fields,omitempty"`
}

// writeErr maps error kinds to transport signals without inventing new
// semantics.
func writeErr(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	body := errBody{Error: err.Error(), Kind: apperr.KindUnknown.String()}

	var e *apperr.Error
	if errors.As(err, &e) {
		body.Kind = e.Kind.String()
		body.Fields = e.Fields
		switch e.Kind {
		case apperr.KindValidation:
			status = http.StatusBadRequest
		case apperr.KindNotFound:
			status = http.StatusNotFound
		case apperr.KindForbidden:
			status = http.StatusForbidden
		case apperr.KindStateConflict:
			status = http.StatusConflict
		case apperr.KindTransient:
			status = http.StatusServiceUnavailable
		}
	}
	writeJSON(w, status, body)
}

func roleFrom(r *http.Request) string    { return rbac.RoleFromContext(r.Context()) }
func subjectFrom(r *http.Request) string { return rbac.SubjectFromContext(r.Context()) }

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil && v >= 0 {
		return v
	}
	return def
}
