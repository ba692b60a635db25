package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/opencampus/admissions/internal/apperr"
	"github.com/opencampus/admissions/internal/audit"
	"github.com/opencampus/admissions/internal/enrollment"
)

func RegisterCandidateHandler(store enrollment.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Name  string `json:"name"`
			Email string `json:"email"`
			Phone string `json:"phone"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeErr(w, apperr.Validation("bad json"))
			return
		}
		c, err := store.CreateCandidate(r.Context(), enrollment.Candidate{
			Name:  strings.TrimSpace(req.Name),
			Email: strings.TrimSpace(strings.ToLower(req.Email)),
			Phone: strings.TrimSpace(req.Phone),
		})
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, c)
	}
}

func SubmitEnrollmentHandler(store enrollment.Store, rec *audit.Log) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			CandidateID string `json:"candidate_id"`
			CourseID    string `json:"course_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeErr(w, apperr.Validation("bad json"))
			return
		}
		if req.CandidateID == "" || req.CourseID == "" {
			writeErr(w, apperr.Validation("candidate_id and course_id required"))
			return
		}
		e, err := store.Submit(r.Context(), req.CandidateID, req.CourseID)
		if err != nil {
			writeErr(w, err)
			return
		}
		if rec != nil {
			_ = rec.Record(r.Context(), audit.EnrollmentSubmitted, e.ID, e)
		}
		writeJSON(w, http.StatusCreated, e)
	}
}

func TransitionEnrollmentHandler(store enrollment.Store, rec *audit.Log) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "enrollmentID")
		var req struct {
			Status string `json:"status"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeErr(w, apperr.Validation("bad json"))
			return
		}
		role := roleFrom(r)
		e, err := store.Transition(r.Context(), id, enrollment.Status(req.Status), role)
		if err != nil {
			writeErr(w, err)
			return
		}
		if rec != nil {
			_ = rec.Record(r.Context(), audit.EnrollmentTransitioned, e.ID,
				map[string]any{"status": e.Status, "actor_role": role})
		}
		writeJSON(w, http.StatusOK, e)
	}
}

func GetEnrollmentHandler(store enrollment.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		e, err := store.Get(r.Context(), chi.URLParam(r, "enrollmentID"))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, e)
	}
}

func ListEnrollmentsHandler(store enrollment.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		list, err := store.List(r.Context(), enrollment.ListOpts{
			Status:   enrollment.Status(q.Get("status")),
			CourseID: q.Get("course_id"),
			Limit:    parseIntDefault(q.Get("limit"), 100),
			Offset:   parseIntDefault(q.Get("offset"), 0),
		})
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}
