package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/opencampus/admissions/internal/apperr"
	"github.com/opencampus/admissions/internal/audit"
	"github.com/opencampus/admissions/internal/exam"
	"github.com/opencampus/admissions/internal/rbac"
	"github.com/opencampus/admissions/internal/session"
)

// GET /results/{enrollmentID}/{examID}
// Students see a result only once the exam's publication date passed;
// staff and admin are not gated.
func GetResultHandler(store session.Store, exams exam.Store, checker *rbac.Checker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		enrollmentID := chi.URLParam(r, "enrollmentID")
		examID := chi.URLParam(r, "examID")

		role := roleFrom(r)
		if !checker.Has(role, "result:view-all") {
			if subjectFrom(r) != enrollmentID {
				writeErr(w, apperr.Forbidden("not your result"))
				return
			}
			e, err := exams.GetExam(r.Context(), examID)
			if err != nil {
				writeErr(w, err)
				return
			}
			if e.PublicationDate == 0 || e.PublicationDate > time.Now().Unix() {
				writeErr(w, apperr.Forbidden("results not yet published"))
				return
			}
		}

		res, err := store.GetResult(r.Context(), enrollmentID, examID)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

// GET /exams/{examID}/results (staff listing)
func ListExamResultsHandler(store session.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := store.ListResults(r.Context(), chi.URLParam(r, "examID"))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

// POST /exams/{examID}/grade-all runs the administrative re-grading sweep.
func GradeAllHandler(svc *session.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report, err := svc.GradeAll(r.Context(), chi.URLParam(r, "examID"))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, report)
	}
}

// GET /audit returns recent audit events, staff only.
func AuditEventsHandler(logStore *audit.Log) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		events, err := logStore.Recent(r.Context(), parseIntDefault(r.URL.Query().Get("limit"), 100))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, events)
	}
}
