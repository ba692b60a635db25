package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/opencampus/admissions/internal/apperr"
	"github.com/opencampus/admissions/internal/session"
)

// POST /sessions {"enrollment_id": ..., "exam_id": ...}
func OpenSessionHandler(svc *session.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			EnrollmentID string `json:"enrollment_id"`
			ExamID       string `json:"exam_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeErr(w, apperr.Validation("bad json"))
			return
		}
		if req.EnrollmentID == "" || req.ExamID == "" {
			writeErr(w, apperr.Validation("enrollment_id and exam_id required"))
			return
		}
		resp, err := svc.Open(r.Context(), req.EnrollmentID, req.ExamID)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// POST /sessions/{enrollmentID}/{examID}/answers {"question_id": ..., "value": ...}
func RecordAnswerHandler(svc *session.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			QuestionID string `json:"question_id"`
			Value      string `json:"value"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeErr(w, apperr.Validation("bad json"))
			return
		}
		ans, err := svc.Record(r.Context(),
			chi.URLParam(r, "enrollmentID"), chi.URLParam(r, "examID"),
			req.QuestionID, req.Value)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, ans)
	}
}

// POST /sessions/{enrollmentID}/{examID}/close is idempotent; repeat
// calls return the existing result.
func CloseSessionHandler(svc *session.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := svc.Close(r.Context(),
			chi.URLParam(r, "enrollmentID"), chi.URLParam(r, "examID"),
			session.TriggerManual)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}
