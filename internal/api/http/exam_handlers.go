package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/opencampus/admissions/internal/apperr"
	"github.com/opencampus/admissions/internal/exam"
)

// POST /exams validates and persists the exam with its question
// bank atomically; never partially schedules.
func ScheduleExamHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in exam.ScheduleInput
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			writeErr(w, apperr.Validation("bad json"))
			return
		}
		if err := in.Validate(); err != nil {
			writeErr(w, err)
			return
		}
		e := in.ToExam(time.Now())
		if err := store.PutExam(r.Context(), e); err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, e)
	}
}

// POST /exams/{examID}/reschedule {"exam_date": ..., "second_call_date": ...}
func RescheduleExamHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "examID")
		var req struct {
			ExamDate       int64 `json:"exam_date"`
			SecondCallDate int64 `json:"second_call_date"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeErr(w, apperr.Validation("bad json"))
			return
		}
		e, err := store.Reschedule(r.Context(), id, req.ExamDate, req.SecondCallDate)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, e)
	}
}

// GET /exams/{examID} serves the student-safe view, answer keys stripped.
func GetExamHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		e, err := store.GetExam(r.Context(), chi.URLParam(r, "examID"))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, e)
	}
}

func ListExamsHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		list, err := store.ListExams(r.Context(), exam.ListOpts{
			CourseID: q.Get("course_id"),
			Limit:    parseIntDefault(q.Get("limit"), 50),
			Offset:   parseIntDefault(q.Get("offset"), 0),
		})
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}
