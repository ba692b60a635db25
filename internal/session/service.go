package session

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/opencampus/admissions/internal/apperr"
	"github.com/opencampus/admissions/internal/audit"
	"github.com/opencampus/admissions/internal/enrollment"
	"github.com/opencampus/admissions/internal/exam"
	"github.com/opencampus/admissions/internal/grading"
)

// Recorder is the audit hook; nil disables recording.
type Recorder interface {
	Record(ctx context.Context, typ, key string, data any) error
}

// Service is the submission-session protocol: it decides which ledger
// writes are accepted and when grading runs. Attempt timestamps are
// unix milliseconds so the deadline comparison is strict at
// millisecond precision.
type Service struct {
	enrollments enrollment.Store
	exams       exam.Store
	store       Store
	grader      grading.Grader
	rec         Recorder
	now         func() time.Time
}

func NewService(enrollments enrollment.Store, exams exam.Store, store Store, grader grading.Grader, rec Recorder) *Service {
	return &Service{
		enrollments: enrollments,
		exams:       exams,
		store:       store,
		grader:      grader,
		rec:         rec,
		now:         time.Now,
	}
}

// Open starts (or resumes) the session for the pair. Only approved
// enrollments may sit exams. The deadline counts from first open;
// reopening returns the original one.
func (s *Service) Open(ctx context.Context, enrollmentID, examID string) (OpenResponse, error) {
	enr, err := s.enrollments.Get(ctx, enrollmentID)
	if err != nil {
		return OpenResponse{}, err
	}
	if enr.Status != enrollment.StatusApproved {
		return OpenResponse{}, apperr.StateConflict("enrollment %s is %s, not approved", enrollmentID, enr.Status)
	}
	ex, err := s.exams.GetExam(ctx, examID) // student-safe
	if err != nil {
		return OpenResponse{}, err
	}

	now := s.now()
	a, err := s.store.OpenAttempt(ctx, Attempt{
		EnrollmentID: enrollmentID,
		ExamID:       examID,
		StartedAt:    now.UnixMilli(),
		Deadline:     now.Add(time.Duration(ex.DurationMinutes) * time.Minute).UnixMilli(),
	})
	if err != nil {
		return OpenResponse{}, err
	}
	if a.Closed() {
		return OpenResponse{}, apperr.StateConflict("session already closed for enrollment %s, exam %s", enrollmentID, examID)
	}
	return OpenResponse{
		EnrollmentID: enrollmentID,
		ExamID:       examID,
		Questions:    ex.Questions,
		Deadline:     a.Deadline,
	}, nil
}

// Record writes one answer through the ledger. Safe to call repeatedly
// for the same question before the deadline; the last valid write
// wins.
func (s *Service) Record(ctx context.Context, enrollmentID, examID, questionID, value string) (Answer, error) {
	a, err := s.store.GetAttempt(ctx, enrollmentID, examID)
	if err != nil {
		return Answer{}, err
	}
	if _, err := s.store.GetResult(ctx, enrollmentID, examID); err == nil {
		return Answer{}, apperr.StateConflict("exam %s already graded for enrollment %s", examID, enrollmentID)
	} else if apperr.KindOf(err) != apperr.KindNotFound {
		return Answer{}, err
	}
	now := s.now()
	if a.Closed() || now.UnixMilli() > a.Deadline {
		return Answer{}, apperr.StateConflict("session expired for enrollment %s, exam %s", enrollmentID, examID)
	}

	ex, err := s.exams.GetExamFull(ctx, examID)
	if err != nil {
		return Answer{}, err
	}
	var q *exam.Question
	for i := range ex.Questions {
		if ex.Questions[i].ID == questionID {
			q = &ex.Questions[i]
			break
		}
	}
	if q == nil {
		return Answer{}, apperr.Validation("question mismatch",
			apperr.FieldError{Field: "question_id", Error: "does not belong to exam " + examID})
	}

	out := s.grader.Check(grading.Q{Type: string(q.Type), Score: q.Score, CorrectAnswer: q.CorrectAnswer}, value)
	ans := Answer{
		EnrollmentID: enrollmentID,
		ExamID:       examID,
		QuestionID:   questionID,
		Answer:       value,
		IsCorrect:    out.Correct,
		ScoreAwarded: out.Awarded,
		UpdatedAt:    now.UnixMilli(),
	}
	if err := s.store.UpsertAnswer(ctx, ans); err != nil {
		return Answer{}, err
	}
	return ans, nil
}

// Close is idempotent: the first call closes the attempt and grades
// the pair; later calls return the existing result untouched.
func (s *Service) Close(ctx context.Context, enrollmentID, examID string, trigger Trigger) (Result, error) {
	if r, err := s.store.GetResult(ctx, enrollmentID, examID); err == nil {
		return r, nil
	} else if apperr.KindOf(err) != apperr.KindNotFound {
		return Result{}, err
	}

	a, err := s.store.GetAttempt(ctx, enrollmentID, examID)
	if err != nil {
		return Result{}, err
	}
	if !a.Closed() {
		if err := s.store.CloseAttempt(ctx, enrollmentID, examID, s.now().UnixMilli(), trigger); err != nil {
			return Result{}, err
		}
		s.record(ctx, audit.SessionClosed, enrollmentID+"/"+examID, map[string]any{"trigger": trigger})
	}
	return s.Grade(ctx, enrollmentID, examID)
}

// Grade recomputes and upserts the result for the pair. A no-show (no
// answers at all) gets no fabricated zero-score row.
func (s *Service) Grade(ctx context.Context, enrollmentID, examID string) (Result, error) {
	answers, err := s.store.ListAnswers(ctx, enrollmentID, examID)
	if err != nil {
		return Result{}, err
	}
	if len(answers) == 0 {
		return Result{}, apperr.NotFound("no answers for enrollment %s, exam %s; result skipped", enrollmentID, examID)
	}

	ex, err := s.exams.GetExamFull(ctx, examID)
	if err != nil {
		return Result{}, err
	}
	rawMax := ex.RawMax()
	if len(ex.Questions) == 0 || rawMax <= 0 {
		return Result{}, apperr.Fatal(fmt.Sprintf("exam %s has no gradable questions", examID), nil)
	}
	var rawObtained float64
	for _, a := range answers {
		rawObtained += a.ScoreAwarded
	}

	r := Result{
		EnrollmentID:       enrollmentID,
		ExamID:             examID,
		TotalScoreObtained: grading.Normalize(rawObtained, rawMax),
		MaxScorePossible:   grading.MaxScorePossible,
		Grade:              "",
		GradedAt:           s.now().UnixMilli(),
	}
	r.Grade = grading.Label(r.TotalScoreObtained)
	if err := s.store.UpsertResult(ctx, r); err != nil {
		return Result{}, err
	}
	// Re-read so concurrent graders converge on one canonical row.
	stored, err := s.store.GetResult(ctx, enrollmentID, examID)
	if err != nil {
		return Result{}, err
	}
	s.record(ctx, audit.ExamGraded, enrollmentID+"/"+examID, stored)
	return stored, nil
}

// GradeAll re-grades every enrollment holding answers for the exam.
// Each grading attempt is isolated; failures land in the report
// instead of aborting peers.
func (s *Service) GradeAll(ctx context.Context, examID string) (BatchReport, error) {
	ex, err := s.exams.GetExamFull(ctx, examID)
	if err != nil {
		return BatchReport{}, err
	}
	if len(ex.Questions) == 0 || ex.RawMax() <= 0 {
		return BatchReport{}, apperr.Fatal(fmt.Sprintf("exam %s has no gradable questions", examID), nil)
	}

	ids, err := s.store.EnrollmentsWithAnswers(ctx, examID)
	if err != nil {
		return BatchReport{}, err
	}
	report := BatchReport{ExamID: examID, Graded: []Result{}, Failures: map[string]string{}}
	for _, id := range ids {
		r, err := s.Grade(ctx, id, examID)
		if err != nil {
			report.Failures[id] = err.Error()
			continue
		}
		report.Graded = append(report.Graded, r)
	}
	return report, nil
}

// SweepExpired force-closes open attempts whose deadline elapsed
// without a client close. Returns how many were closed.
func (s *Service) SweepExpired(ctx context.Context) (int, error) {
	expired, err := s.store.ListExpired(ctx, s.now().UnixMilli(), 0)
	if err != nil {
		return 0, err
	}
	closed := 0
	for _, a := range expired {
		if _, err := s.Close(ctx, a.EnrollmentID, a.ExamID, TriggerTimeout); err != nil {
			// No-shows surface as not-found (nothing to grade); the
			// attempt is still closed, so don't count them as failures.
			if apperr.KindOf(err) != apperr.KindNotFound {
				log.Printf("sweep: close %s/%s: %v", a.EnrollmentID, a.ExamID, err)
				continue
			}
		}
		closed++
	}
	return closed, nil
}

func (s *Service) record(ctx context.Context, typ, key string, data any) {
	if s.rec == nil {
		return
	}
	if err := s.rec.Record(ctx, typ, key, data); err != nil {
		log.Printf("audit: %s %s: %v", typ, key, err)
	}
}
