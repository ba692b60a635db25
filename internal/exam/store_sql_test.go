package exam

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/opencampus/admissions/internal/apperr"
	"github.com/opencampus/admissions/internal/db"
)

func newTestStore(t *testing.T, name string) (*SQLStore, *sql.DB) {
	t.Helper()
	dbh, err := db.Open(context.Background(), db.DriverSQLite,
		"file:"+name+"?mode=memory&cache=shared&_pragma=busy_timeout(5000)")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	dbh.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = dbh.Close() })
	return NewSQLStore(dbh), dbh
}

func seedExam(t *testing.T, s *SQLStore) Exam {
	t.Helper()
	in := validInput()
	e := in.ToExam(time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC))
	if err := s.PutExam(context.Background(), e); err != nil {
		t.Fatalf("put exam: %v", err)
	}
	return e
}

func TestPutAndGetExamFull(t *testing.T) {
	s, _ := newTestStore(t, "exam_roundtrip")
	want := seedExam(t, s)

	got, err := s.GetExamFull(context.Background(), want.ID)
	if err != nil {
		t.Fatalf("get exam full: %v", err)
	}
	if got.Name != want.Name || got.Type != want.Type || got.ExamDate != want.ExamDate {
		t.Errorf("exam mismatch: got %+v", got)
	}
	if got.SecondCallDate != 0 || got.PublicationDate != 0 {
		t.Errorf("unset dates should read back as zero: %+v", got)
	}
	if len(got.Questions) != len(want.Questions) {
		t.Fatalf("got %d questions, want %d", len(got.Questions), len(want.Questions))
	}
	for i, q := range got.Questions {
		w := want.Questions[i]
		if q.ID != w.ID || q.Position != i || q.CorrectAnswer != w.CorrectAnswer || q.Score != w.Score {
			t.Errorf("question %d mismatch: got %+v want %+v", i, q, w)
		}
	}
	if len(got.Questions[0].Options) != 2 {
		t.Errorf("options lost in roundtrip: %+v", got.Questions[0])
	}
}

func TestGetExamStripsAnswerKeys(t *testing.T) {
	s, _ := newTestStore(t, "exam_strip")
	e := seedExam(t, s)

	got, err := s.GetExam(context.Background(), e.ID)
	if err != nil {
		t.Fatalf("get exam: %v", err)
	}
	for i, q := range got.Questions {
		if q.CorrectAnswer != "" {
			t.Errorf("question %d leaks answer key %q", i, q.CorrectAnswer)
		}
	}
}

func TestGetExamNotFound(t *testing.T) {
	s, _ := newTestStore(t, "exam_404")
	if _, err := s.GetExamFull(context.Background(), "missing"); apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("want not found, got %v", err)
	}
}

func TestListExams(t *testing.T) {
	s, _ := newTestStore(t, "exam_list")
	e := seedExam(t, s)

	sums, err := s.ListExams(context.Background(), ListOpts{CourseID: e.CourseID})
	if err != nil {
		t.Fatalf("list exams: %v", err)
	}
	if len(sums) != 1 {
		t.Fatalf("got %d summaries, want 1", len(sums))
	}
	if sums[0].QuestionCount != len(e.Questions) {
		t.Errorf("question_count = %d, want %d", sums[0].QuestionCount, len(e.Questions))
	}

	sums, err = s.ListExams(context.Background(), ListOpts{CourseID: "other"})
	if err != nil {
		t.Fatalf("list exams filtered: %v", err)
	}
	if len(sums) != 0 {
		t.Errorf("course filter leaked %d rows", len(sums))
	}
}

func TestRescheduleMovesDates(t *testing.T) {
	s, _ := newTestStore(t, "exam_resched")
	e := seedExam(t, s)

	newDate := e.ExamDate + 86400
	got, err := s.Reschedule(context.Background(), e.ID, newDate, 0)
	if err != nil {
		t.Fatalf("reschedule: %v", err)
	}
	if got.ExamDate != newDate {
		t.Errorf("exam_date = %d, want %d", got.ExamDate, newDate)
	}

	stored, err := s.GetExamFull(context.Background(), e.ID)
	if err != nil {
		t.Fatalf("get after reschedule: %v", err)
	}
	if stored.ExamDate != newDate {
		t.Errorf("stored exam_date = %d, want %d", stored.ExamDate, newDate)
	}
}

func TestRescheduleLockedByAnswers(t *testing.T) {
	s, dbh := newTestStore(t, "exam_lock")
	e := seedExam(t, s)

	_, err := dbh.Exec(`
		INSERT INTO student_answers (enrollment_id, exam_id, question_id, answer, is_correct, score_awarded, updated_at)
		VALUES ('enr-1', $1, $2, 'Femur', 1, 10, 0)`, e.ID, e.Questions[0].ID)
	if err != nil {
		t.Fatalf("seed answer: %v", err)
	}

	if _, err := s.Reschedule(context.Background(), e.ID, e.ExamDate+3600, 0); apperr.KindOf(err) != apperr.KindStateConflict {
		t.Fatalf("want state conflict for locked exam, got %v", err)
	}
}

func TestRescheduleSecondCallInvariant(t *testing.T) {
	s, _ := newTestStore(t, "exam_resched_sc")
	in := validInput()
	in.SecondCallEligible = true
	in.SecondCallDate = in.ExamDate + 86400
	e := in.ToExam(time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC))
	if err := s.PutExam(context.Background(), e); err != nil {
		t.Fatalf("put exam: %v", err)
	}

	if _, err := s.Reschedule(context.Background(), e.ID, e.ExamDate+7200, 0); apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("want validation error when second call dropped, got %v", err)
	}
	if _, err := s.Reschedule(context.Background(), e.ID, e.ExamDate+7200, e.ExamDate+7200); apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("want validation error for non-later second call, got %v", err)
	}
	if _, err := s.Reschedule(context.Background(), e.ID, e.ExamDate+7200, e.ExamDate+7201); err != nil {
		t.Fatalf("valid reschedule rejected: %v", err)
	}
}
