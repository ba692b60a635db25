package session

import (
	"context"
	"testing"

	"github.com/opencampus/admissions/internal/apperr"
	"github.com/opencampus/admissions/internal/db"
)

func newTestSQLStore(t *testing.T, name string) *SQLStore {
	t.Helper()
	dbh, err := db.Open(context.Background(), db.DriverSQLite,
		"file:"+name+"?mode=memory&cache=shared&_pragma=busy_timeout(5000)")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	dbh.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = dbh.Close() })
	return NewSQLStore(dbh)
}

func TestOpenAttemptKeepsFirstRow(t *testing.T) {
	s := newTestSQLStore(t, "sess_open")
	ctx := context.Background()

	first, err := s.OpenAttempt(ctx, Attempt{EnrollmentID: "e1", ExamID: "x1", StartedAt: 1000, Deadline: 5000})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if first.Deadline != 5000 {
		t.Errorf("deadline = %d", first.Deadline)
	}

	// A later open must resume the stored row, not rewrite it.
	second, err := s.OpenAttempt(ctx, Attempt{EnrollmentID: "e1", ExamID: "x1", StartedAt: 2000, Deadline: 9000})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if second.StartedAt != 1000 || second.Deadline != 5000 {
		t.Errorf("reopen rewrote the attempt: %+v", second)
	}
}

func TestGetAttemptNotFound(t *testing.T) {
	s := newTestSQLStore(t, "sess_404")
	if _, err := s.GetAttempt(context.Background(), "nope", "x"); apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("want not found, got %v", err)
	}
}

func TestCloseAttemptFirstCloseWins(t *testing.T) {
	s := newTestSQLStore(t, "sess_close")
	ctx := context.Background()
	if _, err := s.OpenAttempt(ctx, Attempt{EnrollmentID: "e1", ExamID: "x1", StartedAt: 1, Deadline: 100}); err != nil {
		t.Fatalf("open: %v", err)
	}

	if err := s.CloseAttempt(ctx, "e1", "x1", 50, TriggerManual); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := s.CloseAttempt(ctx, "e1", "x1", 60, TriggerTimeout); err != nil {
		t.Fatalf("duplicate close: %v", err)
	}

	a, err := s.GetAttempt(ctx, "e1", "x1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if a.ClosedAt != 50 || a.Trigger != TriggerManual {
		t.Errorf("second close overwrote the first: %+v", a)
	}
}

func TestListExpiredSkipsClosedAndFuture(t *testing.T) {
	s := newTestSQLStore(t, "sess_expired")
	ctx := context.Background()

	for _, a := range []Attempt{
		{EnrollmentID: "e1", ExamID: "x1", StartedAt: 1, Deadline: 100}, // expired, open
		{EnrollmentID: "e2", ExamID: "x1", StartedAt: 1, Deadline: 100}, // expired, closed
		{EnrollmentID: "e3", ExamID: "x1", StartedAt: 1, Deadline: 900}, // still running
	} {
		if _, err := s.OpenAttempt(ctx, a); err != nil {
			t.Fatalf("open %s: %v", a.EnrollmentID, err)
		}
	}
	if err := s.CloseAttempt(ctx, "e2", "x1", 90, TriggerManual); err != nil {
		t.Fatalf("close: %v", err)
	}

	out, err := s.ListExpired(ctx, 500, 0)
	if err != nil {
		t.Fatalf("list expired: %v", err)
	}
	if len(out) != 1 || out[0].EnrollmentID != "e1" {
		t.Errorf("expired = %+v, want only e1", out)
	}
}

func TestUpsertAnswerReplacesByQuestion(t *testing.T) {
	s := newTestSQLStore(t, "sess_answers")
	ctx := context.Background()

	write := func(answer string, correct bool, score float64, at int64) {
		t.Helper()
		err := s.UpsertAnswer(ctx, Answer{
			EnrollmentID: "e1", ExamID: "x1", QuestionID: "q1",
			Answer: answer, IsCorrect: correct, ScoreAwarded: score, UpdatedAt: at,
		})
		if err != nil {
			t.Fatalf("upsert %q: %v", answer, err)
		}
	}
	write("Tibia", false, 0, 10)
	write("Femur", true, 6, 20)

	answers, err := s.ListAnswers(ctx, "e1", "x1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(answers) != 1 {
		t.Fatalf("got %d rows, want 1", len(answers))
	}
	a := answers[0]
	if a.Answer != "Femur" || !a.IsCorrect || a.ScoreAwarded != 6 || a.UpdatedAt != 20 {
		t.Errorf("stored answer = %+v", a)
	}
}

func TestUpsertResultConvergesToOneRow(t *testing.T) {
	s := newTestSQLStore(t, "sess_results")
	ctx := context.Background()

	put := func(score float64, grade string, at int64) {
		t.Helper()
		err := s.UpsertResult(ctx, Result{
			EnrollmentID: "e1", ExamID: "x1",
			TotalScoreObtained: score, MaxScorePossible: 20, Grade: grade, GradedAt: at,
		})
		if err != nil {
			t.Fatalf("upsert result: %v", err)
		}
	}
	put(9.0, "failed", 10)
	put(10.0, "approved", 20)

	r, err := s.GetResult(ctx, "e1", "x1")
	if err != nil {
		t.Fatalf("get result: %v", err)
	}
	if r.TotalScoreObtained != 10.0 || r.Grade != "approved" || r.GradedAt != 20 {
		t.Errorf("result = %+v", r)
	}

	all, err := s.ListResults(ctx, "x1")
	if err != nil {
		t.Fatalf("list results: %v", err)
	}
	if len(all) != 1 {
		t.Errorf("got %d result rows, want 1", len(all))
	}
}

func TestEnrollmentsWithAnswers(t *testing.T) {
	s := newTestSQLStore(t, "sess_who")
	ctx := context.Background()

	seed := []Answer{
		{EnrollmentID: "e2", ExamID: "x1", QuestionID: "q1", Answer: "a", UpdatedAt: 1},
		{EnrollmentID: "e1", ExamID: "x1", QuestionID: "q1", Answer: "b", UpdatedAt: 1},
		{EnrollmentID: "e1", ExamID: "x1", QuestionID: "q2", Answer: "c", UpdatedAt: 1},
		{EnrollmentID: "e9", ExamID: "x2", QuestionID: "q9", Answer: "d", UpdatedAt: 1},
	}
	for _, a := range seed {
		if err := s.UpsertAnswer(ctx, a); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	ids, err := s.EnrollmentsWithAnswers(ctx, "x1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(ids) != 2 || ids[0] != "e1" || ids[1] != "e2" {
		t.Errorf("ids = %v", ids)
	}
}
