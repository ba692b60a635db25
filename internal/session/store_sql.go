package session

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/opencampus/admissions/internal/apperr"
)

type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

func (s *SQLStore) OpenAttempt(ctx context.Context, a Attempt) (Attempt, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO attempts (enrollment_id,exam_id,started_at,deadline)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (enrollment_id,exam_id) DO NOTHING`,
		a.EnrollmentID, a.ExamID, a.StartedAt, a.Deadline)
	if err != nil {
		return Attempt{}, err
	}
	return s.GetAttempt(ctx, a.EnrollmentID, a.ExamID)
}

func (s *SQLStore) GetAttempt(ctx context.Context, enrollmentID, examID string) (Attempt, error) {
	var (
		a       Attempt
		closed  sql.NullInt64
		trigger sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT enrollment_id,exam_id,started_at,deadline,closed_at,close_trigger
		FROM attempts WHERE enrollment_id=$1 AND exam_id=$2`,
		enrollmentID, examID).
		Scan(&a.EnrollmentID, &a.ExamID, &a.StartedAt, &a.Deadline, &closed, &trigger)
	if errors.Is(err, sql.ErrNoRows) {
		return Attempt{}, apperr.NotFound("no session for enrollment %s, exam %s", enrollmentID, examID)
	}
	if err != nil {
		return Attempt{}, err
	}
	a.ClosedAt = closed.Int64
	a.Trigger = Trigger(trigger.String)
	return a, nil
}

func (s *SQLStore) CloseAttempt(ctx context.Context, enrollmentID, examID string, closedAt int64, trigger Trigger) error {
	// Only the first close wins; a concurrent duplicate is a no-op.
	_, err := s.db.ExecContext(ctx, `
		UPDATE attempts SET closed_at=$1, close_trigger=$2
		WHERE enrollment_id=$3 AND exam_id=$4 AND closed_at IS NULL`,
		closedAt, trigger, enrollmentID, examID)
	return err
}

func (s *SQLStore) ListExpired(ctx context.Context, now int64, limit int) ([]Attempt, error) {
	if limit <= 0 || limit > 1000 {
		limit = 200
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT enrollment_id,exam_id,started_at,deadline
		FROM attempts WHERE closed_at IS NULL AND deadline < $1
		ORDER BY deadline LIMIT $2`, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Attempt{}
	for rows.Next() {
		var a Attempt
		if err := rows.Scan(&a.EnrollmentID, &a.ExamID, &a.StartedAt, &a.Deadline); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *SQLStore) UpsertAnswer(ctx context.Context, a Answer) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO student_answers
		  (enrollment_id,exam_id,question_id,answer,is_correct,score_awarded,updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (enrollment_id,question_id) DO UPDATE SET
		  answer=EXCLUDED.answer,
		  is_correct=EXCLUDED.is_correct,
		  score_awarded=EXCLUDED.score_awarded,
		  updated_at=EXCLUDED.updated_at`,
		a.EnrollmentID, a.ExamID, a.QuestionID, a.Answer, a.IsCorrect, a.ScoreAwarded, a.UpdatedAt)
	if err != nil && isBusy(err) {
		return apperr.Transient("answer write contention", err)
	}
	return err
}

func (s *SQLStore) ListAnswers(ctx context.Context, enrollmentID, examID string) ([]Answer, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT enrollment_id,exam_id,question_id,answer,is_correct,score_awarded,updated_at
		FROM student_answers WHERE enrollment_id=$1 AND exam_id=$2`,
		enrollmentID, examID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Answer{}
	for rows.Next() {
		var a Answer
		if err := rows.Scan(&a.EnrollmentID, &a.ExamID, &a.QuestionID, &a.Answer,
			&a.IsCorrect, &a.ScoreAwarded, &a.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *SQLStore) GetResult(ctx context.Context, enrollmentID, examID string) (Result, error) {
	var r Result
	err := s.db.QueryRowContext(ctx, `
		SELECT enrollment_id,exam_id,total_score_obtained,max_score_possible,grade,graded_at
		FROM exam_results WHERE enrollment_id=$1 AND exam_id=$2`,
		enrollmentID, examID).
		Scan(&r.EnrollmentID, &r.ExamID, &r.TotalScoreObtained, &r.MaxScorePossible, &r.Grade, &r.GradedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Result{}, apperr.NotFound("no result for enrollment %s, exam %s", enrollmentID, examID)
	}
	if err != nil {
		return Result{}, err
	}
	return r, nil
}

func (s *SQLStore) UpsertResult(ctx context.Context, r Result) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO exam_results
		  (enrollment_id,exam_id,total_score_obtained,max_score_possible,grade,graded_at)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (enrollment_id,exam_id) DO UPDATE SET
		  total_score_obtained=EXCLUDED.total_score_obtained,
		  max_score_possible=EXCLUDED.max_score_possible,
		  grade=EXCLUDED.grade,
		  graded_at=EXCLUDED.graded_at`,
		r.EnrollmentID, r.ExamID, r.TotalScoreObtained, r.MaxScorePossible, r.Grade, r.GradedAt)
	return err
}

func (s *SQLStore) ListResults(ctx context.Context, examID string) ([]Result, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT enrollment_id,exam_id,total_score_obtained,max_score_possible,grade,graded_at
		FROM exam_results WHERE exam_id=$1 ORDER BY enrollment_id`, examID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Result{}
	for rows.Next() {
		var r Result
		if err := rows.Scan(&r.EnrollmentID, &r.ExamID, &r.TotalScoreObtained,
			&r.MaxScorePossible, &r.Grade, &r.GradedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLStore) EnrollmentsWithAnswers(ctx context.Context, examID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT enrollment_id FROM student_answers WHERE exam_id=$1
		ORDER BY enrollment_id`, examID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func isBusy(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") || // sqlite
		strings.Contains(msg, "sqlstate 40001") // postgres serialization
}
