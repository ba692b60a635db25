package exam

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strconv"

	"github.com/opencampus/admissions/internal/apperr"
)

type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

func (s *SQLStore) PutExam(ctx context.Context, e Exam) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO exams
		  (id,course_id,discipline_id,name,exam_date,duration_minutes,exam_type,
		   max_score,second_call_eligible,second_call_date,publication_date,created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		e.ID, e.CourseID, e.DisciplineID, e.Name, e.ExamDate, e.DurationMinutes, e.Type,
		e.MaxScore, e.SecondCallEligible, nullInt(e.SecondCallDate), nullInt(e.PublicationDate), e.CreatedAt)
	if err != nil {
		return err
	}
	for _, q := range e.Questions {
		oj, err := json.Marshal(q.Options)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO questions (id,exam_id,text,question_type,options_json,correct_answer,score,position)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
			q.ID, e.ID, q.Text, q.Type, string(oj), q.CorrectAnswer, q.Score, q.Position)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLStore) GetExam(ctx context.Context, id string) (Exam, error) {
	e, err := s.GetExamFull(ctx, id)
	if err != nil {
		return Exam{}, err
	}
	for i := range e.Questions {
		e.Questions[i].CorrectAnswer = ""
	}
	return e, nil
}

func (s *SQLStore) GetExamFull(ctx context.Context, id string) (Exam, error) {
	var (
		e           Exam
		secondCall  sql.NullInt64
		publication sql.NullInt64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id,course_id,discipline_id,name,exam_date,duration_minutes,exam_type,
		       max_score,second_call_eligible,second_call_date,publication_date,created_at
		FROM exams WHERE id=$1`, id).
		Scan(&e.ID, &e.CourseID, &e.DisciplineID, &e.Name, &e.ExamDate, &e.DurationMinutes, &e.Type,
			&e.MaxScore, &e.SecondCallEligible, &secondCall, &publication, &e.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Exam{}, apperr.NotFound("exam %s not found", id)
	}
	if err != nil {
		return Exam{}, err
	}
	e.SecondCallDate = secondCall.Int64
	e.PublicationDate = publication.Int64

	rows, err := s.db.QueryContext(ctx, `
		SELECT id,exam_id,text,question_type,options_json,correct_answer,score,position
		FROM questions WHERE exam_id=$1 ORDER BY position`, id)
	if err != nil {
		return Exam{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			q       Question
			oj      string
			correct sql.NullString
		)
		if err := rows.Scan(&q.ID, &q.ExamID, &q.Text, &q.Type, &oj, &correct, &q.Score, &q.Position); err != nil {
			return Exam{}, err
		}
		if err := json.Unmarshal([]byte(oj), &q.Options); err != nil {
			return Exam{}, err
		}
		q.CorrectAnswer = correct.String
		e.Questions = append(e.Questions, q)
	}
	return e, rows.Err()
}

func (s *SQLStore) ListExams(ctx context.Context, opts ListOpts) ([]Summary, error) {
	q := `
		SELECT e.id,e.course_id,e.discipline_id,e.name,e.exam_date,e.duration_minutes,e.exam_type,
		       (SELECT COUNT(1) FROM questions q WHERE q.exam_id=e.id)
		FROM exams e WHERE 1=1`
	args := []any{}
	if opts.CourseID != "" {
		args = append(args, opts.CourseID)
		q += ` AND e.course_id=$` + strconv.Itoa(len(args))
	}
	q += ` ORDER BY e.exam_date`
	limit := opts.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	args = append(args, limit)
	q += ` LIMIT $` + strconv.Itoa(len(args))
	args = append(args, opts.Offset)
	q += ` OFFSET $` + strconv.Itoa(len(args))

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Summary{}
	for rows.Next() {
		var sm Summary
		if err := rows.Scan(&sm.ID, &sm.CourseID, &sm.DisciplineID, &sm.Name, &sm.ExamDate,
			&sm.DurationMinutes, &sm.Type, &sm.QuestionCount); err != nil {
			return nil, err
		}
		out = append(out, sm)
	}
	return out, rows.Err()
}

func (s *SQLStore) HasAnswers(ctx context.Context, examID string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM student_answers WHERE exam_id=$1 LIMIT 1`, examID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *SQLStore) Reschedule(ctx context.Context, id string, examDate, secondCallDate int64) (Exam, error) {
	e, err := s.GetExamFull(ctx, id)
	if err != nil {
		return Exam{}, err
	}
	locked, err := s.HasAnswers(ctx, id)
	if err != nil {
		return Exam{}, err
	}
	if locked {
		return Exam{}, apperr.StateConflict("exam %s is locked: answers exist", id)
	}
	if err := checkDates(e.SecondCallEligible, examDate, secondCallDate); err != nil {
		return Exam{}, err
	}
	_, err = s.db.ExecContext(ctx,
		`UPDATE exams SET exam_date=$1, second_call_date=$2 WHERE id=$3`,
		examDate, nullInt(secondCallDate), id)
	if err != nil {
		return Exam{}, err
	}
	e.ExamDate = examDate
	e.SecondCallDate = secondCallDate
	return e, nil
}

// checkDates re-validates the second-call invariant on reschedule.
func checkDates(secondCallEligible bool, examDate, secondCallDate int64) error {
	if examDate <= 0 {
		return apperr.Validation("invalid dates",
			apperr.FieldError{Field: "exam_date", Error: "required"})
	}
	if secondCallEligible {
		if secondCallDate == 0 {
			return apperr.Validation("invalid dates",
				apperr.FieldError{Field: "second_call_date", Error: "required when second_call_eligible"})
		}
		if secondCallDate <= examDate {
			return apperr.Validation("invalid dates",
				apperr.FieldError{Field: "second_call_date", Error: "must be strictly after exam_date"})
		}
	}
	return nil
}

func nullInt(v int64) any {
	if v == 0 {
		return nil
	}
	return v
}
