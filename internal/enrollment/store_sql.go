package enrollment

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/opencampus/admissions/internal/apperr"
)

type SQLStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db, now: time.Now}
}

func (s *SQLStore) CreateCandidate(ctx context.Context, c Candidate) (Candidate, error) {
	if c.Name == "" || c.Email == "" {
		return Candidate{}, apperr.Validation("name and email required",
			apperr.FieldError{Field: "name", Error: "required"},
			apperr.FieldError{Field: "email", Error: "required"})
	}
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM candidates WHERE email=$1`, c.Email).Scan(&exists)
	if err == nil {
		return Candidate{}, apperr.StateConflict("email %s already registered", c.Email)
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return Candidate{}, err
	}
	c.ID = uuid.NewString()
	c.CreatedAt = s.now().Unix()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO candidates (id,name,email,phone,created_at) VALUES ($1,$2,$3,$4,$5)`,
		c.ID, c.Name, c.Email, c.Phone, c.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return Candidate{}, apperr.StateConflict("email %s already registered", c.Email)
		}
		return Candidate{}, err
	}
	return c, nil
}

func (s *SQLStore) GetCandidate(ctx context.Context, id string) (Candidate, error) {
	var c Candidate
	err := s.db.QueryRowContext(ctx,
		`SELECT id,name,email,phone,created_at FROM candidates WHERE id=$1`, id).
		Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Candidate{}, apperr.NotFound("candidate %s not found", id)
	}
	if err != nil {
		return Candidate{}, err
	}
	return c, nil
}

func (s *SQLStore) CourseExists(ctx context.Context, id string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM courses WHERE id=$1`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Submit creates the enrollment in status pending. The code read/
// increment/insert runs in one transaction; on a unique-constraint
// collision with a concurrent registration the cycle retries exactly
// once before surfacing a conflict.
func (s *SQLStore) Submit(ctx context.Context, candidateID, courseID string) (Enrollment, error) {
	cand, err := s.GetCandidate(ctx, candidateID)
	if err != nil {
		return Enrollment{}, err
	}
	ok, err := s.CourseExists(ctx, courseID)
	if err != nil {
		return Enrollment{}, err
	}
	if !ok {
		return Enrollment{}, apperr.NotFound("course %s not found", courseID)
	}

	// One identity, one admissions record: any enrollment owned by this
	// email (across candidate rows) blocks a second one.
	var one int
	err = s.db.QueryRowContext(ctx, `
		SELECT 1 FROM enrollments e
		JOIN candidates c ON c.id = e.candidate_id
		WHERE c.email = $1`, cand.Email).Scan(&one)
	if err == nil {
		return Enrollment{}, apperr.StateConflict("email %s already owns an enrollment", cand.Email)
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return Enrollment{}, err
	}

	e, err := s.insertWithCode(ctx, candidateID, courseID)
	if err != nil && isUniqueViolation(err) {
		e, err = s.insertWithCode(ctx, candidateID, courseID)
		if err != nil {
			if isUniqueViolation(err) {
				return Enrollment{}, apperr.Transient("enrollment code generation conflict", err)
			}
			return Enrollment{}, err
		}
	}
	return e, err
}

func (s *SQLStore) insertWithCode(ctx context.Context, candidateID, courseID string) (Enrollment, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Enrollment{}, err
	}
	defer func() { _ = tx.Rollback() }()

	now := s.now()
	prefix := codePrefix(courseID, now.Year())

	var last string
	err = tx.QueryRowContext(ctx, `
		SELECT code FROM enrollments WHERE code LIKE $1 ORDER BY code DESC LIMIT 1`,
		prefix+"%").Scan(&last)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return Enrollment{}, err
	}
	seq, err := nextSeq(last)
	if err != nil {
		return Enrollment{}, apperr.Fatal("corrupt enrollment code sequence", err)
	}

	e := Enrollment{
		ID:          uuid.NewString(),
		CandidateID: candidateID,
		CourseID:    courseID,
		Code:        formatCode(courseID, now.Year(), seq),
		Status:      StatusPending,
		EnrolledAt:  now.Unix(),
		UpdatedAt:   now.Unix(),
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO enrollments (id,candidate_id,course_id,code,status,enrolled_at,updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		e.ID, e.CandidateID, e.CourseID, e.Code, e.Status, e.EnrolledAt, e.UpdatedAt)
	if err != nil {
		return Enrollment{}, err
	}
	if err := tx.Commit(); err != nil {
		return Enrollment{}, err
	}
	return e, nil
}

func (s *SQLStore) Get(ctx context.Context, id string) (Enrollment, error) {
	var e Enrollment
	err := s.db.QueryRowContext(ctx, `
		SELECT id,candidate_id,course_id,code,status,enrolled_at,updated_at
		FROM enrollments WHERE id=$1`, id).
		Scan(&e.ID, &e.CandidateID, &e.CourseID, &e.Code, &e.Status, &e.EnrolledAt, &e.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Enrollment{}, apperr.NotFound("enrollment %s not found", id)
	}
	if err != nil {
		return Enrollment{}, err
	}
	return e, nil
}

func (s *SQLStore) Transition(ctx context.Context, id string, target Status, actorRole string) (Enrollment, error) {
	e, err := s.Get(ctx, id)
	if err != nil {
		return Enrollment{}, err
	}
	if err := CheckTransition(e.Status, target, actorRole); err != nil {
		return Enrollment{}, err
	}
	e.Status = target
	e.UpdatedAt = s.now().Unix()
	_, err = s.db.ExecContext(ctx,
		`UPDATE enrollments SET status=$1, updated_at=$2 WHERE id=$3`,
		e.Status, e.UpdatedAt, e.ID)
	if err != nil {
		return Enrollment{}, err
	}
	return e, nil
}

func (s *SQLStore) List(ctx context.Context, opts ListOpts) ([]Enrollment, error) {
	q := `SELECT id,candidate_id,course_id,code,status,enrolled_at,updated_at FROM enrollments WHERE 1=1`
	args := []any{}
	if opts.Status != "" {
		args = append(args, opts.Status)
		q += ` AND status=$` + itoa(len(args))
	}
	if opts.CourseID != "" {
		args = append(args, opts.CourseID)
		q += ` AND course_id=$` + itoa(len(args))
	}
	q += ` ORDER BY code`
	limit := opts.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	args = append(args, limit)
	q += ` LIMIT $` + itoa(len(args))
	args = append(args, opts.Offset)
	q += ` OFFSET $` + itoa(len(args))

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Enrollment{}
	for rows.Next() {
		var e Enrollment
		if err := rows.Scan(&e.ID, &e.CandidateID, &e.CourseID, &e.Code, &e.Status, &e.EnrolledAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *SQLStore) AddDocument(ctx context.Context, d Document) (Document, error) {
	if _, err := s.Get(ctx, d.EnrollmentID); err != nil {
		return Document{}, err
	}
	d.ID = uuid.NewString()
	if d.ValidationStatus == "" {
		d.ValidationStatus = DocPending
	}
	d.UploadedAt = s.now().Unix()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (id,enrollment_id,doc_type,path,validation_status,uploaded_at)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		d.ID, d.EnrollmentID, d.Type, d.Path, d.ValidationStatus, d.UploadedAt)
	if err != nil {
		return Document{}, err
	}
	return d, nil
}

func (s *SQLStore) SetDocumentValidation(ctx context.Context, docID string, status ValidationStatus) (Document, error) {
	switch status {
	case DocPending, DocValidated, DocRejected:
	default:
		return Document{}, apperr.Validation("unknown validation status",
			apperr.FieldError{Field: "validation_status", Error: "must be pending, validated or rejected"})
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE documents SET validation_status=$1 WHERE id=$2`, status, docID)
	if err != nil {
		return Document{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return Document{}, apperr.NotFound("document %s not found", docID)
	}
	var d Document
	err = s.db.QueryRowContext(ctx, `
		SELECT id,enrollment_id,doc_type,path,validation_status,uploaded_at
		FROM documents WHERE id=$1`, docID).
		Scan(&d.ID, &d.EnrollmentID, &d.Type, &d.Path, &d.ValidationStatus, &d.UploadedAt)
	if err != nil {
		return Document{}, err
	}
	return d, nil
}

func (s *SQLStore) ListDocuments(ctx context.Context, enrollmentID string) ([]Document, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id,enrollment_id,doc_type,path,validation_status,uploaded_at
		FROM documents WHERE enrollment_id=$1 ORDER BY uploaded_at`, enrollmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Document{}
	for rows.Next() {
		var d Document
		if err := rows.Scan(&d.ID, &d.EnrollmentID, &d.Type, &d.Path, &d.ValidationStatus, &d.UploadedAt); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint failed") || // sqlite
		strings.Contains(msg, "sqlstate 23505") || // postgres
		strings.Contains(msg, "duplicate key value")
}

func itoa(n int) string { return strconv.Itoa(n) }
