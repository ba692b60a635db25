package enrollment

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/opencampus/admissions/internal/apperr"
	"github.com/opencampus/admissions/internal/db"
)

func openTestDB(t *testing.T, name string) *sql.DB {
	t.Helper()
	dbh, err := db.Open(context.Background(), db.DriverSQLite,
		"file:"+name+"?mode=memory&cache=shared&_pragma=busy_timeout(5000)")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	// sqlite serializes writers anyway; a single conn avoids lock errors.
	dbh.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = dbh.Close() })
	return dbh
}

func newTestStore(t *testing.T, name string) (*SQLStore, *sql.DB) {
	t.Helper()
	dbh := openTestDB(t, name)
	if _, err := dbh.Exec(`INSERT INTO courses (id, name) VALUES ('3', 'Medicine')`); err != nil {
		t.Fatalf("seed course: %v", err)
	}
	s := NewSQLStore(dbh)
	s.now = func() time.Time { return time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC) }
	return s, dbh
}

func mustCandidate(t *testing.T, s *SQLStore, name, email string) Candidate {
	t.Helper()
	c, err := s.CreateCandidate(context.Background(), Candidate{Name: name, Email: email})
	if err != nil {
		t.Fatalf("create candidate %s: %v", email, err)
	}
	return c
}

func TestCreateCandidateDuplicateEmail(t *testing.T) {
	s, _ := newTestStore(t, "cand_dup")
	mustCandidate(t, s, "Ana", "ana@example.com")
	_, err := s.CreateCandidate(context.Background(), Candidate{Name: "Ana Clone", Email: "ana@example.com"})
	if apperr.KindOf(err) != apperr.KindStateConflict {
		t.Fatalf("want state conflict, got %v", err)
	}
}

func TestSubmitGeneratesSequentialCodes(t *testing.T) {
	s, _ := newTestStore(t, "codes_seq")
	ctx := context.Background()

	want := []string{"3-2025-0001", "3-2025-0002", "3-2025-0003", "3-2025-0004", "3-2025-0005"}
	for i, w := range want {
		c := mustCandidate(t, s, "C", "c"+w+"@example.com")
		e, err := s.Submit(ctx, c.ID, "3")
		if err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
		if e.Code != w {
			t.Errorf("code %d = %q, want %q", i, e.Code, w)
		}
		if e.Status != StatusPending {
			t.Errorf("status = %s, want pending", e.Status)
		}
	}
}

func TestSubmitDuplicateEmailOwnsEnrollment(t *testing.T) {
	s, _ := newTestStore(t, "enroll_dup")
	ctx := context.Background()
	c := mustCandidate(t, s, "Bob", "bob@example.com")
	if _, err := s.Submit(ctx, c.ID, "3"); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	_, err := s.Submit(ctx, c.ID, "3")
	if apperr.KindOf(err) != apperr.KindStateConflict {
		t.Fatalf("want state conflict, got %v", err)
	}
}

func TestSubmitCourseNotFound(t *testing.T) {
	s, _ := newTestStore(t, "enroll_course404")
	c := mustCandidate(t, s, "Eve", "eve@example.com")
	_, err := s.Submit(context.Background(), c.ID, "999")
	if apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("want not found, got %v", err)
	}
}

func TestSubmitConcurrentRegistrationsDistinctCodes(t *testing.T) {
	s, dbh := newTestStore(t, "codes_race")
	ctx := context.Background()

	c1 := mustCandidate(t, s, "P", "p@example.com")
	c2 := mustCandidate(t, s, "Q", "q@example.com")

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, id := range []string{c1.ID, c2.ID} {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			_, errs[i] = s.Submit(ctx, id, "3")
		}(i, id)
	}
	wg.Wait()
	for i, err := range errs {
		if err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
	}

	rows, err := dbh.Query(`SELECT code, COUNT(1) FROM enrollments GROUP BY code HAVING COUNT(1) > 1`)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	defer rows.Close()
	if rows.Next() {
		var code string
		var n int
		_ = rows.Scan(&code, &n)
		t.Fatalf("duplicate code %q assigned %d times", code, n)
	}
}

func TestTransitionUpdatesStatusAndTimestamp(t *testing.T) {
	s, _ := newTestStore(t, "transition")
	ctx := context.Background()
	c := mustCandidate(t, s, "Tim", "tim@example.com")
	e, err := s.Submit(ctx, c.ID, "3")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	later := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return later }

	got, err := s.Transition(ctx, e.ID, StatusApproved, "staff")
	if err != nil {
		t.Fatalf("transition: %v", err)
	}
	if got.Status != StatusApproved {
		t.Errorf("status = %s", got.Status)
	}
	if got.UpdatedAt != later.Unix() {
		t.Errorf("updated_at = %d, want %d", got.UpdatedAt, later.Unix())
	}
	if got.Code != e.Code {
		t.Errorf("code changed: %q -> %q", e.Code, got.Code)
	}

	if _, err := s.Transition(ctx, e.ID, StatusPending, "staff"); apperr.KindOf(err) != apperr.KindStateConflict {
		t.Errorf("want state conflict going back to pending, got %v", err)
	}
	if _, err := s.Transition(ctx, "missing", StatusApproved, "staff"); apperr.KindOf(err) != apperr.KindNotFound {
		t.Errorf("want not found, got %v", err)
	}
}

func TestDocumentsLifecycle(t *testing.T) {
	s, _ := newTestStore(t, "docs")
	ctx := context.Background()
	c := mustCandidate(t, s, "Doc", "doc@example.com")
	e, err := s.Submit(ctx, c.ID, "3")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	d, err := s.AddDocument(ctx, Document{EnrollmentID: e.ID, Type: "id_card", Path: e.ID + "/id_card.pdf"})
	if err != nil {
		t.Fatalf("add document: %v", err)
	}
	if d.ValidationStatus != DocPending {
		t.Errorf("validation_status = %s, want pending", d.ValidationStatus)
	}

	d, err = s.SetDocumentValidation(ctx, d.ID, DocValidated)
	if err != nil {
		t.Fatalf("set validation: %v", err)
	}
	if d.ValidationStatus != DocValidated {
		t.Errorf("validation_status = %s", d.ValidationStatus)
	}

	if _, err := s.SetDocumentValidation(ctx, d.ID, ValidationStatus("bogus")); apperr.KindOf(err) != apperr.KindValidation {
		t.Errorf("want validation error, got %v", err)
	}

	docs, err := s.ListDocuments(ctx, e.ID)
	if err != nil {
		t.Fatalf("list documents: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("got %d documents, want 1", len(docs))
	}
}
