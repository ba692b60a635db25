package enrollment

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/opencampus/admissions/internal/apperr"
)

// memoryStore backs unit tests and dev runs without a database.
type memoryStore struct {
	mu          sync.RWMutex
	candidates  map[string]Candidate
	courses     map[string]bool
	enrollments map[string]Enrollment
	documents   map[string]Document
	now         func() time.Time
}

func NewInMemoryStore(courseIDs ...string) Store {
	m := &memoryStore{
		candidates:  map[string]Candidate{},
		courses:     map[string]bool{},
		enrollments: map[string]Enrollment{},
		documents:   map[string]Document{},
		now:         time.Now,
	}
	for _, id := range courseIDs {
		m.courses[id] = true
	}
	return m
}

func (m *memoryStore) CreateCandidate(_ context.Context, c Candidate) (Candidate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ex := range m.candidates {
		if ex.Email == c.Email {
			return Candidate{}, apperr.StateConflict("email %s already registered", c.Email)
		}
	}
	c.ID = uuid.NewString()
	c.CreatedAt = m.now().Unix()
	m.candidates[c.ID] = c
	return c, nil
}

func (m *memoryStore) GetCandidate(_ context.Context, id string) (Candidate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.candidates[id]
	if !ok {
		return Candidate{}, apperr.NotFound("candidate %s not found", id)
	}
	return c, nil
}

func (m *memoryStore) CourseExists(_ context.Context, id string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.courses[id], nil
}

func (m *memoryStore) Submit(_ context.Context, candidateID, courseID string) (Enrollment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cand, ok := m.candidates[candidateID]
	if !ok {
		return Enrollment{}, apperr.NotFound("candidate %s not found", candidateID)
	}
	if !m.courses[courseID] {
		return Enrollment{}, apperr.NotFound("course %s not found", courseID)
	}
	for _, e := range m.enrollments {
		if c, ok := m.candidates[e.CandidateID]; ok && c.Email == cand.Email {
			return Enrollment{}, apperr.StateConflict("email %s already owns an enrollment", cand.Email)
		}
	}

	now := m.now()
	prefix := codePrefix(courseID, now.Year())
	last := ""
	for _, e := range m.enrollments {
		if strings.HasPrefix(e.Code, prefix) && e.Code > last {
			last = e.Code
		}
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
	m.enrollments[e.ID] = e
	return e, nil
}

func (m *memoryStore) Get(_ context.Context, id string) (Enrollment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.enrollments[id]
	if !ok {
		return Enrollment{}, apperr.NotFound("enrollment %s not found", id)
	}
	return e, nil
}

func (m *memoryStore) Transition(_ context.Context, id string, target Status, actorRole string) (Enrollment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.enrollments[id]
	if !ok {
		return Enrollment{}, apperr.NotFound("enrollment %s not found", id)
	}
	if err := CheckTransition(e.Status, target, actorRole); err != nil {
		return Enrollment{}, err
	}
	e.Status = target
	e.UpdatedAt = m.now().Unix()
	m.enrollments[id] = e
	return e, nil
}

func (m *memoryStore) List(_ context.Context, opts ListOpts) ([]Enrollment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []Enrollment{}
	for _, e := range m.enrollments {
		if opts.Status != "" && e.Status != opts.Status {
			continue
		}
		if opts.CourseID != "" && e.CourseID != opts.CourseID {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	if opts.Offset > 0 {
		if opts.Offset >= len(out) {
			return []Enrollment{}, nil
		}
		out = out[opts.Offset:]
	}
	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out, nil
}

func (m *memoryStore) AddDocument(_ context.Context, d Document) (Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.enrollments[d.EnrollmentID]; !ok {
		return Document{}, apperr.NotFound("enrollment %s not found", d.EnrollmentID)
	}
	d.ID = uuid.NewString()
	if d.ValidationStatus == "" {
		d.ValidationStatus = DocPending
	}
	d.UploadedAt = m.now().Unix()
	m.documents[d.ID] = d
	return d, nil
}

func (m *memoryStore) SetDocumentValidation(_ context.Context, docID string, status ValidationStatus) (Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.documents[docID]
	if !ok {
		return Document{}, apperr.NotFound("document %s not found", docID)
	}
	switch status {
	case DocPending, DocValidated, DocRejected:
	default:
		return Document{}, apperr.Validation("unknown validation status",
			apperr.FieldError{Field: "validation_status", Error: "must be pending, validated or rejected"})
	}
	d.ValidationStatus = status
	m.documents[docID] = d
	return d, nil
}

func (m *memoryStore) ListDocuments(_ context.Context, enrollmentID string) ([]Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []Document{}
	for _, d := range m.documents {
		if d.EnrollmentID == enrollmentID {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UploadedAt < out[j].UploadedAt })
	return out, nil
}
