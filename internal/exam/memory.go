package exam

import (
	"context"
	"sort"
	"sync"

	"github.com/opencampus/admissions/internal/apperr"
)

// MemoryStore backs unit tests and dev runs without a database.
type MemoryStore struct {
	mu       sync.RWMutex
	exams    map[string]Exam
	answered map[string]bool
}

func NewInMemoryStore() *MemoryStore {
	return &MemoryStore{exams: map[string]Exam{}, answered: map[string]bool{}}
}

// NoteAnswer marks the exam as having at least one student answer,
// locking its question bank. The SQL store derives this from the
// student_answers table.
func (m *MemoryStore) NoteAnswer(examID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.answered[examID] = true
}

func (m *MemoryStore) PutExam(_ context.Context, e Exam) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.exams[e.ID] = e
	return nil
}

func (m *MemoryStore) GetExam(ctx context.Context, id string) (Exam, error) {
	e, err := m.GetExamFull(ctx, id)
	if err != nil {
		return Exam{}, err
	}
	qs := make([]Question, len(e.Questions))
	copy(qs, e.Questions)
	for i := range qs {
		qs[i].CorrectAnswer = ""
	}
	e.Questions = qs
	return e, nil
}

func (m *MemoryStore) GetExamFull(_ context.Context, id string) (Exam, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.exams[id]
	if !ok {
		return Exam{}, apperr.NotFound("exam %s not found", id)
	}
	return e, nil
}

func (m *MemoryStore) ListExams(_ context.Context, opts ListOpts) ([]Summary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []Summary{}
	for _, e := range m.exams {
		if opts.CourseID != "" && e.CourseID != opts.CourseID {
			continue
		}
		out = append(out, Summary{
			ID:              e.ID,
			CourseID:        e.CourseID,
			DisciplineID:    e.DisciplineID,
			Name:            e.Name,
			ExamDate:        e.ExamDate,
			DurationMinutes: e.DurationMinutes,
			Type:            e.Type,
			QuestionCount:   len(e.Questions),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExamDate < out[j].ExamDate })
	if opts.Offset > 0 {
		if opts.Offset >= len(out) {
			return []Summary{}, nil
		}
		out = out[opts.Offset:]
	}
	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out, nil
}

func (m *MemoryStore) HasAnswers(_ context.Context, examID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.answered[examID], nil
}

func (m *MemoryStore) Reschedule(_ context.Context, id string, examDate, secondCallDate int64) (Exam, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.exams[id]
	if !ok {
		return Exam{}, apperr.NotFound("exam %s not found", id)
	}
	if m.answered[id] {
		return Exam{}, apperr.StateConflict("exam %s is locked: answers exist", id)
	}
	if err := checkDates(e.SecondCallEligible, examDate, secondCallDate); err != nil {
		return Exam{}, err
	}
	e.ExamDate = examDate
	e.SecondCallDate = secondCallDate
	m.exams[id] = e
	return e, nil
}
