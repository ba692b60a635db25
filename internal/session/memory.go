package session

import (
	"context"
	"sort"
	"sync"

	"github.com/opencampus/admissions/internal/apperr"
)

type pairKey struct{ enrollmentID, examID string }
type answerKey struct{ enrollmentID, questionID string }

// memoryStore backs unit tests and dev runs without a database.
type memoryStore struct {
	mu       sync.RWMutex
	attempts map[pairKey]Attempt
	answers  map[answerKey]Answer
	results  map[pairKey]Result
}

func NewInMemoryStore() Store {
	return &memoryStore{
		attempts: map[pairKey]Attempt{},
		answers:  map[answerKey]Answer{},
		results:  map[pairKey]Result{},
	}
}

func (m *memoryStore) OpenAttempt(_ context.Context, a Attempt) (Attempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := pairKey{a.EnrollmentID, a.ExamID}
	if ex, ok := m.attempts[k]; ok {
		return ex, nil
	}
	m.attempts[k] = a
	return a, nil
}

func (m *memoryStore) GetAttempt(_ context.Context, enrollmentID, examID string) (Attempt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.attempts[pairKey{enrollmentID, examID}]
	if !ok {
		return Attempt{}, apperr.NotFound("no session for enrollment %s, exam %s", enrollmentID, examID)
	}
	return a, nil
}

func (m *memoryStore) CloseAttempt(_ context.Context, enrollmentID, examID string, closedAt int64, trigger Trigger) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := pairKey{enrollmentID, examID}
	a, ok := m.attempts[k]
	if !ok || a.Closed() {
		return nil
	}
	a.ClosedAt = closedAt
	a.Trigger = trigger
	m.attempts[k] = a
	return nil
}

func (m *memoryStore) ListExpired(_ context.Context, now int64, limit int) ([]Attempt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []Attempt{}
	for _, a := range m.attempts {
		if !a.Closed() && a.Deadline < now {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Deadline < out[j].Deadline })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memoryStore) UpsertAnswer(_ context.Context, a Answer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.answers[answerKey{a.EnrollmentID, a.QuestionID}] = a
	return nil
}

func (m *memoryStore) ListAnswers(_ context.Context, enrollmentID, examID string) ([]Answer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []Answer{}
	for _, a := range m.answers {
		if a.EnrollmentID == enrollmentID && a.ExamID == examID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].QuestionID < out[j].QuestionID })
	return out, nil
}

func (m *memoryStore) GetResult(_ context.Context, enrollmentID, examID string) (Result, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.results[pairKey{enrollmentID, examID}]
	if !ok {
		return Result{}, apperr.NotFound("no result for enrollment %s, exam %s", enrollmentID, examID)
	}
	return r, nil
}

func (m *memoryStore) UpsertResult(_ context.Context, r Result) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results[pairKey{r.EnrollmentID, r.ExamID}] = r
	return nil
}

func (m *memoryStore) ListResults(_ context.Context, examID string) ([]Result, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []Result{}
	for _, r := range m.results {
		if r.ExamID == examID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EnrollmentID < out[j].EnrollmentID })
	return out, nil
}

func (m *memoryStore) EnrollmentsWithAnswers(_ context.Context, examID string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	seen := map[string]bool{}
	for _, a := range m.answers {
		if a.ExamID == examID {
			seen[a.EnrollmentID] = true
		}
	}
	out := make([]string, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}
