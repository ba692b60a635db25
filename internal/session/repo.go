package session

import "context"

type Store interface {
	// OpenAttempt inserts the attempt if none exists for the pair and
	// returns the stored row either way, so a reconnecting client gets
	// the original deadline back.
	OpenAttempt(ctx context.Context, a Attempt) (Attempt, error)
	GetAttempt(ctx context.Context, enrollmentID, examID string) (Attempt, error)
	CloseAttempt(ctx context.Context, enrollmentID, examID string, closedAt int64, trigger Trigger) error
	// ListExpired returns open attempts whose deadline is strictly
	// before now.
	ListExpired(ctx context.Context, now int64, limit int) ([]Attempt, error)

	// UpsertAnswer is keyed on (enrollment, question): a repeat call
	// replaces the row instead of inserting a duplicate.
	UpsertAnswer(ctx context.Context, a Answer) error
	ListAnswers(ctx context.Context, enrollmentID, examID string) ([]Answer, error)

	GetResult(ctx context.Context, enrollmentID, examID string) (Result, error)
	UpsertResult(ctx context.Context, r Result) error
	ListResults(ctx context.Context, examID string) ([]Result, error)
	// EnrollmentsWithAnswers lists the enrollments holding at least one
	// answer for the exam, for bulk re-grading.
	EnrollmentsWithAnswers(ctx context.Context, examID string) ([]string, error)
}
