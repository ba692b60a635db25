package exam

import "context"

type ListOpts struct {
	CourseID string
	Limit    int
	Offset   int
}

type Store interface {
	// PutExam persists the exam and its questions atomically: either
	// all rows land or none.
	PutExam(ctx context.Context, e Exam) error

	// GetExam is student-safe: correct answers are stripped.
	GetExam(ctx context.Context, id string) (Exam, error)
	// GetExamFull keeps the answer keys, for grading and staff views.
	GetExamFull(ctx context.Context, id string) (Exam, error)

	ListExams(ctx context.Context, opts ListOpts) ([]Summary, error)

	// Reschedule updates the date fields, re-validating the second-call
	// invariant. Locked once any answer exists against the exam.
	Reschedule(ctx context.Context, id string, examDate, secondCallDate int64) (Exam, error)

	// HasAnswers reports whether any student answer exists for the
	// exam; once true the question bank is immutable.
	HasAnswers(ctx context.Context, examID string) (bool, error)
}
