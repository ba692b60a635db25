package session

import "github.com/opencampus/admissions/internal/exam"

type Trigger string

const (
	TriggerManual  Trigger = "manual"
	TriggerTimeout Trigger = "timeout"
)

// Attempt is the bookkeeping row behind one student's session for one
// exam. The deadline is fixed at first open; reopening never extends
// it.
type Attempt struct {
	EnrollmentID string  `json:"enrollment_id"`
	ExamID       string  `json:"exam_id"`
	StartedAt    int64   `json:"started_at"`
	Deadline     int64   `json:"deadline"`
	ClosedAt     int64   `json:"closed_at,omitempty"` // zero while open
	Trigger      Trigger `json:"trigger,omitempty"`
}

func (a Attempt) Closed() bool { return a.ClosedAt != 0 }

// Answer is one ledger row per (enrollment, question).
type Answer struct {
	EnrollmentID string  `json:"enrollment_id"`
	ExamID       string  `json:"exam_id"`
	QuestionID   string  `json:"question_id"`
	Answer       string  `json:"answer"`
	IsCorrect    bool    `json:"is_correct"`
	ScoreAwarded float64 `json:"score_awarded"`
	UpdatedAt    int64   `json:"updated_at"`
}

// Result is the single graded outcome per (enrollment, exam).
type Result struct {
	EnrollmentID       string  `json:"enrollment_id"`
	ExamID             string  `json:"exam_id"`
	TotalScoreObtained float64 `json:"total_score_obtained"`
	MaxScorePossible   float64 `json:"max_score_possible"`
	Grade              string  `json:"grade"`
	GradedAt           int64   `json:"graded_at"`
}

// OpenResponse is what a student gets back when a session opens:
// the questions with answer keys stripped, and the authoritative
// deadline.
type OpenResponse struct {
	EnrollmentID string          `json:"enrollment_id"`
	ExamID       string          `json:"exam_id"`
	Questions    []exam.Question `json:"questions"`
	Deadline     int64           `json:"deadline"`
}

// BatchReport is the outcome of an administrative grade-all sweep.
// One enrollment's failure never aborts the others.
type BatchReport struct {
	ExamID   string            `json:"exam_id"`
	Graded   []Result          `json:"graded"`
	Failures map[string]string `json:"failures,omitempty"` // enrollment_id -> error
}
