package enrollment

import "github.com/opencampus/admissions/internal/apperr"

type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusCompleted Status = "completed"
)

// edges holds the legal status transitions. rejected and completed are
// terminal.
var edges = map[Status][]Status{
	StatusPending:  {StatusApproved, StatusRejected},
	StatusApproved: {StatusCompleted},
}

func ValidStatus(s Status) bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusCompleted:
		return true
	}
	return false
}

func CanTransition(from, to Status) bool {
	for _, t := range edges[from] {
		if t == to {
			return true
		}
	}
	return false
}

// CheckTransition is the single gate both stores use before mutating a
// status: actor must be admin or staff, and the edge must exist.
func CheckTransition(current, target Status, actorRole string) error {
	if actorRole != "admin" && actorRole != "staff" {
		return apperr.Forbidden("role %q may not transition enrollments", actorRole)
	}
	if !ValidStatus(target) {
		return apperr.Validation("unknown status", apperr.FieldError{Field: "status", Error: "must be one of pending, approved, rejected, completed"})
	}
	if !CanTransition(current, target) {
		return apperr.StateConflict("illegal transition %s -> %s", current, target)
	}
	return nil
}

type Candidate struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
	CreatedAt int64  `json:"created_at"`
}

type Enrollment struct {
	ID          string `json:"id"`
	CandidateID string `json:"candidate_id"`
	CourseID    string `json:"course_id"`
	Code        string `json:"code"`
	Status      Status `json:"status"`
	EnrolledAt  int64  `json:"enrolled_at"`
	UpdatedAt   int64  `json:"updated_at"`
}

type ValidationStatus string

const (
	DocPending   ValidationStatus = "pending"
	DocValidated ValidationStatus = "validated"
	DocRejected  ValidationStatus = "rejected"
)

// Document records metadata only; bytes live in the blob store.
type Document struct {
	ID               string           `json:"id"`
	EnrollmentID     string           `json:"enrollment_id"`
	Type             string           `json:"type"`
	Path             string           `json:"path"`
	ValidationStatus ValidationStatus `json:"validation_status"`
	UploadedAt       int64            `json:"uploaded_at"`
}
