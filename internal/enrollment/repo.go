package enrollment

import "context"

type ListOpts struct {
	Status   Status // optional filter
	CourseID string // optional filter
	Limit    int
	Offset   int
}

type Store interface {
	CreateCandidate(ctx context.Context, c Candidate) (Candidate, error)
	GetCandidate(ctx context.Context, id string) (Candidate, error)

	// Submit creates the enrollment in status pending, generating its
	// code inside the same transaction as the insert.
	Submit(ctx context.Context, candidateID, courseID string) (Enrollment, error)
	Get(ctx context.Context, id string) (Enrollment, error)
	Transition(ctx context.Context, id string, target Status, actorRole string) (Enrollment, error)
	List(ctx context.Context, opts ListOpts) ([]Enrollment, error)

	CourseExists(ctx context.Context, id string) (bool, error)

	AddDocument(ctx context.Context, d Document) (Document, error)
	SetDocumentValidation(ctx context.Context, docID string, status ValidationStatus) (Document, error)
	ListDocuments(ctx context.Context, enrollmentID string) ([]Document, error)
}
