package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SubmissionStore defines persistence operations for verification requests.
type SubmissionStore interface {
	Create(ctx context.Context, submission Submission) (Submission, error)
	GetByID(ctx context.Context, id uuid.UUID) (Submission, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]Submission, error)
	List(ctx context.Context, limit int) ([]Submission, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status SubmissionStatus) (Submission, error)
}

// SubmissionStatus enumerates review states of a submission.
type SubmissionStatus string

const (
	// SubmissionPending is the initial state.
	SubmissionPending SubmissionStatus = "pending"
	// SubmissionInProgress means an administrator picked the request up.
	SubmissionInProgress SubmissionStatus = "in-progress"
	// SubmissionCompleted is a finished verification.
	SubmissionCompleted SubmissionStatus = "completed"
	// SubmissionRejected is a declined verification.
	SubmissionRejected SubmissionStatus = "rejected"
)

// SubmissionStatuses lists every status an administrator may assign.
var SubmissionStatuses = []SubmissionStatus{
	SubmissionPending,
	SubmissionInProgress,
	SubmissionCompleted,
	SubmissionRejected,
}

// Submission is a verification request owned by exactly one account.
type Submission struct {
	ID               uuid.UUID
	UserID           uuid.UUID
	FullName         string
	Phone            string
	VerificationType string
	Relationship     string
	Email            string
	Status           SubmissionStatus
	CreatedAt        time.Time
}

// CreateSubmissionParams contains caller-supplied submission fields.
// The owner always comes from the authenticated identity.
type CreateSubmissionParams struct {
	FullName         string
	Phone            string
	VerificationType string
	Relationship     string
	Email            string
}

// SubmissionWithOwner pairs a submission with its owner account, if it still exists.
type SubmissionWithOwner struct {
	Submission
	Owner *Account
}
