package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/dtroode/vverify-server/internal/logger"
	"github.com/dtroode/vverify-server/internal/model"
	"github.com/dtroode/vverify-server/internal/phone"
)

const (
	exportContentType = "text/csv"
	exportLinkTTL     = 15 * time.Minute
)

var exportHeader = []string{"Full Name", "Phone", "Email", "Verification Type", "Relationship", "Status", "Created At"}

// Export is a generated CSV of all submissions. Either URL and Key are set,
// when the file was archived, or Data holds the file itself.
type Export struct {
	FileName string
	Key      string
	URL      string
	Data     []byte
}

// Submission handles verification requests and their administration.
type Submission struct {
	submissionStore model.SubmissionStore
	accountStore    model.AccountStore
	storage         model.Storage
	logger          *logger.Logger
	now             func() time.Time
}

// NewSubmission creates the service. storage may be nil, then exports are returned inline.
func NewSubmission(
	submissionStore model.SubmissionStore,
	accountStore model.AccountStore,
	storage model.Storage,
	logger *logger.Logger,
) *Submission {
	return &Submission{
		submissionStore: submissionStore,
		accountStore:    accountStore,
		storage:         storage,
		logger:          logger,
		now:             time.Now,
	}
}

// Create stores a submission owned by the authenticated caller.
func (s *Submission) Create(ctx context.Context, identity model.Identity, params model.CreateSubmissionParams) (model.Submission, error) {
	s.logger.Debug("Submission service: creating submission",
		"user_id", identity.UserID)

	if params.FullName == "" || params.Phone == "" || params.VerificationType == "" || params.Relationship == "" {
		return model.Submission{}, model.NewErrBadRequest("Missing required fields")
	}

	owner, err := s.accountStore.GetByID(ctx, identity.UserID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.Submission{}, model.NewErrUnauthenticated("Unauthorized")
		}
		s.logger.Error("Submission service: failed to get owner",
			"user_id", identity.UserID,
			"error", err.Error())
		return model.Submission{}, fmt.Errorf("failed to get account by id: %w", err)
	}

	email := params.Email
	if email == "" {
		email = owner.Email
	}

	submission := model.Submission{
		ID:               uuid.New(),
		UserID:           owner.ID,
		FullName:         params.FullName,
		Phone:            phone.Normalize(params.Phone),
		VerificationType: params.VerificationType,
		Relationship:     params.Relationship,
		Email:            email,
		Status:           model.SubmissionPending,
		CreatedAt:        s.now(),
	}

	saved, err := s.submissionStore.Create(ctx, submission)
	if err != nil {
		s.logger.Error("Submission service: failed to create submission",
			"user_id", owner.ID,
			"error", err.Error())
		return model.Submission{}, fmt.Errorf("failed to create submission: %w", err)
	}

	s.logger.Info("Submission service: submission saved",
		"user_id", owner.ID,
		"submission_id", saved.ID)

	return saved, nil
}

// ListMine returns the caller's submissions, newest first.
func (s *Submission) ListMine(ctx context.Context, identity model.Identity) ([]model.Submission, error) {
	submissions, err := s.submissionStore.ListByUser(ctx, identity.UserID)
	if err != nil {
		s.logger.Error("Submission service: failed to list user submissions",
			"user_id", identity.UserID,
			"error", err.Error())
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	return submissions, nil
}

// ListUsers returns every account, newest first.
func (s *Submission) ListUsers(ctx context.Context) ([]model.Account, error) {
	accounts, err := s.accountStore.List(ctx)
	if err != nil {
		s.logger.Error("Submission service: failed to list accounts",
			"error", err.Error())
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	return accounts, nil
}

// ListAll returns submissions newest first with their owners attached.
// A non-positive limit returns all of them.
func (s *Submission) ListAll(ctx context.Context, limit int) ([]model.SubmissionWithOwner, error) {
	submissions, err := s.submissionStore.List(ctx, limit)
	if err != nil {
		s.logger.Error("Submission service: failed to list submissions",
			"limit", limit,
			"error", err.Error())
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}

	owners := make(map[uuid.UUID]*model.Account)
	result := make([]model.SubmissionWithOwner, 0, len(submissions))
	for _, submission := range submissions {
		owner, seen := owners[submission.UserID]
		if !seen {
			account, err := s.accountStore.GetByID(ctx, submission.UserID)
			switch {
			case err == nil:
				owner = &account
			case errors.Is(err, model.ErrNotFound):
				owner = nil
			default:
				s.logger.Error("Submission service: failed to get owner",
					"user_id", submission.UserID,
					"error", err.Error())
				return nil, fmt.Errorf("failed to get account by id: %w", err)
			}
			owners[submission.UserID] = owner
		}
		result = append(result, model.SubmissionWithOwner{Submission: submission, Owner: owner})
	}

	return result, nil
}

// UpdateStatus sets the review status of a submission.
func (s *Submission) UpdateStatus(ctx context.Context, id uuid.UUID, status model.SubmissionStatus) (model.Submission, error) {
	if !slices.Contains(model.SubmissionStatuses, status) {
		return model.Submission{}, model.NewErrBadRequest("Invalid status")
	}

	updated, err := s.submissionStore.UpdateStatus(ctx, id, status)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.Submission{}, model.NewErrNotFound("Submission not found")
		}
		s.logger.Error("Submission service: failed to update status",
			"submission_id", id,
			"error", err.Error())
		return model.Submission{}, fmt.Errorf("failed to update submission status: %w", err)
	}

	s.logger.Info("Submission service: status updated",
		"submission_id", id,
		"status", status)

	return updated, nil
}

// Export renders all submissions as CSV and archives it when storage is configured.
func (s *Submission) Export(ctx context.Context) (Export, error) {
	submissions, err := s.submissionStore.List(ctx, 0)
	if err != nil {
		s.logger.Error("Submission service: failed to list submissions for export",
			"error", err.Error())
		return Export{}, fmt.Errorf("failed to list submissions: %w", err)
	}

	data, err := renderCSV(submissions)
	if err != nil {
		return Export{}, fmt.Errorf("failed to render csv: %w", err)
	}

	now := s.now()
	export := Export{
		FileName: fmt.Sprintf("submissions_%s.csv", now.Format(time.DateOnly)),
	}
	if s.storage == nil {
		export.Data = data
		return export, nil
	}

	key := fmt.Sprintf("exports/submissions_%s_%s.csv", now.Format(time.DateOnly), uuid.NewString())
	if err := s.storage.Upload(ctx, key, bytes.NewReader(data), int64(len(data)), exportContentType); err != nil {
		s.logger.Error("Submission service: failed to upload export",
			"key", key,
			"error", err.Error())
		return Export{}, fmt.Errorf("failed to upload export: %w", err)
	}

	url, err := s.storage.PresignGet(ctx, key, exportLinkTTL)
	if err != nil {
		s.logger.Error("Submission service: failed to presign export",
			"key", key,
			"error", err.Error())
		return Export{}, fmt.Errorf("failed to presign export: %w", err)
	}

	s.logger.Info("Submission service: export archived",
		"key", key,
		"rows", len(submissions))

	export.Key = key
	export.URL = url
	return export, nil
}

func renderCSV(submissions []model.Submission) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(exportHeader); err != nil {
		return nil, err
	}
	for _, s := range submissions {
		record := []string{
			s.FullName,
			s.Phone,
			s.Email,
			s.VerificationType,
			s.Relationship,
			string(s.Status),
			s.CreatedAt.UTC().Format(time.RFC3339),
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()

	return buf.Bytes(), w.Error()
}
