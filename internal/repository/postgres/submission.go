package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dtroode/vverify-server/internal/model"
)

var _ model.SubmissionStore = (*SubmissionRepository)(nil)

const submissionColumns = `id, user_id, full_name, phone, verification_type, relationship, email, status, created_at`

type SubmissionRepository struct {
	db *Connection
}

func NewSubmissionRepository(db *Connection) *SubmissionRepository {
	return &SubmissionRepository{
		db: db,
	}
}

func scanSubmission(row pgx.Row) (model.Submission, error) {
	var s model.Submission
	var status string
	err := row.Scan(&s.ID, &s.UserID, &s.FullName, &s.Phone, &s.VerificationType,
		&s.Relationship, &s.Email, &status, &s.CreatedAt)
	s.Status = model.SubmissionStatus(status)
	return s, err
}

func (r *SubmissionRepository) Create(ctx context.Context, submission model.Submission) (model.Submission, error) {
	query := `INSERT INTO submissions (id, user_id, full_name, phone, verification_type, relationship, email, status, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			  RETURNING ` + submissionColumns

	saved, err := scanSubmission(r.db.QueryRow(ctx, query,
		submission.ID, submission.UserID, submission.FullName, submission.Phone,
		submission.VerificationType, submission.Relationship, submission.Email,
		string(submission.Status), submission.CreatedAt,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return model.Submission{}, model.ErrAlreadyExists
		}
		return model.Submission{}, fmt.Errorf("failed to create submission: %w", err)
	}

	return saved, nil
}

func (r *SubmissionRepository) GetByID(ctx context.Context, id uuid.UUID) (model.Submission, error) {
	query := `SELECT ` + submissionColumns + ` FROM submissions WHERE id = $1`

	s, err := scanSubmission(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Submission{}, model.ErrNotFound
		}
		return model.Submission{}, fmt.Errorf("failed to get submission: %w", err)
	}

	return s, nil
}

func (r *SubmissionRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Submission, error) {
	query := `SELECT ` + submissionColumns + ` FROM submissions WHERE user_id = $1 ORDER BY created_at DESC`

	return r.list(ctx, query, userID)
}

// List returns submissions newest first. A non-positive limit returns all of them.
func (r *SubmissionRepository) List(ctx context.Context, limit int) ([]model.Submission, error) {
	if limit > 0 {
		query := `SELECT ` + submissionColumns + ` FROM submissions ORDER BY created_at DESC LIMIT $1`
		return r.list(ctx, query, limit)
	}

	query := `SELECT ` + submissionColumns + ` FROM submissions ORDER BY created_at DESC`
	return r.list(ctx, query)
}

func (r *SubmissionRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.SubmissionStatus) (model.Submission, error) {
	query := `UPDATE submissions SET status = $2 WHERE id = $1 RETURNING ` + submissionColumns

	s, err := scanSubmission(r.db.QueryRow(ctx, query, id, string(status)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Submission{}, model.ErrNotFound
		}
		return model.Submission{}, fmt.Errorf("failed to update submission status: %w", err)
	}

	return s, nil
}

func (r *SubmissionRepository) list(ctx context.Context, query string, args ...any) ([]model.Submission, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	defer rows.Close()

	submissions := make([]model.Submission, 0)
	for rows.Next() {
		s, err := scanSubmission(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan submission: %w", err)
		}
		submissions = append(submissions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate submissions: %w", err)
	}

	return submissions, nil
}
