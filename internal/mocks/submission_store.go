package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/dtroode/vverify-server/internal/model"
)

// SubmissionStore is a testify mock of model.SubmissionStore.
type SubmissionStore struct {
	mock.Mock
}

func (m *SubmissionStore) Create(ctx context.Context, submission model.Submission) (model.Submission, error) {
	args := m.Called(ctx, submission)
	return args.Get(0).(model.Submission), args.Error(1)
}

func (m *SubmissionStore) GetByID(ctx context.Context, id uuid.UUID) (model.Submission, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.Submission), args.Error(1)
}

func (m *SubmissionStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Submission, error) {
	args := m.Called(ctx, userID)
	if v := args.Get(0); v != nil {
		return v.([]model.Submission), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *SubmissionStore) List(ctx context.Context, limit int) ([]model.Submission, error) {
	args := m.Called(ctx, limit)
	if v := args.Get(0); v != nil {
		return v.([]model.Submission), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *SubmissionStore) UpdateStatus(ctx context.Context, id uuid.UUID, status model.SubmissionStatus) (model.Submission, error) {
	args := m.Called(ctx, id, status)
	return args.Get(0).(model.Submission), args.Error(1)
}
