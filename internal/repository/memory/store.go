// Package memory is the development fallback used when no database is configured.
// Data lives only as long as the process.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/dtroode/vverify-server/internal/model"
)

var (
	_ model.AccountStore    = (*AccountRepository)(nil)
	_ model.SubmissionStore = (*SubmissionRepository)(nil)
	_ model.Pinger          = (*Store)(nil)
)

// Store holds both repositories behind one lock.
type Store struct {
	mu          sync.RWMutex
	accounts    map[uuid.UUID]model.Account
	emails      map[string]uuid.UUID
	submissions map[uuid.UUID]model.Submission
}

func NewStore() *Store {
	return &Store{
		accounts:    make(map[uuid.UUID]model.Account),
		emails:      make(map[string]uuid.UUID),
		submissions: make(map[uuid.UUID]model.Submission),
	}
}

// Ping always succeeds unless ctx is done.
func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *Store) Accounts() *AccountRepository {
	return &AccountRepository{store: s}
}

func (s *Store) Submissions() *SubmissionRepository {
	return &SubmissionRepository{store: s}
}

// cloneAccount detaches the pending passcode so callers never share it with the map.
func cloneAccount(a model.Account) model.Account {
	if a.OTP != nil {
		otp := *a.OTP
		a.OTP = &otp
	}
	return a
}

type AccountRepository struct {
	store *Store
}

func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (model.Account, error) {
	if err := ctx.Err(); err != nil {
		return model.Account{}, err
	}

	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	id, ok := r.store.emails[email]
	if !ok {
		return model.Account{}, model.ErrNotFound
	}
	return cloneAccount(r.store.accounts[id]), nil
}

func (r *AccountRepository) GetByID(ctx context.Context, id uuid.UUID) (model.Account, error) {
	if err := ctx.Err(); err != nil {
		return model.Account{}, err
	}

	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	account, ok := r.store.accounts[id]
	if !ok {
		return model.Account{}, model.ErrNotFound
	}
	return cloneAccount(account), nil
}

func (r *AccountRepository) Create(ctx context.Context, account model.Account) (model.Account, error) {
	if err := ctx.Err(); err != nil {
		return model.Account{}, err
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.emails[account.Email]; ok {
		return model.Account{}, model.ErrAlreadyExists
	}
	if _, ok := r.store.accounts[account.ID]; ok {
		return model.Account{}, model.ErrAlreadyExists
	}

	account = cloneAccount(account)
	r.store.accounts[account.ID] = account
	r.store.emails[account.Email] = account.ID
	return cloneAccount(account), nil
}

// Update replaces the stored record wholesale. Email is immutable.
func (r *AccountRepository) Update(ctx context.Context, account model.Account) (model.Account, error) {
	if err := ctx.Err(); err != nil {
		return model.Account{}, err
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	existing, ok := r.store.accounts[account.ID]
	if !ok {
		return model.Account{}, model.ErrNotFound
	}

	account = cloneAccount(account)
	account.Email = existing.Email
	account.CreatedAt = existing.CreatedAt
	r.store.accounts[account.ID] = account
	return cloneAccount(account), nil
}

// List returns accounts newest first.
func (r *AccountRepository) List(ctx context.Context) ([]model.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	accounts := make([]model.Account, 0, len(r.store.accounts))
	for _, a := range r.store.accounts {
		accounts = append(accounts, cloneAccount(a))
	}
	sort.Slice(accounts, func(i, j int) bool {
		return accounts[i].CreatedAt.After(accounts[j].CreatedAt)
	})
	return accounts, nil
}

type SubmissionRepository struct {
	store *Store
}

func (r *SubmissionRepository) Create(ctx context.Context, submission model.Submission) (model.Submission, error) {
	if err := ctx.Err(); err != nil {
		return model.Submission{}, err
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.submissions[submission.ID]; ok {
		return model.Submission{}, model.ErrAlreadyExists
	}
	r.store.submissions[submission.ID] = submission
	return submission, nil
}

func (r *SubmissionRepository) GetByID(ctx context.Context, id uuid.UUID) (model.Submission, error) {
	if err := ctx.Err(); err != nil {
		return model.Submission{}, err
	}

	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	s, ok := r.store.submissions[id]
	if !ok {
		return model.Submission{}, model.ErrNotFound
	}
	return s, nil
}

func (r *SubmissionRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Submission, error) {
	return r.filter(ctx, 0, func(s model.Submission) bool { return s.UserID == userID })
}

// List returns submissions newest first. A non-positive limit returns all of them.
func (r *SubmissionRepository) List(ctx context.Context, limit int) ([]model.Submission, error) {
	return r.filter(ctx, limit, func(model.Submission) bool { return true })
}

func (r *SubmissionRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.SubmissionStatus) (model.Submission, error) {
	if err := ctx.Err(); err != nil {
		return model.Submission{}, err
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	s, ok := r.store.submissions[id]
	if !ok {
		return model.Submission{}, model.ErrNotFound
	}
	s.Status = status
	r.store.submissions[id] = s
	return s, nil
}

func (r *SubmissionRepository) filter(ctx context.Context, limit int, keep func(model.Submission) bool) ([]model.Submission, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.store.mu.RLock()
	out := make([]model.Submission, 0)
	for _, s := range r.store.submissions {
		if keep(s) {
			out = append(out, s)
		}
	}
	r.store.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
