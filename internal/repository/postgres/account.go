package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dtroode/vverify-server/internal/model"
)

var _ model.AccountStore = (*AccountRepository)(nil)

const accountColumns = `id, email, password_hash, name, phone, is_verified, otp_code, otp_expires_at, role, created_at, updated_at`

type AccountRepository struct {
	db *Connection
}

func NewAccountRepository(db *Connection) *AccountRepository {
	return &AccountRepository{
		db: db,
	}
}

// accountRow mirrors the accounts table, nullable columns included.
type accountRow struct {
	ID           uuid.UUID
	Email        string
	PasswordHash *string
	Name         string
	Phone        string
	Verified     bool
	OTPCode      *string
	OTPExpiresAt *time.Time
	Role         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (r *accountRow) scanTargets() []any {
	return []any{
		&r.ID, &r.Email, &r.PasswordHash, &r.Name, &r.Phone, &r.Verified,
		&r.OTPCode, &r.OTPExpiresAt, &r.Role, &r.CreatedAt, &r.UpdatedAt,
	}
}

func (r accountRow) toModel() model.Account {
	account := model.Account{
		ID:        r.ID,
		Email:     r.Email,
		Name:      r.Name,
		Phone:     r.Phone,
		Verified:  r.Verified,
		Role:      model.Role(r.Role),
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	if r.PasswordHash != nil {
		account.PasswordHash = *r.PasswordHash
	}
	if r.OTPCode != nil && r.OTPExpiresAt != nil {
		account.OTP = &model.PendingOTP{Code: *r.OTPCode, ExpiresAt: *r.OTPExpiresAt}
	}
	return account
}

// accountArgs returns nullable column values for password hash and passcode.
func accountArgs(a model.Account) (passwordHash, otpCode *string, otpExpiresAt *time.Time) {
	if a.PasswordHash != "" {
		passwordHash = &a.PasswordHash
	}
	if a.OTP != nil {
		otpCode = &a.OTP.Code
		otpExpiresAt = &a.OTP.ExpiresAt
	}
	return passwordHash, otpCode, otpExpiresAt
}

func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE email = $1`

	var row accountRow
	err := r.db.QueryRow(ctx, query, email).Scan(row.scanTargets()...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Account{}, model.ErrNotFound
		}
		return model.Account{}, fmt.Errorf("failed to get account by email: %w", err)
	}

	return row.toModel(), nil
}

func (r *AccountRepository) GetByID(ctx context.Context, id uuid.UUID) (model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`

	var row accountRow
	err := r.db.QueryRow(ctx, query, id).Scan(row.scanTargets()...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Account{}, model.ErrNotFound
		}
		return model.Account{}, fmt.Errorf("failed to get account by id: %w", err)
	}

	return row.toModel(), nil
}

func (r *AccountRepository) Create(ctx context.Context, account model.Account) (model.Account, error) {
	query := `INSERT INTO accounts (id, email, password_hash, name, phone, is_verified, otp_code, otp_expires_at, role, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			  RETURNING ` + accountColumns

	passwordHash, otpCode, otpExpiresAt := accountArgs(account)

	var row accountRow
	err := r.db.QueryRow(ctx, query,
		account.ID, account.Email, passwordHash, account.Name, account.Phone, account.Verified,
		otpCode, otpExpiresAt, string(account.Role), account.CreatedAt, account.UpdatedAt,
	).Scan(row.scanTargets()...)
	if err != nil {
		if isUniqueViolation(err) {
			return model.Account{}, model.ErrAlreadyExists
		}
		return model.Account{}, fmt.Errorf("failed to create account: %w", err)
	}

	return row.toModel(), nil
}

// Update overwrites every mutable column of the account.
func (r *AccountRepository) Update(ctx context.Context, account model.Account) (model.Account, error) {
	query := `UPDATE accounts
			  SET password_hash = $2, name = $3, phone = $4, is_verified = $5,
			      otp_code = $6, otp_expires_at = $7, role = $8, updated_at = $9
			  WHERE id = $1
			  RETURNING ` + accountColumns

	passwordHash, otpCode, otpExpiresAt := accountArgs(account)

	var row accountRow
	err := r.db.QueryRow(ctx, query,
		account.ID, passwordHash, account.Name, account.Phone, account.Verified,
		otpCode, otpExpiresAt, string(account.Role), account.UpdatedAt,
	).Scan(row.scanTargets()...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Account{}, model.ErrNotFound
		}
		return model.Account{}, fmt.Errorf("failed to update account: %w", err)
	}

	return row.toModel(), nil
}

func (r *AccountRepository) List(ctx context.Context) ([]model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	accounts := make([]model.Account, 0)
	for rows.Next() {
		var row accountRow
		if err := rows.Scan(row.scanTargets()...); err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, row.toModel())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate accounts: %w", err)
	}

	return accounts, nil
}
