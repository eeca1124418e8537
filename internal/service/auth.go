package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dtroode/vverify-server/internal/config"
	"github.com/dtroode/vverify-server/internal/logger"
	"github.com/dtroode/vverify-server/internal/model"
	"github.com/dtroode/vverify-server/internal/phone"
	"github.com/dtroode/vverify-server/internal/password"
)

const (
	otpSubject  = "Your OTP for V-Verify"
	otpBodyTmpl = "Your OTP code is %s. It expires in 10 minutes."

	msgSignupPending = "Signup successful. Check your email for the OTP to verify your account."
	msgSignupUpdated = "Account updated. You can now log in."
)

// OTP issue reasons reported to the recorder.
const (
	reasonSignup  = "signup"
	reasonLogin   = "login"
	reasonRequest = "request"
)

// Recorder receives auth lifecycle events for metrics.
type Recorder interface {
	OTPIssued(reason string)
	OTPDeliveryFailed()
}

type noopRecorder struct{}

func (noopRecorder) OTPIssued(string)   {}
func (noopRecorder) OTPDeliveryFailed() {}

// SignupResult tells the caller which signup branch was taken.
type SignupResult struct {
	Message              string
	VerificationRequired bool
}

// Auth drives the account lifecycle: signup, login, passcode issue and consumption, profile.
type Auth struct {
	accountStore model.AccountStore
	hasher       model.PasswordHasher
	otpGenerator model.OTPGenerator
	tokenManager model.TokenManager
	notifier     model.Notifier
	recorder     Recorder
	adminEmail   string
	logger       *logger.Logger
	now          func() time.Time
}

type AuthOption func(*Auth)

// WithRecorder reports issued passcodes and delivery failures to r.
func WithRecorder(r Recorder) AuthOption {
	return func(a *Auth) { a.recorder = r }
}

// WithClock overrides the time source used for expiry checks and timestamps.
func WithClock(now func() time.Time) AuthOption {
	return func(a *Auth) { a.now = now }
}

func NewAuth(
	cfg *config.Config,
	accountStore model.AccountStore,
	hasher model.PasswordHasher,
	otpGenerator model.OTPGenerator,
	tokenManager model.TokenManager,
	notifier model.Notifier,
	logger *logger.Logger,
	opts ...AuthOption,
) *Auth {
	a := &Auth{
		accountStore: accountStore,
		hasher:       hasher,
		otpGenerator: otpGenerator,
		tokenManager: tokenManager,
		notifier:     notifier,
		recorder:     noopRecorder{},
		adminEmail:   cfg.AdminEmail,
		logger:       logger,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Signup registers a new account or completes an existing one.
// A verified account that already has a password is never modified.
func (a *Auth) Signup(ctx context.Context, email, plainPassword, name string) (SignupResult, error) {
	a.logger.Debug("Auth service: starting signup",
		"email", email)

	if email == "" || plainPassword == "" {
		return SignupResult{}, model.NewErrBadRequest("Email and password are required")
	}

	account, exists, err := a.findByEmail(ctx, email)
	if err != nil {
		return SignupResult{}, err
	}

	if exists && account.Verified && account.HasPassword() {
		a.logger.Info("Auth service: signup for existing account",
			"email", email)
		return SignupResult{}, model.NewErrConflict("Account already exists. Please log in instead.")
	}

	digest, err := a.hashPassword(plainPassword)
	if err != nil {
		return SignupResult{}, err
	}

	now := a.now()
	if !exists {
		account = model.Account{
			ID:        uuid.New(),
			Email:     email,
			Name:      name,
			Role:      model.RoleStandard,
			CreatedAt: now,
		}
	} else if name != "" {
		account.Name = name
	}
	account.PasswordHash = digest
	account.UpdatedAt = now

	if account.Verified {
		// Verified placeholder without a password: finish it without another OTP round.
		account.OTP = nil
		if _, err := a.save(ctx, account, exists); err != nil {
			return SignupResult{}, err
		}

		a.logger.Info("Auth service: password set on verified account",
			"email", email,
			"user_id", account.ID)
		return SignupResult{Message: msgSignupUpdated}, nil
	}

	code, err := a.issueOTP(&account)
	if err != nil {
		return SignupResult{}, err
	}
	if _, err := a.save(ctx, account, exists); err != nil {
		return SignupResult{}, err
	}
	a.deliverOTP(ctx, email, code, reasonSignup)

	a.logger.Info("Auth service: signup completed, verification pending",
		"email", email,
		"user_id", account.ID,
		"new_account", !exists)

	return SignupResult{Message: msgSignupPending, VerificationRequired: true}, nil
}

// Login returns a session token for verified accounts with matching credentials.
// An unverified account gets a fresh passcode and a Forbidden error instead.
func (a *Auth) Login(ctx context.Context, email, plainPassword string) (string, error) {
	a.logger.Debug("Auth service: starting login",
		"email", email)

	if email == "" || plainPassword == "" {
		return "", model.NewErrBadRequest("Email and password are required")
	}

	account, exists, err := a.findByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if !exists || !account.HasPassword() || !a.hasher.Verify(plainPassword, account.PasswordHash) {
		a.logger.Info("Auth service: login rejected",
			"email", email)
		return "", model.NewErrInvalidCredentials()
	}

	if !account.Verified {
		code, err := a.issueOTP(&account)
		if err != nil {
			return "", err
		}
		account.UpdatedAt = a.now()
		if _, err := a.save(ctx, account, true); err != nil {
			return "", err
		}
		a.deliverOTP(ctx, email, code, reasonLogin)

		a.logger.Info("Auth service: login of unverified account, passcode reissued",
			"email", email,
			"user_id", account.ID)
		return "", model.NewErrVerificationRequired()
	}

	token, err := a.issueToken(account)
	if err != nil {
		return "", err
	}

	a.logger.Info("Auth service: login successful",
		"email", email,
		"user_id", account.ID)

	return token, nil
}

// RequestOTP replaces any pending passcode of the account with a fresh one.
func (a *Auth) RequestOTP(ctx context.Context, email string) error {
	a.logger.Debug("Auth service: passcode requested",
		"email", email)

	if email == "" {
		return model.NewErrBadRequest("Email required")
	}

	account, exists, err := a.findByEmail(ctx, email)
	if err != nil {
		return err
	}
	if !exists {
		return model.NewErrNotFound("User not found")
	}

	code, err := a.issueOTP(&account)
	if err != nil {
		return err
	}
	account.UpdatedAt = a.now()
	if _, err := a.save(ctx, account, true); err != nil {
		return err
	}
	a.deliverOTP(ctx, email, code, reasonRequest)

	a.logger.Info("Auth service: passcode issued",
		"email", email,
		"user_id", account.ID)

	return nil
}

// VerifyOTP consumes the pending passcode, marks the account verified and returns a session token.
// A mismatching code is reported before an expired one.
func (a *Auth) VerifyOTP(ctx context.Context, email, code string) (string, error) {
	a.logger.Debug("Auth service: verifying passcode",
		"email", email)

	if email == "" || code == "" {
		return "", model.NewErrBadRequest("Email and OTP required")
	}

	account, exists, err := a.findByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if !exists {
		return "", model.NewErrBadRequest("User not found")
	}

	if account.OTP == nil || account.OTP.Code != code {
		a.logger.Info("Auth service: passcode mismatch",
			"email", email,
			"user_id", account.ID)
		return "", model.NewErrInvalidOTP()
	}
	if account.OTP.Expired(a.now()) {
		a.logger.Info("Auth service: passcode expired",
			"email", email,
			"user_id", account.ID)
		return "", model.NewErrOTPExpired()
	}

	account.Verified = true
	account.OTP = nil
	if a.adminEmail != "" && account.Email == a.adminEmail {
		account.Role = model.RoleAdmin
	}
	account.UpdatedAt = a.now()

	account, err = a.save(ctx, account, true)
	if err != nil {
		return "", err
	}

	token, err := a.issueToken(account)
	if err != nil {
		return "", err
	}

	a.logger.Info("Auth service: account verified",
		"email", email,
		"user_id", account.ID,
		"role", account.Role)

	return token, nil
}

// GetProfile returns the stored account of the caller.
func (a *Auth) GetProfile(ctx context.Context, userID uuid.UUID) (model.Account, error) {
	account, err := a.accountStore.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.Account{}, model.NewErrNotFound("User not found")
		}
		a.logger.Error("Auth service: failed to get account by id",
			"user_id", userID,
			"error", err.Error())
		return model.Account{}, fmt.Errorf("failed to get account by id: %w", err)
	}

	return account, nil
}

// UpdateProfile overwrites the provided profile fields of the caller.
func (a *Auth) UpdateProfile(ctx context.Context, userID uuid.UUID, update model.ProfileUpdate) (model.Account, error) {
	account, err := a.GetProfile(ctx, userID)
	if err != nil {
		return model.Account{}, err
	}

	if update.Name != nil {
		account.Name = *update.Name
	}
	if update.Phone != nil {
		account.Phone = phone.Normalize(*update.Phone)
	}
	account.UpdatedAt = a.now()

	account, err = a.save(ctx, account, true)
	if err != nil {
		return model.Account{}, err
	}

	a.logger.Info("Auth service: profile updated",
		"user_id", userID)

	return account, nil
}

// CheckAdmin reports whether the caller's stored role is admin, along with that role.
func (a *Auth) CheckAdmin(ctx context.Context, userID uuid.UUID) (bool, model.Role, error) {
	account, err := a.GetProfile(ctx, userID)
	if err != nil {
		return false, "", err
	}
	return account.IsAdmin(), account.Role, nil
}

func (a *Auth) findByEmail(ctx context.Context, email string) (model.Account, bool, error) {
	account, err := a.accountStore.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.Account{}, false, nil
		}
		a.logger.Error("Auth service: failed to get account by email",
			"email", email,
			"error", err.Error())
		return model.Account{}, false, fmt.Errorf("failed to get account by email: %w", err)
	}
	return account, true, nil
}

func (a *Auth) save(ctx context.Context, account model.Account, exists bool) (model.Account, error) {
	var (
		saved model.Account
		err   error
	)
	if exists {
		saved, err = a.accountStore.Update(ctx, account)
	} else {
		saved, err = a.accountStore.Create(ctx, account)
	}
	if err != nil {
		a.logger.Error("Auth service: failed to save account",
			"user_id", account.ID,
			"new_account", !exists,
			"error", err.Error())
		return model.Account{}, fmt.Errorf("failed to save account: %w", err)
	}
	return saved, nil
}

func (a *Auth) hashPassword(plainPassword string) (string, error) {
	digest, err := a.hasher.Hash(plainPassword)
	if err != nil {
		if errors.Is(err, password.ErrTooLong) {
			return "", model.NewErrBadRequest("Password is too long")
		}
		a.logger.Error("Auth service: failed to hash password",
			"error", err.Error())
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return digest, nil
}

// issueOTP replaces the pending passcode of account and returns the new code.
func (a *Auth) issueOTP(account *model.Account) (string, error) {
	otp, err := a.otpGenerator.Generate()
	if err != nil {
		a.logger.Error("Auth service: failed to generate passcode",
			"user_id", account.ID,
			"error", err.Error())
		return "", fmt.Errorf("failed to generate otp: %w", err)
	}
	account.OTP = &otp
	return otp.Code, nil
}

// deliverOTP is best effort. The passcode is already stored, so a delivery
// failure is logged and never returned.
func (a *Auth) deliverOTP(ctx context.Context, email, code, reason string) {
	a.recorder.OTPIssued(reason)

	err := a.notifier.Send(ctx, email, otpSubject, fmt.Sprintf(otpBodyTmpl, code))
	if err != nil {
		a.recorder.OTPDeliveryFailed()
		a.logger.Error("Auth service: failed to deliver passcode",
			"email", email,
			"reason", reason,
			"error", err.Error())
	}
}

func (a *Auth) issueToken(account model.Account) (string, error) {
	token, err := a.tokenManager.GenerateToken(model.Identity{
		UserID: account.ID,
		Email:  account.Email,
		Role:   account.Role,
	})
	if err != nil {
		a.logger.Error("Auth service: failed to generate session token",
			"user_id", account.ID,
			"error", err.Error())
		return "", fmt.Errorf("failed to generate session token: %w", err)
	}
	return token, nil
}
