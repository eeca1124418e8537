package handler

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/dtroode/vverify-server/internal/logger"
	"github.com/dtroode/vverify-server/internal/model"
	"github.com/dtroode/vverify-server/internal/service"
)

// AuthService defines account lifecycle operations.
type AuthService interface {
	Signup(ctx context.Context, email, password, name string) (service.SignupResult, error)
	Login(ctx context.Context, email, password string) (string, error)
	RequestOTP(ctx context.Context, email string) error
	VerifyOTP(ctx context.Context, email, code string) (string, error)
	GetProfile(ctx context.Context, userID uuid.UUID) (model.Account, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, update model.ProfileUpdate) (model.Account, error)
	CheckAdmin(ctx context.Context, userID uuid.UUID) (bool, model.Role, error)
}

// Auth handles /api/auth endpoints.
type Auth struct {
	authService    AuthService
	contextManager model.ContextManager
	logger         *logger.Logger
}

// NewAuth creates a new Auth handler.
func NewAuth(authService AuthService, contextManager model.ContextManager, logger *logger.Logger) *Auth {
	return &Auth{
		authService:    authService,
		contextManager: contextManager,
		logger:         logger,
	}
}

// credentials accepts both "email" and "identity" for the account address.
type credentials struct {
	Email    string `json:"email"`
	Identity string `json:"identity"`
	Password string `json:"password"`
}

func (r credentials) address() string {
	if r.Email != "" {
		return r.Email
	}
	return r.Identity
}

func (r credentials) Validate() error {
	return validation.Errors{
		"email":    validation.Validate(r.address(), validation.Required),
		"password": validation.Validate(r.Password, validation.Required),
	}.Filter()
}

type signupRequest struct {
	credentials
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
}

func (r signupRequest) displayName() string {
	if r.Name != "" {
		return r.Name
	}
	return r.DisplayName
}

type otpRequest struct {
	Email    string `json:"email"`
	Identity string `json:"identity"`
	OTP      string `json:"otp"`
}

func (r otpRequest) address() string {
	if r.Email != "" {
		return r.Email
	}
	return r.Identity
}

type profileRequest struct {
	Name        *string `json:"name"`
	DisplayName *string `json:"displayName"`
	Phone       *string `json:"phone"`
}

func (r profileRequest) update() model.ProfileUpdate {
	name := r.Name
	if name == nil {
		name = r.DisplayName
	}
	return model.ProfileUpdate{Name: name, Phone: r.Phone}
}

// Signup registers an account and sends a verification passcode.
func (h *Auth) Signup(c *fiber.Ctx) error {
	var req signupRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if err := req.Validate(); err != nil {
		return model.NewErrBadRequest("Email and password are required")
	}

	h.logger.Debug("Auth handler: processing signup request",
		"email", req.address())

	result, err := h.authService.Signup(c.UserContext(), req.address(), req.Password, req.displayName())
	if err != nil {
		return err
	}

	return c.JSON(messageResponse{Message: result.Message})
}

// Login exchanges credentials for a session token.
func (h *Auth) Login(c *fiber.Ctx) error {
	var req credentials
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if err := req.Validate(); err != nil {
		return model.NewErrBadRequest("Email and password are required")
	}

	token, err := h.authService.Login(c.UserContext(), req.address(), req.Password)
	if err != nil {
		return err
	}

	return c.JSON(tokenResponse{Token: token})
}

// RequestOTP issues a fresh passcode.
func (h *Auth) RequestOTP(c *fiber.Ctx) error {
	var req otpRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	address := req.address()
	if err := validation.Validate(address, validation.Required); err != nil {
		return model.NewErrBadRequest("Email required")
	}

	if err := h.authService.RequestOTP(c.UserContext(), address); err != nil {
		return err
	}

	return c.JSON(messageResponse{Message: "OTP sent"})
}

// VerifyOTP consumes a passcode and returns a session token.
func (h *Auth) VerifyOTP(c *fiber.Ctx) error {
	var req otpRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	address := req.address()
	err := validation.Errors{
		"email": validation.Validate(address, validation.Required),
		"otp":   validation.Validate(req.OTP, validation.Required),
	}.Filter()
	if err != nil {
		return model.NewErrBadRequest("Email and OTP required")
	}

	token, err := h.authService.VerifyOTP(c.UserContext(), address, req.OTP)
	if err != nil {
		return err
	}

	return c.JSON(tokenResponse{Token: token})
}

// Me returns the caller's redacted account.
func (h *Auth) Me(c *fiber.Ctx) error {
	identity, err := h.identity(c)
	if err != nil {
		return err
	}

	account, err := h.authService.GetProfile(c.UserContext(), identity.UserID)
	if err != nil {
		return err
	}

	return c.JSON(userResponse{User: newAccountResponse(account)})
}

// UpdateMe changes the caller's name and phone. Omitted fields are kept.
func (h *Auth) UpdateMe(c *fiber.Ctx) error {
	identity, err := h.identity(c)
	if err != nil {
		return err
	}

	var req profileRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	account, err := h.authService.UpdateProfile(c.UserContext(), identity.UserID, req.update())
	if err != nil {
		return err
	}

	return c.JSON(userResponse{User: newAccountResponse(account), Message: "Profile updated"})
}

// CheckAdmin reports whether the caller currently holds the admin role.
func (h *Auth) CheckAdmin(c *fiber.Ctx) error {
	identity, err := h.identity(c)
	if err != nil {
		return err
	}

	isAdmin, role, err := h.authService.CheckAdmin(c.UserContext(), identity.UserID)
	if err != nil {
		return err
	}

	return c.JSON(checkAdminResponse{IsAdmin: isAdmin, Role: role})
}

// Hello is a static greeting kept for frontend connectivity checks.
func (h *Auth) Hello(c *fiber.Ctx) error {
	c.Type("html")
	return c.SendString("<h1>Hello from V-Verify backend server</h1>")
}

func (h *Auth) identity(c *fiber.Ctx) (model.Identity, error) {
	identity, ok := h.contextManager.GetIdentityFromContext(c.UserContext())
	if !ok {
		return model.Identity{}, model.NewErrUnauthenticated("No token, authorization denied")
	}
	return identity, nil
}

// parseBody decodes a JSON body. An empty body leaves dst untouched.
func parseBody(c *fiber.Ctx, dst any) error {
	if len(c.Body()) == 0 {
		return nil
	}
	if err := c.BodyParser(dst); err != nil {
		return model.NewErrBadRequest("Invalid request body")
	}
	return nil
}
