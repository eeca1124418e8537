package handler

import (
	"context"
	"strconv"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/dtroode/vverify-server/internal/logger"
	"github.com/dtroode/vverify-server/internal/model"
	"github.com/dtroode/vverify-server/internal/service"
)

// SubmissionService defines verification request operations.
type SubmissionService interface {
	Create(ctx context.Context, identity model.Identity, params model.CreateSubmissionParams) (model.Submission, error)
	ListMine(ctx context.Context, identity model.Identity) ([]model.Submission, error)
	ListUsers(ctx context.Context) ([]model.Account, error)
	ListAll(ctx context.Context, limit int) ([]model.SubmissionWithOwner, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.SubmissionStatus) (model.Submission, error)
	Export(ctx context.Context) (service.Export, error)
}

// Submission handles /api/submissions endpoints.
type Submission struct {
	submissionService SubmissionService
	contextManager    model.ContextManager
	logger            *logger.Logger
}

// NewSubmission creates a new Submission handler.
func NewSubmission(submissionService SubmissionService, contextManager model.ContextManager, logger *logger.Logger) *Submission {
	return &Submission{
		submissionService: submissionService,
		contextManager:    contextManager,
		logger:            logger,
	}
}

type createSubmissionRequest struct {
	FullName         string `json:"fullName"`
	Phone            string `json:"phone"`
	VerificationType string `json:"verificationType"`
	Relationship     string `json:"relationship"`
	Email            string `json:"email"`
}

func (r createSubmissionRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.FullName, validation.Required),
		validation.Field(&r.Phone, validation.Required),
		validation.Field(&r.VerificationType, validation.Required),
		validation.Field(&r.Relationship, validation.Required),
	)
}

type statusRequest struct {
	Status string `json:"status"`
}

func (r statusRequest) Validate() error {
	allowed := make([]interface{}, 0, len(model.SubmissionStatuses))
	for _, s := range model.SubmissionStatuses {
		allowed = append(allowed, string(s))
	}
	return validation.ValidateStruct(&r,
		validation.Field(&r.Status, validation.Required, validation.In(allowed...)),
	)
}

// Create stores a submission for the caller.
func (h *Submission) Create(c *fiber.Ctx) error {
	identity, ok := h.contextManager.GetIdentityFromContext(c.UserContext())
	if !ok {
		return model.NewErrUnauthenticated("Unauthorized")
	}

	var req createSubmissionRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if err := req.Validate(); err != nil {
		return model.NewErrBadRequest("Missing required fields")
	}
	if err := validation.Validate(req.Email, is.Email); err != nil {
		return model.NewErrBadRequest("Invalid email")
	}

	_, err := h.submissionService.Create(c.UserContext(), identity, model.CreateSubmissionParams{
		FullName:         req.FullName,
		Phone:            req.Phone,
		VerificationType: req.VerificationType,
		Relationship:     req.Relationship,
		Email:            req.Email,
	})
	if err != nil {
		return err
	}

	return c.JSON(messageResponse{Message: "Submission saved"})
}

// ListMine returns the caller's submissions.
func (h *Submission) ListMine(c *fiber.Ctx) error {
	identity, ok := h.contextManager.GetIdentityFromContext(c.UserContext())
	if !ok {
		return model.NewErrUnauthenticated("Unauthorized")
	}

	submissions, err := h.submissionService.ListMine(c.UserContext(), identity)
	if err != nil {
		return err
	}

	resp := submissionsResponse{Submissions: make([]submissionResponse, 0, len(submissions))}
	for _, s := range submissions {
		resp.Submissions = append(resp.Submissions, newSubmissionResponse(s))
	}
	return c.JSON(resp)
}

// ListUsers returns every account, redacted.
func (h *Submission) ListUsers(c *fiber.Ctx) error {
	accounts, err := h.submissionService.ListUsers(c.UserContext())
	if err != nil {
		return err
	}

	resp := usersResponse{Users: make([]accountResponse, 0, len(accounts))}
	for _, a := range accounts {
		resp.Users = append(resp.Users, newAccountResponse(a))
	}
	return c.JSON(resp)
}

// ListAll returns submissions with their owners. An unparsable limit means no limit.
func (h *Submission) ListAll(c *fiber.Ctx) error {
	limit, err := strconv.Atoi(c.Query("limit"))
	if err != nil || limit < 0 {
		limit = 0
	}

	submissions, err := h.submissionService.ListAll(c.UserContext(), limit)
	if err != nil {
		return err
	}

	resp := submissionsResponse{Submissions: make([]submissionResponse, 0, len(submissions))}
	for _, s := range submissions {
		item := newSubmissionResponse(s.Submission)
		if s.Owner != nil {
			owner := newAccountResponse(*s.Owner)
			item.User = &owner
		}
		resp.Submissions = append(resp.Submissions, item)
	}
	return c.JSON(resp)
}

// UpdateStatus changes the review status of a submission.
func (h *Submission) UpdateStatus(c *fiber.Ctx) error {
	var req statusRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if err := req.Validate(); err != nil {
		return model.NewErrBadRequest("Invalid status")
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return model.NewErrNotFound("Submission not found")
	}

	updated, err := h.submissionService.UpdateStatus(c.UserContext(), id, model.SubmissionStatus(req.Status))
	if err != nil {
		return err
	}

	h.logger.Info("Submission handler: status changed",
		"submission_id", id,
		"status", updated.Status)

	return c.JSON(statusUpdateResponse{Message: "Status updated", Submission: newSubmissionResponse(updated)})
}

// Export returns a CSV of all submissions, as a download link when archived.
func (h *Submission) Export(c *fiber.Ctx) error {
	export, err := h.submissionService.Export(c.UserContext())
	if err != nil {
		return err
	}

	if export.URL != "" {
		return c.JSON(exportResponse{URL: export.URL, Key: export.Key})
	}

	c.Attachment(export.FileName)
	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	return c.Send(export.Data)
}
