package handler

import (
	"time"

	"github.com/dtroode/vverify-server/internal/model"
)

type messageResponse struct {
	Message string `json:"message"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

// accountResponse is the redacted public view of an account.
type accountResponse struct {
	ID         string     `json:"id"`
	Email      string     `json:"email"`
	Name       string     `json:"name"`
	Phone      string     `json:"phone"`
	IsVerified bool       `json:"isVerified"`
	Role       model.Role `json:"role"`
	CreatedAt  time.Time  `json:"createdAt"`
}

func newAccountResponse(a model.Account) accountResponse {
	return accountResponse{
		ID:         a.ID.String(),
		Email:      a.Email,
		Name:       a.Name,
		Phone:      a.Phone,
		IsVerified: a.Verified,
		Role:       a.Role,
		CreatedAt:  a.CreatedAt,
	}
}

type userResponse struct {
	User    accountResponse `json:"user"`
	Message string          `json:"message,omitempty"`
}

type checkAdminResponse struct {
	IsAdmin bool       `json:"isAdmin"`
	Role    model.Role `json:"role"`
}

type submissionResponse struct {
	ID               string                 `json:"id"`
	UserID           string                 `json:"userId"`
	User             *accountResponse       `json:"user,omitempty"`
	FullName         string                 `json:"fullName"`
	Phone            string                 `json:"phone"`
	VerificationType string                 `json:"verificationType"`
	Relationship     string                 `json:"relationship"`
	Email            string                 `json:"email"`
	Status           model.SubmissionStatus `json:"status"`
	CreatedAt        time.Time              `json:"createdAt"`
}

func newSubmissionResponse(s model.Submission) submissionResponse {
	return submissionResponse{
		ID:               s.ID.String(),
		UserID:           s.UserID.String(),
		FullName:         s.FullName,
		Phone:            s.Phone,
		VerificationType: s.VerificationType,
		Relationship:     s.Relationship,
		Email:            s.Email,
		Status:           s.Status,
		CreatedAt:        s.CreatedAt,
	}
}

type submissionsResponse struct {
	Submissions []submissionResponse `json:"submissions"`
}

type usersResponse struct {
	Users []accountResponse `json:"users"`
}

type statusUpdateResponse struct {
	Message    string             `json:"message"`
	Submission submissionResponse `json:"submission"`
}

type exportResponse struct {
	URL string `json:"url"`
	Key string `json:"key"`
}
