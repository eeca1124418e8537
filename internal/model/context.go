package model

import (
	"context"

	"github.com/google/uuid"
)

// Identity is the caller resolved from a valid session token.
// Role is the claim minted into the token and may be stale.
type Identity struct {
	UserID uuid.UUID
	Email  string
	Role   Role
}

type ContextManager interface {
	SetIdentityToContext(ctx context.Context, identity Identity) context.Context
	GetIdentityFromContext(ctx context.Context) (Identity, bool)
}
