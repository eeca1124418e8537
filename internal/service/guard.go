package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/dtroode/vverify-server/internal/logger"
	"github.com/dtroode/vverify-server/internal/model"
)

// Guard resolves bearer tokens into identities and enforces roles.
type Guard struct {
	tokenManager model.TokenManager
	accountStore model.AccountStore
	logger       *logger.Logger
}

func NewGuard(tokenManager model.TokenManager, accountStore model.AccountStore, logger *logger.Logger) *Guard {
	return &Guard{
		tokenManager: tokenManager,
		accountStore: accountStore,
		logger:       logger,
	}
}

// Authenticate validates token and returns the identity it carries.
// It never touches the account store.
func (g *Guard) Authenticate(_ context.Context, token string) (model.Identity, error) {
	if token == "" {
		return model.Identity{}, model.NewErrUnauthenticated("No token, authorization denied")
	}

	identity, err := g.tokenManager.ParseToken(token)
	if err != nil {
		g.logger.Debug("Guard: token rejected",
			"error", err.Error())
		return model.Identity{}, model.NewErrUnauthenticated("Token is not valid")
	}

	return identity, nil
}

// RequireRole re-reads the account and checks its current role.
// The role claim inside the token is ignored.
func (g *Guard) RequireRole(ctx context.Context, identity model.Identity, role model.Role) (model.Account, error) {
	account, err := g.accountStore.GetByID(ctx, identity.UserID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.Account{}, model.NewErrForbidden(forbiddenMessage(role))
		}
		g.logger.Error("Guard: failed to get account by id",
			"user_id", identity.UserID,
			"error", err.Error())
		return model.Account{}, fmt.Errorf("failed to get account by id: %w", err)
	}

	if account.Role != role {
		g.logger.Info("Guard: role check failed",
			"user_id", identity.UserID,
			"required", role,
			"actual", account.Role)
		return model.Account{}, model.NewErrForbidden(forbiddenMessage(role))
	}

	return account, nil
}

func forbiddenMessage(role model.Role) string {
	if role == model.RoleAdmin {
		return "Admin access required"
	}
	return "Access denied"
}
