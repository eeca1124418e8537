package middleware

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/dtroode/vverify-server/internal/logger"
	"github.com/dtroode/vverify-server/internal/model"
)

const bearerPrefix = "Bearer "

// Guard resolves tokens and checks roles against the account store.
type Guard interface {
	Authenticate(ctx context.Context, token string) (model.Identity, error)
	RequireRole(ctx context.Context, identity model.Identity, role model.Role) (model.Account, error)
}

// Authenticate validates bearer tokens and puts the caller identity into the request context.
type Authenticate struct {
	guard          Guard
	contextManager model.ContextManager
	logger         *logger.Logger
}

// NewAuthenticate creates a new Authenticate middleware instance.
func NewAuthenticate(guard Guard, contextManager model.ContextManager, logger *logger.Logger) *Authenticate {
	return &Authenticate{guard: guard, contextManager: contextManager, logger: logger}
}

// Handle rejects requests without a valid token with 401.
func (m *Authenticate) Handle(c *fiber.Ctx) error {
	token := bearerToken(c.Get(fiber.HeaderAuthorization))

	identity, err := m.guard.Authenticate(c.UserContext(), token)
	if err != nil {
		return err
	}

	c.SetUserContext(m.contextManager.SetIdentityToContext(c.UserContext(), identity))
	return c.Next()
}

// RequireRole returns a handler that lets through only callers whose stored role is role.
// It must run after Handle.
func (m *Authenticate) RequireRole(role model.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		identity, ok := m.contextManager.GetIdentityFromContext(c.UserContext())
		if !ok {
			return model.NewErrUnauthenticated("No token, authorization denied")
		}

		if _, err := m.guard.RequireRole(c.UserContext(), identity, role); err != nil {
			return err
		}

		return c.Next()
	}
}

func bearerToken(header string) string {
	header = strings.TrimSpace(header)
	if len(header) >= len(bearerPrefix) && strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		return strings.TrimSpace(header[len(bearerPrefix):])
	}
	return header
}
