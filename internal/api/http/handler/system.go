package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/dtroode/vverify-server/internal/logger"
	"github.com/dtroode/vverify-server/internal/model"
)

const pingTimeout = 2 * time.Second

// System serves liveness and readiness endpoints.
type System struct {
	pinger model.Pinger
	logger *logger.Logger
}

func NewSystem(pinger model.Pinger, logger *logger.Logger) *System {
	return &System{pinger: pinger, logger: logger}
}

// Root answers with a plain-text banner.
func (h *System) Root(c *fiber.Ctx) error {
	return c.SendString("v-verify server running")
}

// Health reports 503 while the account store is unreachable.
func (h *System) Health(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), pingTimeout)
	defer cancel()

	if err := h.pinger.Ping(ctx); err != nil {
		h.logger.Warn("System handler: store ping failed",
			"error", err.Error())
		return c.Status(http.StatusServiceUnavailable).JSON(fiber.Map{"status": "unavailable"})
	}

	return c.JSON(fiber.Map{"status": "ok"})
}
