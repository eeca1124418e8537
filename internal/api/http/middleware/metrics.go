package middleware

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
)

const (
	unmatchedRouteKey   = "vverify.unmatched_route"
	unmatchedRouteLabel = "unmatched"
)

// RequestObserver records request outcomes.
type RequestObserver interface {
	ObserveRequest(method, route string, status int, duration time.Duration)
}

// Metrics reports per-route request counts and latencies.
type Metrics struct {
	observer RequestObserver
}

func NewMetrics(observer RequestObserver) *Metrics {
	return &Metrics{observer: observer}
}

// Handle must wrap Logging so that the response status is final when observed.
// Requests that reached NotFound are reported under a single "unmatched" route.
func (m *Metrics) Handle(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()

	route := c.Route().Path
	if unmatched, _ := c.Locals(unmatchedRouteKey).(bool); unmatched {
		route = unmatchedRouteLabel
	}

	m.observer.ObserveRequest(c.Method(), route, c.Response().StatusCode(), time.Since(start))
	return err
}

// NotFound terminates requests no route handled. Register it last with app.Use.
func NotFound(c *fiber.Ctx) error {
	c.Locals(unmatchedRouteKey, true)
	return fiber.NewError(fiber.StatusNotFound, fmt.Sprintf("Cannot %s %s", c.Method(), c.Path()))
}
