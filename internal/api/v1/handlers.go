package apiv1

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/RefTrackApp/RefTrack/app/controllers"
	"github.com/RefTrackApp/RefTrack/internal/pkg/middleware"
)

// ServerInterface is the public v1 surface consumed by storefront snippets
// and uptime checks. Everything admin-facing lives in the router's admin
// group instead, behind the session guard.
type ServerInterface interface {
	GetPing(c *fiber.Ctx) error
	PostTrackEvent(c *fiber.Ctx) error
}

// Pong is the ping response body.
type Pong struct {
	Ping string `json:"ping"`
}

// RegisterHandlers wires the public v1 routes onto the given router group.
// The tracking route carries its own rate limit and the tracking-key check
// because it is the only endpoint storefront visitors hit directly.
func RegisterHandlers(router fiber.Router, si ServerInterface) {
	router.Get("/ping", si.GetPing)
	router.Post("/track/event",
		trackLimiter(),
		middleware.TrackingKeyMiddleware(),
		si.PostTrackEvent,
	)
}

// trackLimiter caps beacons per client IP. Storefront pages fire one event
// per page view plus clicks, so the ceiling is generous; it only has to stop
// floods, not shape traffic.
func trackLimiter() fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        300,
		Expiration: time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":   "rate_limited",
				"message": "Too many tracking events",
			})
		},
	})
}

// APIServer implements the ServerInterface
type APIServer struct{}

// NewAPIServer creates a new API server instance
func NewAPIServer() *APIServer {
	return &APIServer{}
}

// GetPing handles the ping endpoint
func (s *APIServer) GetPing(c *fiber.Ctx) error {
	response := Pong{
		Ping: "pong",
	}

	return c.Status(fiber.StatusOK).JSON(response)
}

// PostTrackEvent ingests a storefront beacon. The tracking-key middleware
// already resolved the shop; the controller does the session bookkeeping.
func (s *APIServer) PostTrackEvent(c *fiber.Ctx) error {
	return controllers.HandleTrackEvent(c)
}
