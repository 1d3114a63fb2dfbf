package router

import (
	"time"

	"github.com/RefTrackApp/RefTrack/app/controllers"
	"github.com/RefTrackApp/RefTrack/internal/pkg/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

func (h ApiRouter) registerAdminRoutes(v1 fiber.Router) {
	admin := v1.Group("/admin")

	// Login must stay reachable without a session, so it is registered
	// before the guard below. The limiter slows credential stuffing.
	admin.Post("/login", loginLimiter(), controllers.HandleAPILogin)

	authed := v1.Group("/admin", middleware.RequireAPISessionAuth)
	authed.Post("/logout", controllers.HandleAPILogout)
	authed.Get("/session", controllers.HandleAPISession)
	authed.Get("/dashboard/summary", controllers.HandleDashboardSummary)

	// Affiliate management
	authed.Get("/affiliates", controllers.HandleAffiliateList)
	authed.Post("/affiliates", controllers.HandleAffiliateCreate)
	authed.Get("/affiliates/:id", controllers.HandleAffiliateGet)
	authed.Put("/affiliates/:id", controllers.HandleAffiliateUpdate)
	authed.Delete("/affiliates/:id", controllers.HandleAffiliateDelete)
	authed.Post("/affiliates/:id/terms", controllers.HandleAffiliateChangeTerms)

	// Offer management
	authed.Get("/offers", controllers.HandleOfferList)
	authed.Post("/offers", controllers.HandleOfferCreate)
	authed.Get("/offers/:id", controllers.HandleOfferGet)
	authed.Put("/offers/:id", controllers.HandleOfferUpdate)
	authed.Delete("/offers/:id", controllers.HandleOfferDelete)

	// Commission lifecycle
	authed.Get("/commissions", controllers.HandleCommissionList)
	authed.Get("/commissions/:id", controllers.HandleCommissionGet)
	authed.Post("/commissions/validate", controllers.HandleCommissionValidate)
	authed.Post("/commissions/approve", controllers.HandleCommissionApprove)
	authed.Post("/commissions/reject", controllers.HandleCommissionReject)

	// Fraud review
	authed.Get("/fraud", controllers.HandleFraudList)
	authed.Post("/fraud/resolve", controllers.HandleFraudResolve)

	// Payout runs + reports
	authed.Get("/payout-runs", controllers.HandlePayoutRunList)
	authed.Post("/payout-runs", controllers.HandlePayoutRunCreate)
	authed.Get("/payout-runs/:id", controllers.HandlePayoutRunGet)
	authed.Post("/payout-runs/:id/approve", controllers.HandlePayoutRunApprove)
	authed.Post("/payout-runs/:id/discard", controllers.HandlePayoutRunDiscard)
	authed.Get("/payouts/reports", controllers.HandlePayoutReport)

	// Queue monitor
	authed.Get("/queues/stats", controllers.HandleQueueStats)
	authed.Get("/queues/entries", controllers.HandleQueueEntries)
	authed.Delete("/queues/entries/:key", controllers.HandleQueueEntryDelete)
	authed.Post("/queues/bulk-delete", controllers.HandleQueueBulkDelete)
}

func (h ApiRouter) registerAnalyticsRoutes(v1 fiber.Router) {
	analytics := v1.Group("/analytics", middleware.RequireAPISessionAuth)
	analytics.Get("/stats", controllers.HandleAnalyticsStats)
	analytics.Get("/live", controllers.HandleAnalyticsLive)
}

func loginLimiter() fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        10,
		Expiration: time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":   "rate_limited",
				"message": "Too many login attempts, try again shortly",
			})
		},
	})
}
