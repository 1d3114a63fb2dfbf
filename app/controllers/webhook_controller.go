package controllers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/RefTrackApp/RefTrack/app/models"
	"github.com/RefTrackApp/RefTrack/app/repository"
	"github.com/RefTrackApp/RefTrack/internal/pkg/attribution"
	"github.com/RefTrackApp/RefTrack/internal/pkg/database"
	"github.com/RefTrackApp/RefTrack/internal/pkg/fraudcheck"
	"github.com/RefTrackApp/RefTrack/internal/pkg/jobqueue"
	"github.com/RefTrackApp/RefTrack/internal/pkg/statistics"
	"github.com/RefTrackApp/RefTrack/internal/pkg/webhooknotify"
)

const (
	shopifyDomainHeader    = "X-Shopify-Shop-Domain"
	shopifySignatureHeader = "X-Shopify-Hmac-Sha256"
)

// HandleShopifyOrderWebhook ingests an order-created webhook, attributes
// it to an affiliate and creates at most one commission. The endpoint
// always answers 200 for orders it decided not to credit, so Shopify
// does not redeliver them; only infrastructure failures answer 5xx.
func HandleShopifyOrderWebhook(c *fiber.Ctx) error {
	domain := strings.TrimSpace(c.Get(shopifyDomainHeader))
	if domain == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Missing shop domain header"})
	}

	db := database.GetDB()
	if db == nil {
		return respondError(c, errors.New("database unavailable"))
	}

	shop, err := models.FindShopByDomain(db, domain)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Unknown shop"})
		}
		return respondError(c, err)
	}

	payload := c.Body()
	if !attribution.VerifyOrderWebhookSignature(payload, c.Get(shopifySignatureHeader), shop.WebhookSecret) {
		log.Warnf("[Webhook] Order webhook for %s failed signature verification", domain)
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Invalid webhook signature"})
	}

	order, err := attribution.ParseOrderPayload(payload)
	if err != nil {
		return badRequest(c, err.Error())
	}

	svc := attribution.NewServiceFromDB(db)
	result, err := svc.Attribute(c.Context(), shop, order)
	if err != nil {
		return respondError(c, err)
	}

	if !result.Created() {
		return c.JSON(fiber.Map{"received": true, "skipped": result.Skipped})
	}

	commission := result.Commission
	screenNewCommission(c, shop, commission, order)
	statistics.ResetCacheUpdateTimer(shop.ID)

	queue := jobqueue.GetManager().GetQueue()
	if _, err := queue.EnqueueWebhookDelivery(commission.ID, webhooknotify.EventCommissionCreated); err != nil {
		log.Errorf("[Webhook] Failed to enqueue postback for commission %d: %v", commission.ID, err)
	}

	return c.JSON(fiber.Map{
		"received":      true,
		"commission_id": commission.ID,
	})
}

// screenNewCommission runs the fraud rules over a fresh commission.
// Screening failures only log; the commission is already persisted and
// an admin reviews it before any money moves.
func screenNewCommission(c *fiber.Ctx, shop *models.Shop, commission *models.Commission, order *attribution.OrderEvent) {
	affiliate, err := repository.GetGlobalFactory().GetAffiliateRepository().GetByID(shop.ID, commission.AffiliateID)
	if err != nil {
		log.Errorf("[Fraud] Cannot load affiliate %d for screening commission %d: %v", commission.AffiliateID, commission.ID, err)
		return
	}

	checker := fraudcheck.NewCheckerFromDB(database.GetDB())
	flags, err := checker.Screen(c.Context(), commission, order, affiliate)
	if err != nil {
		log.Errorf("[Fraud] Screening commission %d failed: %v", commission.ID, err)
		return
	}
	if len(flags) > 0 {
		log.Infof("[Fraud] Commission %d flagged %d time(s)", commission.ID, len(flags))
	}
}
