package controllers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/RefTrackApp/RefTrack/app/models"
	"github.com/RefTrackApp/RefTrack/app/repository"
	"github.com/RefTrackApp/RefTrack/internal/pkg/shopcontext"
)

type offerRequest struct {
	Name                   string   `json:"name"`
	CommissionType         string   `json:"commission_type"`
	CommissionAmount       *float64 `json:"commission_amount"`
	Currency               string   `json:"currency"`
	AttributionWindowDays  *int     `json:"attribution_window_days"`
	RebillPolicy           string   `json:"rebill_policy"`
	RebillMaxPayments      *int     `json:"rebill_max_payments"`
	RebillCommissionAmount *float64 `json:"rebill_commission_amount"`
	IsPrivate              *bool    `json:"is_private"`
}

// HandleOfferList returns the shop's offers with pagination.
func HandleOfferList(c *fiber.Ctx) error {
	shopID := shopcontext.GetShopID(c)
	offset, limit := parsePagination(c)

	repo := repository.GetGlobalFactory().GetOfferRepository()
	offers, err := repo.List(shopID, offset, limit)
	if err != nil {
		return respondError(c, err)
	}
	total, err := repo.Count(shopID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"offers": offers,
		"total":  total,
		"offset": offset,
		"limit":  limit,
	})
}

// HandleOfferGet returns one offer by id.
func HandleOfferGet(c *fiber.Ctx) error {
	shopID := shopcontext.GetShopID(c)
	id, err := parseIDParam(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}

	offer, err := repository.GetGlobalFactory().GetOfferRepository().GetByID(shopID, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"offer": offer})
}

// HandleOfferCreate creates an offer and assigns its public number.
func HandleOfferCreate(c *fiber.Ctx) error {
	shopID := shopcontext.GetShopID(c)
	var req offerRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.CommissionAmount == nil {
		return badRequest(c, "commission_amount is required")
	}

	repo := repository.GetGlobalFactory().GetOfferRepository()
	number, err := repo.NextNumber(shopID)
	if err != nil {
		return respondError(c, err)
	}

	offer := &models.Offer{
		ShopID:                shopID,
		OfferNumber:           number,
		Name:                  strings.TrimSpace(req.Name),
		CommissionType:        defaultString(req.CommissionType, models.COMMISSION_TYPE_FLAT),
		CommissionAmount:      *req.CommissionAmount,
		Currency:              strings.ToUpper(defaultString(req.Currency, "USD")),
		AttributionWindowDays: 30,
		RebillPolicy:          defaultString(req.RebillPolicy, models.REBILL_POLICY_NO),
	}
	if req.AttributionWindowDays != nil {
		offer.AttributionWindowDays = *req.AttributionWindowDays
	}
	if req.RebillMaxPayments != nil {
		offer.RebillMaxPayments = *req.RebillMaxPayments
	}
	if req.RebillCommissionAmount != nil {
		offer.RebillCommissionAmount = *req.RebillCommissionAmount
	}
	if req.IsPrivate != nil {
		offer.IsPrivate = *req.IsPrivate
	}

	if err := offer.Validate(); err != nil {
		return badRequest(c, err.Error())
	}
	if err := repo.Create(offer); err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"offer": offer})
}

// HandleOfferUpdate updates an offer's terms. Changed terms apply to
// future attributions only; existing commissions keep their amounts.
func HandleOfferUpdate(c *fiber.Ctx) error {
	shopID := shopcontext.GetShopID(c)
	id, err := parseIDParam(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}

	var req offerRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	repo := repository.GetGlobalFactory().GetOfferRepository()
	offer, err := repo.GetByID(shopID, id)
	if err != nil {
		return respondError(c, err)
	}

	if req.Name != "" {
		offer.Name = strings.TrimSpace(req.Name)
	}
	if req.CommissionType != "" {
		offer.CommissionType = req.CommissionType
	}
	if req.CommissionAmount != nil {
		offer.CommissionAmount = *req.CommissionAmount
	}
	if req.Currency != "" {
		offer.Currency = strings.ToUpper(req.Currency)
	}
	if req.AttributionWindowDays != nil {
		offer.AttributionWindowDays = *req.AttributionWindowDays
	}
	if req.RebillPolicy != "" {
		offer.RebillPolicy = req.RebillPolicy
	}
	if req.RebillMaxPayments != nil {
		offer.RebillMaxPayments = *req.RebillMaxPayments
	}
	if req.RebillCommissionAmount != nil {
		offer.RebillCommissionAmount = *req.RebillCommissionAmount
	}
	if req.IsPrivate != nil {
		offer.IsPrivate = *req.IsPrivate
	}

	if err := offer.Validate(); err != nil {
		return badRequest(c, err.Error())
	}
	if err := repo.Update(offer); err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"offer": offer})
}

// HandleOfferDelete soft deletes an offer. Affiliates still assigned to
// it keep working against the stored terms until they are moved.
func HandleOfferDelete(c *fiber.Ctx) error {
	shopID := shopcontext.GetShopID(c)
	id, err := parseIDParam(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}

	repo := repository.GetGlobalFactory().GetOfferRepository()
	if _, err := repo.GetByID(shopID, id); err != nil {
		return respondError(c, err)
	}
	if err := repo.Delete(shopID, id); err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"message": "Offer deleted"})
}
