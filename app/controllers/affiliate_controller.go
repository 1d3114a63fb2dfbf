package controllers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/RefTrackApp/RefTrack/app/models"
	"github.com/RefTrackApp/RefTrack/app/repository"
	"github.com/RefTrackApp/RefTrack/internal/pkg/commission"
	"github.com/RefTrackApp/RefTrack/internal/pkg/database"
	"github.com/RefTrackApp/RefTrack/internal/pkg/shopcontext"
	"github.com/RefTrackApp/RefTrack/internal/pkg/statistics"
)

type affiliateRequest struct {
	FirstName       string                 `json:"first_name"`
	LastName        string                 `json:"last_name"`
	CompanyName     string                 `json:"company_name"`
	Email           string                 `json:"email"`
	Status          string                 `json:"status"`
	OfferID         uint                   `json:"offer_id"`
	PayoutMethod    string                 `json:"payout_method"`
	PayoutAccount   string                 `json:"payout_account"`
	PayoutTermsDays *int                   `json:"payout_terms_days"`
	DestinationURL  string                 `json:"destination_url"`
	WebhookURL      string                 `json:"webhook_url"`
	WebhookParams   models.WebhookParamMap `json:"webhook_params"`
}

// HandleAffiliateList returns the shop's affiliates with pagination, or a
// name/email search when q is present.
func HandleAffiliateList(c *fiber.Ctx) error {
	shopID := shopcontext.GetShopID(c)
	repo := repository.GetGlobalFactory().GetAffiliateRepository()

	if q := strings.TrimSpace(c.Query("q")); q != "" {
		affiliates, err := repo.Search(shopID, q)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"affiliates": affiliates, "total": len(affiliates)})
	}

	offset, limit := parsePagination(c)
	affiliates, err := repo.List(shopID, offset, limit)
	if err != nil {
		return respondError(c, err)
	}
	total, err := repo.Count(shopID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"affiliates": affiliates,
		"total":      total,
		"offset":     offset,
		"limit":      limit,
	})
}

// HandleAffiliateGet returns one affiliate by id.
func HandleAffiliateGet(c *fiber.Ctx) error {
	shopID := shopcontext.GetShopID(c)
	id, err := parseIDParam(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}

	affiliate, err := repository.GetGlobalFactory().GetAffiliateRepository().GetByID(shopID, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"affiliate": affiliate})
}

// HandleAffiliateCreate creates an affiliate. The affiliate number is
// assigned here, once, and is immutable afterwards.
func HandleAffiliateCreate(c *fiber.Ctx) error {
	shopID := shopcontext.GetShopID(c)
	var req affiliateRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	repos := repository.GetGlobalFactory()
	if req.OfferID == 0 {
		return badRequest(c, "offer_id is required")
	}
	if _, err := repos.GetOfferRepository().GetByID(shopID, req.OfferID); err != nil {
		return badRequest(c, "Unknown offer")
	}

	number, err := repos.GetAffiliateRepository().NextNumber(shopID)
	if err != nil {
		return respondError(c, err)
	}

	terms := 30
	if req.PayoutTermsDays != nil {
		terms = *req.PayoutTermsDays
	}
	status := req.Status
	if status == "" {
		status = models.AFFILIATE_STATUS_ACTIVE
	}

	affiliate := &models.Affiliate{
		ShopID:          shopID,
		AffiliateNumber: number,
		FirstName:       strings.TrimSpace(req.FirstName),
		LastName:        strings.TrimSpace(req.LastName),
		CompanyName:     strings.TrimSpace(req.CompanyName),
		Email:           strings.TrimSpace(strings.ToLower(req.Email)),
		Status:          status,
		OfferID:         req.OfferID,
		PayoutMethod:    defaultString(req.PayoutMethod, "paypal"),
		PayoutAccount:   strings.TrimSpace(req.PayoutAccount),
		PayoutTermsDays: terms,
		DestinationURL:  strings.TrimSpace(req.DestinationURL),
		WebhookURL:      strings.TrimSpace(req.WebhookURL),
		WebhookParams:   req.WebhookParams,
	}

	if err := affiliate.Validate(); err != nil {
		return badRequest(c, err.Error())
	}
	if err := repos.GetAffiliateRepository().Create(affiliate); err != nil {
		return respondError(c, err)
	}

	statistics.ResetCacheUpdateTimer(shopID)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"affiliate": affiliate})
}

// HandleAffiliateUpdate updates an affiliate's editable fields. The
// affiliate number never changes; payout terms go through the dedicated
// terms endpoint because of their commission side effects.
func HandleAffiliateUpdate(c *fiber.Ctx) error {
	shopID := shopcontext.GetShopID(c)
	id, err := parseIDParam(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}

	var req affiliateRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	repos := repository.GetGlobalFactory()
	affiliate, err := repos.GetAffiliateRepository().GetByID(shopID, id)
	if err != nil {
		return respondError(c, err)
	}

	if req.OfferID != 0 && req.OfferID != affiliate.OfferID {
		if _, err := repos.GetOfferRepository().GetByID(shopID, req.OfferID); err != nil {
			return badRequest(c, "Unknown offer")
		}
		affiliate.OfferID = req.OfferID
	}

	affiliate.FirstName = strings.TrimSpace(req.FirstName)
	affiliate.LastName = strings.TrimSpace(req.LastName)
	affiliate.CompanyName = strings.TrimSpace(req.CompanyName)
	if req.Email != "" {
		affiliate.Email = strings.TrimSpace(strings.ToLower(req.Email))
	}
	if req.Status != "" {
		affiliate.Status = req.Status
	}
	if req.PayoutMethod != "" {
		affiliate.PayoutMethod = req.PayoutMethod
	}
	affiliate.PayoutAccount = strings.TrimSpace(req.PayoutAccount)
	affiliate.DestinationURL = strings.TrimSpace(req.DestinationURL)
	affiliate.WebhookURL = strings.TrimSpace(req.WebhookURL)
	if req.WebhookParams != nil {
		affiliate.WebhookParams = req.WebhookParams
	}

	if err := affiliate.Validate(); err != nil {
		return badRequest(c, err.Error())
	}
	if err := repos.GetAffiliateRepository().Update(affiliate); err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"affiliate": affiliate})
}

// HandleAffiliateDelete soft deletes an affiliate. Its commissions and
// sessions stay; reports show a placeholder name for them.
func HandleAffiliateDelete(c *fiber.Ctx) error {
	shopID := shopcontext.GetShopID(c)
	id, err := parseIDParam(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}

	repo := repository.GetGlobalFactory().GetAffiliateRepository()
	if _, err := repo.GetByID(shopID, id); err != nil {
		return respondError(c, err)
	}
	if err := repo.Delete(shopID, id); err != nil {
		return respondError(c, err)
	}

	statistics.ResetCacheUpdateTimer(shopID)

	return c.JSON(fiber.Map{"message": "Affiliate deleted"})
}

type termsChangeRequest struct {
	PayoutTermsDays *int `json:"payout_terms_days"`
	Recalculate     bool `json:"recalculate_existing"`
}

// HandleAffiliateChangeTerms changes an affiliate's payout terms. The
// admin explicitly chooses whether existing unpaid commissions are
// rebased onto the new term length; nothing is recomputed by default.
func HandleAffiliateChangeTerms(c *fiber.Ctx) error {
	shopID := shopcontext.GetShopID(c)
	id, err := parseIDParam(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}

	var req termsChangeRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.PayoutTermsDays == nil {
		return badRequest(c, "payout_terms_days is required")
	}

	svc := commission.NewServiceFromDB(database.GetDB())
	result, err := svc.ChangePayoutTerms(c.Context(), shopID, id, *req.PayoutTermsDays, req.Recalculate)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"affiliate":              result.Affiliate,
		"recomputed_commissions": result.Recomputed,
	})
}

func defaultString(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
