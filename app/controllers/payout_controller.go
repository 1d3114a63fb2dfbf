package controllers

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/RefTrackApp/RefTrack/app/models"
	"github.com/RefTrackApp/RefTrack/app/repository"
	"github.com/RefTrackApp/RefTrack/internal/pkg/commission"
	"github.com/RefTrackApp/RefTrack/internal/pkg/database"
	"github.com/RefTrackApp/RefTrack/internal/pkg/mail"
	"github.com/RefTrackApp/RefTrack/internal/pkg/payoutreport"
	"github.com/RefTrackApp/RefTrack/internal/pkg/shopcontext"
	"github.com/RefTrackApp/RefTrack/internal/pkg/statistics"
	"github.com/RefTrackApp/RefTrack/internal/pkg/webhooknotify"
)

type payoutRunCreateRequest struct {
	PeriodStart   string `json:"period_start"`
	PeriodEnd     string `json:"period_end"`
	CommissionIDs []uint `json:"commission_ids"`
}

type payoutRunApproveRequest struct {
	PayoutReference string `json:"payout_reference"`
}

// HandlePayoutRunList returns the shop's payout runs, newest first.
func HandlePayoutRunList(c *fiber.Ctx) error {
	shopID := shopcontext.GetShopID(c)
	offset, limit := parsePagination(c)

	repo := repository.GetGlobalFactory().GetPayoutRunRepository()
	runs, err := repo.List(shopID, offset, limit)
	if err != nil {
		return respondError(c, err)
	}
	total, err := repo.Count(shopID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"payout_runs": runs,
		"total":       total,
		"offset":      offset,
		"limit":       limit,
	})
}

// HandlePayoutRunGet returns one run including its commissions.
func HandlePayoutRunGet(c *fiber.Ctx) error {
	shopID := shopcontext.GetShopID(c)
	id, err := parseIDParam(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}

	run, err := repository.GetGlobalFactory().GetPayoutRunRepository().GetByID(shopID, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"payout_run": run})
}

// HandlePayoutRunCreate opens a draft payout run over the given
// commissions. Mixed currencies and commissions already reserved by
// another open run are rejected.
func HandlePayoutRunCreate(c *fiber.Ctx) error {
	shopID := shopcontext.GetShopID(c)

	var req payoutRunCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	periodStart, err := parseDateParam(req.PeriodStart)
	if err != nil {
		return badRequest(c, "period_start must be a date (YYYY-MM-DD)")
	}
	periodEnd, err := parseDateParam(req.PeriodEnd)
	if err != nil {
		return badRequest(c, "period_end must be a date (YYYY-MM-DD)")
	}

	svc := commission.NewServiceFromDB(database.GetDB())
	run, err := svc.CreatePayoutRun(c.Context(), shopID, periodStart, periodEnd, req.CommissionIDs)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"payout_run": run})
}

// HandlePayoutRunApprove executes a draft run. On success every member
// commission is paid; affiliates are notified by mail and webhook.
func HandlePayoutRunApprove(c *fiber.Ctx) error {
	shopID := shopcontext.GetShopID(c)
	id, err := parseIDParam(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}

	var req payoutRunApproveRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "Invalid request body")
		}
	}

	svc := commission.NewServiceFromDB(database.GetDB())
	run, err := svc.ApprovePayoutRun(c.Context(), shopID, id, req.PayoutReference)
	if err != nil {
		return respondError(c, err)
	}

	statistics.ResetCacheUpdateTimer(shopID)
	enqueueCommissionWebhooks(run.Commissions, webhooknotify.EventCommissionPaid)
	go notifyPayoutAffiliates(shopID, run)

	return c.JSON(fiber.Map{"payout_run": run})
}

// HandlePayoutRunDiscard deletes a draft run and releases its commissions.
func HandlePayoutRunDiscard(c *fiber.Ctx) error {
	shopID := shopcontext.GetShopID(c)
	id, err := parseIDParam(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}

	svc := commission.NewServiceFromDB(database.GetDB())
	if err := svc.DiscardPayoutRun(c.Context(), shopID, id); err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"message": "Payout run discarded"})
}

// HandlePayoutReport renders paid commissions of a period grouped per
// affiliate, as JSON or as a CSV download.
func HandlePayoutReport(c *fiber.Ctx) error {
	shopID := shopcontext.GetShopID(c)

	start, err := parseDateParam(c.Query("start_date"))
	if err != nil {
		return badRequest(c, "start_date must be a date (YYYY-MM-DD)")
	}
	end, err := parseDateParam(c.Query("end_date"))
	if err != nil {
		return badRequest(c, "end_date must be a date (YYYY-MM-DD)")
	}
	if !end.After(start) {
		return badRequest(c, "end_date must be after start_date")
	}
	// an end date names a calendar day, so include that whole day
	if end.Hour() == 0 && end.Minute() == 0 && end.Second() == 0 {
		end = end.Add(24*time.Hour - time.Second)
	}

	format := c.Query("format", "json")
	if format != "json" && format != "csv" {
		return badRequest(c, "format must be json or csv")
	}

	affiliateID := uint(c.QueryInt("affiliate_id", 0))

	repos := repository.GetGlobalFactory()
	commissions, err := repos.GetCommissionRepository().ListPaidBetween(shopID, start, end, affiliateID)
	if err != nil {
		return respondError(c, err)
	}

	affiliates, err := affiliatesForCommissions(shopID, commissions)
	if err != nil {
		return respondError(c, err)
	}

	report := payoutreport.Build(start, end, commissions, affiliates)

	if format == "csv" {
		c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=\"payout-report-%s-%s.csv\"",
			start.Format("2006-01-02"), end.Format("2006-01-02")))
		if err := payoutreport.WriteCSV(c, report); err != nil {
			return respondError(c, err)
		}
		return nil
	}

	return c.JSON(report)
}

func affiliatesForCommissions(shopID uint, commissions []models.Commission) (map[uint]models.Affiliate, error) {
	seen := make(map[uint]struct{})
	ids := make([]uint, 0)
	for i := range commissions {
		id := commissions[i].AffiliateID
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return map[uint]models.Affiliate{}, nil
	}

	list, err := repository.GetGlobalFactory().GetAffiliateRepository().GetByIDs(shopID, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]models.Affiliate, len(list))
	for _, a := range list {
		byID[a.ID] = a
	}
	return byID, nil
}

// notifyPayoutAffiliates mails every affiliate of an approved run its
// share. Runs in the background; a failed mail is logged and skipped.
func notifyPayoutAffiliates(shopID uint, run *models.PayoutRun) {
	totals := make(map[uint]float64)
	for i := range run.Commissions {
		totals[run.Commissions[i].AffiliateID] += run.Commissions[i].Amount
	}

	ids := make([]uint, 0, len(totals))
	for id := range totals {
		ids = append(ids, id)
	}
	affiliates, err := repository.GetGlobalFactory().GetAffiliateRepository().GetByIDs(shopID, ids)
	if err != nil {
		log.Errorf("[Payout] Failed to load affiliates for payout mails (run %d): %v", run.ID, err)
		return
	}

	for i := range affiliates {
		a := &affiliates[i]
		amount := models.RoundCents(totals[a.ID])
		if err := mail.SendPayoutApprovedMail(a, run, amount); err != nil {
			log.Warnf("[Payout] Failed to mail affiliate %d for run %d: %v", a.ID, run.ID, err)
		}
	}
}
