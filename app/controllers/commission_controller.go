package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/RefTrackApp/RefTrack/app/models"
	"github.com/RefTrackApp/RefTrack/app/repository"
	"github.com/RefTrackApp/RefTrack/internal/pkg/commission"
	"github.com/RefTrackApp/RefTrack/internal/pkg/database"
	"github.com/RefTrackApp/RefTrack/internal/pkg/jobqueue"
	"github.com/RefTrackApp/RefTrack/internal/pkg/shopcontext"
	"github.com/RefTrackApp/RefTrack/internal/pkg/statistics"
	"github.com/RefTrackApp/RefTrack/internal/pkg/webhooknotify"
)

type commissionBatchRequest struct {
	CommissionIDs []uint `json:"commission_ids"`
	Reason        string `json:"reason"`
}

// HandleCommissionList returns commissions filtered by status and
// affiliate, newest first.
func HandleCommissionList(c *fiber.Ctx) error {
	shopID := shopcontext.GetShopID(c)
	status := c.Query("status")
	affiliateID := uint(c.QueryInt("affiliate_id", 0))
	offset, limit := parsePagination(c)

	repo := repository.GetGlobalFactory().GetCommissionRepository()
	commissions, err := repo.List(shopID, status, affiliateID, offset, limit)
	if err != nil {
		return respondError(c, err)
	}
	total, err := repo.Count(shopID, status, affiliateID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"commissions": commissions,
		"total":       total,
		"offset":      offset,
		"limit":       limit,
	})
}

// HandleCommissionGet returns one commission including its fraud flags.
func HandleCommissionGet(c *fiber.Ctx) error {
	shopID := shopcontext.GetShopID(c)
	id, err := parseIDParam(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}

	com, err := repository.GetGlobalFactory().GetCommissionRepository().GetByID(shopID, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"commission": com})
}

// HandleCommissionValidate moves pending commissions to eligible.
func HandleCommissionValidate(c *fiber.Ctx) error {
	shopID := shopcontext.GetShopID(c)
	req, err := parseBatchRequest(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	svc := commission.NewServiceFromDB(database.GetDB())
	commissions, err := svc.Validate(c.Context(), shopID, req.CommissionIDs)
	if err != nil {
		return respondError(c, err)
	}

	statistics.ResetCacheUpdateTimer(shopID)

	return c.JSON(fiber.Map{"commissions": commissions})
}

// HandleCommissionApprove moves eligible commissions to approved. A single
// unresolved fraud flag anywhere in the batch fails the whole batch.
func HandleCommissionApprove(c *fiber.Ctx) error {
	shopID := shopcontext.GetShopID(c)
	req, err := parseBatchRequest(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	svc := commission.NewServiceFromDB(database.GetDB())
	commissions, err := svc.Approve(c.Context(), shopID, req.CommissionIDs)
	if err != nil {
		return respondError(c, err)
	}

	statistics.ResetCacheUpdateTimer(shopID)
	enqueueCommissionWebhooks(commissions, webhooknotify.EventCommissionApproved)

	return c.JSON(fiber.Map{"commissions": commissions})
}

// HandleCommissionReject reverses commissions. A reason is mandatory and
// is stored on every reversed commission.
func HandleCommissionReject(c *fiber.Ctx) error {
	shopID := shopcontext.GetShopID(c)
	req, err := parseBatchRequest(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	svc := commission.NewServiceFromDB(database.GetDB())
	commissions, err := svc.Reject(c.Context(), shopID, req.CommissionIDs, req.Reason)
	if err != nil {
		return respondError(c, err)
	}

	statistics.ResetCacheUpdateTimer(shopID)
	enqueueCommissionWebhooks(commissions, webhooknotify.EventCommissionReversed)

	return c.JSON(fiber.Map{"commissions": commissions})
}

func parseBatchRequest(c *fiber.Ctx) (*commissionBatchRequest, error) {
	var req commissionBatchRequest
	if err := c.BodyParser(&req); err != nil {
		return nil, errors.New("Invalid request body")
	}
	if len(req.CommissionIDs) == 0 {
		return nil, errors.New("commission_ids must not be empty")
	}
	return &req, nil
}

// enqueueCommissionWebhooks schedules affiliate postbacks for a finished
// batch. Queue failures are logged, never surfaced; the state change
// already happened.
func enqueueCommissionWebhooks(commissions []models.Commission, event string) {
	queue := jobqueue.GetManager().GetQueue()
	for i := range commissions {
		if _, err := queue.EnqueueWebhookDelivery(commissions[i].ID, event); err != nil {
			log.Errorf("[Commission] Failed to enqueue %s webhook for commission %d: %v", event, commissions[i].ID, err)
		}
	}
}
