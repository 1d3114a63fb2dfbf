package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/RefTrackApp/RefTrack/app/repository"
	"github.com/RefTrackApp/RefTrack/internal/pkg/commission"
	"github.com/RefTrackApp/RefTrack/internal/pkg/database"
	"github.com/RefTrackApp/RefTrack/internal/pkg/shopcontext"
)

type fraudResolveRequest struct {
	FraudFlagID uint `json:"fraud_flag_id"`
}

// HandleFraudList returns fraud flags, optionally filtered by resolution
// state via ?resolved=true|false.
func HandleFraudList(c *fiber.Ctx) error {
	shopID := shopcontext.GetShopID(c)
	offset, limit := parsePagination(c)

	var resolved *bool
	if raw := c.Query("resolved"); raw != "" {
		switch raw {
		case "true", "1":
			v := true
			resolved = &v
		case "false", "0":
			v := false
			resolved = &v
		default:
			return badRequest(c, "resolved must be true or false")
		}
	}

	repo := repository.GetGlobalFactory().GetFraudFlagRepository()
	flags, err := repo.List(shopID, resolved, offset, limit)
	if err != nil {
		return respondError(c, err)
	}
	total, err := repo.Count(shopID, resolved)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"fraud_flags": flags,
		"total":       total,
		"offset":      offset,
		"limit":       limit,
	})
}

// HandleFraudResolve marks a fraud flag as reviewed. Resolution is
// one-way and never advances the underlying commission on its own.
func HandleFraudResolve(c *fiber.Ctx) error {
	shopID := shopcontext.GetShopID(c)

	var req fraudResolveRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.FraudFlagID == 0 {
		return badRequest(c, "fraud_flag_id is required")
	}

	svc := commission.NewServiceFromDB(database.GetDB())
	flag, err := svc.ResolveFraudFlag(c.Context(), shopID, req.FraudFlagID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"fraud_flag": flag})
}
