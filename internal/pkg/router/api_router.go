package router

import (
	apiv1 "github.com/RefTrackApp/RefTrack/internal/api/v1"
	"github.com/RefTrackApp/RefTrack/internal/pkg/constants"

	"github.com/gofiber/fiber/v2"
)

type ApiRouter struct {
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group(constants.APIBase)
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "RefTrack API",
		})
	})

	// Public v1 routes (ping, tracking). Rate limits live on the routes
	// themselves: a blanket limiter on /api would throttle the dashboard,
	// which polls summary and stats endpoints.
	v1 := api.Group("/v1")
	apiServer := apiv1.NewAPIServer()
	apiv1.RegisterHandlers(v1, apiServer)

	h.registerAdminRoutes(v1)
	h.registerAnalyticsRoutes(v1)
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}
