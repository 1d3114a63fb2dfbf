package router

import (
	"github.com/RefTrackApp/RefTrack/app/controllers"
	"github.com/RefTrackApp/RefTrack/internal/pkg/constants"
	"github.com/gofiber/fiber/v2"
)

func (h HttpRouter) registerPublicRoutes(app *fiber.App) {
	// Affiliate short links printed in creatives: /r/<shop>/<number>
	app.Get(constants.RedirectRoute, controllers.HandleAffiliateRedirect)

	// Shopify order webhooks (signature-verified in controller, no session)
	app.Post(constants.ShopifyOrderWebhookRoute, controllers.HandleShopifyOrderWebhook)
}
