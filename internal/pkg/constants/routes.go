package constants

// Static route constants
const (
	APIBase   = "/api"
	APIV1Base = "/api/v1"

	// Public affiliate redirect: /r/<shop id>/<affiliate number>
	RedirectRoute = "/r/:shop/:number"

	// Shopify order intake, HMAC-verified, outside the API session surface
	ShopifyOrderWebhookRoute = "/webhooks/shopify/orders"
)
