package shopcontext

// Shared Locals/session keys used across controllers and middlewares
const (
	AuthKey     = "authenticated"
	KeyShopID   = "shop_id"
	KeyShopName = "shop_name"
	KeyEmail    = "email"
)
