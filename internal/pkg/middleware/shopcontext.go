package middleware

import (
	"github.com/RefTrackApp/RefTrack/internal/pkg/session"
	"github.com/RefTrackApp/RefTrack/internal/pkg/shopcontext"
	"github.com/gofiber/fiber/v2"
)

// ShopContextMiddleware resolves the request session to a shop context for
// every request. Everything behind it trusts the context completely; no
// handler re-checks credentials.
func ShopContextMiddleware(c *fiber.Ctx) error {
	sess, err := session.GetSessionStore().Get(c)
	if err != nil {
		c.Locals("SHOP_CONTEXT", shopcontext.ShopContext{IsLoggedIn: false})
		return c.Next()
	}

	shopID := sess.Get(shopcontext.KeyShopID)
	if shopID == nil {
		c.Locals("SHOP_CONTEXT", shopcontext.ShopContext{IsLoggedIn: false})
		return c.Next()
	}

	shopName := session.GetSessionValue(c, shopcontext.KeyShopName)
	email := session.GetSessionValue(c, shopcontext.KeyEmail)

	c.Locals("SHOP_CONTEXT", shopcontext.ShopContext{
		ShopID:     shopID.(uint),
		ShopName:   shopName,
		Email:      email,
		IsLoggedIn: true,
	})

	return c.Next()
}
