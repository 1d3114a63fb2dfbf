package shopcontext

import "github.com/gofiber/fiber/v2"

// ShopContext represents the authenticated merchant account of a request
type ShopContext struct {
	ShopID     uint   `json:"shop_id"`
	ShopName   string `json:"shop_name"`
	Email      string `json:"email"`
	IsLoggedIn bool   `json:"is_logged_in"`
}

// GetShopContext retrieves the shop context from fiber context.
// Returns a default anonymous context if none is set.
func GetShopContext(c *fiber.Ctx) ShopContext {
	if ctx := c.Locals("SHOP_CONTEXT"); ctx != nil {
		return ctx.(ShopContext)
	}
	return ShopContext{IsLoggedIn: false}
}

// IsLoggedIn checks if the request carries an authenticated shop session
func IsLoggedIn(c *fiber.Ctx) bool {
	return GetShopContext(c).IsLoggedIn
}

// GetShopID returns the current shop's ID, or 0 if not logged in
func GetShopID(c *fiber.Ctx) uint {
	return GetShopContext(c).ShopID
}

// GetShopName returns the current shop's name, or empty string if not logged in
func GetShopName(c *fiber.Ctx) string {
	return GetShopContext(c).ShopName
}
