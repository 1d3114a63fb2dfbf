package middleware

import (
	"errors"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/RefTrackApp/RefTrack/app/models"
	"github.com/RefTrackApp/RefTrack/internal/pkg/database"
)

// TrackingShopKey is the Locals key carrying the shop resolved from a
// tracking beacon's key.
const TrackingShopKey = "TRACKING_SHOP"

// TrackingKeyMiddleware resolves the public tracking key sent by the
// storefront snippet to a shop. The key is not a credential, it only
// routes beacons to the right tenant; requests without a valid key are
// dropped so junk cannot enter the session store.
func TrackingKeyMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := extractTrackingKey(c)
		if key == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Missing tracking key"})
		}

		db := database.GetDB()
		if db == nil {
			log.Print("tracking key middleware: database unavailable")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Database unavailable"})
		}

		shop, err := models.FindShopByTrackingKey(db, key)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Invalid tracking key"})
			}
			log.Printf("tracking key lookup failed: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Tracking key verification failed"})
		}

		if !shop.IsActive() {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden", "message": "Shop inactive"})
		}

		c.Locals(TrackingShopKey, shop)

		return c.Next()
	}
}

// GetTrackingShop returns the shop resolved by TrackingKeyMiddleware, or
// nil when the middleware did not run.
func GetTrackingShop(c *fiber.Ctx) *models.Shop {
	if shop, ok := c.Locals(TrackingShopKey).(*models.Shop); ok {
		return shop
	}
	return nil
}

func extractTrackingKey(c *fiber.Ctx) string {
	key := strings.TrimSpace(c.Get("X-Tracking-Key"))
	if key != "" {
		return key
	}
	// the pixel fallback cannot set headers
	return strings.TrimSpace(c.Query("tk"))
}
