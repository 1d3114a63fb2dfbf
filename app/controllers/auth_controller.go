package controllers

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/RefTrackApp/RefTrack/app/models"
	"github.com/RefTrackApp/RefTrack/internal/pkg/database"
	"github.com/RefTrackApp/RefTrack/internal/pkg/session"
	"github.com/RefTrackApp/RefTrack/internal/pkg/shopcontext"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleAPILogin authenticates a merchant and opens the admin session.
// Wrong email and wrong password answer identically so the endpoint does
// not reveal which accounts exist.
func HandleAPILogin(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" || req.Password == "" {
		return badRequest(c, "Email and password are required")
	}

	db := database.GetDB()
	if db == nil {
		return respondError(c, errors.New("database unavailable"))
	}

	shop, err := models.FindShopByEmail(db, req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Invalid credentials"})
		}
		return respondError(c, err)
	}

	if !shop.CheckPassword(req.Password) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Invalid credentials"})
	}

	if !shop.IsActive() {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden", "message": "Account is not active"})
	}

	sess, err := session.GetSessionStore().Get(c)
	if err != nil {
		return respondError(c, err)
	}
	sess.Set(shopcontext.KeyShopID, shop.ID)
	sess.Set(shopcontext.KeyShopName, shop.Name)
	sess.Set(shopcontext.KeyEmail, shop.Email)
	if err := sess.Save(); err != nil {
		return respondError(c, err)
	}

	now := time.Now()
	if err := db.Model(shop).Update("last_login_at", &now).Error; err != nil {
		log.Warnf("[Auth] Failed to store last login for shop %d: %v", shop.ID, err)
	}

	return c.JSON(fiber.Map{
		"shop": fiber.Map{
			"id":       shop.ID,
			"name":     shop.Name,
			"domain":   shop.Domain,
			"email":    shop.Email,
			"currency": shop.Currency,
		},
	})
}

// HandleAPILogout destroys the admin session.
func HandleAPILogout(c *fiber.Ctx) error {
	if err := session.DestroySession(c); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Logged out"})
}

// HandleAPISession returns the shop behind the current session so the
// dashboard can restore its state after a reload.
func HandleAPISession(c *fiber.Ctx) error {
	ctx := shopcontext.GetShopContext(c)
	if !ctx.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "login required"})
	}
	return c.JSON(fiber.Map{
		"shop": fiber.Map{
			"id":    ctx.ShopID,
			"name":  ctx.ShopName,
			"email": ctx.Email,
		},
	})
}
