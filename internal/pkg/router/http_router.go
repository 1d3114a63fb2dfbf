package router

import (
	"github.com/RefTrackApp/RefTrack/internal/pkg/middleware"
	"github.com/RefTrackApp/RefTrack/internal/pkg/session"

	"github.com/gofiber/fiber/v2"
)

type HttpRouter struct {
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	// init session
	session.NewSessionStore()

	// Apply ShopContext middleware globally as first middleware
	app.Use(middleware.ShopContextMiddleware)

	h.registerPublicRoutes(app)
}

func NewHttpRouter() *HttpRouter {
	return &HttpRouter{}
}
