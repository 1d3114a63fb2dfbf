package main

import (
	"fmt"
	"log"
	"os"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/RefTrackApp/RefTrack/app/controllers"
	"github.com/RefTrackApp/RefTrack/app/repository"
	"github.com/RefTrackApp/RefTrack/internal/pkg/analytics"
	"github.com/RefTrackApp/RefTrack/internal/pkg/cache"
	"github.com/RefTrackApp/RefTrack/internal/pkg/database"
	"github.com/RefTrackApp/RefTrack/internal/pkg/env"
	"github.com/RefTrackApp/RefTrack/internal/pkg/jobqueue"
	"github.com/RefTrackApp/RefTrack/internal/pkg/realtime"
	"github.com/RefTrackApp/RefTrack/internal/pkg/router"
)

func main() {
	app := NewApplication()
	err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000")))
	log.Fatal(err)
}

func NewApplication() *fiber.App {
	env.SetupEnvFile()
	database.SetupDatabase()
	cache.SetupCache()
	repository.InitializeFactory(database.GetDB())

	// webhook delivery workers, stuck-job sweeper, click counter flusher
	jobqueue.GetManager().Start()

	// live dashboard snapshots pushed over SSE
	hub := realtime.NewHub(analytics.NewAggregatorFromDB(database.GetDB()))
	hub.Start()
	controllers.InitializeAnalyticsController(hub)

	// init fiber app
	app := fiber.New(fiber.Config{
		// Shopify order payloads stay far below this even with hundreds
		// of line items.
		BodyLimit: 10 * 1024 * 1024,
	})

	// recovery and logging
	app.Use(recover.New(), logger.New())

	// fiber metrics
	app.Get("/metrics", basicauth.New(basicauth.Config{
		Users: map[string]string{
			env.GetEnv("METRICS_USER", "admin"): env.GetEnv("METRICS_PASSWORD", "test"),
		},
	}), monitor.New())

	// SWAGGER / OPENAPI
	// The doc ships with the repo; containers built without it still boot.
	if openAPIPath, err := findOpenAPIFile(); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/docs/api/",
			FilePath: openAPIPath,
			Path:     "v1",
		}))
	} else {
		log.Printf("openapi doc not found, /docs/api/v1 disabled: %v", err)
	}

	// ROUTER
	router.InstallRouter(app)

	return app
}

// findOpenAPIFile locates public/docs/v1/openapi.yml relative to the
// working directory, which differs between `go run ./cmd/reftrack` from
// the repo root and a compiled binary started inside cmd/reftrack.
func findOpenAPIFile() (string, error) {
	candidates := []string{
		"./public/docs/v1/openapi.yml",
		"../../public/docs/v1/openapi.yml",
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", os.ErrNotExist
}
