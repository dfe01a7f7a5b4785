package main

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/facturave/reciboscan/app/controllers"
	"github.com/facturave/reciboscan/internal/pkg/blobstore"
	"github.com/facturave/reciboscan/internal/pkg/cache"
	"github.com/facturave/reciboscan/internal/pkg/config"
	"github.com/facturave/reciboscan/internal/pkg/cosmosdoc"
	"github.com/facturave/reciboscan/internal/pkg/docintel"
	"github.com/facturave/reciboscan/internal/pkg/env"
	"github.com/facturave/reciboscan/internal/pkg/pipeline"
	"github.com/facturave/reciboscan/internal/pkg/router"
	"github.com/facturave/reciboscan/internal/pkg/status"
	"github.com/facturave/reciboscan/internal/pkg/usernames"
)

func main() {
	env.SetupEnvFile()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	app := NewApplication(cfg)
	err = app.Listen(cfg.Server.Addr())
	log.Fatal(err)
}

func NewApplication(cfg *config.Config) *fiber.App {
	cache.SetupCache(cfg.Cache)

	blobs, err := blobstore.NewClient(cfg.Storage)
	if err != nil {
		log.Fatalf("blob storage: %v", err)
	}
	writer, err := cosmosdoc.NewWriter(cfg.DocumentDB)
	if err != nil {
		log.Fatalf("document store: %v", err)
	}

	processor := pipeline.NewProcessor(
		blobs,
		usernames.NewResolver(cfg.Relational),
		docintel.NewClient(cfg.Extraction),
		writer,
		status.NewTracker(),
	)

	// init fiber app; Event Grid caps a delivery at 1 MiB
	app := fiber.New(fiber.Config{
		BodyLimit: 1 << 20,
	})

	// recovery and logging
	app.Use(recover.New(), logger.New())

	// fiber metrics
	app.Get("/metrics", monitor.New())

	// ROUTER
	router.InstallRouter(app, controllers.NewEventController(processor))

	return app
}
