package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"canopycover-extractor/internal/bety"
	"canopycover-extractor/internal/clowder"
	"canopycover-extractor/internal/config"
	"canopycover-extractor/internal/event"
	"canopycover-extractor/internal/extractor"
	"canopycover-extractor/internal/geostreams"
	"canopycover-extractor/internal/models"
	"canopycover-extractor/internal/raster"
	"canopycover-extractor/internal/storage"
	"canopycover-extractor/internal/traits"

	"github.com/gofiber/fiber/v3"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file loaded", "error", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg := config.New()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var store extractor.RasterStore
	if cfg.MinioCfg.MinioURL != "" {
		minioStore, err := storage.NewMinioStore(ctx, cfg.MinioCfg)
		if err != nil {
			logger.Error("failed to initialize object store", "error", err)
			os.Exit(1)
		}
		store = minioStore
	}

	broker, err := event.ConnectBroker(cfg.RabbitMQCfg, models.Extractor.Name)
	if err != nil {
		logger.Error("failed to connect to RabbitMQ", "error", err)
		os.Exit(1)
	}
	defer broker.Close()

	betyClient := bety.NewClient(cfg.BETYCfg)
	ext := extractor.New(
		cfg,
		logger,
		betyClient,
		betyClient,
		geostreams.NewClient(cfg.ClowderCfg),
		clowder.NewClient(cfg.ClowderCfg),
		raster.NewFileClipper(),
		traits.NewCanopyEstimator(),
		store,
	)

	consumer := event.NewExtractionConsumer(broker, models.Extractor.Name, ext)
	if err := consumer.Start(ctx); err != nil {
		logger.Error("failed to start consumer", "error", err)
		os.Exit(1)
	}

	app := fiber.New()
	app.Get("/checkhealth", func(c fiber.Ctx) error {
		return c.Status(fiber.StatusOK).SendString("Canopy cover extractor is healthy")
	})

	go func() {
		<-ctx.Done()
		if err := app.Shutdown(); err != nil {
			logger.Error("failed to shut down health server", "error", err)
		}
	}()

	if err := app.Listen(":" + cfg.Port); err != nil {
		logger.Error("health server stopped", "error", err)
	}
}
