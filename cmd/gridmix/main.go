package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	httpapi "github.com/renewabletx/gridmix/internal/api/http"
	"github.com/renewabletx/gridmix/internal/chart"
	"github.com/renewabletx/gridmix/internal/config"
	"github.com/renewabletx/gridmix/internal/dashboard"
	"github.com/renewabletx/gridmix/internal/feed"
	"github.com/renewabletx/gridmix/internal/ingest"
	"github.com/renewabletx/gridmix/internal/logger"
	"github.com/renewabletx/gridmix/internal/scheduler"
	"github.com/renewabletx/gridmix/internal/store"
)

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	zlog, err := logger.New(cfg.Mode)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer zlog.Sync()

	// Storage: sqlite with schema-level uniqueness on snapshot timestamps.
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		zlog.Fatal("failed to create db directory", "error", err)
	}
	db, err := store.Open(cfg.DBPath)
	if err != nil {
		zlog.Fatal("failed to open database", "error", err)
	}
	if err := store.Migrate(db); err != nil {
		zlog.Fatal("failed to migrate database", "error", err)
	}

	sources := store.NewSourceRepo(db)
	snapshots := store.NewSnapshotRepo(db)
	if err := sources.Seed(); err != nil {
		zlog.Fatal("failed to seed sources", "error", err)
	}

	// Shared HTTP client for outbound feed calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	feedClient := feed.NewClient(httpClient, cfg.FuelMixURL, zlog)
	ingestor := ingest.NewService(db, zlog)
	dash := dashboard.NewService(db, zlog)
	renderer := chart.NewRenderer(cfg.ChartDir, zlog)

	// Scheduler that periodically fetches, persists, and renders.
	sched := scheduler.New(feedClient, ingestor, renderer, cfg.FetchInterval, zlog)
	if err := sched.Start(); err != nil {
		zlog.Fatal("failed to start scheduler", "error", err)
	}
	defer sched.Stop()

	// Basic app configuration
	app := fiber.New(fiber.Config{
		AppName:               "gridmix",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Centralized error response
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	// Global middleware
	app.Use(fiberlogger.New())
	app.Use(recover.New())

	// Basic health endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "gridmix",
		})
	})

	// API routes.
	httpapi.RegisterRoutes(app, httpapi.Deps{
		Dashboard: dash,
		Sources:   sources,
		Snapshots: snapshots,
		ChartDir:  cfg.ChartDir,
	})

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			zlog.Error("fiber server stopped", "error", err)
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		zlog.Error("error during shutdown", "error", err)
	}
}
