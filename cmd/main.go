package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	fiber "github.com/gofiber/fiber/v2"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	gormlogger "gorm.io/gorm/logger"

	"github.com/veltra/genflow/internal/api/v1/handlers"
	"github.com/veltra/genflow/internal/api/v1/middleware"
	"github.com/veltra/genflow/internal/api/v1/routes"
	"github.com/veltra/genflow/internal/config"
	"github.com/veltra/genflow/internal/db"
	"github.com/veltra/genflow/internal/db/repos"
	"github.com/veltra/genflow/internal/logger"
	"github.com/veltra/genflow/internal/providers"
	"github.com/veltra/genflow/internal/services"
	"github.com/veltra/genflow/internal/types"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	logger.Initialize()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	gdb, err := db.New(db.Options{DSN: cfg.DSN(), LogLevel: gormlogger.Warn})
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}

	jobRepo := repos.NewJobRepository(gdb)
	pipelineRepo := repos.NewPipelineRepository(gdb)

	registry := buildRegistry(cfg)

	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	gateway := services.NewGateway(jobRepo, registry, httpClient, cfg.MaxInputBytes)
	orchestrator := services.NewOrchestrator(pipelineRepo, jobRepo, gateway)
	notifier := services.NewNotifier(jobRepo, httpClient)
	reconciler := services.NewReconciler(jobRepo, orchestrator, notifier)
	sweeper := services.NewSweeper(jobRepo, gateway, reconciler, cfg.SweepWorkers)

	app := fiber.New(fiber.Config{ErrorHandler: errorHandler})
	app.Use(middleware.Logger())

	routes.Register(app, routes.Handlers{
		Job:      handlers.NewJobHandler(gateway, sweeper, jobRepo),
		Callback: handlers.NewCallbackHandler(registry, jobRepo, reconciler),
		Pipeline: handlers.NewPipelineHandler(orchestrator),
	})

	scheduler := startSweepScheduler(cfg, sweeper)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			logger.Fatalf("Server stopped: %v", err)
		}
	}()
	logger.Infof("genflow listening on :%s (providers: %v)", cfg.Port, registry.Names())

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down...")
	if scheduler != nil {
		scheduler.Stop()
	}
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Errorf("Shutdown error: %v", err)
	}
}

// buildRegistry registers every provider that has credentials configured.
func buildRegistry(cfg *config.Config) *providers.Registry {
	registry := providers.NewRegistry()

	providerClient := &http.Client{Timeout: cfg.HTTPTimeout}
	if cfg.Seedance.APIKey != "" {
		registry.Register(providers.NewSeedance(cfg.Seedance.APIKey, cfg.Seedance.BaseURL, providerClient))
	}
	if cfg.Kling.APIKey != "" {
		registry.Register(providers.NewKling(cfg.Kling.APIKey, cfg.Kling.BaseURL, providerClient))
	}
	if cfg.EnableMockProvider {
		registry.Register(providers.NewMock())
	}

	if len(registry.Names()) == 0 {
		logger.Warn("No providers configured; submissions will be rejected")
	}

	return registry
}

// startSweepScheduler runs the bulk poll on the configured cron schedule so
// jobs whose callbacks were lost still make progress.
func startSweepScheduler(cfg *config.Config, sweeper *services.Sweeper) *cron.Cron {
	if cfg.SweepSchedule == "" {
		return nil
	}

	c := cron.New()
	_, err := c.AddFunc(cfg.SweepSchedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		report, err := sweeper.PollAll(ctx)
		if err != nil {
			logger.Errorf("Scheduled sweep failed: %v", err)
			return
		}
		logger.Debugf("Scheduled sweep polled %d jobs", report.Polled)
	})
	if err != nil {
		logger.Fatalf("Invalid SWEEP_SCHEDULE %q: %v", cfg.SweepSchedule, err)
	}

	c.Start()
	logger.Infof("Sweep scheduler running (%s)", cfg.SweepSchedule)
	return c
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}
	return c.Status(code).JSON(types.ErrServerResponse(err.Error()))
}
