// Package main provides the NotiAir API server implementation.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/dukex/notiair/pkg/eventbus"
	"github.com/dukex/notiair/pkg/events"
	"github.com/dukex/notiair/pkg/metrics"
	"github.com/dukex/notiair/pkg/persistence"
	"github.com/dukex/notiair/pkg/queue"
	"github.com/dukex/notiair/pkg/services"
	"github.com/dukex/notiair/pkg/stream"
	"github.com/dukex/notiair/pkg/web"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
	recoverer "github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/gofiber/fiber/v3/middleware/requestid"
	"go.opentelemetry.io/otel/trace"
)

const shutdownTimeout = 10 * time.Second

type Config struct {
	Logger      *slog.Logger
	Persistence persistence.Persistence
	EventBus    eventbus.EventBus
	QueueStore  queue.Store
	Recent      stream.RecentStore
	Metrics     *metrics.Collector
	Tracer      trace.Tracer
	MaxAttempts int
}

type API struct {
	logger   *slog.Logger
	eventBus eventbus.EventBus
	metrics  *metrics.Collector
	handlers *web.APIHandlers
	queue    *services.Queue
}

func NewAPI(cfg Config) (*API, error) {
	var publisher eventbus.EventPublisher
	if cfg.EventBus != nil {
		publisher = cfg.EventBus
	}

	workflows := services.NewWorkflow(cfg.Persistence, publisher, cfg.Metrics, cfg.Logger)
	templates := services.NewTemplate(cfg.Persistence)
	connectors := services.NewConnector(cfg.Persistence)
	dispatcher := services.NewDispatcher(
		workflows, templates, connectors, cfg.QueueStore, publisher, cfg.Tracer, cfg.Metrics, cfg.Logger,
	)

	q, err := services.NewQueue(cfg.QueueStore, publisher, cfg.MaxAttempts, cfg.Tracer, cfg.Metrics, cfg.Logger)
	if err != nil {
		return nil, err
	}

	handlers := web.NewAPIHandlers(
		workflows,
		templates,
		connectors,
		dispatcher,
		q,
		cfg.Recent,
		validator.New(validator.WithRequiredStructEnabled()),
	)

	return &API{
		logger:   cfg.Logger,
		eventBus: cfg.EventBus,
		metrics:  cfg.Metrics,
		handlers: handlers,
		queue:    q,
	}, nil
}

func (a *API) App() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:     "NotiAir API",
		ReadTimeout: 5 * time.Second,
	})

	app.Use(recoverer.New())
	app.Use(requestid.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{
			fiber.MethodGet, fiber.MethodPost, fiber.MethodPut,
			fiber.MethodPatch, fiber.MethodDelete, fiber.MethodOptions,
		},
	}))
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))
	app.Use(web.Metrics(a.metrics))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("NotiAir API")
	})

	app.Get("/health", a.handlers.HealthCheck)

	if a.metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(a.metrics.Handler()))
	}

	a.handlers.Register(app.Group("/api/v1"))

	return app
}

// Subscribe consumes queue reports from the event bus.
func (a *API) Subscribe(ctx context.Context) error {
	if a.eventBus == nil {
		return nil
	}

	if err := a.eventBus.Handle(events.QueueItemReportedEvent, a.queue.HandleReported); err != nil {
		return fmt.Errorf("failed to register queue report handler: %w", err)
	}

	if err := a.eventBus.Subscribe(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to event bus: %w", err)
	}

	return nil
}

// Start serves until ctx is cancelled, then shuts the server down.
func (a *API) Start(ctx context.Context, port int) error {
	if err := a.Subscribe(ctx); err != nil {
		return err
	}

	app := a.App()
	errs := make(chan error, 1)

	go func() {
		errs <- app.Listen(":"+strconv.Itoa(port), fiber.ListenConfig{DisableStartupMessage: true})
	}()

	a.logger.InfoContext(ctx, "NotiAir API listening", "port", port)

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("failed to shut down server: %w", err)
	}

	a.logger.Info("NotiAir API stopped")

	return nil
}
