package main

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/dukex/notiair/pkg/cmd"
	"github.com/dukex/notiair/pkg/log"
	"github.com/dukex/notiair/pkg/metrics"
	"github.com/dukex/notiair/pkg/stream"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	cli "github.com/urfave/cli/v3"
)

const (
	defaultPort        = 9091
	defaultMaxAttempts = 5
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		panic(err)
	}

	command := &cli.Command{
		Name:                  "notiair-api",
		Usage:                 "Manage notification workflows, templates and connectors",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the API server on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:    "database-url",
				Usage:   "Database connection URL for persistence (file://./data, postgres://...)",
				Value:   "file://./data",
				Sources: cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus type (kafka, memory)",
				Value:   "memory",
				Sources: cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.StringFlag{
				Name:    "queue-store",
				Usage:   "Queue store type (memory, redis)",
				Value:   "memory",
				Sources: cli.EnvVars("QUEUE_STORE"),
			},
			&cli.StringFlag{
				Name:    "redis-url",
				Usage:   "Redis URL or address for the queue store and recent stream events",
				Sources: cli.EnvVars("REDIS_URL"),
			},
			&cli.IntFlag{
				Name:    "max-attempts",
				Usage:   "Delivery attempts before a queue item fails for good",
				Value:   defaultMaxAttempts,
				Sources: cli.EnvVars("QUEUE_MAX_ATTEMPTS"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
			&cli.StringFlag{
				Name:    "log-format",
				Usage:   "Log format (text, json)",
				Value:   "text",
				Sources: cli.EnvVars("LOG_FORMAT"),
			},
			&cli.BoolFlag{
				Name:    "tracing",
				Usage:   "Export traces over OTLP",
				Sources: cli.EnvVars("OTEL_ENABLED"),
			},
		},
		Action: run,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := command.Run(ctx, os.Args); err != nil {
		panic(err)
	}
}

func run(ctx context.Context, command *cli.Command) error {
	log.Setup(command.String("log-level"), command.String("log-format"))

	logger := log.WithModule("api")
	logger.InfoContext(ctx, "Initializing NotiAir API")

	tracer, shutdownTracer := cmd.NewTracer(ctx, command.Bool("tracing"), "notiair-api", logger)
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			logger.ErrorContext(ctx, "Failed to shutdown tracer", "error", err)
		}
	}()

	persistence := cmd.NewPersistence(ctx, logger, command.String("database-url"))
	defer func() {
		if err := persistence.Close(ctx); err != nil {
			logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
		}
	}()

	eventBus := cmd.NewEventBus(command.String("event-bus"), "api", logger)
	defer func() {
		if err := eventBus.Close(); err != nil {
			logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
		}
	}()

	var redisClient redis.UniversalClient

	if redisURL := command.String("redis-url"); redisURL != "" {
		client, err := cmd.NewRedisClient(ctx, redisURL)
		if err != nil {
			return err
		}

		defer func() {
			if err := client.Close(); err != nil {
				logger.ErrorContext(ctx, "Failed to close redis client", "error", err)
			}
		}()

		redisClient = client
	}

	var recent stream.RecentStore = stream.NewMemoryRecentStore()
	if redisClient != nil {
		recent = stream.NewRedisRecentStore(redisClient, logger)
	}

	api, err := NewAPI(Config{
		Logger:      logger,
		Persistence: persistence,
		EventBus:    eventBus,
		QueueStore:  cmd.NewQueueStore(command.String("queue-store"), redisClient, logger),
		Recent:      recent,
		Metrics:     metrics.NewCollector("notiair"),
		Tracer:      tracer,
		MaxAttempts: command.Int("max-attempts"),
	})
	if err != nil {
		return err
	}

	return api.Start(ctx, command.Int("port"))
}
