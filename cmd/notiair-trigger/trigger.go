// Package main provides the NotiAir trigger service: a stream consumer and a
// cron scheduler that dispatch active workflows.
package main

import (
	"context"
	"fmt"

	"github.com/dukex/notiair/pkg/cmd"
	"github.com/dukex/notiair/pkg/eventbus"
	"github.com/dukex/notiair/pkg/log"
	"github.com/dukex/notiair/pkg/metrics"
	"github.com/dukex/notiair/pkg/scheduler"
	"github.com/dukex/notiair/pkg/services"
	"github.com/dukex/notiair/pkg/stream"
	"github.com/redis/go-redis/v9"
	cli "github.com/urfave/cli/v3"
)

const defaultSyncInterval = scheduler.DefaultSyncInterval

// RunTriggerService runs until the process is interrupted.
func RunTriggerService(ctx context.Context, command *cli.Command) error {
	log.Setup(command.String("log-level"), command.String("log-format"))

	logger := log.WithModule("trigger")
	logger.InfoContext(ctx, "Starting trigger service")

	tracer, shutdownTracer := cmd.NewTracer(ctx, command.Bool("tracing"), "notiair-trigger", logger)
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

	eventBus := cmd.NewEventBus(command.String("event-bus"), "trigger", logger)
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

	collector := metrics.NewCollector("notiair")
	store := cmd.NewQueueStore(command.String("queue-store"), redisClient, logger)

	var publisher eventbus.EventPublisher = eventBus

	workflows := services.NewWorkflow(persistence, publisher, collector, logger)
	dispatcher := services.NewDispatcher(
		workflows,
		services.NewTemplate(persistence),
		services.NewConnector(persistence),
		store,
		publisher,
		tracer,
		collector,
		logger,
	)

	sched := scheduler.New(workflows, dispatcher, collector, logger)
	if err := sched.Start(ctx, command.Duration("sync-interval")); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	defer sched.Stop()

	if brokers := stream.ParseBrokers(command.String("stream-brokers")); len(brokers) > 0 {
		processor := stream.NewProcessor(workflows, dispatcher, recent, collector, logger)

		consumer, err := stream.NewConsumer(brokers, command.String("stream-topic"), command.String("stream-group"), processor, logger)
		if err != nil {
			return err
		}

		consumer.Start(ctx)

		defer func() {
			if err := consumer.Stop(); err != nil {
				logger.ErrorContext(ctx, "Failed to stop stream consumer", "error", err)
			}
		}()
	} else {
		logger.InfoContext(ctx, "Stream trigger disabled, no brokers configured")
	}

	<-ctx.Done()

	logger.Info("Stopping trigger service")

	return nil
}
