package main

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	cli "github.com/urfave/cli/v3"
)

func persistenceFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "database-url",
			Usage:   "Database connection URL for persistence (file://./data, postgres://...)",
			Value:   "file://./data",
			Sources: cli.EnvVars("DATABASE_URL"),
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
	}
}

func runFlags() []cli.Flag {
	return append(persistenceFlags(),
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
		&cli.StringFlag{
			Name:    "stream-brokers",
			Usage:   "Comma separated Kafka brokers of the event stream, empty disables the stream trigger",
			Value:   "localhost:19092",
			Sources: cli.EnvVars("STREAM_BROKERS"),
		},
		&cli.StringFlag{
			Name:    "stream-topic",
			Usage:   "Topic carrying business events",
			Value:   "notiair-events",
			Sources: cli.EnvVars("STREAM_TOPIC"),
		},
		&cli.StringFlag{
			Name:    "stream-group",
			Usage:   "Consumer group of the stream trigger",
			Value:   "notiair-workflow-consumer",
			Sources: cli.EnvVars("STREAM_GROUP_ID"),
		},
		&cli.DurationFlag{
			Name:    "sync-interval",
			Usage:   "How often scheduled triggers are reloaded",
			Value:   defaultSyncInterval,
			Sources: cli.EnvVars("SCHEDULER_SYNC_INTERVAL"),
		},
		&cli.BoolFlag{
			Name:    "tracing",
			Usage:   "Export traces over OTLP",
			Sources: cli.EnvVars("OTEL_ENABLED"),
		},
	)
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		panic(err)
	}

	command := &cli.Command{
		Name:                  "notiair-trigger",
		Usage:                 "Trigger workflows from the event stream and cron schedules",
		EnableShellCompletion: true,
		Commands: []*cli.Command{
			{
				Name:    "run",
				Aliases: []string{"r"},
				Usage:   "Start the stream consumer and the scheduler",
				Flags:   runFlags(),
				Action:  RunTriggerService,
			},
			{
				Name:    "list",
				Aliases: []string{"ls"},
				Usage:   "List the triggers of active workflows",
				Flags:   persistenceFlags(),
				Action:  ListTriggers,
			},
			{
				Name:    "validate",
				Aliases: []string{"v"},
				Usage:   "Validate the triggers of active workflows",
				Flags:   persistenceFlags(),
				Action:  ValidateTriggers,
			},
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := command.Run(ctx, os.Args); err != nil {
		panic(err)
	}
}
