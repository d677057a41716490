package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/dukex/notiair/pkg/cmd"
	"github.com/dukex/notiair/pkg/log"
	"github.com/dukex/notiair/pkg/models"
	"github.com/dukex/notiair/pkg/scheduler"
	"github.com/dukex/notiair/pkg/services"
	cli "github.com/urfave/cli/v3"
)

func ListTriggers(ctx context.Context, command *cli.Command) error {
	return withWorkflows(ctx, command, func(workflows *services.Workflow, logger *slog.Logger) error {
		return listTriggers(ctx, workflows, logger, os.Stdout)
	})
}

func ValidateTriggers(ctx context.Context, command *cli.Command) error {
	return withWorkflows(ctx, command, func(workflows *services.Workflow, logger *slog.Logger) error {
		return validateTriggers(ctx, workflows, logger, os.Stdout)
	})
}

func withWorkflows(ctx context.Context, command *cli.Command, fn func(*services.Workflow, *slog.Logger) error) error {
	log.Setup(command.String("log-level"), command.String("log-format"))

	logger := log.WithModule("trigger")

	persistence := cmd.NewPersistence(ctx, logger, command.String("database-url"))
	defer func() {
		if err := persistence.Close(ctx); err != nil {
			logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
		}
	}()

	return fn(services.NewWorkflow(persistence, nil, nil, logger), logger)
}

func describeTrigger(cfg *models.TriggerConfig) string {
	switch {
	case cfg.IsStream():
		return "stream: " + strings.Join(cfg.EventTypes, ", ")
	case cfg.IsSchedule():
		return "schedule: " + cfg.Schedule
	case cfg.Variant != "":
		return cfg.Variant
	default:
		return models.TriggerVariantManual
	}
}

func listTriggers(ctx context.Context, workflows scheduler.WorkflowSource, logger *slog.Logger, out io.Writer) error {
	active, err := workflows.Active(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch workflows: %w", err)
	}

	logger.InfoContext(ctx, "Found active workflows", "count", len(active))

	fmt.Fprintln(out, "Active Triggers:")
	fmt.Fprintln(out, "================")

	total := 0

	for _, wf := range active {
		for _, node := range wf.NodesOfType(models.NodeTypeTrigger) {
			cfg, ok := node.Trigger()
			if !ok {
				continue
			}

			fmt.Fprintf(out, "\nWorkflow: %s (%s)\n", wf.Name, wf.ID)
			fmt.Fprintf(out, "  - Node: %s\n", node.ID)
			fmt.Fprintf(out, "    Trigger: %s\n", describeTrigger(cfg))

			total++
		}
	}

	fmt.Fprintf(out, "\nTotal triggers: %d\n", total)

	return nil
}

// validateTriggers checks that stream triggers name at least one event type
// and that schedules parse.
func validateTriggers(ctx context.Context, workflows scheduler.WorkflowSource, logger *slog.Logger, out io.Writer) error {
	active, err := workflows.Active(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch workflows: %w", err)
	}

	sched := scheduler.New(workflows, nil, nil, logger)
	invalid := 0

	for _, wf := range active {
		for _, node := range wf.NodesOfType(models.NodeTypeTrigger) {
			cfg, ok := node.Trigger()
			if !ok {
				continue
			}

			var problem string

			switch {
			case cfg.IsStream() && len(cfg.EventTypes) == 0:
				problem = "stream trigger without event types"
			case cfg.Variant == models.TriggerVariantSchedule:
				if err := sched.ValidateSchedule(cfg.Schedule); err != nil {
					problem = err.Error()
				}
			}

			if problem == "" {
				fmt.Fprintf(out, "✓ %s/%s\n", wf.ID, node.ID)

				continue
			}

			invalid++

			fmt.Fprintf(out, "✗ %s/%s: %s\n", wf.ID, node.ID, problem)
		}
	}

	if invalid > 0 {
		return fmt.Errorf("%d invalid trigger(s)", invalid)
	}

	fmt.Fprintln(out, "All triggers are valid")

	return nil
}
