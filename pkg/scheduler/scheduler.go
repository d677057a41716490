// Package scheduler dispatches workflows whose trigger runs on a cron
// schedule.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dukex/notiair/pkg/metrics"
	"github.com/dukex/notiair/pkg/models"
	"github.com/dukex/notiair/pkg/services"
	"github.com/robfig/cron/v3"
)

// DefaultSyncInterval is how often Start reloads the active workflows.
const DefaultSyncInterval = time.Minute

type WorkflowSource interface {
	Active(ctx context.Context) ([]*models.Workflow, error)
}

type Dispatcher interface {
	Dispatch(ctx context.Context, req services.DispatchRequest) (*services.DispatchResult, error)
}

type entry struct {
	id   cron.EntryID
	spec string
}

// Scheduler keeps one cron entry per active workflow with a schedule trigger.
type Scheduler struct {
	workflows  WorkflowSource
	dispatcher Dispatcher
	metrics    *metrics.Collector
	logger     *slog.Logger

	parser cron.Parser
	cron   *cron.Cron

	mu      sync.Mutex
	entries map[string]entry
	ctx     context.Context
	done    chan struct{}
	wg      sync.WaitGroup
}

func New(workflows WorkflowSource, dispatcher Dispatcher, collector *metrics.Collector, logger *slog.Logger) *Scheduler {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

	return &Scheduler{
		workflows:  workflows,
		dispatcher: dispatcher,
		metrics:    collector,
		logger:     logger.With("module", "scheduler"),
		parser:     parser,
		cron:       cron.New(cron.WithParser(parser), cron.WithLocation(time.UTC)),
		entries:    make(map[string]entry),
		ctx:        context.Background(),
	}
}

// ValidateSchedule checks a five field cron expression or a descriptor such
// as @hourly.
func (s *Scheduler) ValidateSchedule(spec string) error {
	if _, err := s.parser.Parse(spec); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", spec, err)
	}

	return nil
}

// Start syncs once, starts the cron runner and resyncs every interval until
// ctx is cancelled or Stop is called.
func (s *Scheduler) Start(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = DefaultSyncInterval
	}

	s.mu.Lock()
	s.ctx = ctx
	s.done = make(chan struct{})
	s.mu.Unlock()

	if err := s.Sync(ctx); err != nil {
		return err
	}

	s.cron.Start()
	s.logger.InfoContext(ctx, "Scheduler started", "sync_interval", interval)

	s.wg.Add(1)

	go s.resync(ctx, interval)

	return nil
}

// Stop halts the runner and waits for running dispatches.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.done != nil {
		close(s.done)
		s.done = nil
	}
	s.mu.Unlock()

	s.wg.Wait()
	<-s.cron.Stop().Done()

	s.logger.Info("Scheduler stopped")
}

func (s *Scheduler) resync(ctx context.Context, interval time.Duration) {
	defer s.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.mu.Lock()
	done := s.done
	s.mu.Unlock()

	for {
		select {
		case <-ctx.Done():
			return
		case <-done:
			return
		case <-ticker.C:
			if err := s.Sync(ctx); err != nil {
				s.logger.ErrorContext(ctx, "Failed to sync schedules", "error", err)
			}
		}
	}
}

// Sync reloads the active workflows and adds, replaces or removes cron
// entries so that they match the schedule triggers. Invalid expressions are
// logged and left unscheduled.
func (s *Scheduler) Sync(ctx context.Context) error {
	workflows, err := s.workflows.Active(ctx)
	if err != nil {
		return fmt.Errorf("failed to list workflows: %w", err)
	}

	wanted := make(map[string]string)

	for _, wf := range workflows {
		if spec, ok := scheduleOf(wf); ok {
			wanted[wf.ID] = spec
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for workflowID, current := range s.entries {
		if spec, ok := wanted[workflowID]; ok && spec == current.spec {
			continue
		}

		s.cron.Remove(current.id)
		delete(s.entries, workflowID)
		s.logger.InfoContext(ctx, "Schedule removed", "workflow_id", workflowID, "schedule", current.spec)
	}

	for workflowID, spec := range wanted {
		if _, ok := s.entries[workflowID]; ok {
			continue
		}

		schedule, err := s.parser.Parse(spec)
		if err != nil {
			s.logger.WarnContext(ctx, "Skipping invalid schedule", "workflow_id", workflowID, "schedule", spec, "error", err)
			s.metrics.Scheduled("invalid")

			continue
		}

		id := s.cron.Schedule(schedule, s.job(workflowID, spec))
		s.entries[workflowID] = entry{id: id, spec: spec}

		s.logger.InfoContext(ctx, "Schedule registered",
			"workflow_id", workflowID,
			"schedule", spec,
			"next", schedule.Next(time.Now().UTC()),
		)
	}

	return nil
}

// Entries returns the scheduled workflows and their expressions.
func (s *Scheduler) Entries() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]string, len(s.entries))
	for workflowID, e := range s.entries {
		out[workflowID] = e.spec
	}

	return out
}

func (s *Scheduler) job(workflowID, spec string) cron.Job {
	return cron.FuncJob(func() {
		s.mu.Lock()
		ctx := s.ctx
		s.mu.Unlock()

		s.Fire(ctx, workflowID, spec, time.Now().UTC())
	})
}

// Fire dispatches one scheduled run of the workflow.
func (s *Scheduler) Fire(ctx context.Context, workflowID, spec string, at time.Time) {
	payload := map[string]any{
		"cron_expression": spec,
		"triggered_at":    at.Format(time.RFC3339),
	}

	result, err := s.dispatcher.Dispatch(ctx, services.DispatchRequest{
		WorkflowID: workflowID,
		Variables:  map[string]string{},
		Payload:    payload,
	})
	if err != nil {
		s.metrics.Scheduled("failed")
		s.logger.ErrorContext(ctx, "Scheduled dispatch failed", "workflow_id", workflowID, "schedule", spec, "error", err)

		return
	}

	s.metrics.Scheduled("dispatched")
	s.logger.InfoContext(ctx, "Scheduled dispatch", "workflow_id", workflowID, "schedule", spec, "queued", len(result.Items))
}

func scheduleOf(wf *models.Workflow) (string, bool) {
	if !wf.IsActive {
		return "", false
	}

	for _, node := range wf.NodesOfType(models.NodeTypeTrigger) {
		if cfg, ok := node.Trigger(); ok && cfg.IsSchedule() {
			return cfg.Schedule, true
		}
	}

	return "", false
}
