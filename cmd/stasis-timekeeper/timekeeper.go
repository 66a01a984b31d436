package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/stasis-flow/stasis/pkg/eventbus"
	"github.com/stasis-flow/stasis/pkg/events"
	"github.com/stasis-flow/stasis/pkg/models"
	"github.com/stasis-flow/stasis/pkg/nodes/trigger"
	"github.com/stasis-flow/stasis/pkg/persistence"
)

const defaultPollInterval = 5 * time.Second

// Timekeeper owns everything time-driven: it fires due wake timers so
// sleeping executions resume, and it fires cron schedules on published
// workflows. Workers pick both up from the event bus.
type Timekeeper struct {
	id          string
	logger      *slog.Logger
	persistence persistence.Persistence
	eventBus    eventbus.EventBus
	interval    time.Duration

	// now is swappable for tests.
	now func() time.Time
}

func NewTimekeeper(
	id string,
	logger *slog.Logger,
	persistence persistence.Persistence,
	eventBus eventbus.EventBus,
	interval time.Duration,
) *Timekeeper {
	if interval <= 0 {
		interval = defaultPollInterval
	}

	return &Timekeeper{
		id:          id,
		logger:      logger.With("module", "timekeeper", "timekeeper_id", id),
		persistence: persistence,
		eventBus:    eventBus,
		interval:    interval,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Run polls until the context is cancelled.
func (t *Timekeeper) Run(ctx context.Context) error {
	t.logger.Info("Starting timekeeper", "interval", t.interval)

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	lastTick := t.now()

	for {
		select {
		case <-ctx.Done():
			t.logger.Info("Timekeeper stopping")

			return ctx.Err()
		case <-ticker.C:
			now := t.now()
			t.Tick(ctx, lastTick, now)
			lastTick = now
		}
	}
}

// Tick runs one poll cycle: fire due wake timers, then due schedules.
func (t *Timekeeper) Tick(ctx context.Context, lastTick, now time.Time) {
	if err := t.FireDueTimers(ctx, now); err != nil {
		t.logger.Error("Failed to fire due wake timers", "error", err)
	}

	if err := t.FireDueSchedules(ctx, lastTick, now); err != nil {
		t.logger.Error("Failed to fire due schedules", "error", err)
	}
}

// FireDueTimers deactivates every due wake timer and publishes a DelayResumed
// event for it. Deactivation happens before publishing so a crashed publish
// cannot fire the same timer twice.
func (t *Timekeeper) FireDueTimers(ctx context.Context, now time.Time) error {
	due, err := t.persistence.WakeTimerRepository().DueWakeTimers(ctx, now)
	if err != nil {
		return err
	}

	for _, timer := range due {
		logger := t.logger.With(
			"timer_id", timer.ID,
			"execution_id", timer.ExecutionID,
			"workflow_id", timer.WorkflowID)

		if err := t.persistence.WakeTimerRepository().DeactivateWakeTimer(ctx, timer.ID); err != nil {
			logger.Error("Failed to deactivate wake timer", "error", err)

			continue
		}

		event := events.DelayResumed{
			BaseEvent:   events.NewBaseEvent(events.DelayResumedEvent, timer.WorkflowID),
			ExecutionID: timer.ExecutionID,
			NodeID:      timer.NodeID,
			TimerID:     timer.ID,
			ResumedAt:   now,
			OverdueMs:   now.Sub(timer.ResumeAt).Milliseconds(),
		}
		event.WorkerID = t.id

		if err := t.eventBus.Publish(ctx, timer.ExecutionID, event); err != nil {
			logger.Error("Failed to publish DelayResumed event", "error", err)

			continue
		}

		logger.Info("Fired wake timer", "overdue_ms", event.OverdueMs)
	}

	return nil
}

// FireDueSchedules publishes WorkflowTriggered for every enabled schedule
// trigger on a published workflow whose next fire time falls inside
// (lastTick, now].
func (t *Timekeeper) FireDueSchedules(ctx context.Context, lastTick, now time.Time) error {
	published := models.WorkflowStatusPublished
	offset := 0

	for {
		result, err := t.persistence.WorkflowRepository().ListWorkflows(ctx, persistence.ListWorkflowsOptions{
			Limit:  100,
			Offset: offset,
			Status: &published,
		})
		if err != nil {
			return err
		}

		for _, workflow := range result.Workflows {
			t.fireWorkflowSchedules(ctx, workflow, lastTick, now)
		}

		if !result.HasNextPage {
			return nil
		}

		offset += len(result.Workflows)
	}
}

func (t *Timekeeper) fireWorkflowSchedules(ctx context.Context, workflow *models.Workflow, lastTick, now time.Time) {
	for _, nodeDef := range workflow.TriggerNodes() {
		if nodeDef.Type != models.NodeTypeTriggerSchedule {
			continue
		}

		node, err := trigger.NewScheduleTriggerNode(nodeDef.ID, nodeDef.Config)
		if err != nil {
			t.logger.Error("Skipping schedule trigger with invalid configuration",
				"workflow_id", workflow.ID,
				"node_id", nodeDef.ID,
				"error", err)

			continue
		}

		fireAt, err := node.NextFire(lastTick)
		if err != nil || fireAt.After(now) {
			continue
		}

		event := events.WorkflowTriggered{
			BaseEvent:     events.NewBaseEvent(events.WorkflowTriggeredEvent, workflow.ID),
			TriggerNodeID: nodeDef.ID,
			TriggerData: map[string]any{
				"scheduled_time": fireAt.UTC().Format(time.RFC3339),
			},
		}
		event.WorkerID = t.id

		if err := t.eventBus.Publish(ctx, workflow.ID, event); err != nil {
			t.logger.Error("Failed to publish WorkflowTriggered event",
				"workflow_id", workflow.ID,
				"node_id", nodeDef.ID,
				"error", err)

			continue
		}

		t.logger.Info("Fired schedule trigger",
			"workflow_id", workflow.ID,
			"node_id", nodeDef.ID,
			"scheduled_time", fireAt)
	}
}
