package main

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/stasis-flow/stasis/pkg/eventbus"
	"github.com/stasis-flow/stasis/pkg/events"
	"github.com/stasis-flow/stasis/pkg/otelhelper"
	"github.com/stasis-flow/stasis/pkg/persistence"
	"github.com/stasis-flow/stasis/pkg/workflow"
)

// Worker consumes trigger and delay-resume events and drives workflow
// executions through the executor.
type Worker struct {
	id          string
	logger      *slog.Logger
	persistence persistence.Persistence
	executor    *workflow.Executor
	eventBus    eventbus.EventBus
	tracer      trace.Tracer
}

func NewWorker(
	id string,
	logger *slog.Logger,
	persistence persistence.Persistence,
	executor *workflow.Executor,
	eventBus eventbus.EventBus,
	tracer trace.Tracer,
) *Worker {
	return &Worker{
		id:          id,
		logger:      logger.With("module", "worker", "worker_id", id),
		persistence: persistence,
		executor:    executor,
		eventBus:    eventBus,
		tracer:      tracer,
	}
}

// Start registers the event handlers and blocks until the context is cancelled.
func (w *Worker) Start(ctx context.Context) error {
	w.logger.Info("Starting worker subscriptions")

	if err := w.eventBus.Handle(events.WorkflowTriggeredEvent, w.handleWorkflowTriggered); err != nil {
		return err
	}

	if err := w.eventBus.Handle(events.DelayResumedEvent, w.handleDelayResumed); err != nil {
		return err
	}

	if err := w.eventBus.Subscribe(ctx); err != nil {
		return err
	}

	w.logger.Info("Worker started")

	<-ctx.Done()
	w.logger.Info("Worker stopping")

	return ctx.Err()
}

// handleWorkflowTriggered starts a fresh execution from the trigger node.
func (w *Worker) handleWorkflowTriggered(ctx context.Context, event any) error {
	triggered, ok := event.(*events.WorkflowTriggered)
	if !ok {
		w.logger.Error("Invalid event type for WorkflowTriggered")

		return nil
	}

	ctx, span := otelhelper.StartSpan(ctx, w.tracer, "handleWorkflowTriggered",
		attribute.String(otelhelper.WorkflowIDKey, triggered.WorkflowID),
		attribute.String(otelhelper.NodeIDKey, triggered.TriggerNodeID),
		attribute.String(otelhelper.WorkerIDKey, w.id),
	)
	defer span.End()

	logger := w.logger.With(
		"workflow_id", triggered.WorkflowID,
		"trigger_node_id", triggered.TriggerNodeID)

	logger.Info("Processing workflow triggered event")

	execCtx, err := w.executor.StartExecution(ctx, triggered.WorkflowID, triggered.TriggerNodeID, triggered.TriggerData)
	if err != nil {
		logger.Error("Workflow execution did not complete", "error", err)
		otelhelper.SetError(span, err)

		return err
	}

	span.SetAttributes(attribute.String(otelhelper.ExecutionIDKey, execCtx.ID))

	logger.Info("Workflow execution finished",
		"execution_id", execCtx.ID,
		"status", execCtx.Status)

	return nil
}

// handleDelayResumed resumes the sleeping execution behind a fired wake timer.
// Timers that disappeared are treated as already handled.
func (w *Worker) handleDelayResumed(ctx context.Context, event any) error {
	resumed, ok := event.(*events.DelayResumed)
	if !ok {
		w.logger.Error("Invalid event type for DelayResumed")

		return nil
	}

	ctx, span := otelhelper.StartSpan(ctx, w.tracer, "handleDelayResumed",
		attribute.String(otelhelper.ExecutionIDKey, resumed.ExecutionID),
		attribute.String(otelhelper.TimerIDKey, resumed.TimerID),
		attribute.String(otelhelper.WorkerIDKey, w.id),
	)
	defer span.End()

	logger := w.logger.With(
		"execution_id", resumed.ExecutionID,
		"timer_id", resumed.TimerID)

	logger.Info("Processing delay resumed event")

	timer, err := w.persistence.WakeTimerRepository().GetWakeTimer(ctx, resumed.TimerID)
	if err != nil {
		if persistence.IsWakeTimerNotFound(err) {
			logger.Warn("Wake timer no longer exists, skipping")

			return nil
		}

		otelhelper.SetError(span, err)

		return err
	}

	if err := w.executor.Resume(ctx, timer); err != nil {
		logger.Error("Failed to resume execution", "error", err)
		otelhelper.SetError(span, err)

		return err
	}

	return nil
}
