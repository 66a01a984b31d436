// Package workflow provides graph execution for node-based workflows,
// including parking executions on delay nodes and resuming them later.
package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/stasis-flow/stasis/pkg/eventbus"
	"github.com/stasis-flow/stasis/pkg/events"
	"github.com/stasis-flow/stasis/pkg/models"
	"github.com/stasis-flow/stasis/pkg/persistence"
	"github.com/stasis-flow/stasis/pkg/registry"
)

// Executor walks a workflow graph node by node, routing each output port
// result along the workflow's connections. An execution either runs to
// completion, fails, or parks as sleeping when a node reports a waiting
// result carrying a resume time.
type Executor struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	registry    *registry.Registry
	eventBus    eventbus.EventBus

	// now is swappable for tests.
	now func() time.Time
}

func NewExecutor(
	logger *slog.Logger,
	persistence persistence.Persistence,
	registry *registry.Registry,
	eventBus eventbus.EventBus,
) *Executor {
	return &Executor{
		logger:      logger,
		persistence: persistence,
		registry:    registry,
		eventBus:    eventBus,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// activation is a node scheduled to run with the inputs collected so far.
type activation struct {
	nodeID string
	inputs map[string]models.NodeResult
}

// StartExecution runs a workflow from one of its trigger nodes. The returned
// execution context reflects the final state: completed, failed, or sleeping.
func (e *Executor) StartExecution(
	ctx context.Context,
	workflowID, triggerNodeID string,
	triggerData map[string]any,
) (*models.ExecutionContext, error) {
	workflow, err := e.persistence.WorkflowRepository().GetByID(ctx, workflowID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch workflow %s: %w", workflowID, err)
	}

	trigger := workflow.NodeByID(triggerNodeID)
	if trigger == nil {
		return nil, fmt.Errorf("trigger node %s in workflow %s: %w",
			triggerNodeID, workflowID, persistence.ErrNodeNotFound)
	}

	now := e.now()
	execCtx := &models.ExecutionContext{
		ID:          uuid.New().String(),
		WorkflowID:  workflowID,
		Status:      models.ExecutionStatusRunning,
		TriggerData: triggerData,
		Variables:   workflow.Variables,
		NodeResults: make(map[string]models.NodeResult),
		Metadata:    make(map[string]any),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := e.persistence.ExecutionRepository().SaveExecution(ctx, execCtx); err != nil {
		return nil, fmt.Errorf("failed to save execution: %w", err)
	}

	e.publish(ctx, execCtx.ID, events.WorkflowExecutionStarted{
		BaseEvent:    events.NewBaseEvent(events.WorkflowExecutionStartedEvent, workflowID),
		ExecutionID:  execCtx.ID,
		WorkflowName: workflow.Name,
		TriggerType:  trigger.Type,
		TriggerData:  triggerData,
		Variables:    workflow.Variables,
	})

	e.logger.Info("Starting workflow execution",
		"workflow_id", workflowID,
		"execution_id", execCtx.ID,
		"trigger_node_id", triggerNodeID)

	initial := activation{
		nodeID: triggerNodeID,
		inputs: map[string]models.NodeResult{
			"external": {
				NodeID:    triggerNodeID,
				Data:      triggerData,
				Status:    string(models.NodeStatusSuccess),
				Timestamp: now,
			},
		},
	}

	if err := e.run(ctx, workflow, execCtx, []activation{initial}); err != nil {
		return execCtx, err
	}

	return execCtx, nil
}

// Resume continues a sleeping execution after its wake timer fired. The delay
// node's waiting result is replaced with a success result and the walk
// continues along the node's success connections. Resuming an execution that
// is no longer sleeping is a no-op.
func (e *Executor) Resume(ctx context.Context, timer *models.WakeTimer) error {
	execCtx, err := e.persistence.ExecutionRepository().GetExecution(ctx, timer.ExecutionID)
	if err != nil {
		return fmt.Errorf("failed to fetch execution %s: %w", timer.ExecutionID, err)
	}

	if execCtx.Status != models.ExecutionStatusSleeping {
		e.logger.Info("Skipping wake timer for non-sleeping execution",
			"execution_id", timer.ExecutionID,
			"status", execCtx.Status)

		return nil
	}

	workflow, err := e.persistence.WorkflowRepository().GetByID(ctx, execCtx.WorkflowID)
	if err != nil {
		return fmt.Errorf("failed to fetch workflow %s: %w", execCtx.WorkflowID, err)
	}

	now := e.now()
	resumed := models.NodeResult{
		NodeID: timer.NodeID,
		Data: map[string]any{
			"waited":     true,
			"resumed_at": now.Format(time.RFC3339),
		},
		Status:    string(models.NodeStatusSuccess),
		Timestamp: now,
	}

	execCtx.Status = models.ExecutionStatusRunning
	execCtx.ResumeNodeID = ""
	execCtx.NodeResults[timer.NodeID] = resumed
	execCtx.UpdatedAt = now

	if err := e.persistence.ExecutionRepository().UpdateExecution(ctx, execCtx); err != nil {
		return fmt.Errorf("failed to update execution: %w", err)
	}

	e.logger.Info("Resuming sleeping execution",
		"execution_id", execCtx.ID,
		"node_id", timer.NodeID,
		"overdue_ms", now.Sub(timer.ResumeAt).Milliseconds())

	next := e.routeResult(workflow, timer.NodeID, "success", resumed, make(map[string]map[string]models.NodeResult))

	return e.run(ctx, workflow, execCtx, next)
}

// run drains the activation queue until the graph has no runnable nodes left,
// a node fails, or an execution parks on a waiting result.
func (e *Executor) run(
	ctx context.Context,
	workflow *models.Workflow,
	execCtx *models.ExecutionContext,
	queue []activation,
) error {
	// pending accumulates inputs per node until its requirements are satisfied.
	pending := make(map[string]map[string]models.NodeResult)
	executed := 0

	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return e.cancel(ctx, execCtx, err)
		}

		current := queue[0]
		queue = queue[1:]

		nodeDef := workflow.NodeByID(current.nodeID)
		if nodeDef == nil {
			return e.fail(ctx, execCtx, current.nodeID,
				fmt.Errorf("node %s not found in workflow %s", current.nodeID, workflow.ID), executed)
		}

		if !nodeDef.Enabled {
			e.logger.Debug("Node is disabled, skipping", "node_id", nodeDef.ID)

			continue
		}

		node, err := e.registry.CreateNode(ctx, nodeDef.Type, nodeDef.ID, nodeDef.Config)
		if err != nil {
			return e.fail(ctx, execCtx, nodeDef.ID,
				fmt.Errorf("failed to create node %s: %w", nodeDef.ID, err), executed)
		}

		started := e.now()

		results, err := node.Execute(*execCtx, current.inputs)
		if err != nil {
			return e.fail(ctx, execCtx, nodeDef.ID,
				fmt.Errorf("node %s failed: %w", nodeDef.ID, err), executed)
		}

		executed++

		for portName, result := range results {
			execCtx.NodeResults[nodeDef.ID] = result

			e.publish(ctx, execCtx.ID, events.NodeCompletion{
				BaseEvent:    events.NewBaseEvent(events.NodeCompletionEvent, workflow.ID),
				ExecutionID:  execCtx.ID,
				NodeID:       nodeDef.ID,
				Status:       models.NodeStatus(result.Status),
				OutputData:   result.Data,
				ErrorMessage: result.Error,
				DurationMs:   e.now().Sub(started).Milliseconds(),
				CompletedAt:  e.now(),
			})

			if result.Status == string(models.NodeStatusWaiting) {
				return e.park(ctx, execCtx, nodeDef.ID, result)
			}

			if result.Status == string(models.NodeStatusError) && !e.isRouted(workflow, nodeDef.ID, portName) {
				return e.fail(ctx, execCtx, nodeDef.ID,
					fmt.Errorf("node %s: %s", nodeDef.ID, result.Error), executed)
			}

			queue = append(queue, e.routeResult(workflow, nodeDef.ID, portName, result, pending)...)
		}
	}

	return e.complete(ctx, execCtx, executed)
}

// routeResult delivers one port result along the workflow connections and
// returns the activations that became ready.
func (e *Executor) routeResult(
	workflow *models.Workflow,
	nodeID, portName string,
	result models.NodeResult,
	pending map[string]map[string]models.NodeResult,
) []activation {
	sourcePort := models.MakePortID(nodeID, portName)
	ready := make([]activation, 0)

	for _, conn := range workflow.Connections {
		if conn.SourcePort != sourcePort {
			continue
		}

		targetNode, targetPort, ok := models.ParsePortID(conn.TargetPort)
		if !ok {
			e.logger.Warn("Skipping connection with malformed target port",
				"connection_id", conn.ID,
				"target_port", conn.TargetPort)

			continue
		}

		if pending[targetNode] == nil {
			pending[targetNode] = make(map[string]models.NodeResult)
		}

		pending[targetNode][targetPort] = result

		if e.inputsReady(workflow, targetNode, pending[targetNode]) {
			ready = append(ready, activation{nodeID: targetNode, inputs: pending[targetNode]})
			delete(pending, targetNode)
		}
	}

	return ready
}

// inputsReady checks whether a node's collected inputs satisfy its declared
// requirements. Nodes that cannot be instantiated fall back to activating on
// any input so the failure surfaces from Execute instead of silently stalling.
func (e *Executor) inputsReady(workflow *models.Workflow, nodeID string, inputs map[string]models.NodeResult) bool {
	nodeDef := workflow.NodeByID(nodeID)
	if nodeDef == nil {
		return true
	}

	node, err := e.registry.CreateNode(context.Background(), nodeDef.Type, nodeDef.ID, nodeDef.Config)
	if err != nil {
		return true
	}

	requirements := node.InputRequirements()

	switch requirements.WaitMode {
	case models.WaitModeAll:
		for _, port := range requirements.RequiredPorts {
			if _, ok := inputs[port]; !ok {
				return false
			}
		}

		return true
	default:
		return len(inputs) > 0
	}
}

// isRouted reports whether any connection leaves the given output port.
func (e *Executor) isRouted(workflow *models.Workflow, nodeID, portName string) bool {
	sourcePort := models.MakePortID(nodeID, portName)

	for _, conn := range workflow.Connections {
		if conn.SourcePort == sourcePort {
			return true
		}
	}

	return false
}

// park persists a sleeping execution together with its wake timer. The resume
// time comes from the waiting result produced by the delay node.
func (e *Executor) park(
	ctx context.Context,
	execCtx *models.ExecutionContext,
	nodeID string,
	result models.NodeResult,
) error {
	resumeAt, err := resumeTimeFromResult(result)
	if err != nil {
		return e.fail(ctx, execCtx, nodeID, err, len(execCtx.NodeResults))
	}

	now := e.now()
	execCtx.Status = models.ExecutionStatusSleeping
	execCtx.ResumeNodeID = nodeID
	execCtx.UpdatedAt = now

	if err := e.persistence.ExecutionRepository().UpdateExecution(ctx, execCtx); err != nil {
		return fmt.Errorf("failed to persist sleeping execution: %w", err)
	}

	timer := models.NewWakeTimer(uuid.New().String(), execCtx.ID, execCtx.WorkflowID, nodeID, resumeAt)
	if err := e.persistence.WakeTimerRepository().SaveWakeTimer(ctx, timer); err != nil {
		return fmt.Errorf("failed to save wake timer: %w", err)
	}

	baseSeconds, _ := result.Data["base_seconds"].(int64)
	totalSeconds, _ := result.Data["total_seconds"].(int64)

	e.publish(ctx, execCtx.ID, events.DelayScheduled{
		BaseEvent:    events.NewBaseEvent(events.DelayScheduledEvent, execCtx.WorkflowID),
		ExecutionID:  execCtx.ID,
		NodeID:       nodeID,
		TimerID:      timer.ID,
		ResumeAt:     resumeAt,
		BaseSeconds:  baseSeconds,
		TotalSeconds: totalSeconds,
	})

	e.logger.Info("Execution parked on delay node",
		"execution_id", execCtx.ID,
		"node_id", nodeID,
		"resume_at", resumeAt)

	return nil
}

func (e *Executor) complete(ctx context.Context, execCtx *models.ExecutionContext, executed int) error {
	now := e.now()
	execCtx.Status = models.ExecutionStatusCompleted
	execCtx.UpdatedAt = now
	execCtx.FinishedAt = &now

	if err := e.persistence.ExecutionRepository().UpdateExecution(ctx, execCtx); err != nil {
		return fmt.Errorf("failed to persist completed execution: %w", err)
	}

	finalResults := make(map[string]any, len(execCtx.NodeResults))
	for nodeID, result := range execCtx.NodeResults {
		finalResults[nodeID] = result.Data
	}

	e.publish(ctx, execCtx.ID, events.WorkflowExecutionCompleted{
		BaseEvent:     events.NewBaseEvent(events.WorkflowExecutionCompletedEvent, execCtx.WorkflowID),
		ExecutionID:   execCtx.ID,
		Status:        string(models.ExecutionStatusCompleted),
		DurationMs:    now.Sub(execCtx.CreatedAt).Milliseconds(),
		NodesExecuted: executed,
		FinalResults:  finalResults,
	})

	e.logger.Info("Workflow execution completed",
		"execution_id", execCtx.ID,
		"nodes_executed", executed)

	return nil
}

func (e *Executor) fail(
	ctx context.Context,
	execCtx *models.ExecutionContext,
	nodeID string,
	cause error,
	executed int,
) error {
	now := e.now()
	execCtx.Status = models.ExecutionStatusFailed
	execCtx.ErrorMsg = cause.Error()
	execCtx.UpdatedAt = now
	execCtx.FinishedAt = &now

	if err := e.persistence.ExecutionRepository().UpdateExecution(ctx, execCtx); err != nil {
		e.logger.Error("Failed to persist failed execution", "execution_id", execCtx.ID, "error", err)
	}

	e.publish(ctx, execCtx.ID, events.WorkflowExecutionFailed{
		BaseEvent:   events.NewBaseEvent(events.WorkflowExecutionFailedEvent, execCtx.WorkflowID),
		ExecutionID: execCtx.ID,
		Status:      string(models.ExecutionStatusFailed),
		DurationMs:  now.Sub(execCtx.CreatedAt).Milliseconds(),
		Error: events.WorkflowError{
			NodeID:  nodeID,
			Message: cause.Error(),
		},
		NodesExecuted: executed,
	})

	e.logger.Error("Workflow execution failed",
		"execution_id", execCtx.ID,
		"node_id", nodeID,
		"error", cause)

	return cause
}

func (e *Executor) cancel(ctx context.Context, execCtx *models.ExecutionContext, cause error) error {
	now := e.now()
	execCtx.Status = models.ExecutionStatusCancelled
	execCtx.ErrorMsg = cause.Error()
	execCtx.UpdatedAt = now
	execCtx.FinishedAt = &now

	// Best effort, the context is already cancelled.
	if err := e.persistence.ExecutionRepository().UpdateExecution(context.WithoutCancel(ctx), execCtx); err != nil {
		e.logger.Error("Failed to persist cancelled execution", "execution_id", execCtx.ID, "error", err)
	}

	e.publish(context.WithoutCancel(ctx), execCtx.ID, events.WorkflowExecutionCancelled{
		BaseEvent:   events.NewBaseEvent(events.WorkflowExecutionCancelledEvent, execCtx.WorkflowID),
		ExecutionID: execCtx.ID,
		Status:      string(models.ExecutionStatusCancelled),
		Reason:      cause.Error(),
	})

	return cause
}

func (e *Executor) publish(ctx context.Context, key string, event eventbus.Event) {
	if e.eventBus == nil {
		return
	}

	if err := e.eventBus.Publish(ctx, key, event); err != nil {
		e.logger.Error("Failed to publish event", "event_type", event.GetType(), "error", err)
	}
}

// resumeTimeFromResult extracts the resume time a waiting node placed in its
// result data.
func resumeTimeFromResult(result models.NodeResult) (time.Time, error) {
	raw, ok := result.Data["resume_at"]
	if !ok {
		return time.Time{}, fmt.Errorf("waiting result from node %s carries no resume_at", result.NodeID)
	}

	value, ok := raw.(string)
	if !ok {
		return time.Time{}, fmt.Errorf("waiting result from node %s has non-string resume_at", result.NodeID)
	}

	resumeAt, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("waiting result from node %s has invalid resume_at: %w", result.NodeID, err)
	}

	return resumeAt, nil
}
