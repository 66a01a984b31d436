// Package events defines event types and structures for workflow lifecycle notifications.
package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/stasis-flow/stasis/pkg/models"
)

type EventType string

// Kafka topics.
const Topic = "stasis.events"                               // Topic for workflow lifecycle events
const NodeActivationTopic = "stasis.node.activations"       // Topic for node activations
const WorkflowExecutionTopic = "stasis.workflow.executions" // Topic for workflow execution events

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	// Workflow lifecycle events.
	WorkflowTriggeredEvent EventType = "workflow.triggered"
	WorkflowFinishedEvent  EventType = "workflow.finished"
	WorkflowFailedEvent    EventType = "workflow.failed"

	// Node-based workflow events.
	NodeActivationEvent EventType = "node.activation"
	NodeCompletionEvent EventType = "node.completion"

	// Workflow execution lifecycle events.
	WorkflowExecutionStartedEvent   EventType = "workflow.execution.started"
	WorkflowExecutionCompletedEvent EventType = "workflow.execution.completed"
	WorkflowExecutionFailedEvent    EventType = "workflow.execution.failed"
	WorkflowExecutionCancelledEvent EventType = "workflow.execution.cancelled"

	// Delay lifecycle events.
	DelayScheduledEvent EventType = "delay.scheduled"
	DelayResumedEvent   EventType = "delay.resumed"
)

type BaseEvent struct {
	ID         string         `json:"id"`
	Type       EventType      `json:"type"`
	Timestamp  time.Time      `json:"timestamp"`
	WorkflowID string         `json:"workflow_id"`
	WorkerID   string         `json:"worker_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

type WorkflowTriggered struct {
	BaseEvent

	TriggerNodeID string         `json:"trigger_node_id"`
	TriggerData   map[string]any `json:"trigger_data,omitempty"`
}

func (w WorkflowTriggered) GetType() EventType {
	return WorkflowTriggeredEvent
}

type WorkflowFinished struct {
	BaseEvent

	ExecutionID string         `json:"execution_id"`
	Result      map[string]any `json:"result,omitempty"`
	Duration    time.Duration  `json:"duration"`
}

func (w WorkflowFinished) GetType() EventType {
	return WorkflowFinishedEvent
}

type WorkflowFailed struct {
	BaseEvent

	ExecutionID string        `json:"execution_id"`
	Error       string        `json:"error"`
	Duration    time.Duration `json:"duration"`
}

func (w WorkflowFailed) GetType() EventType {
	return WorkflowFailedEvent
}

// Node-based workflow events

type NodeActivation struct {
	BaseEvent

	ExecutionID string `json:"execution_id"`
	NodeID      string `json:"node_id"`
	InputPort   string `json:"input_port"`
	InputData   any    `json:"input_data"`
	SourceNode  string `json:"source_node"`
	SourcePort  string `json:"source_port"`
}

func (n NodeActivation) GetType() EventType {
	return NodeActivationEvent
}

// NodeCompletion represents the completion of a node execution.
type NodeCompletion struct {
	BaseEvent

	ExecutionID  string            `json:"execution_id"`
	NodeID       string            `json:"node_id"`
	Status       models.NodeStatus `json:"status"`
	OutputData   map[string]any    `json:"output_data"`
	ErrorMessage string            `json:"error_message,omitempty"`
	DurationMs   int64             `json:"duration_ms"`
	CompletedAt  time.Time         `json:"completed_at"`
}

func (n NodeCompletion) GetType() EventType {
	return NodeCompletionEvent
}

// Workflow execution lifecycle events

type WorkflowExecutionStarted struct {
	BaseEvent

	ExecutionID  string         `json:"execution_id"`
	WorkflowName string         `json:"workflow_name"`
	TriggerType  string         `json:"trigger_type"`
	TriggerData  map[string]any `json:"trigger_data"`
	Variables    map[string]any `json:"variables"`
}

func (w WorkflowExecutionStarted) GetType() EventType {
	return WorkflowExecutionStartedEvent
}

type WorkflowExecutionCompleted struct {
	BaseEvent

	ExecutionID   string         `json:"execution_id"`
	Status        string         `json:"status"`
	DurationMs    int64          `json:"duration_ms"`
	NodesExecuted int            `json:"nodes_executed"`
	FinalResults  map[string]any `json:"final_results"`
}

func (w WorkflowExecutionCompleted) GetType() EventType {
	return WorkflowExecutionCompletedEvent
}

type WorkflowExecutionFailed struct {
	BaseEvent

	ExecutionID   string        `json:"execution_id"`
	Status        string        `json:"status"`
	DurationMs    int64         `json:"duration_ms"`
	Error         WorkflowError `json:"error"`
	NodesExecuted int           `json:"nodes_executed"`
}

type WorkflowError struct {
	NodeID  string         `json:"node_id"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

func (w WorkflowExecutionFailed) GetType() EventType {
	return WorkflowExecutionFailedEvent
}

type WorkflowExecutionCancelled struct {
	BaseEvent

	ExecutionID string `json:"execution_id"`
	Status      string `json:"status"`
	Reason      string `json:"reason"`
	CancelledBy string `json:"cancelled_by"`
}

func (w WorkflowExecutionCancelled) GetType() EventType {
	return WorkflowExecutionCancelledEvent
}

// Delay lifecycle events

// DelayScheduled is published when an execution parks at a delay node and a
// wake timer is persisted for it.
type DelayScheduled struct {
	BaseEvent

	ExecutionID  string    `json:"execution_id"`
	NodeID       string    `json:"node_id"`
	TimerID      string    `json:"timer_id"`
	ResumeAt     time.Time `json:"resume_at"`
	BaseSeconds  int64     `json:"base_seconds"`
	TotalSeconds int64     `json:"total_seconds"`
}

func (d DelayScheduled) GetType() EventType {
	return DelayScheduledEvent
}

// DelayResumed is published when a due wake timer fires and the sleeping
// execution is handed back to a worker.
type DelayResumed struct {
	BaseEvent

	ExecutionID string    `json:"execution_id"`
	NodeID      string    `json:"node_id"`
	TimerID     string    `json:"timer_id"`
	ResumedAt   time.Time `json:"resumed_at"`
	OverdueMs   int64     `json:"overdue_ms"`
}

func (d DelayResumed) GetType() EventType {
	return DelayResumedEvent
}

func NewBaseEvent(eventType EventType, workflowID string) BaseEvent {
	return BaseEvent{
		ID:         uuid.New().String(),
		Type:       eventType,
		Timestamp:  time.Now().UTC(),
		WorkflowID: workflowID,
		Metadata:   make(map[string]any),
	}
}
