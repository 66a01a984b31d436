package models

import "time"

// ExecutionStatus is the lifecycle state of a workflow execution.
type ExecutionStatus string

const (
	ExecutionStatusRunning   ExecutionStatus = "running"
	ExecutionStatusSleeping  ExecutionStatus = "sleeping" // Parked on a delay step
	ExecutionStatusCompleted ExecutionStatus = "completed"
	ExecutionStatusFailed    ExecutionStatus = "failed"
	ExecutionStatusCancelled ExecutionStatus = "cancelled"
)

// ExecutionContext carries the accumulated state of one workflow run. It is
// persisted between the sleeping and resumed phases of an execution.
type ExecutionContext struct {
	ID          string                `json:"id"`
	WorkflowID  string                `json:"workflow_id"`
	Status      ExecutionStatus       `json:"status"`
	TriggerData map[string]any        `json:"trigger_data,omitempty"`
	Variables   map[string]any        `json:"variables,omitempty"`
	NodeResults map[string]NodeResult `json:"node_results,omitempty"`
	Metadata    map[string]any        `json:"metadata,omitempty"`
	ErrorMsg    string                `json:"error,omitempty"`

	// ResumeNodeID marks where a sleeping execution re-enters the graph.
	ResumeNodeID string `json:"resume_node_id,omitempty"`

	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}
