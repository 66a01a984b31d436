package models

import (
	"errors"
	"time"
)

// WakeTimer is the persisted form of a waiting delay plan. It carries the
// precomputed resume time so the timekeeper can query due timers directly
// instead of holding one in-process timer per sleeping execution.
type WakeTimer struct {
	// ID uniquely identifies this timer
	ID string `json:"id" validate:"required"`

	// ExecutionID is the sleeping execution this timer wakes
	ExecutionID string `json:"execution_id" validate:"required"`

	// WorkflowID is the workflow the execution belongs to
	WorkflowID string `json:"workflow_id" validate:"required"`

	// NodeID is the delay node that parked the execution
	NodeID string `json:"node_id" validate:"required"`

	// ResumeAt is when the execution becomes eligible to continue
	ResumeAt time.Time `json:"resume_at" validate:"required"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Active indicates if this timer is still pending.
	// Fired timers are kept inactive for audit.
	Active bool `json:"active"`
}

// NewWakeTimer creates an active timer for a sleeping execution.
func NewWakeTimer(id, executionID, workflowID, nodeID string, resumeAt time.Time) *WakeTimer {
	now := time.Now().UTC()

	return &WakeTimer{
		ID:          id,
		ExecutionID: executionID,
		WorkflowID:  workflowID,
		NodeID:      nodeID,
		ResumeAt:    resumeAt.UTC(),
		CreatedAt:   now,
		UpdatedAt:   now,
		Active:      true,
	}
}

// IsDue checks if this timer is due at the given time.
func (t *WakeTimer) IsDue(now time.Time) bool {
	return t.Active && !t.ResumeAt.After(now)
}

// Fire deactivates the timer after its execution has been resumed.
func (t *WakeTimer) Fire() {
	t.Active = false
	t.UpdatedAt = time.Now().UTC()
}

// Validate performs validation on the timer fields.
func (t *WakeTimer) Validate() error {
	if t.ID == "" || t.ExecutionID == "" || t.WorkflowID == "" || t.NodeID == "" {
		return ErrInvalidWakeTimer
	}

	if t.ResumeAt.IsZero() {
		return ErrInvalidWakeTimer
	}

	return nil
}

// ErrInvalidWakeTimer is returned when timer validation fails.
var ErrInvalidWakeTimer = errors.New("invalid wake timer")
