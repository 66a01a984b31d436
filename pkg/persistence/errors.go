// Package persistence provides standardized error types for persistence operations.
package persistence

import (
	"errors"
	"fmt"
)

// Standard persistence error types that all implementations should use.
var (
	// ErrWorkflowNotFound indicates a workflow was not found by the given identifier.
	ErrWorkflowNotFound = errors.New("workflow not found")

	// ErrWorkflowAlreadyExists indicates a workflow with the same identifier already exists.
	ErrWorkflowAlreadyExists = errors.New("workflow already exists")

	// ErrInvalidWorkflowStatus indicates an invalid workflow status was provided.
	ErrInvalidWorkflowStatus = errors.New("invalid workflow status")

	// ErrNodeNotFound indicates a node was not found by the given identifier.
	ErrNodeNotFound = errors.New("node not found")

	// ErrExecutionNotFound indicates an execution context was not found.
	ErrExecutionNotFound = errors.New("execution not found")

	// ErrWakeTimerNotFound indicates a wake timer was not found by the given identifier.
	ErrWakeTimerNotFound = errors.New("wake timer not found")
)

// WorkflowError wraps workflow-related errors with additional context.
type WorkflowError struct {
	Op         string // Operation being performed (e.g. "GetByID", "Save", "Delete")
	WorkflowID string
	Err        error
	Message    string
}

func (e *WorkflowError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s operation failed for workflow %s: %s (%v)", e.Op, e.WorkflowID, e.Message, e.Err)
	}

	return fmt.Sprintf("%s operation failed for workflow %s: %v", e.Op, e.WorkflowID, e.Err)
}

func (e *WorkflowError) Unwrap() error {
	return e.Err
}

// Is implements error comparison for workflow errors.
func (e *WorkflowError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewWorkflowError creates a new workflow error with context.
func NewWorkflowError(op, workflowID string, err error) *WorkflowError {
	return &WorkflowError{
		Op:         op,
		WorkflowID: workflowID,
		Err:        err,
	}
}

// WakeTimerError wraps wake timer errors with additional context.
type WakeTimerError struct {
	Op      string
	TimerID string
	Err     error
}

func (e *WakeTimerError) Error() string {
	return fmt.Sprintf("%s operation failed for wake timer %s: %v", e.Op, e.TimerID, e.Err)
}

func (e *WakeTimerError) Unwrap() error {
	return e.Err
}

func (e *WakeTimerError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewWakeTimerError creates a new wake timer error with context.
func NewWakeTimerError(op, timerID string, err error) *WakeTimerError {
	return &WakeTimerError{
		Op:      op,
		TimerID: timerID,
		Err:     err,
	}
}

// IsWorkflowNotFound checks if an error indicates a workflow was not found.
func IsWorkflowNotFound(err error) bool {
	return errors.Is(err, ErrWorkflowNotFound)
}

// IsExecutionNotFound checks if an error indicates an execution was not found.
func IsExecutionNotFound(err error) bool {
	return errors.Is(err, ErrExecutionNotFound)
}

// IsWakeTimerNotFound checks if an error indicates a wake timer was not found.
func IsWakeTimerNotFound(err error) bool {
	return errors.Is(err, ErrWakeTimerNotFound)
}

// IsNodeNotFound checks if an error indicates a node was not found.
func IsNodeNotFound(err error) bool {
	return errors.Is(err, ErrNodeNotFound)
}
