package persistence

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWorkflowError_Is(t *testing.T) {
	err := NewWorkflowError("GetByID", "wf-1", ErrWorkflowNotFound)

	assert.True(t, errors.Is(err, ErrWorkflowNotFound))
	assert.True(t, IsWorkflowNotFound(err))
	assert.False(t, IsExecutionNotFound(err))
	assert.Contains(t, err.Error(), "wf-1")
	assert.Contains(t, err.Error(), "GetByID")
}

func TestWakeTimerError_Is(t *testing.T) {
	err := NewWakeTimerError("Deactivate", "timer-1", ErrWakeTimerNotFound)

	assert.True(t, errors.Is(err, ErrWakeTimerNotFound))
	assert.True(t, IsWakeTimerNotFound(err))
	assert.Contains(t, err.Error(), "timer-1")
}

func TestWorkflowError_Unwrap(t *testing.T) {
	inner := errors.New("disk full")
	err := NewWorkflowError("Save", "wf-1", inner)

	assert.Equal(t, inner, errors.Unwrap(err))
}
