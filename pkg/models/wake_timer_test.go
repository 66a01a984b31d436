package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWakeTimer(t *testing.T) {
	resumeAt := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	timer := NewWakeTimer("timer-1", "exec-1", "wf-1", "delay-1", resumeAt)

	require.NoError(t, timer.Validate())
	assert.True(t, timer.Active)
	assert.Equal(t, resumeAt, timer.ResumeAt)
}

func TestWakeTimer_IsDue(t *testing.T) {
	resumeAt := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	timer := NewWakeTimer("timer-1", "exec-1", "wf-1", "delay-1", resumeAt)

	assert.False(t, timer.IsDue(resumeAt.Add(-time.Second)))
	assert.True(t, timer.IsDue(resumeAt))
	assert.True(t, timer.IsDue(resumeAt.Add(time.Hour)))
}

func TestWakeTimer_Fire(t *testing.T) {
	timer := NewWakeTimer("timer-1", "exec-1", "wf-1", "delay-1", time.Now().UTC())

	timer.Fire()
	assert.False(t, timer.Active)
	assert.False(t, timer.IsDue(time.Now().UTC().Add(time.Hour)))
}

func TestWakeTimer_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*WakeTimer)
		wantErr bool
	}{
		{name: "valid", mutate: func(*WakeTimer) {}},
		{name: "missing id", mutate: func(wt *WakeTimer) { wt.ID = "" }, wantErr: true},
		{name: "missing execution", mutate: func(wt *WakeTimer) { wt.ExecutionID = "" }, wantErr: true},
		{name: "missing workflow", mutate: func(wt *WakeTimer) { wt.WorkflowID = "" }, wantErr: true},
		{name: "missing node", mutate: func(wt *WakeTimer) { wt.NodeID = "" }, wantErr: true},
		{name: "zero resume time", mutate: func(wt *WakeTimer) { wt.ResumeAt = time.Time{} }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			timer := NewWakeTimer("timer-1", "exec-1", "wf-1", "delay-1", time.Now().UTC())
			tt.mutate(timer)

			err := timer.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidWakeTimer)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
