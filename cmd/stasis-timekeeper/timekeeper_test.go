package main

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/stasis-flow/stasis/pkg/events"
	"github.com/stasis-flow/stasis/pkg/mocks"
	"github.com/stasis-flow/stasis/pkg/models"
	"github.com/stasis-flow/stasis/pkg/persistence"
	"github.com/stasis-flow/stasis/pkg/persistence/file"
)

func createTestTimekeeper(t *testing.T) (*Timekeeper, persistence.Persistence, *mocks.MockEventBus) {
	t.Helper()

	p := file.NewPersistence(t.TempDir())
	bus := &mocks.MockEventBus{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return NewTimekeeper("tk-test", logger, p, bus, time.Second), p, bus
}

func TestNewTimekeeper_DefaultInterval(t *testing.T) {
	p := file.NewPersistence(t.TempDir())
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tk := NewTimekeeper("tk", logger, p, &mocks.MockEventBus{}, 0)

	assert.Equal(t, defaultPollInterval, tk.interval)
}

func TestTimekeeper_FireDueTimers(t *testing.T) {
	tk, p, bus := createTestTimekeeper(t)

	now := time.Now().UTC()
	due := models.NewWakeTimer("timer-due", "exec-1", "wf-1", "wait", now.Add(-time.Minute))
	future := models.NewWakeTimer("timer-future", "exec-2", "wf-1", "wait", now.Add(time.Hour))

	require.NoError(t, p.WakeTimerRepository().SaveWakeTimer(t.Context(), due))
	require.NoError(t, p.WakeTimerRepository().SaveWakeTimer(t.Context(), future))

	bus.On("Publish", mock.Anything, "exec-1", mock.AnythingOfType("events.DelayResumed")).Return(nil)

	require.NoError(t, tk.FireDueTimers(t.Context(), now))
	bus.AssertExpectations(t)

	published := bus.Calls[0].Arguments.Get(2).(events.DelayResumed)
	assert.Equal(t, "timer-due", published.TimerID)
	assert.Equal(t, "exec-1", published.ExecutionID)
	assert.Equal(t, "wait", published.NodeID)
	assert.GreaterOrEqual(t, published.OverdueMs, int64(60_000))

	// The fired timer is inactive now, the future one still pending.
	stored, err := p.WakeTimerRepository().GetWakeTimer(t.Context(), "timer-due")
	require.NoError(t, err)
	assert.False(t, stored.Active)

	remaining, err := p.WakeTimerRepository().DueWakeTimers(t.Context(), now.Add(2*time.Hour))
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, "timer-future", remaining[0].ID)
}

func TestTimekeeper_FireDueTimers_FiredOnlyOnce(t *testing.T) {
	tk, p, bus := createTestTimekeeper(t)

	now := time.Now().UTC()
	timer := models.NewWakeTimer("timer-once", "exec-1", "wf-1", "wait", now.Add(-time.Second))
	require.NoError(t, p.WakeTimerRepository().SaveWakeTimer(t.Context(), timer))

	bus.On("Publish", mock.Anything, "exec-1", mock.Anything).Return(nil).Once()

	require.NoError(t, tk.FireDueTimers(t.Context(), now))
	require.NoError(t, tk.FireDueTimers(t.Context(), now.Add(time.Minute)))

	bus.AssertExpectations(t)
	bus.AssertNumberOfCalls(t, "Publish", 1)
}

func TestTimekeeper_FireDueSchedules(t *testing.T) {
	tk, p, bus := createTestTimekeeper(t)

	wf := &models.Workflow{
		ID:     "wf-scheduled",
		Name:   "Scheduled",
		Status: models.WorkflowStatusPublished,
		Nodes: []*models.WorkflowNode{
			{
				ID:       "start",
				Type:     models.NodeTypeTriggerSchedule,
				Category: models.CategoryTypeTrigger,
				Config:   map[string]any{"cron_expression": "0 9 * * *"},
				Name:     "Daily at nine",
				Enabled:  true,
			},
		},
	}
	require.NoError(t, p.WorkflowRepository().Save(t.Context(), wf))

	bus.On("Publish", mock.Anything, "wf-scheduled", mock.AnythingOfType("events.WorkflowTriggered")).Return(nil)

	lastTick := time.Date(2026, 4, 1, 8, 59, 30, 0, time.UTC)
	now := time.Date(2026, 4, 1, 9, 0, 30, 0, time.UTC)

	require.NoError(t, tk.FireDueSchedules(t.Context(), lastTick, now))
	bus.AssertExpectations(t)

	published := bus.Calls[0].Arguments.Get(2).(events.WorkflowTriggered)
	assert.Equal(t, "start", published.TriggerNodeID)
	assert.Equal(t, "2026-04-01T09:00:00Z", published.TriggerData["scheduled_time"])
}

func TestTimekeeper_FireDueSchedules_NotYetDue(t *testing.T) {
	tk, p, bus := createTestTimekeeper(t)

	wf := &models.Workflow{
		ID:     "wf-later",
		Name:   "Later",
		Status: models.WorkflowStatusPublished,
		Nodes: []*models.WorkflowNode{
			{
				ID:       "start",
				Type:     models.NodeTypeTriggerSchedule,
				Category: models.CategoryTypeTrigger,
				Config:   map[string]any{"cron_expression": "0 9 * * *"},
				Name:     "Daily at nine",
				Enabled:  true,
			},
		},
	}
	require.NoError(t, p.WorkflowRepository().Save(t.Context(), wf))

	lastTick := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	now := lastTick.Add(time.Minute)

	require.NoError(t, tk.FireDueSchedules(t.Context(), lastTick, now))
	bus.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
}

func TestTimekeeper_FireDueSchedules_IgnoresDrafts(t *testing.T) {
	tk, p, bus := createTestTimekeeper(t)

	wf := &models.Workflow{
		ID:     "wf-draft",
		Name:   "Draft",
		Status: models.WorkflowStatusDraft,
		Nodes: []*models.WorkflowNode{
			{
				ID:       "start",
				Type:     models.NodeTypeTriggerSchedule,
				Category: models.CategoryTypeTrigger,
				Config:   map[string]any{"cron_expression": "* * * * *"},
				Name:     "Every minute",
				Enabled:  true,
			},
		},
	}
	require.NoError(t, p.WorkflowRepository().Save(t.Context(), wf))

	lastTick := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)

	require.NoError(t, tk.FireDueSchedules(t.Context(), lastTick, lastTick.Add(5*time.Minute)))
	bus.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
}
