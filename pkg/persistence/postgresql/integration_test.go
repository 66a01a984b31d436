package postgresql_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stasis-flow/stasis/pkg/models"
	"github.com/stasis-flow/stasis/pkg/persistence"
)

func integrationWorkflow() *models.Workflow {
	return &models.Workflow{
		ID:          uuid.New().String(),
		Name:        "Order followup",
		Description: "Waits a day after an order before sending a reminder",
		Status:      models.WorkflowStatusDraft,
		Nodes: []*models.WorkflowNode{
			{
				ID:       "start",
				Type:     models.NodeTypeTriggerSchedule,
				Category: models.CategoryTypeTrigger,
				Config:   map[string]any{"cron_expression": "0 9 * * *"},
				Name:     "Daily check",
				Enabled:  true,
			},
			{
				ID:       "wait",
				Type:     models.NodeTypeDelay,
				Category: models.CategoryTypeAction,
				Config:   map[string]any{"wait_for": map[string]any{"days": 1}},
				Name:     "Wait a day",
				Enabled:  true,
			},
			{
				ID:       "notify",
				Type:     models.NodeTypeHTTPRequest,
				Category: models.CategoryTypeAction,
				Config:   map[string]any{"url": "https://api.example.com/remind", "method": "POST"},
				Name:     "Send reminder",
				Enabled:  true,
			},
		},
		Connections: []*models.Connection{
			{ID: "c1", SourcePort: "start:success", TargetPort: "wait:main"},
			{ID: "c2", SourcePort: "wait:success", TargetPort: "notify:main"},
		},
		Variables: map[string]any{"channel": "email"},
		Owner:     "integration",
	}
}

func TestIntegration_WorkflowLifecycle(t *testing.T) {
	p, ctx, _ := setupTestDB(t)
	repo := p.WorkflowRepository()

	workflow := integrationWorkflow()
	require.NoError(t, repo.Save(ctx, workflow))

	loaded, err := repo.GetByID(ctx, workflow.ID)
	require.NoError(t, err)
	assert.Equal(t, workflow.Name, loaded.Name)
	require.Len(t, loaded.Nodes, 3)
	require.Len(t, loaded.Connections, 2)
	assert.Equal(t, map[string]any{"wait_for": map[string]any{"days": float64(1)}}, loaded.NodeByID("wait").Config)

	require.NoError(t, repo.PublishWorkflow(ctx, workflow.ID))

	published, err := repo.GetByID(ctx, workflow.ID)
	require.NoError(t, err)
	assert.Equal(t, models.WorkflowStatusPublished, published.Status)
	assert.NotNil(t, published.PublishedAt)

	result, err := repo.ListWorkflows(ctx, persistence.ListWorkflowsOptions{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.TotalCount)

	require.NoError(t, repo.Delete(ctx, workflow.ID))

	_, err = repo.GetByID(ctx, workflow.ID)
	assert.True(t, persistence.IsWorkflowNotFound(err))
}

func TestIntegration_SleepingExecutionRoundTrip(t *testing.T) {
	p, ctx, _ := setupTestDB(t)

	workflow := integrationWorkflow()
	require.NoError(t, p.WorkflowRepository().Save(ctx, workflow))

	executions := p.ExecutionRepository()
	timers := p.WakeTimerRepository()

	resumeAt := time.Now().UTC().Add(24 * time.Hour).Truncate(time.Millisecond)

	execCtx := &models.ExecutionContext{
		ID:         uuid.New().String(),
		WorkflowID: workflow.ID,
		Status:     models.ExecutionStatusSleeping,
		NodeResults: map[string]models.NodeResult{
			"start": {NodeID: "start", Status: string(models.NodeStatusSuccess)},
		},
		ResumeNodeID: "wait",
	}
	require.NoError(t, executions.SaveExecution(ctx, execCtx))

	timer := models.NewWakeTimer(uuid.New().String(), execCtx.ID, workflow.ID, "wait", resumeAt)
	require.NoError(t, timers.SaveWakeTimer(ctx, timer))

	sleeping, err := executions.GetExecutionsByStatus(ctx, models.ExecutionStatusSleeping)
	require.NoError(t, err)
	require.Len(t, sleeping, 1)
	assert.Equal(t, "wait", sleeping[0].ResumeNodeID)

	// Nothing due before the resume time.
	due, err := timers.DueWakeTimers(ctx, resumeAt.Add(-time.Minute))
	require.NoError(t, err)
	assert.Empty(t, due)

	due, err = timers.DueWakeTimers(ctx, resumeAt.Add(time.Second))
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, execCtx.ID, due[0].ExecutionID)

	require.NoError(t, timers.DeactivateWakeTimer(ctx, timer.ID))

	due, err = timers.DueWakeTimers(ctx, resumeAt.Add(time.Second))
	require.NoError(t, err)
	assert.Empty(t, due)

	execCtx.Status = models.ExecutionStatusCompleted
	now := time.Now().UTC()
	execCtx.FinishedAt = &now
	require.NoError(t, executions.UpdateExecution(ctx, execCtx))

	final, err := executions.GetExecution(ctx, execCtx.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusCompleted, final.Status)
	assert.NotNil(t, final.FinishedAt)

	require.NoError(t, timers.DeleteWakeTimersByExecution(ctx, execCtx.ID))

	_, err = timers.GetWakeTimer(ctx, timer.ID)
	assert.True(t, persistence.IsWakeTimerNotFound(err))
}
