package file

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stasis-flow/stasis/pkg/models"
	"github.com/stasis-flow/stasis/pkg/persistence"
)

func TestExecutionRepository_SaveAndGet(t *testing.T) {
	repo := NewExecutionRepository(t.TempDir())
	ctx := context.Background()

	execCtx := &models.ExecutionContext{
		ID:         "exec-1",
		WorkflowID: "wf-1",
		Status:     models.ExecutionStatusRunning,
	}

	require.NoError(t, repo.SaveExecution(ctx, execCtx))

	loaded, err := repo.GetExecution(ctx, "exec-1")
	require.NoError(t, err)
	assert.Equal(t, "wf-1", loaded.WorkflowID)
	assert.Equal(t, models.ExecutionStatusRunning, loaded.Status)
	assert.NotNil(t, loaded.NodeResults)
	assert.NotNil(t, loaded.Variables)
}

func TestExecutionRepository_GetExecution_NotFound(t *testing.T) {
	repo := NewExecutionRepository(t.TempDir())

	_, err := repo.GetExecution(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, persistence.IsExecutionNotFound(err))
}

func TestExecutionRepository_GetExecution_PathTraversalRejected(t *testing.T) {
	repo := NewExecutionRepository(t.TempDir())

	_, err := repo.GetExecution(context.Background(), "../escape")
	assert.Error(t, err)
}

func TestExecutionRepository_UpdateExecution(t *testing.T) {
	repo := NewExecutionRepository(t.TempDir())
	ctx := context.Background()

	execCtx := &models.ExecutionContext{
		ID:         "exec-1",
		WorkflowID: "wf-1",
		Status:     models.ExecutionStatusRunning,
	}
	require.NoError(t, repo.SaveExecution(ctx, execCtx))

	execCtx.Status = models.ExecutionStatusSleeping
	execCtx.ResumeNodeID = "wait-1"
	require.NoError(t, repo.UpdateExecution(ctx, execCtx))

	loaded, err := repo.GetExecution(ctx, "exec-1")
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusSleeping, loaded.Status)
	assert.Equal(t, "wait-1", loaded.ResumeNodeID)
}

func TestExecutionRepository_UpdateExecution_NotFound(t *testing.T) {
	repo := NewExecutionRepository(t.TempDir())

	err := repo.UpdateExecution(context.Background(), &models.ExecutionContext{ID: "missing"})
	assert.True(t, persistence.IsExecutionNotFound(err))
}

func TestExecutionRepository_GetExecutionsByStatus(t *testing.T) {
	repo := NewExecutionRepository(t.TempDir())
	ctx := context.Background()

	require.NoError(t, repo.SaveExecution(ctx, &models.ExecutionContext{
		ID: "exec-1", WorkflowID: "wf-1", Status: models.ExecutionStatusSleeping,
	}))
	require.NoError(t, repo.SaveExecution(ctx, &models.ExecutionContext{
		ID: "exec-2", WorkflowID: "wf-1", Status: models.ExecutionStatusCompleted,
	}))
	require.NoError(t, repo.SaveExecution(ctx, &models.ExecutionContext{
		ID: "exec-3", WorkflowID: "wf-2", Status: models.ExecutionStatusSleeping,
	}))

	sleeping, err := repo.GetExecutionsByStatus(ctx, models.ExecutionStatusSleeping)
	require.NoError(t, err)
	assert.Len(t, sleeping, 2)

	byWorkflow, err := repo.GetExecutionsByWorkflow(ctx, "wf-1")
	require.NoError(t, err)
	assert.Len(t, byWorkflow, 2)
}
