package file

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stasis-flow/stasis/pkg/models"
	"github.com/stasis-flow/stasis/pkg/persistence"
)

func testWorkflow(id, name string, status models.WorkflowStatus) *models.Workflow {
	return &models.Workflow{
		ID:          id,
		Name:        name,
		Description: "test workflow",
		Status:      status,
		Nodes: []*models.WorkflowNode{
			{
				ID:       "wait-1",
				Type:     models.NodeTypeDelay,
				Category: models.CategoryTypeAction,
				Config:   map[string]any{"wait_for": map[string]any{"minutes": 5}},
				Name:     "Wait",
				Enabled:  true,
			},
		},
		Connections: []*models.Connection{},
		Variables:   map[string]any{},
		Owner:       "tester",
	}
}

func TestWorkflowRepository_SaveAndGet(t *testing.T) {
	repo := NewWorkflowRepository(t.TempDir())
	ctx := context.Background()

	workflow := testWorkflow("wf-1", "Order followup", models.WorkflowStatusDraft)

	require.NoError(t, repo.Save(ctx, workflow))
	assert.False(t, workflow.CreatedAt.IsZero())

	loaded, err := repo.GetByID(ctx, "wf-1")
	require.NoError(t, err)
	assert.Equal(t, "Order followup", loaded.Name)
	require.Len(t, loaded.Nodes, 1)
	assert.Equal(t, models.NodeTypeDelay, loaded.Nodes[0].Type)
}

func TestWorkflowRepository_GetByID_NotFound(t *testing.T) {
	repo := NewWorkflowRepository(t.TempDir())

	_, err := repo.GetByID(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, persistence.IsWorkflowNotFound(err))
}

func TestWorkflowRepository_Delete(t *testing.T) {
	repo := NewWorkflowRepository(t.TempDir())
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, testWorkflow("wf-1", "To delete", models.WorkflowStatusDraft)))
	require.NoError(t, repo.Delete(ctx, "wf-1"))

	_, err := repo.GetByID(ctx, "wf-1")
	assert.True(t, persistence.IsWorkflowNotFound(err))

	// Deleting a missing workflow is not an error.
	assert.NoError(t, repo.Delete(ctx, "wf-1"))
}

func TestWorkflowRepository_ListWorkflows(t *testing.T) {
	repo := NewWorkflowRepository(t.TempDir())
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, testWorkflow("wf-1", "Alpha", models.WorkflowStatusDraft)))
	require.NoError(t, repo.Save(ctx, testWorkflow("wf-2", "Beta", models.WorkflowStatusPublished)))
	require.NoError(t, repo.Save(ctx, testWorkflow("wf-3", "Gamma", models.WorkflowStatusDraft)))

	result, err := repo.ListWorkflows(ctx, persistence.ListWorkflowsOptions{
		SortBy:    "name",
		SortOrder: "asc",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3), result.TotalCount)
	require.Len(t, result.Workflows, 3)
	assert.Equal(t, "Alpha", result.Workflows[0].Name)
	assert.False(t, result.HasNextPage)
}

func TestWorkflowRepository_ListWorkflows_StatusFilter(t *testing.T) {
	repo := NewWorkflowRepository(t.TempDir())
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, testWorkflow("wf-1", "Alpha", models.WorkflowStatusDraft)))
	require.NoError(t, repo.Save(ctx, testWorkflow("wf-2", "Beta", models.WorkflowStatusPublished)))

	published := models.WorkflowStatusPublished

	result, err := repo.ListWorkflows(ctx, persistence.ListWorkflowsOptions{Status: &published})
	require.NoError(t, err)
	require.Len(t, result.Workflows, 1)
	assert.Equal(t, "wf-2", result.Workflows[0].ID)
}

func TestWorkflowRepository_ListWorkflows_Pagination(t *testing.T) {
	repo := NewWorkflowRepository(t.TempDir())
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, testWorkflow("wf-1", "Alpha", models.WorkflowStatusDraft)))
	require.NoError(t, repo.Save(ctx, testWorkflow("wf-2", "Beta", models.WorkflowStatusDraft)))
	require.NoError(t, repo.Save(ctx, testWorkflow("wf-3", "Gamma", models.WorkflowStatusDraft)))

	result, err := repo.ListWorkflows(ctx, persistence.ListWorkflowsOptions{
		Limit:     2,
		SortBy:    "name",
		SortOrder: "asc",
	})
	require.NoError(t, err)
	require.Len(t, result.Workflows, 2)
	assert.True(t, result.HasNextPage)

	result, err = repo.ListWorkflows(ctx, persistence.ListWorkflowsOptions{
		Limit:     2,
		Offset:    2,
		SortBy:    "name",
		SortOrder: "asc",
	})
	require.NoError(t, err)
	require.Len(t, result.Workflows, 1)
	assert.Equal(t, "Gamma", result.Workflows[0].Name)
	assert.False(t, result.HasNextPage)
}

func TestWorkflowRepository_ListWorkflows_InvalidSort(t *testing.T) {
	repo := NewWorkflowRepository(t.TempDir())

	_, err := repo.ListWorkflows(context.Background(), persistence.ListWorkflowsOptions{SortBy: "owner; DROP TABLE"})
	assert.Error(t, err)
}

func TestWorkflowRepository_PublishWorkflow(t *testing.T) {
	repo := NewWorkflowRepository(t.TempDir())
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, testWorkflow("wf-1", "Followup", models.WorkflowStatusPublished)))
	require.NoError(t, repo.Save(ctx, testWorkflow("wf-2", "Followup", models.WorkflowStatusDraft)))

	require.NoError(t, repo.PublishWorkflow(ctx, "wf-2"))

	newPublished, err := repo.GetByID(ctx, "wf-2")
	require.NoError(t, err)
	assert.Equal(t, models.WorkflowStatusPublished, newPublished.Status)
	assert.NotNil(t, newPublished.PublishedAt)

	previous, err := repo.GetByID(ctx, "wf-1")
	require.NoError(t, err)
	assert.Equal(t, models.WorkflowStatusUnpublished, previous.Status)
}
