// Package persistence provides the data storage abstraction layer for workflows,
// executions, and wake timers.
package persistence

import (
	"context"
	"time"

	"github.com/stasis-flow/stasis/pkg/models"
)

// ListWorkflowsOptions controls filtering, sorting, and pagination of workflow lists.
type ListWorkflowsOptions struct {
	Limit     int
	Offset    int
	SortBy    string // created_at, updated_at, name
	SortOrder string // asc, desc
	Status    *models.WorkflowStatus
	Owner     string
}

// WorkflowListResult is a page of workflows plus pagination metadata.
type WorkflowListResult struct {
	Workflows   []*models.Workflow
	TotalCount  int64
	HasNextPage bool
}

// WorkflowRepository stores workflow definitions.
type WorkflowRepository interface {
	ListWorkflows(ctx context.Context, opts ListWorkflowsOptions) (*WorkflowListResult, error)
	GetByID(ctx context.Context, workflowID string) (*models.Workflow, error)
	Save(ctx context.Context, workflow *models.Workflow) error
	Delete(ctx context.Context, workflowID string) error
	PublishWorkflow(ctx context.Context, workflowID string) error
}

// ExecutionRepository stores execution contexts, including sleeping ones.
type ExecutionRepository interface {
	SaveExecution(ctx context.Context, execCtx *models.ExecutionContext) error
	GetExecution(ctx context.Context, executionID string) (*models.ExecutionContext, error)
	UpdateExecution(ctx context.Context, execCtx *models.ExecutionContext) error
	GetExecutionsByStatus(ctx context.Context, status models.ExecutionStatus) ([]*models.ExecutionContext, error)
	GetExecutionsByWorkflow(ctx context.Context, workflowID string) ([]*models.ExecutionContext, error)
}

// WakeTimerRepository stores wake timers for sleeping executions.
type WakeTimerRepository interface {
	SaveWakeTimer(ctx context.Context, timer *models.WakeTimer) error
	GetWakeTimer(ctx context.Context, timerID string) (*models.WakeTimer, error)
	DueWakeTimers(ctx context.Context, now time.Time) ([]*models.WakeTimer, error)
	DeactivateWakeTimer(ctx context.Context, timerID string) error
	DeleteWakeTimersByExecution(ctx context.Context, executionID string) error
}

// Persistence aggregates the repositories behind a single storage backend.
type Persistence interface {
	WorkflowRepository() WorkflowRepository
	ExecutionRepository() ExecutionRepository
	WakeTimerRepository() WakeTimerRepository

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}
