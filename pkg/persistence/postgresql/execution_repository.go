package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/stasis-flow/stasis/pkg/models"
	"github.com/stasis-flow/stasis/pkg/persistence"
)

// ExecutionRepository handles execution context database operations.
type ExecutionRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewExecutionRepository creates a new execution repository.
func NewExecutionRepository(db *sql.DB, logger *slog.Logger) *ExecutionRepository {
	return &ExecutionRepository{db: db, logger: logger}
}

const executionColumns = `
	id
  , workflow_id
  , status
  , trigger_data
  , variables
  , node_results
  , metadata
  , error_message
  , resume_node_id
  , created_at
  , updated_at
  , finished_at
`

// SaveExecution upserts an execution context.
func (r *ExecutionRepository) SaveExecution(ctx context.Context, execCtx *models.ExecutionContext) error {
	now := time.Now().UTC()
	if execCtx.CreatedAt.IsZero() {
		execCtx.CreatedAt = now
	}

	execCtx.UpdatedAt = now

	triggerData, err := json.Marshal(execCtx.TriggerData)
	if err != nil {
		return fmt.Errorf("failed to marshal trigger data: %w", err)
	}

	variables, err := json.Marshal(execCtx.Variables)
	if err != nil {
		return fmt.Errorf("failed to marshal variables: %w", err)
	}

	nodeResults, err := json.Marshal(execCtx.NodeResults)
	if err != nil {
		return fmt.Errorf("failed to marshal node results: %w", err)
	}

	metadata, err := json.Marshal(execCtx.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	query := `
		INSERT INTO executions (
			id, workflow_id, status, trigger_data, variables, node_results,
			metadata, error_message, resume_node_id, created_at, updated_at, finished_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			trigger_data = EXCLUDED.trigger_data,
			variables = EXCLUDED.variables,
			node_results = EXCLUDED.node_results,
			metadata = EXCLUDED.metadata,
			error_message = EXCLUDED.error_message,
			resume_node_id = EXCLUDED.resume_node_id,
			updated_at = EXCLUDED.updated_at,
			finished_at = EXCLUDED.finished_at
	`

	_, err = r.db.ExecContext(ctx, query,
		execCtx.ID, execCtx.WorkflowID, string(execCtx.Status),
		triggerData, variables, nodeResults, metadata,
		nullIfEmpty(execCtx.ErrorMsg), nullIfEmpty(execCtx.ResumeNodeID),
		execCtx.CreatedAt, execCtx.UpdatedAt, execCtx.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save execution %s: %w", execCtx.ID, err)
	}

	return nil
}

// GetExecution retrieves an execution context by its ID.
func (r *ExecutionRepository) GetExecution(ctx context.Context, executionID string) (*models.ExecutionContext, error) {
	query := "SELECT " + executionColumns + " FROM executions WHERE id = $1"

	execCtx, err := r.scanExecution(r.db.QueryRowContext(ctx, query, executionID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("execution %s: %w", executionID, persistence.ErrExecutionNotFound)
		}

		return nil, fmt.Errorf("failed to scan execution: %w", err)
	}

	return execCtx, nil
}

// UpdateExecution updates an existing execution context.
func (r *ExecutionRepository) UpdateExecution(ctx context.Context, execCtx *models.ExecutionContext) error {
	if _, err := r.GetExecution(ctx, execCtx.ID); err != nil {
		return err
	}

	return r.SaveExecution(ctx, execCtx)
}

// GetExecutionsByStatus retrieves all execution contexts with a specific status.
func (r *ExecutionRepository) GetExecutionsByStatus(ctx context.Context, status models.ExecutionStatus) ([]*models.ExecutionContext, error) {
	query := "SELECT " + executionColumns + " FROM executions WHERE status = $1 ORDER BY created_at"

	return r.queryExecutions(ctx, query, string(status))
}

// GetExecutionsByWorkflow retrieves all execution contexts for a workflow.
func (r *ExecutionRepository) GetExecutionsByWorkflow(ctx context.Context, workflowID string) ([]*models.ExecutionContext, error) {
	query := "SELECT " + executionColumns + " FROM executions WHERE workflow_id = $1 ORDER BY created_at"

	return r.queryExecutions(ctx, query, workflowID)
}

func (r *ExecutionRepository) queryExecutions(ctx context.Context, query string, args ...any) ([]*models.ExecutionContext, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query executions: %w", err)
	}

	defer func() {
		if err := rows.Close(); err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	executions := make([]*models.ExecutionContext, 0)

	for rows.Next() {
		execCtx, err := r.scanExecution(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan execution: %w", err)
		}

		executions = append(executions, execCtx)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating executions: %w", err)
	}

	return executions, nil
}

func (r *ExecutionRepository) scanExecution(scanner interface{ Scan(dest ...any) error }) (*models.ExecutionContext, error) {
	var (
		execCtx      models.ExecutionContext
		status       string
		triggerData  []byte
		variables    []byte
		nodeResults  []byte
		metadata     []byte
		errorMessage sql.NullString
		resumeNodeID sql.NullString
	)

	err := scanner.Scan(
		&execCtx.ID, &execCtx.WorkflowID, &status,
		&triggerData, &variables, &nodeResults, &metadata,
		&errorMessage, &resumeNodeID,
		&execCtx.CreatedAt, &execCtx.UpdatedAt, &execCtx.FinishedAt,
	)
	if err != nil {
		return nil, err
	}

	execCtx.Status = models.ExecutionStatus(status)
	execCtx.ErrorMsg = errorMessage.String
	execCtx.ResumeNodeID = resumeNodeID.String

	for _, field := range []struct {
		data []byte
		dest any
	}{
		{triggerData, &execCtx.TriggerData},
		{variables, &execCtx.Variables},
		{nodeResults, &execCtx.NodeResults},
		{metadata, &execCtx.Metadata},
	} {
		if len(field.data) == 0 {
			continue
		}

		if err := json.Unmarshal(field.data, field.dest); err != nil {
			return nil, fmt.Errorf("failed to unmarshal execution field: %w", err)
		}
	}

	return &execCtx, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}

	return s
}
