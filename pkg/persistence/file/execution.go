package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/stasis-flow/stasis/pkg/models"
	"github.com/stasis-flow/stasis/pkg/persistence"
)

// ExecutionRepository handles execution context file operations.
type ExecutionRepository struct {
	root string
}

// NewExecutionRepository creates a new execution repository.
func NewExecutionRepository(root string) *ExecutionRepository {
	return &ExecutionRepository{root: root}
}

// validateExecutionID rejects IDs that could escape the executions directory.
func (er *ExecutionRepository) validateExecutionID(executionID string) error {
	if executionID == "" {
		return errors.New("execution ID cannot be empty")
	}

	if strings.Contains(executionID, "..") || strings.Contains(executionID, "/") || strings.Contains(executionID, "\\") {
		return errors.New("execution ID contains invalid characters")
	}

	return nil
}

// SaveExecution saves an execution context to the file system.
func (er *ExecutionRepository) SaveExecution(_ context.Context, execCtx *models.ExecutionContext) error {
	contextToSave := *execCtx
	if contextToSave.NodeResults == nil {
		contextToSave.NodeResults = make(map[string]models.NodeResult)
	}

	if contextToSave.Variables == nil {
		contextToSave.Variables = make(map[string]any)
	}

	if contextToSave.TriggerData == nil {
		contextToSave.TriggerData = make(map[string]any)
	}

	if contextToSave.Metadata == nil {
		contextToSave.Metadata = make(map[string]any)
	}

	executionsDir := filepath.Join(er.root, "executions")

	err := os.MkdirAll(executionsDir, 0750)
	if err != nil {
		return fmt.Errorf("failed to create executions directory: %w", err)
	}

	data, err := json.Marshal(contextToSave)
	if err != nil {
		return fmt.Errorf("failed to marshal execution %s: %w", execCtx.ID, err)
	}

	filePath := filepath.Join(executionsDir, execCtx.ID+".json")

	err = os.WriteFile(filePath, data, 0600)
	if err != nil {
		return fmt.Errorf("failed to write execution %s: %w", execCtx.ID, err)
	}

	return nil
}

// GetExecution retrieves an execution context by its ID from the file system.
func (er *ExecutionRepository) GetExecution(_ context.Context, executionID string) (*models.ExecutionContext, error) {
	if err := er.validateExecutionID(executionID); err != nil {
		return nil, fmt.Errorf("invalid execution ID: %w", err)
	}

	filePath := filepath.Join(er.root, "executions", executionID+".json")

	data, err := os.ReadFile(filePath) // #nosec G304 -- executionID is validated above
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("execution %s: %w", executionID, persistence.ErrExecutionNotFound)
		}

		return nil, fmt.Errorf("failed to read execution %s: %w", executionID, err)
	}

	var execCtx models.ExecutionContext

	err = json.Unmarshal(data, &execCtx)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal execution %s: %w", executionID, err)
	}

	return &execCtx, nil
}

// UpdateExecution updates an existing execution context.
func (er *ExecutionRepository) UpdateExecution(ctx context.Context, execCtx *models.ExecutionContext) error {
	_, err := er.GetExecution(ctx, execCtx.ID)
	if err != nil {
		return err
	}

	return er.SaveExecution(ctx, execCtx)
}

// GetExecutionsByStatus retrieves all execution contexts with a specific status.
func (er *ExecutionRepository) GetExecutionsByStatus(ctx context.Context, status models.ExecutionStatus) ([]*models.ExecutionContext, error) {
	return er.filterExecutions(ctx, func(execCtx *models.ExecutionContext) bool {
		return execCtx.Status == status
	})
}

// GetExecutionsByWorkflow retrieves all execution contexts for a workflow.
func (er *ExecutionRepository) GetExecutionsByWorkflow(ctx context.Context, workflowID string) ([]*models.ExecutionContext, error) {
	return er.filterExecutions(ctx, func(execCtx *models.ExecutionContext) bool {
		return execCtx.WorkflowID == workflowID
	})
}

func (er *ExecutionRepository) filterExecutions(ctx context.Context, keep func(*models.ExecutionContext) bool) ([]*models.ExecutionContext, error) {
	executionsDir := filepath.Join(er.root, "executions")

	if _, err := os.Stat(executionsDir); os.IsNotExist(err) {
		return []*models.ExecutionContext{}, nil
	}

	entries, err := os.ReadDir(executionsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read executions directory: %w", err)
	}

	var executions []*models.ExecutionContext

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		executionID := strings.TrimSuffix(entry.Name(), ".json")

		execCtx, err := er.GetExecution(ctx, executionID)
		if err != nil {
			// Skip unreadable files
			continue
		}

		if keep(execCtx) {
			executions = append(executions, execCtx)
		}
	}

	return executions, nil
}
