package services

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stasis-flow/stasis/pkg/models"
	"github.com/stasis-flow/stasis/pkg/persistence"
	"github.com/stasis-flow/stasis/pkg/persistence/file"
	"github.com/stasis-flow/stasis/pkg/registry"
)

func newTestNodeService(t *testing.T) *Node {
	t.Helper()

	reg := registry.NewRegistry(slog.New(slog.NewTextHandler(io.Discard, nil)))
	reg.RegisterDefaultNodes()

	return NewNode(file.NewPersistence(t.TempDir()), reg)
}

func TestNode_ValidateConfig_Delay(t *testing.T) {
	service := newTestNodeService(t)

	tests := []struct {
		name      string
		config    map[string]any
		wantValid bool
	}{
		{
			name:      "duration wait",
			config:    map[string]any{"wait_for": map[string]any{"hours": 2}},
			wantValid: true,
		},
		{
			name:      "absolute wait",
			config:    map[string]any{"mode": "datetime", "wait_until": "2026-12-01T09:00:00Z"},
			wantValid: true,
		},
		{
			name:      "unconfigured",
			config:    map[string]any{},
			wantValid: false,
		},
		{
			name:      "all zero components",
			config:    map[string]any{"wait_for": map[string]any{"days": 0, "hours": 0}},
			wantValid: false,
		},
		{
			name:      "negative minutes rejected by schema",
			config:    map[string]any{"wait_for": map[string]any{"minutes": -5}},
			wantValid: false,
		},
		{
			name:      "malformed timestamp",
			config:    map[string]any{"mode": "datetime", "wait_until": "tomorrow"},
			wantValid: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := service.ValidateConfig(t.Context(), models.NodeTypeDelay, tt.config)
			require.NoError(t, err)
			assert.Equal(t, tt.wantValid, result.Valid)

			if !tt.wantValid {
				assert.NotEmpty(t, result.Errors)
			}
		})
	}
}

func TestNode_ValidateConfig_UnknownType(t *testing.T) {
	service := newTestNodeService(t)

	_, err := service.ValidateConfig(t.Context(), "teleport", map[string]any{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownNodeType)
	assert.True(t, IsValidationError(err))
}

func TestNode_ValidateWorkflowNode(t *testing.T) {
	service := newTestNodeService(t)

	workflow := draftWorkflow()
	workflow.ID = "wf-validate"
	require.NoError(t, service.persistence.WorkflowRepository().Save(t.Context(), workflow))

	result, err := service.ValidateWorkflowNode(t.Context(), "wf-validate", "wait")
	require.NoError(t, err)
	assert.True(t, result.Valid)
	assert.Equal(t, models.NodeTypeDelay, result.NodeType)
}

func TestNode_ValidateWorkflowNode_NodeMissing(t *testing.T) {
	service := newTestNodeService(t)

	workflow := draftWorkflow()
	workflow.ID = "wf-missing-node"
	require.NoError(t, service.persistence.WorkflowRepository().Save(t.Context(), workflow))

	_, err := service.ValidateWorkflowNode(t.Context(), "wf-missing-node", "ghost")
	require.Error(t, err)
	assert.ErrorIs(t, err, persistence.ErrNodeNotFound)
}

func TestNode_ValidateWorkflowNode_WorkflowMissing(t *testing.T) {
	service := newTestNodeService(t)

	_, err := service.ValidateWorkflowNode(t.Context(), "nope", "wait")
	require.Error(t, err)
	assert.True(t, persistence.IsWorkflowNotFound(err))
}
