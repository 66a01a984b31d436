package log

import (
	"testing"

	"github.com/stasis-flow/stasis/pkg/models"
)

func TestNewLogNode(t *testing.T) {
	node, err := NewLogNode("test-log", map[string]any{"message": "hello"})
	if err != nil {
		t.Fatalf("Failed to create node: %v", err)
	}

	if node.Type() != "log" {
		t.Errorf("Expected type 'log', got: %s", node.Type())
	}

	if node.level != "info" {
		t.Errorf("Expected default level 'info', got: %s", node.level)
	}
}

func TestNewLogNode_MissingMessage(t *testing.T) {
	_, err := NewLogNode("test-log", map[string]any{})
	if err == nil {
		t.Fatal("Expected error when message is missing")
	}
}

func TestNewLogNode_InvalidLevel(t *testing.T) {
	_, err := NewLogNode("test-log", map[string]any{"message": "m", "level": "loud"})
	if err == nil {
		t.Fatal("Expected error for invalid level")
	}
}

func TestLogNode_Execute(t *testing.T) {
	node, err := NewLogNode("test-log", map[string]any{
		"message": "workflow {{.execution.workflow_id}}",
		"level":   "warn",
	})
	if err != nil {
		t.Fatalf("Failed to create node: %v", err)
	}

	ctx := models.ExecutionContext{
		ID:         "exec-1",
		WorkflowID: "wf-1",
	}

	results, err := node.Execute(ctx, nil)
	if err != nil {
		t.Fatalf("Node execution failed: %v", err)
	}

	successResult, ok := results[OutputPortSuccess]
	if !ok {
		t.Fatal("Expected success output port to be activated")
	}

	if successResult.Data["message"] != "workflow wf-1" {
		t.Errorf("Expected rendered message, got: %v", successResult.Data["message"])
	}

	if successResult.Data["level"] != "warn" {
		t.Errorf("Expected level 'warn', got: %v", successResult.Data["level"])
	}
}

func TestLogNode_Validate(t *testing.T) {
	node := &LogNode{id: "test-node"}

	tests := []struct {
		name    string
		config  map[string]any
		wantErr bool
	}{
		{name: "missing message", config: map[string]any{}, wantErr: true},
		{name: "valid", config: map[string]any{"message": "hi"}},
		{name: "valid with level", config: map[string]any{"message": "hi", "level": "debug"}},
		{name: "bad level", config: map[string]any{"message": "hi", "level": "verbose"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := node.Validate(tt.config)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
