package delay

import (
	"testing"
	"time"

	"github.com/stasis-flow/stasis/pkg/models"
)

const delayNodeType = "delay"

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

func TestNewDelayNode(t *testing.T) {
	config := map[string]any{
		"wait_for": map[string]any{"minutes": 5},
	}

	node, err := NewDelayNode("test-delay", config)
	if err != nil {
		t.Fatalf("Failed to create node: %v", err)
	}

	if node.ID() != "test-delay" {
		t.Errorf("Expected ID 'test-delay', got: %s", node.ID())
	}

	if node.Type() != delayNodeType {
		t.Errorf("Expected type 'delay', got: %s", node.Type())
	}
}

func TestNewDelayNode_InvalidConfig(t *testing.T) {
	_, err := NewDelayNode("test-delay", map[string]any{"minutes": "five"})
	if err == nil {
		t.Fatal("Expected error for non-integer minutes")
	}

	_, err = NewDelayNode("test-delay", map[string]any{"mode": "whenever"})
	if err == nil {
		t.Fatal("Expected error for unsupported mode")
	}
}

func TestDelayNode_Execute_Wait(t *testing.T) {
	node, err := NewDelayNode("test-delay", map[string]any{
		"wait_for": map[string]any{"hours": 1},
	})
	if err != nil {
		t.Fatalf("Failed to create node: %v", err)
	}

	now := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	node.now = fixedClock(now)

	ctx := models.ExecutionContext{
		ID:          "test-exec",
		WorkflowID:  "test-workflow",
		NodeResults: make(map[string]models.NodeResult),
	}

	results, err := node.Execute(ctx, make(map[string]models.NodeResult))
	if err != nil {
		t.Fatalf("Node execution failed: %v", err)
	}

	waitResult, ok := results[OutputPortWait]
	if !ok {
		t.Fatal("Expected wait output port to be activated")
	}

	if waitResult.Status != string(models.NodeStatusWaiting) {
		t.Errorf("Expected waiting status, got: %s", waitResult.Status)
	}

	resumeAt, ok := waitResult.Data["resume_at"].(string)
	if !ok {
		t.Fatal("Expected resume_at to be a string")
	}

	want := now.Add(time.Hour).Format(time.RFC3339)
	if resumeAt != want {
		t.Errorf("Expected resume_at %s, got: %s", want, resumeAt)
	}

	if waitResult.Data["total_seconds"] != int64(3600) {
		t.Errorf("Expected total_seconds 3600, got: %v", waitResult.Data["total_seconds"])
	}
}

func TestDelayNode_Execute_PastTargetIsImmediate(t *testing.T) {
	now := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)

	node, err := NewDelayNode("test-delay", map[string]any{
		"mode":       "datetime",
		"wait_until": now.Add(-time.Minute).Format(time.RFC3339),
	})
	if err != nil {
		t.Fatalf("Failed to create node: %v", err)
	}

	node.now = fixedClock(now)

	results, err := node.Execute(models.ExecutionContext{ID: "test-exec"}, nil)
	if err != nil {
		t.Fatalf("Node execution failed: %v", err)
	}

	successResult, ok := results[OutputPortSuccess]
	if !ok {
		t.Fatal("Expected success output port for a past target")
	}

	if successResult.Status != string(models.NodeStatusSuccess) {
		t.Errorf("Expected success status, got: %s", successResult.Status)
	}

	if waited, ok := successResult.Data["waited"].(bool); !ok || waited {
		t.Errorf("Expected waited=false, got: %v", successResult.Data["waited"])
	}
}

func TestDelayNode_Execute_Unconfigured(t *testing.T) {
	node, err := NewDelayNode("test-delay", map[string]any{})
	if err != nil {
		t.Fatalf("Failed to create node: %v", err)
	}

	results, err := node.Execute(models.ExecutionContext{ID: "test-exec"}, nil)
	if err != nil {
		t.Fatalf("Node execution failed: %v", err)
	}

	errorResult, ok := results[OutputPortError]
	if !ok {
		t.Fatal("Expected error output port for unconfigured delay")
	}

	if errorResult.Status != string(models.NodeStatusError) {
		t.Errorf("Expected error status, got: %s", errorResult.Status)
	}

	if errorResult.Error == "" {
		t.Error("Expected non-empty error message")
	}
}

func TestDelayNode_Validate(t *testing.T) {
	node := &DelayNode{id: "test-node"}

	tests := []struct {
		name    string
		config  map[string]any
		wantErr bool
	}{
		{
			name:    "empty config",
			config:  map[string]any{},
			wantErr: true,
		},
		{
			name:   "single positive component",
			config: map[string]any{"minutes": 5},
		},
		{
			name:   "absolute timestamp",
			config: map[string]any{"wait_until": "2026-01-01T00:00:00Z"},
		},
		{
			name:    "unparseable timestamp",
			config:  map[string]any{"wait_until": "not-a-date"},
			wantErr: true,
		},
		{
			name:    "negative component",
			config:  map[string]any{"seconds": -1},
			wantErr: true,
		},
		{
			name:    "all-zero components without timestamp",
			config:  map[string]any{"wait_for": map[string]any{"days": 0, "seconds": 0}},
			wantErr: true,
		},
		{
			name:   "nested duration",
			config: map[string]any{"wait_for": map[string]any{"days": 1}},
		},
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

func TestDelayNode_Ports(t *testing.T) {
	node := &DelayNode{id: "test-node"}

	inputPorts := node.InputPorts()
	if len(inputPorts) != 1 {
		t.Errorf("Expected 1 input port, got: %d", len(inputPorts))
	}

	if inputPorts[0].Name != InputPortMain {
		t.Errorf("Expected input port name '%s', got: %s", InputPortMain, inputPorts[0].Name)
	}

	outputPorts := node.OutputPorts()
	if len(outputPorts) != 3 {
		t.Errorf("Expected 3 output ports, got: %d", len(outputPorts))
	}

	expectedPorts := []string{OutputPortSuccess, OutputPortWait, OutputPortError}

	foundPorts := make(map[string]bool)
	for _, port := range outputPorts {
		foundPorts[port.Name] = true
	}

	for _, port := range expectedPorts {
		if !foundPorts[port] {
			t.Errorf("Expected output port '%s' to be defined", port)
		}
	}
}

func TestDelayNode_InputRequirements(t *testing.T) {
	node := &DelayNode{id: "test-node"}

	requirements := node.InputRequirements()

	if len(requirements.RequiredPorts) != 1 || requirements.RequiredPorts[0] != InputPortMain {
		t.Errorf("Expected required port 'main', got: %v", requirements.RequiredPorts)
	}

	if requirements.WaitMode != models.WaitModeAll {
		t.Errorf("Expected WaitModeAll, got: %s", requirements.WaitMode)
	}
}
