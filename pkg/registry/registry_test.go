package registry

import (
	"context"
	"log/slog"
	"testing"
)

func newTestRegistry() *Registry {
	r := NewRegistry(slog.Default())
	r.RegisterDefaultNodes()

	return r
}

func TestRegisterDefaultNodes(t *testing.T) {
	r := newTestRegistry()

	expected := []string{"delay", "httprequest", "log", "trigger:schedule"}

	available := r.AvailableNodes()
	if len(available) != len(expected) {
		t.Fatalf("Expected %d node types, got: %v", len(expected), available)
	}

	for i, nodeType := range expected {
		if available[i] != nodeType {
			t.Errorf("Expected node type '%s' at position %d, got: %s", nodeType, i, available[i])
		}
	}
}

func TestCreateNode(t *testing.T) {
	r := newTestRegistry()

	node, err := r.CreateNode(context.Background(), "delay", "wait-1", map[string]any{
		"wait_for": map[string]any{"minutes": 5},
	})
	if err != nil {
		t.Fatalf("Failed to create node: %v", err)
	}

	if node.ID() != "wait-1" {
		t.Errorf("Expected node ID 'wait-1', got: %s", node.ID())
	}

	if node.Type() != "delay" {
		t.Errorf("Expected node type 'delay', got: %s", node.Type())
	}
}

func TestCreateNode_UnknownType(t *testing.T) {
	r := newTestRegistry()

	_, err := r.CreateNode(context.Background(), "teleport", "n-1", map[string]any{})
	if err == nil {
		t.Fatal("Expected error for unregistered node type")
	}
}

func TestValidateNodeConfig(t *testing.T) {
	r := newTestRegistry()

	tests := []struct {
		name     string
		nodeType string
		config   map[string]any
		wantErr  bool
	}{
		{
			name:     "valid delay duration",
			nodeType: "delay",
			config:   map[string]any{"wait_for": map[string]any{"minutes": 5}},
		},
		{
			name:     "delay with negative component",
			nodeType: "delay",
			config:   map[string]any{"wait_for": map[string]any{"minutes": -5}},
			wantErr:  true,
		},
		{
			name:     "delay with bad mode",
			nodeType: "delay",
			config:   map[string]any{"mode": "whenever"},
			wantErr:  true,
		},
		{
			name:     "log missing message",
			nodeType: "log",
			config:   map[string]any{},
			wantErr:  true,
		},
		{
			name:     "httprequest valid",
			nodeType: "httprequest",
			config:   map[string]any{"url": "https://example.com"},
		},
		{
			name:     "unregistered type",
			nodeType: "teleport",
			config:   map[string]any{},
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := r.ValidateNodeConfig(tt.nodeType, tt.config)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateNodeConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestIsNodeRegistered(t *testing.T) {
	r := newTestRegistry()

	if !r.IsNodeRegistered("delay") {
		t.Error("Expected 'delay' to be registered")
	}

	if r.IsNodeRegistered("teleport") {
		t.Error("Expected 'teleport' to not be registered")
	}
}
