package services

import (
	"context"
	"fmt"

	"github.com/stasis-flow/stasis/pkg/persistence"
	"github.com/stasis-flow/stasis/pkg/registry"
)

// Node provides node-level operations such as configuration validation.
type Node struct {
	persistence persistence.Persistence
	registry    *registry.Registry
}

// NewNode creates a new node service.
func NewNode(persistence persistence.Persistence, registry *registry.Registry) *Node {
	return &Node{
		persistence: persistence,
		registry:    registry,
	}
}

// NodeValidationResult is the outcome of validating a node configuration.
// Valid is the boolean readiness signal; Errors carries the reasons when the
// configuration is rejected.
type NodeValidationResult struct {
	NodeType string   `json:"node_type"`
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors,omitempty"`
}

// ValidateConfig validates a raw node configuration against the node type's
// schema and semantic rules without persisting anything.
func (n *Node) ValidateConfig(ctx context.Context, nodeType string, config map[string]any) (*NodeValidationResult, error) {
	factory, ok := n.registry.NodeFactory(nodeType)
	if !ok {
		return nil, NewValidationError(
			"ValidateConfig",
			"UNKNOWN_NODE_TYPE",
			fmt.Sprintf("node type '%s' is not registered", nodeType),
			ErrUnknownNodeType,
		)
	}

	result := &NodeValidationResult{NodeType: factory.ID(), Valid: true}

	if err := n.registry.ValidateNodeConfig(nodeType, config); err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, err.Error())

		return result, nil
	}

	// Schema passed; run the node's own semantic validation.
	node, err := factory.Create(ctx, "validation", config)
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, err.Error())

		return result, nil
	}

	if err := node.Validate(config); err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, err.Error())
	}

	return result, nil
}

// ValidateWorkflowNode validates the stored configuration of a node inside a workflow.
func (n *Node) ValidateWorkflowNode(ctx context.Context, workflowID, nodeID string) (*NodeValidationResult, error) {
	workflow, err := n.persistence.WorkflowRepository().GetByID(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	node := workflow.NodeByID(nodeID)
	if node == nil {
		return nil, fmt.Errorf("node %s in workflow %s: %w", nodeID, workflowID, persistence.ErrNodeNotFound)
	}

	return n.ValidateConfig(ctx, node.Type, node.Config)
}
