// Package protocol defines the interfaces and contracts for pluggable nodes.
package protocol

import (
	"context"

	"github.com/stasis-flow/stasis/pkg/models"
)

// Node is a single executable unit inside a workflow graph.
type Node interface {
	// ID returns the node instance identifier
	ID() string

	// Type returns the node type identifier
	Type() string

	// Execute runs the node against the execution context and collected
	// inputs, returning results keyed by output port name
	Execute(ctx models.ExecutionContext, inputs map[string]models.NodeResult) (map[string]models.NodeResult, error)

	// Validate checks a raw configuration without instantiating side effects
	Validate(config map[string]any) error

	// InputPorts returns the declared input ports
	InputPorts() []models.InputPort

	// OutputPorts returns the declared output ports
	OutputPorts() []models.OutputPort

	// InputRequirements declares how inputs are coordinated before Execute
	InputRequirements() models.InputRequirements
}

// NodeFactory creates node instances and provides metadata about the node type.
type NodeFactory interface {
	// Create creates a new node instance with the given configuration
	Create(ctx context.Context, id string, config map[string]any) (Node, error)

	// ID returns the unique identifier for this node type
	ID() string

	// Name returns the human-readable name for this node type
	Name() string

	// Description returns a description of what this node does
	Description() string

	// Schema returns the JSON schema for configuring this node
	Schema() map[string]any
}
