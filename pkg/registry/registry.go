// Package registry provides node factory registration and node creation.
package registry

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/stasis-flow/stasis/pkg/protocol"
)

// Registry holds node factories keyed by node type.
type Registry struct {
	logger        *slog.Logger
	nodeFactories map[string]protocol.NodeFactory
}

// NewRegistry creates an empty registry.
func NewRegistry(log *slog.Logger) *Registry {
	return &Registry{
		logger:        log,
		nodeFactories: make(map[string]protocol.NodeFactory),
	}
}

// RegisterNode registers a node factory under its ID.
func (r *Registry) RegisterNode(factory protocol.NodeFactory) {
	r.nodeFactories[factory.ID()] = factory
	r.logger.Debug("Registered node factory", "node_type", factory.ID())
}

// CreateNode instantiates a node of the given type with the given configuration.
func (r *Registry) CreateNode(ctx context.Context, nodeType, id string, config map[string]any) (protocol.Node, error) {
	factory, ok := r.nodeFactories[nodeType]
	if !ok {
		return nil, fmt.Errorf("node type '%s' not registered", nodeType)
	}

	return factory.Create(ctx, id, config)
}

// NodeFactory returns the factory registered for the given node type.
func (r *Registry) NodeFactory(nodeType string) (protocol.NodeFactory, bool) {
	factory, ok := r.nodeFactories[nodeType]

	return factory, ok
}

// AvailableNodes returns the registered node types in sorted order.
func (r *Registry) AvailableNodes() []string {
	types := make([]string, 0, len(r.nodeFactories))
	for nodeType := range r.nodeFactories {
		types = append(types, nodeType)
	}

	sort.Strings(types)

	return types
}

// IsNodeRegistered checks whether a node type is registered.
func (r *Registry) IsNodeRegistered(nodeType string) bool {
	_, exists := r.nodeFactories[nodeType]

	return exists
}
