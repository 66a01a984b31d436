// Package delay provides the delay node factory for registry integration.
package delay

import (
	"context"

	"github.com/stasis-flow/stasis/pkg/protocol"
)

// DelayNodeFactory creates DelayNode instances.
type DelayNodeFactory struct{}

// Create creates a new DelayNode instance.
func (f *DelayNodeFactory) Create(ctx context.Context, id string, config map[string]any) (protocol.Node, error) {
	return NewDelayNode(id, config)
}

// ID returns the factory ID.
func (f *DelayNodeFactory) ID() string {
	return "delay"
}

// Name returns the factory name.
func (f *DelayNodeFactory) Name() string {
	return "Delay"
}

// Description returns the factory description.
func (f *DelayNodeFactory) Description() string {
	return "Pauses the workflow for a fixed duration or until an absolute point in time, with optional jitter"
}

// Schema returns the JSON schema for Delay node configuration.
func (f *DelayNodeFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"mode": map[string]any{
				"type":        "string",
				"enum":        []string{"auto", "duration", "datetime"},
				"description": "How the wait is decided. 'auto' accepts whichever setting is present.",
				"default":     "auto",
			},
			"wait_for": map[string]any{
				"type":        "object",
				"description": "Relative wait from step start. Components default to zero.",
				"properties": map[string]any{
					"days":    map[string]any{"type": "integer", "minimum": 0},
					"hours":   map[string]any{"type": "integer", "minimum": 0},
					"minutes": map[string]any{"type": "integer", "minimum": 0},
					"seconds": map[string]any{"type": "integer", "minimum": 0},
				},
			},
			"wait_until": map[string]any{
				"type":        "string",
				"format":      "date-time",
				"description": "RFC 3339 timestamp marking when the delay ends.",
			},
			"jitter_seconds": map[string]any{
				"type":        "integer",
				"minimum":     0,
				"description": "Random 0..N second slack added on top of the base wait.",
			},
		},
		"examples": []map[string]any{
			{"wait_for": map[string]any{"hours": 2, "minutes": 30}},
			{"mode": "datetime", "wait_until": "2026-01-01T00:00:00Z"},
			{"wait_for": map[string]any{"minutes": 5}, "jitter_seconds": 30},
		},
	}
}

// NewDelayNodeFactory creates a new factory instance.
func NewDelayNodeFactory() protocol.NodeFactory {
	return &DelayNodeFactory{}
}
