// Package delay provides the delay node implementation for workflow graph execution.
package delay

import (
	"time"

	"github.com/stasis-flow/stasis/pkg/models"
)

const (
	InputPortMain     = "main"
	OutputPortSuccess = "success"
	OutputPortWait    = "wait"
	OutputPortError   = "error"
)

// DelayNode implements the Node interface for pausing workflow execution,
// either for a relative duration or until an absolute point in time.
type DelayNode struct {
	id     string
	config *models.DelayConfig

	// now is swappable for tests.
	now func() time.Time
}

// NewDelayNode creates a new delay node from a raw node configuration.
func NewDelayNode(id string, config map[string]any) (*DelayNode, error) {
	delayConfig, err := models.ParseDelayConfig(config)
	if err != nil {
		return nil, err
	}

	return &DelayNode{
		id:     id,
		config: delayConfig,
		now:    func() time.Time { return time.Now().UTC() },
	}, nil
}

// ID returns the node ID.
func (n *DelayNode) ID() string {
	return n.id
}

// Type returns the node type.
func (n *DelayNode) Type() string {
	return models.NodeTypeDelay
}

// Execute resolves the delay plan against the wall clock. Immediate plans
// continue on the success port; anything else activates the wait port with
// the resume time, which the executor turns into a sleeping run.
func (n *DelayNode) Execute(ctx models.ExecutionContext, inputs map[string]models.NodeResult) (map[string]models.NodeResult, error) {
	now := n.now()

	plan, err := n.config.Plan(now, nil)
	if err != nil {
		return n.createErrorResult(err.Error()), nil
	}

	if plan.Immediate {
		return map[string]models.NodeResult{
			OutputPortSuccess: {
				NodeID: n.id,
				Data: map[string]any{
					"waited":     false,
					"resumed_at": now.Format(time.RFC3339),
				},
				Status:    string(models.NodeStatusSuccess),
				Timestamp: now,
			},
		}, nil
	}

	return map[string]models.NodeResult{
		OutputPortWait: {
			NodeID: n.id,
			Data: map[string]any{
				"resume_at":      plan.ResumeAt.Format(time.RFC3339),
				"base_seconds":   int64(plan.Base / time.Second),
				"jitter_seconds": int64(plan.Jitter / time.Second),
				"total_seconds":  int64(plan.Total / time.Second),
			},
			Status:    string(models.NodeStatusWaiting),
			Timestamp: now,
		},
	}, nil
}

// createErrorResult creates a NodeResult for the error output port.
func (n *DelayNode) createErrorResult(errorMessage string) map[string]models.NodeResult {
	return map[string]models.NodeResult{
		OutputPortError: {
			NodeID: n.id,
			Data: map[string]any{
				"error":   errorMessage,
				"success": false,
			},
			Status: string(models.NodeStatusError),
			Error:  errorMessage,
		},
	}
}

// InputPorts returns the input ports for the node.
func (n *DelayNode) InputPorts() []models.InputPort {
	return []models.InputPort{
		{
			Port: models.Port{
				ID:          models.MakePortID(n.id, InputPortMain),
				NodeID:      n.id,
				Name:        InputPortMain,
				Description: "Main input that starts the delay",
			},
		},
	}
}

// OutputPorts returns the output ports for the node.
func (n *DelayNode) OutputPorts() []models.OutputPort {
	return []models.OutputPort{
		{
			Port: models.Port{
				ID:          models.MakePortID(n.id, OutputPortSuccess),
				NodeID:      n.id,
				Name:        OutputPortSuccess,
				Description: "Immediate continuation when no waiting is needed",
				Schema: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"waited":     map[string]any{"type": "boolean"},
						"resumed_at": map[string]any{"type": "string", "format": "date-time"},
					},
				},
			},
		},
		{
			Port: models.Port{
				ID:          models.MakePortID(n.id, OutputPortWait),
				NodeID:      n.id,
				Name:        OutputPortWait,
				Description: "Scheduled continuation carrying the resume time",
				Schema: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"resume_at":      map[string]any{"type": "string", "format": "date-time"},
						"base_seconds":   map[string]any{"type": "integer"},
						"jitter_seconds": map[string]any{"type": "integer"},
						"total_seconds":  map[string]any{"type": "integer"},
					},
				},
			},
		},
		{
			Port: models.Port{
				ID:          models.MakePortID(n.id, OutputPortError),
				NodeID:      n.id,
				Name:        OutputPortError,
				Description: "Error information when the delay configuration is unusable",
				Schema: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"error":   map[string]any{"type": "string"},
						"success": map[string]any{"type": "boolean"},
					},
				},
			},
		},
	}
}

// InputRequirements returns the input coordination requirements for the delay node.
func (n *DelayNode) InputRequirements() models.InputRequirements {
	return models.InputRequirements{
		RequiredPorts: []string{InputPortMain},
		OptionalPorts: []string{},
		WaitMode:      models.WaitModeAll,
		Timeout:       nil,
	}
}

// Validate validates the node configuration.
func (n *DelayNode) Validate(config map[string]any) error {
	delayConfig, err := models.ParseDelayConfig(config)
	if err != nil {
		return err
	}

	return delayConfig.Validate()
}
