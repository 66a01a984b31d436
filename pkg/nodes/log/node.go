// Package log provides the logging node implementation for workflow graph execution.
package log

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/stasis-flow/stasis/pkg/models"
	"github.com/stasis-flow/stasis/pkg/template"
)

const (
	OutputPortSuccess = "success"
	OutputPortError   = "error"
	InputPortMain     = "main"
)

var validLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// LogNode implements the Node interface for emitting messages into the
// process log, mainly used for workflow debugging.
type LogNode struct {
	id      string
	message string
	level   string
	logger  *slog.Logger
}

// NewLogNode creates a new logging node.
func NewLogNode(id string, config map[string]any) (*LogNode, error) {
	message, ok := config["message"].(string)
	if !ok {
		return nil, errors.New("missing required field 'message'")
	}

	level := "info"
	if lvl, ok := config["level"].(string); ok && lvl != "" {
		if !validLevels[lvl] {
			return nil, fmt.Errorf("invalid log level '%s'", lvl)
		}

		level = lvl
	}

	return &LogNode{
		id:      id,
		message: message,
		level:   level,
		logger:  slog.Default(),
	}, nil
}

// ID returns the node ID.
func (n *LogNode) ID() string {
	return n.id
}

// Type returns the node type.
func (n *LogNode) Type() string {
	return models.NodeTypeLog
}

// Execute renders the message template and logs it at the configured level.
func (n *LogNode) Execute(ctx models.ExecutionContext, inputs map[string]models.NodeResult) (map[string]models.NodeResult, error) {
	rendered, err := template.RenderWithContext(n.message, &ctx)
	if err != nil {
		return n.createErrorResult(fmt.Sprintf("failed to render log message template: %v", err)), nil
	}

	message := fmt.Sprintf("%v", rendered)
	logger := n.logger.With("node_id", n.id, "execution_id", ctx.ID)

	switch n.level {
	case "debug":
		logger.Debug(message)
	case "warn":
		logger.Warn(message)
	case "error":
		logger.Error(message)
	default:
		logger.Info(message)
	}

	return map[string]models.NodeResult{
		OutputPortSuccess: {
			NodeID: n.id,
			Data: map[string]any{
				"message": message,
				"level":   n.level,
				"logged":  true,
			},
			Status: string(models.NodeStatusSuccess),
		},
	}, nil
}

func (n *LogNode) createErrorResult(errorMessage string) map[string]models.NodeResult {
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
func (n *LogNode) InputPorts() []models.InputPort {
	return []models.InputPort{
		{
			Port: models.Port{
				ID:          models.MakePortID(n.id, InputPortMain),
				NodeID:      n.id,
				Name:        InputPortMain,
				Description: "Main input for triggering the log operation",
			},
		},
	}
}

// OutputPorts returns the output ports for the node.
func (n *LogNode) OutputPorts() []models.OutputPort {
	return []models.OutputPort{
		{
			Port: models.Port{
				ID:          models.MakePortID(n.id, OutputPortSuccess),
				NodeID:      n.id,
				Name:        OutputPortSuccess,
				Description: "Logged message information",
				Schema: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"message": map[string]any{"type": "string"},
						"level":   map[string]any{"type": "string"},
						"logged":  map[string]any{"type": "boolean"},
					},
				},
			},
		},
		{
			Port: models.Port{
				ID:          models.MakePortID(n.id, OutputPortError),
				NodeID:      n.id,
				Name:        OutputPortError,
				Description: "Error information when logging fails",
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

// InputRequirements returns the input coordination requirements for the log node.
func (n *LogNode) InputRequirements() models.InputRequirements {
	return models.InputRequirements{
		RequiredPorts: []string{InputPortMain},
		OptionalPorts: []string{},
		WaitMode:      models.WaitModeAll,
		Timeout:       nil,
	}
}

// Validate validates the node configuration.
func (n *LogNode) Validate(config map[string]any) error {
	if _, ok := config["message"]; !ok {
		return errors.New("missing required field 'message'")
	}

	if lvl, ok := config["level"].(string); ok && lvl != "" && !validLevels[lvl] {
		return fmt.Errorf("invalid log level '%s'", lvl)
	}

	return nil
}
