// Package trigger provides trigger node implementations that start workflow executions.
package trigger

import (
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/stasis-flow/stasis/pkg/models"
)

const (
	ScheduleInputPortExternal = "external"
	ScheduleOutputPortSuccess = "success"
	ScheduleOutputPortError   = "error"
)

// ScheduleTriggerNode implements the Node interface for cron-based schedule triggers.
type ScheduleTriggerNode struct {
	id     string
	config ScheduleTriggerConfig
}

// ScheduleTriggerConfig defines the configuration for schedule trigger nodes.
type ScheduleTriggerConfig struct {
	CronExpression string `json:"cron_expression"`
	Timezone       string `json:"timezone"`
}

// NewScheduleTriggerNode creates a new schedule trigger node.
func NewScheduleTriggerNode(id string, config map[string]any) (*ScheduleTriggerNode, error) {
	scheduleConfig := ScheduleTriggerConfig{
		Timezone: "UTC",
	}

	cronExpr, ok := config["cron_expression"].(string)
	if !ok || cronExpr == "" {
		return nil, errors.New("cron_expression is required")
	}

	if _, err := cron.ParseStandard(cronExpr); err != nil {
		return nil, fmt.Errorf("invalid cron expression '%s': %w", cronExpr, err)
	}

	scheduleConfig.CronExpression = cronExpr

	if timezone, ok := config["timezone"].(string); ok && timezone != "" {
		if _, err := time.LoadLocation(timezone); err != nil {
			return nil, fmt.Errorf("invalid timezone '%s': %w", timezone, err)
		}

		scheduleConfig.Timezone = timezone
	}

	return &ScheduleTriggerNode{
		id:     id,
		config: scheduleConfig,
	}, nil
}

// ID returns the node ID.
func (n *ScheduleTriggerNode) ID() string {
	return n.id
}

// Type returns the node type.
func (n *ScheduleTriggerNode) Type() string {
	return models.NodeTypeTriggerSchedule
}

// NextFire returns the next time the schedule fires after the given instant,
// evaluated in the configured timezone.
func (n *ScheduleTriggerNode) NextFire(after time.Time) (time.Time, error) {
	schedule, err := cron.ParseStandard(n.config.CronExpression)
	if err != nil {
		return time.Time{}, err
	}

	loc, err := time.LoadLocation(n.config.Timezone)
	if err != nil {
		return time.Time{}, err
	}

	return schedule.Next(after.In(loc)), nil
}

// Execute processes the schedule event data delivered on the external port.
func (n *ScheduleTriggerNode) Execute(ctx models.ExecutionContext, inputs map[string]models.NodeResult) (map[string]models.NodeResult, error) {
	externalInput, exists := inputs[ScheduleInputPortExternal]
	if !exists {
		return n.createErrorResult("external input not found"), nil
	}

	scheduleData := externalInput.Data

	return map[string]models.NodeResult{
		ScheduleOutputPortSuccess: {
			NodeID: n.id,
			Data: map[string]any{
				"scheduled_time":  scheduleData["scheduled_time"],
				"cron_expression": n.config.CronExpression,
				"timezone":        n.config.Timezone,
				"trigger_data":    scheduleData,
			},
			Status: string(models.NodeStatusSuccess),
		},
	}, nil
}

func (n *ScheduleTriggerNode) createErrorResult(message string) map[string]models.NodeResult {
	return map[string]models.NodeResult{
		ScheduleOutputPortError: {
			NodeID: n.id,
			Data: map[string]any{
				"error":   message,
				"node_id": n.id,
			},
			Status: string(models.NodeStatusError),
			Error:  message,
		},
	}
}

// InputPorts returns the input ports for the schedule trigger node.
func (n *ScheduleTriggerNode) InputPorts() []models.InputPort {
	return []models.InputPort{
		{
			Port: models.Port{
				ID:          models.MakePortID(n.id, ScheduleInputPortExternal),
				NodeID:      n.id,
				Name:        ScheduleInputPortExternal,
				Description: "External schedule event input",
				Schema: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"scheduled_time": map[string]any{"type": "string", "format": "date-time"},
					},
				},
			},
		},
	}
}

// OutputPorts returns the output ports for the schedule trigger node.
func (n *ScheduleTriggerNode) OutputPorts() []models.OutputPort {
	return []models.OutputPort{
		{
			Port: models.Port{
				ID:          models.MakePortID(n.id, ScheduleOutputPortSuccess),
				NodeID:      n.id,
				Name:        ScheduleOutputPortSuccess,
				Description: "Schedule event data for downstream nodes",
				Schema: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"scheduled_time":  map[string]any{"type": "string", "format": "date-time"},
						"cron_expression": map[string]any{"type": "string"},
						"timezone":        map[string]any{"type": "string"},
						"trigger_data":    map[string]any{"type": "object"},
					},
				},
			},
		},
		{
			Port: models.Port{
				ID:          models.MakePortID(n.id, ScheduleOutputPortError),
				NodeID:      n.id,
				Name:        ScheduleOutputPortError,
				Description: "Schedule processing error",
				Schema: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"error":   map[string]any{"type": "string"},
						"node_id": map[string]any{"type": "string"},
					},
				},
			},
		},
	}
}

// InputRequirements returns the input requirements for the schedule trigger node.
func (n *ScheduleTriggerNode) InputRequirements() models.InputRequirements {
	return models.InputRequirements{
		RequiredPorts: []string{ScheduleInputPortExternal},
		OptionalPorts: []string{},
		WaitMode:      models.WaitModeAll,
		Timeout:       nil,
	}
}

// Validate validates the node configuration.
func (n *ScheduleTriggerNode) Validate(config map[string]any) error {
	cronExpr, ok := config["cron_expression"].(string)
	if !ok || cronExpr == "" {
		return errors.New("cron_expression is required and must be a non-empty string")
	}

	if _, err := cron.ParseStandard(cronExpr); err != nil {
		return fmt.Errorf("invalid cron expression '%s': %w", cronExpr, err)
	}

	if timezone, ok := config["timezone"].(string); ok && timezone != "" {
		if _, err := time.LoadLocation(timezone); err != nil {
			return fmt.Errorf("invalid timezone '%s': %w", timezone, err)
		}
	}

	return nil
}
