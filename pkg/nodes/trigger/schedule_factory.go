package trigger

import (
	"context"

	"github.com/stasis-flow/stasis/pkg/models"
	"github.com/stasis-flow/stasis/pkg/protocol"
)

// ScheduleTriggerNodeFactory creates ScheduleTriggerNode instances.
type ScheduleTriggerNodeFactory struct{}

// NewScheduleTriggerNodeFactory creates a new schedule trigger node factory.
func NewScheduleTriggerNodeFactory() protocol.NodeFactory {
	return &ScheduleTriggerNodeFactory{}
}

// Create creates a new ScheduleTriggerNode instance.
func (f *ScheduleTriggerNodeFactory) Create(ctx context.Context, id string, config map[string]any) (protocol.Node, error) {
	return NewScheduleTriggerNode(id, config)
}

// ID returns the factory ID.
func (f *ScheduleTriggerNodeFactory) ID() string {
	return models.NodeTypeTriggerSchedule
}

// Name returns the factory name.
func (f *ScheduleTriggerNodeFactory) Name() string {
	return "Schedule Trigger"
}

// Description returns the factory description.
func (f *ScheduleTriggerNodeFactory) Description() string {
	return "Starts workflow executions on a cron schedule"
}

// Schema returns the JSON schema for schedule trigger node configuration.
func (f *ScheduleTriggerNodeFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"cron_expression": map[string]any{
				"type":        "string",
				"description": "Standard five-field cron expression defining when the trigger fires",
				"examples": []string{
					"0 9 * * MON-FRI",
					"*/15 * * * *",
					"0 0 1 * *",
				},
			},
			"timezone": map[string]any{
				"type":        "string",
				"description": "IANA timezone name the cron expression is evaluated in",
				"default":     "UTC",
				"examples": []string{
					"UTC",
					"America/New_York",
					"Europe/London",
				},
			},
		},
		"required": []string{"cron_expression"},
		"examples": []map[string]any{
			{
				"cron_expression": "0 9 * * MON-FRI",
				"timezone":        "America/New_York",
			},
		},
	}
}
