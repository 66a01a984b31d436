package models

import (
	"encoding/json"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkflowNode_Validation(t *testing.T) {
	validate := validator.New()

	node := &WorkflowNode{
		ID:       "delay-1",
		Type:     NodeTypeDelay,
		Category: CategoryTypeAction,
		Name:     "Wait a day",
		Config:   map[string]any{"wait_for": map[string]any{"days": 1}},
		Enabled:  true,
	}
	assert.NoError(t, validate.Struct(node))

	node.Name = ""
	assert.Error(t, validate.Struct(node))
}

func TestWorkflowNode_Category(t *testing.T) {
	action := &WorkflowNode{Category: CategoryTypeAction}
	trigger := &WorkflowNode{Category: CategoryTypeTrigger}

	assert.True(t, action.IsActionNode())
	assert.False(t, action.IsTriggerNode())
	assert.True(t, trigger.IsTriggerNode())
	assert.False(t, trigger.IsActionNode())
}

func TestWorkflow_NodeByID(t *testing.T) {
	wf := &Workflow{
		Nodes: []*WorkflowNode{
			{ID: "trigger-1", Category: CategoryTypeTrigger, Enabled: true},
			{ID: "delay-1", Category: CategoryTypeAction, Enabled: true},
		},
	}

	require.NotNil(t, wf.NodeByID("delay-1"))
	assert.Equal(t, "delay-1", wf.NodeByID("delay-1").ID)
	assert.Nil(t, wf.NodeByID("missing"))
}

func TestWorkflow_TriggerNodes(t *testing.T) {
	wf := &Workflow{
		Nodes: []*WorkflowNode{
			{ID: "trigger-1", Category: CategoryTypeTrigger, Enabled: true},
			{ID: "trigger-2", Category: CategoryTypeTrigger, Enabled: false},
			{ID: "delay-1", Category: CategoryTypeAction, Enabled: true},
		},
	}

	triggers := wf.TriggerNodes()
	require.Len(t, triggers, 1)
	assert.Equal(t, "trigger-1", triggers[0].ID)
}

func TestConnection_Validation(t *testing.T) {
	validate := validator.New()

	conn := &Connection{
		ID:         "conn-1",
		SourcePort: "trigger-1:success",
		TargetPort: "delay-1:main",
	}
	assert.NoError(t, validate.Struct(conn))

	conn.TargetPort = ""
	assert.Error(t, validate.Struct(conn))
}

func TestParsePortID(t *testing.T) {
	nodeID, portName, ok := ParsePortID("delay-1:wait")
	require.True(t, ok)
	assert.Equal(t, "delay-1", nodeID)
	assert.Equal(t, "wait", portName)

	_, _, ok = ParsePortID("no-separator")
	assert.False(t, ok)

	assert.Equal(t, "delay-1:wait", MakePortID("delay-1", "wait"))
}

func TestDelayConfig_JSONRoundTrip(t *testing.T) {
	// Configs cross the editor boundary as JSON; the decoded shape must
	// still parse and validate the same way.
	payload := []byte(`{"mode":"duration","wait_for":{"days":1,"minutes":15},"jitter_seconds":30}`)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(payload, &raw))

	cfg, err := ParseDelayConfig(raw)
	require.NoError(t, err)

	assert.Equal(t, DelayModeDuration, cfg.Mode)
	assert.False(t, cfg.HasErrors())
	assert.Equal(t, 30, cfg.JitterSeconds)
}
