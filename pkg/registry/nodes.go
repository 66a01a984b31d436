package registry

import (
	"github.com/stasis-flow/stasis/pkg/nodes/delay"
	"github.com/stasis-flow/stasis/pkg/nodes/httprequest"
	"github.com/stasis-flow/stasis/pkg/nodes/log"
	"github.com/stasis-flow/stasis/pkg/nodes/trigger"
)

// RegisterDefaultNodes registers all built-in node factories with the registry.
func (r *Registry) RegisterDefaultNodes() {
	r.RegisterNode(delay.NewDelayNodeFactory())
	r.RegisterNode(log.NewLogNodeFactory())
	r.RegisterNode(httprequest.NewHTTPRequestNodeFactory())
	r.RegisterNode(trigger.NewScheduleTriggerNodeFactory())
}
