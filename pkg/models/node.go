package models

// NodeType is the role of a node in a workflow graph.
type NodeType string

const (
	NodeTypeTrigger NodeType = "trigger"
	NodeTypeFilter  NodeType = "filter"
	NodeTypeAction  NodeType = "action"
)

// Trigger variants understood by the trigger processes.
const (
	TriggerVariantManual   = "manual"
	TriggerVariantStream   = "stream"
	TriggerVariantSchedule = "schedule"

	// StreamBrokerLabel is the label older editors put on stream triggers.
	StreamBrokerLabel = "Stream broker"
)

// Valid reports whether t is one of the known node types.
func (t NodeType) Valid() bool {
	switch t {
	case NodeTypeTrigger, NodeTypeFilter, NodeTypeAction:
		return true
	default:
		return false
	}
}

// WorkflowNode is a node instance in a workflow. Config holds the
// type-specific configuration and always matches Type.
type WorkflowNode struct {
	ID     string     `json:"id"`
	Type   NodeType   `json:"type"`
	Config NodeConfig `json:"config"`
}

// Clone returns a deep copy of the node.
func (n *WorkflowNode) Clone() *WorkflowNode {
	if n == nil {
		return nil
	}

	clone := *n
	if n.Config != nil {
		clone.Config = n.Config.clone()
	}

	return &clone
}

// Action returns the action configuration when the node is an action node.
func (n *WorkflowNode) Action() (*ActionConfig, bool) {
	cfg, ok := n.Config.(*ActionConfig)

	return cfg, ok && n.Type == NodeTypeAction
}

// Trigger returns the trigger configuration when the node is a trigger node.
func (n *WorkflowNode) Trigger() (*TriggerConfig, bool) {
	cfg, ok := n.Config.(*TriggerConfig)

	return cfg, ok && n.Type == NodeTypeTrigger
}

// Filter returns the filter configuration when the node is a filter node.
func (n *WorkflowNode) Filter() (*FilterConfig, bool) {
	cfg, ok := n.Config.(*FilterConfig)

	return cfg, ok && n.Type == NodeTypeFilter
}

// NodeConfig is the closed set of per-type node configurations.
type NodeConfig interface {
	NodeType() NodeType
	clone() NodeConfig
}

// TriggerConfig configures the entry node of a workflow.
type TriggerConfig struct {
	Label       string   `json:"label,omitempty"`
	Variant     string   `json:"variant,omitempty"`
	EventTypes  []string `json:"eventTypes,omitempty"`
	Schedule    string   `json:"schedule,omitempty"`
	Description string   `json:"description,omitempty"`
}

func (c *TriggerConfig) NodeType() NodeType { return NodeTypeTrigger }

func (c *TriggerConfig) clone() NodeConfig {
	out := *c
	out.EventTypes = append([]string(nil), c.EventTypes...)

	return &out
}

// IsStream reports whether the trigger listens on the event stream.
func (c *TriggerConfig) IsStream() bool {
	return c.Variant == TriggerVariantStream || c.Label == StreamBrokerLabel
}

// IsSchedule reports whether the trigger fires on a cron schedule.
func (c *TriggerConfig) IsSchedule() bool {
	return c.Variant == TriggerVariantSchedule && c.Schedule != ""
}

// FilterConfig configures an intermediate node. Variables are bound for every
// action downstream of the filter.
type FilterConfig struct {
	Label       string            `json:"label,omitempty"`
	Description string            `json:"description,omitempty"`
	Variables   map[string]string `json:"variables,omitempty"`
}

func (c *FilterConfig) NodeType() NodeType { return NodeTypeFilter }

func (c *FilterConfig) clone() NodeConfig {
	out := *c
	if c.Variables != nil {
		out.Variables = make(map[string]string, len(c.Variables))
		for k, v := range c.Variables {
			out.Variables[k] = v
		}
	}

	return &out
}

// ActionConfig points an action node at a template and a delivery channel.
type ActionConfig struct {
	Label       string `json:"label,omitempty"`
	TemplateID  string `json:"templateId,omitempty"`
	ChannelID   string `json:"channelId,omitempty"`
	ConnectorID string `json:"connectorId,omitempty"`
}

func (c *ActionConfig) NodeType() NodeType { return NodeTypeAction }

func (c *ActionConfig) clone() NodeConfig {
	out := *c

	return &out
}
