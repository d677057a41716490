package workflow

import (
	"encoding/json"
	"fmt"

	"github.com/dukex/notiair/pkg/models"
	"github.com/xeipuuv/gojsonschema"
)

var stringArray = map[string]any{
	"type":  "array",
	"items": map[string]any{"type": "string"},
}

var configSchemas = map[models.NodeType]map[string]any{
	models.NodeTypeTrigger: {
		"type": "object",
		"properties": map[string]any{
			"label":       map[string]any{"type": "string"},
			"variant":     map[string]any{"type": "string"},
			"eventTypes":  stringArray,
			"schedule":    map[string]any{"type": "string"},
			"description": map[string]any{"type": "string"},
		},
	},
	models.NodeTypeFilter: {
		"type": "object",
		"properties": map[string]any{
			"label":       map[string]any{"type": "string"},
			"description": map[string]any{"type": "string"},
			"variables": map[string]any{
				"type":                 "object",
				"additionalProperties": map[string]any{"type": "string"},
			},
		},
	},
	models.NodeTypeAction: {
		"type": "object",
		"properties": map[string]any{
			"label":       map[string]any{"type": "string"},
			"templateId":  map[string]any{"type": "string"},
			"channelId":   map[string]any{"type": "string"},
			"connectorId": map[string]any{"type": "string"},
		},
	},
}

// DecodeConfig turns the open config mapping of a stored node into its typed
// configuration. Unknown keys are ignored.
func DecodeConfig(nodeID string, nodeType models.NodeType, raw map[string]any) (models.NodeConfig, error) {
	schema, ok := configSchemas[nodeType]
	if !ok {
		return nil, &ConfigError{NodeID: nodeID, Details: []string{fmt.Sprintf("unknown node type %q", nodeType)}}
	}

	if raw == nil {
		raw = map[string]any{}
	}

	result, err := gojsonschema.Validate(gojsonschema.NewGoLoader(schema), gojsonschema.NewGoLoader(raw))
	if err != nil {
		return nil, &ConfigError{NodeID: nodeID, Details: []string{err.Error()}}
	}

	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			details = append(details, desc.String())
		}

		return nil, &ConfigError{NodeID: nodeID, Details: details}
	}

	var config models.NodeConfig

	switch nodeType {
	case models.NodeTypeTrigger:
		config = &models.TriggerConfig{}
	case models.NodeTypeFilter:
		config = &models.FilterConfig{}
	case models.NodeTypeAction:
		config = &models.ActionConfig{}
	}

	data, err := json.Marshal(raw)
	if err != nil {
		return nil, &ConfigError{NodeID: nodeID, Details: []string{err.Error()}}
	}

	if err := json.Unmarshal(data, config); err != nil {
		return nil, &ConfigError{NodeID: nodeID, Details: []string{err.Error()}}
	}

	return config, nil
}

// EncodeConfig turns a typed configuration back into its open mapping.
func EncodeConfig(config models.NodeConfig) (map[string]any, error) {
	raw := map[string]any{}
	if config == nil {
		return raw, nil
	}

	data, err := json.Marshal(config)
	if err != nil {
		return nil, fmt.Errorf("failed to encode node config: %w", err)
	}

	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to encode node config: %w", err)
	}

	return raw, nil
}
