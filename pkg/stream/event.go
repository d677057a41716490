// Package stream triggers workflows from events published on the event
// stream and keeps the most recent events per type for the editor.
package stream

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/dukex/notiair/pkg/models"
)

// Event is a business event read from the stream topic.
type Event struct {
	EventID    string         `json:"event_id"`
	EventType  string         `json:"event_type"`
	OccurredAt string         `json:"occurred_at"`
	Context    map[string]any `json:"context"`
	Metadata   map[string]any `json:"metadata"`
}

// Payload is the dispatch payload built from the event.
func (e Event) Payload() map[string]any {
	return map[string]any{
		"event_id":    e.EventID,
		"event_type":  e.EventType,
		"occurred_at": e.OccurredAt,
		"context":     e.Context,
		"metadata":    e.Metadata,
	}
}

// Variables returns the scalar values of the event context as template
// variables. Nested objects and arrays are left out.
func (e Event) Variables() map[string]string {
	vars := make(map[string]string, len(e.Context))

	for key, value := range e.Context {
		switch v := value.(type) {
		case string:
			vars[key] = v
		case float64:
			vars[key] = strconv.FormatFloat(v, 'f', -1, 64)
		case bool:
			vars[key] = strconv.FormatBool(v)
		case int, int64:
			vars[key] = fmt.Sprint(v)
		}
	}

	return vars
}

// Matches reports whether wf is active and has a stream trigger listening for
// eventType.
func Matches(wf *models.Workflow, eventType string) bool {
	if !wf.IsActive {
		return false
	}

	for _, node := range wf.NodesOfType(models.NodeTypeTrigger) {
		cfg, ok := node.Trigger()
		if !ok || !cfg.IsStream() {
			continue
		}

		if slices.Contains(cfg.EventTypes, eventType) {
			return true
		}
	}

	return false
}
