// Package dispatch assembles dispatch requests from a workflow action node,
// its template and its target channel.
package dispatch

import (
	"maps"

	"github.com/dukex/notiair/pkg/models"
	"github.com/dukex/notiair/pkg/template"
)

// Request is an assembled, rendered notification ready for delivery. It is
// immutable once built.
type Request struct {
	workflowID   string
	nodeID       string
	templateID   string
	channelID    string
	connectorID  string
	renderedBody string
	variables    map[string]string
}

func (r Request) WorkflowID() string   { return r.workflowID }
func (r Request) NodeID() string       { return r.nodeID }
func (r Request) TemplateID() string   { return r.templateID }
func (r Request) ChannelID() string    { return r.channelID }
func (r Request) ConnectorID() string  { return r.connectorID }
func (r Request) RenderedBody() string { return r.renderedBody }

// Variables returns a copy of the bindings used to render the body.
func (r Request) Variables() map[string]string {
	return maps.Clone(r.variables)
}

// Assemble validates that action belongs to wf and targets tpl and ch, merges
// the variable sources and renders the template.
//
// Bindings are merged in increasing precedence: wf.Filters, then each of
// filterVariables in order, then contextVariables. Render errors are returned
// unchanged.
func Assemble(
	wf *models.Workflow,
	action *models.WorkflowNode,
	tpl models.Template,
	ch models.Channel,
	contextVariables map[string]string,
	filterVariables ...map[string]string,
) (Request, error) {
	if wf == nil {
		return Request{}, ErrNoWorkflow
	}

	if action == nil || action.Type != models.NodeTypeAction {
		return Request{}, notAction(action)
	}

	cfg, ok := action.Action()
	if !ok {
		return Request{}, notAction(action)
	}

	if wf.Node(action.ID) == nil {
		return Request{}, &MismatchError{NodeID: action.ID, Field: "workflowId", Want: wf.ID, Got: ""}
	}

	if cfg.TemplateID != tpl.ID {
		return Request{}, &MismatchError{NodeID: action.ID, Field: "templateId", Want: cfg.TemplateID, Got: tpl.ID}
	}

	if cfg.ChannelID != ch.ID {
		return Request{}, &MismatchError{NodeID: action.ID, Field: "channelId", Want: cfg.ChannelID, Got: ch.ID}
	}

	variables := make(map[string]string, len(wf.Filters)+len(contextVariables))
	maps.Copy(variables, wf.Filters)

	for _, fv := range filterVariables {
		maps.Copy(variables, fv)
	}

	maps.Copy(variables, contextVariables)

	body, err := template.Render(tpl, variables)
	if err != nil {
		return Request{}, err
	}

	connectorID := cfg.ConnectorID
	if connectorID == "" {
		connectorID = ch.ConnectorID
	}

	return Request{
		workflowID:   wf.ID,
		nodeID:       action.ID,
		templateID:   tpl.ID,
		channelID:    ch.ID,
		connectorID:  connectorID,
		renderedBody: body,
		variables:    variables,
	}, nil
}
