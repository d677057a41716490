package dispatch

import (
	"testing"

	"github.com/dukex/notiair/pkg/models"
	"github.com/dukex/notiair/pkg/template"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixture() (*models.Workflow, *models.WorkflowNode, models.Template, models.Channel) {
	action := &models.WorkflowNode{
		ID:     "a",
		Type:   models.NodeTypeAction,
		Config: &models.ActionConfig{TemplateID: "tpl-1", ChannelID: "ch-1"},
	}

	wf := &models.Workflow{
		ID:   "wf-1",
		Name: "Orders",
		Nodes: []*models.WorkflowNode{
			{ID: "t", Type: models.NodeTypeTrigger, Config: &models.TriggerConfig{}},
			action,
		},
		Edges:   []models.WorkflowEdge{{From: "t", To: "a"}},
		Filters: map[string]string{"greeting": "Hello", "name": "customer"},
	}

	tpl := models.Template{
		ID:        "tpl-1",
		Body:      "{{greeting}} {{name}}, order {{order}}",
		Variables: map[string]string{"greeting": "", "name": "", "order": ""},
	}

	ch := models.Channel{ID: "ch-1", ConnectorID: "conn-1", Name: "@orders"}

	return wf, action, tpl, ch
}

func TestAssemble(t *testing.T) {
	wf, action, tpl, ch := fixture()

	req, err := Assemble(wf, action, tpl, ch, map[string]string{"name": "Alice", "order": "42"})
	require.NoError(t, err)

	assert.Equal(t, "Hello Alice, order 42", req.RenderedBody())
	assert.Equal(t, "wf-1", req.WorkflowID())
	assert.Equal(t, "a", req.NodeID())
	assert.Equal(t, "tpl-1", req.TemplateID())
	assert.Equal(t, "ch-1", req.ChannelID())
	assert.Equal(t, "conn-1", req.ConnectorID())
	assert.Equal(t, map[string]string{"greeting": "Hello", "name": "Alice", "order": "42"}, req.Variables())
}

func TestAssemble_VariablesAreCopied(t *testing.T) {
	wf, action, tpl, ch := fixture()
	ctxVars := map[string]string{"order": "42"}

	req, err := Assemble(wf, action, tpl, ch, ctxVars)
	require.NoError(t, err)

	ctxVars["order"] = "changed"
	wf.Filters["greeting"] = "changed"
	vars := req.Variables()
	vars["order"] = "changed"

	assert.Equal(t, "42", req.Variables()["order"])
	assert.Equal(t, "Hello", req.Variables()["greeting"])
}

func TestAssemble_FilterPrecedence(t *testing.T) {
	wf, action, tpl, ch := fixture()

	req, err := Assemble(wf, action, tpl, ch,
		map[string]string{"order": "42"},
		map[string]string{"greeting": "Hi", "name": "first"},
		map[string]string{"name": "second"},
	)
	require.NoError(t, err)
	assert.Equal(t, "Hi second, order 42", req.RenderedBody())
}

func TestAssemble_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(wf *models.Workflow, action **models.WorkflowNode, tpl *models.Template, ch *models.Channel)
		err    error
		field  string
	}{
		{
			name: "template mismatch",
			mutate: func(_ *models.Workflow, _ **models.WorkflowNode, tpl *models.Template, _ *models.Channel) {
				tpl.ID = "tpl-2"
			},
			err:   ErrConfigMismatch,
			field: "templateId",
		},
		{
			name: "channel mismatch",
			mutate: func(_ *models.Workflow, _ **models.WorkflowNode, _ *models.Template, ch *models.Channel) {
				ch.ID = "ch-2"
			},
			err:   ErrConfigMismatch,
			field: "channelId",
		},
		{
			name: "foreign node",
			mutate: func(_ *models.Workflow, action **models.WorkflowNode, _ *models.Template, _ *models.Channel) {
				clone := (*action).Clone()
				clone.ID = "other"
				*action = clone
			},
			err:   ErrConfigMismatch,
			field: "workflowId",
		},
		{
			name: "not an action",
			mutate: func(wf *models.Workflow, action **models.WorkflowNode, _ *models.Template, _ *models.Channel) {
				*action = wf.Nodes[0]
			},
			err: ErrNotActionNode,
		},
		{
			name: "missing variable",
			mutate: func(wf *models.Workflow, _ **models.WorkflowNode, _ *models.Template, _ *models.Channel) {
				delete(wf.Filters, "greeting")
			},
			err: template.ErrMissingVariable,
		},
		{
			name: "malformed body",
			mutate: func(_ *models.Workflow, _ **models.WorkflowNode, tpl *models.Template, _ *models.Channel) {
				tpl.Body = "{{greeting"
			},
			err: template.ErrMalformedPlaceholder,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			wf, action, tpl, ch := fixture()
			tt.mutate(wf, &action, &tpl, &ch)

			req, err := Assemble(wf, action, tpl, ch, map[string]string{"order": "1"})
			require.ErrorIs(t, err, tt.err)
			assert.Equal(t, Request{}, req)

			if tt.field != "" {
				var mismatch *MismatchError
				require.ErrorAs(t, err, &mismatch)
				assert.Equal(t, tt.field, mismatch.Field)
			}
		})
	}
}

func TestAssemble_NilWorkflow(t *testing.T) {
	_, action, tpl, ch := fixture()

	_, err := Assemble(nil, action, tpl, ch, nil)
	require.ErrorIs(t, err, ErrNoWorkflow)
}
