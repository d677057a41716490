package template

import (
	"testing"

	"github.com/dukex/notiair/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tpl(body string, vars ...string) models.Template {
	declared := make(map[string]string, len(vars))
	for _, v := range vars {
		declared[v] = "..."
	}

	return models.Template{ID: "t1", Name: "test", Body: body, Variables: declared}
}

func TestRender_SimplePlaceholder(t *testing.T) {
	result, err := Render(tpl("Hi {{name}}", "name"), map[string]string{"name": "Alice"})
	require.NoError(t, err)
	assert.Equal(t, "Hi Alice", result)
}

func TestRender_MissingVariable(t *testing.T) {
	_, err := Render(tpl("Hi {{name}}"), map[string]string{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingVariable)

	var varErr *VariableError
	require.ErrorAs(t, err, &varErr)
	assert.Equal(t, "name", varErr.Name)
	assert.Equal(t, 3, varErr.Offset)
}

func TestRender_FirstMissingInScanOrder(t *testing.T) {
	_, err := Render(tpl("{{ a }} {{b}} {{c}}"), map[string]string{"a": "1"})

	var varErr *VariableError
	require.ErrorAs(t, err, &varErr)
	assert.Equal(t, "b", varErr.Name)
}

func TestRender_Cases(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		body     string
		vars     map[string]string
		expected string
		err      error
	}{
		{
			name:     "no placeholders",
			body:     "plain text",
			expected: "plain text",
		},
		{
			name:     "trimmed name",
			body:     "Order {{  order_id }} shipped",
			vars:     map[string]string{"order_id": "42"},
			expected: "Order 42 shipped",
		},
		{
			name:     "repeated placeholder",
			body:     "{{x}}-{{x}}",
			vars:     map[string]string{"x": "y"},
			expected: "y-y",
		},
		{
			name:     "adjacent placeholders",
			body:     "{{a}}{{b}}",
			vars:     map[string]string{"a": "1", "b": "2"},
			expected: "12",
		},
		{
			name:     "lone closing braces kept",
			body:     "a }} b",
			expected: "a }} b",
		},
		{
			name: "unterminated",
			body: "Hi {{name",
			vars: map[string]string{"name": "x"},
			err:  ErrMalformedPlaceholder,
		},
		{
			name: "empty placeholder",
			body: "Hi {{ }}",
			err:  ErrMalformedPlaceholder,
		},
		{
			name: "nested opening",
			body: "{{a {{b}}",
			vars: map[string]string{"b": "x"},
			err:  ErrMalformedPlaceholder,
		},
		{
			name: "missing before malformed",
			body: "{{a}} {{",
			err:  ErrMissingVariable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			result, err := Render(tpl(tt.body), tt.vars)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				assert.Empty(t, result)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestRender_IdempotentAndNoPlaceholdersLeft(t *testing.T) {
	template := tpl("Dear {{name}}, your code is {{ code }}.", "name", "code")
	vars := map[string]string{"name": "Bob", "code": "X1"}

	first, err := Render(template, vars)
	require.NoError(t, err)

	second, err := Render(template, vars)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	remaining, err := Placeholders(first)
	require.NoError(t, err)
	assert.Empty(t, remaining)
}

func TestPlaceholders(t *testing.T) {
	names, err := Placeholders("{{b}} {{a}} {{ b }}")
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, names)

	_, err = Placeholders("{{")
	assert.ErrorIs(t, err, ErrMalformedPlaceholder)
}

func TestValidate(t *testing.T) {
	require.NoError(t, Validate(tpl("Hi {{name}}", "name", "extra")))

	err := Validate(tpl("Hi {{name}} {{city}}", "name"))
	require.ErrorIs(t, err, ErrUndeclaredVariable)

	var varErr *VariableError
	require.ErrorAs(t, err, &varErr)
	assert.Equal(t, "city", varErr.Name)

	assert.ErrorIs(t, Validate(tpl("Hi {{name", "name")), ErrMalformedPlaceholder)
}
