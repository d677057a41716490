// Package template renders {{name}} placeholders in message templates.
package template

import (
	"strings"

	"github.com/dukex/notiair/pkg/models"
)

const (
	openDelim  = "{{"
	closeDelim = "}}"
)

// placeholder is one {{name}} occurrence; start and end are byte offsets of
// the opening and one past the closing delimiter.
type placeholder struct {
	name  string
	start int
	end   int
}

// scan walks body left to right and calls visit for each placeholder. It stops
// at the first visit error or the first unterminated / empty placeholder.
func scan(body string, visit func(p placeholder) error) error {
	offset := 0

	for {
		idx := strings.Index(body[offset:], openDelim)
		if idx < 0 {
			return nil
		}

		start := offset + idx
		inner := start + len(openDelim)

		closing := strings.Index(body[inner:], closeDelim)
		if closing < 0 {
			return malformed(body[start:], start)
		}

		raw := body[inner : inner+closing]
		name := strings.TrimSpace(raw)

		if name == "" || strings.Contains(raw, openDelim) {
			return malformed(body[start:inner+closing+len(closeDelim)], start)
		}

		end := inner + closing + len(closeDelim)
		if err := visit(placeholder{name: name, start: start, end: end}); err != nil {
			return err
		}

		offset = end
	}
}

// Placeholders returns the distinct placeholder names of body in order of
// first appearance.
func Placeholders(body string) ([]string, error) {
	seen := make(map[string]bool)
	names := make([]string, 0)

	err := scan(body, func(p placeholder) error {
		if !seen[p.name] {
			seen[p.name] = true
			names = append(names, p.name)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return names, nil
}

// Render substitutes every placeholder of tpl.Body with its bound value and
// keeps all other text verbatim. The first unbound placeholder, scanning left
// to right, fails with ErrMissingVariable.
func Render(tpl models.Template, variables map[string]string) (string, error) {
	var (
		out  strings.Builder
		last int
	)

	out.Grow(len(tpl.Body))

	err := scan(tpl.Body, func(p placeholder) error {
		value, ok := variables[p.name]
		if !ok {
			return missing(p.name, p.start)
		}

		out.WriteString(tpl.Body[last:p.start])
		out.WriteString(value)
		last = p.end

		return nil
	})
	if err != nil {
		return "", err
	}

	out.WriteString(tpl.Body[last:])

	return out.String(), nil
}

// Validate checks the template invariant: the body is well formed and every
// placeholder is declared in tpl.Variables.
func Validate(tpl models.Template) error {
	return scan(tpl.Body, func(p placeholder) error {
		if _, ok := tpl.Variables[p.name]; !ok {
			return &VariableError{Name: p.name, Offset: p.start, Err: ErrUndeclaredVariable}
		}

		return nil
	})
}
