package template

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingVariable is returned when a placeholder has no bound value.
	ErrMissingVariable = errors.New("missing variable")

	// ErrMalformedPlaceholder is returned for an unterminated or empty {{ }}.
	ErrMalformedPlaceholder = errors.New("malformed placeholder")

	// ErrUndeclaredVariable is returned when a placeholder is not declared in the template variables.
	ErrUndeclaredVariable = errors.New("undeclared variable")
)

// VariableError carries the offending placeholder and its byte offset in the body.
type VariableError struct {
	Name   string
	Offset int
	Err    error
}

func (e *VariableError) Error() string {
	return fmt.Sprintf("%v %q at offset %d", e.Err, e.Name, e.Offset)
}

func (e *VariableError) Unwrap() error {
	return e.Err
}

func (e *VariableError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

func missing(name string, offset int) error {
	return &VariableError{Name: name, Offset: offset, Err: ErrMissingVariable}
}

func malformed(fragment string, offset int) error {
	const maxFragment = 32
	if len(fragment) > maxFragment {
		fragment = fragment[:maxFragment]
	}

	return &VariableError{Name: fragment, Offset: offset, Err: ErrMalformedPlaceholder}
}
