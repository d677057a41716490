package workflow

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownNode       = errors.New("unknown node")
	ErrSelfLoop          = errors.New("self loop")
	ErrDuplicateEdge     = errors.New("duplicate edge")
	ErrUnknownEdge       = errors.New("unknown edge")
	ErrDuplicateNode     = errors.New("duplicate node id")
	ErrInvalidGraph      = errors.New("invalid workflow graph")
	ErrInvalidNodeConfig = errors.New("invalid node config")
)

// NodeError reports a failure tied to a single node id.
type NodeError struct {
	NodeID string
	Err    error
}

func (e *NodeError) Error() string {
	return fmt.Sprintf("node %q: %v", e.NodeID, e.Err)
}

func (e *NodeError) Unwrap() error {
	return e.Err
}

// EdgeError reports a failure tied to a (from, to) pair.
type EdgeError struct {
	From string
	To   string
	Err  error
}

func (e *EdgeError) Error() string {
	return fmt.Sprintf("edge %q -> %q: %v", e.From, e.To, e.Err)
}

func (e *EdgeError) Unwrap() error {
	return e.Err
}

// GraphError lists every structural problem that makes a workflow invalid.
type GraphError struct {
	Problems []Issue
}

func (e *GraphError) Error() string {
	msgs := make([]string, 0, len(e.Problems))
	for _, p := range e.Problems {
		msgs = append(msgs, p.Message)
	}

	return fmt.Sprintf("%v: %s", ErrInvalidGraph, strings.Join(msgs, "; "))
}

func (e *GraphError) Unwrap() error {
	return ErrInvalidGraph
}

// ConfigError wraps a schema or decoding failure of a node config.
type ConfigError struct {
	NodeID  string
	Details []string
}

func (e *ConfigError) Error() string {
	if len(e.Details) == 0 {
		return fmt.Sprintf("node %q: %v", e.NodeID, ErrInvalidNodeConfig)
	}

	return fmt.Sprintf("node %q: %v: %s", e.NodeID, ErrInvalidNodeConfig, strings.Join(e.Details, "; "))
}

func (e *ConfigError) Unwrap() error {
	return ErrInvalidNodeConfig
}
