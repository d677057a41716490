// Package workflow implements the workflow graph: structural editing,
// validation and conversion between documents and typed workflows.
package workflow

import (
	"sort"

	"github.com/dukex/notiair/pkg/models"
	"github.com/google/uuid"
)

type edgeKey struct {
	from string
	to   string
}

// Graph is an editable view over a workflow. Edges are indexed by endpoint so
// that removing a node touches only its own edges.
//
// A Graph is not safe for concurrent use; callers serialize edits per workflow.
type Graph struct {
	workflow *models.Workflow

	nodes map[string]*models.WorkflowNode
	out   map[string]map[string]uint64
	in    map[string]map[string]uint64

	seq   uint64
	newID func() string
}

// Option configures a Graph.
type Option func(*Graph)

// WithIDGenerator replaces the node id generator.
func WithIDGenerator(fn func() string) Option {
	return func(g *Graph) {
		g.newID = fn
	}
}

// New indexes a copy of wf. It fails when wf already holds duplicate node ids
// or edges that could not have been added through AddEdge.
func New(wf *models.Workflow, opts ...Option) (*Graph, error) {
	g := &Graph{
		workflow: wf.Clone(),
		nodes:    make(map[string]*models.WorkflowNode, len(wf.Nodes)),
		out:      make(map[string]map[string]uint64, len(wf.Nodes)),
		in:       make(map[string]map[string]uint64, len(wf.Nodes)),
		newID:    uuid.NewString,
	}

	for _, opt := range opts {
		opt(g)
	}

	for _, node := range g.workflow.Nodes {
		if _, exists := g.nodes[node.ID]; exists {
			return nil, &NodeError{NodeID: node.ID, Err: ErrDuplicateNode}
		}

		g.nodes[node.ID] = node
		g.out[node.ID] = make(map[string]uint64)
		g.in[node.ID] = make(map[string]uint64)
	}

	for _, edge := range g.workflow.Edges {
		if err := g.AddEdge(edge.From, edge.To); err != nil {
			return nil, err
		}
	}

	return g, nil
}

// Workflow returns a snapshot of the current workflow. Edges are listed in
// insertion order.
func (g *Graph) Workflow() *models.Workflow {
	g.workflow.Edges = g.edges()

	return g.workflow.Clone()
}

// HasNode reports whether id is a node of the graph.
func (g *Graph) HasNode(id string) bool {
	_, ok := g.nodes[id]

	return ok
}

// Node returns the node with the given id.
func (g *Graph) Node(id string) (*models.WorkflowNode, bool) {
	node, ok := g.nodes[id]

	return node, ok
}

// Successors returns the ids reached by the outgoing edges of id, in edge
// insertion order.
func (g *Graph) Successors(id string) []string {
	return sortedBySeq(g.out[id])
}

// Predecessors returns the ids with an edge into id, in edge insertion order.
func (g *Graph) Predecessors(id string) []string {
	return sortedBySeq(g.in[id])
}

// AddNode appends a node of the config's type with a fresh id. The node is not
// connected to anything.
func (g *Graph) AddNode(config models.NodeConfig) (*models.WorkflowNode, error) {
	if config == nil {
		return nil, &ConfigError{NodeID: "", Details: []string{"config is required"}}
	}

	id := g.newID()
	if _, exists := g.nodes[id]; exists {
		return nil, &NodeError{NodeID: id, Err: ErrDuplicateNode}
	}

	node := &models.WorkflowNode{
		ID:     id,
		Type:   config.NodeType(),
		Config: config,
	}

	g.workflow.Nodes = append(g.workflow.Nodes, node)
	g.nodes[id] = node
	g.out[id] = make(map[string]uint64)
	g.in[id] = make(map[string]uint64)

	return node, nil
}

// UpdateNodeConfig replaces the configuration of an existing node. The node
// type cannot change.
func (g *Graph) UpdateNodeConfig(id string, config models.NodeConfig) error {
	node, ok := g.nodes[id]
	if !ok {
		return &NodeError{NodeID: id, Err: ErrUnknownNode}
	}

	if config == nil || config.NodeType() != node.Type {
		return &ConfigError{NodeID: id, Details: []string{"config does not match node type " + string(node.Type)}}
	}

	node.Config = config

	return nil
}

// RemoveNode deletes the node and every edge touching it.
func (g *Graph) RemoveNode(id string) error {
	if _, ok := g.nodes[id]; !ok {
		return &NodeError{NodeID: id, Err: ErrUnknownNode}
	}

	for to := range g.out[id] {
		delete(g.in[to], id)
	}

	for from := range g.in[id] {
		delete(g.out[from], id)
	}

	delete(g.out, id)
	delete(g.in, id)
	delete(g.nodes, id)

	nodes := g.workflow.Nodes[:0]
	for _, node := range g.workflow.Nodes {
		if node.ID != id {
			nodes = append(nodes, node)
		}
	}

	g.workflow.Nodes = nodes

	return nil
}

// AddEdge connects from to to.
func (g *Graph) AddEdge(from, to string) error {
	if _, ok := g.nodes[from]; !ok {
		return &EdgeError{From: from, To: to, Err: &NodeError{NodeID: from, Err: ErrUnknownNode}}
	}

	if _, ok := g.nodes[to]; !ok {
		return &EdgeError{From: from, To: to, Err: &NodeError{NodeID: to, Err: ErrUnknownNode}}
	}

	if from == to {
		return &EdgeError{From: from, To: to, Err: ErrSelfLoop}
	}

	if _, exists := g.out[from][to]; exists {
		return &EdgeError{From: from, To: to, Err: ErrDuplicateEdge}
	}

	g.seq++
	g.out[from][to] = g.seq
	g.in[to][from] = g.seq

	return nil
}

// RemoveEdge deletes the edge from -> to.
func (g *Graph) RemoveEdge(from, to string) error {
	if _, exists := g.out[from][to]; !exists {
		return &EdgeError{From: from, To: to, Err: ErrUnknownEdge}
	}

	delete(g.out[from], to)
	delete(g.in[to], from)

	return nil
}

func (g *Graph) edges() []models.WorkflowEdge {
	type seqEdge struct {
		key edgeKey
		seq uint64
	}

	all := make([]seqEdge, 0)

	for from, targets := range g.out {
		for to, seq := range targets {
			all = append(all, seqEdge{key: edgeKey{from: from, to: to}, seq: seq})
		}
	}

	sort.Slice(all, func(i, j int) bool { return all[i].seq < all[j].seq })

	edges := make([]models.WorkflowEdge, len(all))
	for i, e := range all {
		edges[i] = models.WorkflowEdge{From: e.key.from, To: e.key.to}
	}

	return edges
}

func sortedBySeq(set map[string]uint64) []string {
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}

	sort.Slice(ids, func(i, j int) bool { return set[ids[i]] < set[ids[j]] })

	return ids
}
