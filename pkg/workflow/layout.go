package workflow

import "github.com/dukex/notiair/pkg/models"

// Layout is the presentation overlay of a workflow: node positions and the
// node focused in an editing session. It never affects validation or dispatch.
type Layout struct {
	positions map[string]models.Position
	active    string
}

// NewLayout returns an empty layout.
func NewLayout() *Layout {
	return &Layout{positions: make(map[string]models.Position)}
}

// Position returns the position of id, or the origin when unset.
func (l *Layout) Position(id string) models.Position {
	if l == nil {
		return models.Position{}
	}

	return l.positions[id]
}

// SetPosition moves node id. It fails with ErrUnknownNode when id is not in g.
func (l *Layout) SetPosition(g *Graph, id string, pos models.Position) error {
	if !g.HasNode(id) {
		return &NodeError{NodeID: id, Err: ErrUnknownNode}
	}

	l.positions[id] = pos

	return nil
}

// ActiveNode returns the focused node id, if any.
func (l *Layout) ActiveNode() (string, bool) {
	if l == nil || l.active == "" {
		return "", false
	}

	return l.active, true
}

// SetActiveNode focuses node id; an empty id clears the focus. It fails with
// ErrUnknownNode when id is not in g.
func (l *Layout) SetActiveNode(g *Graph, id string) error {
	if id == "" {
		l.active = ""

		return nil
	}

	if !g.HasNode(id) {
		return &NodeError{NodeID: id, Err: ErrUnknownNode}
	}

	l.active = id

	return nil
}

// Prune drops overlay entries for nodes no longer in g.
func (l *Layout) Prune(g *Graph) {
	for id := range l.positions {
		if !g.HasNode(id) {
			delete(l.positions, id)
		}
	}

	if l.active != "" && !g.HasNode(l.active) {
		l.active = ""
	}
}

// Clone returns a copy of the layout.
func (l *Layout) Clone() *Layout {
	out := NewLayout()
	if l == nil {
		return out
	}

	for id, pos := range l.positions {
		out.positions[id] = pos
	}

	out.active = l.active

	return out
}
