package workflow

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dukex/notiair/pkg/models"
)

// Issue codes reported by Validate.
const (
	IssueTriggerCount = "trigger_count"
	IssueUnreachable  = "unreachable"
	IssueTriggerCycle = "trigger_cycle"
	IssueCycle        = "cycle"
)

// Issue is a single validation finding.
type Issue struct {
	Code    string   `json:"code"`
	NodeIDs []string `json:"nodeIds,omitempty"`
	Message string   `json:"message"`
}

// Report is the outcome of Validate. Errors make the workflow invalid,
// warnings do not.
type Report struct {
	Errors   []Issue `json:"errors"`
	Warnings []Issue `json:"warnings"`
}

// Valid reports whether the report carries no errors.
func (r Report) Valid() bool {
	return len(r.Errors) == 0
}

// Err returns a *GraphError when the report carries errors.
func (r Report) Err() error {
	if r.Valid() {
		return nil
	}

	return &GraphError{Problems: r.Errors}
}

// Validate checks the structural rules a workflow must satisfy before it can
// be activated: exactly one trigger, every node reachable from it and no
// cycle through it. Cycles that avoid the trigger are reported as warnings.
func (g *Graph) Validate() Report {
	report := Report{Errors: []Issue{}, Warnings: []Issue{}}

	triggers := make([]string, 0, 1)
	for _, node := range g.workflow.Nodes {
		if node.Type == models.NodeTypeTrigger {
			triggers = append(triggers, node.ID)
		}
	}

	if len(triggers) != 1 {
		report.Errors = append(report.Errors, Issue{
			Code:    IssueTriggerCount,
			NodeIDs: triggers,
			Message: fmt.Sprintf("workflow must have exactly one trigger node, found %d", len(triggers)),
		})
	} else {
		trigger := triggers[0]
		reached := g.reachableFrom(trigger)

		unreachable := make([]string, 0)
		for _, node := range g.workflow.Nodes {
			if !reached[node.ID] {
				unreachable = append(unreachable, node.ID)
			}
		}

		if len(unreachable) > 0 {
			report.Errors = append(report.Errors, Issue{
				Code:    IssueUnreachable,
				NodeIDs: unreachable,
				Message: "nodes not reachable from trigger: " + strings.Join(unreachable, ", "),
			})
		}

		for _, pred := range g.Predecessors(trigger) {
			if reached[pred] {
				report.Errors = append(report.Errors, Issue{
					Code:    IssueTriggerCycle,
					NodeIDs: []string{trigger, pred},
					Message: fmt.Sprintf("cycle through trigger %s via %s", trigger, pred),
				})
			}
		}
	}

	for _, component := range g.cycles() {
		report.Warnings = append(report.Warnings, Issue{
			Code:    IssueCycle,
			NodeIDs: component,
			Message: "cycle between nodes: " + strings.Join(component, ", "),
		})
	}

	return report
}

func (g *Graph) reachableFrom(start string) map[string]bool {
	reached := map[string]bool{start: true}
	queue := []string{start}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, next := range g.Successors(current) {
			if !reached[next] {
				reached[next] = true
				queue = append(queue, next)
			}
		}
	}

	return reached
}

// cycles returns the strongly connected components with more than one node,
// ignoring trigger nodes. Components and their members follow node order.
func (g *Graph) cycles() [][]string {
	order := make(map[string]int, len(g.workflow.Nodes))
	for i, node := range g.workflow.Nodes {
		order[node.ID] = i
	}

	var (
		index    = 0
		indices  = make(map[string]int)
		lowlinks = make(map[string]int)
		onStack  = make(map[string]bool)
		stack    []string
		result   [][]string
	)

	var strongConnect func(id string)
	strongConnect = func(id string) {
		indices[id] = index
		lowlinks[id] = index
		index++

		stack = append(stack, id)
		onStack[id] = true

		for _, next := range g.Successors(id) {
			if g.nodes[next].Type == models.NodeTypeTrigger {
				continue
			}

			if _, visited := indices[next]; !visited {
				strongConnect(next)
				lowlinks[id] = min(lowlinks[id], lowlinks[next])
			} else if onStack[next] {
				lowlinks[id] = min(lowlinks[id], indices[next])
			}
		}

		if lowlinks[id] != indices[id] {
			return
		}

		component := make([]string, 0)

		for {
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			onStack[top] = false
			component = append(component, top)

			if top == id {
				break
			}
		}

		if len(component) > 1 {
			sortByOrder(component, order)
			result = append(result, component)
		}
	}

	for _, node := range g.workflow.Nodes {
		if node.Type == models.NodeTypeTrigger {
			continue
		}

		if _, visited := indices[node.ID]; !visited {
			strongConnect(node.ID)
		}
	}

	sortComponents(result, order)

	return result
}

func sortByOrder(ids []string, order map[string]int) {
	sort.Slice(ids, func(i, j int) bool { return order[ids[i]] < order[ids[j]] })
}

func sortComponents(components [][]string, order map[string]int) {
	sort.Slice(components, func(i, j int) bool {
		return order[components[i][0]] < order[components[j][0]]
	})
}

// CanActivate returns nil when the workflow may be switched to active.
func (g *Graph) CanActivate() error {
	return g.Validate().Err()
}
