// Package compile defines the validation/compilation hook the batch engine
// invokes after its mutation phases, plus a structural validator usable
// without a full compiler backend.
package compile

import (
	"context"
	"fmt"

	"github.com/c360/nodeforge/asset"
	"github.com/c360/nodeforge/graph"
)

// Diagnostic is one finding about a graph.
type Diagnostic struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	NodeID  string `json:"node_id,omitempty"`
}

// Diagnostics is the outcome of one compile/validate pass. Errors fail the
// batch's success flag; warnings do not.
type Diagnostics struct {
	Errors   []Diagnostic `json:"errors,omitempty"`
	Warnings []Diagnostic `json:"warnings,omitempty"`
}

// HasErrors reports whether the pass found any error-severity findings.
func (d *Diagnostics) HasErrors() bool {
	return len(d.Errors) > 0
}

func (d *Diagnostics) addError(code, message, nodeID string) {
	d.Errors = append(d.Errors, Diagnostic{Code: code, Message: message, NodeID: nodeID})
}

func (d *Diagnostics) addWarning(code, message, nodeID string) {
	d.Warnings = append(d.Warnings, Diagnostic{Code: code, Message: message, NodeID: nodeID})
}

// Compiler validates or compiles one graph in the context of its owning
// asset. The batch engine treats the call as opaque and synchronous; an
// error return means the compiler itself could not run, not that the graph
// is invalid.
type Compiler interface {
	Compile(ctx context.Context, owner *asset.Asset, g *graph.Graph) (*Diagnostics, error)
}

// StructuralValidator checks graph structure without a compiler backend:
// dangling connections, disabled or missing entry points, and nodes no
// execution or transition path can reach.
type StructuralValidator struct{}

// NewStructuralValidator creates the structural validator.
func NewStructuralValidator() *StructuralValidator {
	return &StructuralValidator{}
}

// Compile runs the structural checks. The context is accepted for interface
// conformance; all checks are in-memory.
func (v *StructuralValidator) Compile(
	_ context.Context, _ *asset.Asset, g *graph.Graph,
) (*Diagnostics, error) {
	if g == nil {
		return nil, fmt.Errorf("structural validation requires a graph")
	}

	d := &Diagnostics{}
	v.checkConnections(g, d)

	switch g.Kind {
	case graph.KindEventFlow:
		v.checkEventFlow(g, d)
	case graph.KindShaderExpression:
		v.checkShader(g, d)
	case graph.KindStateMachine:
		v.checkStateMachine(g, d)
	}
	return d, nil
}

// checkConnections flags connections whose endpoints no longer resolve.
func (v *StructuralValidator) checkConnections(g *graph.Graph, d *Diagnostics) {
	for _, conn := range g.Connections {
		for _, ref := range []graph.PinRef{conn.From, conn.To} {
			node := g.Node(ref.NodeID)
			if node == nil {
				d.addError("dangling-connection",
					fmt.Sprintf("connection %s references a missing node", conn), ref.NodeID)
				continue
			}
			if node.FindPin(ref.Pin) == nil {
				d.addError("dangling-connection",
					fmt.Sprintf("connection %s references missing pin %q", conn, ref.Pin), ref.NodeID)
			}
		}
	}
}

func (v *StructuralValidator) checkEventFlow(g *graph.Graph, d *Diagnostics) {
	entries := make([]*graph.Node, 0, 2)
	for _, n := range g.Nodes {
		if n.Kind == "entry-signal" || n.Kind == "entry-custom" {
			entries = append(entries, n)
			if !n.Enabled {
				d.addWarning("disabled-entry",
					fmt.Sprintf("entry node %q is disabled and will never fire", n.Kind), n.ID)
			}
		}
	}
	if len(entries) == 0 {
		if len(g.Nodes) > 0 {
			d.addWarning("no-entry", "graph has nodes but no entry point", "")
		}
		return
	}

	reachable := reachableFrom(g, entries)
	for _, n := range g.Nodes {
		if !reachable[n.ID] && hasExecPin(n) {
			d.addWarning("unreachable-node",
				fmt.Sprintf("node %q is not reachable from any entry point", n.Kind), n.ID)
		}
	}
}

func (v *StructuralValidator) checkShader(g *graph.Graph, d *Diagnostics) {
	for _, n := range g.Nodes {
		if n.Kind == "surface-output" {
			return
		}
	}
	if len(g.Nodes) > 0 {
		d.addError("missing-output", "shader graph has no surface output node", "")
	}
}

func (v *StructuralValidator) checkStateMachine(g *graph.Graph, d *Diagnostics) {
	var entry *graph.Node
	for _, n := range g.Nodes {
		if n.Kind == "entry" {
			entry = n
			break
		}
	}
	if entry == nil {
		if len(g.Nodes) > 0 {
			d.addError("no-entry", "state machine has no entry node", "")
		}
		return
	}

	reachable := reachableFrom(g, []*graph.Node{entry})
	for _, n := range g.Nodes {
		if n.Kind == "state" && !reachable[n.ID] {
			d.addWarning("unreachable-state",
				fmt.Sprintf("state %q is not reachable from the entry", n.Params["name"]), n.ID)
		}
	}
}

// reachableFrom walks connections forward from the given roots. Traversal
// follows any connection whose source side belongs to a reached node, which
// covers execution, transition, and stream wiring alike.
func reachableFrom(g *graph.Graph, roots []*graph.Node) map[string]bool {
	reachable := make(map[string]bool, len(g.Nodes))
	queue := make([]string, 0, len(roots))
	for _, n := range roots {
		reachable[n.ID] = true
		queue = append(queue, n.ID)
	}

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, conn := range g.Connections {
			if conn.From.NodeID != id || reachable[conn.To.NodeID] {
				continue
			}
			reachable[conn.To.NodeID] = true
			queue = append(queue, conn.To.NodeID)
		}
	}
	return reachable
}

func hasExecPin(n *graph.Node) bool {
	for _, pin := range n.Pins {
		if pin.Kind.IsExec() {
			return true
		}
	}
	return false
}
