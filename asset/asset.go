// Package asset provides the asset container owning graphs and the name
// index that node factories resolve references against.
package asset

import (
	"fmt"

	"github.com/c360/nodeforge/errors"
	"github.com/c360/nodeforge/graph"
)

// Asset is the unit of ownership for graphs. An asset owns every graph inside
// it for as long as the asset is loaded; the batch engine never mutates
// graphs from two assets in one invocation. Opening and saving assets belongs
// to the host application.
type Asset struct {
	Name   string         `json:"name" yaml:"name"`
	Schema string         `json:"schema,omitempty" yaml:"schema,omitempty"`
	Graphs []*graph.Graph `json:"graphs" yaml:"graphs"`
}

// schemaKinds maps asset schema tags to the default graph kind for graphs
// that carry no kind tag of their own.
var schemaKinds = map[string]graph.Kind{
	"actor":    graph.KindEventFlow,
	"behavior": graph.KindEventFlow,
	"material": graph.KindShaderExpression,
	"anim":     graph.KindStateMachine,
	"effect":   graph.KindParticle,
	"widget":   graph.KindUILayout,
}

// New creates an empty asset with the given name and schema tag.
func New(name, schema string) *Asset {
	return &Asset{Name: name, Schema: schema}
}

// Graph retrieves an owned graph by name. Returns nil if not found.
func (a *Asset) Graph(name string) *graph.Graph {
	for _, g := range a.Graphs {
		if g.Name == name {
			return g
		}
	}
	return nil
}

// AddGraph attaches a graph to the asset, stamping the ownership tag.
func (a *Asset) AddGraph(g *graph.Graph) error {
	if g == nil || g.Name == "" {
		return errors.WrapValidation(errors.ErrInvalidParam, "Asset", "AddGraph", "graph validation")
	}
	if a.Graph(g.Name) != nil {
		return errors.WrapValidation(
			fmt.Errorf("graph %q already exists in asset %s", g.Name, a.Name),
			"Asset", "AddGraph", "duplicate graph check")
	}
	g.Owner = a.Name
	a.Graphs = append(a.Graphs, g)
	return nil
}

// InferKind returns the graph kind implied by the asset's schema tag, used
// when a graph carries no kind of its own.
func (a *Asset) InferKind() (graph.Kind, bool) {
	kind, ok := schemaKinds[a.Schema]
	return kind, ok
}

// Validate checks the asset's structural invariants: named graphs, unique
// graph names, unique node identifiers, and connections that reference
// existing pins.
func (a *Asset) Validate() error {
	if a.Name == "" {
		return errors.WrapValidation(
			fmt.Errorf("asset name cannot be empty"),
			"Asset", "Validate", "name validation")
	}

	graphNames := make(map[string]bool, len(a.Graphs))
	for _, g := range a.Graphs {
		if g.Name == "" {
			return errors.WrapValidation(
				fmt.Errorf("asset %s contains an unnamed graph", a.Name),
				"Asset", "Validate", "graph name validation")
		}
		if graphNames[g.Name] {
			return errors.WrapValidation(
				fmt.Errorf("duplicate graph name %q in asset %s", g.Name, a.Name),
				"Asset", "Validate", "duplicate graph check")
		}
		graphNames[g.Name] = true

		nodeIDs := make(map[string]bool, len(g.Nodes))
		for _, n := range g.Nodes {
			if n.ID == "" {
				return errors.WrapValidation(
					fmt.Errorf("graph %q contains a node without identifier", g.Name),
					"Asset", "Validate", "node identifier validation")
			}
			if nodeIDs[n.ID] {
				return errors.WrapValidation(
					fmt.Errorf("duplicate node identifier %s in graph %q", n.ID, g.Name),
					"Asset", "Validate", "duplicate node check")
			}
			nodeIDs[n.ID] = true
		}

		for _, c := range g.Connections {
			for _, ref := range []graph.PinRef{c.From, c.To} {
				node := g.Node(ref.NodeID)
				if node == nil {
					return errors.WrapValidation(
						fmt.Errorf("connection %s references missing node %s in graph %q",
							c, ref.NodeID, g.Name),
						"Asset", "Validate", "connection node check")
				}
				if node.FindPin(ref.Pin) == nil {
					return errors.WrapValidation(
						fmt.Errorf("connection %s references missing pin %q in graph %q",
							c, ref.Pin, g.Name),
						"Asset", "Validate", "connection pin check")
				}
			}
		}
	}
	return nil
}
