// Package graph provides the node/pin/connection data model mutated by the
// batch engine.
package graph

import (
	"encoding/json"
	"fmt"
)

// Kind identifies the flavor of program a graph represents. The factory
// registry dispatches on this tag.
type Kind string

const (
	// KindEventFlow is an event-driven execution graph (entry points,
	// execution flow, data flow).
	KindEventFlow Kind = "event-flow"

	// KindShaderExpression is a pure expression graph feeding a contract
	// output (no execution pins).
	KindShaderExpression Kind = "shader-expression"

	// KindStateMachine is a state/transition graph with one entry state.
	KindStateMachine Kind = "state-machine"

	// KindParticle is an emitter/module behavior graph.
	KindParticle Kind = "particle"

	// KindUILayout is a widget-hierarchy graph with data bindings.
	KindUILayout Kind = "ui-layout"
)

// String returns the string representation of the Kind.
func (k Kind) String() string {
	return string(k)
}

// IsValid checks if the Kind is one of the defined constants.
func (k Kind) IsValid() bool {
	switch k {
	case KindEventFlow, KindShaderExpression, KindStateMachine, KindParticle, KindUILayout:
		return true
	default:
		return false
	}
}

// Direction identifies whether a pin consumes or produces.
type Direction string

const (
	// DirectionInput marks a pin that receives connections.
	DirectionInput Direction = "input"
	// DirectionOutput marks a pin that originates connections.
	DirectionOutput Direction = "output"
)

// String returns the string representation of the Direction.
func (d Direction) String() string {
	return string(d)
}

// ComponentKind names one component of a composite data kind. Splitting a
// composite pin creates one child pin per component.
type ComponentKind struct {
	Name string `json:"name" yaml:"name"`
	Kind string `json:"kind" yaml:"kind"`
}

// DataKind describes what flows through a pin. A non-empty Components list
// marks the kind as composite and therefore splittable. The reserved name
// "exec" carries execution flow rather than data; "any" matches every kind.
type DataKind struct {
	Name       string          `json:"name" yaml:"name"`
	Components []ComponentKind `json:"components,omitempty" yaml:"components,omitempty"`
}

// Well-known data kind names.
const (
	KindNameExec = "exec"
	KindNameAny  = "any"
)

// Exec returns the execution-flow data kind.
func Exec() DataKind {
	return DataKind{Name: KindNameExec}
}

// Any returns the wildcard data kind that connects to everything.
func Any() DataKind {
	return DataKind{Name: KindNameAny}
}

// Scalar returns a simple (non-composite) data kind.
func Scalar(name string) DataKind {
	return DataKind{Name: name}
}

// Vector returns the three-component float vector kind.
func Vector() DataKind {
	return DataKind{
		Name: "vector",
		Components: []ComponentKind{
			{Name: "X", Kind: "float"},
			{Name: "Y", Kind: "float"},
			{Name: "Z", Kind: "float"},
		},
	}
}

// Color returns the four-component color kind.
func Color() DataKind {
	return DataKind{
		Name: "color",
		Components: []ComponentKind{
			{Name: "R", Kind: "float"},
			{Name: "G", Kind: "float"},
			{Name: "B", Kind: "float"},
			{Name: "A", Kind: "float"},
		},
	}
}

// Struct returns a named composite kind built from an explicit field list,
// typically derived from a value schema in the asset index.
func Struct(name string, fields ...ComponentKind) DataKind {
	return DataKind{Name: "struct:" + name, Components: fields}
}

// IsExec reports whether the kind carries execution flow.
func (dk DataKind) IsExec() bool {
	return dk.Name == KindNameExec
}

// IsComposite reports whether the kind can be split into child pins.
func (dk DataKind) IsComposite() bool {
	return len(dk.Components) > 0
}

// CompatibleWith reports whether a connection may carry values between two
// pins of these kinds. Wildcards match everything; otherwise the names must
// agree exactly. Execution and data kinds never mix.
func (dk DataKind) CompatibleWith(other DataKind) bool {
	if dk.IsExec() != other.IsExec() {
		return false
	}
	if dk.Name == KindNameAny || other.Name == KindNameAny {
		return true
	}
	return dk.Name == other.Name
}

// String returns a display form of the data kind.
func (dk DataKind) String() string {
	if dk.IsComposite() {
		return fmt.Sprintf("%s(%d components)", dk.Name, len(dk.Components))
	}
	return dk.Name
}

// Position is a node's 2D layout position in the editor canvas.
type Position struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// PinRef addresses one pin on one node. The Pin field uses the pin's visible
// name, which for split children is the dotted parent.component form.
type PinRef struct {
	NodeID string `json:"node_id" yaml:"node_id"`
	Pin    string `json:"pin" yaml:"pin"`
}

// String returns the display form "nodeID.pinName".
func (r PinRef) String() string {
	return r.NodeID + "." + r.Pin
}

// Connection is a directed edge from an output pin to an input pin.
// Execution-flow and data connections are distinguished by the pins' data
// kinds, not by a separate entity.
type Connection struct {
	From PinRef `json:"from" yaml:"from"`
	To   PinRef `json:"to" yaml:"to"`
}

// Equal reports whether two connections join the same pins.
func (c Connection) Equal(other Connection) bool {
	return c.From == other.From && c.To == other.To
}

// String returns the display form "from -> to".
func (c Connection) String() string {
	return c.From.String() + " -> " + c.To.String()
}

// Value is a literal pin default. Values are restricted to JSON scalars,
// string slices, and small numeric vectors; type agreement with the pin's
// data kind is validated when the value is set.
type Value = any

// normalizeValue round-trips a value through JSON so that defaults compare
// consistently regardless of how the caller constructed them.
func normalizeValue(v Value) Value {
	if v == nil {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return v
	}
	return out
}
