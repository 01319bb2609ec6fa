package factory

import (
	"github.com/c360/nodeforge/asset"
	"github.com/c360/nodeforge/graph"
)

// DataKind maps a kind name from the index (callable params, signal
// payloads, schema fields) to a graph data kind. Known composites expand to
// their component sets; registered value schemas expand to their fields;
// anything else is treated as a scalar kind.
func (r *Resolver) DataKind(name string) graph.DataKind {
	switch name {
	case "", graph.KindNameAny:
		return graph.Any()
	case graph.KindNameExec:
		return graph.Exec()
	case "vector":
		return graph.Vector()
	case "color":
		return graph.Color()
	}
	if schema, ok := r.index.Schema(name); ok {
		return graph.Struct(schema.Name, schema.Fields...)
	}
	return graph.Scalar(name)
}

// DataIn builds an input data pin.
func DataIn(name string, kind graph.DataKind) *graph.Pin {
	return &graph.Pin{Name: name, Direction: graph.DirectionInput, Kind: kind}
}

// DataOut builds an output data pin.
func DataOut(name string, kind graph.DataKind) *graph.Pin {
	return &graph.Pin{Name: name, Direction: graph.DirectionOutput, Kind: kind}
}

// ParamPins maps indexed params to pins of one direction.
func (r *Resolver) ParamPins(params []asset.Param, dir graph.Direction) []*graph.Pin {
	pins := make([]*graph.Pin, 0, len(params))
	for _, p := range params {
		pins = append(pins, &graph.Pin{Name: p.Name, Direction: dir, Kind: r.DataKind(p.Kind)})
	}
	return pins
}
