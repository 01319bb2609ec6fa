// Package shader provides the node factory for shader-expression graphs:
// pure dataflow over scalars, vectors, and colors with no execution pins.
package shader

import (
	"fmt"

	"github.com/c360/nodeforge/asset"
	"github.com/c360/nodeforge/errors"
	"github.com/c360/nodeforge/factory"
	"github.com/c360/nodeforge/graph"
)

// Node kinds supported by the shader-expression factory.
const (
	KindConstScalar       = "const-scalar"
	KindConstVector       = "const-vector"
	KindParameter         = "parameter"
	KindTextureSample     = "texture-sample"
	KindTextureObject     = "texture-object"
	KindAdd               = "add"
	KindMultiply          = "multiply"
	KindLerp              = "lerp"
	KindDot               = "dot"
	KindPower             = "power"
	KindSaturate          = "saturate"
	KindSplitComponents   = "split-components"
	KindCombineComponents = "combine-components"
	KindTime              = "time"
	KindUVCoords          = "uv-coords"
	KindCustomExpression  = "custom-expression"
	KindSurfaceOutput     = "surface-output"
)

// Factory constructs shader-expression nodes.
type Factory struct {
	factory.Base
	resolver *factory.Resolver
}

// New creates the shader-expression factory over the given name index.
func New(index *asset.Index) *Factory {
	return &Factory{
		Base:     factory.NewBase(graph.KindShaderExpression, kindTable()),
		resolver: factory.NewResolver(index),
	}
}

func kindTable() []factory.KindInfo {
	return []factory.KindInfo{
		{
			Name:        KindConstScalar,
			Description: "Constant scalar value.",
			Optional:    []factory.ParamSpec{{Name: "value", Kind: "float", Description: "Constant value"}},
		},
		{
			Name:        KindConstVector,
			Description: "Constant three-component vector.",
			Optional: []factory.ParamSpec{
				{Name: "x", Kind: "float", Description: "X component"},
				{Name: "y", Kind: "float", Description: "Y component"},
				{Name: "z", Kind: "float", Description: "Z component"},
			},
		},
		{
			Name:        KindParameter,
			Description: "Named tweakable parameter; one node per name per graph.",
			Required:    []factory.ParamSpec{{Name: "name", Kind: "string", Description: "Parameter name"}},
			Optional: []factory.ParamSpec{
				{Name: "kind", Kind: "string", Description: "scalar, vector, or color"},
				{Name: "default", Kind: "float", Description: "Default scalar value"},
			},
		},
		{
			Name:        KindTextureSample,
			Description: "Samples a texture at given coordinates.",
			Optional:    []factory.ParamSpec{{Name: "texture", Kind: "string", Description: "Texture asset name"}},
		},
		{
			Name:        KindTextureObject,
			Description: "References a texture asset for downstream sampling.",
			Required:    []factory.ParamSpec{{Name: "texture", Kind: "string", Description: "Texture asset name"}},
		},
		{Name: KindAdd, Description: "Component-wise addition of two inputs."},
		{Name: KindMultiply, Description: "Component-wise multiplication of two inputs."},
		{Name: KindLerp, Description: "Linear interpolation between two inputs by alpha."},
		{Name: KindDot, Description: "Dot product of two vectors."},
		{Name: KindPower, Description: "Raises the base input to an exponent."},
		{Name: KindSaturate, Description: "Clamps the input to the 0..1 range."},
		{Name: KindSplitComponents, Description: "Splits a vector into R, G, B scalars."},
		{Name: KindCombineComponents, Description: "Combines R, G, B scalars into a vector."},
		{Name: KindTime, Description: "Elapsed time in seconds."},
		{
			Name:        KindUVCoords,
			Description: "Texture coordinates of the surface being shaded.",
			Optional:    []factory.ParamSpec{{Name: "channel", Kind: "int", Description: "UV channel index"}},
		},
		{
			Name:        KindCustomExpression,
			Description: "Inline expression with caller-declared inputs.",
			Required:    []factory.ParamSpec{{Name: "code", Kind: "string", Description: "Expression source"}},
			Optional: []factory.ParamSpec{
				{Name: "inputs", Kind: "string_list", Description: "Input pins as Name:kind pairs"},
				{Name: "output", Kind: "string", Description: "Output data kind"},
			},
		},
		{
			Name:        KindSurfaceOutput,
			Description: "Final surface attribute sink; one per graph.",
		},
	}
}

// Create validates params, then constructs the requested node kind. Parameter
// and surface-output creation is idempotent.
func (f *Factory) Create(
	g *graph.Graph, kind string, params map[string]any, pos graph.Position,
) (*graph.Node, error) {
	if g.Kind != "" && g.Kind != graph.KindShaderExpression {
		return nil, errors.WrapIncompatible(
			fmt.Errorf("graph %q has kind %s, not %s", g.Name, g.Kind, graph.KindShaderExpression),
			"ShaderFactory", "Create", "graph kind check")
	}
	if err := f.ValidateParams(kind, params); err != nil {
		return nil, err
	}

	var (
		node *graph.Node
		err  error
	)
	switch kind {
	case KindConstScalar:
		node = factory.NewNode(kind, params, pos, scalarOut("Value"))
		node.Pins[0].Default = factory.GetFloat(params, "value", 0)
	case KindConstVector:
		node = factory.NewNode(kind, params, pos, factory.DataOut("Value", graph.Vector()))
		node.Pins[0].Default = []float64{
			factory.GetFloat(params, "x", 0),
			factory.GetFloat(params, "y", 0),
			factory.GetFloat(params, "z", 0),
		}
	case KindParameter:
		return f.createParameter(g, params, pos)
	case KindTextureSample:
		node = factory.NewNode(kind, params, pos,
			factory.DataIn("Texture", graph.Scalar("texture")),
			factory.DataIn("UV", graph.Vector()),
			factory.DataOut("Color", graph.Color()),
			scalarOut("R"), scalarOut("G"), scalarOut("B"), scalarOut("A"),
		)
	case KindTextureObject:
		node, err = f.buildTextureObject(params, pos)
	case KindAdd, KindMultiply:
		node = factory.NewNode(kind, params, pos,
			factory.DataIn("A", graph.Any()),
			factory.DataIn("B", graph.Any()),
			factory.DataOut("Result", graph.Any()),
		)
	case KindLerp:
		node = factory.NewNode(kind, params, pos,
			factory.DataIn("A", graph.Any()),
			factory.DataIn("B", graph.Any()),
			scalarIn("Alpha"),
			factory.DataOut("Result", graph.Any()),
		)
	case KindDot:
		node = factory.NewNode(kind, params, pos,
			factory.DataIn("A", graph.Vector()),
			factory.DataIn("B", graph.Vector()),
			scalarOut("Result"),
		)
	case KindPower:
		node = factory.NewNode(kind, params, pos,
			scalarIn("Base"), scalarIn("Exponent"), scalarOut("Result"))
		node.Pins[1].Default = 2.0
	case KindSaturate:
		node = factory.NewNode(kind, params, pos,
			factory.DataIn("Value", graph.Any()),
			factory.DataOut("Result", graph.Any()),
		)
	case KindSplitComponents:
		node = factory.NewNode(kind, params, pos,
			factory.DataIn("Vector", graph.Vector()),
			scalarOut("R"), scalarOut("G"), scalarOut("B"),
		)
	case KindCombineComponents:
		node = factory.NewNode(kind, params, pos,
			scalarIn("R"), scalarIn("G"), scalarIn("B"),
			factory.DataOut("Vector", graph.Vector()),
		)
	case KindTime:
		node = factory.NewNode(kind, params, pos, scalarOut("Time"))
	case KindUVCoords:
		node = factory.NewNode(kind, params, pos, factory.DataOut("UV", graph.Vector()))
	case KindCustomExpression:
		node, err = f.buildCustomExpression(params, pos)
	case KindSurfaceOutput:
		if existing := factory.FindExisting(g, KindSurfaceOutput, nil); existing != nil {
			return existing, nil
		}
		node = factory.NewNode(kind, params, pos,
			factory.DataIn("BaseColor", graph.Color()),
			scalarIn("Metallic"),
			scalarIn("Roughness"),
			factory.DataIn("Emissive", graph.Color()),
			scalarIn("Opacity"),
			factory.DataIn("Normal", graph.Vector()),
		)
	default:
		return nil, errors.WrapNotFound(
			fmt.Errorf("node kind %q: %w", kind, errors.ErrUnsupportedKind),
			"ShaderFactory", "Create", "kind dispatch")
	}
	if err != nil {
		return nil, err
	}

	if err := g.AddNode(node); err != nil {
		return nil, err
	}
	return node, nil
}

// createParameter returns the existing parameter node when the graph already
// declares one under the same name.
func (f *Factory) createParameter(
	g *graph.Graph, params map[string]any, pos graph.Position,
) (*graph.Node, error) {
	name, err := factory.RequireString(params, "name")
	if err != nil {
		return nil, err
	}
	if existing := factory.FindExisting(g, KindParameter, func(n *graph.Node) bool {
		return factory.GetString(n.Params, "name", "") == name
	}); existing != nil {
		return existing, nil
	}

	var kind graph.DataKind
	switch k := factory.GetString(params, "kind", "scalar"); k {
	case "scalar":
		kind = graph.Scalar("float")
	case "vector":
		kind = graph.Vector()
	case "color":
		kind = graph.Color()
	default:
		return nil, errors.WrapValidation(
			fmt.Errorf("parameter kind %q must be scalar, vector, or color: %w", k, errors.ErrInvalidParam),
			"ShaderFactory", "createParameter", "kind check")
	}

	value := factory.DataOut("Value", kind)
	value.Aliases = []string{name}
	if kind.IsComposite() {
		value.Default = nil
	} else {
		value.Default = factory.GetFloat(params, "default", 0)
	}

	node := factory.NewNode(KindParameter, params, pos, value)
	if err := g.AddNode(node); err != nil {
		return nil, err
	}
	return node, nil
}

func (f *Factory) buildTextureObject(params map[string]any, pos graph.Position) (*graph.Node, error) {
	name, err := factory.RequireString(params, "texture")
	if err != nil {
		return nil, err
	}
	res, err := f.resolver.Resolve(asset.RefType, name)
	if err != nil {
		return nil, err
	}
	return factory.NewNode(KindTextureObject, map[string]any{"texture": res.Canonical}, pos,
		factory.DataOut("Texture", graph.Scalar("texture"))), nil
}

func (f *Factory) buildCustomExpression(params map[string]any, pos graph.Position) (*graph.Node, error) {
	if _, err := factory.RequireString(params, "code"); err != nil {
		return nil, err
	}

	var pins []*graph.Pin
	for _, spec := range factory.GetStringSlice(params, "inputs") {
		name, kindName, ok := cutColon(spec)
		if !ok {
			return nil, errors.WrapValidation(
				fmt.Errorf("input spec %q must take the form Name:kind: %w", spec, errors.ErrInvalidParam),
				"ShaderFactory", "buildCustomExpression", "input spec parsing")
		}
		pins = append(pins, factory.DataIn(name, f.resolver.DataKind(kindName)))
	}
	output := f.resolver.DataKind(factory.GetString(params, "output", "float"))
	pins = append(pins, factory.DataOut("Result", output))

	return factory.NewNode(KindCustomExpression, params, pos, pins...), nil
}

func scalarIn(name string) *graph.Pin {
	return factory.DataIn(name, graph.Scalar("float"))
}

func scalarOut(name string) *graph.Pin {
	return factory.DataOut(name, graph.Scalar("float"))
}

func cutColon(spec string) (string, string, bool) {
	for i := 1; i < len(spec)-1; i++ {
		if spec[i] == ':' {
			return spec[:i], spec[i+1:], true
		}
	}
	return "", "", false
}
