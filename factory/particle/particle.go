// Package particle provides the node factory for particle-system graphs:
// emitters, per-particle behaviors, forces, and renderers.
package particle

import (
	"fmt"

	"github.com/c360/nodeforge/asset"
	"github.com/c360/nodeforge/errors"
	"github.com/c360/nodeforge/factory"
	"github.com/c360/nodeforge/graph"
)

// Node kinds supported by the particle factory.
const (
	KindEmitter       = "emitter"
	KindSpawnRate     = "spawn-rate"
	KindLifetime      = "lifetime"
	KindVelocity      = "velocity"
	KindColorOverLife = "color-over-life"
	KindSizeOverLife  = "size-over-life"
	KindForce         = "force"
	KindCollision     = "collision"
	KindRenderer      = "renderer"
	KindEventReceiver = "event-receiver"
)

// Factory constructs particle-system nodes.
type Factory struct {
	factory.Base
	resolver *factory.Resolver
}

// New creates the particle factory over the given name index.
func New(index *asset.Index) *Factory {
	return &Factory{
		Base:     factory.NewBase(graph.KindParticle, kindTable()),
		resolver: factory.NewResolver(index),
	}
}

func kindTable() []factory.KindInfo {
	return []factory.KindInfo{
		{
			Name:        KindEmitter,
			Description: "Root of one particle stream; behaviors chain off its output.",
			Required:    []factory.ParamSpec{{Name: "name", Kind: "string", Description: "Emitter name"}},
			Optional:    []factory.ParamSpec{{Name: "looping", Kind: "bool", Description: "Whether the emitter loops"}},
		},
		{
			Name:        KindSpawnRate,
			Description: "Particles spawned per second.",
			Optional:    []factory.ParamSpec{{Name: "rate", Kind: "float", Description: "Spawn rate"}},
		},
		{
			Name:        KindLifetime,
			Description: "Per-particle lifetime range.",
			Optional: []factory.ParamSpec{
				{Name: "min", Kind: "float", Description: "Minimum lifetime in seconds"},
				{Name: "max", Kind: "float", Description: "Maximum lifetime in seconds"},
			},
		},
		{
			Name:        KindVelocity,
			Description: "Initial velocity applied at spawn.",
		},
		{
			Name:        KindColorOverLife,
			Description: "Color curve evaluated over particle age.",
		},
		{
			Name:        KindSizeOverLife,
			Description: "Size curve evaluated over particle age.",
		},
		{
			Name:        KindForce,
			Description: "Constant acceleration applied each tick.",
		},
		{
			Name:        KindCollision,
			Description: "Collision response for particles hitting geometry.",
			Optional:    []factory.ParamSpec{{Name: "bounce", Kind: "float", Description: "Restitution factor"}},
		},
		{
			Name:        KindRenderer,
			Description: "Draws the stream as sprites or meshes.",
			Optional:    []factory.ParamSpec{{Name: "mode", Kind: "string", Description: "sprite or mesh"}},
		},
		{
			Name:        KindEventReceiver,
			Description: "Reacts to a named engine signal; one node per signal per graph.",
			Required:    []factory.ParamSpec{{Name: "signal", Kind: "string", Description: "Engine signal name"}},
		},
	}
}

// Create validates params, then constructs the requested node kind.
// Event-receiver creation is idempotent per signal.
func (f *Factory) Create(
	g *graph.Graph, kind string, params map[string]any, pos graph.Position,
) (*graph.Node, error) {
	if g.Kind != "" && g.Kind != graph.KindParticle {
		return nil, errors.WrapIncompatible(
			fmt.Errorf("graph %q has kind %s, not %s", g.Name, g.Kind, graph.KindParticle),
			"ParticleFactory", "Create", "graph kind check")
	}
	if err := f.ValidateParams(kind, params); err != nil {
		return nil, err
	}

	var (
		node *graph.Node
		err  error
	)
	switch kind {
	case KindEmitter:
		node, err = f.buildEmitter(params, pos)
	case KindSpawnRate:
		rate := factory.DataIn("Rate", graph.Scalar("float"))
		rate.Default = factory.GetFloat(params, "rate", 10)
		node = factory.NewNode(kind, params, pos, streamIn(), streamOut(), rate)
	case KindLifetime:
		minPin := factory.DataIn("Min", graph.Scalar("float"))
		minPin.Default = factory.GetFloat(params, "min", 1)
		maxPin := factory.DataIn("Max", graph.Scalar("float"))
		maxPin.Default = factory.GetFloat(params, "max", 2)
		node = factory.NewNode(kind, params, pos, streamIn(), streamOut(), minPin, maxPin)
	case KindVelocity:
		node = factory.NewNode(kind, params, pos,
			streamIn(), streamOut(), factory.DataIn("Velocity", graph.Vector()))
	case KindColorOverLife:
		node = factory.NewNode(kind, params, pos,
			streamIn(), streamOut(),
			factory.DataIn("Start", graph.Color()),
			factory.DataIn("End", graph.Color()),
		)
	case KindSizeOverLife:
		node = factory.NewNode(kind, params, pos,
			streamIn(), streamOut(),
			factory.DataIn("StartSize", graph.Scalar("float")),
			factory.DataIn("EndSize", graph.Scalar("float")),
		)
	case KindForce:
		node = factory.NewNode(kind, params, pos,
			streamIn(), streamOut(), factory.DataIn("Acceleration", graph.Vector()))
	case KindCollision:
		bounce := factory.DataIn("Bounce", graph.Scalar("float"))
		bounce.Default = factory.GetFloat(params, "bounce", 0.5)
		node = factory.NewNode(kind, params, pos, streamIn(), streamOut(), bounce)
	case KindRenderer:
		node, err = f.buildRenderer(params, pos)
	case KindEventReceiver:
		return f.createEventReceiver(g, params, pos)
	default:
		return nil, errors.WrapNotFound(
			fmt.Errorf("node kind %q: %w", kind, errors.ErrUnsupportedKind),
			"ParticleFactory", "Create", "kind dispatch")
	}
	if err != nil {
		return nil, err
	}

	if err := g.AddNode(node); err != nil {
		return nil, err
	}
	return node, nil
}

func (f *Factory) buildEmitter(params map[string]any, pos graph.Position) (*graph.Node, error) {
	if _, err := factory.RequireString(params, "name"); err != nil {
		return nil, err
	}
	looping := factory.DataIn("Looping", graph.Scalar("bool"))
	looping.Default = factory.GetBool(params, "looping", true)
	looping.Hidden = true
	return factory.NewNode(KindEmitter, params, pos, streamOut(), looping), nil
}

func (f *Factory) buildRenderer(params map[string]any, pos graph.Position) (*graph.Node, error) {
	mode := factory.GetString(params, "mode", "sprite")
	switch mode {
	case "sprite", "mesh":
	default:
		return nil, errors.WrapValidation(
			fmt.Errorf("renderer mode %q must be sprite or mesh: %w", mode, errors.ErrInvalidParam),
			"ParticleFactory", "buildRenderer", "mode check")
	}
	modePin := factory.DataIn("Mode", graph.Scalar("enum"))
	modePin.Default = mode
	modePin.Hidden = true
	return factory.NewNode(KindRenderer, params, pos, streamIn(), modePin), nil
}

func (f *Factory) createEventReceiver(
	g *graph.Graph, params map[string]any, pos graph.Position,
) (*graph.Node, error) {
	name, err := factory.RequireString(params, "signal")
	if err != nil {
		return nil, err
	}
	res, err := f.resolver.Resolve(asset.RefSignal, name)
	if err != nil {
		return nil, err
	}

	if existing := factory.FindExisting(g, KindEventReceiver, func(n *graph.Node) bool {
		return factory.GetString(n.Params, "signal", "") == res.Canonical
	}); existing != nil {
		return existing, nil
	}

	node := factory.NewNode(KindEventReceiver, map[string]any{"signal": res.Canonical}, pos, streamOut())
	if err := g.AddNode(node); err != nil {
		return nil, err
	}
	return node, nil
}

// Behaviors chain through "stream" pins; the dedicated kind keeps behavior
// wiring apart from the scalar and vector data inputs.
func streamIn() *graph.Pin {
	return &graph.Pin{Name: "Stream", Aliases: []string{"In"}, Direction: graph.DirectionInput, Kind: graph.Scalar("stream")}
}

func streamOut() *graph.Pin {
	return &graph.Pin{Name: "Next", Aliases: []string{"Out"}, Direction: graph.DirectionOutput, Kind: graph.Scalar("stream")}
}
