// Package statemachine provides the node factory for state-machine graphs:
// states, transitions, conduits, and the rules that move between them.
package statemachine

import (
	"fmt"

	"github.com/c360/nodeforge/asset"
	"github.com/c360/nodeforge/errors"
	"github.com/c360/nodeforge/factory"
	"github.com/c360/nodeforge/graph"
)

// Node kinds supported by the state-machine factory.
const (
	KindEntry        = "entry"
	KindState        = "state"
	KindTransition   = "transition"
	KindConduit      = "conduit"
	KindAnyState     = "any-state"
	KindHistory      = "history"
	KindEventTrigger = "event-trigger"
	KindGuard        = "guard"
	KindActionSlot   = "action-slot"
)

// Factory constructs state-machine nodes.
type Factory struct {
	factory.Base
	resolver *factory.Resolver
}

// New creates the state-machine factory over the given name index.
func New(index *asset.Index) *Factory {
	return &Factory{
		Base:     factory.NewBase(graph.KindStateMachine, kindTable()),
		resolver: factory.NewResolver(index),
	}
}

func kindTable() []factory.KindInfo {
	return []factory.KindInfo{
		{
			Name:        KindEntry,
			Description: "Machine entry point; exactly one per graph.",
		},
		{
			Name:        KindState,
			Description: "Named state with enter/update/exit action slots.",
			Required:    []factory.ParamSpec{{Name: "name", Kind: "string", Description: "State name"}},
		},
		{
			Name:        KindTransition,
			Description: "Guarded edge between two states.",
			Optional: []factory.ParamSpec{
				{Name: "priority", Kind: "int", Description: "Evaluation priority, lower first"},
				{Name: "duration", Kind: "float", Description: "Blend duration in seconds"},
			},
		},
		{
			Name:        KindConduit,
			Description: "Pass-through junction routing multiple transitions.",
			Optional:    []factory.ParamSpec{{Name: "name", Kind: "string", Description: "Conduit name"}},
		},
		{
			Name:        KindAnyState,
			Description: "Transition source matching every state.",
		},
		{
			Name:        KindHistory,
			Description: "Re-enters the most recently active state.",
		},
		{
			Name:        KindEventTrigger,
			Description: "Fires a transition when the named signal arrives.",
			Required:    []factory.ParamSpec{{Name: "signal", Kind: "string", Description: "Engine signal name"}},
		},
		{
			Name:        KindGuard,
			Description: "Boolean condition gating a transition.",
			Optional:    []factory.ParamSpec{{Name: "expression", Kind: "string", Description: "Condition expression"}},
		},
		{
			Name:        KindActionSlot,
			Description: "Binds a callable to a state's enter, update, or exit phase.",
			Required: []factory.ParamSpec{
				{Name: "phase", Kind: "string", Description: "enter, update, or exit"},
				{Name: "callable", Kind: "string", Description: "Callable to invoke"},
			},
		},
	}
}

// Create validates params, then constructs the requested node kind. Entry
// creation is idempotent: a machine has exactly one entry.
func (f *Factory) Create(
	g *graph.Graph, kind string, params map[string]any, pos graph.Position,
) (*graph.Node, error) {
	if g.Kind != "" && g.Kind != graph.KindStateMachine {
		return nil, errors.WrapIncompatible(
			fmt.Errorf("graph %q has kind %s, not %s", g.Name, g.Kind, graph.KindStateMachine),
			"StateMachineFactory", "Create", "graph kind check")
	}
	if err := f.ValidateParams(kind, params); err != nil {
		return nil, err
	}

	var (
		node *graph.Node
		err  error
	)
	switch kind {
	case KindEntry:
		if existing := factory.FindExisting(g, KindEntry, nil); existing != nil {
			return existing, nil
		}
		node = factory.NewNode(kind, params, pos, flowOut("Out"))
	case KindState:
		node, err = f.buildState(params, pos)
	case KindTransition:
		node = f.buildTransition(params, pos)
	case KindConduit:
		node = factory.NewNode(kind, params, pos, flowIn("In"), flowOut("Out"))
	case KindAnyState:
		node = factory.NewNode(kind, params, pos, flowOut("Out"))
	case KindHistory:
		node = factory.NewNode(kind, params, pos, flowIn("In"))
	case KindEventTrigger:
		node, err = f.buildEventTrigger(params, pos)
	case KindGuard:
		node = factory.NewNode(kind, params, pos,
			factory.DataIn("Condition", graph.Scalar("bool")),
			factory.DataOut("Pass", graph.Scalar("bool")),
		)
	case KindActionSlot:
		node, err = f.buildActionSlot(params, pos)
	default:
		return nil, errors.WrapNotFound(
			fmt.Errorf("node kind %q: %w", kind, errors.ErrUnsupportedKind),
			"StateMachineFactory", "Create", "kind dispatch")
	}
	if err != nil {
		return nil, err
	}

	if err := g.AddNode(node); err != nil {
		return nil, err
	}
	return node, nil
}

func (f *Factory) buildState(params map[string]any, pos graph.Position) (*graph.Node, error) {
	if _, err := factory.RequireString(params, "name"); err != nil {
		return nil, err
	}
	return factory.NewNode(KindState, params, pos,
		flowIn("In"),
		flowOut("Out"),
		factory.DataIn("OnEnter", graph.Scalar("action")),
		factory.DataIn("OnUpdate", graph.Scalar("action")),
		factory.DataIn("OnExit", graph.Scalar("action")),
	), nil
}

func (f *Factory) buildTransition(params map[string]any, pos graph.Position) *graph.Node {
	priority := factory.DataIn("Priority", graph.Scalar("int"))
	priority.Default = factory.GetInt(params, "priority", 0)
	priority.Hidden = true
	duration := factory.DataIn("Duration", graph.Scalar("float"))
	duration.Default = factory.GetFloat(params, "duration", 0)
	duration.Hidden = true
	return factory.NewNode(KindTransition, params, pos,
		flowIn("From"),
		flowOut("To"),
		factory.DataIn("Guard", graph.Scalar("bool")),
		priority,
		duration,
	)
}

func (f *Factory) buildEventTrigger(params map[string]any, pos graph.Position) (*graph.Node, error) {
	name, err := factory.RequireString(params, "signal")
	if err != nil {
		return nil, err
	}
	res, err := f.resolver.Resolve(asset.RefSignal, name)
	if err != nil {
		return nil, err
	}
	return factory.NewNode(KindEventTrigger, map[string]any{"signal": res.Canonical}, pos,
		factory.DataOut("Triggered", graph.Scalar("bool"))), nil
}

func (f *Factory) buildActionSlot(params map[string]any, pos graph.Position) (*graph.Node, error) {
	phase, err := factory.RequireString(params, "phase")
	if err != nil {
		return nil, err
	}
	switch phase {
	case "enter", "update", "exit":
	default:
		return nil, errors.WrapValidation(
			fmt.Errorf("phase %q must be enter, update, or exit: %w", phase, errors.ErrInvalidParam),
			"StateMachineFactory", "buildActionSlot", "phase check")
	}
	name, err := factory.RequireString(params, "callable")
	if err != nil {
		return nil, err
	}
	res, err := f.resolver.Resolve(asset.RefCallable, name)
	if err != nil {
		return nil, err
	}
	return factory.NewNode(KindActionSlot,
		map[string]any{"phase": phase, "callable": res.Canonical}, pos,
		factory.DataOut("Action", graph.Scalar("action"))), nil
}

// State-machine graphs flow through "state" pins rather than execution pins;
// the kind keeps transitions from wiring into data inputs.
func flowIn(name string) *graph.Pin {
	return &graph.Pin{Name: name, Direction: graph.DirectionInput, Kind: graph.Scalar("state")}
}

func flowOut(name string) *graph.Pin {
	return &graph.Pin{Name: name, Direction: graph.DirectionOutput, Kind: graph.Scalar("state")}
}
