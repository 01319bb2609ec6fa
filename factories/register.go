// Package factories wires every built-in node factory into a registry. It
// sits above the factory package so that concrete factories and the registry
// never import each other.
package factories

import (
	stderrors "errors"

	"github.com/c360/nodeforge/asset"
	pkgerrors "github.com/c360/nodeforge/errors"
	"github.com/c360/nodeforge/factory"
	"github.com/c360/nodeforge/factory/eventflow"
	"github.com/c360/nodeforge/factory/particle"
	"github.com/c360/nodeforge/factory/shader"
	"github.com/c360/nodeforge/factory/statemachine"
	"github.com/c360/nodeforge/factory/uilayout"
)

// Register registers the built-in factories, one per graph kind:
//
//   - event-flow (signals, callables, control flow, variables)
//   - shader-expression (pure dataflow over scalars, vectors, colors)
//   - state-machine (states, transitions, conduits)
//   - particle (emitters, behaviors, renderers)
//   - ui-layout (widgets, slots, bindings)
//
// All five resolve names against the same index.
func Register(registry *factory.Registry, index *asset.Index) error {
	if registry == nil {
		return pkgerrors.WrapValidation(
			stderrors.New("registry cannot be nil"),
			"Factories", "Register", "registry validation")
	}
	if index == nil {
		return pkgerrors.WrapValidation(
			stderrors.New("index cannot be nil"),
			"Factories", "Register", "index validation")
	}

	if err := registry.Register(eventflow.New(index)); err != nil {
		return pkgerrors.Wrap(err, "Factories", "Register", "event-flow factory registration")
	}
	if err := registry.Register(shader.New(index)); err != nil {
		return pkgerrors.Wrap(err, "Factories", "Register", "shader-expression factory registration")
	}
	if err := registry.Register(statemachine.New(index)); err != nil {
		return pkgerrors.Wrap(err, "Factories", "Register", "state-machine factory registration")
	}
	if err := registry.Register(particle.New(index)); err != nil {
		return pkgerrors.Wrap(err, "Factories", "Register", "particle factory registration")
	}
	if err := registry.Register(uilayout.New(index)); err != nil {
		return pkgerrors.Wrap(err, "Factories", "Register", "ui-layout factory registration")
	}
	return nil
}
