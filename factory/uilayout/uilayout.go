// Package uilayout provides the node factory for UI-layout graphs: widget
// containers, leaf widgets, slots, and data bindings.
package uilayout

import (
	"fmt"

	"github.com/c360/nodeforge/asset"
	"github.com/c360/nodeforge/errors"
	"github.com/c360/nodeforge/factory"
	"github.com/c360/nodeforge/graph"
)

// Node kinds supported by the UI-layout factory.
const (
	KindPanel        = "panel"
	KindText         = "text"
	KindImage        = "image"
	KindButton       = "button"
	KindSlot         = "slot"
	KindBinding      = "binding"
	KindStyleRef     = "style-ref"
	KindAnimationRef = "animation-ref"
)

// Factory constructs UI-layout nodes.
type Factory struct {
	factory.Base
	resolver *factory.Resolver
}

// New creates the UI-layout factory over the given name index.
func New(index *asset.Index) *Factory {
	return &Factory{
		Base:     factory.NewBase(graph.KindUILayout, kindTable()),
		resolver: factory.NewResolver(index),
	}
}

func kindTable() []factory.KindInfo {
	return []factory.KindInfo{
		{
			Name:        KindPanel,
			Description: "Container widget arranging children through slots.",
			Optional:    []factory.ParamSpec{{Name: "layout", Kind: "string", Description: "vertical, horizontal, grid, or overlay"}},
		},
		{
			Name:        KindText,
			Description: "Text block widget.",
			Optional:    []factory.ParamSpec{{Name: "text", Kind: "string", Description: "Initial text"}},
		},
		{
			Name:        KindImage,
			Description: "Image widget referencing a texture asset.",
			Optional:    []factory.ParamSpec{{Name: "texture", Kind: "string", Description: "Texture asset name"}},
		},
		{
			Name:        KindButton,
			Description: "Clickable widget firing a pressed signal.",
			Optional:    []factory.ParamSpec{{Name: "label", Kind: "string", Description: "Button label"}},
		},
		{
			Name:        KindSlot,
			Description: "Placement of one child widget inside a container.",
			Optional: []factory.ParamSpec{
				{Name: "padding", Kind: "float", Description: "Uniform padding"},
				{Name: "fill", Kind: "bool", Description: "Whether the child fills the slot"},
			},
		},
		{
			Name:        KindBinding,
			Description: "Binds a widget property to a named variable.",
			Required: []factory.ParamSpec{
				{Name: "property", Kind: "string", Description: "Widget property to drive"},
				{Name: "source", Kind: "string", Description: "Variable name supplying the value"},
			},
		},
		{
			Name:        KindStyleRef,
			Description: "References a shared style asset; one node per style per graph.",
			Required:    []factory.ParamSpec{{Name: "style", Kind: "string", Description: "Style asset name"}},
		},
		{
			Name:        KindAnimationRef,
			Description: "References a widget animation asset.",
			Required:    []factory.ParamSpec{{Name: "animation", Kind: "string", Description: "Animation asset name"}},
		},
	}
}

// Create validates params, then constructs the requested node kind. Style
// references are idempotent per style name.
func (f *Factory) Create(
	g *graph.Graph, kind string, params map[string]any, pos graph.Position,
) (*graph.Node, error) {
	if g.Kind != "" && g.Kind != graph.KindUILayout {
		return nil, errors.WrapIncompatible(
			fmt.Errorf("graph %q has kind %s, not %s", g.Name, g.Kind, graph.KindUILayout),
			"UILayoutFactory", "Create", "graph kind check")
	}
	if err := f.ValidateParams(kind, params); err != nil {
		return nil, err
	}

	var (
		node *graph.Node
		err  error
	)
	switch kind {
	case KindPanel:
		node, err = f.buildPanel(params, pos)
	case KindText:
		text := factory.DataIn("Text", graph.Scalar("text"))
		text.Default = factory.GetString(params, "text", "")
		node = factory.NewNode(kind, params, pos, widgetOut(), text,
			factory.DataIn("Style", graph.Scalar("style")))
	case KindImage:
		node, err = f.buildImage(params, pos)
	case KindButton:
		label := factory.DataIn("Label", graph.Scalar("text"))
		label.Default = factory.GetString(params, "label", "")
		node = factory.NewNode(kind, params, pos, widgetOut(), label,
			factory.DataIn("Content", graph.Scalar("widget")),
			factory.DataIn("Style", graph.Scalar("style")),
			factory.DataOut("Pressed", graph.Scalar("bool")),
		)
	case KindSlot:
		node = f.buildSlot(params, pos)
	case KindBinding:
		node, err = f.buildBinding(params, pos)
	case KindStyleRef:
		return f.createStyleRef(g, params, pos)
	case KindAnimationRef:
		node, err = f.buildAnimationRef(params, pos)
	default:
		return nil, errors.WrapNotFound(
			fmt.Errorf("node kind %q: %w", kind, errors.ErrUnsupportedKind),
			"UILayoutFactory", "Create", "kind dispatch")
	}
	if err != nil {
		return nil, err
	}

	if err := g.AddNode(node); err != nil {
		return nil, err
	}
	return node, nil
}

func (f *Factory) buildPanel(params map[string]any, pos graph.Position) (*graph.Node, error) {
	layout := factory.GetString(params, "layout", "vertical")
	switch layout {
	case "vertical", "horizontal", "grid", "overlay":
	default:
		return nil, errors.WrapValidation(
			fmt.Errorf("layout %q must be vertical, horizontal, grid, or overlay: %w", layout, errors.ErrInvalidParam),
			"UILayoutFactory", "buildPanel", "layout check")
	}
	layoutPin := factory.DataIn("Layout", graph.Scalar("enum"))
	layoutPin.Default = layout
	layoutPin.Hidden = true
	return factory.NewNode(KindPanel, params, pos,
		widgetOut(),
		factory.DataIn("Slots", graph.Scalar("slot")),
		layoutPin,
	), nil
}

func (f *Factory) buildImage(params map[string]any, pos graph.Position) (*graph.Node, error) {
	saved := map[string]any{}
	if name := factory.GetString(params, "texture", ""); name != "" {
		res, err := f.resolver.Resolve(asset.RefType, name)
		if err != nil {
			return nil, err
		}
		saved["texture"] = res.Canonical
	}
	return factory.NewNode(KindImage, saved, pos,
		widgetOut(),
		factory.DataIn("Texture", graph.Scalar("texture")),
		factory.DataIn("Tint", graph.Color()),
	), nil
}

func (f *Factory) buildSlot(params map[string]any, pos graph.Position) *graph.Node {
	padding := factory.DataIn("Padding", graph.Scalar("float"))
	padding.Default = factory.GetFloat(params, "padding", 0)
	fill := factory.DataIn("Fill", graph.Scalar("bool"))
	fill.Default = factory.GetBool(params, "fill", false)
	fill.Hidden = true
	return factory.NewNode(KindSlot, params, pos,
		factory.DataIn("Child", graph.Scalar("widget")),
		factory.DataOut("Slot", graph.Scalar("slot")),
		padding,
		fill,
	)
}

func (f *Factory) buildBinding(params map[string]any, pos graph.Position) (*graph.Node, error) {
	property, err := factory.RequireString(params, "property")
	if err != nil {
		return nil, err
	}
	source, err := factory.RequireString(params, "source")
	if err != nil {
		return nil, err
	}
	value := factory.DataOut("Value", graph.Any())
	value.Aliases = []string{property}
	node := factory.NewNode(KindBinding, map[string]any{"property": property, "source": source}, pos, value)
	return node, nil
}

// createStyleRef returns the existing reference node when the graph already
// references the style.
func (f *Factory) createStyleRef(
	g *graph.Graph, params map[string]any, pos graph.Position,
) (*graph.Node, error) {
	name, err := factory.RequireString(params, "style")
	if err != nil {
		return nil, err
	}
	res, err := f.resolver.Resolve(asset.RefType, name)
	if err != nil {
		return nil, err
	}

	if existing := factory.FindExisting(g, KindStyleRef, func(n *graph.Node) bool {
		return factory.GetString(n.Params, "style", "") == res.Canonical
	}); existing != nil {
		return existing, nil
	}

	node := factory.NewNode(KindStyleRef, map[string]any{"style": res.Canonical}, pos,
		factory.DataOut("Style", graph.Scalar("style")))
	if err := g.AddNode(node); err != nil {
		return nil, err
	}
	return node, nil
}

func (f *Factory) buildAnimationRef(params map[string]any, pos graph.Position) (*graph.Node, error) {
	name, err := factory.RequireString(params, "animation")
	if err != nil {
		return nil, err
	}
	res, err := f.resolver.Resolve(asset.RefType, name)
	if err != nil {
		return nil, err
	}
	return factory.NewNode(KindAnimationRef, map[string]any{"animation": res.Canonical}, pos,
		factory.DataOut("Animation", graph.Scalar("animation"))), nil
}

func widgetOut() *graph.Pin {
	return &graph.Pin{Name: "Widget", Direction: graph.DirectionOutput, Kind: graph.Scalar("widget")}
}
