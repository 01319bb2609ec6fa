package graph

import (
	"fmt"

	"github.com/c360/nodeforge/errors"
)

// SplitPin expands a composite pin into one child pin per component of its
// data kind. Child pins take the dotted name "Parent.Component" and the
// component's scalar kind. The pin must be connection-free before splitting;
// break its links first (the batch engine orders link-breaking phases ahead
// of the split phase for exactly this reason).
func (g *Graph) SplitPin(ref PinRef) ([]*Pin, error) {
	node, pin, err := g.resolvePin(ref, "SplitPin")
	if err != nil {
		return nil, err
	}
	if node.pinParent(pin.Name) != nil {
		return nil, errors.WrapState(
			fmt.Errorf("pin %s is a split child and cannot be split again: %w", ref, errors.ErrPinNotSplittable),
			"Graph", "SplitPin", "child pin check")
	}
	if pin.Split {
		return nil, errors.WrapState(
			fmt.Errorf("pin %s: %w", ref, errors.ErrPinAlreadySplit),
			"Graph", "SplitPin", "split state check")
	}
	if !pin.Kind.IsComposite() {
		return nil, errors.WrapState(
			fmt.Errorf("pin %s has kind %s: %w", ref, pin.Kind, errors.ErrPinNotSplittable),
			"Graph", "SplitPin", "composite check")
	}
	if g.pinHasConnections(PinRef{NodeID: node.ID, Pin: pin.Name}) {
		return nil, errors.WrapState(
			fmt.Errorf("pin %s still carries connections; break them before splitting: %w",
				ref, errors.ErrChildConnected),
			"Graph", "SplitPin", "connection check")
	}

	children := make([]*Pin, 0, len(pin.Kind.Components))
	for _, comp := range pin.Kind.Components {
		children = append(children, &Pin{
			Name:      pin.Name + "." + comp.Name,
			Direction: pin.Direction,
			Kind:      Scalar(comp.Kind),
		})
	}
	pin.Split = true
	pin.Children = children
	return children, nil
}

// RecombinePin collapses a split pin back into its single composite form and
// returns the removed child pins, so callers undoing a recombination can
// reattach the exact children (defaults included) rather than rebuilding them.
// Every child pin must be connection-free; connections attached to children
// never survive recombination (their mapping onto the composite would be
// ambiguous), so the operation refuses instead of guessing.
func (g *Graph) RecombinePin(ref PinRef) ([]*Pin, error) {
	node := g.Node(ref.NodeID)
	if node == nil {
		return nil, errors.WrapNotFound(
			fmt.Errorf("node %s: %w", ref.NodeID, errors.ErrNodeNotFound),
			"Graph", "RecombinePin", "node lookup")
	}

	// The split parent is invisible to the tiered lookup, so address the pin
	// list directly.
	var pin *Pin
	for _, candidate := range node.Pins {
		if candidate.Name == ref.Pin || candidate.matchesAlias(ref.Pin) {
			pin = candidate
			break
		}
	}
	if pin == nil {
		return nil, errors.WrapNotFound(
			fmt.Errorf("pin %q on node %s: %w", ref.Pin, ref.NodeID, errors.ErrPinNotFound),
			"Graph", "RecombinePin", "pin lookup")
	}
	if !pin.Split {
		return nil, errors.WrapState(
			fmt.Errorf("pin %s: %w", ref, errors.ErrPinNotSplit),
			"Graph", "RecombinePin", "split state check")
	}
	for _, child := range pin.Children {
		if g.pinHasConnections(PinRef{NodeID: node.ID, Pin: child.Name}) {
			return nil, errors.WrapState(
				fmt.Errorf("child pin %s.%s: %w", ref.NodeID, child.Name, errors.ErrChildConnected),
				"Graph", "RecombinePin", "child connection check")
		}
	}

	children := pin.Children
	pin.Split = false
	pin.Children = nil
	return children, nil
}

// pinHasConnections reports whether any connection touches the canonical ref.
func (g *Graph) pinHasConnections(ref PinRef) bool {
	for _, c := range g.Connections {
		if c.From == ref || c.To == ref {
			return true
		}
	}
	return false
}
