package graph

import (
	"fmt"

	"github.com/c360/nodeforge/errors"
)

// Pin is a named input/output slot on a Node. A composite pin may be split
// into child pins (one per component of its data kind); while split, the
// parent refuses connections and the children carry them instead.
type Pin struct {
	Name      string    `json:"name" yaml:"name"`
	Aliases   []string  `json:"aliases,omitempty" yaml:"aliases,omitempty"`
	Hidden    bool      `json:"hidden,omitempty" yaml:"hidden,omitempty"`
	Direction Direction `json:"direction" yaml:"direction"`
	Kind      DataKind  `json:"kind" yaml:"kind"`
	Default   Value     `json:"default,omitempty" yaml:"default,omitempty"`
	Split     bool      `json:"split,omitempty" yaml:"split,omitempty"`
	Children  []*Pin    `json:"children,omitempty" yaml:"children,omitempty"`
}

// Clone returns a deep copy of the pin.
func (p *Pin) Clone() *Pin {
	if p == nil {
		return nil
	}
	cp := *p
	cp.Aliases = append([]string(nil), p.Aliases...)
	cp.Default = normalizeValue(p.Default)
	if len(p.Children) > 0 {
		cp.Children = make([]*Pin, len(p.Children))
		for i, child := range p.Children {
			cp.Children[i] = child.Clone()
		}
	}
	return &cp
}

// matchesAlias reports whether name matches one of the pin's friendly names.
func (p *Pin) matchesAlias(name string) bool {
	for _, alias := range p.Aliases {
		if alias == name {
			return true
		}
	}
	return false
}

// Node is a single operation within a Graph. The identifier is assigned at
// creation, unique within the graph, and never reused. Params preserves the
// creation parameter bag so the node can be reconstructed after an underlying
// schema changes.
type Node struct {
	ID       string         `json:"id" yaml:"id"`
	Kind     string         `json:"kind" yaml:"kind"`
	Position Position       `json:"position" yaml:"position"`
	Enabled  bool           `json:"enabled" yaml:"enabled"`
	Pins     []*Pin         `json:"pins" yaml:"pins"`
	Params   map[string]any `json:"params,omitempty" yaml:"params,omitempty"`
}

// Clone returns a deep copy of the node.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	cp := *n
	cp.Pins = make([]*Pin, len(n.Pins))
	for i, pin := range n.Pins {
		cp.Pins[i] = pin.Clone()
	}
	if n.Params != nil {
		cp.Params = make(map[string]any, len(n.Params))
		for k, v := range n.Params {
			cp.Params[k] = normalizeValue(v)
		}
	}
	return &cp
}

// AddPin appends a pin, enforcing name uniqueness within the node.
func (n *Node) AddPin(pin *Pin) error {
	if pin == nil || pin.Name == "" {
		return errors.WrapValidation(errors.ErrInvalidParam, "Node", "AddPin", "pin name validation")
	}
	for _, existing := range n.Pins {
		if existing.Name == pin.Name {
			return errors.WrapValidation(
				fmt.Errorf("pin %q already exists on node %s", pin.Name, n.ID),
				"Node", "AddPin", "duplicate pin check")
		}
	}
	n.Pins = append(n.Pins, pin)
	return nil
}

// FindPin resolves a pin name on this node using the three-tier priority:
// visible-name match first (including split children by their dotted names),
// then alternate/friendly-name match, then hidden-pin match. Node kinds may
// expose multiple aliases for one logical pin, so the tiers keep lookups
// deterministic when a name is ambiguous.
func (n *Node) FindPin(name string) *Pin {
	// Tier 1: visible names, split children included.
	for _, pin := range n.Pins {
		if pin.Hidden {
			continue
		}
		if pin.Split {
			for _, child := range pin.Children {
				if child.Name == name {
					return child
				}
			}
			continue
		}
		if pin.Name == name {
			return pin
		}
	}

	// Tier 2: friendly aliases.
	for _, pin := range n.Pins {
		if pin.Hidden {
			continue
		}
		if pin.matchesAlias(name) {
			return pin
		}
		if pin.Split {
			for _, child := range pin.Children {
				if child.matchesAlias(name) {
					return child
				}
			}
		}
	}

	// Tier 3: hidden pins by name.
	for _, pin := range n.Pins {
		if pin.Hidden && (pin.Name == name || pin.matchesAlias(name)) {
			return pin
		}
	}

	return nil
}

// pinParent returns the split parent owning the named child pin, or nil when
// the name does not address a child.
func (n *Node) pinParent(name string) *Pin {
	for _, pin := range n.Pins {
		if !pin.Split {
			continue
		}
		for _, child := range pin.Children {
			if child.Name == name {
				return pin
			}
		}
	}
	return nil
}

// InputPins returns the node's input pins, split children substituted for
// their parents.
func (n *Node) InputPins() []*Pin {
	return n.pinsByDirection(DirectionInput)
}

// OutputPins returns the node's output pins, split children substituted for
// their parents.
func (n *Node) OutputPins() []*Pin {
	return n.pinsByDirection(DirectionOutput)
}

func (n *Node) pinsByDirection(dir Direction) []*Pin {
	var result []*Pin
	for _, pin := range n.Pins {
		if pin.Direction != dir {
			continue
		}
		if pin.Split {
			result = append(result, pin.Children...)
			continue
		}
		result = append(result, pin)
	}
	return result
}

// VisiblePinNames returns the connectable pin names in declaration order,
// used by diagnostics when a lookup fails.
func (n *Node) VisiblePinNames() []string {
	var names []string
	for _, pin := range n.Pins {
		if pin.Hidden {
			continue
		}
		if pin.Split {
			for _, child := range pin.Children {
				names = append(names, child.Name)
			}
			continue
		}
		names = append(names, pin.Name)
	}
	return names
}
