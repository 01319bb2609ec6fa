package graph

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/c360/nodeforge/errors"
)

// Graph is a named container of nodes and connections, tagged with a Kind and
// owned by exactly one asset. All mutation goes through methods so that the
// model invariants (unique node identifiers, unique pin names, compatible
// connections) hold after every call.
//
// The graph is not safe for concurrent use; exclusive access is a caller
// precondition.
type Graph struct {
	Name        string       `json:"name" yaml:"name"`
	Kind        Kind         `json:"kind,omitempty" yaml:"kind,omitempty"`
	Owner       string       `json:"owner,omitempty" yaml:"owner,omitempty"`
	Nodes       []*Node      `json:"nodes" yaml:"nodes"`
	Connections []Connection `json:"connections" yaml:"connections"`
}

// New creates an empty graph with the given name and kind.
func New(name string, kind Kind) *Graph {
	return &Graph{
		Name:        name,
		Kind:        kind,
		Nodes:       make([]*Node, 0),
		Connections: make([]Connection, 0),
	}
}

// NewNodeID allocates a fresh stable node identifier. Identifiers are never
// reused, even after the node is removed.
func NewNodeID() string {
	return uuid.NewString()
}

// Node retrieves a node by identifier. Returns nil if not found.
func (g *Graph) Node(id string) *Node {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n
		}
	}
	return nil
}

// AddNode inserts a node, assigning an identifier when the node carries none.
func (g *Graph) AddNode(n *Node) error {
	if n == nil {
		return errors.WrapValidation(errors.ErrInvalidParam, "Graph", "AddNode", "node validation")
	}
	if n.ID == "" {
		n.ID = NewNodeID()
	}
	if g.Node(n.ID) != nil {
		return errors.WrapValidation(
			fmt.Errorf("node %s already exists in graph %s", n.ID, g.Name),
			"Graph", "AddNode", "duplicate identifier check")
	}
	seen := make(map[string]bool, len(n.Pins))
	for _, pin := range n.Pins {
		if seen[pin.Name] {
			return errors.WrapValidation(
				fmt.Errorf("duplicate pin %q on node %s", pin.Name, n.ID),
				"Graph", "AddNode", "pin uniqueness check")
		}
		seen[pin.Name] = true
	}
	g.Nodes = append(g.Nodes, n)
	return nil
}

// RemoveNode deletes a node and every connection touching it. The removed
// node and connections are returned so the caller can buffer an exact
// inverse.
func (g *Graph) RemoveNode(id string) (*Node, []Connection, error) {
	idx := -1
	for i, n := range g.Nodes {
		if n.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, nil, errors.WrapNotFound(
			fmt.Errorf("node %s: %w", id, errors.ErrNodeNotFound),
			"Graph", "RemoveNode", "node lookup")
	}

	removed := g.Nodes[idx]
	g.Nodes = append(g.Nodes[:idx], g.Nodes[idx+1:]...)

	dropped := g.removeConnectionsWhere(func(c Connection) bool {
		return c.From.NodeID == id || c.To.NodeID == id
	})
	return removed, dropped, nil
}

// HasConnection reports whether the exact connection exists.
func (g *Graph) HasConnection(c Connection) bool {
	for _, existing := range g.Connections {
		if existing.Equal(c) {
			return true
		}
	}
	return false
}

// Connect creates a directed connection between two pins. Either endpoint
// order is accepted; the stored connection always runs output to input. The
// returned connection uses canonical pin names even when the caller supplied
// aliases.
func (g *Graph) Connect(a, b PinRef) (Connection, error) {
	nodeA, pinA, err := g.resolvePin(a, "Connect")
	if err != nil {
		return Connection{}, err
	}
	nodeB, pinB, err := g.resolvePin(b, "Connect")
	if err != nil {
		return Connection{}, err
	}

	if pinA.Split || pinB.Split {
		return Connection{}, errors.WrapState(
			fmt.Errorf("cannot connect a split parent pin: %w", errors.ErrPinAlreadySplit),
			"Graph", "Connect", "split state check")
	}

	if pinA.Direction == pinB.Direction {
		return Connection{}, errors.WrapIncompatible(
			fmt.Errorf("%s and %s are both %s pins: %w",
				a, b, pinA.Direction, errors.ErrIncompatibleDirection),
			"Graph", "Connect", "direction check")
	}

	from := PinRef{NodeID: nodeA.ID, Pin: pinA.Name}
	to := PinRef{NodeID: nodeB.ID, Pin: pinB.Name}
	fromPin, toPin := pinA, pinB
	if pinA.Direction == DirectionInput {
		from, to = to, from
		fromPin, toPin = pinB, pinA
	}

	if !fromPin.Kind.CompatibleWith(toPin.Kind) {
		return Connection{}, errors.WrapIncompatible(
			fmt.Errorf("%s (%s) does not match %s (%s): %w",
				from, fromPin.Kind, to, toPin.Kind, errors.ErrIncompatibleDataKind),
			"Graph", "Connect", "data kind check")
	}

	conn := Connection{From: from, To: to}
	if g.HasConnection(conn) {
		return Connection{}, errors.WrapState(
			fmt.Errorf("%s: %w", conn, errors.ErrDuplicateConnection),
			"Graph", "Connect", "duplicate check")
	}

	g.Connections = append(g.Connections, conn)
	return conn, nil
}

// Disconnect removes a single connection between two pins. Endpoint order is
// forgiving like Connect.
func (g *Graph) Disconnect(a, b PinRef) (Connection, error) {
	nodeA, pinA, err := g.resolvePin(a, "Disconnect")
	if err != nil {
		return Connection{}, err
	}
	nodeB, pinB, err := g.resolvePin(b, "Disconnect")
	if err != nil {
		return Connection{}, err
	}

	refA := PinRef{NodeID: nodeA.ID, Pin: pinA.Name}
	refB := PinRef{NodeID: nodeB.ID, Pin: pinB.Name}

	for i, c := range g.Connections {
		if (c.From == refA && c.To == refB) || (c.From == refB && c.To == refA) {
			removed := c
			g.Connections = append(g.Connections[:i], g.Connections[i+1:]...)
			return removed, nil
		}
	}
	return Connection{}, errors.WrapNotFound(
		fmt.Errorf("%s <-> %s: %w", refA, refB, errors.ErrConnectionNotFound),
		"Graph", "Disconnect", "connection lookup")
}

// BreakAllLinks removes every connection touching the named node and returns
// them in removal order.
func (g *Graph) BreakAllLinks(nodeID string) ([]Connection, error) {
	if g.Node(nodeID) == nil {
		return nil, errors.WrapNotFound(
			fmt.Errorf("node %s: %w", nodeID, errors.ErrNodeNotFound),
			"Graph", "BreakAllLinks", "node lookup")
	}
	return g.removeConnectionsWhere(func(c Connection) bool {
		return c.From.NodeID == nodeID || c.To.NodeID == nodeID
	}), nil
}

// BreakPinLinks removes every connection touching one pin and returns them.
func (g *Graph) BreakPinLinks(ref PinRef) ([]Connection, error) {
	node, pin, err := g.resolvePin(ref, "BreakPinLinks")
	if err != nil {
		return nil, err
	}
	canonical := PinRef{NodeID: node.ID, Pin: pin.Name}
	return g.removeConnectionsWhere(func(c Connection) bool {
		return c.From == canonical || c.To == canonical
	}), nil
}

// SetPinDefault assigns a literal default value to a pin after validating it
// against the pin's data kind. The prior value is returned for rollback.
func (g *Graph) SetPinDefault(ref PinRef, value Value) (Value, error) {
	_, pin, err := g.resolvePin(ref, "SetPinDefault")
	if err != nil {
		return nil, err
	}
	if pin.Split {
		return nil, errors.WrapState(
			fmt.Errorf("pin %s is split; set values on its children: %w", ref, errors.ErrPinAlreadySplit),
			"Graph", "SetPinDefault", "split state check")
	}
	if err := validateValueKind(pin.Kind, value); err != nil {
		return nil, errors.WrapValidation(err, "Graph", "SetPinDefault", "value kind check")
	}
	previous := pin.Default
	pin.Default = normalizeValue(value)
	return previous, nil
}

// SetNodeEnabled toggles a node's enabled flag, returning the prior state.
func (g *Graph) SetNodeEnabled(id string, enabled bool) (bool, error) {
	node := g.Node(id)
	if node == nil {
		return false, errors.WrapNotFound(
			fmt.Errorf("node %s: %w", id, errors.ErrNodeNotFound),
			"Graph", "SetNodeEnabled", "node lookup")
	}
	previous := node.Enabled
	node.Enabled = enabled
	return previous, nil
}

// ReplaceNodePins swaps a node's pin set, pruning connections whose endpoint
// pin no longer resolves or whose data kind no longer matches. Returns the
// prior pins and the pruned connections for rollback.
func (g *Graph) ReplaceNodePins(id string, pins []*Pin) ([]*Pin, []Connection, error) {
	node := g.Node(id)
	if node == nil {
		return nil, nil, errors.WrapNotFound(
			fmt.Errorf("node %s: %w", id, errors.ErrNodeNotFound),
			"Graph", "ReplaceNodePins", "node lookup")
	}

	previous := node.Pins
	node.Pins = pins

	pruned := g.removeConnectionsWhere(func(c Connection) bool {
		for _, ref := range []PinRef{c.From, c.To} {
			if ref.NodeID != id {
				continue
			}
			pin := node.FindPin(ref.Pin)
			if pin == nil {
				return true
			}
			expected := DirectionOutput
			if ref == c.To {
				expected = DirectionInput
			}
			if pin.Direction != expected {
				return true
			}
			other := c.To
			if ref == c.To {
				other = c.From
			}
			if otherNode := g.Node(other.NodeID); otherNode != nil {
				if otherPin := otherNode.FindPin(other.Pin); otherPin != nil {
					if !pin.Kind.CompatibleWith(otherPin.Kind) {
						return true
					}
				}
			}
		}
		return false
	})

	return previous, pruned, nil
}

// resolvePin finds the node and pin addressed by a reference, applying the
// node's three-tier pin lookup.
func (g *Graph) resolvePin(ref PinRef, operation string) (*Node, *Pin, error) {
	node := g.Node(ref.NodeID)
	if node == nil {
		return nil, nil, errors.WrapNotFound(
			fmt.Errorf("node %s: %w", ref.NodeID, errors.ErrNodeNotFound),
			"Graph", operation, "node lookup")
	}
	pin := node.FindPin(ref.Pin)
	if pin == nil {
		return nil, nil, errors.WrapNotFound(
			fmt.Errorf("pin %q on node %s (have %v): %w",
				ref.Pin, ref.NodeID, node.VisiblePinNames(), errors.ErrPinNotFound),
			"Graph", operation, "pin lookup")
	}
	return node, pin, nil
}

// removeConnectionsWhere drops matching connections, preserving order among
// the survivors, and returns the removed set.
func (g *Graph) removeConnectionsWhere(match func(Connection) bool) []Connection {
	var removed []Connection
	kept := g.Connections[:0]
	for _, c := range g.Connections {
		if match(c) {
			removed = append(removed, c)
			continue
		}
		kept = append(kept, c)
	}
	g.Connections = kept
	return removed
}

// validateValueKind checks that a literal default agrees with a pin's data
// kind. Exec pins never carry defaults.
func validateValueKind(dk DataKind, v Value) error {
	if dk.IsExec() {
		return fmt.Errorf("execution pins carry no default: %w", errors.ErrInvalidParam)
	}
	if v == nil {
		return nil
	}
	if dk.Name == KindNameAny {
		return nil
	}

	switch v.(type) {
	case bool:
		if dk.Name != "bool" {
			return mismatch(dk, "bool")
		}
	case string:
		switch dk.Name {
		case "string", "name", "text", "enum":
		default:
			return mismatch(dk, "string")
		}
	case int, int32, int64, float32, float64:
		switch dk.Name {
		case "int", "float", "byte":
		default:
			return mismatch(dk, "number")
		}
	case []any, []float64, []string, map[string]any:
		if !dk.IsComposite() {
			return mismatch(dk, "composite")
		}
	default:
		return fmt.Errorf("unsupported literal type %T: %w", v, errors.ErrInvalidParam)
	}
	return nil
}

func mismatch(dk DataKind, literal string) error {
	return fmt.Errorf("%s literal does not match pin kind %s: %w", literal, dk, errors.ErrInvalidParam)
}
