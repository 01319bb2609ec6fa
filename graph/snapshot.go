package graph

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"lukechampine.com/blake3"
)

// Clone creates a deep copy of the graph. Used by dry-run verification and
// the CLI's before/after diff output.
func (g *Graph) Clone() *Graph {
	if g == nil {
		return nil
	}
	clone := &Graph{
		Name:        g.Name,
		Kind:        g.Kind,
		Owner:       g.Owner,
		Nodes:       make([]*Node, len(g.Nodes)),
		Connections: append([]Connection(nil), g.Connections...),
	}
	for i, n := range g.Nodes {
		clone.Nodes[i] = n.Clone()
	}
	return clone
}

// Fingerprint returns a stable digest of the graph's complete state: node
// set, pin set (including split structure and defaults), and connection set.
// Two graphs with identical state produce identical fingerprints regardless
// of node insertion order, which is what the dry-run and rollback guarantees
// are asserted against.
func (g *Graph) Fingerprint() string {
	var b strings.Builder
	b.WriteString("graph|" + g.Name + "|" + string(g.Kind) + "\n")

	nodes := make([]*Node, len(g.Nodes))
	copy(nodes, g.Nodes)
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })

	for _, n := range nodes {
		fmt.Fprintf(&b, "node|%s|%s|%v|%g,%g\n", n.ID, n.Kind, n.Enabled, n.Position.X, n.Position.Y)
		for _, pin := range n.Pins {
			writePinLine(&b, n.ID, pin)
		}
	}

	conns := append([]Connection(nil), g.Connections...)
	sort.Slice(conns, func(i, j int) bool { return conns[i].String() < conns[j].String() })
	for _, c := range conns {
		b.WriteString("conn|" + c.String() + "\n")
	}

	sum := blake3.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

func writePinLine(b *strings.Builder, nodeID string, pin *Pin) {
	def := ""
	if pin.Default != nil {
		if data, err := json.Marshal(normalizeValue(pin.Default)); err == nil {
			def = string(data)
		}
	}
	fmt.Fprintf(b, "pin|%s|%s|%s|%s|%v|%v|%s\n",
		nodeID, pin.Name, pin.Direction, pin.Kind, pin.Hidden, pin.Split, def)
	for _, child := range pin.Children {
		writePinLine(b, nodeID, child)
	}
}
