package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/nodeforge/errors"
)

func vectorNode(id string) *Node {
	return &Node{
		ID:      id,
		Kind:    "test-kind",
		Enabled: true,
		Pins: []*Pin{
			{Name: "Location", Direction: DirectionInput, Kind: Vector()},
			{Name: "Out", Direction: DirectionOutput, Kind: Scalar("float")},
		},
	}
}

func TestSplitPin(t *testing.T) {
	g := New("test", KindEventFlow)
	require.NoError(t, g.AddNode(vectorNode("a")))

	children, err := g.SplitPin(PinRef{NodeID: "a", Pin: "Location"})
	require.NoError(t, err)
	require.Len(t, children, 3)
	assert.Equal(t, "Location.X", children[0].Name)
	assert.Equal(t, "Location.Y", children[1].Name)
	assert.Equal(t, "Location.Z", children[2].Name)

	// Children are addressable through the tiered lookup; the parent is not.
	node := g.Node("a")
	assert.NotNil(t, node.FindPin("Location.X"))
	child := node.FindPin("Location.Y")
	require.NotNil(t, child)
	assert.Equal(t, DirectionInput, child.Direction)
	assert.Equal(t, "float", child.Kind.Name)
}

func TestSplitPin_Errors(t *testing.T) {
	tests := []struct {
		name    string
		prepare func(t *testing.T, g *Graph)
		pin     string
		wantErr func(error) bool
	}{
		{
			name:    "non-composite pin",
			pin:     "Out",
			wantErr: errors.IsState,
		},
		{
			name: "already split",
			prepare: func(t *testing.T, g *Graph) {
				_, err := g.SplitPin(PinRef{NodeID: "a", Pin: "Location"})
				require.NoError(t, err)
			},
			pin:     "Location",
			wantErr: errors.IsState,
		},
		{
			name: "connected pin refuses split",
			prepare: func(t *testing.T, g *Graph) {
				other := &Node{
					ID:   "b",
					Pins: []*Pin{{Name: "Vec", Direction: DirectionOutput, Kind: Vector()}},
				}
				require.NoError(t, g.AddNode(other))
				_, err := g.Connect(PinRef{NodeID: "b", Pin: "Vec"}, PinRef{NodeID: "a", Pin: "Location"})
				require.NoError(t, err)
			},
			pin:     "Location",
			wantErr: errors.IsState,
		},
		{
			name:    "unknown pin",
			pin:     "Ghost",
			wantErr: errors.IsNotFound,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			g := New("test", KindEventFlow)
			require.NoError(t, g.AddNode(vectorNode("a")))
			if test.prepare != nil {
				test.prepare(t, g)
			}

			_, err := g.SplitPin(PinRef{NodeID: "a", Pin: test.pin})
			require.Error(t, err)
			assert.True(t, test.wantErr(err), "unexpected error class: %v", err)
		})
	}
}

func TestSplitRecombine_RoundTrip(t *testing.T) {
	g := New("test", KindEventFlow)
	require.NoError(t, g.AddNode(vectorNode("a")))

	before := g.Fingerprint()

	_, err := g.SplitPin(PinRef{NodeID: "a", Pin: "Location"})
	require.NoError(t, err)
	assert.NotEqual(t, before, g.Fingerprint())

	removed, err := g.RecombinePin(PinRef{NodeID: "a", Pin: "Location"})
	require.NoError(t, err)
	require.Len(t, removed, 3)
	assert.Equal(t, "Location.X", removed[0].Name)
	assert.Equal(t, before, g.Fingerprint(), "split then recombine must restore the pre-split state")
}

func TestRecombinePin_ChildConnectionsRefuse(t *testing.T) {
	g := New("test", KindEventFlow)
	require.NoError(t, g.AddNode(vectorNode("a")))
	source := &Node{
		ID:   "b",
		Pins: []*Pin{{Name: "F", Direction: DirectionOutput, Kind: Scalar("float")}},
	}
	require.NoError(t, g.AddNode(source))

	_, err := g.SplitPin(PinRef{NodeID: "a", Pin: "Location"})
	require.NoError(t, err)
	_, err = g.Connect(PinRef{NodeID: "b", Pin: "F"}, PinRef{NodeID: "a", Pin: "Location.X"})
	require.NoError(t, err)

	_, err = g.RecombinePin(PinRef{NodeID: "a", Pin: "Location"})
	require.Error(t, err)
	assert.True(t, errors.IsState(err))

	// Clearing the child link makes recombination legal again.
	_, err = g.Disconnect(PinRef{NodeID: "b", Pin: "F"}, PinRef{NodeID: "a", Pin: "Location.X"})
	require.NoError(t, err)
	_, err = g.RecombinePin(PinRef{NodeID: "a", Pin: "Location"})
	require.NoError(t, err)
}

func TestRecombinePin_NotSplit(t *testing.T) {
	g := New("test", KindEventFlow)
	require.NoError(t, g.AddNode(vectorNode("a")))

	_, err := g.RecombinePin(PinRef{NodeID: "a", Pin: "Location"})
	require.Error(t, err)
	assert.True(t, errors.IsState(err))
}

func TestConnect_SplitChildKinds(t *testing.T) {
	g := New("test", KindEventFlow)
	require.NoError(t, g.AddNode(vectorNode("a")))
	source := &Node{
		ID: "b",
		Pins: []*Pin{
			{Name: "F", Direction: DirectionOutput, Kind: Scalar("float")},
			{Name: "S", Direction: DirectionOutput, Kind: Scalar("string")},
		},
	}
	require.NoError(t, g.AddNode(source))

	_, err := g.SplitPin(PinRef{NodeID: "a", Pin: "Location"})
	require.NoError(t, err)

	_, err = g.Connect(PinRef{NodeID: "b", Pin: "F"}, PinRef{NodeID: "a", Pin: "Location.X"})
	require.NoError(t, err)

	_, err = g.Connect(PinRef{NodeID: "b", Pin: "S"}, PinRef{NodeID: "a", Pin: "Location.Y"})
	require.Error(t, err)
	assert.True(t, errors.IsIncompatible(err))
}
