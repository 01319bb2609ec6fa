package compile

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/nodeforge/asset"
	"github.com/c360/nodeforge/factory/eventflow"
	"github.com/c360/nodeforge/factory/shader"
	"github.com/c360/nodeforge/factory/statemachine"
	"github.com/c360/nodeforge/graph"
)

func testIndex(t *testing.T) *asset.Index {
	t.Helper()
	ix := asset.NewIndex()
	require.NoError(t, ix.RegisterSignal(asset.Signal{Entry: asset.Entry{Name: "Ready"}}))
	return ix
}

func TestStructuralValidator_CleanEventFlow(t *testing.T) {
	ix := testIndex(t)
	f := eventflow.New(ix)
	g := graph.New("main", graph.KindEventFlow)

	entry, err := f.Create(g, eventflow.KindEntrySignal, map[string]any{"signal": "Ready"}, graph.Position{})
	require.NoError(t, err)
	log, err := f.Create(g, eventflow.KindLogMessage, map[string]any{"text": "ready"}, graph.Position{})
	require.NoError(t, err)
	mustConnect(t, g,
		graph.PinRef{NodeID: entry.ID, Pin: "Then"},
		graph.PinRef{NodeID: log.ID, Pin: "Exec"},
	)

	d, err := NewStructuralValidator().Compile(context.Background(), nil, g)
	require.NoError(t, err)
	assert.False(t, d.HasErrors())
	assert.Empty(t, d.Warnings)
}

func TestStructuralValidator_UnreachableAndDisabled(t *testing.T) {
	ix := testIndex(t)
	f := eventflow.New(ix)
	g := graph.New("main", graph.KindEventFlow)

	entry, err := f.Create(g, eventflow.KindEntrySignal, map[string]any{"signal": "Ready"}, graph.Position{})
	require.NoError(t, err)
	orphan, err := f.Create(g, eventflow.KindLogMessage, map[string]any{"text": "orphan"}, graph.Position{})
	require.NoError(t, err)
	_, err = g.SetNodeEnabled(entry.ID, false)
	require.NoError(t, err)

	d, err := NewStructuralValidator().Compile(context.Background(), nil, g)
	require.NoError(t, err)
	assert.False(t, d.HasErrors())

	codes := make(map[string]string)
	for _, w := range d.Warnings {
		codes[w.Code] = w.NodeID
	}
	assert.Equal(t, entry.ID, codes["disabled-entry"])
	assert.Equal(t, orphan.ID, codes["unreachable-node"])
}

func TestStructuralValidator_DanglingConnection(t *testing.T) {
	ix := testIndex(t)
	f := eventflow.New(ix)
	g := graph.New("main", graph.KindEventFlow)

	entry, err := f.Create(g, eventflow.KindEntrySignal, map[string]any{"signal": "Ready"}, graph.Position{})
	require.NoError(t, err)
	log, err := f.Create(g, eventflow.KindLogMessage, map[string]any{"text": "x"}, graph.Position{})
	require.NoError(t, err)
	mustConnect(t, g,
		graph.PinRef{NodeID: entry.ID, Pin: "Then"},
		graph.PinRef{NodeID: log.ID, Pin: "Exec"},
	)

	// Corrupt the graph directly: point the connection at a vanished node.
	g.Connections[0].To.NodeID = "gone"

	d, err := NewStructuralValidator().Compile(context.Background(), nil, g)
	require.NoError(t, err)
	require.True(t, d.HasErrors())
	assert.Equal(t, "dangling-connection", d.Errors[0].Code)
}

func TestStructuralValidator_ShaderMissingOutput(t *testing.T) {
	ix := testIndex(t)
	f := shader.New(ix)
	g := graph.New("surface", graph.KindShaderExpression)

	_, err := f.Create(g, shader.KindConstScalar, map[string]any{"value": 1.0}, graph.Position{})
	require.NoError(t, err)

	d, err := NewStructuralValidator().Compile(context.Background(), nil, g)
	require.NoError(t, err)
	require.True(t, d.HasErrors())
	assert.Equal(t, "missing-output", d.Errors[0].Code)

	_, err = f.Create(g, shader.KindSurfaceOutput, nil, graph.Position{})
	require.NoError(t, err)
	d, err = NewStructuralValidator().Compile(context.Background(), nil, g)
	require.NoError(t, err)
	assert.False(t, d.HasErrors())
}

func TestStructuralValidator_StateMachineReachability(t *testing.T) {
	ix := testIndex(t)
	f := statemachine.New(ix)
	g := graph.New("locomotion", graph.KindStateMachine)

	entry, err := f.Create(g, statemachine.KindEntry, nil, graph.Position{})
	require.NoError(t, err)
	idle, err := f.Create(g, statemachine.KindState, map[string]any{"name": "Idle"}, graph.Position{})
	require.NoError(t, err)
	island, err := f.Create(g, statemachine.KindState, map[string]any{"name": "Island"}, graph.Position{})
	require.NoError(t, err)
	mustConnect(t, g,
		graph.PinRef{NodeID: entry.ID, Pin: "Out"},
		graph.PinRef{NodeID: idle.ID, Pin: "In"},
	)

	d, err := NewStructuralValidator().Compile(context.Background(), nil, g)
	require.NoError(t, err)
	assert.False(t, d.HasErrors())
	require.Len(t, d.Warnings, 1)
	assert.Equal(t, "unreachable-state", d.Warnings[0].Code)
	assert.Equal(t, island.ID, d.Warnings[0].NodeID)
}

func TestStructuralValidator_StateMachineNoEntry(t *testing.T) {
	ix := testIndex(t)
	f := statemachine.New(ix)
	g := graph.New("locomotion", graph.KindStateMachine)

	_, err := f.Create(g, statemachine.KindState, map[string]any{"name": "Idle"}, graph.Position{})
	require.NoError(t, err)

	d, err := NewStructuralValidator().Compile(context.Background(), nil, g)
	require.NoError(t, err)
	require.True(t, d.HasErrors())
	assert.Equal(t, "no-entry", d.Errors[0].Code)
}

// Interface conformance.
var _ Compiler = (*StructuralValidator)(nil)

func mustConnect(t *testing.T, g *graph.Graph, from, to graph.PinRef) {
	t.Helper()
	_, err := g.Connect(from, to)
	require.NoError(t, err)
}
