package batch

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/nodeforge/asset"
	"github.com/c360/nodeforge/compile"
	"github.com/c360/nodeforge/errors"
	"github.com/c360/nodeforge/factory"
	"github.com/c360/nodeforge/factory/eventflow"
	"github.com/c360/nodeforge/factory/shader"
	"github.com/c360/nodeforge/graph"
	"github.com/c360/nodeforge/metric"
)

func testIndex(t *testing.T) *asset.Index {
	t.Helper()
	ix := asset.NewIndex()
	require.NoError(t, ix.RegisterSignal(asset.Signal{
		Entry: asset.Entry{Name: "Ready", Aliases: []string{"OnReady"}},
	}))
	return ix
}

func testRegistry(t *testing.T) *factory.Registry {
	t.Helper()
	reg := factory.NewRegistry()
	require.NoError(t, reg.Register(eventflow.New(testIndex(t))))
	require.NoError(t, reg.Register(shader.New(testIndex(t))))
	return reg
}

func testEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	return NewEngine(testRegistry(t), opts...)
}

// wiredEventGraph builds an event-flow graph with an entry connected to a
// log node.
func wiredEventGraph(t *testing.T) (*graph.Graph, *graph.Node, *graph.Node) {
	t.Helper()
	g := graph.New("main", graph.KindEventFlow)
	f := eventflow.New(testIndex(t))

	entry, err := f.Create(g, eventflow.KindEntrySignal,
		map[string]any{"signal": "Ready"}, graph.Position{})
	require.NoError(t, err)
	logNode, err := f.Create(g, eventflow.KindLogMessage, nil, graph.Position{X: 200})
	require.NoError(t, err)
	_, err = g.Connect(
		graph.PinRef{NodeID: entry.ID, Pin: "Then"},
		graph.PinRef{NodeID: logNode.ID, Pin: "Exec"},
	)
	require.NoError(t, err)
	return g, entry, logNode
}

func TestExecute_EmptyRequestIsNoOp(t *testing.T) {
	e := testEngine(t)
	g, _, _ := wiredEventGraph(t)
	before := g.Fingerprint()

	res, err := e.Execute(context.Background(), nil, g, &Request{})
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Equal(t, Counts{}, res.Counts)
	assert.Empty(t, res.Failed)
	assert.Equal(t, before, g.Fingerprint())
}

func TestExecute_CreateAndConnectWithAliases(t *testing.T) {
	e := testEngine(t)
	g := graph.New("main", graph.KindEventFlow)

	res, err := e.Execute(context.Background(), nil, g, &Request{
		CreateNodes: []CreateSpec{
			{Alias: "a", Kind: eventflow.KindEntrySignal, Params: map[string]any{"signal": "OnReady"}},
			{Alias: "b", Kind: eventflow.KindLogMessage, Position: graph.Position{X: 200}},
		},
		Connections: []ConnectionSpec{{
			From: Endpoint{Node: NodeRef{Alias: "a"}, Pin: "Then"},
			To:   Endpoint{Node: NodeRef{Alias: "b"}, Pin: "Exec"},
		}},
	})
	require.NoError(t, err)

	require.True(t, res.Success)
	assert.Equal(t, 2, res.Counts.NodesCreated)
	assert.Equal(t, 1, res.Counts.ConnectionsMade)
	require.Len(t, res.Aliases, 2)
	assert.Len(t, g.Nodes, 2)
	require.Len(t, g.Connections, 1)
	assert.Equal(t, res.Aliases["a"], g.Connections[0].From.NodeID)
	assert.Equal(t, res.Aliases["b"], g.Connections[0].To.NodeID)
}

func TestExecute_DryRunLeavesGraphUntouched(t *testing.T) {
	e := testEngine(t)
	g := graph.New("main", graph.KindEventFlow)
	before := g.Fingerprint()

	res, err := e.Execute(context.Background(), nil, g, &Request{
		DryRun: true,
		CreateNodes: []CreateSpec{
			{Alias: "a", Kind: eventflow.KindEntrySignal, Params: map[string]any{"signal": "Ready"}},
			{Alias: "b", Kind: eventflow.KindLogMessage},
		},
		Connections: []ConnectionSpec{{
			From: Endpoint{Node: NodeRef{Alias: "a"}, Pin: "Then"},
			To:   Endpoint{Node: NodeRef{Alias: "b"}, Pin: "Exec"},
		}},
	})
	require.NoError(t, err)

	assert.True(t, res.DryRun)
	assert.True(t, res.Success)
	assert.Equal(t, 2, res.Counts.NodesCreated)
	assert.Equal(t, 1, res.Counts.ConnectionsMade)
	assert.Len(t, res.Aliases, 2)
	assert.Empty(t, g.Nodes)
	assert.Equal(t, before, g.Fingerprint())
}

func TestExecute_RollbackRestoresFingerprint(t *testing.T) {
	e := testEngine(t)
	g, entry, _ := wiredEventGraph(t)
	before := g.Fingerprint()

	res, err := e.Execute(context.Background(), nil, g, &Request{
		DisableIDs:  []string{entry.ID},
		CreateNodes: []CreateSpec{{Kind: eventflow.KindBranch}},
		Connections: []ConnectionSpec{{
			From: Endpoint{Node: NodeRef{Alias: "ghost"}, Pin: "Then"},
			To:   Endpoint{Node: NodeRef{ID: entry.ID}, Pin: "Exec"},
		}},
	})
	require.NoError(t, err)

	assert.False(t, res.Success)
	assert.True(t, res.RolledBack)
	assert.Equal(t, Counts{}, res.Counts)
	require.Len(t, res.Failed, 1)
	assert.Equal(t, PhaseConnect, res.Failed[0].Phase)
	assert.NotEmpty(t, res.Failed[0].ErrorClass)

	assert.Equal(t, before, g.Fingerprint())
	assert.True(t, g.Node(entry.ID).Enabled)
}

func TestExecute_ContinuePolicyAppliesTheRest(t *testing.T) {
	e := testEngine(t)
	g := graph.New("main", graph.KindEventFlow)

	res, err := e.Execute(context.Background(), nil, g, &Request{
		OnError:     OnErrorContinue,
		Verbosity:   VerbosityDetailed,
		RemoveIDs:   []string{"missing"},
		CreateNodes: []CreateSpec{{Kind: eventflow.KindBranch}},
	})
	require.NoError(t, err)

	assert.False(t, res.Success)
	assert.False(t, res.RolledBack)
	require.Len(t, res.Failed, 1)
	assert.Equal(t, PhaseRemove, res.Failed[0].Phase)
	assert.Len(t, res.Outcomes, 2)
	assert.Equal(t, 1, res.Counts.NodesCreated)
	assert.Len(t, g.Nodes, 1)
}

func TestExecute_StopPolicyHaltsLaterPhases(t *testing.T) {
	e := testEngine(t)
	g, entry, logNode := wiredEventGraph(t)

	res, err := e.Execute(context.Background(), nil, g, &Request{
		OnError:     OnErrorStop,
		RemoveIDs:   []string{logNode.ID},
		CreateNodes: []CreateSpec{{Alias: "b", Kind: "no-such-kind"}},
		Connections: []ConnectionSpec{{
			From: Endpoint{Node: NodeRef{ID: entry.ID}, Pin: "Then"},
			To:   Endpoint{Node: NodeRef{Alias: "b"}, Pin: "Exec"},
		}},
	})
	require.NoError(t, err)

	assert.False(t, res.Success)
	assert.True(t, res.Stopped)
	assert.False(t, res.RolledBack)
	require.Len(t, res.Failed, 1)
	assert.Equal(t, PhaseCreate, res.Failed[0].Phase)

	// The remove committed before the stop; the connect never ran.
	assert.Equal(t, 1, res.Counts.NodesRemoved)
	assert.Equal(t, 0, res.Counts.ConnectionsMade)
	assert.Len(t, g.Nodes, 1)
	assert.Empty(t, g.Connections)
}

func TestExecute_IdempotentCreateAcrossBatches(t *testing.T) {
	e := testEngine(t)
	g := graph.New("main", graph.KindEventFlow)
	ctx := context.Background()

	first, err := e.Execute(ctx, nil, g, &Request{
		CreateNodes: []CreateSpec{
			{Kind: eventflow.KindEntrySignal, Params: map[string]any{"signal": "OnReady"}},
		},
	})
	require.NoError(t, err)
	require.True(t, first.Success)
	require.Len(t, g.Nodes, 1)

	// The same canonical signal under a different spelling reuses the node.
	second, err := e.Execute(ctx, nil, g, &Request{
		CreateNodes: []CreateSpec{
			{Alias: "e2", Kind: eventflow.KindEntrySignal, Params: map[string]any{"signal": "Ready"}},
		},
	})
	require.NoError(t, err)

	assert.True(t, second.Success)
	assert.Equal(t, 0, second.Counts.NodesCreated)
	assert.Equal(t, g.Nodes[0].ID, second.Aliases["e2"])
	assert.Len(t, g.Nodes, 1)
}

func vectorTestNode(id string) *graph.Node {
	return &graph.Node{
		ID:      id,
		Kind:    "vector-holder",
		Enabled: true,
		Pins: []*graph.Pin{
			{Name: "Location", Direction: graph.DirectionInput, Kind: graph.Vector()},
		},
	}
}

func TestExecute_SplitRecombineRoundTrip(t *testing.T) {
	e := testEngine(t)
	g := graph.New("main", graph.KindEventFlow)
	require.NoError(t, g.AddNode(vectorTestNode("vec")))
	before := g.Fingerprint()

	res, err := e.Execute(context.Background(), nil, g, &Request{
		SplitPins:     []PinSpec{{NodeID: "vec", Pin: "Location"}},
		RecombinePins: []PinSpec{{NodeID: "vec", Pin: "Location"}},
	})
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Equal(t, 1, res.Counts.PinsSplit)
	assert.Equal(t, 1, res.Counts.PinsRecombined)
	assert.Equal(t, before, g.Fingerprint())
}

func TestExecute_RollbackRestoresRecombinedChildDefaults(t *testing.T) {
	e := testEngine(t)
	g := graph.New("main", graph.KindEventFlow)
	require.NoError(t, g.AddNode(vectorTestNode("vec")))
	ctx := context.Background()

	first, err := e.Execute(ctx, nil, g, &Request{
		SplitPins: []PinSpec{{NodeID: "vec", Pin: "Location"}},
		PinValues: []PinValueSpec{
			{Node: NodeRef{ID: "vec"}, Pin: "Location.X", Value: 5.0},
		},
	})
	require.NoError(t, err)
	require.True(t, first.Success)
	before := g.Fingerprint()

	// A later failure rolls the recombination back; the child pins must come
	// back carrying their defaults, not freshly rebuilt blanks.
	second, err := e.Execute(ctx, nil, g, &Request{
		RecombinePins: []PinSpec{{NodeID: "vec", Pin: "Location"}},
		Connections: []ConnectionSpec{{
			From: Endpoint{Node: NodeRef{Alias: "ghost"}, Pin: "Then"},
			To:   Endpoint{Node: NodeRef{ID: "vec"}, Pin: "Location"},
		}},
	})
	require.NoError(t, err)

	assert.False(t, second.Success)
	assert.True(t, second.RolledBack)
	assert.Equal(t, before, g.Fingerprint())
	child := g.Node("vec").FindPin("Location.X")
	require.NotNil(t, child)
	assert.Equal(t, 5.0, child.Default)
}

func TestExecute_BreakAllLinks(t *testing.T) {
	e := testEngine(t)
	g, entry, _ := wiredEventGraph(t)

	res, err := e.Execute(context.Background(), nil, g, &Request{
		BreakAllLinkIDs: []string{entry.ID},
	})
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Equal(t, 1, res.Counts.LinksBroken)
	assert.Len(t, g.Nodes, 2)
	assert.Empty(t, g.Connections)
}

func TestExecute_SetPinValueByAlias(t *testing.T) {
	e := testEngine(t)
	g := graph.New("surface", graph.KindShaderExpression)

	res, err := e.Execute(context.Background(), nil, g, &Request{
		CreateNodes: []CreateSpec{{Alias: "c", Kind: shader.KindConstScalar}},
		PinValues: []PinValueSpec{
			{Node: NodeRef{Alias: "c"}, Pin: "Value", Value: 5.5},
		},
	})
	require.NoError(t, err)

	require.True(t, res.Success)
	assert.Equal(t, 1, res.Counts.PinValuesSet)
	pin := g.Nodes[0].FindPin("Value")
	require.NotNil(t, pin)
	assert.Equal(t, 5.5, pin.Default)
}

func TestExecute_ReconstructRebuildsPins(t *testing.T) {
	e := testEngine(t)
	g, _, logNode := wiredEventGraph(t)

	// Simulate kind drift by stripping the node's pins.
	logNode.Pins = nil
	require.Nil(t, logNode.FindPin("Exec"))

	res, err := e.Execute(context.Background(), nil, g, &Request{
		ReconstructIDs: []string{logNode.ID},
	})
	require.NoError(t, err)

	require.True(t, res.Success)
	assert.Equal(t, 1, res.Counts.NodesReconstructed)
	assert.NotNil(t, logNode.FindPin("Exec"))
	assert.NotNil(t, logNode.FindPin("Then"))
}

func TestExecute_CompileFailureClearsSuccessWithoutRollback(t *testing.T) {
	e := testEngine(t, WithCompiler(compile.NewStructuralValidator()))
	g := graph.New("surface", graph.KindShaderExpression)

	res, err := e.Execute(context.Background(), nil, g, &Request{
		CreateNodes: []CreateSpec{{Kind: shader.KindConstScalar}},
		Compile:     true,
	})
	require.NoError(t, err)

	assert.False(t, res.Success)
	assert.False(t, res.RolledBack)
	require.NotNil(t, res.Diagnostics)
	assert.True(t, res.Diagnostics.HasErrors())
	// The mutation stands; compilation reports, it does not undo.
	assert.Len(t, g.Nodes, 1)
	assert.Equal(t, 1, res.Counts.NodesCreated)
}

func TestExecute_CompileSuccess(t *testing.T) {
	e := testEngine(t, WithCompiler(compile.NewStructuralValidator()))
	g := graph.New("surface", graph.KindShaderExpression)

	res, err := e.Execute(context.Background(), nil, g, &Request{
		CreateNodes: []CreateSpec{
			{Kind: shader.KindConstScalar},
			{Kind: shader.KindSurfaceOutput},
		},
		Compile: true,
	})
	require.NoError(t, err)

	assert.True(t, res.Success)
	require.NotNil(t, res.Diagnostics)
	assert.False(t, res.Diagnostics.HasErrors())
}

func TestExecute_CompileRequestedWithoutCompiler(t *testing.T) {
	e := testEngine(t)
	g := graph.New("surface", graph.KindShaderExpression)

	res, err := e.Execute(context.Background(), nil, g, &Request{
		CreateNodes: []CreateSpec{{Kind: shader.KindConstScalar}},
		Compile:     true,
		OnError:     OnErrorContinue,
	})
	require.NoError(t, err)

	assert.False(t, res.Success)
	require.Len(t, res.Failed, 1)
	assert.Equal(t, PhaseCompile, res.Failed[0].Phase)
	assert.Len(t, g.Nodes, 1)
}

func TestExecute_SummaryVerbosityOmitsOutcomes(t *testing.T) {
	e := testEngine(t)
	g := graph.New("main", graph.KindEventFlow)

	res, err := e.Execute(context.Background(), nil, g, &Request{
		OnError:     OnErrorContinue,
		Verbosity:   VerbositySummary,
		RemoveIDs:   []string{"missing"},
		CreateNodes: []CreateSpec{{Alias: "a", Kind: eventflow.KindBranch}},
	})
	require.NoError(t, err)

	assert.False(t, res.Success)
	assert.Empty(t, res.Failed)
	assert.Empty(t, res.Outcomes)
	assert.Equal(t, 1, res.Counts.NodesCreated)
	assert.Len(t, res.Aliases, 1)
}

func TestExecute_OperationLimit(t *testing.T) {
	e := testEngine(t, WithMaxOperations(1))
	g := graph.New("main", graph.KindEventFlow)

	_, err := e.Execute(context.Background(), nil, g, &Request{
		CreateNodes: []CreateSpec{
			{Kind: eventflow.KindBranch},
			{Kind: eventflow.KindBranch},
		},
	})
	assert.True(t, errors.IsValidation(err))
}

func TestExecute_AliasLengthLimit(t *testing.T) {
	e := testEngine(t, WithMaxAliasLength(4))
	g := graph.New("main", graph.KindEventFlow)

	_, err := e.Execute(context.Background(), nil, g, &Request{
		CreateNodes: []CreateSpec{{Alias: "too-long", Kind: eventflow.KindBranch}},
	})
	assert.True(t, errors.IsValidation(err))
	assert.Empty(t, g.Nodes)

	res, err := e.Execute(context.Background(), nil, g, &Request{
		CreateNodes: []CreateSpec{{Alias: "ok", Kind: eventflow.KindBranch}},
	})
	require.NoError(t, err)
	assert.True(t, res.Success)
}

func TestExecute_ArgumentValidation(t *testing.T) {
	e := testEngine(t)

	_, err := e.Execute(context.Background(), nil, nil, &Request{})
	assert.True(t, errors.IsValidation(err))

	g := graph.New("main", graph.KindEventFlow)
	_, err = e.Execute(context.Background(), nil, g, nil)
	assert.True(t, errors.IsValidation(err))

	_, err = e.Execute(context.Background(), nil, g, &Request{OnError: "explode"})
	assert.True(t, errors.IsValidation(err))
}

func TestExecute_DuplicateAliasFailsSecondCreate(t *testing.T) {
	e := testEngine(t)
	g := graph.New("main", graph.KindEventFlow)
	before := g.Fingerprint()

	res, err := e.Execute(context.Background(), nil, g, &Request{
		CreateNodes: []CreateSpec{
			{Alias: "n", Kind: eventflow.KindBranch},
			{Alias: "n", Kind: eventflow.KindBranch, Position: graph.Position{X: 100}},
		},
	})
	require.NoError(t, err)

	assert.False(t, res.Success)
	assert.True(t, res.RolledBack)
	require.Len(t, res.Failed, 1)
	assert.Equal(t, PhaseCreate, res.Failed[0].Phase)
	assert.Equal(t, before, g.Fingerprint())
}

func TestExecute_FailedAliasReportsCause(t *testing.T) {
	e := testEngine(t)
	g := graph.New("main", graph.KindEventFlow)

	res, err := e.Execute(context.Background(), nil, g, &Request{
		OnError: OnErrorContinue,
		CreateNodes: []CreateSpec{
			{Alias: "bad", Kind: eventflow.KindEntrySignal, Params: map[string]any{"signal": "Vanished"}},
		},
		Connections: []ConnectionSpec{{
			From: Endpoint{Node: NodeRef{Alias: "bad"}, Pin: "Then"},
			To:   Endpoint{Node: NodeRef{Alias: "bad"}, Pin: "Exec"},
		}},
	})
	require.NoError(t, err)

	assert.False(t, res.Success)
	require.Len(t, res.Failed, 2)
	assert.Equal(t, PhaseConnect, res.Failed[1].Phase)
	assert.Contains(t, res.Failed[1].Error, "failed to create")
}

func TestExecute_RecordsMetrics(t *testing.T) {
	reg := metric.NewRegistry("test")
	e := testEngine(t, WithMetrics(reg.CoreMetrics()))
	g := graph.New("main", graph.KindEventFlow)

	_, err := e.Execute(context.Background(), nil, g, &Request{
		CreateNodes: []CreateSpec{{Kind: eventflow.KindBranch}},
	})
	require.NoError(t, err)

	families, err := reg.PrometheusRegistry().Gather()
	require.NoError(t, err)

	names := make(map[string]bool, len(families))
	for _, family := range families {
		names[family.GetName()] = true
	}
	assert.True(t, names["test_batch_batches_total"])
	assert.True(t, names["test_batch_operations_total"])
	assert.True(t, names["test_graph_nodes_created_total"])
}

func TestExecute_DryRunSkipsMutationMetrics(t *testing.T) {
	reg := metric.NewRegistry("test")
	e := testEngine(t, WithMetrics(reg.CoreMetrics()))
	g := graph.New("main", graph.KindEventFlow)

	res, err := e.Execute(context.Background(), nil, g, &Request{
		DryRun:      true,
		CreateNodes: []CreateSpec{{Kind: eventflow.KindBranch}},
		Connections: []ConnectionSpec{{
			From: Endpoint{Node: NodeRef{Alias: "ghost"}, Pin: "Then"},
			To:   Endpoint{Node: NodeRef{Alias: "ghost"}, Pin: "Exec"},
		}},
	})
	require.NoError(t, err)
	require.True(t, res.RolledBack)

	// The run exercised create, connect, and rollback, yet none of the
	// counters may move for suppressed mutations.
	families, err := reg.PrometheusRegistry().Gather()
	require.NoError(t, err)
	for _, family := range families {
		switch name := family.GetName(); name {
		case "test_batch_rollbacks_total":
			assert.Zero(t, family.GetMetric()[0].GetCounter().GetValue())
		default:
			t.Errorf("dry-run incremented metric family %s", name)
		}
	}
}

func TestExecute_IncompatibleConnection(t *testing.T) {
	build := func(t *testing.T) *graph.Graph {
		g := graph.New("surface", graph.KindShaderExpression)
		f := shader.New(testIndex(t))
		_, err := f.Create(g, shader.KindConstScalar, nil, graph.Position{})
		require.NoError(t, err)
		_, err = f.Create(g, shader.KindSurfaceOutput, nil, graph.Position{X: 300})
		require.NoError(t, err)
		return g
	}
	// A float output cannot feed a color input.
	badConnect := func(g *graph.Graph) ConnectionSpec {
		return ConnectionSpec{
			From: Endpoint{Node: NodeRef{ID: g.Nodes[0].ID}, Pin: "Value"},
			To:   Endpoint{Node: NodeRef{ID: g.Nodes[1].ID}, Pin: "BaseColor"},
		}
	}
	goodConnect := func(g *graph.Graph) ConnectionSpec {
		return ConnectionSpec{
			From: Endpoint{Node: NodeRef{ID: g.Nodes[0].ID}, Pin: "Value"},
			To:   Endpoint{Node: NodeRef{ID: g.Nodes[1].ID}, Pin: "Metallic"},
		}
	}

	t.Run("rollback leaves the graph unchanged", func(t *testing.T) {
		e := testEngine(t)
		g := build(t)
		before := g.Fingerprint()

		res, err := e.Execute(context.Background(), nil, g, &Request{
			Connections: []ConnectionSpec{badConnect(g), goodConnect(g)},
		})
		require.NoError(t, err)

		assert.False(t, res.Success)
		assert.True(t, res.RolledBack)
		require.Len(t, res.Failed, 1)
		assert.Equal(t, "incompatible", res.Failed[0].ErrorClass)
		assert.Equal(t, before, g.Fingerprint())
	})

	t.Run("continue applies the unrelated connection", func(t *testing.T) {
		e := testEngine(t)
		g := build(t)

		res, err := e.Execute(context.Background(), nil, g, &Request{
			OnError:     OnErrorContinue,
			Connections: []ConnectionSpec{badConnect(g), goodConnect(g)},
		})
		require.NoError(t, err)

		assert.False(t, res.Success)
		assert.Equal(t, 1, res.Counts.ConnectionsMade)
		require.Len(t, res.Failed, 1)
		assert.Equal(t, "incompatible", res.Failed[0].ErrorClass)
		require.Len(t, g.Connections, 1)
		assert.Equal(t, "Metallic", g.Connections[0].To.Pin)
	})
}
