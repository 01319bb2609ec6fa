package batch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/c360/nodeforge/asset"
	"github.com/c360/nodeforge/compile"
	"github.com/c360/nodeforge/errors"
	"github.com/c360/nodeforge/factory"
	"github.com/c360/nodeforge/graph"
	"github.com/c360/nodeforge/metric"
)

// Engine executes batch requests against graphs. It is stateless across
// invocations; every Execute call builds its own alias resolver and rollback
// journal. The caller must hold exclusive access to the target graph for the
// duration of the call.
type Engine struct {
	registry *factory.Registry
	compiler compile.Compiler
	logger   *slog.Logger
	metrics  *metric.Metrics
	maxOps   int
	maxAlias int
}

// Option configures an Engine.
type Option func(*Engine)

// WithCompiler installs the validation/compilation hook invoked by the final
// phase when a request asks for it.
func WithCompiler(c compile.Compiler) Option {
	return func(e *Engine) { e.compiler = c }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithMetrics installs prometheus instrumentation.
func WithMetrics(m *metric.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithMaxOperations caps the total operation count per request; zero means
// unlimited.
func WithMaxOperations(n int) Option {
	return func(e *Engine) { e.maxOps = n }
}

// WithMaxAliasLength caps the length of batch-local aliases; zero means
// unlimited.
func WithMaxAliasLength(n int) Option {
	return func(e *Engine) { e.maxAlias = n }
}

// NewEngine creates a batch engine over the given factory registry.
func NewEngine(registry *factory.Registry, opts ...Option) *Engine {
	e := &Engine{
		registry: registry,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With("component", "BatchEngine")
	return e
}

// Execute runs one batch request against a graph owned by the given asset.
// The returned error covers request-level misuse only; per-operation failures
// are reported inside the result according to the request's error policy.
func (e *Engine) Execute(
	ctx context.Context, owner *asset.Asset, g *graph.Graph, req *Request,
) (*Result, error) {
	if g == nil || req == nil {
		return nil, errors.WrapValidation(errors.ErrInvalidParam,
			"BatchEngine", "Execute", "argument validation")
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if e.maxOps > 0 && req.OperationCount() > e.maxOps {
		return nil, errors.WrapValidation(
			fmt.Errorf("request carries %d operations, limit is %d: %w",
				req.OperationCount(), e.maxOps, errors.ErrInvalidParam),
			"BatchEngine", "Execute", "operation count check")
	}
	if e.maxAlias > 0 {
		for _, spec := range req.CreateNodes {
			if len(spec.Alias) > e.maxAlias {
				return nil, errors.WrapValidation(
					fmt.Errorf("alias %q exceeds the %d-character limit: %w",
						spec.Alias, e.maxAlias, errors.ErrInvalidParam),
					"BatchEngine", "Execute", "alias length check")
			}
		}
	}

	target := g
	if req.DryRun {
		// Dry-run executes every phase against a private clone so validation
		// and alias resolution behave exactly like a live run while the
		// caller's graph stays untouched.
		target = g.Clone()
	}

	run := &execution{
		engine:  e,
		ctx:     ctx,
		owner:   owner,
		graph:   target,
		req:     req,
		res:     &Result{DryRun: req.DryRun},
		journal: newJournal(),
		aliases: newAliasResolver(),
	}
	run.factory, run.factoryErr = e.registry.FactoryFor(owner, target)

	e.logger.Debug("batch started",
		"graph", target.Name,
		"operations", req.OperationCount(),
		"on_error", string(req.OnError),
		"dry_run", req.DryRun)

	run.execute()

	result := run.res
	result.Aliases = run.aliases.aliasMap()
	result.Success = len(result.Failed) == 0 &&
		(result.Diagnostics == nil || !result.Diagnostics.HasErrors())
	if req.Verbosity == VerbositySummary {
		result.Failed = nil
	}

	if e.metrics != nil && !req.DryRun {
		status := "success"
		if !result.Success {
			status = "failure"
		}
		e.metrics.BatchesTotal.WithLabelValues(status).Inc()
	}
	e.logger.Info("batch finished",
		"graph", target.Name,
		"success", result.Success,
		"rolled_back", result.RolledBack,
		"stopped", result.Stopped)
	return result, nil
}

// execution is the per-invocation state: one journal, one alias resolver, one
// result under construction.
type execution struct {
	engine  *Engine
	ctx     context.Context
	owner   *asset.Asset
	graph   *graph.Graph
	req     *Request
	res     *Result
	journal *journal
	aliases *aliasResolver

	factory    factory.NodeFactory
	factoryErr error

	halted bool
}

// metrics returns the engine's collectors, or nil under dry-run so suppressed
// mutations never move the counters.
func (x *execution) metrics() *metric.Metrics {
	if x.req.DryRun {
		return nil
	}
	return x.engine.metrics
}

// execute walks the eleven phases in their contractual order, then the
// compile hook. Later phases assume earlier phases already ran; the order is
// a hard contract.
func (x *execution) execute() {
	x.runPhase(PhaseRemove, len(x.req.RemoveIDs), x.removeOne)
	x.runPhase(PhaseBreakAllLinks, len(x.req.BreakAllLinkIDs), x.breakAllLinksOne)
	x.runPhase(PhaseEnable, len(x.req.EnableIDs), x.enableOne)
	x.runPhase(PhaseDisable, len(x.req.DisableIDs), x.disableOne)
	x.runPhase(PhaseReconstruct, len(x.req.ReconstructIDs), x.reconstructOne)
	x.runPhase(PhaseSplitPin, len(x.req.SplitPins), x.splitOne)
	x.runPhase(PhaseRecombinePin, len(x.req.RecombinePins), x.recombineOne)
	x.runPhase(PhaseBreakPinLink, len(x.req.BreakPinLinks), x.breakPinLinkOne)
	x.runPhase(PhaseCreate, len(x.req.CreateNodes), x.createOne)
	x.runPhase(PhaseConnect, len(x.req.Connections), x.connectOne)
	x.runPhase(PhaseSetValue, len(x.req.PinValues), x.setValueOne)
	x.runCompile()
}

// runPhase executes one phase's operation list, recording per-operation
// outcomes and applying the error policy after each failure.
func (x *execution) runPhase(phase Phase, count int, op func(i int) (string, error)) {
	if x.halted || count == 0 {
		return
	}
	start := time.Now()
	defer func() {
		if m := x.metrics(); m != nil {
			m.PhaseDuration.WithLabelValues(string(phase)).
				Observe(time.Since(start).Seconds())
		}
	}()

	for i := 0; i < count; i++ {
		target, err := op(i)
		x.res.record(outcomeFor(phase, i, target, err), x.req.Verbosity)
		if m := x.metrics(); m != nil {
			status := "ok"
			if err != nil {
				status = "error"
			}
			m.OperationsTotal.WithLabelValues(string(phase), status).Inc()
		}
		if err == nil {
			continue
		}
		x.engine.logger.Debug("operation failed",
			"phase", string(phase), "index", i, "target", target, "error", err)
		switch x.req.OnError {
		case OnErrorRollback:
			x.rollback()
			return
		case OnErrorStop:
			x.res.Stopped = true
			x.halted = true
			return
		case OnErrorContinue:
			// Keep going; the outcome carries the failure.
		}
	}
}

// rollback replays the journal and discards applied counts; the result keeps
// its per-operation outcomes for attribution.
func (x *execution) rollback() {
	x.engine.logger.Debug("rolling back", "mutations", x.journal.size())
	x.journal.rollback()
	x.res.Counts = Counts{}
	x.res.RolledBack = true
	x.halted = true
	if m := x.metrics(); m != nil {
		m.RollbacksTotal.Inc()
	}
}

func (x *execution) removeOne(i int) (string, error) {
	id := x.req.RemoveIDs[i]
	node, dropped, err := x.graph.RemoveNode(id)
	if err != nil {
		return id, err
	}
	g := x.graph
	x.journal.record(func() {
		g.Nodes = append(g.Nodes, node)
		g.Connections = append(g.Connections, dropped...)
	})
	x.res.Counts.NodesRemoved++
	return id, nil
}

func (x *execution) breakAllLinksOne(i int) (string, error) {
	id := x.req.BreakAllLinkIDs[i]
	dropped, err := x.graph.BreakAllLinks(id)
	if err != nil {
		return id, err
	}
	g := x.graph
	x.journal.record(func() {
		g.Connections = append(g.Connections, dropped...)
	})
	x.res.Counts.LinksBroken += len(dropped)
	return id, nil
}

func (x *execution) enableOne(i int) (string, error) {
	return x.toggleOne(x.req.EnableIDs[i], true)
}

func (x *execution) disableOne(i int) (string, error) {
	return x.toggleOne(x.req.DisableIDs[i], false)
}

func (x *execution) toggleOne(id string, enabled bool) (string, error) {
	prev, err := x.graph.SetNodeEnabled(id, enabled)
	if err != nil {
		return id, err
	}
	g := x.graph
	x.journal.record(func() {
		g.SetNodeEnabled(id, prev) //nolint:errcheck // node existence was just proven
	})
	if enabled {
		x.res.Counts.NodesEnabled++
	} else {
		x.res.Counts.NodesDisabled++
	}
	return id, nil
}

// reconstructOne rebuilds a node's pin set from its kind and preserved
// parameter bag, pruning connections the fresh pins can no longer carry.
func (x *execution) reconstructOne(i int) (string, error) {
	id := x.req.ReconstructIDs[i]
	node := x.graph.Node(id)
	if node == nil {
		return id, errors.WrapNotFound(
			fmt.Errorf("node %s: %w", id, errors.ErrNodeNotFound),
			"BatchEngine", "reconstruct", "node lookup")
	}
	if x.factoryErr != nil {
		return id, x.factoryErr
	}

	scratch := graph.New(x.graph.Name, x.graph.Kind)
	fresh, err := x.factory.Create(scratch, node.Kind, node.Params, node.Position)
	if err != nil {
		return id, errors.WrapState(
			fmt.Errorf("node %s (%s) cannot be reconstructed: %w", id, node.Kind, err),
			"BatchEngine", "reconstruct", "pin set rebuild")
	}

	prevPins, pruned, err := x.graph.ReplaceNodePins(id, fresh.Pins)
	if err != nil {
		return id, err
	}
	g := x.graph
	x.journal.record(func() {
		node.Pins = prevPins
		g.Connections = append(g.Connections, pruned...)
	})
	x.res.Counts.NodesReconstructed++
	return id, nil
}

func (x *execution) splitOne(i int) (string, error) {
	spec := x.req.SplitPins[i]
	ref := graph.PinRef{NodeID: spec.NodeID, Pin: spec.Pin}
	if _, err := x.graph.SplitPin(ref); err != nil {
		return ref.String(), err
	}
	g := x.graph
	x.journal.record(func() {
		g.RecombinePin(ref) //nolint:errcheck // split succeeded and children start connection-free
	})
	x.res.Counts.PinsSplit++
	return ref.String(), nil
}

func (x *execution) recombineOne(i int) (string, error) {
	spec := x.req.RecombinePins[i]
	ref := graph.PinRef{NodeID: spec.NodeID, Pin: spec.Pin}
	children, err := x.graph.RecombinePin(ref)
	if err != nil {
		return ref.String(), err
	}
	// Rollback reattaches the removed children rather than re-splitting, which
	// would rebuild them with zero-value defaults.
	pin := x.graph.Node(spec.NodeID).FindPin(spec.Pin)
	x.journal.record(func() {
		pin.Split = true
		pin.Children = children
	})
	x.res.Counts.PinsRecombined++
	return ref.String(), nil
}

func (x *execution) breakPinLinkOne(i int) (string, error) {
	spec := x.req.BreakPinLinks[i]
	ref := graph.PinRef{NodeID: spec.NodeID, Pin: spec.Pin}
	dropped, err := x.graph.BreakPinLinks(ref)
	if err != nil {
		return ref.String(), err
	}
	g := x.graph
	x.journal.record(func() {
		g.Connections = append(g.Connections, dropped...)
	})
	x.res.Counts.PinLinksBroken += len(dropped)
	return ref.String(), nil
}

// createOne dispatches a create spec through the factory, declares its alias,
// and journals removal of any node actually added. Idempotent kinds may
// return an existing node, in which case nothing is journaled but the alias
// still binds.
func (x *execution) createOne(i int) (string, error) {
	spec := x.req.CreateNodes[i]
	target := spec.Kind
	if spec.Alias != "" {
		target = fmt.Sprintf("%s @%s", spec.Kind, spec.Alias)
	}
	if x.factoryErr != nil {
		x.aliases.markFailed(spec.Alias, x.factoryErr)
		return target, x.factoryErr
	}

	before := len(x.graph.Nodes)
	node, err := x.factory.Create(x.graph, spec.Kind, spec.Params, spec.Position)
	if err != nil {
		x.aliases.markFailed(spec.Alias, err)
		return target, err
	}

	if len(x.graph.Nodes) > before {
		g, id := x.graph, node.ID
		x.journal.record(func() {
			g.RemoveNode(id) //nolint:errcheck // the node was just added
		})
		x.res.Counts.NodesCreated++
		if m := x.metrics(); m != nil {
			m.NodesCreated.WithLabelValues(string(g.Kind), node.Kind).Inc()
		}
	}

	if spec.Alias != "" {
		if err := x.aliases.declare(spec.Alias, node.ID); err != nil {
			return target, err
		}
	}
	return target, nil
}

func (x *execution) connectOne(i int) (string, error) {
	spec := x.req.Connections[i]
	target := fmt.Sprintf("%s.%s -> %s.%s", spec.From.Node, spec.From.Pin, spec.To.Node, spec.To.Pin)

	from, err := x.resolveEndpoint(spec.From)
	if err != nil {
		return target, err
	}
	to, err := x.resolveEndpoint(spec.To)
	if err != nil {
		return target, err
	}

	conn, err := x.graph.Connect(from, to)
	if err != nil {
		return target, err
	}
	g := x.graph
	x.journal.record(func() {
		g.Disconnect(conn.From, conn.To) //nolint:errcheck // the connection was just made
	})
	x.res.Counts.ConnectionsMade++
	return target, nil
}

func (x *execution) setValueOne(i int) (string, error) {
	spec := x.req.PinValues[i]
	target := fmt.Sprintf("%s.%s", spec.Node, spec.Pin)

	id, err := x.resolveNodeRef(spec.Node)
	if err != nil {
		return target, err
	}
	ref := graph.PinRef{NodeID: id, Pin: spec.Pin}

	prev, err := x.graph.SetPinDefault(ref, spec.Value)
	if err != nil {
		return target, err
	}
	// Restore bypasses value validation; the prior value was already on the
	// pin and may legitimately be nil.
	pin := x.graph.Node(id).FindPin(spec.Pin)
	x.journal.record(func() {
		pin.Default = prev
	})
	x.res.Counts.PinValuesSet++
	return target, nil
}

// runCompile executes the optional validation/compilation hook. Compile
// failure clears the success flag but never rolls back or halts reporting;
// applied mutations stand.
func (x *execution) runCompile() {
	if !x.req.Compile || x.halted {
		return
	}
	start := time.Now()
	defer func() {
		if m := x.metrics(); m != nil {
			m.PhaseDuration.WithLabelValues(string(PhaseCompile)).
				Observe(time.Since(start).Seconds())
		}
	}()

	if x.engine.compiler == nil {
		x.res.record(outcomeFor(PhaseCompile, 0, x.graph.Name, errors.WrapValidation(
			fmt.Errorf("compilation requested but no compiler is configured: %w", errors.ErrInvalidParam),
			"BatchEngine", "compile", "compiler lookup")), x.req.Verbosity)
		return
	}

	diags, err := x.engine.compiler.Compile(x.ctx, x.owner, x.graph)
	if err != nil {
		x.res.record(outcomeFor(PhaseCompile, 0, x.graph.Name, err), x.req.Verbosity)
		return
	}
	x.res.Diagnostics = diags
	x.res.record(outcomeFor(PhaseCompile, 0, x.graph.Name, nil), x.req.Verbosity)
}

func (x *execution) resolveEndpoint(e Endpoint) (graph.PinRef, error) {
	id, err := x.resolveNodeRef(e.Node)
	if err != nil {
		return graph.PinRef{}, err
	}
	return graph.PinRef{NodeID: id, Pin: e.Pin}, nil
}

func (x *execution) resolveNodeRef(ref NodeRef) (string, error) {
	if ref.Alias != "" {
		return x.aliases.resolve(ref.Alias)
	}
	return ref.ID, nil
}
