// Package eventflow provides the node factory for event-driven execution
// graphs: signal entry points, callable invocation, control flow, variables,
// and struct plumbing.
package eventflow

import (
	"fmt"

	"github.com/c360/nodeforge/asset"
	"github.com/c360/nodeforge/errors"
	"github.com/c360/nodeforge/factory"
	"github.com/c360/nodeforge/graph"
)

// Node kinds supported by the event-flow factory. The set is closed; Create
// dispatches over it exhaustively.
const (
	KindEntrySignal  = "entry-signal"
	KindEntryCustom  = "entry-custom"
	KindCallCallable = "call-callable"
	KindCallContract = "call-contract"
	KindLogMessage   = "log-message"
	KindBranch       = "branch"
	KindSequence     = "sequence"
	KindForEach      = "for-each"
	KindWhile        = "while"
	KindDelay        = "delay"
	KindGate         = "gate"
	KindVariableGet  = "variable-get"
	KindVariableSet  = "variable-set"
	KindMakeStruct   = "make-struct"
	KindBreakStruct  = "break-struct"
	KindSelect       = "select"
	KindCast         = "cast"
	KindComparison   = "comparison"
	KindMathOp       = "math-op"
	KindSpawnGraph   = "spawn-graph"
	KindTimeline     = "timeline"
)

// Factory constructs event-flow nodes.
type Factory struct {
	factory.Base
	resolver *factory.Resolver
}

// New creates the event-flow factory over the given name index.
func New(index *asset.Index) *Factory {
	return &Factory{
		Base:     factory.NewBase(graph.KindEventFlow, kindTable()),
		resolver: factory.NewResolver(index),
	}
}

func kindTable() []factory.KindInfo {
	return []factory.KindInfo{
		{
			Name:        KindEntrySignal,
			Description: "Entry point firing on an engine signal; one node per signal per graph.",
			Required:    []factory.ParamSpec{{Name: "signal", Kind: "string", Description: "Engine signal name"}},
		},
		{
			Name:        KindEntryCustom,
			Description: "Caller-defined entry point invokable by name.",
			Required:    []factory.ParamSpec{{Name: "name", Kind: "string", Description: "Entry point name"}},
			Optional: []factory.ParamSpec{
				{Name: "outputs", Kind: "string_list", Description: "Payload outputs as Name:kind pairs"},
			},
		},
		{
			Name:        KindCallCallable,
			Description: "Invokes a named callable; parameters become input pins, results output pins.",
			Required:    []factory.ParamSpec{{Name: "callable", Kind: "string", Description: "Callable name"}},
		},
		{
			Name:        KindCallContract,
			Description: "Invokes a graph contract on a target object.",
			Required:    []factory.ParamSpec{{Name: "contract", Kind: "string", Description: "Contract name"}},
		},
		{
			Name:        KindLogMessage,
			Description: "Writes a message to the engine log.",
			Required:    []factory.ParamSpec{{Name: "text", Kind: "string", Description: "Message text"}},
			Optional:    []factory.ParamSpec{{Name: "severity", Kind: "string", Description: "info, warning, or error"}},
		},
		{
			Name:        KindBranch,
			Description: "Routes execution on a boolean condition.",
		},
		{
			Name:        KindSequence,
			Description: "Fires its outputs in declaration order.",
			Optional:    []factory.ParamSpec{{Name: "count", Kind: "int", Description: "Number of outputs (2-8)"}},
		},
		{
			Name:        KindForEach,
			Description: "Iterates an array, firing the loop body per element.",
			Optional:    []factory.ParamSpec{{Name: "element", Kind: "string", Description: "Element data kind"}},
		},
		{
			Name:        KindWhile,
			Description: "Repeats the loop body while the condition holds.",
		},
		{
			Name:        KindDelay,
			Description: "Defers downstream execution by a duration.",
			Optional:    []factory.ParamSpec{{Name: "duration", Kind: "float", Description: "Delay in seconds"}},
		},
		{
			Name:        KindGate,
			Description: "Latches execution flow open or closed.",
			Optional:    []factory.ParamSpec{{Name: "start_open", Kind: "bool", Description: "Whether the gate starts open"}},
		},
		{
			Name:        KindVariableGet,
			Description: "Reads a named variable.",
			Required:    []factory.ParamSpec{{Name: "name", Kind: "string", Description: "Variable name"}},
			Optional:    []factory.ParamSpec{{Name: "type", Kind: "string", Description: "Variable data kind"}},
		},
		{
			Name:        KindVariableSet,
			Description: "Writes a named variable.",
			Required:    []factory.ParamSpec{{Name: "name", Kind: "string", Description: "Variable name"}},
			Optional:    []factory.ParamSpec{{Name: "type", Kind: "string", Description: "Variable data kind"}},
		},
		{
			Name:        KindMakeStruct,
			Description: "Assembles a structured value from per-field inputs.",
			Required:    []factory.ParamSpec{{Name: "schema", Kind: "string", Description: "Value schema name"}},
		},
		{
			Name:        KindBreakStruct,
			Description: "Splits a structured value into per-field outputs.",
			Required:    []factory.ParamSpec{{Name: "schema", Kind: "string", Description: "Value schema name"}},
		},
		{
			Name:        KindSelect,
			Description: "Selects one of several inputs by enumeration value.",
			Required:    []factory.ParamSpec{{Name: "enum", Kind: "string", Description: "Enumeration name"}},
		},
		{
			Name:        KindCast,
			Description: "Attempts a downcast to a named type, branching on failure.",
			Required:    []factory.ParamSpec{{Name: "type", Kind: "string", Description: "Target type name"}},
		},
		{
			Name:        KindComparison,
			Description: "Compares two operands, producing a boolean.",
			Required:    []factory.ParamSpec{{Name: "op", Kind: "string", Description: "One of ==, !=, <, <=, >, >="}},
			Optional:    []factory.ParamSpec{{Name: "operand", Kind: "string", Description: "Operand data kind"}},
		},
		{
			Name:        KindMathOp,
			Description: "Binary arithmetic over two operands.",
			Required:    []factory.ParamSpec{{Name: "op", Kind: "string", Description: "add, subtract, multiply, divide, min, or max"}},
			Optional:    []factory.ParamSpec{{Name: "operand", Kind: "string", Description: "Operand data kind"}},
		},
		{
			Name:        KindSpawnGraph,
			Description: "Spawns an instance of a graph contract.",
			Required:    []factory.ParamSpec{{Name: "contract", Kind: "string", Description: "Graph contract name"}},
		},
		{
			Name:        KindTimeline,
			Description: "Drives a scrubbing alpha over a fixed length.",
			Optional:    []factory.ParamSpec{{Name: "length", Kind: "float", Description: "Timeline length in seconds"}},
		},
	}
}

// Create validates params, then constructs the requested node kind into the
// graph. Entry-signal creation is idempotent per signal name.
func (f *Factory) Create(
	g *graph.Graph, kind string, params map[string]any, pos graph.Position,
) (*graph.Node, error) {
	if g.Kind != "" && g.Kind != graph.KindEventFlow {
		return nil, errors.WrapIncompatible(
			fmt.Errorf("graph %q has kind %s, not %s", g.Name, g.Kind, graph.KindEventFlow),
			"EventFlowFactory", "Create", "graph kind check")
	}
	if err := f.ValidateParams(kind, params); err != nil {
		return nil, err
	}

	var (
		node *graph.Node
		err  error
	)
	switch kind {
	case KindEntrySignal:
		return f.createEntrySignal(g, params, pos)
	case KindEntryCustom:
		node, err = f.buildEntryCustom(params, pos)
	case KindCallCallable:
		node, err = f.buildCallCallable(params, pos)
	case KindCallContract:
		node, err = f.buildCallContract(params, pos)
	case KindLogMessage:
		node, err = f.buildLogMessage(params, pos)
	case KindBranch:
		node = factory.NewNode(kind, params, pos,
			factory.ExecIn(),
			factory.DataIn("Condition", graph.Scalar("bool")),
			factory.DataOut("True", graph.Exec()),
			factory.DataOut("False", graph.Exec()),
		)
		node.Pins[1].Default = false
	case KindSequence:
		node, err = f.buildSequence(params, pos)
	case KindForEach:
		node = f.buildForEach(params, pos)
	case KindWhile:
		node = factory.NewNode(kind, params, pos,
			factory.ExecIn(),
			factory.DataIn("Condition", graph.Scalar("bool")),
			factory.DataOut("LoopBody", graph.Exec()),
			factory.DataOut("Completed", graph.Exec()),
		)
	case KindDelay:
		node = f.buildDelay(params, pos)
	case KindGate:
		node = f.buildGate(params, pos)
	case KindVariableGet:
		node, err = f.buildVariableGet(params, pos)
	case KindVariableSet:
		node, err = f.buildVariableSet(params, pos)
	case KindMakeStruct:
		node, err = f.buildMakeStruct(params, pos)
	case KindBreakStruct:
		node, err = f.buildBreakStruct(params, pos)
	case KindSelect:
		node, err = f.buildSelect(params, pos)
	case KindCast:
		node, err = f.buildCast(params, pos)
	case KindComparison:
		node, err = f.buildComparison(params, pos)
	case KindMathOp:
		node, err = f.buildMathOp(params, pos)
	case KindSpawnGraph:
		node, err = f.buildSpawnGraph(params, pos)
	case KindTimeline:
		node = f.buildTimeline(params, pos)
	default:
		return nil, errors.WrapNotFound(
			fmt.Errorf("node kind %q: %w", kind, errors.ErrUnsupportedKind),
			"EventFlowFactory", "Create", "kind dispatch")
	}
	if err != nil {
		return nil, err
	}

	if err := g.AddNode(node); err != nil {
		return nil, err
	}
	return node, nil
}

// createEntrySignal resolves the signal and returns the existing entry node
// when one already fires on it; a graph has at most one entry per signal.
func (f *Factory) createEntrySignal(
	g *graph.Graph, params map[string]any, pos graph.Position,
) (*graph.Node, error) {
	name, err := factory.RequireString(params, "signal")
	if err != nil {
		return nil, err
	}
	res, err := f.resolver.Resolve(asset.RefSignal, name)
	if err != nil {
		return nil, err
	}
	signal, _ := f.resolver.Index().Signal(res.Canonical)

	if existing := factory.FindExisting(g, KindEntrySignal, func(n *graph.Node) bool {
		return factory.GetString(n.Params, "signal", "") == res.Canonical
	}); existing != nil {
		return existing, nil
	}

	pins := []*graph.Pin{factory.ExecOut()}
	pins = append(pins, f.resolver.ParamPins(signal.Payload, graph.DirectionOutput)...)

	node := factory.NewNode(KindEntrySignal, map[string]any{"signal": res.Canonical}, pos, pins...)
	if err := g.AddNode(node); err != nil {
		return nil, err
	}
	return node, nil
}

func (f *Factory) buildEntryCustom(params map[string]any, pos graph.Position) (*graph.Node, error) {
	name, err := factory.RequireString(params, "name")
	if err != nil {
		return nil, err
	}

	pins := []*graph.Pin{factory.ExecOut()}
	for _, spec := range factory.GetStringSlice(params, "outputs") {
		pinName, kindName, err := splitNameKind(spec)
		if err != nil {
			return nil, err
		}
		pins = append(pins, factory.DataOut(pinName, f.resolver.DataKind(kindName)))
	}

	saved := map[string]any{"name": name}
	if outputs := factory.GetStringSlice(params, "outputs"); outputs != nil {
		saved["outputs"] = outputs
	}
	return factory.NewNode(KindEntryCustom, saved, pos, pins...), nil
}

func (f *Factory) buildCallCallable(params map[string]any, pos graph.Position) (*graph.Node, error) {
	name, err := factory.RequireString(params, "callable")
	if err != nil {
		return nil, err
	}
	res, err := f.resolver.Resolve(asset.RefCallable, name)
	if err != nil {
		return nil, err
	}
	callable, _ := f.resolver.Index().Callable(res.Canonical)

	var pins []*graph.Pin
	if !callable.Pure {
		pins = append(pins, factory.ExecIn(), factory.ExecOut())
	}
	pins = append(pins, f.resolver.ParamPins(callable.Params, graph.DirectionInput)...)
	pins = append(pins, f.resolver.ParamPins(callable.Results, graph.DirectionOutput)...)

	return factory.NewNode(KindCallCallable, map[string]any{"callable": res.Canonical}, pos, pins...), nil
}

func (f *Factory) buildCallContract(params map[string]any, pos graph.Position) (*graph.Node, error) {
	name, err := factory.RequireString(params, "contract")
	if err != nil {
		return nil, err
	}
	res, err := f.resolver.Resolve(asset.RefContract, name)
	if err != nil {
		return nil, err
	}
	contract, _ := f.resolver.Index().Contract(res.Canonical)

	pins := []*graph.Pin{
		factory.ExecIn(),
		factory.ExecOut(),
		factory.DataIn("Target", graph.Scalar("object")),
	}
	pins = append(pins, f.resolver.ParamPins(contract.Inputs, graph.DirectionInput)...)
	pins = append(pins, f.resolver.ParamPins(contract.Outputs, graph.DirectionOutput)...)

	return factory.NewNode(KindCallContract, map[string]any{"contract": res.Canonical}, pos, pins...), nil
}

func (f *Factory) buildLogMessage(params map[string]any, pos graph.Position) (*graph.Node, error) {
	text, err := factory.RequireString(params, "text")
	if err != nil {
		return nil, err
	}
	severity := factory.GetString(params, "severity", "info")
	switch severity {
	case "info", "warning", "error":
	default:
		return nil, errors.WrapValidation(
			fmt.Errorf("severity %q must be info, warning, or error: %w", severity, errors.ErrInvalidParam),
			"EventFlowFactory", "buildLogMessage", "severity check")
	}

	textPin := factory.DataIn("Text", graph.Scalar("string"))
	textPin.Default = text
	severityPin := factory.DataIn("Severity", graph.Scalar("enum"))
	severityPin.Default = severity
	severityPin.Hidden = true

	return factory.NewNode(KindLogMessage, params, pos,
		factory.ExecIn(), factory.ExecOut(), textPin, severityPin), nil
}

func (f *Factory) buildSequence(params map[string]any, pos graph.Position) (*graph.Node, error) {
	count := factory.GetInt(params, "count", 2)
	if count < 2 || count > 8 {
		return nil, errors.WrapValidation(
			fmt.Errorf("sequence count %d must be between 2 and 8: %w", count, errors.ErrInvalidParam),
			"EventFlowFactory", "buildSequence", "count check")
	}
	pins := []*graph.Pin{factory.ExecIn()}
	for i := 0; i < count; i++ {
		pins = append(pins, factory.DataOut(fmt.Sprintf("Then%d", i), graph.Exec()))
	}
	return factory.NewNode(KindSequence, params, pos, pins...), nil
}

func (f *Factory) buildForEach(params map[string]any, pos graph.Position) *graph.Node {
	element := f.resolver.DataKind(factory.GetString(params, "element", graph.KindNameAny))
	return factory.NewNode(KindForEach, params, pos,
		factory.ExecIn(),
		factory.DataIn("Array", graph.Scalar("array")),
		factory.DataOut("LoopBody", graph.Exec()),
		factory.DataOut("Element", element),
		factory.DataOut("Index", graph.Scalar("int")),
		factory.DataOut("Completed", graph.Exec()),
	)
}

func (f *Factory) buildDelay(params map[string]any, pos graph.Position) *graph.Node {
	duration := factory.DataIn("Duration", graph.Scalar("float"))
	duration.Default = factory.GetFloat(params, "duration", 0.2)
	return factory.NewNode(KindDelay, params, pos, factory.ExecIn(), factory.ExecOut(), duration)
}

func (f *Factory) buildGate(params map[string]any, pos graph.Position) *graph.Node {
	startOpen := factory.DataIn("StartOpen", graph.Scalar("bool"))
	startOpen.Default = factory.GetBool(params, "start_open", false)
	startOpen.Hidden = true
	return factory.NewNode(KindGate, params, pos,
		&graph.Pin{Name: "Enter", Direction: graph.DirectionInput, Kind: graph.Exec()},
		&graph.Pin{Name: "Open", Direction: graph.DirectionInput, Kind: graph.Exec()},
		&graph.Pin{Name: "Close", Direction: graph.DirectionInput, Kind: graph.Exec()},
		&graph.Pin{Name: "Toggle", Direction: graph.DirectionInput, Kind: graph.Exec()},
		factory.DataOut("Exit", graph.Exec()),
		startOpen,
	)
}

func (f *Factory) buildVariableGet(params map[string]any, pos graph.Position) (*graph.Node, error) {
	name, err := factory.RequireString(params, "name")
	if err != nil {
		return nil, err
	}
	kind := f.resolver.DataKind(factory.GetString(params, "type", graph.KindNameAny))
	value := factory.DataOut("Value", kind)
	value.Aliases = []string{name}
	return factory.NewNode(KindVariableGet, params, pos, value), nil
}

func (f *Factory) buildVariableSet(params map[string]any, pos graph.Position) (*graph.Node, error) {
	name, err := factory.RequireString(params, "name")
	if err != nil {
		return nil, err
	}
	kind := f.resolver.DataKind(factory.GetString(params, "type", graph.KindNameAny))
	value := factory.DataIn("Value", kind)
	value.Aliases = []string{name}
	return factory.NewNode(KindVariableSet, params, pos,
		factory.ExecIn(), factory.ExecOut(), value, factory.DataOut("Result", kind)), nil
}

func (f *Factory) buildMakeStruct(params map[string]any, pos graph.Position) (*graph.Node, error) {
	schema, err := f.resolveSchema(params)
	if err != nil {
		return nil, err
	}
	pins := make([]*graph.Pin, 0, len(schema.Fields)+1)
	for _, field := range schema.Fields {
		pins = append(pins, factory.DataIn(field.Name, f.resolver.DataKind(field.Kind)))
	}
	pins = append(pins, factory.DataOut(schema.Name, graph.Struct(schema.Name, schema.Fields...)))
	return factory.NewNode(KindMakeStruct, map[string]any{"schema": schema.Name}, pos, pins...), nil
}

func (f *Factory) buildBreakStruct(params map[string]any, pos graph.Position) (*graph.Node, error) {
	schema, err := f.resolveSchema(params)
	if err != nil {
		return nil, err
	}
	pins := []*graph.Pin{factory.DataIn(schema.Name, graph.Struct(schema.Name, schema.Fields...))}
	for _, field := range schema.Fields {
		pins = append(pins, factory.DataOut(field.Name, f.resolver.DataKind(field.Kind)))
	}
	return factory.NewNode(KindBreakStruct, map[string]any{"schema": schema.Name}, pos, pins...), nil
}

func (f *Factory) resolveSchema(params map[string]any) (asset.ValueSchema, error) {
	name, err := factory.RequireString(params, "schema")
	if err != nil {
		return asset.ValueSchema{}, err
	}
	res, err := f.resolver.Resolve(asset.RefSchema, name)
	if err != nil {
		return asset.ValueSchema{}, err
	}
	schema, _ := f.resolver.Index().Schema(res.Canonical)
	return schema, nil
}

func (f *Factory) buildSelect(params map[string]any, pos graph.Position) (*graph.Node, error) {
	name, err := factory.RequireString(params, "enum")
	if err != nil {
		return nil, err
	}
	res, err := f.resolver.Resolve(asset.RefEnum, name)
	if err != nil {
		return nil, err
	}
	enum, _ := f.resolver.Index().Enum(res.Canonical)

	pins := []*graph.Pin{factory.DataIn("Selection", graph.Scalar("enum"))}
	for _, value := range enum.Values {
		pins = append(pins, factory.DataIn(value, graph.Any()))
	}
	pins = append(pins, factory.DataOut("Result", graph.Any()))
	return factory.NewNode(KindSelect, map[string]any{"enum": enum.Name}, pos, pins...), nil
}

func (f *Factory) buildCast(params map[string]any, pos graph.Position) (*graph.Node, error) {
	name, err := factory.RequireString(params, "type")
	if err != nil {
		return nil, err
	}
	res, err := f.resolver.Resolve(asset.RefType, name)
	if err != nil {
		return nil, err
	}
	info, _ := f.resolver.Index().Type(res.Canonical)

	return factory.NewNode(KindCast, map[string]any{"type": info.Name}, pos,
		factory.ExecIn(),
		factory.DataIn("Object", graph.Scalar("object")),
		factory.ExecOut(),
		factory.DataOut("CastFailed", graph.Exec()),
		factory.DataOut("As"+info.Name, graph.Scalar("object")),
	), nil
}

func (f *Factory) buildComparison(params map[string]any, pos graph.Position) (*graph.Node, error) {
	op, err := factory.RequireString(params, "op")
	if err != nil {
		return nil, err
	}
	switch op {
	case "==", "!=", "<", "<=", ">", ">=":
	default:
		return nil, errors.WrapValidation(
			fmt.Errorf("comparison op %q: %w", op, errors.ErrInvalidParam),
			"EventFlowFactory", "buildComparison", "operator check")
	}
	operand := f.resolver.DataKind(factory.GetString(params, "operand", "float"))
	return factory.NewNode(KindComparison, params, pos,
		factory.DataIn("A", operand),
		factory.DataIn("B", operand),
		factory.DataOut("Result", graph.Scalar("bool")),
	), nil
}

func (f *Factory) buildMathOp(params map[string]any, pos graph.Position) (*graph.Node, error) {
	op, err := factory.RequireString(params, "op")
	if err != nil {
		return nil, err
	}
	switch op {
	case "add", "subtract", "multiply", "divide", "min", "max":
	default:
		return nil, errors.WrapValidation(
			fmt.Errorf("math op %q: %w", op, errors.ErrInvalidParam),
			"EventFlowFactory", "buildMathOp", "operator check")
	}
	operand := f.resolver.DataKind(factory.GetString(params, "operand", "float"))
	return factory.NewNode(KindMathOp, params, pos,
		factory.DataIn("A", operand),
		factory.DataIn("B", operand),
		factory.DataOut("Result", operand),
	), nil
}

func (f *Factory) buildSpawnGraph(params map[string]any, pos graph.Position) (*graph.Node, error) {
	name, err := factory.RequireString(params, "contract")
	if err != nil {
		return nil, err
	}
	res, err := f.resolver.Resolve(asset.RefContract, name)
	if err != nil {
		return nil, err
	}
	return factory.NewNode(KindSpawnGraph, map[string]any{"contract": res.Canonical}, pos,
		factory.ExecIn(),
		factory.ExecOut(),
		factory.DataIn("Transform", graph.Vector()),
		factory.DataOut("Spawned", graph.Scalar("object")),
	), nil
}

func (f *Factory) buildTimeline(params map[string]any, pos graph.Position) *graph.Node {
	length := factory.DataIn("Length", graph.Scalar("float"))
	length.Default = factory.GetFloat(params, "length", 1.0)
	length.Hidden = true
	return factory.NewNode(KindTimeline, params, pos,
		&graph.Pin{Name: "Play", Direction: graph.DirectionInput, Kind: graph.Exec()},
		&graph.Pin{Name: "Stop", Direction: graph.DirectionInput, Kind: graph.Exec()},
		&graph.Pin{Name: "Reverse", Direction: graph.DirectionInput, Kind: graph.Exec()},
		factory.DataOut("Update", graph.Exec()),
		factory.DataOut("Finished", graph.Exec()),
		factory.DataOut("Alpha", graph.Scalar("float")),
		length,
	)
}

// splitNameKind parses a "Name:kind" pin specification.
func splitNameKind(spec string) (string, string, error) {
	for i := 0; i < len(spec); i++ {
		if spec[i] == ':' {
			if i == 0 || i == len(spec)-1 {
				break
			}
			return spec[:i], spec[i+1:], nil
		}
	}
	return "", "", errors.WrapValidation(
		fmt.Errorf("pin spec %q must take the form Name:kind: %w", spec, errors.ErrInvalidParam),
		"EventFlowFactory", "splitNameKind", "pin spec parsing")
}
