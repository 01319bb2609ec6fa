// Package factory defines the node-factory contract, the per-graph-kind
// factory registry, parameter-bag helpers, and the layered name resolution
// pipeline shared by every concrete factory.
package factory

import (
	"fmt"
	"sort"

	"github.com/c360/nodeforge/errors"
	"github.com/c360/nodeforge/graph"
)

// ParamSpec describes one parameter a node kind accepts.
type ParamSpec struct {
	Name        string `json:"name"`
	Kind        string `json:"kind"` // string, int, float, bool, string_list
	Description string `json:"description"`
}

// NodeFactory constructs nodes for one graph kind. Implementations are
// stateless per-process services: every method may be called concurrently
// as long as the target graphs are not shared.
type NodeFactory interface {
	// GraphKind returns the single graph kind this factory serves.
	GraphKind() graph.Kind

	// Supports reports whether the factory can construct the node kind.
	Supports(kind string) bool

	// Kinds lists every supported node kind, sorted.
	Kinds() []string

	// RequiredParams lists the parameters a node kind demands.
	RequiredParams(kind string) ([]ParamSpec, error)

	// OptionalParams lists the parameters a node kind accepts beyond the
	// required set.
	OptionalParams(kind string) ([]ParamSpec, error)

	// Describe returns human-readable documentation for a node kind.
	Describe(kind string) (string, error)

	// Create validates params and constructs a node of the given kind into
	// the graph at the given position. Kinds modeling a singular occurrence
	// return the existing matching node instead of creating a duplicate.
	Create(g *graph.Graph, kind string, params map[string]any, pos graph.Position) (*graph.Node, error)
}

// KindInfo is the static metadata one factory holds per supported node kind.
type KindInfo struct {
	Name        string
	Description string
	Required    []ParamSpec
	Optional    []ParamSpec
}

// Base carries the kind-metadata table shared by every concrete factory and
// implements the metadata half of the NodeFactory interface. Create stays
// with the concrete factory, which drives construction off an exhaustive
// switch over its closed kind set.
type Base struct {
	kind  graph.Kind
	infos map[string]KindInfo
}

// NewBase builds the metadata half of a factory from its kind table.
func NewBase(kind graph.Kind, infos []KindInfo) Base {
	table := make(map[string]KindInfo, len(infos))
	for _, info := range infos {
		table[info.Name] = info
	}
	return Base{kind: kind, infos: table}
}

// GraphKind returns the graph kind this factory serves.
func (b *Base) GraphKind() graph.Kind {
	return b.kind
}

// Supports reports whether the node kind is in the factory's closed set.
func (b *Base) Supports(kind string) bool {
	_, ok := b.infos[kind]
	return ok
}

// Kinds lists every supported node kind, sorted.
func (b *Base) Kinds() []string {
	kinds := make([]string, 0, len(b.infos))
	for kind := range b.infos {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	return kinds
}

// RequiredParams lists the parameters a node kind demands.
func (b *Base) RequiredParams(kind string) ([]ParamSpec, error) {
	info, err := b.info(kind, "RequiredParams")
	if err != nil {
		return nil, err
	}
	return append([]ParamSpec(nil), info.Required...), nil
}

// OptionalParams lists the optional parameters of a node kind.
func (b *Base) OptionalParams(kind string) ([]ParamSpec, error) {
	info, err := b.info(kind, "OptionalParams")
	if err != nil {
		return nil, err
	}
	return append([]ParamSpec(nil), info.Optional...), nil
}

// Describe returns the node kind's documentation string.
func (b *Base) Describe(kind string) (string, error) {
	info, err := b.info(kind, "Describe")
	if err != nil {
		return "", err
	}
	return info.Description, nil
}

// ValidateParams checks a parameter bag against a kind's spec: every
// required parameter present, no unknown parameters. Factories call this
// before dispatching to a construction handler.
func (b *Base) ValidateParams(kind string, params map[string]any) error {
	info, err := b.info(kind, "ValidateParams")
	if err != nil {
		return err
	}

	known := make(map[string]bool, len(info.Required)+len(info.Optional))
	for _, spec := range info.Required {
		known[spec.Name] = true
		if _, present := params[spec.Name]; !present {
			return errors.WrapValidation(
				fmt.Errorf("node kind %q requires parameter %q: %w", kind, spec.Name, errors.ErrMissingParam),
				"Factory", "ValidateParams", "required parameter check")
		}
	}
	for _, spec := range info.Optional {
		known[spec.Name] = true
	}
	for name := range params {
		if !known[name] {
			return errors.WrapValidation(
				fmt.Errorf("node kind %q does not accept parameter %q: %w", kind, name, errors.ErrInvalidParam),
				"Factory", "ValidateParams", "unknown parameter check")
		}
	}
	return nil
}

func (b *Base) info(kind, operation string) (KindInfo, error) {
	info, ok := b.infos[kind]
	if !ok {
		return KindInfo{}, errors.WrapNotFound(
			fmt.Errorf("node kind %q: %w", kind, errors.ErrUnsupportedKind),
			"Factory", operation, "kind lookup")
	}
	return info, nil
}

// NewNode assembles a node shell for a construction handler: identifier
// assigned, enabled, parameter bag preserved for later reconstruction.
func NewNode(kind string, params map[string]any, pos graph.Position, pins ...*graph.Pin) *graph.Node {
	var saved map[string]any
	if len(params) > 0 {
		saved = make(map[string]any, len(params))
		for k, v := range params {
			saved[k] = v
		}
	}
	return &graph.Node{
		ID:       graph.NewNodeID(),
		Kind:     kind,
		Position: pos,
		Enabled:  true,
		Pins:     pins,
		Params:   saved,
	}
}

// FindExisting returns the first node of the given kind matching the
// predicate, used by idempotent kind handlers to return the existing
// singular occurrence instead of constructing a duplicate.
func FindExisting(g *graph.Graph, kind string, match func(*graph.Node) bool) *graph.Node {
	for _, n := range g.Nodes {
		if n.Kind != kind {
			continue
		}
		if match == nil || match(n) {
			return n
		}
	}
	return nil
}

// ExecIn and ExecOut build the conventional execution pins shared by
// event-flow style nodes.
func ExecIn() *graph.Pin {
	return &graph.Pin{Name: "Exec", Aliases: []string{"In"}, Direction: graph.DirectionInput, Kind: graph.Exec()}
}

// ExecOut builds the conventional outgoing execution pin.
func ExecOut() *graph.Pin {
	return &graph.Pin{Name: "Then", Aliases: []string{"Out"}, Direction: graph.DirectionOutput, Kind: graph.Exec()}
}
