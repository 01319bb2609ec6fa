// Package batch implements the multi-phase mutation engine: a request of up
// to eleven ordered operation lists applied to one graph in a fixed phase
// order, with batch-local alias resolution, a rollback journal, dry-run
// preview, and an optional compile hook.
package batch

import (
	"fmt"

	"github.com/c360/nodeforge/errors"
	"github.com/c360/nodeforge/graph"
)

// OnError selects the engine's cross-phase failure policy.
type OnError string

const (
	// OnErrorRollback reverts every committed mutation on the first failure
	// and returns a failed result with zero net effect.
	OnErrorRollback OnError = "rollback"
	// OnErrorContinue records the failure and proceeds with the remaining
	// operations and phases.
	OnErrorContinue OnError = "continue"
	// OnErrorStop halts at the first failure; mutations already applied
	// remain in effect and later phases do not run.
	OnErrorStop OnError = "stop"
)

// Verbosity controls how much per-operation detail the result carries.
type Verbosity string

const (
	// VerbositySummary reports the success flag, counts, and alias map only.
	VerbositySummary Verbosity = "summary"
	// VerbosityNormal adds per-operation attribution for failures.
	VerbosityNormal Verbosity = "normal"
	// VerbosityDetailed reports every per-operation outcome.
	VerbosityDetailed Verbosity = "detailed"
)

// NodeRef addresses a node by stable identifier or by batch-local alias.
// Exactly one of the two fields is set.
type NodeRef struct {
	ID    string `json:"id,omitempty" yaml:"id,omitempty"`
	Alias string `json:"alias,omitempty" yaml:"alias,omitempty"`
}

func (r NodeRef) String() string {
	if r.Alias != "" {
		return "@" + r.Alias
	}
	return r.ID
}

// PinSpec addresses one pin on a pre-existing node. Phases before node
// creation cannot see aliases, so the node is identified by stable ID only.
type PinSpec struct {
	NodeID string `json:"node_id" yaml:"node_id"`
	Pin    string `json:"pin" yaml:"pin"`
}

// CreateSpec describes one node to create: an optional batch-local alias, a
// kind string dispatched through the factory registry, a canvas position, and
// a kind-specific parameter bag.
type CreateSpec struct {
	Alias    string         `json:"alias,omitempty" yaml:"alias,omitempty"`
	Kind     string         `json:"kind" yaml:"kind"`
	Position graph.Position `json:"position" yaml:"position"`
	Params   map[string]any `json:"params,omitempty" yaml:"params,omitempty"`
}

// Endpoint is one side of a requested connection: a node reference (ID or
// alias) plus a pin name.
type Endpoint struct {
	Node NodeRef `json:"node" yaml:"node"`
	Pin  string  `json:"pin" yaml:"pin"`
}

// ConnectionSpec describes one connection to make between two endpoints.
// Endpoint order is forgiving; the graph normalizes to output-to-input.
type ConnectionSpec struct {
	From Endpoint `json:"from" yaml:"from"`
	To   Endpoint `json:"to" yaml:"to"`
}

// PinValueSpec assigns a default value to one pin.
type PinValueSpec struct {
	Node  NodeRef     `json:"node" yaml:"node"`
	Pin   string      `json:"pin" yaml:"pin"`
	Value graph.Value `json:"value" yaml:"value"`
}

// Request is one batch of edits against a single graph. The eleven operation
// lists correspond to the engine's phases and every list is optional.
type Request struct {
	Graph string `json:"graph" yaml:"graph"`

	RemoveIDs       []string         `json:"remove_ids,omitempty" yaml:"remove_ids,omitempty"`
	BreakAllLinkIDs []string         `json:"break_all_links_ids,omitempty" yaml:"break_all_links_ids,omitempty"`
	EnableIDs       []string         `json:"enable_ids,omitempty" yaml:"enable_ids,omitempty"`
	DisableIDs      []string         `json:"disable_ids,omitempty" yaml:"disable_ids,omitempty"`
	ReconstructIDs  []string         `json:"reconstruct_ids,omitempty" yaml:"reconstruct_ids,omitempty"`
	SplitPins       []PinSpec        `json:"split_pins,omitempty" yaml:"split_pins,omitempty"`
	RecombinePins   []PinSpec        `json:"recombine_pins,omitempty" yaml:"recombine_pins,omitempty"`
	BreakPinLinks   []PinSpec        `json:"break_pin_links,omitempty" yaml:"break_pin_links,omitempty"`
	CreateNodes     []CreateSpec     `json:"create_nodes,omitempty" yaml:"create_nodes,omitempty"`
	Connections     []ConnectionSpec `json:"connections,omitempty" yaml:"connections,omitempty"`
	PinValues       []PinValueSpec   `json:"pin_values,omitempty" yaml:"pin_values,omitempty"`

	// Compile requests the validation/compilation hook after the mutation
	// phases. Compile failure clears the result's success flag but never
	// rolls back applied mutations.
	Compile bool `json:"compile,omitempty" yaml:"compile,omitempty"`

	OnError   OnError   `json:"on_error,omitempty" yaml:"on_error,omitempty"`
	DryRun    bool      `json:"dry_run,omitempty" yaml:"dry_run,omitempty"`
	Verbosity Verbosity `json:"verbosity,omitempty" yaml:"verbosity,omitempty"`
}

// OperationCount totals the operations across all eleven lists.
func (r *Request) OperationCount() int {
	return len(r.RemoveIDs) + len(r.BreakAllLinkIDs) +
		len(r.EnableIDs) + len(r.DisableIDs) + len(r.ReconstructIDs) +
		len(r.SplitPins) + len(r.RecombinePins) + len(r.BreakPinLinks) +
		len(r.CreateNodes) + len(r.Connections) + len(r.PinValues)
}

// Normalize fills policy defaults in place: rollback on error, normal
// verbosity.
func (r *Request) Normalize() {
	if r.OnError == "" {
		r.OnError = OnErrorRollback
	}
	if r.Verbosity == "" {
		r.Verbosity = VerbosityNormal
	}
}

// Validate checks the policy fields and per-spec shape before execution.
func (r *Request) Validate() error {
	switch r.OnError {
	case OnErrorRollback, OnErrorContinue, OnErrorStop:
	default:
		return errors.WrapValidation(
			fmt.Errorf("on_error %q must be rollback, continue, or stop: %w", r.OnError, errors.ErrInvalidParam),
			"Request", "Validate", "error policy check")
	}
	switch r.Verbosity {
	case VerbositySummary, VerbosityNormal, VerbosityDetailed:
	default:
		return errors.WrapValidation(
			fmt.Errorf("verbosity %q must be summary, normal, or detailed: %w", r.Verbosity, errors.ErrInvalidParam),
			"Request", "Validate", "verbosity check")
	}

	for i, spec := range r.CreateNodes {
		if spec.Kind == "" {
			return errors.WrapValidation(
				fmt.Errorf("create_nodes[%d] is missing a kind: %w", i, errors.ErrInvalidParam),
				"Request", "Validate", "create spec check")
		}
	}
	for i, spec := range r.Connections {
		if err := validateEndpoint(spec.From, fmt.Sprintf("connections[%d].from", i)); err != nil {
			return err
		}
		if err := validateEndpoint(spec.To, fmt.Sprintf("connections[%d].to", i)); err != nil {
			return err
		}
	}
	for i, spec := range r.PinValues {
		if err := validateNodeRef(spec.Node, fmt.Sprintf("pin_values[%d]", i)); err != nil {
			return err
		}
		if spec.Pin == "" {
			return errors.WrapValidation(
				fmt.Errorf("pin_values[%d] is missing a pin name: %w", i, errors.ErrInvalidParam),
				"Request", "Validate", "pin value spec check")
		}
	}
	return nil
}

func validateEndpoint(e Endpoint, where string) error {
	if err := validateNodeRef(e.Node, where); err != nil {
		return err
	}
	if e.Pin == "" {
		return errors.WrapValidation(
			fmt.Errorf("%s is missing a pin name: %w", where, errors.ErrInvalidParam),
			"Request", "Validate", "endpoint check")
	}
	return nil
}

func validateNodeRef(ref NodeRef, where string) error {
	if (ref.ID == "") == (ref.Alias == "") {
		return errors.WrapValidation(
			fmt.Errorf("%s must set exactly one of id or alias: %w", where, errors.ErrInvalidParam),
			"Request", "Validate", "node reference check")
	}
	return nil
}
