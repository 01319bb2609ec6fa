package batch

import (
	"github.com/c360/nodeforge/compile"
	"github.com/c360/nodeforge/errors"
)

// Phase names one of the engine's ordered execution phases, in the order
// they run.
type Phase string

const (
	PhaseRemove        Phase = "remove"
	PhaseBreakAllLinks Phase = "break_all_links"
	PhaseEnable        Phase = "enable"
	PhaseDisable       Phase = "disable"
	PhaseReconstruct   Phase = "reconstruct"
	PhaseSplitPin      Phase = "split_pin"
	PhaseRecombinePin  Phase = "recombine_pin"
	PhaseBreakPinLink  Phase = "break_pin_link"
	PhaseCreate        Phase = "create"
	PhaseConnect       Phase = "connect"
	PhaseSetValue      Phase = "set_value"
	PhaseCompile       Phase = "compile"
)

// Outcome is the recorded result of one operation.
type Outcome struct {
	Phase  Phase  `json:"phase"`
	Index  int    `json:"index"`
	Target string `json:"target"`
	// ErrorClass is the taxonomy bucket of a failed operation, empty on
	// success.
	ErrorClass string `json:"error_class,omitempty"`
	Error      string `json:"error,omitempty"`
}

// OK reports whether the operation succeeded.
func (o Outcome) OK() bool {
	return o.Error == ""
}

// Counts aggregates what each phase applied.
type Counts struct {
	NodesRemoved       int `json:"nodes_removed,omitempty"`
	LinksBroken        int `json:"links_broken,omitempty"`
	NodesEnabled       int `json:"nodes_enabled,omitempty"`
	NodesDisabled      int `json:"nodes_disabled,omitempty"`
	NodesReconstructed int `json:"nodes_reconstructed,omitempty"`
	PinsSplit          int `json:"pins_split,omitempty"`
	PinsRecombined     int `json:"pins_recombined,omitempty"`
	PinLinksBroken     int `json:"pin_links_broken,omitempty"`
	NodesCreated       int `json:"nodes_created,omitempty"`
	ConnectionsMade    int `json:"connections_made,omitempty"`
	PinValuesSet       int `json:"pin_values_set,omitempty"`
}

// Result is the structured outcome of one batch execution.
type Result struct {
	// Success is true when every operation succeeded and, if compilation was
	// requested, the compile hook reported no errors.
	Success bool `json:"success"`
	// RolledBack is true when a failure under the rollback policy reverted
	// every applied mutation.
	RolledBack bool `json:"rolled_back,omitempty"`
	// Stopped is true when a failure under the stop policy halted execution
	// with earlier mutations left in place.
	Stopped bool `json:"stopped,omitempty"`
	// DryRun mirrors the request flag; a dry-run result reports what would
	// happen without the graph having changed.
	DryRun bool `json:"dry_run,omitempty"`

	Counts Counts `json:"counts"`

	// Aliases maps each declared alias to the identifier of the node it
	// created (or would create, under dry-run).
	Aliases map[string]string `json:"aliases,omitempty"`

	// Failed carries the failed operations at normal verbosity and above.
	Failed []Outcome `json:"failed,omitempty"`
	// Outcomes carries every per-operation outcome at detailed verbosity.
	Outcomes []Outcome `json:"outcomes,omitempty"`

	// Diagnostics carries the compile hook's findings when compilation ran.
	Diagnostics *compile.Diagnostics `json:"diagnostics,omitempty"`
}

// record appends an outcome, routing it to the failed list as needed.
func (r *Result) record(o Outcome, verbosity Verbosity) {
	if !o.OK() {
		r.Failed = append(r.Failed, o)
	}
	if verbosity == VerbosityDetailed {
		r.Outcomes = append(r.Outcomes, o)
	}
}

// outcomeFor builds the outcome of one operation from its error.
func outcomeFor(phase Phase, index int, target string, err error) Outcome {
	o := Outcome{Phase: phase, Index: index, Target: target}
	if err != nil {
		o.Error = err.Error()
		o.ErrorClass = errors.Classify(err).String()
	}
	return o
}
