// Package errors provides standardized error handling patterns for NodeForge.
//
// # Overview
//
// The errors package implements a five-class error classification system
// matching the failure taxonomy of the batch mutation engine: Validation
// (malformed parameters), NotFound (unresolvable nodes, pins, or named
// entities), Incompatible (pin direction/data-kind mismatches), State
// (operation not permitted in the target's current state), and
// UnresolvedAlias (batch-local forward references misused).
//
// None of these classes are process-fatal. The batch engine captures every
// classified error as a structured per-operation result; the class decides
// how the result is reported, never whether the process survives.
//
// # Error Classification
//
// The classification system integrates with Go's standard error handling,
// supporting errors.Is(), errors.As(), and error wrapping chains.
//
// # Quick Start
//
// Use standard error variables for known conditions:
//
//	if g.FindNode(id) == nil {
//	    return errors.ErrNodeNotFound
//	}
//
// Wrap errors with component context when crossing package boundaries:
//
//	if err := g.Connect(from, to); err != nil {
//	    return errors.WrapIncompatible(err, "Engine", "connectPhase", "making connection")
//	}
//
// Check classes without string matching:
//
//	if errors.IsNotFound(err) {
//	    // report and move on under the continue policy
//	}
package errors
