// Package nodeforge provides a deterministic batch mutation engine for
// node-based program graphs.
//
// # Philosophy: One Request, One Deterministic Pass
//
// NodeForge applies a heterogeneous batch of graph edits (deletes,
// disconnects, enable/disable toggles, pin restructuring, node creation,
// connections, pin-value assignment, and optional validation) in a single
// synchronous invocation with a fixed phase order. Callers describe what
// should change; the engine owns ordering, forward-reference resolution,
// and failure policy.
//
// NodeForge is a library, not a service. It contains no network transport
// (the request schema is the whole contract), no rendering, and no runtime
// semantics for compiled graphs. Opening and saving assets belongs to the
// host application; the cmd/nodeforge CLI is one such host.
//
// # Architecture
//
//	┌─────────────────────────────────────┐
//	│          Batch Engine               │  Eleven ordered phases,
//	│  (rollback / continue / stop)       │  dry-run, alias resolution
//	└─────────────────────────────────────┘
//	           ↓ constructs via
//	┌─────────────────────────────────────┐
//	│      Factory Registry               │  Graph kind → NodeFactory
//	│  (eventflow, shader, statemachine,  │  Param validation, layered
//	│   particle, uilayout)               │  name resolution
//	└─────────────────────────────────────┘
//	           ↓ mutates
//	┌─────────────────────────────────────┐
//	│          Graph Model                │  Nodes, pins, connections,
//	│   (owned by exactly one Asset)      │  split/recombine, lookup
//	└─────────────────────────────────────┘
//
// Exclusive access to the target graph is a caller-established precondition;
// the engine never suspends mid-batch and never mutates two graphs in one
// invocation.
package nodeforge
