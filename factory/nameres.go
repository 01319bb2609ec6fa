package factory

import (
	"fmt"
	"strings"

	"github.com/c360/nodeforge/asset"
	"github.com/c360/nodeforge/errors"
)

// Strategy names one stage of the layered name-resolution pipeline, carried
// in resolution results and not-found diagnostics.
type Strategy string

const (
	// StrategyExact matches the canonical name, full path, or a declared
	// alias verbatim.
	StrategyExact Strategy = "exact"
	// StrategyPrefix adds or strips the reference class's decoration
	// prefixes before matching.
	StrategyPrefix Strategy = "prefix_variant"
	// StrategyIndexed matches the final segment of an entry's indexed path.
	StrategyIndexed Strategy = "indexed_name"
	// StrategyPartial falls back to case-insensitive substring matching.
	StrategyPartial Strategy = "partial"
)

// classPrefixes lists the engine-internal decoration prefixes tried per
// reference class. Callers supply short names, fully qualified paths, or
// decorated names interchangeably; the prefix stage bridges decorated and
// plain forms in both directions.
var classPrefixes = map[asset.RefClass][]string{
	asset.RefType:     {"A", "U"},
	asset.RefSchema:   {"F"},
	asset.RefEnum:     {"E"},
	asset.RefCallable: {"K2_", "BP_"},
	asset.RefContract: {"I"},
	asset.RefSignal:   {"On", "Receive"},
}

// Resolution records how a reference was resolved, kept for diagnostics at
// higher verbosity levels.
type Resolution struct {
	Class     asset.RefClass `json:"class"`
	Query     string         `json:"query"`
	Canonical string         `json:"canonical"`
	Strategy  Strategy       `json:"strategy"`
}

// Resolver resolves loosely-typed references (types, schemas, enumerations,
// callables, contract assets, signals) against the asset index using an
// ordered pipeline: exact match, then decoration-prefix variants, then
// indexed-by-name search, then partial match as a last resort. The pipeline
// is implemented once here and reused by every factory.
type Resolver struct {
	index *asset.Index
}

// NewResolver creates a resolver over the given name index.
func NewResolver(index *asset.Index) *Resolver {
	return &Resolver{index: index}
}

// Index exposes the underlying name index for typed entity lookups once a
// reference has been resolved to its canonical name.
func (r *Resolver) Index() *asset.Index {
	return r.index
}

// Resolve maps a caller-supplied name to the canonical entry of the given
// reference class. Failure returns a NotFound error naming every strategy
// attempted, so callers can surface actionable diagnostics.
func (r *Resolver) Resolve(class asset.RefClass, name string) (Resolution, error) {
	if name == "" {
		return Resolution{}, errors.WrapValidation(
			fmt.Errorf("empty %s reference: %w", class, errors.ErrInvalidParam),
			"Resolver", "Resolve", "reference validation")
	}

	entries := r.index.Entries(class)

	// Stage 1: exact match on canonical name, path, or alias.
	for _, entry := range entries {
		if matchesExact(entry, name) {
			return Resolution{Class: class, Query: name, Canonical: entry.Name, Strategy: StrategyExact}, nil
		}
	}

	// Stage 2: decoration-prefix variants, both directions.
	for _, prefix := range classPrefixes[class] {
		for _, candidate := range prefixCandidates(name, prefix) {
			for _, entry := range entries {
				if matchesExact(entry, candidate) {
					return Resolution{Class: class, Query: name, Canonical: entry.Name, Strategy: StrategyPrefix}, nil
				}
			}
		}
	}

	// Stage 3: indexed-by-name search over the final path segment.
	for _, entry := range entries {
		if entry.Path == "" {
			continue
		}
		if strings.EqualFold(lastSegment(entry.Path), name) {
			return Resolution{Class: class, Query: name, Canonical: entry.Name, Strategy: StrategyIndexed}, nil
		}
	}

	// Stage 4: partial match. Entries() is sorted, so the first hit is the
	// lexicographically smallest canonical name and the result stays
	// deterministic.
	lowered := strings.ToLower(name)
	for _, entry := range entries {
		if strings.Contains(strings.ToLower(entry.Name), lowered) ||
			strings.Contains(strings.ToLower(entry.Path), lowered) {
			return Resolution{Class: class, Query: name, Canonical: entry.Name, Strategy: StrategyPartial}, nil
		}
	}

	return Resolution{}, errors.WrapNotFound(
		fmt.Errorf("%s %q not found (tried %s, %s %v, %s, %s): %w",
			class, name,
			StrategyExact, StrategyPrefix, classPrefixes[class], StrategyIndexed, StrategyPartial,
			errors.ErrNameNotResolved),
		"Resolver", "Resolve", "layered name resolution")
}

func matchesExact(entry asset.Entry, name string) bool {
	if entry.Name == name || (entry.Path != "" && entry.Path == name) {
		return true
	}
	for _, alias := range entry.Aliases {
		if alias == name {
			return true
		}
	}
	return false
}

// prefixCandidates returns the decorated and undecorated variants of a name
// for one prefix.
func prefixCandidates(name, prefix string) []string {
	candidates := []string{prefix + name}
	if strings.HasPrefix(name, prefix) && len(name) > len(prefix) {
		candidates = append(candidates, strings.TrimPrefix(name, prefix))
	}
	return candidates
}

func lastSegment(path string) string {
	segment := path
	if idx := strings.LastIndexAny(segment, "/."); idx >= 0 {
		segment = segment[idx+1:]
	}
	return segment
}
