package factory

import (
	"fmt"
	"sort"
	"sync"

	"github.com/c360/nodeforge/asset"
	"github.com/c360/nodeforge/errors"
	"github.com/c360/nodeforge/graph"
)

// Registry maps graph kinds to node factories. It is populated once at
// process start and read-only thereafter; the mutex exists so that
// registration from multiple init paths stays safe, not to support runtime
// mutation.
type Registry struct {
	mu        sync.RWMutex
	factories map[graph.Kind]NodeFactory
}

// NewRegistry creates an empty factory registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[graph.Kind]NodeFactory),
	}
}

// Register adds a factory for its graph kind.
// Returns an error if the kind already has a factory.
func (r *Registry) Register(f NodeFactory) error {
	if f == nil {
		return errors.WrapValidation(errors.ErrInvalidParam, "Registry", "Register", "factory validation")
	}
	kind := f.GraphKind()
	if !kind.IsValid() {
		return errors.WrapValidation(
			fmt.Errorf("factory reports unknown graph kind %q: %w", kind, errors.ErrInvalidParam),
			"Registry", "Register", "graph kind validation")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[kind]; exists {
		return errors.WrapValidation(
			fmt.Errorf("factory for graph kind %q is already registered", kind),
			"Registry", "Register", "duplicate factory check")
	}
	r.factories[kind] = f
	return nil
}

// Factory returns the factory for a graph kind.
func (r *Registry) Factory(kind graph.Kind) (NodeFactory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.factories[kind]
	return f, ok
}

// FactoryFor selects the factory for a graph by inspecting its kind tag.
// Untagged graphs fall back to the kind implied by the owning asset's
// schema. Returns a NotFound error carrying ErrNoFactory when neither path
// identifies a registered factory.
func (r *Registry) FactoryFor(owner *asset.Asset, g *graph.Graph) (NodeFactory, error) {
	if g == nil {
		return nil, errors.WrapValidation(errors.ErrInvalidParam, "Registry", "FactoryFor", "graph validation")
	}

	kind := g.Kind
	if kind == "" && owner != nil {
		if inferred, ok := owner.InferKind(); ok {
			kind = inferred
		}
	}
	if kind == "" {
		return nil, errors.WrapNotFound(
			fmt.Errorf("graph %q carries no kind tag and its owner implies none: %w",
				g.Name, errors.ErrNoFactory),
			"Registry", "FactoryFor", "kind inference")
	}

	f, ok := r.Factory(kind)
	if !ok {
		return nil, errors.WrapNotFound(
			fmt.Errorf("graph kind %q: %w", kind, errors.ErrNoFactory),
			"Registry", "FactoryFor", "factory lookup")
	}
	return f, nil
}

// GraphKinds lists the graph kinds with registered factories, sorted.
func (r *Registry) GraphKinds() []graph.Kind {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kinds := make([]graph.Kind, 0, len(r.factories))
	for kind := range r.factories {
		kinds = append(kinds, kind)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}
