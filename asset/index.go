package asset

import (
	"fmt"
	"sort"
	"sync"

	"github.com/c360/nodeforge/errors"
	"github.com/c360/nodeforge/graph"
)

// RefClass identifies which family of named entities a reference resolves
// against. Node-kind handlers resolve types, value schemas, enumerations,
// callables, graph contracts, and engine signals by name.
type RefClass string

const (
	// RefType is an object/class type reference.
	RefType RefClass = "type"
	// RefSchema is a structured-value schema reference.
	RefSchema RefClass = "schema"
	// RefEnum is an enumeration reference.
	RefEnum RefClass = "enum"
	// RefCallable is a function/callable reference.
	RefCallable RefClass = "callable"
	// RefContract is a graph-asset-as-contract reference.
	RefContract RefClass = "contract"
	// RefSignal is an engine signal reference (entry points).
	RefSignal RefClass = "signal"
)

// Entry is the identity shared by every indexed entity: a canonical short
// name, an optional fully qualified path, and engine-internal decorated
// aliases. Callers may supply any of the three forms interchangeably.
type Entry struct {
	Name    string   `json:"name" yaml:"name"`
	Path    string   `json:"path,omitempty" yaml:"path,omitempty"`
	Aliases []string `json:"aliases,omitempty" yaml:"aliases,omitempty"`
}

// Param is one named, kinded slot on a callable, contract, or signal payload.
type Param struct {
	Name string `json:"name" yaml:"name"`
	Kind string `json:"kind" yaml:"kind"`
}

// TypeInfo describes an object type known to the index.
type TypeInfo struct {
	Entry `yaml:",inline"`
}

// ValueSchema describes a structured value type; Fields drive composite pin
// construction and splitting.
type ValueSchema struct {
	Entry  `yaml:",inline"`
	Fields []graph.ComponentKind `json:"fields" yaml:"fields"`
}

// Enumeration describes a named enumeration and its values.
type Enumeration struct {
	Entry  `yaml:",inline"`
	Values []string `json:"values" yaml:"values"`
}

// Callable describes an invokable function: parameters become input pins,
// results become output pins. Pure callables get no execution pins.
type Callable struct {
	Entry   `yaml:",inline"`
	Params  []Param `json:"params,omitempty" yaml:"params,omitempty"`
	Results []Param `json:"results,omitempty" yaml:"results,omitempty"`
	Pure    bool    `json:"pure,omitempty" yaml:"pure,omitempty"`
}

// Contract describes another graph asset acting as a callable contract.
type Contract struct {
	Entry   `yaml:",inline"`
	Inputs  []Param `json:"inputs,omitempty" yaml:"inputs,omitempty"`
	Outputs []Param `json:"outputs,omitempty" yaml:"outputs,omitempty"`
}

// Signal describes an engine signal an entry point can fire on; the payload
// becomes the entry node's data output pins.
type Signal struct {
	Entry   `yaml:",inline"`
	Payload []Param `json:"payload,omitempty" yaml:"payload,omitempty"`
}

// Index is the name catalog node factories resolve references against. It is
// populated at load time and read-mostly thereafter; registration after
// factories start resolving is safe but unusual.
type Index struct {
	mu        sync.RWMutex
	types     map[string]TypeInfo
	schemas   map[string]ValueSchema
	enums     map[string]Enumeration
	callables map[string]Callable
	contracts map[string]Contract
	signals   map[string]Signal
}

// NewIndex creates an empty name index.
func NewIndex() *Index {
	return &Index{
		types:     make(map[string]TypeInfo),
		schemas:   make(map[string]ValueSchema),
		enums:     make(map[string]Enumeration),
		callables: make(map[string]Callable),
		contracts: make(map[string]Contract),
		signals:   make(map[string]Signal),
	}
}

// RegisterType adds an object type to the index.
func (ix *Index) RegisterType(t TypeInfo) error {
	return registerEntry(ix, ix.types, t.Name, t, "RegisterType")
}

// RegisterSchema adds a structured-value schema to the index.
func (ix *Index) RegisterSchema(s ValueSchema) error {
	return registerEntry(ix, ix.schemas, s.Name, s, "RegisterSchema")
}

// RegisterEnum adds an enumeration to the index.
func (ix *Index) RegisterEnum(e Enumeration) error {
	return registerEntry(ix, ix.enums, e.Name, e, "RegisterEnum")
}

// RegisterCallable adds a callable to the index.
func (ix *Index) RegisterCallable(c Callable) error {
	return registerEntry(ix, ix.callables, c.Name, c, "RegisterCallable")
}

// RegisterContract adds a graph contract to the index.
func (ix *Index) RegisterContract(c Contract) error {
	return registerEntry(ix, ix.contracts, c.Name, c, "RegisterContract")
}

// RegisterSignal adds an engine signal to the index.
func (ix *Index) RegisterSignal(s Signal) error {
	return registerEntry(ix, ix.signals, s.Name, s, "RegisterSignal")
}

func registerEntry[T any](ix *Index, m map[string]T, name string, value T, operation string) error {
	if name == "" {
		return errors.WrapValidation(errors.ErrInvalidParam, "Index", operation, "name validation")
	}
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if _, exists := m[name]; exists {
		return errors.WrapValidation(
			fmt.Errorf("%q is already registered", name),
			"Index", operation, "duplicate check")
	}
	m[name] = value
	return nil
}

// Type retrieves a type by canonical name.
func (ix *Index) Type(name string) (TypeInfo, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	t, ok := ix.types[name]
	return t, ok
}

// Schema retrieves a value schema by canonical name.
func (ix *Index) Schema(name string) (ValueSchema, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	s, ok := ix.schemas[name]
	return s, ok
}

// Enum retrieves an enumeration by canonical name.
func (ix *Index) Enum(name string) (Enumeration, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	e, ok := ix.enums[name]
	return e, ok
}

// Callable retrieves a callable by canonical name.
func (ix *Index) Callable(name string) (Callable, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	c, ok := ix.callables[name]
	return c, ok
}

// Contract retrieves a graph contract by canonical name.
func (ix *Index) Contract(name string) (Contract, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	c, ok := ix.contracts[name]
	return c, ok
}

// Signal retrieves an engine signal by canonical name.
func (ix *Index) Signal(name string) (Signal, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	s, ok := ix.signals[name]
	return s, ok
}

// Entries returns the identity entries for one reference class, sorted by
// canonical name. The layered name resolver walks these for its prefix,
// indexed-by-name, and partial-match strategies.
func (ix *Index) Entries(class RefClass) []Entry {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	var entries []Entry
	switch class {
	case RefType:
		for _, t := range ix.types {
			entries = append(entries, t.Entry)
		}
	case RefSchema:
		for _, s := range ix.schemas {
			entries = append(entries, s.Entry)
		}
	case RefEnum:
		for _, e := range ix.enums {
			entries = append(entries, e.Entry)
		}
	case RefCallable:
		for _, c := range ix.callables {
			entries = append(entries, c.Entry)
		}
	case RefContract:
		for _, c := range ix.contracts {
			entries = append(entries, c.Entry)
		}
	case RefSignal:
		for _, s := range ix.signals {
			entries = append(entries, s.Entry)
		}
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries
}
