package asset

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/c360/nodeforge/errors"
)

// File is the on-disk fixture format consumed by the CLI and tests: one
// asset plus the name-index entries visible to its factories. Production
// hosts feed assets and indexes in directly; this format exists so batches
// can be exercised without a host application.
type File struct {
	Asset *Asset       `yaml:"asset"`
	Index IndexEntries `yaml:"index,omitempty"`
}

// IndexEntries lists index registrations by reference class.
type IndexEntries struct {
	Types     []TypeInfo    `yaml:"types,omitempty"`
	Schemas   []ValueSchema `yaml:"schemas,omitempty"`
	Enums     []Enumeration `yaml:"enums,omitempty"`
	Callables []Callable    `yaml:"callables,omitempty"`
	Contracts []Contract    `yaml:"contracts,omitempty"`
	Signals   []Signal      `yaml:"signals,omitempty"`
}

// Load reads an asset fixture from YAML and builds its name index.
func Load(data []byte) (*Asset, *Index, error) {
	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, nil, errors.WrapValidation(err, "Asset", "Load", "YAML parsing")
	}
	if file.Asset == nil {
		return nil, nil, errors.WrapValidation(errors.ErrInvalidConfig, "Asset", "Load", "asset section check")
	}

	// Re-stamp ownership; fixtures usually omit the owner tag.
	for _, g := range file.Asset.Graphs {
		g.Owner = file.Asset.Name
	}
	if err := file.Asset.Validate(); err != nil {
		return nil, nil, err
	}

	index, err := file.Index.Build()
	if err != nil {
		return nil, nil, err
	}
	return file.Asset, index, nil
}

// LoadFile reads an asset fixture from a file path.
func LoadFile(path string) (*Asset, *Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, errors.WrapNotFound(err, "Asset", "LoadFile", "fixture read")
	}
	return Load(data)
}

// Build registers every listed entry into a fresh index.
func (ie IndexEntries) Build() (*Index, error) {
	index := NewIndex()
	for _, t := range ie.Types {
		if err := index.RegisterType(t); err != nil {
			return nil, err
		}
	}
	for _, s := range ie.Schemas {
		if err := index.RegisterSchema(s); err != nil {
			return nil, err
		}
	}
	for _, e := range ie.Enums {
		if err := index.RegisterEnum(e); err != nil {
			return nil, err
		}
	}
	for _, c := range ie.Callables {
		if err := index.RegisterCallable(c); err != nil {
			return nil, err
		}
	}
	for _, c := range ie.Contracts {
		if err := index.RegisterContract(c); err != nil {
			return nil, err
		}
	}
	for _, s := range ie.Signals {
		if err := index.RegisterSignal(s); err != nil {
			return nil, err
		}
	}
	return index, nil
}
