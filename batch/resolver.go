package batch

import (
	"fmt"

	"github.com/c360/nodeforge/errors"
)

// aliasResolver maps batch-local symbolic aliases to node identifiers. It is
// created per engine invocation and populated during the create phase; later
// phases consult it when an operation addresses a node by alias. An alias
// whose create operation failed is remembered so that dependent operations
// report the cause instead of a bare not-found.
type aliasResolver struct {
	bindings map[string]string
	failed   map[string]error
}

func newAliasResolver() *aliasResolver {
	return &aliasResolver{
		bindings: make(map[string]string),
		failed:   make(map[string]error),
	}
}

// declare binds an alias to the identifier of a node created in this batch.
func (r *aliasResolver) declare(alias, nodeID string) error {
	if alias == "" {
		return errors.WrapValidation(
			fmt.Errorf("alias cannot be empty: %w", errors.ErrInvalidParam),
			"AliasResolver", "declare", "alias validation")
	}
	if _, exists := r.bindings[alias]; exists {
		return errors.WrapValidation(
			fmt.Errorf("alias %q: %w", alias, errors.ErrDuplicateAlias),
			"AliasResolver", "declare", "duplicate alias check")
	}
	if _, exists := r.failed[alias]; exists {
		return errors.WrapValidation(
			fmt.Errorf("alias %q: %w", alias, errors.ErrDuplicateAlias),
			"AliasResolver", "declare", "duplicate alias check")
	}
	r.bindings[alias] = nodeID
	return nil
}

// markFailed records that the create operation declaring this alias failed.
func (r *aliasResolver) markFailed(alias string, cause error) {
	if alias == "" {
		return
	}
	if _, exists := r.bindings[alias]; exists {
		return
	}
	r.failed[alias] = cause
}

// resolve maps an alias to its node identifier.
func (r *aliasResolver) resolve(alias string) (string, error) {
	if id, ok := r.bindings[alias]; ok {
		return id, nil
	}
	if cause, ok := r.failed[alias]; ok {
		return "", errors.WrapUnresolved(
			fmt.Errorf("alias %q refers to a node that failed to create (%v): %w",
				alias, cause, errors.ErrAliasFailed),
			"AliasResolver", "resolve", "failed alias check")
	}
	return "", errors.WrapUnresolved(
		fmt.Errorf("alias %q: %w", alias, errors.ErrAliasUndeclared),
		"AliasResolver", "resolve", "alias lookup")
}

// aliasMap returns a copy of the completed alias bindings for the result.
func (r *aliasResolver) aliasMap() map[string]string {
	if len(r.bindings) == 0 {
		return nil
	}
	m := make(map[string]string, len(r.bindings))
	for alias, id := range r.bindings {
		m[alias] = id
	}
	return m
}
