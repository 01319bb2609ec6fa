// Package errors provides standardized error handling patterns for NodeForge.
// It includes error classification, standard error variables, and helper
// functions for consistent error wrapping across the batch engine, the graph
// model, and the node factories.
package errors

import (
	"errors"
	"fmt"
)

// ErrorClass represents the classification of errors for per-operation
// reporting and failure-policy decisions.
type ErrorClass int

const (
	// ErrorValidation represents errors due to missing or malformed
	// parameters in a request or a node-kind parameter bag.
	ErrorValidation ErrorClass = iota
	// ErrorNotFound represents errors where a referenced node, pin, or
	// named entity (type, schema, enumeration, callable, contract asset)
	// cannot be resolved.
	ErrorNotFound
	// ErrorIncompatible represents errors connecting incompatible pins or
	// applying an operation to the wrong graph kind.
	ErrorIncompatible
	// ErrorState represents errors where the target exists but is not in a
	// state that permits the operation (e.g. recombining a pin whose
	// children still carry connections).
	ErrorState
	// ErrorUnresolvedAlias represents a batch-local alias used before its
	// declaration or after its creating operation failed.
	ErrorUnresolvedAlias
)

// String returns the string representation of ErrorClass.
func (ec ErrorClass) String() string {
	switch ec {
	case ErrorValidation:
		return "validation"
	case ErrorNotFound:
		return "not_found"
	case ErrorIncompatible:
		return "incompatible"
	case ErrorState:
		return "state"
	case ErrorUnresolvedAlias:
		return "unresolved_alias"
	default:
		return "unknown"
	}
}

// Standard error variables for common conditions
var (
	// Graph model errors
	ErrNodeNotFound       = errors.New("node not found")
	ErrPinNotFound        = errors.New("pin not found")
	ErrConnectionNotFound = errors.New("connection not found")
	ErrGraphNotFound      = errors.New("graph not found")

	// Connection errors
	ErrIncompatibleDirection = errors.New("pins have incompatible directions")
	ErrIncompatibleDataKind  = errors.New("pins have incompatible data kinds")
	ErrDuplicateConnection   = errors.New("connection already exists")

	// Factory errors
	ErrNoFactory       = errors.New("no factory for graph kind")
	ErrUnsupportedKind = errors.New("unsupported node kind")
	ErrMissingParam    = errors.New("missing required parameter")
	ErrInvalidParam    = errors.New("invalid parameter value")

	// Name resolution errors
	ErrNameNotResolved = errors.New("name could not be resolved")

	// Pin structure errors
	ErrPinNotSplittable = errors.New("pin data kind is not splittable")
	ErrPinNotSplit      = errors.New("pin is not in the split state")
	ErrPinAlreadySplit  = errors.New("pin is already split")
	ErrChildConnected   = errors.New("child pins still carry connections")

	// Batch errors
	ErrAliasUndeclared = errors.New("alias has not been declared")
	ErrAliasFailed     = errors.New("alias creation failed earlier in batch")
	ErrDuplicateAlias  = errors.New("alias already declared in this batch")

	// Configuration errors
	ErrInvalidConfig = errors.New("invalid configuration")
)

// ClassifiedError wraps an error with its classification and the component
// context that produced it.
type ClassifiedError struct {
	Class     ErrorClass
	Err       error
	Message   string
	Component string
	Operation string
}

// Error implements the error interface
func (ce *ClassifiedError) Error() string {
	if ce.Message != "" {
		return ce.Message
	}
	return ce.Err.Error()
}

// Unwrap returns the underlying error
func (ce *ClassifiedError) Unwrap() error {
	return ce.Err
}

// Classify returns the error class for an error. Unclassified errors default
// to validation so that a caller never mistakes them for a missing entity.
func Classify(err error) ErrorClass {
	if err == nil {
		return ErrorValidation
	}

	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class
	}

	switch {
	case IsNotFound(err):
		return ErrorNotFound
	case IsIncompatible(err):
		return ErrorIncompatible
	case IsState(err):
		return ErrorState
	case IsUnresolvedAlias(err):
		return ErrorUnresolvedAlias
	default:
		return ErrorValidation
	}
}

// IsValidation checks if an error is a parameter/request validation failure.
func IsValidation(err error) bool {
	if err == nil {
		return false
	}

	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class == ErrorValidation
	}

	return errors.Is(err, ErrMissingParam) ||
		errors.Is(err, ErrInvalidParam) ||
		errors.Is(err, ErrInvalidConfig)
}

// IsNotFound checks if an error is a missing node/pin/named-entity failure.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}

	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class == ErrorNotFound
	}

	return errors.Is(err, ErrNodeNotFound) ||
		errors.Is(err, ErrPinNotFound) ||
		errors.Is(err, ErrConnectionNotFound) ||
		errors.Is(err, ErrGraphNotFound) ||
		errors.Is(err, ErrNoFactory) ||
		errors.Is(err, ErrUnsupportedKind) ||
		errors.Is(err, ErrNameNotResolved)
}

// IsIncompatible checks if an error is a pin/graph-kind compatibility failure.
func IsIncompatible(err error) bool {
	if err == nil {
		return false
	}

	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class == ErrorIncompatible
	}

	return errors.Is(err, ErrIncompatibleDirection) ||
		errors.Is(err, ErrIncompatibleDataKind)
}

// IsState checks if an error reports a target in the wrong state for the
// requested operation.
func IsState(err error) bool {
	if err == nil {
		return false
	}

	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class == ErrorState
	}

	return errors.Is(err, ErrPinNotSplittable) ||
		errors.Is(err, ErrPinNotSplit) ||
		errors.Is(err, ErrPinAlreadySplit) ||
		errors.Is(err, ErrChildConnected) ||
		errors.Is(err, ErrDuplicateConnection)
}

// IsUnresolvedAlias checks if an error reports a batch-local alias misuse.
func IsUnresolvedAlias(err error) bool {
	if err == nil {
		return false
	}

	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class == ErrorUnresolvedAlias
	}

	return errors.Is(err, ErrAliasUndeclared) ||
		errors.Is(err, ErrAliasFailed) ||
		errors.Is(err, ErrDuplicateAlias)
}

// newClassified creates a new classified error.
// This is an internal helper - use the WrapX() functions instead.
func newClassified(class ErrorClass, err error, component, operation, message string) *ClassifiedError {
	return &ClassifiedError{
		Class:     class,
		Err:       err,
		Message:   message,
		Component: component,
		Operation: operation,
	}
}

// Wrap creates a standardized error with context following the pattern:
// "component.method: action failed: %w"
func Wrap(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s.%s: %s failed: %w", component, method, action, err)
}

// WrapValidation wraps an error as a validation failure with context
func WrapValidation(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	wrappedErr := Wrap(err, component, method, action)
	return newClassified(ErrorValidation, wrappedErr, component, method, wrappedErr.Error())
}

// WrapNotFound wraps an error as a missing-entity failure with context
func WrapNotFound(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	wrappedErr := Wrap(err, component, method, action)
	return newClassified(ErrorNotFound, wrappedErr, component, method, wrappedErr.Error())
}

// WrapIncompatible wraps an error as a compatibility failure with context
func WrapIncompatible(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	wrappedErr := Wrap(err, component, method, action)
	return newClassified(ErrorIncompatible, wrappedErr, component, method, wrappedErr.Error())
}

// WrapState wraps an error as a wrong-state failure with context
func WrapState(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	wrappedErr := Wrap(err, component, method, action)
	return newClassified(ErrorState, wrappedErr, component, method, wrappedErr.Error())
}

// WrapUnresolved wraps an error as an alias-resolution failure with context
func WrapUnresolved(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	wrappedErr := Wrap(err, component, method, action)
	return newClassified(ErrorUnresolvedAlias, wrappedErr, component, method, wrappedErr.Error())
}
