package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestErrorClass_String(t *testing.T) {
	tests := []struct {
		class    ErrorClass
		expected string
	}{
		{ErrorValidation, "validation"},
		{ErrorNotFound, "not_found"},
		{ErrorIncompatible, "incompatible"},
		{ErrorState, "state"},
		{ErrorUnresolvedAlias, "unresolved_alias"},
		{ErrorClass(999), "unknown"},
	}

	for _, test := range tests {
		t.Run(test.expected, func(t *testing.T) {
			result := test.class.String()
			if result != test.expected {
				t.Errorf("expected %s, got %s", test.expected, result)
			}
		})
	}
}

func TestIsNotFound(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"node not found", ErrNodeNotFound, true},
		{"pin not found", ErrPinNotFound, true},
		{"no factory", ErrNoFactory, true},
		{"unsupported kind", ErrUnsupportedKind, true},
		{"name not resolved", ErrNameNotResolved, true},
		{"wrapped node not found", fmt.Errorf("lookup: %w", ErrNodeNotFound), true},
		{"classified not found", WrapNotFound(errors.New("missing"), "Graph", "FindNode", "lookup"), true},
		{"validation error", ErrMissingParam, false},
		{"plain error", errors.New("boom"), false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := IsNotFound(test.err); got != test.expected {
				t.Errorf("IsNotFound(%v) = %v, expected %v", test.err, got, test.expected)
			}
		})
	}
}

func TestIsIncompatible(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"direction mismatch", ErrIncompatibleDirection, true},
		{"data kind mismatch", ErrIncompatibleDataKind, true},
		{"wrapped", fmt.Errorf("connect: %w", ErrIncompatibleDataKind), true},
		{"not found", ErrNodeNotFound, false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := IsIncompatible(test.err); got != test.expected {
				t.Errorf("IsIncompatible(%v) = %v, expected %v", test.err, got, test.expected)
			}
		})
	}
}

func TestIsState(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"not splittable", ErrPinNotSplittable, true},
		{"already split", ErrPinAlreadySplit, true},
		{"child connected", ErrChildConnected, true},
		{"duplicate connection", ErrDuplicateConnection, true},
		{"not found", ErrPinNotFound, false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := IsState(test.err); got != test.expected {
				t.Errorf("IsState(%v) = %v, expected %v", test.err, got, test.expected)
			}
		})
	}
}

func TestIsUnresolvedAlias(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"undeclared", ErrAliasUndeclared, true},
		{"failed creation", ErrAliasFailed, true},
		{"duplicate", ErrDuplicateAlias, true},
		{"not found", ErrNodeNotFound, false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := IsUnresolvedAlias(test.err); got != test.expected {
				t.Errorf("IsUnresolvedAlias(%v) = %v, expected %v", test.err, got, test.expected)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected ErrorClass
	}{
		{"nil defaults to validation", nil, ErrorValidation},
		{"missing param", ErrMissingParam, ErrorValidation},
		{"node not found", ErrNodeNotFound, ErrorNotFound},
		{"incompatible", ErrIncompatibleDirection, ErrorIncompatible},
		{"state", ErrPinNotSplit, ErrorState},
		{"alias", ErrAliasUndeclared, ErrorUnresolvedAlias},
		{"unknown defaults to validation", errors.New("mystery"), ErrorValidation},
		{
			"classified wins over message",
			WrapState(errors.New("node not found in removable set"), "Graph", "RemoveNode", "state check"),
			ErrorState,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := Classify(test.err); got != test.expected {
				t.Errorf("Classify(%v) = %v, expected %v", test.err, got, test.expected)
			}
		})
	}
}

func TestWrap(t *testing.T) {
	base := errors.New("underlying failure")
	wrapped := Wrap(base, "Engine", "createPhase", "node construction")

	if wrapped == nil {
		t.Fatal("expected non-nil wrapped error")
	}
	if !errors.Is(wrapped, base) {
		t.Error("wrapped error should match underlying with errors.Is")
	}
	expected := "Engine.createPhase: node construction failed: underlying failure"
	if wrapped.Error() != expected {
		t.Errorf("expected %q, got %q", expected, wrapped.Error())
	}
	if Wrap(nil, "Engine", "createPhase", "anything") != nil {
		t.Error("wrapping nil should return nil")
	}
}

func TestWrapClassified(t *testing.T) {
	base := errors.New("base")

	tests := []struct {
		name  string
		wrap  func(error, string, string, string) error
		class ErrorClass
	}{
		{"validation", WrapValidation, ErrorValidation},
		{"not found", WrapNotFound, ErrorNotFound},
		{"incompatible", WrapIncompatible, ErrorIncompatible},
		{"state", WrapState, ErrorState},
		{"unresolved", WrapUnresolved, ErrorUnresolvedAlias},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := test.wrap(base, "Component", "Method", "action")

			var ce *ClassifiedError
			if !errors.As(err, &ce) {
				t.Fatal("expected a ClassifiedError")
			}
			if ce.Class != test.class {
				t.Errorf("expected class %v, got %v", test.class, ce.Class)
			}
			if ce.Component != "Component" {
				t.Errorf("expected component context, got %q", ce.Component)
			}
			if !errors.Is(err, base) {
				t.Error("classified error should unwrap to base")
			}
			if !strings.Contains(err.Error(), "Component.Method") {
				t.Errorf("expected component.method context in message, got %q", err.Error())
			}
			if test.wrap(nil, "Component", "Method", "action") != nil {
				t.Error("wrapping nil should return nil")
			}
		})
	}
}
