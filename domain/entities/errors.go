package entities

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMalformedDescriptor marks invalid locate metadata. It is fatal.
	ErrMalformedDescriptor = errors.New("malformed locate descriptor")
	// ErrUnknownComponent is returned for components missing from the table.
	ErrUnknownComponent = errors.New("unknown component")
	// ErrNoShadowRoot is returned when a shadow host has no open shadow root.
	ErrNoShadowRoot = errors.New("element has no shadow root")
	// ErrEmptyShadowRoot is returned when a shadow root holds no usable child.
	ErrEmptyShadowRoot = errors.New("shadow root has no content element")
)

// ElementNotFoundError is raised when an expected element did not show up
// within the search budget.
type ElementNotFoundError struct {
	Component string
	// Layer describes the failing step, e.g. "layer 1" or "final".
	Layer    string
	Selector string
	Options  SearchOptions
	Cause    error
}

func (e *ElementNotFoundError) Error() string {
	var b strings.Builder
	b.WriteString("unable to locate element")
	if e.Layer != "" {
		fmt.Fprintf(&b, ": %s", e.Layer)
	}
	if e.Component != "" {
		fmt.Fprintf(&b, " of %q", e.Component)
	}
	if e.Selector != "" {
		fmt.Fprintf(&b, " using %s", e.Selector)
	}
	fmt.Fprintf(&b, " (%s)", e.Options)
	if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}
	return b.String()
}

func (e *ElementNotFoundError) Unwrap() error { return e.Cause }

// ElementNotMissingError is raised when an element expected to be absent is
// still present after the search budget.
type ElementNotMissingError struct {
	Component string
	Selector  string
	Options   SearchOptions
}

func (e *ElementNotMissingError) Error() string {
	msg := "element is still present"
	if e.Component != "" {
		msg += fmt.Sprintf(": %q", e.Component)
	}
	if e.Selector != "" {
		msg += " using " + e.Selector
	}
	return fmt.Sprintf("%s (%s)", msg, e.Options)
}

// IsNotFound reports whether err is or wraps an ElementNotFoundError.
func IsNotFound(err error) bool {
	var nf *ElementNotFoundError
	return errors.As(err, &nf)
}

// IsNotMissing reports whether err is or wraps an ElementNotMissingError.
func IsNotMissing(err error) bool {
	var nm *ElementNotMissingError
	return errors.As(err, &nm)
}
