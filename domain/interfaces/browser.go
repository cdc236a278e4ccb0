package interfaces

import (
	"context"
	"errors"

	"ui_automation/domain/entities"
)

// ErrStaleElement is returned when an element handle no longer belongs to
// the live document.
var ErrStaleElement = errors.New("stale element reference")

// By selects the selector language of a lookup
type By string

const (
	ByXPath By = "xpath"
	ByCSS   By = "css"
)

// Element is a handle to one rendered node of the live document
type Element interface {
	// ID returns an identifier that is stable for the lifetime of the handle
	ID() string
}

// Session defines the browser search backend the locator engine polls.
// Lookups are single attempts; polling is done by the caller.
type Session interface {
	// FindElements finds elements matching selector under root. A nil root
	// searches the whole document.
	FindElements(ctx context.Context, root Element, by By, selector string) ([]Element, error)

	// IsDisplayed reports whether the element is rendered visibly
	IsDisplayed(ctx context.Context, el Element) (bool, error)

	// IsAttached reports whether the element is still part of the document
	IsAttached(ctx context.Context, el Element) (bool, error)

	// Attribute returns an attribute value, "" when absent
	Attribute(ctx context.Context, el Element, name string) (string, error)

	// ExecuteScript runs a function body that reads its arguments from
	// `arguments` and returns a JSON-compatible value
	ExecuteScript(ctx context.Context, script string, args ...interface{}) (interface{}, error)

	// ExecuteScriptElements is like ExecuteScript for scripts returning an
	// element or an array of elements. A null result yields a nil slice,
	// an empty array a non-nil empty one.
	ExecuteScriptElements(ctx context.Context, script string, args ...interface{}) ([]Element, error)

	// Describe extracts a report-friendly description of the element
	Describe(ctx context.Context, el Element) (entities.PageElement, error)

	// Navigate loads a document
	Navigate(ctx context.Context, url string) error

	// Close releases the session
	Close() error
}
