package locator

import (
	"context"
	"errors"
	"fmt"

	"ui_automation/domain/entities"
	"ui_automation/domain/interfaces"
)

// LocateResult is the outcome of a strategy. It is a closed set: Missing,
// *XPathResult or *SubsequentResult.
type LocateResult interface {
	locateResult()
}

// Missing reports that the strategy found nothing to search for.
type Missing struct {
	// Description tells what was looked for, used in diagnostics.
	Description string
}

func (Missing) locateResult() {}

// XPathResult is a resolved XPath evaluated against Root. A nil Root is the
// document.
type XPathResult struct {
	XPath         string
	Root          interfaces.Element
	SearchOptions entities.SearchOptions
}

func (*XPathResult) locateResult() {}

// Selector returns the XPath with an optional extra condition appended.
func (r *XPathResult) Selector(condition string) string {
	return r.XPath + condition
}

// DeferredLocator produces the scope sources of a SubsequentResult lazily.
type DeferredLocator func(ctx context.Context, opts entities.SearchOptions) ([]interfaces.Element, error)

// SubsequentResult names a further strategy to run against newly found scope
// roots. Exactly one of ScopeSources and Deferred is set.
type SubsequentResult struct {
	Strategy     Strategy
	ScopeSources []interfaces.Element
	Deferred     DeferredLocator
	Options      entities.LocateOptions
	// SearchOptions overrides the inherited search options when set.
	SearchOptions *entities.SearchOptions
}

func (*SubsequentResult) locateResult() {}

var errInvalidSubsequent = errors.New("invalid subsequent result")

func (r *SubsequentResult) validate() error {
	if r.Strategy == nil {
		return fmt.Errorf("%w: no strategy", errInvalidSubsequent)
	}
	hasSources := len(r.ScopeSources) > 0
	hasDeferred := r.Deferred != nil
	if hasSources == hasDeferred {
		return fmt.Errorf("%w: exactly one of scope sources and deferred locator must be set", errInvalidSubsequent)
	}
	return nil
}
