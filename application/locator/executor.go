package locator

import (
	"context"
	"errors"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"

	"ui_automation/domain/entities"
	"ui_automation/domain/interfaces"
)

// ScopeResolver provides the root a component search starts from. found is
// false when the scope could not be located and the call is safe.
type ScopeResolver interface {
	ResolveScope(ctx context.Context, component string, source entities.ScopeSource, opts entities.SearchOptions) (root interfaces.Element, found bool, err error)
}

// Executor runs execution data against a session.
type Executor struct {
	session interfaces.Session
	search  *searcher
	scopes  ScopeResolver
	log     logrus.FieldLogger
}

// NewExecutor - creates an executor. A nil ScopeResolver starts every search
// at the document.
func NewExecutor(session interfaces.Session, scopes ScopeResolver, log logrus.FieldLogger) *Executor {
	if log == nil {
		log = discardLogger()
	}
	return &Executor{
		session: session,
		search:  &searcher{session: session, log: log},
		scopes:  scopes,
		log:     log,
	}
}

// Execute walks the layers, committing to the first live candidate of each
// one, and returns every candidate of the final step. Committed layers are
// never revisited: a later failure does not retry other candidates of an
// earlier layer.
func (x *Executor) Execute(ctx context.Context, data ExecutionData) ([]*XPathResult, error) {
	root, found, err := x.initialScope(ctx, data)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}

	for i, layer := range data.Layers {
		name := fmt.Sprintf("layer %d", i+1)
		result, err := layer.Strategy.Find(ctx, root, layer.LocateOptions, layer.SearchOptions)
		if err != nil {
			return nil, fmt.Errorf("%s of %q: %w", name, data.Component, err)
		}
		candidates, err := x.ResolveResult(ctx, result, layer.SearchOptions)
		if err != nil {
			return nil, annotate(err, data.Component, name)
		}

		var element interfaces.Element
		for _, candidate := range candidates {
			element, err = x.search.get(ctx, candidate, "")
			if err != nil {
				return nil, err
			}
			if element != nil {
				break
			}
		}
		if element == nil {
			selector := describe(result, candidates)
			entry := x.log.WithFields(logrus.Fields{
				"component":  data.Component,
				"layer":      i + 1,
				"selector":   selector,
				"candidates": len(candidates),
				"options":    layer.SearchOptions.String(),
			})
			if data.Safely {
				entry.Debug("layer search failed")
				return nil, nil
			}
			entry.Warn("layer search failed")
			return nil, &entities.ElementNotFoundError{
				Component: data.Component,
				Layer:     name,
				Selector:  selector,
				Options:   layer.SearchOptions,
			}
		}

		root, err = layer.ContextResolver.Resolve(ctx, element, x.session)
		if err != nil {
			return nil, fmt.Errorf("%s of %q: %w", name, data.Component, err)
		}
	}

	final := data.Final
	result, err := final.Strategy.Find(ctx, root, final.LocateOptions, final.SearchOptions)
	if err != nil {
		return nil, fmt.Errorf("final step of %q: %w", data.Component, err)
	}
	results, err := x.ResolveResult(ctx, result, final.SearchOptions)
	if err != nil {
		return nil, annotate(err, data.Component, "final step")
	}
	return results, nil
}

// ResolveResult flattens a locate result into XPath results. Subsequent
// results with several scope sources are fanned out sequentially with a
// single error-suppressed attempt per source, keeping the sources' order.
func (x *Executor) ResolveResult(ctx context.Context, result LocateResult, search entities.SearchOptions) ([]*XPathResult, error) {
	switch r := result.(type) {
	case Missing:
		return nil, nil
	case *XPathResult:
		return []*XPathResult{r}, nil
	case *SubsequentResult:
		return x.resolveSubsequent(ctx, r, search)
	default:
		return nil, fmt.Errorf("unexpected locate result %T", result)
	}
}

func (x *Executor) resolveSubsequent(ctx context.Context, r *SubsequentResult, search entities.SearchOptions) ([]*XPathResult, error) {
	if err := r.validate(); err != nil {
		return nil, err
	}
	if r.SearchOptions != nil {
		search = *r.SearchOptions
	}

	sources := r.ScopeSources
	if r.Deferred != nil {
		var err error
		if sources, err = r.Deferred(ctx, search); err != nil {
			return nil, err
		}
	}

	switch len(sources) {
	case 0:
		return nil, nil
	case 1:
		next, err := r.Strategy.Find(ctx, sources[0], r.Options.Clone(), search)
		if err != nil {
			return nil, err
		}
		return x.ResolveResult(ctx, next, search)
	}
	return x.fanOut(ctx, r, sources, search)
}

func (x *Executor) fanOut(ctx context.Context, r *SubsequentResult, sources []interfaces.Element, search entities.SearchOptions) ([]*XPathResult, error) {
	downgraded := search.SafelyAtOnce()

	var (
		results      []*XPathResult
		misses       *multierror.Error
		firstFailing string
	)
	for i, source := range sources {
		next, err := r.Strategy.Find(ctx, source, r.Options.Clone(), downgraded)
		if err != nil {
			return nil, err
		}
		candidates, err := x.ResolveResult(ctx, next, downgraded)
		if err != nil {
			return nil, err
		}

		matched := 0
		for _, candidate := range candidates {
			ok, err := x.search.exists(ctx, candidate)
			if err != nil {
				return nil, err
			}
			if ok {
				results = append(results, candidate)
				matched++
			}
		}
		if matched == 0 {
			selector := describe(next, candidates)
			if firstFailing == "" {
				firstFailing = selector
			}
			misses = multierror.Append(misses, fmt.Errorf("candidate %d: nothing matches %s", i+1, selector))
		}
	}

	x.log.WithFields(logrus.Fields{
		"sources": len(sources),
		"matched": len(results),
	}).Debug("resolved subsequent result")

	if len(results) > 0 {
		return results, nil
	}
	if search.IsSafely() {
		return nil, nil
	}
	return nil, &entities.ElementNotFoundError{
		Selector: firstFailing,
		Options:  search,
		Cause:    misses.ErrorOrNil(),
	}
}

func (x *Executor) initialScope(ctx context.Context, data ExecutionData) (interfaces.Element, bool, error) {
	if data.ScopeSource == entities.ScopePage || x.scopes == nil {
		return nil, true, nil
	}
	return x.scopes.ResolveScope(ctx, data.Component, data.ScopeSource, data.SearchOptions.WithSafely(data.Safely))
}

// describe returns the most specific selector known for a failed step.
func describe(result LocateResult, candidates []*XPathResult) string {
	if len(candidates) > 0 {
		return candidates[0].XPath
	}
	switch r := result.(type) {
	case Missing:
		return r.Description
	case *XPathResult:
		return r.XPath
	}
	return ""
}

func annotate(err error, component, layer string) error {
	var nf *entities.ElementNotFoundError
	if errors.As(err, &nf) && nf.Component == "" {
		nf.Component = component
		nf.Layer = layer
	}
	return err
}
