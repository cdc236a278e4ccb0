package locator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"ui_automation/domain/entities"
	"ui_automation/domain/interfaces"
)

// searcher polls a Session until a lookup is satisfied or the search budget
// of the options is spent.
type searcher struct {
	session interfaces.Session
	log     logrus.FieldLogger
}

// poll evaluates cond until it reports true, fails, or the timeout elapses.
// cond always runs at least once and once more at the deadline, so a false
// result is never returned before the timeout.
func poll(ctx context.Context, opts entities.SearchOptions, cond func() (bool, error)) (bool, error) {
	timeout := opts.TimeoutValue()
	interval := opts.RetryIntervalValue()
	deadline := time.Now().Add(timeout)
	for {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		ok, err := cond()
		if err != nil || ok {
			return ok, err
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return false, nil
		}
		wait := interval
		if wait <= 0 || wait > remaining {
			wait = remaining
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return false, ctx.Err()
		case <-timer.C:
		}
	}
}

// findOnce performs a single lookup filtered by visibility. A stale root
// yields no elements.
func (s *searcher) findOnce(ctx context.Context, root interfaces.Element, by interfaces.By, selector string, visibility entities.Visibility) ([]interfaces.Element, error) {
	found, err := s.session.FindElements(ctx, root, by, selector)
	if err != nil {
		if errors.Is(err, interfaces.ErrStaleElement) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find elements by %s %q: %w", by, selector, err)
	}
	return s.filterVisibility(ctx, found, visibility)
}

func (s *searcher) filterVisibility(ctx context.Context, elements []interfaces.Element, visibility entities.Visibility) ([]interfaces.Element, error) {
	if visibility == entities.VisibilityAny || len(elements) == 0 {
		return elements, nil
	}
	filtered := make([]interfaces.Element, 0, len(elements))
	for _, el := range elements {
		displayed, err := s.session.IsDisplayed(ctx, el)
		if err != nil {
			if errors.Is(err, interfaces.ErrStaleElement) {
				continue
			}
			return nil, fmt.Errorf("failed to check visibility: %w", err)
		}
		if displayed == (visibility == entities.VisibilityVisible) {
			filtered = append(filtered, el)
		}
	}
	return filtered, nil
}

// findAll polls until at least one element matches. Sustained absence
// returns no elements and no error; only backend failures are errors.
func (s *searcher) findAll(ctx context.Context, root interfaces.Element, by interfaces.By, selector string, opts entities.SearchOptions) ([]interfaces.Element, error) {
	var found []interfaces.Element
	_, err := poll(ctx, opts, func() (bool, error) {
		var err error
		found, err = s.findOnce(ctx, root, by, selector, opts.VisibilityValue())
		return len(found) > 0, err
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

// findFirst is findAll reduced to its first element; nil when absent.
func (s *searcher) findFirst(ctx context.Context, root interfaces.Element, by interfaces.By, selector string, opts entities.SearchOptions) (interfaces.Element, error) {
	found, err := s.findAll(ctx, root, by, selector, opts)
	if err != nil || len(found) == 0 {
		return nil, err
	}
	return found[0], nil
}

// get resolves the first element of an XPath result using its own search
// options.
func (s *searcher) get(ctx context.Context, r *XPathResult, condition string) (interfaces.Element, error) {
	return s.findFirst(ctx, r.Root, interfaces.ByXPath, r.Selector(condition), r.SearchOptions)
}

// getAll resolves every element of an XPath result in a single attempt.
func (s *searcher) getAll(ctx context.Context, r *XPathResult, condition string) ([]interfaces.Element, error) {
	return s.findAll(ctx, r.Root, interfaces.ByXPath, r.Selector(condition), r.SearchOptions.SafelyAtOnce())
}

// exists reports whether the XPath result currently matches an element.
func (s *searcher) exists(ctx context.Context, r *XPathResult) (bool, error) {
	found, err := s.findOnce(ctx, r.Root, interfaces.ByXPath, r.XPath, r.SearchOptions.VisibilityValue())
	return len(found) > 0, err
}

// scriptElements polls a script until it returns at least one element.
func (s *searcher) scriptElements(ctx context.Context, script string, root interfaces.Element, opts entities.SearchOptions) ([]interfaces.Element, error) {
	args := []interface{}{root}
	var found []interfaces.Element
	_, err := poll(ctx, opts, func() (bool, error) {
		elements, err := s.session.ExecuteScriptElements(ctx, script, args...)
		if err != nil {
			if errors.Is(err, interfaces.ErrStaleElement) {
				return false, nil
			}
			return false, fmt.Errorf("script execution failed: %w", err)
		}
		found, err = s.filterVisibility(ctx, elements, opts.VisibilityValue())
		return len(found) > 0, err
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}
