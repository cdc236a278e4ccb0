package locator

import (
	"context"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"ui_automation/domain/entities"
	"ui_automation/domain/interfaces"
)

// maxParentDepth bounds parent chain walks.
const maxParentDepth = 64

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for search diagnostics.
func WithLogger(log logrus.FieldLogger) Option {
	return func(e *Engine) {
		e.log = log
	}
}

// WithDefaults sets the search options used for fields that neither the
// caller nor the component declares.
func WithDefaults(opts entities.SearchOptions) Option {
	return func(e *Engine) {
		e.defaults = opts
	}
}

// Engine locates registered components in a browser session.
type Engine struct {
	session  interfaces.Session
	provider interfaces.DescriptorProvider
	defaults entities.SearchOptions
	log      logrus.FieldLogger

	search   *searcher
	executor *Executor
}

// NewEngine - creates an engine over a session and a descriptor table
func NewEngine(session interfaces.Session, provider interfaces.DescriptorProvider, opts ...Option) *Engine {
	e := &Engine{
		session:  session,
		provider: provider,
		log:      discardLogger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.search = &searcher{session: session, log: e.log}
	e.executor = &Executor{session: session, search: e.search, scopes: e, log: e.log}
	return e
}

// Session returns the browser session the engine searches.
func (e *Engine) Session() interfaces.Session {
	return e.session
}

// For returns the locator of a registered component.
func (e *Engine) For(component string) *Locator {
	return &Locator{engine: e, component: component}
}

// ResolveScope locates the root a component search starts from.
func (e *Engine) ResolveScope(ctx context.Context, component string, source entities.ScopeSource, opts entities.SearchOptions) (interfaces.Element, bool, error) {
	d, err := e.provider.Descriptor(component)
	if err != nil {
		return nil, false, err
	}

	var target string
	switch source {
	case "", entities.ScopeParent:
		target = d.Parent
	case entities.ScopeGrandparent:
		if d.Parent != "" {
			parent, err := e.provider.Descriptor(d.Parent)
			if err != nil {
				return nil, false, err
			}
			target = parent.Parent
		}
	case entities.ScopePageObject:
		if target, err = e.topmost(d); err != nil {
			return nil, false, err
		}
	case entities.ScopePage:
	default:
		return nil, false, fmt.Errorf("%w: unknown scope source %q", entities.ErrMalformedDescriptor, source)
	}

	if target == "" {
		return nil, true, nil
	}
	el, err := e.For(target).Locate(ctx, opts, "")
	if err != nil {
		return nil, false, err
	}
	return el, el != nil, nil
}

// topmost returns the root of the parent chain of d, "" when d has no parent.
func (e *Engine) topmost(d entities.ComponentDescriptor) (string, error) {
	current := d
	for depth := 0; current.Parent != ""; depth++ {
		if depth >= maxParentDepth {
			return "", fmt.Errorf("%w: parent chain of %q is too deep", entities.ErrMalformedDescriptor, d.Name)
		}
		parent, err := e.provider.Descriptor(current.Parent)
		if err != nil {
			return "", err
		}
		current = parent
	}
	if current.Name == d.Name {
		return "", nil
	}
	return current.Name, nil
}

// Locator is the public face of one component: Locate, LocateAll and
// IsAbsent.
type Locator struct {
	engine    *Engine
	component string
}

// Component returns the registered component name.
func (l *Locator) Component() string {
	return l.component
}

func (l *Locator) collector() *ExecutionDataCollector {
	return &ExecutionDataCollector{
		component: l.component,
		provider:  l.engine.provider,
		defaults:  l.engine.defaults,
		search:    l.engine.search,
	}
}

// Locate returns the first element of the component. condition is an XPath
// fragment appended to the final selector, e.g. "[@disabled]". When nothing
// is found it returns ElementNotFoundError, or nil without error when opts
// are safe.
func (l *Locator) Locate(ctx context.Context, opts entities.SearchOptions, condition string) (interfaces.Element, error) {
	data, err := l.collector().Get(opts)
	if err != nil {
		return nil, err
	}
	results, err := l.engine.executor.Execute(ctx, data)
	if err != nil {
		return nil, err
	}
	for _, r := range results {
		el, err := l.engine.search.get(ctx, r, condition)
		if err != nil {
			return nil, err
		}
		if el != nil {
			return el, nil
		}
	}
	if data.Safely {
		return nil, nil
	}

	selector := ""
	if len(results) > 0 {
		selector = results[0].Selector(condition)
	}
	return nil, &entities.ElementNotFoundError{
		Component: l.component,
		Layer:     "final step",
		Selector:  selector,
		Options:   data.Final.SearchOptions,
	}
}

// LocateAll returns every element of the component, in candidate order.
// Each candidate is queried once, without waiting.
func (l *Locator) LocateAll(ctx context.Context, opts entities.SearchOptions, condition string) ([]interfaces.Element, error) {
	data, err := l.collector().Get(opts)
	if err != nil {
		return nil, err
	}
	results, err := l.engine.executor.Execute(ctx, data)
	if err != nil {
		return nil, err
	}
	var all []interfaces.Element
	for _, r := range results {
		elements, err := l.engine.search.getAll(ctx, r, condition)
		if err != nil {
			return nil, err
		}
		all = append(all, elements...)
	}
	return all, nil
}

// IsAbsent waits until the component cannot be found. Each probe is a
// single error-suppressed lookup; probes repeat within the caller's budget.
// On timeout it returns ElementNotMissingError, or false when opts are safe.
func (l *Locator) IsAbsent(ctx context.Context, opts entities.SearchOptions) (bool, error) {
	collector := l.collector()
	data, err := collector.Get(opts)
	if err != nil {
		return false, err
	}
	budget := data.Final.SearchOptions
	probe := opts.Apply(entities.SearchOptions{}.SafelyAtOnce())

	var present string
	absent, err := poll(ctx, budget, func() (bool, error) {
		probeData, err := collector.Get(probe)
		if err != nil {
			return false, err
		}
		results, err := l.engine.executor.Execute(ctx, probeData)
		if err != nil {
			return false, err
		}
		for _, r := range results {
			elements, err := l.engine.search.getAll(ctx, r, "")
			if err != nil {
				return false, err
			}
			if len(elements) > 0 {
				present = r.XPath
				return false, nil
			}
		}
		return true, nil
	})
	if err != nil {
		return false, err
	}
	if absent {
		return true, nil
	}
	if data.Safely {
		return false, nil
	}
	return false, &entities.ElementNotMissingError{
		Component: l.component,
		Selector:  present,
		Options:   budget,
	}
}

func discardLogger() logrus.FieldLogger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}
