package registry

import (
	"time"

	"gopkg.in/guregu/null.v3"

	"ui_automation/domain/entities"
)

// Step builds one locate descriptor. Methods modify and return the receiver
// so that a step reads as a single expression.
type Step struct {
	layer entities.LayerDescriptor
}

// By - starts a step with a strategy and its terms
func By(kind entities.StrategyKind, terms ...string) *Step {
	return &Step{layer: entities.LayerDescriptor{
		LocateDescriptor: entities.LocateDescriptor{
			Strategy: kind,
			Terms:    terms,
		},
	}}
}

func ByID(ids ...string) *Step { return By(entities.StrategyID, ids...) }
func ByName(names ...string) *Step { return By(entities.StrategyName, names...) }
func ByClass(classes ...string) *Step { return By(entities.StrategyClass, classes...) }
func ByCSS(selectors ...string) *Step { return By(entities.StrategyCSS, selectors...) }
func ByXPath(paths ...string) *Step { return By(entities.StrategyXPath, paths...) }
func ByLabel(labels ...string) *Step { return By(entities.StrategyLabel, labels...) }
func ByFieldSet(legends ...string) *Step { return By(entities.StrategyFieldSet, legends...) }
func ByContent(texts ...string) *Step { return By(entities.StrategyContent, texts...) }
func ByScript(script string) *Step { return By(entities.StrategyScript, script) }

// ByAttribute matches the values of an arbitrary attribute.
func ByAttribute(name string, values ...string) *Step {
	return By(entities.StrategyAttribute, values...).Attribute(name)
}

// ByIndex selects the index-th element matching the element XPath.
func ByIndex(index int) *Step {
	return By(entities.StrategyIndex).Index(index)
}

func (s *Step) Match(m entities.MatchMode) *Step {
	s.layer.Match = m
	return s
}

func (s *Step) Index(i int) *Step {
	s.layer.Index = null.IntFrom(int64(i))
	return s
}

// Element sets the element XPath, "*" when unset.
func (s *Step) Element(x string) *Step {
	s.layer.ElementXPath = x
	return s
}

// Outer sets the outer XPath prefixed to the element XPath.
func (s *Step) Outer(x string) *Step {
	s.layer.OuterXPath = x
	return s
}

func (s *Step) Visibility(v entities.Visibility) *Step {
	s.layer.Visibility = entities.NullVisibilityFrom(v)
	return s
}

func (s *Step) Timeout(d time.Duration) *Step {
	s.layer.Timeout = entities.NullDurationFrom(d)
	return s
}

func (s *Step) Retry(d time.Duration) *Step {
	s.layer.RetryInterval = entities.NullDurationFrom(d)
	return s
}

func (s *Step) Attribute(name string) *Step {
	s.layer.Attribute = name
	return s
}

func (s *Step) Scope(source entities.ScopeSource) *Step {
	s.layer.Scope = source
	return s
}

// Resolver sets how the element of a layer becomes the next search root.
// It is ignored on final steps.
func (s *Step) Resolver(kind entities.ResolverKind) *Step {
	s.layer.Resolver = kind
	return s
}

// ComponentBuilder assembles a ComponentDescriptor.
type ComponentBuilder struct {
	d entities.ComponentDescriptor
}

// NewComponent - starts the descriptor of a named component
func NewComponent(name string) *ComponentBuilder {
	return &ComponentBuilder{d: entities.ComponentDescriptor{Name: name}}
}

func (b *ComponentBuilder) Parent(name string) *ComponentBuilder {
	b.d.Parent = name
	return b
}

// Layer appends an intermediate step.
func (b *ComponentBuilder) Layer(step *Step) *ComponentBuilder {
	layer := step.layer
	layer.Terms = append([]string(nil), layer.Terms...)
	b.d.Layers = append(b.d.Layers, layer)
	return b
}

func (b *ComponentBuilder) Final(step *Step) *ComponentBuilder {
	b.d.Final = step.layer.LocateDescriptor
	b.d.Final.Terms = append([]string(nil), b.d.Final.Terms...)
	return b
}

// Build returns the descriptor. The builder can keep being used.
func (b *ComponentBuilder) Build() entities.ComponentDescriptor {
	d := b.d
	d.Layers = append([]entities.LayerDescriptor(nil), b.d.Layers...)
	return d
}
