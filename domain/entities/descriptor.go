package entities

import (
	"gopkg.in/guregu/null.v3"
)

// StrategyKind names one of the built-in locate strategies
type StrategyKind string

const (
	StrategyID          StrategyKind = "id"
	StrategyName        StrategyKind = "name"
	StrategyClass       StrategyKind = "class"
	StrategyCSS         StrategyKind = "css"
	StrategyXPath       StrategyKind = "xpath"
	StrategyIndex       StrategyKind = "index"
	StrategyLabel       StrategyKind = "label"
	StrategyFieldSet    StrategyKind = "fieldset"
	StrategyScript      StrategyKind = "script"
	StrategyContent     StrategyKind = "content"
	StrategyValue       StrategyKind = "value"
	StrategyTitle       StrategyKind = "title"
	StrategyPlaceholder StrategyKind = "placeholder"
	StrategyAttribute   StrategyKind = "attribute"
	StrategyFirst       StrategyKind = "first"
	StrategyLast        StrategyKind = "last"
)

// StrategyKinds lists every known strategy kind.
var StrategyKinds = []StrategyKind{
	StrategyID, StrategyName, StrategyClass, StrategyCSS, StrategyXPath,
	StrategyIndex, StrategyLabel, StrategyFieldSet, StrategyScript,
	StrategyContent, StrategyValue, StrategyTitle, StrategyPlaceholder,
	StrategyAttribute, StrategyFirst, StrategyLast,
}

// Known reports whether k is a built-in strategy.
func (k StrategyKind) Known() bool {
	for _, known := range StrategyKinds {
		if k == known {
			return true
		}
	}
	return false
}

// RequiresTerms reports whether the strategy is meaningless without terms.
func (k StrategyKind) RequiresTerms() bool {
	switch k {
	case StrategyIndex, StrategyFirst, StrategyLast:
		return false
	default:
		return true
	}
}

// ResolverKind names how a resolved layer element becomes the next search root
type ResolverKind string

const (
	ResolverParent     ResolverKind = "parent"
	ResolverSibling    ResolverKind = "sibling"
	ResolverAncestor   ResolverKind = "ancestor"
	ResolverShadowHost ResolverKind = "shadowhost"
)

// Known reports whether k is a built-in resolver ("" counts as parent).
func (k ResolverKind) Known() bool {
	switch k {
	case "", ResolverParent, ResolverSibling, ResolverAncestor, ResolverShadowHost:
		return true
	}
	return false
}

// ScopeSource tells where the search for a component starts
type ScopeSource string

const (
	ScopeParent      ScopeSource = "parent"
	ScopeGrandparent ScopeSource = "grandparent"
	ScopePageObject  ScopeSource = "pageobject"
	ScopePage        ScopeSource = "page"
)

// Known reports whether s is a built-in scope source ("" means undeclared).
func (s ScopeSource) Known() bool {
	switch s {
	case "", ScopeParent, ScopeGrandparent, ScopePageObject, ScopePage:
		return true
	}
	return false
}

// LocateDescriptor is the declared metadata of one location step.
type LocateDescriptor struct {
	Strategy StrategyKind
	Terms    []string
	Match    MatchMode
	// Attribute is the attribute name used by StrategyAttribute.
	Attribute     string
	ElementXPath  string
	OuterXPath    string
	Index         null.Int
	Visibility    NullVisibility
	Timeout       NullDuration
	RetryInterval NullDuration
	Scope         ScopeSource
}

// LocateOptions extracts the locate part of the descriptor.
func (d LocateDescriptor) LocateOptions() LocateOptions {
	return LocateOptions{
		Terms:        append([]string(nil), d.Terms...),
		Match:        d.Match,
		ElementXPath: d.ElementXPath,
		OuterXPath:   d.OuterXPath,
		Index:        d.Index,
	}
}

// SearchOptions extracts the declared polling part of the descriptor.
func (d LocateDescriptor) SearchOptions() SearchOptions {
	return SearchOptions{
		Timeout:       d.Timeout,
		RetryInterval: d.RetryInterval,
		Visibility:    d.Visibility,
	}
}

// LayerDescriptor is an intermediate step narrowing the search root.
type LayerDescriptor struct {
	LocateDescriptor
	Resolver ResolverKind
}

// ComponentDescriptor is the full locate description of a component: layers
// ordered outer to inner, then the final step.
type ComponentDescriptor struct {
	Name   string
	Parent string
	Layers []LayerDescriptor
	Final  LocateDescriptor
}
