package locator

import (
	"context"
	"fmt"
	"strings"

	"ui_automation/application/xpath"
	"ui_automation/domain/entities"
	"ui_automation/domain/interfaces"
)

// Strategy finds the target of one locate step under root. Absence is
// reported as Missing; an error is always fatal.
type Strategy interface {
	Find(ctx context.Context, root interfaces.Element, opts entities.LocateOptions, search entities.SearchOptions) (LocateResult, error)
}

// StrategyFunc adapts a function to a Strategy. It is the extension point
// for lookups the built-in kinds do not cover.
type StrategyFunc func(ctx context.Context, root interfaces.Element, opts entities.LocateOptions, search entities.SearchOptions) (LocateResult, error)

func (f StrategyFunc) Find(ctx context.Context, root interfaces.Element, opts entities.LocateOptions, search entities.SearchOptions) (LocateResult, error) {
	return f(ctx, root, opts, search)
}

// newStrategy maps a declared kind to its implementation.
func newStrategy(kind entities.StrategyKind, attribute string, s *searcher) (Strategy, error) {
	switch kind {
	case entities.StrategyID:
		return attributeStrategy{target: "@id"}, nil
	case entities.StrategyName:
		return attributeStrategy{target: "@name"}, nil
	case entities.StrategyValue:
		return attributeStrategy{target: "@value"}, nil
	case entities.StrategyTitle:
		return attributeStrategy{target: "@title"}, nil
	case entities.StrategyPlaceholder:
		return attributeStrategy{target: "@placeholder"}, nil
	case entities.StrategyAttribute:
		if attribute == "" {
			return nil, fmt.Errorf("%w: attribute strategy without attribute name", entities.ErrMalformedDescriptor)
		}
		return attributeStrategy{target: "@" + attribute}, nil
	case entities.StrategyContent:
		return attributeStrategy{target: "normalize-space(.)"}, nil
	case entities.StrategyClass:
		return classStrategy{}, nil
	case entities.StrategyXPath:
		return xpathStrategy{}, nil
	case entities.StrategyIndex:
		return positionStrategy{requireIndex: true}, nil
	case entities.StrategyFirst:
		return positionStrategy{}, nil
	case entities.StrategyLast:
		return positionStrategy{last: true}, nil
	case entities.StrategyCSS:
		return cssStrategy{search: s}, nil
	case entities.StrategyLabel:
		return labelStrategy{search: s}, nil
	case entities.StrategyFieldSet:
		return fieldSetStrategy{search: s}, nil
	case entities.StrategyScript:
		return scriptStrategy{search: s}, nil
	default:
		return nil, fmt.Errorf("%w: unknown strategy %q", entities.ErrMalformedDescriptor, kind)
	}
}

func newXPathResult(root interfaces.Element, opts entities.LocateOptions, search entities.SearchOptions, path string) *XPathResult {
	if index, ok := opts.IndexValue(); ok {
		path = xpath.WrapWithIndex(path, index)
	}
	return &XPathResult{XPath: path, Root: root, SearchOptions: search}
}

// attributeStrategy compares terms with an attribute or another string
// expression of the element.
type attributeStrategy struct {
	target string
}

func (st attributeStrategy) Find(_ context.Context, root interfaces.Element, opts entities.LocateOptions, search entities.SearchOptions) (LocateResult, error) {
	condition := xpath.TermsCondition(opts.Terms, st.target, opts.MatchValue())
	return newXPathResult(root, opts, search, xpath.Path(opts.OuterXPath, opts.ElementXPathValue(), condition)), nil
}

type classStrategy struct{}

func (classStrategy) Find(_ context.Context, root interfaces.Element, opts entities.LocateOptions, search entities.SearchOptions) (LocateResult, error) {
	condition := xpath.ClassCondition(opts.Terms, opts.MatchValue())
	return newXPathResult(root, opts, search, xpath.Path(opts.OuterXPath, opts.ElementXPathValue(), condition)), nil
}

// xpathStrategy treats every term as an XPath. Relative terms are prefixed
// with the outer XPath, absolute ones are used verbatim.
type xpathStrategy struct{}

func (xpathStrategy) Find(_ context.Context, root interfaces.Element, opts entities.LocateOptions, search entities.SearchOptions) (LocateResult, error) {
	paths := make([]string, 0, len(opts.Terms))
	for _, term := range opts.Terms {
		term = strings.TrimSpace(term)
		if term == "" {
			continue
		}
		if xpath.IsAbsolute(term) {
			paths = append(paths, term)
		} else {
			paths = append(paths, xpath.Path(opts.OuterXPath, term, ""))
		}
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: xpath strategy without xpath terms", entities.ErrMalformedDescriptor)
	}
	return newXPathResult(root, opts, search, xpath.Union(paths...)), nil
}

// positionStrategy selects an element by its position among the matches of
// the element XPath.
type positionStrategy struct {
	last         bool
	requireIndex bool
}

func (st positionStrategy) Find(_ context.Context, root interfaces.Element, opts entities.LocateOptions, search entities.SearchOptions) (LocateResult, error) {
	path := xpath.Path(opts.OuterXPath, opts.ElementXPathValue(), "")
	if st.last {
		return &XPathResult{XPath: xpath.WrapWithLast(path), Root: root, SearchOptions: search}, nil
	}
	index, ok := opts.IndexValue()
	if !ok && st.requireIndex {
		return nil, fmt.Errorf("%w: index strategy without index", entities.ErrMalformedDescriptor)
	}
	return &XPathResult{XPath: xpath.WrapWithIndex(path, index), Root: root, SearchOptions: search}, nil
}

// descendantOrSelfStrategy picks the scope root itself or its first
// descendant matching the element XPath.
type descendantOrSelfStrategy struct{}

func (descendantOrSelfStrategy) Find(_ context.Context, root interfaces.Element, opts entities.LocateOptions, search entities.SearchOptions) (LocateResult, error) {
	index, _ := opts.IndexValue()
	path := xpath.WrapWithIndex("descendant-or-self::"+opts.ElementXPathValue(), index)
	return &XPathResult{XPath: path, Root: root, SearchOptions: search}, nil
}

type firstDescendantStrategy struct{}

func (firstDescendantStrategy) Find(_ context.Context, root interfaces.Element, opts entities.LocateOptions, search entities.SearchOptions) (LocateResult, error) {
	index, _ := opts.IndexValue()
	path := xpath.WrapWithIndex(xpath.DefaultOuterXPath+opts.ElementXPathValue(), index)
	return &XPathResult{XPath: path, Root: root, SearchOptions: search}, nil
}

// innerOptions keeps what the subsequent step of a two-step strategy needs.
func innerOptions(opts entities.LocateOptions) entities.LocateOptions {
	return entities.LocateOptions{
		ElementXPath: opts.ElementXPath,
		Index:        opts.Index,
	}
}

// cssStrategy polls for elements matching any CSS term, then narrows each
// match with the element XPath.
type cssStrategy struct {
	search *searcher
}

func (st cssStrategy) Find(ctx context.Context, root interfaces.Element, opts entities.LocateOptions, search entities.SearchOptions) (LocateResult, error) {
	var found []interfaces.Element
	_, err := poll(ctx, search, func() (bool, error) {
		found = found[:0]
		for _, selector := range opts.Terms {
			elements, err := st.search.findOnce(ctx, root, interfaces.ByCSS, selector, search.VisibilityValue())
			if err != nil {
				return false, err
			}
			found = append(found, elements...)
		}
		return len(found) > 0, nil
	})
	if err != nil {
		return nil, err
	}
	description := "css " + strings.Join(opts.Terms, ", ")
	if index, ok := opts.IndexValue(); ok {
		if index >= len(found) {
			return Missing{Description: fmt.Sprintf("%s [%d]", description, index)}, nil
		}
		found = found[index : index+1]
	}
	if len(found) == 0 {
		return Missing{Description: description}, nil
	}
	next := innerOptions(opts)
	next.Index.Valid = false
	return &SubsequentResult{
		Strategy:     descendantOrSelfStrategy{},
		ScopeSources: found,
		Options:      next,
	}, nil
}

// labelStrategy finds labels by their text, then the control each label
// refers to.
type labelStrategy struct {
	search *searcher
}

func (st labelStrategy) Find(ctx context.Context, root interfaces.Element, opts entities.LocateOptions, search entities.SearchOptions) (LocateResult, error) {
	condition := xpath.TermsCondition(opts.Terms, "normalize-space(.)", opts.MatchValue())
	labelsXPath := xpath.Path(opts.OuterXPath, "label", condition)
	labels, err := st.search.findAll(ctx, root, interfaces.ByXPath, labelsXPath, search)
	if err != nil {
		return nil, err
	}
	if len(labels) == 0 {
		return Missing{Description: labelsXPath}, nil
	}
	return &SubsequentResult{
		Strategy:     labelTargetStrategy{search: st.search},
		ScopeSources: labels,
		Options:      innerOptions(opts),
	}, nil
}

// labelTargetStrategy resolves the control of a label: the element whose id
// is the label's "for" attribute, or else the control nested in the label.
type labelTargetStrategy struct {
	search *searcher
}

func (st labelTargetStrategy) Find(ctx context.Context, label interfaces.Element, opts entities.LocateOptions, search entities.SearchOptions) (LocateResult, error) {
	forID, err := st.search.session.Attribute(ctx, label, "for")
	if err != nil {
		return nil, fmt.Errorf("failed to read label target: %w", err)
	}
	if forID != "" {
		path := "//" + opts.ElementXPathValue() + "[@id=" + xpath.Literal(forID) + "]"
		return newXPathResult(nil, opts, search, path), nil
	}
	return newXPathResult(label, opts, search, xpath.DefaultOuterXPath+opts.ElementXPathValue()), nil
}

// fieldSetStrategy finds fieldsets by legend text, then searches inside.
type fieldSetStrategy struct {
	search *searcher
}

func (st fieldSetStrategy) Find(ctx context.Context, root interfaces.Element, opts entities.LocateOptions, search entities.SearchOptions) (LocateResult, error) {
	condition := "legend[" + xpath.TermsCondition(opts.Terms, "normalize-space(.)", opts.MatchValue()) + "]"
	fieldSetsXPath := xpath.Path(opts.OuterXPath, "fieldset", condition)
	fieldSets, err := st.search.findAll(ctx, root, interfaces.ByXPath, fieldSetsXPath, search)
	if err != nil {
		return nil, err
	}
	if len(fieldSets) == 0 {
		return Missing{Description: fieldSetsXPath}, nil
	}
	return &SubsequentResult{
		Strategy:     firstDescendantStrategy{},
		ScopeSources: fieldSets,
		Options:      innerOptions(opts),
	}, nil
}

// scriptStrategy runs the terms as a script that receives the search root as
// arguments[0] and returns elements. The script is polled lazily, when the
// result is resolved.
type scriptStrategy struct {
	search *searcher
}

func (st scriptStrategy) Find(_ context.Context, root interfaces.Element, opts entities.LocateOptions, _ entities.SearchOptions) (LocateResult, error) {
	script := strings.Join(opts.Terms, "\n")
	if strings.TrimSpace(script) == "" {
		return nil, fmt.Errorf("%w: script strategy without script", entities.ErrMalformedDescriptor)
	}
	index, hasIndex := opts.IndexValue()
	next := innerOptions(opts)
	next.Index.Valid = false
	return &SubsequentResult{
		Strategy: descendantOrSelfStrategy{},
		Deferred: func(ctx context.Context, search entities.SearchOptions) ([]interfaces.Element, error) {
			found, err := st.search.scriptElements(ctx, script, root, search)
			if err != nil || !hasIndex {
				return found, err
			}
			if index >= len(found) {
				return nil, nil
			}
			return found[index : index+1], nil
		},
		Options: next,
	}, nil
}
