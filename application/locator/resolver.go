package locator

import (
	"context"
	"fmt"

	"ui_automation/domain/entities"
	"ui_automation/domain/interfaces"
)

// ContextResolver turns the element resolved by a layer into the search root
// of the next step.
type ContextResolver interface {
	// DefaultOuterXPath is used by the next step when it declares none.
	DefaultOuterXPath() string
	Resolve(ctx context.Context, el interfaces.Element, session interfaces.Session) (interfaces.Element, error)
}

func newContextResolver(kind entities.ResolverKind) (ContextResolver, error) {
	switch kind {
	case "", entities.ResolverParent:
		return parentResolver{}, nil
	case entities.ResolverSibling:
		return siblingResolver{}, nil
	case entities.ResolverAncestor:
		return ancestorResolver{}, nil
	case entities.ResolverShadowHost:
		return shadowHostResolver{}, nil
	default:
		return nil, fmt.Errorf("%w: unknown context resolver %q", entities.ErrMalformedDescriptor, kind)
	}
}

// parentResolver searches inside the layer element.
type parentResolver struct{}

func (parentResolver) DefaultOuterXPath() string { return "" }

func (parentResolver) Resolve(_ context.Context, el interfaces.Element, _ interfaces.Session) (interfaces.Element, error) {
	return el, nil
}

// siblingResolver searches among the children of the layer element's parent.
type siblingResolver struct{}

func (siblingResolver) DefaultOuterXPath() string { return "../" }

func (siblingResolver) Resolve(_ context.Context, el interfaces.Element, _ interfaces.Session) (interfaces.Element, error) {
	return el, nil
}

// ancestorResolver searches under an ancestor found by the layer itself.
type ancestorResolver struct{}

func (ancestorResolver) DefaultOuterXPath() string { return ".//" }

func (ancestorResolver) Resolve(_ context.Context, el interfaces.Element, _ interfaces.Session) (interfaces.Element, error) {
	return el, nil
}

// shadowChildrenScript returns the content children of an open shadow root,
// without style and script nodes, or null when there is no shadow root.
const shadowChildrenScript = `var host = arguments[0];
var root = host.shadowRoot;
if (!root) {
	return null;
}
var result = [];
for (var i = 0; i < root.children.length; i++) {
	var tag = root.children[i].tagName.toLowerCase();
	if (tag !== 'style' && tag !== 'script') {
		result.push(root.children[i]);
	}
}
return result;`

// shadowHostResolver continues the search inside the shadow root of the
// layer element. The first content child becomes the root and "..//" from
// it covers the whole shadow tree.
type shadowHostResolver struct{}

func (shadowHostResolver) DefaultOuterXPath() string { return "..//" }

func (shadowHostResolver) Resolve(ctx context.Context, el interfaces.Element, session interfaces.Session) (interfaces.Element, error) {
	children, err := session.ExecuteScriptElements(ctx, shadowChildrenScript, el)
	if err != nil {
		return nil, fmt.Errorf("failed to read shadow root: %w", err)
	}
	if children == nil {
		return nil, entities.ErrNoShadowRoot
	}
	if len(children) == 0 {
		return nil, entities.ErrEmptyShadowRoot
	}
	return children[0], nil
}
