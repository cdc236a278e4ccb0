package browser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/antchfx/htmlquery"
	"github.com/dop251/goja"
	"golang.org/x/net/html"

	"ui_automation/domain/interfaces"
)

const handleKey = "__handle"

// scriptBridge exposes document nodes to one goja run. Node objects carry
// tagName, id, textContent and getAttribute, plus children, parentElement and
// shadowRoot accessors, which is the subset locator scripts rely on.
type scriptBridge struct {
	vm      *goja.Runtime
	session *DOMSession
	objects map[*html.Node]*goja.Object
}

func newScriptBridge(s *DOMSession) *scriptBridge {
	return &scriptBridge{
		vm:      goja.New(),
		session: s,
		objects: make(map[*html.Node]*goja.Object),
	}
}

// run calls script as a function body with args bound to arguments.
func (b *scriptBridge) run(script string, args []interface{}) (goja.Value, error) {
	jsArgs := make([]interface{}, 0, len(args))
	for _, arg := range args {
		switch v := arg.(type) {
		case nil:
			jsArgs = append(jsArgs, goja.Null())
		case interfaces.Element:
			e, err := b.session.live(v)
			if err != nil {
				return nil, err
			}
			jsArgs = append(jsArgs, b.wrap(e.node))
		default:
			jsArgs = append(jsArgs, b.vm.ToValue(v))
		}
	}
	if err := b.vm.Set("__arguments", b.vm.NewArray(jsArgs...)); err != nil {
		return nil, err
	}
	if err := b.vm.Set("document", b.document()); err != nil {
		return nil, err
	}

	v, err := b.vm.RunString("(function() {\n" + script + "\n}).apply(null, __arguments)")
	if err != nil {
		return nil, fmt.Errorf("script failed: %w", err)
	}
	return v, nil
}

// document exposes documentElement and body of the current document.
func (b *scriptBridge) document() *goja.Object {
	doc := b.vm.NewObject()
	root := htmlquery.FindOne(b.session.doc, "/html")
	b.accessor(doc, "documentElement", func() goja.Value {
		return b.wrap(root)
	})
	b.accessor(doc, "body", func() goja.Value {
		if root == nil {
			return goja.Null()
		}
		return b.wrap(htmlquery.FindOne(root, "body"))
	})
	return doc
}

func (b *scriptBridge) wrap(n *html.Node) goja.Value {
	if n == nil || n.Type != html.ElementNode {
		return goja.Null()
	}
	if o, ok := b.objects[n]; ok {
		return o
	}
	vm := b.vm
	o := vm.NewObject()
	b.objects[n] = o

	_ = o.DefineDataProperty(handleKey, vm.ToValue(b.session.handle(n).id), goja.FLAG_FALSE, goja.FLAG_FALSE, goja.FLAG_FALSE)
	_ = o.Set("tagName", strings.ToUpper(n.Data))
	_ = o.Set("id", htmlquery.SelectAttr(n, "id"))
	_ = o.Set("textContent", htmlquery.InnerText(n))
	_ = o.Set("getAttribute", func(name string) interface{} {
		if v, ok := attr(n, name); ok {
			return v
		}
		return nil
	})

	b.accessor(o, "children", func() goja.Value {
		return b.list(elementChildren(n))
	})
	b.accessor(o, "parentElement", func() goja.Value {
		if p := n.Parent; p != nil && p.Type == html.ElementNode && !isShadowTemplate(p) {
			return b.wrap(p)
		}
		return goja.Null()
	})
	b.accessor(o, "shadowRoot", func() goja.Value {
		return b.shadowRoot(n, o)
	})
	return o
}

func (b *scriptBridge) shadowRoot(host *html.Node, hostObject *goja.Object) goja.Value {
	var tmpl *html.Node
	for c := host.FirstChild; c != nil; c = c.NextSibling {
		if isShadowTemplate(c) {
			tmpl = c
			break
		}
	}
	if tmpl == nil {
		return goja.Null()
	}
	root := b.vm.NewObject()
	_ = root.Set("mode", "open")
	_ = root.Set("host", hostObject)
	b.accessor(root, "children", func() goja.Value {
		return b.list(elementChildren(tmpl))
	})
	return root
}

func (b *scriptBridge) accessor(o *goja.Object, name string, get func() goja.Value) {
	getter := b.vm.ToValue(func(goja.FunctionCall) goja.Value {
		return get()
	})
	_ = o.DefineAccessorProperty(name, getter, nil, goja.FLAG_TRUE, goja.FLAG_FALSE)
}

func (b *scriptBridge) list(nodes []*html.Node) goja.Value {
	items := make([]interface{}, 0, len(nodes))
	for _, n := range nodes {
		items = append(items, b.wrap(n))
	}
	return b.vm.NewArray(items...)
}

// elements converts a script result to handles. null and undefined give a
// nil slice, an empty array gives an empty one.
func (b *scriptBridge) elements(v goja.Value) ([]interfaces.Element, error) {
	if isNullish(v) {
		return nil, nil
	}
	obj, ok := v.(*goja.Object)
	if !ok {
		return nil, fmt.Errorf("script returned %s, want elements", v.String())
	}
	if e, ok := b.element(obj); ok {
		return []interfaces.Element{e}, nil
	}

	length := obj.Get("length")
	if isNullish(length) {
		return nil, fmt.Errorf("script returned %s, want elements", obj.String())
	}
	n := length.ToInteger()
	elements := make([]interfaces.Element, 0, n)
	for i := int64(0); i < n; i++ {
		item, ok := obj.Get(strconv.FormatInt(i, 10)).(*goja.Object)
		if !ok {
			return nil, fmt.Errorf("script result item %d is not an element", i)
		}
		e, ok := b.element(item)
		if !ok {
			return nil, fmt.Errorf("script result item %d is not an element", i)
		}
		elements = append(elements, e)
	}
	return elements, nil
}

func (b *scriptBridge) element(o *goja.Object) (*domElement, bool) {
	h := o.Get(handleKey)
	if isNullish(h) {
		return nil, false
	}
	return b.session.lookup(h.String())
}

func elementChildren(n *html.Node) []*html.Node {
	var children []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			children = append(children, c)
		}
	}
	return children
}

func isNullish(v goja.Value) bool {
	return v == nil || goja.IsUndefined(v) || goja.IsNull(v)
}
