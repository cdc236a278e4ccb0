package browser

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/html"

	"ui_automation/domain/entities"
	"ui_automation/domain/interfaces"
)

var _ interfaces.Session = &DOMSession{}

// DOMSession is a Session over a parsed HTML document held in memory. XPath
// is evaluated by htmlquery, CSS by goquery and scripts by goja. Open shadow
// roots are declared with <template shadowrootmode="open">.
//
// The document can be replaced or mutated while other goroutines search it,
// which makes it suitable for simulating a re-rendering page.
type DOMSession struct {
	mu  sync.RWMutex
	doc *html.Node

	hmu    sync.Mutex
	byNode map[*html.Node]*domElement
	byID   map[string]*domElement

	client *http.Client
	logger logrus.FieldLogger
}

type domElement struct {
	id    string
	node  *html.Node
	owner *DOMSession
}

func (e *domElement) ID() string { return e.id }

// NewDOMSession - creates an in-memory session from markup
func NewDOMSession(markup string, logger logrus.FieldLogger) (*DOMSession, error) {
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = l
	}
	s := &DOMSession{
		client: http.DefaultClient,
		logger: logger,
	}
	if err := s.SetHTML(markup); err != nil {
		return nil, err
	}
	return s, nil
}

// SetHTML replaces the document. Handles of the previous document become
// stale.
func (s *DOMSession) SetHTML(markup string) error {
	doc, err := htmlquery.Parse(strings.NewReader(markup))
	if err != nil {
		return fmt.Errorf("failed to parse document: %w", err)
	}
	s.replace(doc)
	return nil
}

// Mutate runs fn with exclusive access to the document.
func (s *DOMSession) Mutate(fn func(doc *html.Node)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.doc)
}

func (s *DOMSession) replace(doc *html.Node) {
	s.mu.Lock()
	s.hmu.Lock()
	s.doc = doc
	s.byNode = make(map[*html.Node]*domElement)
	s.byID = make(map[string]*domElement)
	s.hmu.Unlock()
	s.mu.Unlock()

	s.logger.Debug("document replaced")
}

// Navigate loads a document from an http(s) URL, a file:// URL or a path.
func (s *DOMSession) Navigate(ctx context.Context, url string) error {
	var body io.ReadCloser
	switch {
	case strings.HasPrefix(url, "http://"), strings.HasPrefix(url, "https://"):
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		resp, err := s.client.Do(req)
		if err != nil {
			return fmt.Errorf("failed to navigate to %s: %w", url, err)
		}
		if resp.StatusCode >= http.StatusBadRequest {
			resp.Body.Close()
			return fmt.Errorf("failed to navigate to %s: status %s", url, resp.Status)
		}
		body = resp.Body
	default:
		f, err := os.Open(strings.TrimPrefix(url, "file://"))
		if err != nil {
			return fmt.Errorf("failed to navigate to %s: %w", url, err)
		}
		body = f
	}
	defer body.Close()

	doc, err := htmlquery.Parse(body)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", url, err)
	}
	s.replace(doc)
	s.logger.WithField("url", url).Info("navigated")
	return nil
}

// FindElements evaluates an XPath or CSS selector under root. Elements
// inside shadow trees are only visible to searches rooted in the same tree.
func (s *DOMSession) FindElements(ctx context.Context, root interfaces.Element, by interfaces.By, selector string) ([]interfaces.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	top := s.doc
	if root != nil {
		e, err := s.live(root)
		if err != nil {
			return nil, err
		}
		top = e.node
	}

	var nodes []*html.Node
	switch by {
	case interfaces.ByXPath:
		found, err := htmlquery.QueryAll(top, selector)
		if err != nil {
			return nil, fmt.Errorf("invalid xpath %q: %w", selector, err)
		}
		nodes = found
	case interfaces.ByCSS:
		nodes = goquery.NewDocumentFromNode(top).Find(selector).Nodes
	default:
		return nil, fmt.Errorf("unsupported selector kind %q", by)
	}

	scopes := shadowScopes(top)
	elements := make([]interfaces.Element, 0, len(nodes))
	for _, n := range nodes {
		if n.Type != html.ElementNode || hiddenByShadow(n, scopes) {
			continue
		}
		elements = append(elements, s.handle(n))
	}
	return elements, nil
}

// IsDisplayed reports whether neither the element nor an ancestor is hidden.
func (s *DOMSession) IsDisplayed(_ context.Context, el interfaces.Element) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, err := s.live(el)
	if err != nil {
		return false, err
	}
	return displayed(e.node), nil
}

func (s *DOMSession) IsAttached(_ context.Context, el interfaces.Element) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, err := s.element(el)
	if err != nil {
		return false, err
	}
	return s.attached(e.node), nil
}

func (s *DOMSession) Attribute(_ context.Context, el interfaces.Element, name string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, err := s.live(el)
	if err != nil {
		return "", err
	}
	return htmlquery.SelectAttr(e.node, name), nil
}

// ExecuteScript runs a function body with goja and exports its result.
func (s *DOMSession) ExecuteScript(ctx context.Context, script string, args ...interface{}) (interface{}, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	b := newScriptBridge(s)
	v, err := b.run(script, args)
	if err != nil {
		return nil, err
	}
	if isNullish(v) {
		return nil, nil
	}
	return v.Export(), nil
}

func (s *DOMSession) ExecuteScriptElements(ctx context.Context, script string, args ...interface{}) ([]interfaces.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	b := newScriptBridge(s)
	v, err := b.run(script, args)
	if err != nil {
		return nil, err
	}
	return b.elements(v)
}

func (s *DOMSession) Describe(_ context.Context, el interfaces.Element) (entities.PageElement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, err := s.live(el)
	if err != nil {
		return entities.PageElement{}, err
	}
	n := e.node

	attributes := make(map[string]string)
	for _, a := range n.Attr {
		if a.Key == "id" || a.Key == "class" || a.Key == "name" || a.Key == "type" || strings.HasPrefix(a.Key, "data-") {
			attributes[a.Key] = a.Val
		}
	}
	_, disabled := attr(n, "disabled")
	return entities.PageElement{
		ID:          e.id,
		Type:        n.Data,
		Selector:    selectorHint(n),
		Text:        truncateString(strings.Join(strings.Fields(htmlquery.InnerText(n)), " "), 200),
		Attributes:  attributes,
		IsVisible:   displayed(n),
		IsClickable: !disabled,
	}, nil
}

// Close - nothing to release
func (s *DOMSession) Close() error {
	return nil
}

// handle returns the stable handle of a node.
func (s *DOMSession) handle(n *html.Node) *domElement {
	s.hmu.Lock()
	defer s.hmu.Unlock()

	if e, ok := s.byNode[n]; ok {
		return e
	}
	e := &domElement{id: uuid.NewString(), node: n, owner: s}
	s.byNode[n] = e
	s.byID[e.id] = e
	return e
}

func (s *DOMSession) lookup(id string) (*domElement, bool) {
	s.hmu.Lock()
	defer s.hmu.Unlock()

	e, ok := s.byID[id]
	return e, ok
}

func (s *DOMSession) element(el interfaces.Element) (*domElement, error) {
	e, ok := el.(*domElement)
	if !ok || e.owner != s {
		return nil, fmt.Errorf("element %q does not belong to this session", el.ID())
	}
	return e, nil
}

// live is element for handles that must still be attached. Callers hold mu.
func (s *DOMSession) live(el interfaces.Element) (*domElement, error) {
	e, err := s.element(el)
	if err != nil {
		return nil, err
	}
	if !s.attached(e.node) {
		return nil, interfaces.ErrStaleElement
	}
	return e, nil
}

func (s *DOMSession) attached(n *html.Node) bool {
	for p := n; p != nil; p = p.Parent {
		if p == s.doc {
			return true
		}
	}
	return false
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func isShadowTemplate(n *html.Node) bool {
	if n.Type != html.ElementNode || n.Data != "template" {
		return false
	}
	if mode, ok := attr(n, "shadowrootmode"); ok {
		return mode == "open"
	}
	mode, ok := attr(n, "shadowroot")
	return ok && mode == "open"
}

// shadowScopes returns the shadow trees top belongs to.
func shadowScopes(top *html.Node) map[*html.Node]bool {
	scopes := make(map[*html.Node]bool)
	for p := top; p != nil; p = p.Parent {
		if isShadowTemplate(p) {
			scopes[p] = true
		}
	}
	return scopes
}

func hiddenByShadow(n *html.Node, scopes map[*html.Node]bool) bool {
	for p := n.Parent; p != nil; p = p.Parent {
		if isShadowTemplate(p) && !scopes[p] {
			return true
		}
	}
	return false
}

var nonRendered = map[string]bool{
	"head": true, "script": true, "style": true, "title": true,
	"meta": true, "link": true, "noscript": true,
}

func displayed(n *html.Node) bool {
	if n.Data == "input" {
		if t, _ := attr(n, "type"); strings.EqualFold(t, "hidden") {
			return false
		}
	}
	for p := n; p != nil && p.Type == html.ElementNode; p = p.Parent {
		if nonRendered[p.Data] {
			return false
		}
		if p.Data == "template" && !isShadowTemplate(p) {
			return false
		}
		if _, hidden := attr(p, "hidden"); hidden {
			return false
		}
		if style, ok := attr(p, "style"); ok {
			style = strings.ToLower(strings.Join(strings.Fields(style), ""))
			if strings.Contains(style, "display:none") || strings.Contains(style, "visibility:hidden") {
				return false
			}
		}
	}
	return true
}

func selectorHint(n *html.Node) string {
	if id, ok := attr(n, "id"); ok && id != "" {
		return "#" + id
	}
	if class, ok := attr(n, "class"); ok {
		if classes := strings.Fields(class); len(classes) > 0 {
			return n.Data + "." + strings.Join(classes, ".")
		}
	}
	return n.Data
}

// truncateString - truncates string to maximum length
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
