package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/playwright-community/playwright-go"
	"github.com/sirupsen/logrus"

	"ui_automation/domain/entities"
	"ui_automation/domain/interfaces"
)

var _ interfaces.Session = &PlaywrightSession{}

// playwrightStaleMarkers are the Playwright messages of operations on detached nodes.
var playwrightStaleMarkers = []string{
	"not attached to the DOM",
	"Element is not attached",
	"JSHandle is disposed",
	"Execution context was destroyed",
}

type playwrightElement struct {
	id     string
	handle playwright.ElementHandle
}

func (e *playwrightElement) ID() string { return e.id }

// PlaywrightSession is a Session driving Chromium through playwright-go.
type PlaywrightSession struct {
	pw         *playwright.Playwright
	browser    playwright.Browser
	context    playwright.BrowserContext
	page       playwright.Page
	pagesMutex sync.Mutex
	logger     logrus.FieldLogger
}

// NewPlaywrightSession - starts playwright and opens a page
func NewPlaywrightSession(headless bool, logger logrus.FieldLogger) (*PlaywrightSession, error) {
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(headless),
		Args: []string{
			"--disable-popup-blocking",
			"--disable-blink-features=AutomationControlled",
			"--disable-dev-shm-usage",
			"--no-sandbox",
			"--disable-infobars",
			"--disable-notifications",
		},
	})
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	browserContext, err := browser.NewContext(playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{
			Width:  1280,
			Height: 720,
		},
		JavaScriptEnabled: playwright.Bool(true),
		IgnoreHttpsErrors: playwright.Bool(true),
		BypassCSP:         playwright.Bool(true),
	})
	if err != nil {
		_ = browser.Close()
		_ = pw.Stop()
		return nil, fmt.Errorf("failed to create context: %w", err)
	}

	page, err := browserContext.NewPage()
	if err != nil {
		_ = browser.Close()
		_ = pw.Stop()
		return nil, fmt.Errorf("failed to create page: %w", err)
	}

	s := &PlaywrightSession{
		pw:      pw,
		browser: browser,
		context: browserContext,
		page:    page,
		logger:  logger,
	}
	s.watchPage(page)

	// Popups become the searched page until they close.
	browserContext.OnPage(func(newPage playwright.Page) {
		s.pagesMutex.Lock()
		s.page = newPage
		s.pagesMutex.Unlock()
		s.watchPage(newPage)
	})

	return s, nil
}

func (s *PlaywrightSession) watchPage(page playwright.Page) {
	page.OnDialog(func(dialog playwright.Dialog) {
		_ = dialog.Accept()
	})
	page.OnClose(func(closed playwright.Page) {
		s.pagesMutex.Lock()
		defer s.pagesMutex.Unlock()

		if s.page != closed {
			return
		}
		for _, p := range s.context.Pages() {
			if p != closed {
				s.page = p
				return
			}
		}
	})
}

func (s *PlaywrightSession) currentPage() playwright.Page {
	s.pagesMutex.Lock()
	defer s.pagesMutex.Unlock()
	return s.page
}

// Navigate - navigates to the specified URL
func (s *PlaywrightSession) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.logger.WithField("url", url).Info("navigating")
	_, err := s.currentPage().Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateNetworkidle,
		Timeout:   playwright.Float(30000),
	})
	if err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	return nil
}

func (s *PlaywrightSession) FindElements(ctx context.Context, root interfaces.Element, by interfaces.By, selector string) ([]interfaces.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var engineSelector string
	switch by {
	case interfaces.ByXPath:
		engineSelector = "xpath=" + selector
	case interfaces.ByCSS:
		engineSelector = "css=" + selector
	default:
		return nil, fmt.Errorf("unsupported selector kind %q", by)
	}

	var (
		handles []playwright.ElementHandle
		err     error
	)
	if root == nil {
		handles, err = s.currentPage().QuerySelectorAll(engineSelector)
	} else {
		e, castErr := s.element(root)
		if castErr != nil {
			return nil, castErr
		}
		handles, err = e.handle.QuerySelectorAll(engineSelector)
	}
	if err != nil {
		return nil, staleError(err, playwrightStaleMarkers...)
	}
	return wrapHandles(handles), nil
}

func (s *PlaywrightSession) IsDisplayed(ctx context.Context, el interfaces.Element) (bool, error) {
	e, err := s.element(el)
	if err != nil {
		return false, err
	}
	visible, err := e.handle.IsVisible()
	return visible, staleError(err, playwrightStaleMarkers...)
}

func (s *PlaywrightSession) IsAttached(ctx context.Context, el interfaces.Element) (bool, error) {
	e, err := s.element(el)
	if err != nil {
		return false, err
	}
	connected, err := e.handle.Evaluate("el => el.isConnected")
	if err = staleError(err, playwrightStaleMarkers...); err != nil {
		if errors.Is(err, interfaces.ErrStaleElement) {
			return false, nil
		}
		return false, err
	}
	attached, _ := connected.(bool)
	return attached, nil
}

func (s *PlaywrightSession) Attribute(ctx context.Context, el interfaces.Element, name string) (string, error) {
	e, err := s.element(el)
	if err != nil {
		return "", err
	}
	value, err := e.handle.GetAttribute(name)
	return value, staleError(err, playwrightStaleMarkers...)
}

// evaluateExpression adapts a function body reading arguments[i] to the
// arrow function Playwright evaluates.
func evaluateExpression(body string) string {
	return "(args) => (function() {\n" + body + "\n}).apply(null, args)"
}

func (s *PlaywrightSession) scriptArgs(args []interface{}) ([]interface{}, error) {
	converted := make([]interface{}, 0, len(args))
	for _, arg := range args {
		switch v := arg.(type) {
		case nil:
			converted = append(converted, nil)
		case interfaces.Element:
			e, err := s.element(v)
			if err != nil {
				return nil, err
			}
			converted = append(converted, e.handle)
		default:
			converted = append(converted, v)
		}
	}
	return converted, nil
}

func (s *PlaywrightSession) ExecuteScript(ctx context.Context, script string, args ...interface{}) (interface{}, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	converted, err := s.scriptArgs(args)
	if err != nil {
		return nil, err
	}
	result, err := s.currentPage().Evaluate(evaluateExpression(script), converted)
	if err != nil {
		return nil, staleError(fmt.Errorf("script failed: %w", err), playwrightStaleMarkers...)
	}
	return result, nil
}

func (s *PlaywrightSession) ExecuteScriptElements(ctx context.Context, script string, args ...interface{}) ([]interfaces.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	converted, err := s.scriptArgs(args)
	if err != nil {
		return nil, err
	}
	result, err := s.currentPage().EvaluateHandle(evaluateExpression(elementsScript(script)), converted)
	if err != nil {
		return nil, staleError(fmt.Errorf("script failed: %w", err), playwrightStaleMarkers...)
	}
	defer result.Dispose()

	length, err := result.Evaluate("r => r === null ? -1 : r.length")
	if err != nil {
		return nil, fmt.Errorf("failed to read script result: %w", err)
	}
	n := toInt(length)
	if n < 0 {
		return nil, nil
	}

	elements := make([]interfaces.Element, 0, n)
	for i := 0; i < n; i++ {
		item, err := result.EvaluateHandle("(r, i) => r[i]", i)
		if err != nil {
			return nil, fmt.Errorf("failed to read script result item %d: %w", i, err)
		}
		handle := item.AsElement()
		if handle == nil {
			item.Dispose()
			return nil, fmt.Errorf("script result item %d is not an element", i)
		}
		elements = append(elements, &playwrightElement{id: uuid.NewString(), handle: handle})
	}
	return elements, nil
}

func (s *PlaywrightSession) Describe(ctx context.Context, el interfaces.Element) (entities.PageElement, error) {
	e, err := s.element(el)
	if err != nil {
		return entities.PageElement{}, err
	}
	result, err := s.currentPage().Evaluate(evaluateExpression(describeScript), []interface{}{e.handle})
	if err != nil {
		return entities.PageElement{}, staleError(fmt.Errorf("failed to describe element: %w", err), playwrightStaleMarkers...)
	}
	m, ok := result.(map[string]interface{})
	if !ok {
		return entities.PageElement{}, fmt.Errorf("unexpected element description %T", result)
	}
	return pageElement(e.id, m), nil
}

func (s *PlaywrightSession) element(el interfaces.Element) (*playwrightElement, error) {
	e, ok := el.(*playwrightElement)
	if !ok {
		return nil, fmt.Errorf("element %q does not belong to this session", el.ID())
	}
	return e, nil
}

func wrapHandles(handles []playwright.ElementHandle) []interfaces.Element {
	elements := make([]interfaces.Element, 0, len(handles))
	for _, h := range handles {
		elements = append(elements, &playwrightElement{id: uuid.NewString(), handle: h})
	}
	return elements
}

// Close - closes the browser and stops playwright
func (s *PlaywrightSession) Close() error {
	var closeErr error

	if s.context != nil {
		if err := s.context.Close(); err != nil && !isClosedError(err) {
			closeErr = fmt.Errorf("failed to close context: %w", err)
		}
		s.context = nil
	}

	if s.browser != nil {
		if err := s.browser.Close(); err != nil && !isClosedError(err) {
			if closeErr != nil {
				closeErr = fmt.Errorf("%v; failed to close browser: %w", closeErr, err)
			} else {
				closeErr = fmt.Errorf("failed to close browser: %w", err)
			}
		}
		s.browser = nil
	}

	if s.pw != nil {
		if err := s.pw.Stop(); err != nil && closeErr == nil {
			closeErr = fmt.Errorf("failed to stop playwright: %w", err)
		}
		s.pw = nil
	}

	return closeErr
}

func isClosedError(err error) bool {
	errStr := err.Error()
	return strings.Contains(errStr, "closed") || strings.Contains(errStr, "target closed")
}
